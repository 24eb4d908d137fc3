package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// User is a registered shopper or staff member.
type User struct {
	ID           pgtype.UUID
	Email        string
	PasswordHash string
	Name         pgtype.Text
	Phone        pgtype.Text
	Role         string
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

// Address is a delivery address in a user's address book.
type Address struct {
	ID           pgtype.UUID
	UserID       pgtype.UUID
	Label        pgtype.Text
	ReceiverName pgtype.Text
	Phone        pgtype.Text
	State        string
	City         string
	PostalCode   pgtype.Text
	AddressLine  string
	IsDefault    bool
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

// RefreshToken is a persisted refresh token hash.
type RefreshToken struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	TokenHash string
	ExpiresAt pgtype.Timestamptz
	RevokedAt pgtype.Timestamptz
}

// CreateUser inserts a user with the customer role.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string, name pgtype.Text) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, role)
		VALUES ($1, $2, $3, 'customer')
		RETURNING id, email, password_hash, name, phone, role, created_at, updated_at`,
		email, passwordHash, name).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetUserByEmail fetches a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, name, phone, role, created_at, updated_at
		FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, notFound(err)
}

// GetUserByID fetches a user by id.
func (s *Store) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash, name, phone, role, created_at, updated_at
		FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, notFound(err)
}

// UpdateUserProfile mutates name and phone.
func (s *Store) UpdateUserProfile(ctx context.Context, id pgtype.UUID, name, phone pgtype.Text) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		UPDATE users SET name = $2, phone = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, email, password_hash, name, phone, role, created_at, updated_at`,
		id, name, phone).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, notFound(err)
}

// CreateAddress inserts an address; when default it clears the previous default.
func (s *Store) CreateAddress(ctx context.Context, a Address) (Address, error) {
	if a.IsDefault {
		if _, err := s.db.Exec(ctx, `UPDATE addresses SET is_default = false WHERE user_id = $1`, a.UserID); err != nil {
			return Address{}, err
		}
	}
	var out Address
	err := s.db.QueryRow(ctx, `
		INSERT INTO addresses (user_id, label, receiver_name, phone, state, city, postal_code, address_line, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, user_id, label, receiver_name, phone, state, city, postal_code, address_line, is_default, created_at, updated_at`,
		a.UserID, a.Label, a.ReceiverName, a.Phone, a.State, a.City, a.PostalCode, a.AddressLine, a.IsDefault).
		Scan(&out.ID, &out.UserID, &out.Label, &out.ReceiverName, &out.Phone, &out.State, &out.City, &out.PostalCode, &out.AddressLine, &out.IsDefault, &out.CreatedAt, &out.UpdatedAt)
	return out, err
}

// ListAddresses returns the user's address book, default first.
func (s *Store) ListAddresses(ctx context.Context, userID pgtype.UUID) ([]Address, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, label, receiver_name, phone, state, city, postal_code, address_line, is_default, created_at, updated_at
		FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Label, &a.ReceiverName, &a.Phone, &a.State, &a.City, &a.PostalCode, &a.AddressLine, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAddress removes an address owned by the user.
func (s *Store) DeleteAddress(ctx context.Context, userID, addressID pgtype.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertRefreshToken stores a refresh token hash.
func (s *Store) InsertRefreshToken(ctx context.Context, userID pgtype.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)`, userID, tokenHash, expiresAt)
	return err
}

// GetRefreshToken resolves a live refresh token by hash.
func (s *Store) GetRefreshToken(ctx context.Context, tokenHash string) (RefreshToken, error) {
	var t RefreshToken
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > now()`, tokenHash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt)
	return t, notFound(err)
}

// RevokeRefreshToken invalidates a refresh token.
func (s *Store) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL`, tokenHash)
	return err
}
