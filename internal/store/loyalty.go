package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// LedgerReason is the cause of a loyalty ledger movement.
type LedgerReason string

const (
	LedgerReasonRedeem LedgerReason = "redeem"
	LedgerReasonAward  LedgerReason = "award"
	LedgerReasonAdjust LedgerReason = "adjust"
)

// LoyaltyAccount holds a customer's current point balance.
type LoyaltyAccount struct {
	UserID    pgtype.UUID
	Balance   int64
	UpdatedAt pgtype.Timestamptz
}

// LedgerEntry is one signed movement on a loyalty account.
type LedgerEntry struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	OrderID   pgtype.UUID
	Delta     int64
	Reason    LedgerReason
	CreatedAt pgtype.Timestamptz
}

// EnsureLoyaltyAccount creates the account row if missing and returns it.
func (s *Store) EnsureLoyaltyAccount(ctx context.Context, userID pgtype.UUID) (LoyaltyAccount, error) {
	var a LoyaltyAccount
	err := s.db.QueryRow(ctx, `
		INSERT INTO loyalty_accounts (user_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, balance, updated_at`, userID).
		Scan(&a.UserID, &a.Balance, &a.UpdatedAt)
	return a, err
}

// GetLoyaltyBalance reads the current balance, zero when no account exists.
func (s *Store) GetLoyaltyBalance(ctx context.Context, userID pgtype.UUID) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE((SELECT balance FROM loyalty_accounts WHERE user_id = $1), 0)`, userID).
		Scan(&balance)
	return balance, err
}

// DebitPoints atomically subtracts points, failing when the balance is short.
// Returns the remaining balance.
func (s *Store) DebitPoints(ctx context.Context, userID pgtype.UUID, points int64) (int64, error) {
	var remaining int64
	err := s.db.QueryRow(ctx, `
		UPDATE loyalty_accounts SET balance = balance - $2, updated_at = now()
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance`, userID, points).Scan(&remaining)
	return remaining, notFound(err)
}

// CreditPoints adds points to the account, creating it when absent.
func (s *Store) CreditPoints(ctx context.Context, userID pgtype.UUID, points int64) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO loyalty_accounts (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET balance = loyalty_accounts.balance + EXCLUDED.balance, updated_at = now()
		RETURNING balance`, userID, points).Scan(&balance)
	return balance, err
}

// InsertLedgerEntry records a point movement against an order.
func (s *Store) InsertLedgerEntry(ctx context.Context, e LedgerEntry) (LedgerEntry, error) {
	var out LedgerEntry
	err := s.db.QueryRow(ctx, `
		INSERT INTO loyalty_ledger (user_id, order_id, delta, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, order_id, delta, reason, created_at`,
		e.UserID, e.OrderID, e.Delta, e.Reason).
		Scan(&out.ID, &out.UserID, &out.OrderID, &out.Delta, &out.Reason, &out.CreatedAt)
	return out, err
}

// ListLedgerEntries returns a user's ledger, newest first.
func (s *Store) ListLedgerEntries(ctx context.Context, userID pgtype.UUID, limit, offset int) ([]LedgerEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, order_id, delta, reason, created_at
		FROM loyalty_ledger WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.OrderID, &e.Delta, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
