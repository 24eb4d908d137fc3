package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type stubUserStore struct {
	users    map[string]store.User
	byID     map[pgtype.UUID]store.User
	tokens   map[string]store.RefreshToken
	inserted int
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{
		users:  map[string]store.User{},
		byID:   map[pgtype.UUID]store.User{},
		tokens: map[string]store.RefreshToken{},
	}
}

func (s *stubUserStore) CreateUser(ctx context.Context, email, passwordHash string, name pgtype.Text) (store.User, error) {
	u := store.User{
		ID:           pgtype.UUID{Bytes: [16]byte{byte(len(s.users) + 1)}, Valid: true},
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         "customer",
	}
	s.users[email] = u
	s.byID[u.ID] = u
	return u, nil
}

func (s *stubUserStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	u, ok := s.users[email]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *stubUserStore) GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *stubUserStore) InsertRefreshToken(ctx context.Context, userID pgtype.UUID, tokenHash string, expiresAt time.Time) error {
	s.inserted++
	s.tokens[tokenHash] = store.RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: pgtype.Timestamptz{Time: expiresAt, Valid: true},
	}
	return nil
}

func (s *stubUserStore) GetRefreshToken(ctx context.Context, tokenHash string) (store.RefreshToken, error) {
	t, ok := s.tokens[tokenHash]
	if !ok {
		return store.RefreshToken{}, store.ErrNotFound
	}
	return t, nil
}

func (s *stubUserStore) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	delete(s.tokens, tokenHash)
	return nil
}

func newAuthService(t *testing.T, q userStore) *Service {
	t.Helper()
	svc, err := NewService(Config{Queries: q, Secret: "test-secret-please-rotate"})
	require.NoError(t, err)
	return svc
}

func registerAndLogin(t *testing.T, svc *Service) Session {
	t.Helper()
	_, err := svc.Register(context.Background(), "Meena", "meena@example.com", "super-secret")
	require.NoError(t, err)
	session, err := svc.Login(context.Background(), "meena@example.com", "super-secret")
	require.NoError(t, err)
	return session
}

func TestRegisterHashesPassword(t *testing.T) {
	q := newStubUserStore()
	svc := newAuthService(t, q)

	user, err := svc.Register(context.Background(), "Meena", "Meena@Example.com", "super-secret")
	require.NoError(t, err)
	require.Equal(t, "meena@example.com", user.Email)
	require.Equal(t, "customer", user.Role)

	stored := q.users["meena@example.com"]
	require.NotEqual(t, "super-secret", stored.PasswordHash)
	ok, err := argon2id.ComparePasswordAndHash("super-secret", stored.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newAuthService(t, newStubUserStore())
	_, err := svc.Register(context.Background(), "Meena", "meena@example.com", "short")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION", appErr.Code)
}

func TestLoginIssuesValidAccessToken(t *testing.T) {
	q := newStubUserStore()
	svc := newAuthService(t, q)
	session := registerAndLogin(t, svc)

	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)
	require.Equal(t, 1, q.inserted)

	identity, err := svc.ParseAccessToken(session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, session.User.ID, identity.UserID)
	require.Equal(t, "customer", identity.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t, newStubUserStore())
	_, err := svc.Register(context.Background(), "Meena", "meena@example.com", "super-secret")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "meena@example.com", "wrong-password")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	q := newStubUserStore()
	svc := newAuthService(t, q)
	session := registerAndLogin(t, svc)

	rotated, err := svc.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

	// The old token must be unusable after rotation.
	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	require.Error(t, err)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	q := newStubUserStore()
	svc := newAuthService(t, q)
	session := registerAndLogin(t, svc)

	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken))
	_, err := svc.Refresh(context.Background(), session.RefreshToken)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	q := newStubUserStore()
	svc := newAuthService(t, q)
	session := registerAndLogin(t, svc)

	svc.WithNow(func() time.Time { return time.Now().Add(time.Hour) })
	_, err := svc.ParseAccessToken(session.AccessToken)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(t, newStubUserStore())
	_, err := svc.ParseAccessToken("not-a-token")
	require.Error(t, err)
}
