package user

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type stubProfileStore struct {
	user      store.User
	addresses []store.Address
}

func (s *stubProfileStore) GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error) {
	return s.user, nil
}

func (s *stubProfileStore) UpdateUserProfile(ctx context.Context, id pgtype.UUID, name, phone pgtype.Text) (store.User, error) {
	s.user.Name = name
	s.user.Phone = phone
	return s.user, nil
}

func (s *stubProfileStore) CreateAddress(ctx context.Context, a store.Address) (store.Address, error) {
	if a.IsDefault {
		for i := range s.addresses {
			s.addresses[i].IsDefault = false
		}
	}
	a.ID = pgtype.UUID{Bytes: [16]byte{byte(len(s.addresses) + 1)}, Valid: true}
	s.addresses = append(s.addresses, a)
	return a, nil
}

func (s *stubProfileStore) ListAddresses(ctx context.Context, userID pgtype.UUID) ([]store.Address, error) {
	return s.addresses, nil
}

func (s *stubProfileStore) DeleteAddress(ctx context.Context, userID, addressID pgtype.UUID) error {
	for i, a := range s.addresses {
		if a.ID == addressID {
			s.addresses = append(s.addresses[:i], s.addresses[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func newUserService(q *stubProfileStore) *Service {
	return &Service{Q: q, Validate: validator.New()}
}

func TestUpdateProfile(t *testing.T) {
	q := &stubProfileStore{user: store.User{Email: "meena@example.com", Role: "customer"}}
	svc := newUserService(q)

	u, err := svc.UpdateProfile(context.Background(), pgtype.UUID{}, ProfileUpdate{Name: "Meena R", Phone: "9876500000"})
	require.NoError(t, err)
	require.Equal(t, "Meena R", u.Name.String)
	require.Equal(t, "9876500000", u.Phone.String)
}

func TestUpdateProfileRequiresName(t *testing.T) {
	svc := newUserService(&stubProfileStore{})
	_, err := svc.UpdateProfile(context.Background(), pgtype.UUID{}, ProfileUpdate{})
	require.Error(t, err)
}

func TestAddAddressRequiresStateAndCity(t *testing.T) {
	svc := newUserService(&stubProfileStore{})
	_, err := svc.AddAddress(context.Background(), pgtype.UUID{}, AddressRequest{
		ReceiverName: "Meena",
		Phone:        "9876500000",
		AddressLine:  "12 Gandhi Road",
	})
	require.Error(t, err)
}

func TestAddDefaultAddressClearsPrevious(t *testing.T) {
	q := &stubProfileStore{}
	svc := newUserService(q)

	req := AddressRequest{
		ReceiverName: "Meena",
		Phone:        "9876500000",
		State:        "Tamil Nadu",
		City:         "Chennai",
		AddressLine:  "12 Gandhi Road",
		IsDefault:    true,
	}
	_, err := svc.AddAddress(context.Background(), pgtype.UUID{}, req)
	require.NoError(t, err)

	req.AddressLine = "4 Beach Road"
	_, err = svc.AddAddress(context.Background(), pgtype.UUID{}, req)
	require.NoError(t, err)

	require.False(t, q.addresses[0].IsDefault)
	require.True(t, q.addresses[1].IsDefault)
}

func TestRemoveMissingAddress(t *testing.T) {
	svc := newUserService(&stubProfileStore{})
	err := svc.RemoveAddress(context.Background(), pgtype.UUID{}, pgtype.UUID{Bytes: [16]byte{9}, Valid: true})
	require.ErrorIs(t, err, store.ErrNotFound)
}
