// Package user covers the account profile and the delivery address book.
package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

type profileStore interface {
	GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error)
	UpdateUserProfile(ctx context.Context, id pgtype.UUID, name, phone pgtype.Text) (store.User, error)
	CreateAddress(ctx context.Context, a store.Address) (store.Address, error)
	ListAddresses(ctx context.Context, userID pgtype.UUID) ([]store.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID pgtype.UUID) error
}

// Service manages profiles and addresses.
type Service struct {
	Q        profileStore
	Validate *validator.Validate
}

// ProfileUpdate mutates the editable profile fields.
type ProfileUpdate struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone"`
}

// AddressRequest adds a delivery address.
type AddressRequest struct {
	Label        string `json:"label"`
	ReceiverName string `json:"receiverName" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	State        string `json:"state" validate:"required"`
	City         string `json:"city" validate:"required"`
	PostalCode   string `json:"postalCode"`
	AddressLine  string `json:"addressLine" validate:"required"`
	IsDefault    bool   `json:"isDefault"`
}

// Profile fetches the user record.
func (s *Service) Profile(ctx context.Context, userID pgtype.UUID) (store.User, error) {
	return s.Q.GetUserByID(ctx, userID)
}

// UpdateProfile applies a profile mutation.
func (s *Service) UpdateProfile(ctx context.Context, userID pgtype.UUID, req ProfileUpdate) (store.User, error) {
	if err := s.Validate.Struct(req); err != nil {
		return store.User{}, common.ValidationError("invalid profile payload", nil)
	}
	return s.Q.UpdateUserProfile(ctx, userID, store.Text(req.Name), store.Text(req.Phone))
}

// AddAddress appends to the address book. The shipping estimator depends on
// state and city being present, so both are required here.
func (s *Service) AddAddress(ctx context.Context, userID pgtype.UUID, req AddressRequest) (store.Address, error) {
	if err := s.Validate.Struct(req); err != nil {
		return store.Address{}, common.ValidationError("invalid address payload", nil)
	}
	return s.Q.CreateAddress(ctx, store.Address{
		UserID:       userID,
		Label:        store.Text(req.Label),
		ReceiverName: store.Text(req.ReceiverName),
		Phone:        store.Text(req.Phone),
		State:        req.State,
		City:         req.City,
		PostalCode:   store.Text(req.PostalCode),
		AddressLine:  req.AddressLine,
		IsDefault:    req.IsDefault,
	})
}

// Addresses lists the user's address book, default first.
func (s *Service) Addresses(ctx context.Context, userID pgtype.UUID) ([]store.Address, error) {
	return s.Q.ListAddresses(ctx, userID)
}

// RemoveAddress deletes an address the user owns.
func (s *Service) RemoveAddress(ctx context.Context, userID, addressID pgtype.UUID) error {
	return s.Q.DeleteAddress(ctx, userID, addressID)
}
