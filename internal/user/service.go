package user

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-gerai/internal/checkout"
	"github.com/noah-isme/backend-gerai/internal/common"
)

// Store persists address book entries.
type Store interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]checkout.Address, error)
	Get(ctx context.Context, id, userID uuid.UUID) (checkout.Address, error)
	Create(ctx context.Context, a checkout.Address) (checkout.Address, error)
	Update(ctx context.Context, a checkout.Address) (checkout.Address, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// AddressInput carries the mutable fields of an address book entry.
type AddressInput struct {
	ReceiverName string
	Phone        string
	City         string
	PostalCode   string
	AddressLine  string
}

// Service manages per-user delivery addresses.
type Service struct {
	Store Store
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]checkout.Address, error) {
	return s.Store.ListByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (checkout.Address, error) {
	return s.Store.Get(ctx, id, userID)
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, in AddressInput) (checkout.Address, error) {
	if err := validateInput(in); err != nil {
		return checkout.Address{}, err
	}
	return s.Store.Create(ctx, checkout.Address{
		ID:           uuid.New(),
		UserID:       userID,
		ReceiverName: strings.TrimSpace(in.ReceiverName),
		Phone:        strings.TrimSpace(in.Phone),
		City:         strings.TrimSpace(in.City),
		PostalCode:   strings.TrimSpace(in.PostalCode),
		AddressLine:  strings.TrimSpace(in.AddressLine),
	})
}

func (s *Service) Update(ctx context.Context, id, userID uuid.UUID, in AddressInput) (checkout.Address, error) {
	if err := validateInput(in); err != nil {
		return checkout.Address{}, err
	}
	return s.Store.Update(ctx, checkout.Address{
		ID:           id,
		UserID:       userID,
		ReceiverName: strings.TrimSpace(in.ReceiverName),
		Phone:        strings.TrimSpace(in.Phone),
		City:         strings.TrimSpace(in.City),
		PostalCode:   strings.TrimSpace(in.PostalCode),
		AddressLine:  strings.TrimSpace(in.AddressLine),
	})
}

func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.Store.Delete(ctx, id, userID)
}

func validateInput(in AddressInput) error {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(in.ReceiverName) == "" {
		missing = append(missing, "receiver_name")
	}
	if strings.TrimSpace(in.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(in.AddressLine) == "" {
		missing = append(missing, "address_line")
	}
	if len(missing) > 0 {
		return &common.AppError{
			Code:       "VALIDATION_ERROR",
			Message:    "missing required fields",
			HTTPStatus: http.StatusUnprocessableEntity,
			Details:    map[string]any{"fields": missing},
		}
	}
	return nil
}
