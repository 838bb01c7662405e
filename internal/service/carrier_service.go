package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
)

var mobileBarcodePattern = regexp.MustCompile(`^/[0-9A-Z.+\-]{7}$`)

type AddCarrierInput struct {
	Type      domain.CarrierType `json:"type"`
	Number    string             `json:"number"`
	Name      string             `json:"name"`
	IsDefault bool               `json:"is_default"`
}

type CarrierService interface {
	LoadCarriers(ctx context.Context) ([]domain.Carrier, error)
	GetCarrier(ctx context.Context, carrierID string) (*domain.Carrier, error)
	AddCarrier(ctx context.Context, input AddCarrierInput) (*domain.Carrier, error)
	SetDefaultCarrier(ctx context.Context, carrierID string) (*domain.Carrier, error)
	// RemoveCarrier returns the carrier callers should treat as default afterwards, or nil.
	RemoveCarrier(ctx context.Context, carrierID string) (*domain.Carrier, error)
	DefaultCarrier(ctx context.Context) (*domain.Carrier, error)
}

type carrierService struct {
	repo   domain.CarrierRepository
	users  UserResolver
	logger *logger.Logger
	now    func() time.Time
}

func NewCarrierService(repo domain.CarrierRepository, users UserResolver, log *logger.Logger) CarrierService {
	return &carrierService{
		repo:   repo,
		users:  users,
		logger: log,
		now:    time.Now,
	}
}

func (s *carrierService) LoadCarriers(ctx context.Context) ([]domain.Carrier, error) {
	user, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	carriers, err := s.repo.ListCarriers(ctx, user.ID)
	if err != nil {
		s.logger.Error(ctx, "Failed to load carriers",
			"error", err,
		)
		return nil, err
	}

	s.logger.Debug(ctx, "Carriers loaded", "count", len(carriers))

	return carriers, nil
}

func (s *carrierService) GetCarrier(ctx context.Context, carrierID string) (*domain.Carrier, error) {
	user, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	carrier, err := s.repo.GetCarrier(ctx, carrierID)
	if err != nil {
		return nil, err
	}
	if carrier.UserID != user.ID {
		return nil, domain.ErrCarrierNotFound
	}

	return carrier, nil
}

func (s *carrierService) AddCarrier(ctx context.Context, input AddCarrierInput) (*domain.Carrier, error) {
	number, err := normalizeCarrierNumber(input.Type, input.Number)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	_, err = s.repo.FindCarrier(ctx, user.ID, input.Type, number)
	if err == nil {
		s.logger.Warn(ctx, "Carrier already registered",
			"carrier_type", input.Type,
			"number", number,
		)
		return nil, domain.ErrDuplicateCarrier
	}
	if !errors.Is(err, domain.ErrCarrierNotFound) {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = number
	}

	now := s.now()
	carrier := &domain.Carrier{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Type:      input.Type,
		Number:    number,
		Name:      name,
		IsDefault: input.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateCarrier(ctx, carrier); err != nil {
		s.logger.Error(ctx, "Failed to create carrier",
			"error", err,
		)
		return nil, err
	}

	s.logger.Info(logger.WithCarrierID(ctx, carrier.ID), "Carrier added",
		"carrier_type", carrier.Type,
		"is_default", carrier.IsDefault,
	)

	return carrier, nil
}

func (s *carrierService) SetDefaultCarrier(ctx context.Context, carrierID string) (*domain.Carrier, error) {
	ctx = logger.WithCarrierID(ctx, carrierID)

	user, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetDefaultCarrier(ctx, user.ID, carrierID, s.now()); err != nil {
		s.logger.Error(ctx, "Failed to set default carrier",
			"error", err,
		)
		return nil, err
	}

	s.logger.Info(ctx, "Default carrier changed")

	return s.repo.GetCarrier(ctx, carrierID)
}

func (s *carrierService) RemoveCarrier(ctx context.Context, carrierID string) (*domain.Carrier, error) {
	ctx = logger.WithCarrierID(ctx, carrierID)

	carrier, err := s.GetCarrier(ctx, carrierID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteCarrier(ctx, carrier.ID); err != nil {
		s.logger.Error(ctx, "Failed to delete carrier",
			"error", err,
		)
		return nil, err
	}

	s.logger.Info(ctx, "Carrier removed", "was_default", carrier.IsDefault)

	remaining, err := s.repo.ListCarriers(ctx, carrier.UserID)
	if err != nil {
		return nil, err
	}

	return effectiveDefault(remaining), nil
}

func (s *carrierService) DefaultCarrier(ctx context.Context) (*domain.Carrier, error) {
	carriers, err := s.LoadCarriers(ctx)
	if err != nil {
		return nil, err
	}

	carrier := effectiveDefault(carriers)
	if carrier == nil {
		return nil, domain.ErrNoCarrier
	}

	return carrier, nil
}

// effectiveDefault expects carriers in store order: a flagged default sorts first,
// otherwise the newest carrier stands in.
func effectiveDefault(carriers []domain.Carrier) *domain.Carrier {
	if len(carriers) == 0 {
		return nil
	}
	c := carriers[0]
	return &c
}

func normalizeCarrierNumber(carrierType domain.CarrierType, number string) (string, error) {
	if !carrierType.Valid() {
		return "", fmt.Errorf("%w: unknown type %q", domain.ErrInvalidCarrier, carrierType)
	}

	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return "", fmt.Errorf("%w: number is required", domain.ErrInvalidCarrier)
	}

	if carrierType == domain.CarrierTypeMobileBarcode && !mobileBarcodePattern.MatchString(number) {
		return "", fmt.Errorf("%w: mobile barcode must be '/' followed by 7 characters", domain.ErrInvalidCarrier)
	}

	return number, nil
}
