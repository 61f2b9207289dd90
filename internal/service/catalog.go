package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/thefaces/checkout-service/internal/dto"
	"github.com/thefaces/checkout-service/internal/model"
	"github.com/thefaces/checkout-service/internal/repository"
	"gorm.io/gorm"
)

var ErrNegativePrice = errors.New("price must be non-negative")

// CatalogService is the write side of the catalog the admin CMS talks to.
// The checkout pipeline only ever reads these rows.
type CatalogService interface {
	List(ctx context.Context) ([]*model.CheckoutConfig, error)
	Create(ctx context.Context, req *dto.CheckoutConfigRequest) (*model.CheckoutConfig, error)
	Update(ctx context.Context, id uint, req *dto.CheckoutConfigRequest) (*model.CheckoutConfig, error)
	Deactivate(ctx context.Context, id uint) error
}

type catalogServiceImpl struct {
	checkoutRepo repository.CheckoutConfigRepository
}

func NewCatalogService(checkoutRepo repository.CheckoutConfigRepository) CatalogService {
	return &catalogServiceImpl{
		checkoutRepo: checkoutRepo,
	}
}

func (s *catalogServiceImpl) List(ctx context.Context) ([]*model.CheckoutConfig, error) {
	return s.checkoutRepo.List(ctx)
}

func (s *catalogServiceImpl) Create(ctx context.Context, req *dto.CheckoutConfigRequest) (*model.CheckoutConfig, error) {
	if req.Price.IsNegative() {
		return nil, ErrNegativePrice
	}

	key := strings.TrimSpace(req.CheckoutKey)
	if key == "" {
		key = generateCheckoutKey()
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	cfg := &model.CheckoutConfig{
		CheckoutKey: key,
		PackageName: req.PackageName,
		Price:       req.Price,
		Currency:    strings.ToUpper(req.Currency),
		IsActive:    isActive,
		RedirectURL: req.RedirectURL,
		ThankYouURL: req.ThankYouURL,
		Metadata:    req.Metadata,
	}

	if err := s.checkoutRepo.Create(ctx, cfg); err != nil {
		return nil, fmt.Errorf("create checkout config: %w", err)
	}

	return cfg, nil
}

func (s *catalogServiceImpl) Update(ctx context.Context, id uint, req *dto.CheckoutConfigRequest) (*model.CheckoutConfig, error) {
	if req.Price.IsNegative() {
		return nil, ErrNegativePrice
	}

	cfg, err := s.checkoutRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCheckoutNotFound
		}
		return nil, fmt.Errorf("find checkout config: %w", err)
	}

	// The public key is immutable once issued; it is baked into shared
	// checkout URLs.
	cfg.PackageName = req.PackageName
	cfg.Price = req.Price
	cfg.Currency = strings.ToUpper(req.Currency)
	cfg.RedirectURL = req.RedirectURL
	cfg.ThankYouURL = req.ThankYouURL
	if req.IsActive != nil {
		cfg.IsActive = *req.IsActive
	}
	if req.Metadata != nil {
		cfg.Metadata = req.Metadata
	}

	if err := s.checkoutRepo.Update(ctx, cfg); err != nil {
		return nil, fmt.Errorf("update checkout config: %w", err)
	}

	return cfg, nil
}

func (s *catalogServiceImpl) Deactivate(ctx context.Context, id uint) error {
	err := s.checkoutRepo.Deactivate(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCheckoutNotFound
	}
	return err
}

func generateCheckoutKey() string {
	return "chk_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
