package repository

import (
	"context"
	"time"

	"github.com/thefaces/checkout-service/internal/model"
	"gorm.io/gorm"
)

type CheckoutConfigRepository interface {
	FindByKey(ctx context.Context, checkoutKey string) (*model.CheckoutConfig, error)
	FindByID(ctx context.Context, id uint) (*model.CheckoutConfig, error)
	List(ctx context.Context) ([]*model.CheckoutConfig, error)
	Create(ctx context.Context, cfg *model.CheckoutConfig) error
	Update(ctx context.Context, cfg *model.CheckoutConfig) error
	Deactivate(ctx context.Context, id uint) error
}

type checkoutConfigRepoImpl struct {
	db *gorm.DB
}

func NewCheckoutConfigRepository(db *gorm.DB) CheckoutConfigRepository {
	return &checkoutConfigRepoImpl{
		db: db,
	}
}

func (r *checkoutConfigRepoImpl) FindByKey(ctx context.Context, checkoutKey string) (*model.CheckoutConfig, error) {
	var cfg model.CheckoutConfig
	err := r.db.WithContext(ctx).
		Where("checkout_key = ?", checkoutKey).
		First(&cfg).Error

	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (r *checkoutConfigRepoImpl) FindByID(ctx context.Context, id uint) (*model.CheckoutConfig, error) {
	var cfg model.CheckoutConfig
	err := r.db.WithContext(ctx).First(&cfg, id).Error
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (r *checkoutConfigRepoImpl) List(ctx context.Context) ([]*model.CheckoutConfig, error) {
	var cfgs []*model.CheckoutConfig
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&cfgs).Error

	if err != nil {
		return nil, err
	}

	return cfgs, nil
}

func (r *checkoutConfigRepoImpl) Create(ctx context.Context, cfg *model.CheckoutConfig) error {
	return r.db.WithContext(ctx).Create(cfg).Error
}

func (r *checkoutConfigRepoImpl) Update(ctx context.Context, cfg *model.CheckoutConfig) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}

func (r *checkoutConfigRepoImpl) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&model.CheckoutConfig{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
