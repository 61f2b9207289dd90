package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/thefaces/checkout-service/internal/model"
	"gorm.io/gorm"
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *model.Registration) error
	FindByID(ctx context.Context, id string) (*model.Registration, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Registration, error)
	List(ctx context.Context, limit, offset int) ([]*model.Registration, error)
}

type registrationRepoImpl struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepoImpl{
		db: db,
	}
}

func (r *registrationRepoImpl) Create(ctx context.Context, reg *model.Registration) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *registrationRepoImpl) FindByID(ctx context.Context, id string) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&reg).Error

	if err != nil {
		return nil, err
	}

	return &reg, nil
}

func (r *registrationRepoImpl) FindByIdempotencyKey(ctx context.Context, key string) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&reg).Error

	if err != nil {
		return nil, err
	}

	return &reg, nil
}

func (r *registrationRepoImpl) List(ctx context.Context, limit, offset int) ([]*model.Registration, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var regs []*model.Registration
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&regs).Error

	if err != nil {
		return nil, err
	}

	return regs, nil
}
