package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/thefaces/checkout-service/internal/model"
	"gorm.io/gorm"
)

type AnalyticsRepository interface {
	Create(ctx context.Context, eventType string, payload interface{}) error
}

type analyticsRepoImpl struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepoImpl{
		db: db,
	}
}

func (r *analyticsRepoImpl) Create(ctx context.Context, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	return r.db.WithContext(ctx).Create(&model.AnalyticsEvent{
		EventType: eventType,
		EventData: data,
	}).Error
}
