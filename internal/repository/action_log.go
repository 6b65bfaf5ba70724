package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tobyStaff/stafford.dev/internal/models"
)

// ActionLogRepository records authentication audit events.
type ActionLogRepository interface {
	Record(ctx context.Context, entry *models.ActionLog) error
}

type actionLogRepository struct {
	db *gorm.DB
}

// NewActionLogRepository creates a new ActionLogRepository instance.
func NewActionLogRepository(db *gorm.DB) ActionLogRepository {
	return &actionLogRepository{db: db}
}

func (r *actionLogRepository) Record(ctx context.Context, entry *models.ActionLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record action log: %w", err)
	}
	return nil
}
