package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/ports"
)

type TurnRepository struct {
	db *gorm.DB
}

func NewTurnRepository(db *gorm.DB) ports.TurnRepository {
	return &TurnRepository{db: db}
}

func (r *TurnRepository) Save(ctx context.Context, rec *domain.TurnRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *TurnRepository) FindBySessionID(ctx context.Context, sessionID string, limit int) ([]domain.TurnRecord, error) {
	var records []domain.TurnRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
