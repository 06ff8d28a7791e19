package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labworks/intake-backend/internal/pkg/logger"
	"github.com/labworks/intake-backend/internal/types"
)

type MaterialTestRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tests []*types.MaterialTest) ([]*types.MaterialTest, error)
	GetBySampleID(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID) ([]*types.MaterialTest, error)
}

type materialTestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialTestRepo(db *gorm.DB, baseLog *logger.Logger) MaterialTestRepo {
	return &materialTestRepo{db: db, log: baseLog.With("repo", "MaterialTestRepo")}
}

func (r *materialTestRepo) Create(ctx context.Context, tx *gorm.DB, tests []*types.MaterialTest) ([]*types.MaterialTest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(tests) == 0 {
		return []*types.MaterialTest{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

func (r *materialTestRepo) GetBySampleID(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID) ([]*types.MaterialTest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.MaterialTest
	if err := transaction.WithContext(ctx).
		Where("sample_id = ?", sampleID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
