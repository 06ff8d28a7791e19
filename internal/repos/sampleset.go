package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labworks/intake-backend/internal/pkg/logger"
	"github.com/labworks/intake-backend/internal/types"
)

type SampleSetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sets []*types.SampleSet) ([]*types.SampleSet, error)
	GetBySampleID(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID) ([]*types.SampleSet, error)
}

type sampleSetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSampleSetRepo(db *gorm.DB, baseLog *logger.Logger) SampleSetRepo {
	return &sampleSetRepo{db: db, log: baseLog.With("repo", "SampleSetRepo")}
}

func (r *sampleSetRepo) Create(ctx context.Context, tx *gorm.DB, sets []*types.SampleSet) ([]*types.SampleSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(sets) == 0 {
		return []*types.SampleSet{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&sets).Error; err != nil {
		return nil, err
	}
	return sets, nil
}

func (r *sampleSetRepo) GetBySampleID(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID) ([]*types.SampleSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.SampleSet
	if err := transaction.WithContext(ctx).
		Where("sample_id = ?", sampleID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
