package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/labworks/intake-backend/internal/pkg/errors"
	"github.com/labworks/intake-backend/internal/pkg/logger"
	"github.com/labworks/intake-backend/internal/types"
)

type SampleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sample *types.Sample) (*types.Sample, error)
	GetByID(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID) (*types.Sample, error)
	GetBySampleCode(ctx context.Context, tx *gorm.DB, sampleCode string) (*types.Sample, error)
}

type sampleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSampleRepo(db *gorm.DB, baseLog *logger.Logger) SampleRepo {
	return &sampleRepo{db: db, log: baseLog.With("repo", "SampleRepo")}
}

func (r *sampleRepo) Create(ctx context.Context, tx *gorm.DB, sample *types.Sample) (*types.Sample, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(sample).Error; err != nil {
		return nil, err
	}
	return sample, nil
}

func (r *sampleRepo) GetByID(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID) (*types.Sample, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sample types.Sample
	if err := transaction.WithContext(ctx).
		Where("id = ?", sampleID).
		First(&sample).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &sample, nil
}

func (r *sampleRepo) GetBySampleCode(ctx context.Context, tx *gorm.DB, sampleCode string) (*types.Sample, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sample types.Sample
	if err := transaction.WithContext(ctx).
		Where("sample_code = ?", sampleCode).
		First(&sample).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &sample, nil
}
