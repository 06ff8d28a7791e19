package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/labworks/intake-backend/internal/intake"
	pkgerrors "github.com/labworks/intake-backend/internal/pkg/errors"
	"github.com/labworks/intake-backend/internal/pkg/logger"
	"github.com/labworks/intake-backend/internal/types"
)

// LogbookRepo spans the six category ledgers. Which table an operation hits
// is decided by the category tag, never by the caller naming a table.
type LogbookRepo interface {
	FindBySampleAndSet(ctx context.Context, tx *gorm.DB, cat intake.LogCategory, sampleID, sampleSetID uuid.UUID) (types.LogEntry, error)
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, entry types.LogEntry) (bool, error)
	CountBySampleAndSet(ctx context.Context, tx *gorm.DB, cat intake.LogCategory, sampleID, sampleSetID uuid.UUID) (int64, error)
}

var logModelByCategory = map[intake.LogCategory]func() types.LogEntry{
	intake.CategoryConcreteCube:     func() types.LogEntry { return &types.ConcreteCubeLog{} },
	intake.CategoryBricksBlocks:     func() types.LogEntry { return &types.BricksBlocksLog{} },
	intake.CategoryPavers:           func() types.LogEntry { return &types.PaversLog{} },
	intake.CategoryConcreteCylinder: func() types.LogEntry { return &types.ConcreteCylinderLog{} },
	intake.CategoryWaterAbsorption:  func() types.LogEntry { return &types.WaterAbsorptionLog{} },
	intake.CategoryProjects:         func() types.LogEntry { return &types.ProjectLog{} },
}

type logbookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLogbookRepo(db *gorm.DB, baseLog *logger.Logger) LogbookRepo {
	return &logbookRepo{db: db, log: baseLog.With("repo", "LogbookRepo")}
}

func (r *logbookRepo) FindBySampleAndSet(ctx context.Context, tx *gorm.DB, cat intake.LogCategory, sampleID, sampleSetID uuid.UUID) (types.LogEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	newModel, ok := logModelByCategory[cat]
	if !ok {
		return nil, fmt.Errorf("%w: no ledger for category %q", pkgerrors.ErrInvalidArgument, cat)
	}
	entry := newModel()
	if err := transaction.WithContext(ctx).
		Where("sample_id = ? AND sample_set_id = ?", sampleID, sampleSetID).
		First(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

// CreateIfAbsent inserts the entry unless a row already holds its
// (sample_id, sample_set_id) pair. The ON CONFLICT clause rides on the
// composite unique index, so a concurrent duplicate lands as created=false
// instead of a second row.
func (r *logbookRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, entry types.LogEntry) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	sampleID, sampleSetID := entry.Keys()
	r.log.Debug("CreateIfAbsent", "table", entry.TableName(), "sample_id", sampleID, "sample_set_id", sampleSetID)
	result := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *logbookRepo) CountBySampleAndSet(ctx context.Context, tx *gorm.DB, cat intake.LogCategory, sampleID, sampleSetID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	newModel, ok := logModelByCategory[cat]
	if !ok {
		return 0, fmt.Errorf("%w: no ledger for category %q", pkgerrors.ErrInvalidArgument, cat)
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(newModel()).
		Where("sample_id = ? AND sample_set_id = ?", sampleID, sampleSetID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
