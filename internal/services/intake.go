package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/labworks/intake-backend/internal/intake"
	"github.com/labworks/intake-backend/internal/normalization"
	pkgerrors "github.com/labworks/intake-backend/internal/pkg/errors"
	"github.com/labworks/intake-backend/internal/pkg/logger"
	"github.com/labworks/intake-backend/internal/repos"
	"github.com/labworks/intake-backend/internal/types"
)

type IntakeService interface {
	RegisterSample(ctx context.Context, tx *gorm.DB, input IntakeInput) (*IntakeResult, error)
	RebuildLogs(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID) ([]SetOutcome, error)
	GetSample(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID) (*SampleDetail, error)
}

type IntakeInput struct {
	ClientName      string
	ProjectTitle    string
	ReceivedDate    time.Time
	SampleCode      string
	ReceivedBy      string
	DeliveredBy     string
	ContactNumber   string
	TransmittalMode string
	Tests           []TestInput
	Sets            []intake.SetInput
}

type TestInput struct {
	MaterialTest string
}

type SetStatus string

const (
	// StatusWritten: the ledger row was inserted by this call.
	StatusWritten SetStatus = "written"
	// StatusSkipped: a row already existed for (sample, set); no-op.
	StatusSkipped SetStatus = "skipped"
	// StatusFailed: the ledger write errored; recorded, siblings continue.
	StatusFailed SetStatus = "failed"
)

// SetOutcome reports what happened to one set so partial failures are
// visible to the caller instead of dying in a log line.
type SetOutcome struct {
	SampleSetID uuid.UUID `json:"sample_set_id"`
	Category    string    `json:"category"`
	Status      SetStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
}

type IntakeResult struct {
	Sample   *types.Sample `json:"sample"`
	Outcomes []SetOutcome  `json:"outcomes"`
}

type SampleDetail struct {
	Sample *types.Sample         `json:"sample"`
	Sets   []*types.SampleSet    `json:"sets"`
	Tests  []*types.MaterialTest `json:"tests"`
}

type intakeService struct {
	db               *gorm.DB
	log              *logger.Logger
	sampleRepo       repos.SampleRepo
	sampleSetRepo    repos.SampleSetRepo
	materialTestRepo repos.MaterialTestRepo
	logbookRepo      repos.LogbookRepo
}

func NewIntakeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sampleRepo repos.SampleRepo,
	sampleSetRepo repos.SampleSetRepo,
	materialTestRepo repos.MaterialTestRepo,
	logbookRepo repos.LogbookRepo,
) IntakeService {
	return &intakeService{
		db:               db,
		log:              baseLog.With("service", "IntakeService"),
		sampleRepo:       sampleRepo,
		sampleSetRepo:    sampleSetRepo,
		materialTestRepo: materialTestRepo,
		logbookRepo:      logbookRepo,
	}
}

// RegisterSample handles one receipt end to end: validate, persist the
// Sample with its tests and sets in one transaction, then route every set
// into its ledger. Ledger writes run after commit and are best-effort per
// set: a specimen accepted at the front desk must land in a queue even when
// a sibling's log write fails.
func (s *intakeService) RegisterSample(ctx context.Context, tx *gorm.DB, input IntakeInput) (*IntakeResult, error) {
	if err := validateReceipt(input); err != nil {
		return nil, err
	}

	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	sampleCode := strings.TrimSpace(input.SampleCode)
	if sampleCode == "" {
		sampleCode = generateSampleCode(input.ReceivedDate)
	}
	s.log.Info("RegisterSample", "client", input.ClientName, "sample_code", sampleCode, "sets", len(input.Sets))

	now := time.Now()
	sample := &types.Sample{
		ID:              uuid.New(),
		ClientName:      strings.TrimSpace(input.ClientName),
		ProjectTitle:    strings.TrimSpace(input.ProjectTitle),
		ReceivedDate:    input.ReceivedDate,
		SampleCode:      sampleCode,
		ReceivedBy:      strings.TrimSpace(input.ReceivedBy),
		DeliveredBy:     strings.TrimSpace(input.DeliveredBy),
		ContactNumber:   strings.TrimSpace(input.ContactNumber),
		TransmittalMode: strings.TrimSpace(input.TransmittalMode),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	normalized := make([]intake.NormalizedSet, len(input.Sets))
	setRows := make([]*types.SampleSet, len(input.Sets))
	for i, raw := range input.Sets {
		set, warnings := intake.NormalizeSet(raw)
		for _, w := range warnings {
			s.log.Warn("Set field degraded to default", "sample_code", sampleCode, "set_index", i, "warning", w)
		}
		normalized[i] = set
		setRows[i] = s.buildSetRow(sample.ID, i, raw, set, now)
	}

	err := transaction.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if _, err := s.sampleRepo.Create(ctx, txn, sample); err != nil {
			return fmt.Errorf("create sample: %w", err)
		}
		tests := make([]*types.MaterialTest, 0, len(input.Tests))
		for _, t := range input.Tests {
			name := strings.TrimSpace(t.MaterialTest)
			if name == "" {
				continue
			}
			tests = append(tests, &types.MaterialTest{
				ID:        uuid.New(),
				SampleID:  sample.ID,
				Name:      name,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		if _, err := s.materialTestRepo.Create(ctx, txn, tests); err != nil {
			return fmt.Errorf("create material tests: %w", err)
		}
		if _, err := s.sampleSetRepo.Create(ctx, txn, setRows); err != nil {
			return fmt.Errorf("create sample sets: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("RegisterSample persistence failed", "sample_code", sampleCode, "error", err)
		return nil, err
	}

	sctx := sampleContext(sample)
	outcomes := make([]SetOutcome, len(setRows))
	for i, row := range setRows {
		outcomes[i] = s.writeSetLog(ctx, transaction, sctx, normalized[i], row.ID)
	}
	return &IntakeResult{Sample: sample, Outcomes: outcomes}, nil
}

// RebuildLogs re-runs the classification pipeline for an already persisted
// sample. Sets whose ledger row exists come back as skipped, which makes the
// call safe to retry after a partial failure.
func (s *intakeService) RebuildLogs(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID) ([]SetOutcome, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	sample, err := s.sampleRepo.GetByID(ctx, transaction, sampleID)
	if err != nil {
		return nil, err
	}
	sets, err := s.sampleSetRepo.GetBySampleID(ctx, transaction, sampleID)
	if err != nil {
		return nil, err
	}
	sctx := sampleContext(sample)
	outcomes := make([]SetOutcome, len(sets))
	for i, row := range sets {
		outcomes[i] = s.writeSetLog(ctx, transaction, sctx, s.setFromRow(row), row.ID)
	}
	return outcomes, nil
}

func (s *intakeService) GetSample(ctx context.Context, tx *gorm.DB, sampleID uuid.UUID) (*SampleDetail, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	sample, err := s.sampleRepo.GetByID(ctx, transaction, sampleID)
	if err != nil {
		return nil, err
	}
	sets, err := s.sampleSetRepo.GetBySampleID(ctx, transaction, sampleID)
	if err != nil {
		return nil, err
	}
	tests, err := s.materialTestRepo.GetBySampleID(ctx, transaction, sampleID)
	if err != nil {
		return nil, err
	}
	return &SampleDetail{Sample: sample, Sets: sets, Tests: tests}, nil
}

// writeSetLog drives one set through Classify → MapFields → idempotent
// insert. Per set: Normalized → Classified → Mapped → Written | Skipped |
// Failed; no state ever goes back and failures never propagate to siblings.
func (s *intakeService) writeSetLog(ctx context.Context, tx *gorm.DB, sctx intake.SampleContext, set intake.NormalizedSet, setID uuid.UUID) SetOutcome {
	cat := intake.Classify(set)
	entry := intake.MapFields(sctx, set, setID, cat)

	outcome := SetOutcome{SampleSetID: setID, Category: cat.String()}
	if _, err := s.logbookRepo.FindBySampleAndSet(ctx, tx, cat, sctx.SampleID, setID); err == nil {
		outcome.Status = StatusSkipped
		return outcome
	} else if !isNotFound(err) {
		s.log.Error("Ledger existence check failed", "sample_id", sctx.SampleID, "sample_set_id", setID, "category", cat.String(), "error", err)
		outcome.Status = StatusFailed
		outcome.Error = err.Error()
		return outcome
	}

	created, err := s.logbookRepo.CreateIfAbsent(ctx, tx, entry)
	if err != nil {
		s.log.Error("Ledger write failed", "sample_id", sctx.SampleID, "sample_set_id", setID, "category", cat.String(), "error", err)
		outcome.Status = StatusFailed
		outcome.Error = err.Error()
		return outcome
	}
	if !created {
		// Lost a race with a concurrent submission of the same receipt;
		// the row exists, which is all the contract asks for.
		outcome.Status = StatusSkipped
		return outcome
	}
	outcome.Status = StatusWritten
	return outcome
}

func (s *intakeService) buildSetRow(sampleID uuid.UUID, position int, raw intake.SetInput, set intake.NormalizedSet, now time.Time) *types.SampleSet {
	return &types.SampleSet{
		ID:            uuid.New(),
		SampleID:      sampleID,
		Position:      position,
		Category:      strings.TrimSpace(raw.Category),
		Class:         set.Class,
		Length:        set.Length,
		Width:         set.Width,
		Height:        set.Height,
		Diameter:      set.Diameter,
		Thickness:     set.Thickness,
		NumPerSqm:     set.NumPerSqm,
		BlockType:     set.BlockType,
		Holes:         marshalJSON(set.Holes),
		SerialNumbers: marshalJSON(set.SerialNumbers),
		AssignedTests: marshalJSON(set.AssignedTests),
		CastingDate:   set.CastingDate,
		TestingDate:   set.TestingDate,
		AgeDays:       set.AgeDays,
		AreaOfUse:     set.AreaOfUse,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// setFromRow rebuilds the canonical set form from a persisted row. The
// stored list columns are already canonical JSON arrays, so a decode failure
// only means an empty list.
func (s *intakeService) setFromRow(row *types.SampleSet) intake.NormalizedSet {
	set := intake.NormalizedSet{
		Category:    normalization.ParseInputString(row.Category),
		Class:       row.Class,
		Length:      row.Length,
		Width:       row.Width,
		Height:      row.Height,
		Diameter:    row.Diameter,
		Thickness:   row.Thickness,
		NumPerSqm:   row.NumPerSqm,
		BlockType:   row.BlockType,
		CastingDate: row.CastingDate,
		TestingDate: row.TestingDate,
		AgeDays:     row.AgeDays,
		AreaOfUse:   row.AreaOfUse,
	}
	_ = json.Unmarshal(row.Holes, &set.Holes)
	_ = json.Unmarshal(row.SerialNumbers, &set.SerialNumbers)
	_ = json.Unmarshal(row.AssignedTests, &set.AssignedTests)
	return set
}

func validateReceipt(input IntakeInput) error {
	if strings.TrimSpace(input.ClientName) == "" {
		return fmt.Errorf("%w: clientName is required", pkgerrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(input.ProjectTitle) == "" {
		return fmt.Errorf("%w: projectTitle is required", pkgerrors.ErrInvalidArgument)
	}
	if input.ReceivedDate.IsZero() {
		return fmt.Errorf("%w: receivedDate is required", pkgerrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(input.ReceivedBy) == "" {
		return fmt.Errorf("%w: receivedBy is required", pkgerrors.ErrInvalidArgument)
	}
	return nil
}

func sampleContext(sample *types.Sample) intake.SampleContext {
	return intake.SampleContext{
		SampleID:     sample.ID,
		ClientName:   sample.ClientName,
		ProjectTitle: sample.ProjectTitle,
		ReceivedDate: sample.ReceivedDate,
		SampleCode:   sample.SampleCode,
	}
}

func generateSampleCode(receivedDate time.Time) string {
	return fmt.Sprintf("SMP-%s-%s", receivedDate.Format("20060102"), uuid.NewString()[:8])
}

func marshalJSON(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func isNotFound(err error) bool {
	return errors.Is(err, pkgerrors.ErrNotFound)
}
