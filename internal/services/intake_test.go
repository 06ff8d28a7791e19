package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/labworks/intake-backend/internal/db"
	"github.com/labworks/intake-backend/internal/intake"
	pkgerrors "github.com/labworks/intake-backend/internal/pkg/errors"
	"github.com/labworks/intake-backend/internal/pkg/logger"
	"github.com/labworks/intake-backend/internal/repos"
)

func newTestService(t *testing.T) (IntakeService, *gorm.DB, repos.LogbookRepo) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := db.EnsureLogIndexes(gdb); err != nil {
		t.Fatalf("ensure log indexes: %v", err)
	}
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	logbookRepo := repos.NewLogbookRepo(gdb, log)
	svc := NewIntakeService(
		gdb,
		log,
		repos.NewSampleRepo(gdb, log),
		repos.NewSampleSetRepo(gdb, log),
		repos.NewMaterialTestRepo(gdb, log),
		logbookRepo,
	)
	return svc, gdb, logbookRepo
}

func twoConcreteSetsInput() IntakeInput {
	return IntakeInput{
		ClientName:   "Acme Builders",
		ProjectTitle: "Warehouse Extension",
		ReceivedDate: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
		ReceivedBy:   "J. Cruz",
		Tests: []TestInput{
			{MaterialTest: "Compressive Strength Test"},
			{MaterialTest: "Water Absorption Test"},
		},
		Sets: []intake.SetInput{
			{
				Category:      "CONCRETE",
				Class:         "C25",
				Length:        "150",
				Width:         "150",
				Height:        "150",
				DateOfCast:    "2025-01-06",
				DateOfTest:    "2025-02-03",
				SerialNumbers: json.RawMessage(`["001","002","003"]`),
				AssignedTests: json.RawMessage(`[]`),
			},
			{
				Category:      "CONCRETE",
				Class:         "C25",
				Length:        "150",
				Width:         "150",
				Height:        "150",
				SerialNumbers: json.RawMessage(`["004","005","006"]`),
				AssignedTests: json.RawMessage(`["Water Absorption Test"]`),
			},
		},
	}
}

func TestRegisterSampleRoutesSetsToLedgers(t *testing.T) {
	svc, _, logbookRepo := newTestService(t)
	ctx := context.Background()

	result, err := svc.RegisterSample(ctx, nil, twoConcreteSetsInput())
	if err != nil {
		t.Fatalf("RegisterSample: %v", err)
	}
	if result.Sample == nil || result.Sample.ID == uuid.Nil {
		t.Fatal("sample was not created")
	}
	if result.Sample.SampleCode == "" {
		t.Fatal("sampleCode was not generated")
	}
	if len(result.Outcomes) != 2 {
		t.Fatalf("outcomes=%d, want 2", len(result.Outcomes))
	}

	first, second := result.Outcomes[0], result.Outcomes[1]
	if first.Category != "concrete_cube" || first.Status != StatusWritten {
		t.Fatalf("set 1 outcome=%+v, want written concrete_cube", first)
	}
	if second.Category != "water_absorption" || second.Status != StatusWritten {
		t.Fatalf("set 2 outcome=%+v, want written water_absorption", second)
	}

	// Both ledger rows reference the same sample.
	sampleID := result.Sample.ID
	cubeCount, err := logbookRepo.CountBySampleAndSet(ctx, nil, intake.CategoryConcreteCube, sampleID, first.SampleSetID)
	if err != nil {
		t.Fatalf("count concrete cube: %v", err)
	}
	waterCount, err := logbookRepo.CountBySampleAndSet(ctx, nil, intake.CategoryWaterAbsorption, sampleID, second.SampleSetID)
	if err != nil {
		t.Fatalf("count water absorption: %v", err)
	}
	if cubeCount != 1 || waterCount != 1 {
		t.Fatalf("ledger counts=(%d,%d), want (1,1)", cubeCount, waterCount)
	}

	// The override must not have also produced a concrete cube row for set 2.
	strayCount, err := logbookRepo.CountBySampleAndSet(ctx, nil, intake.CategoryConcreteCube, sampleID, second.SampleSetID)
	if err != nil {
		t.Fatalf("count stray: %v", err)
	}
	if strayCount != 0 {
		t.Fatalf("set 2 also landed in the concrete cube ledger (%d rows)", strayCount)
	}
}

func TestRegisterSampleMalformedAssignedTestsFallsBackToCategory(t *testing.T) {
	svc, _, _ := newTestService(t)
	input := twoConcreteSetsInput()
	input.Sets = input.Sets[:1]
	input.Sets[0].AssignedTests = json.RawMessage(`"{not json"`)

	result, err := svc.RegisterSample(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("RegisterSample: %v", err)
	}
	if result.Outcomes[0].Category != "concrete_cube" || result.Outcomes[0].Status != StatusWritten {
		t.Fatalf("outcome=%+v, want written concrete_cube", result.Outcomes[0])
	}
}

func TestRegisterSampleValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*IntakeInput)
	}{
		{name: "missing_client", mutate: func(in *IntakeInput) { in.ClientName = "" }},
		{name: "missing_project", mutate: func(in *IntakeInput) { in.ProjectTitle = "  " }},
		{name: "missing_received_date", mutate: func(in *IntakeInput) { in.ReceivedDate = time.Time{} }},
		{name: "missing_received_by", mutate: func(in *IntakeInput) { in.ReceivedBy = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, gdb, _ := newTestService(t)
			input := twoConcreteSetsInput()
			tc.mutate(&input)

			_, err := svc.RegisterSample(context.Background(), nil, input)
			if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
				t.Fatalf("err=%v, want ErrInvalidArgument", err)
			}

			// Nothing may persist on a rejected receipt.
			var sampleCount int64
			if err := gdb.Table("sample").Count(&sampleCount).Error; err != nil {
				t.Fatalf("count samples: %v", err)
			}
			if sampleCount != 0 {
				t.Fatalf("sampleCount=%d, want 0", sampleCount)
			}
		})
	}
}

// A broken ledger must not take its sibling sets down with it: the failed
// set carries a recorded error and every other set still lands in its queue.
func TestRegisterSampleLedgerFailureDoesNotAbortSiblings(t *testing.T) {
	svc, gdb, logbookRepo := newTestService(t)
	ctx := context.Background()

	if err := gdb.Exec(`DROP TABLE water_absorption_log`).Error; err != nil {
		t.Fatalf("drop water_absorption_log: %v", err)
	}

	result, err := svc.RegisterSample(ctx, nil, twoConcreteSetsInput())
	if err != nil {
		t.Fatalf("RegisterSample: %v", err)
	}
	if len(result.Outcomes) != 2 {
		t.Fatalf("outcomes=%d, want 2", len(result.Outcomes))
	}

	first, second := result.Outcomes[0], result.Outcomes[1]
	if first.Category != "concrete_cube" || first.Status != StatusWritten {
		t.Fatalf("sibling outcome=%+v, want written concrete_cube", first)
	}
	if second.Category != "water_absorption" || second.Status != StatusFailed {
		t.Fatalf("broken-ledger outcome=%+v, want failed water_absorption", second)
	}
	if second.Error == "" {
		t.Fatal("failed outcome carries no error text")
	}

	// The sample, its sets, and the sibling's ledger row all stayed committed.
	var sampleCount int64
	if err := gdb.Table("sample").Count(&sampleCount).Error; err != nil {
		t.Fatalf("count samples: %v", err)
	}
	if sampleCount != 1 {
		t.Fatalf("sampleCount=%d, want 1", sampleCount)
	}
	cubeCount, err := logbookRepo.CountBySampleAndSet(ctx, nil, intake.CategoryConcreteCube, result.Sample.ID, first.SampleSetID)
	if err != nil {
		t.Fatalf("count concrete cube: %v", err)
	}
	if cubeCount != 1 {
		t.Fatalf("cubeCount=%d, want 1", cubeCount)
	}
}

func TestRebuildLogsIsIdempotent(t *testing.T) {
	svc, _, logbookRepo := newTestService(t)
	ctx := context.Background()

	result, err := svc.RegisterSample(ctx, nil, twoConcreteSetsInput())
	if err != nil {
		t.Fatalf("RegisterSample: %v", err)
	}

	outcomes, err := svc.RebuildLogs(ctx, nil, result.Sample.ID)
	if err != nil {
		t.Fatalf("RebuildLogs: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes=%d, want 2", len(outcomes))
	}
	for i, outcome := range outcomes {
		if outcome.Status != StatusSkipped {
			t.Fatalf("rebuild outcome %d=%+v, want skipped", i, outcome)
		}
	}

	// Re-running must not add rows.
	cubeCount, err := logbookRepo.CountBySampleAndSet(ctx, nil, intake.CategoryConcreteCube, result.Sample.ID, result.Outcomes[0].SampleSetID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if cubeCount != 1 {
		t.Fatalf("cubeCount=%d after rebuild, want 1", cubeCount)
	}

	// The rebuilt classification must match the original routing.
	if outcomes[1].Category != "water_absorption" {
		t.Fatalf("rebuild category=%q, want water_absorption", outcomes[1].Category)
	}
}

func TestGetSample(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.RegisterSample(ctx, nil, twoConcreteSetsInput())
	if err != nil {
		t.Fatalf("RegisterSample: %v", err)
	}

	detail, err := svc.GetSample(ctx, nil, result.Sample.ID)
	if err != nil {
		t.Fatalf("GetSample: %v", err)
	}
	if detail.Sample.ClientName != "Acme Builders" {
		t.Fatalf("ClientName=%q", detail.Sample.ClientName)
	}
	if len(detail.Sets) != 2 {
		t.Fatalf("sets=%d, want 2", len(detail.Sets))
	}
	if len(detail.Tests) != 2 {
		t.Fatalf("tests=%d, want 2", len(detail.Tests))
	}

	if _, err := svc.GetSample(ctx, nil, uuid.New()); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("missing sample err=%v, want ErrNotFound", err)
	}
}
