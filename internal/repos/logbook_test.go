package repos

import (
	"context"
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
	"github.com/labworks/intake-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	return gdb
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func cubeEntry(sampleID, setID uuid.UUID) *types.ConcreteCubeLog {
	now := time.Now()
	return &types.ConcreteCubeLog{
		LogCommon: types.LogCommon{
			ID:           uuid.New(),
			SampleID:     sampleID,
			SampleSetID:  setID,
			ClientName:   "Acme Builders",
			ProjectTitle: "Warehouse Extension",
			DateReceived: now,
			ReceiptNo:    "SMP-20250203-ab12cd34",
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		Class: "C25",
	}
}

func TestLogbookCreateIfAbsentIsIdempotent(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewLogbookRepo(gdb, testLogger(t))
	ctx := context.Background()

	sampleID := uuid.New()
	setID := uuid.New()

	created, err := repo.CreateIfAbsent(ctx, nil, cubeEntry(sampleID, setID))
	if err != nil {
		t.Fatalf("first CreateIfAbsent: %v", err)
	}
	if !created {
		t.Fatal("first CreateIfAbsent reported created=false")
	}

	// Second entry carries a fresh primary key but the same
	// (sample_id, sample_set_id) pair; the unique index must swallow it.
	created, err = repo.CreateIfAbsent(ctx, nil, cubeEntry(sampleID, setID))
	if err != nil {
		t.Fatalf("second CreateIfAbsent: %v", err)
	}
	if created {
		t.Fatal("second CreateIfAbsent reported created=true")
	}

	count, err := repo.CountBySampleAndSet(ctx, nil, intake.CategoryConcreteCube, sampleID, setID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count=%d, want 1", count)
	}
}

func TestLogbookFindBySampleAndSet(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewLogbookRepo(gdb, testLogger(t))
	ctx := context.Background()

	sampleID := uuid.New()
	setID := uuid.New()

	if _, err := repo.FindBySampleAndSet(ctx, nil, intake.CategoryConcreteCube, sampleID, setID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("find before insert: err=%v, want ErrNotFound", err)
	}

	if _, err := repo.CreateIfAbsent(ctx, nil, cubeEntry(sampleID, setID)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	entry, err := repo.FindBySampleAndSet(ctx, nil, intake.CategoryConcreteCube, sampleID, setID)
	if err != nil {
		t.Fatalf("find after insert: %v", err)
	}
	cube, ok := entry.(*types.ConcreteCubeLog)
	if !ok {
		t.Fatalf("entry has type %T, want *types.ConcreteCubeLog", entry)
	}
	if cube.Class != "C25" {
		t.Fatalf("Class=%q, want C25", cube.Class)
	}

	// The same keys in another ledger stay independent.
	if _, err := repo.FindBySampleAndSet(ctx, nil, intake.CategoryPavers, sampleID, setID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("pavers ledger: err=%v, want ErrNotFound", err)
	}
}
