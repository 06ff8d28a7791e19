package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/labworks/intake-backend/internal/types"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Sample{},
		&types.SampleSet{},
		&types.MaterialTest{},
		&types.ConcreteCubeLog{},
		&types.BricksBlocksLog{},
		&types.PaversLog{},
		&types.ConcreteCylinderLog{},
		&types.WaterAbsorptionLog{},
		&types.ProjectLog{},
	)
}

var logTables = []string{
	"concrete_cube_log",
	"bricks_blocks_log",
	"pavers_log",
	"concrete_cylinder_log",
	"water_absorption_log",
	"project_log",
}

// EnsureLogIndexes creates the composite unique index every ledger needs so
// that at most one row exists per (sample_id, sample_set_id). ON CONFLICT DO
// NOTHING inserts rely on these indexes to turn a duplicate into a no-op.
func EnsureLogIndexes(db *gorm.DB) error {
	for _, table := range logTables {
		stmt := fmt.Sprintf(
			`CREATE UNIQUE INDEX IF NOT EXISTS ux_%s_sample_set ON %s (sample_id, sample_set_id)`,
			table, table,
		)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create unique index on %s: %w", table, err)
		}
	}
	return nil
}
