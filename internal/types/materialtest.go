package types

import (
	"time"

	"github.com/google/uuid"
)

// MaterialTest is a test type requested for the sample as a whole, e.g.
// "Compressive Strength Test". Read-only to the classification engine.
type MaterialTest struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SampleID uuid.UUID `gorm:"type:uuid;not null;index" json:"sample_id"`
	Name     string    `gorm:"column:name;not null" json:"name"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (MaterialTest) TableName() string { return "material_test" }
