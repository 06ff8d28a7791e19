package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SampleSet is one group of identical specimens within a Sample. Dimension
// fields are kept as the strings received at the front desk; unit validation
// happens downstream during testing, not at intake.
type SampleSet struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SampleID uuid.UUID `gorm:"type:uuid;not null;index" json:"sample_id"`
	// Position preserves the order sets appeared on the receipt.
	Position int `gorm:"column:position;not null" json:"position"`

	Category  string `gorm:"column:category" json:"category"`
	Class     string `gorm:"column:class" json:"class"`
	Length    string `gorm:"column:length_mm" json:"length_mm"`
	Width     string `gorm:"column:width_mm" json:"width_mm"`
	Height    string `gorm:"column:height_mm" json:"height_mm"`
	Diameter  string `gorm:"column:diameter_mm" json:"diameter_mm"`
	Thickness string `gorm:"column:thickness_mm" json:"thickness_mm"`
	NumPerSqm string `gorm:"column:num_per_sqm" json:"num_per_sqm"`
	BlockType string `gorm:"column:block_type" json:"block_type"`

	// Holes, SerialNumbers and AssignedTests are stored in canonical JSON
	// array form; the intake normalizer is the only writer.
	Holes         datatypes.JSON `gorm:"column:holes" json:"holes,omitempty"`
	SerialNumbers datatypes.JSON `gorm:"column:serial_numbers" json:"serial_numbers,omitempty"`
	AssignedTests datatypes.JSON `gorm:"column:assigned_tests" json:"assigned_tests,omitempty"`

	CastingDate *time.Time `gorm:"column:casting_date" json:"casting_date,omitempty"`
	TestingDate *time.Time `gorm:"column:testing_date" json:"testing_date,omitempty"`
	AgeDays     *int       `gorm:"column:age_days" json:"age_days,omitempty"`
	AreaOfUse   string     `gorm:"column:area_of_use" json:"area_of_use"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SampleSet) TableName() string { return "sample_set" }
