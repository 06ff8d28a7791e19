package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LogEntry is implemented by the six category ledgers a classified set can be
// routed to. Exactly one row may exist per (sample_id, sample_set_id) per
// table; the composite unique index backing that rule is created by
// db.EnsureLogIndexes.
type LogEntry interface {
	TableName() string
	Keys() (sampleID, sampleSetID uuid.UUID)
}

// LogCommon is the column subset shared by all six ledgers. Pointer fields
// stay NULL when the receipt did not carry the value; the mapper never
// substitutes defaults for dates or serials.
type LogCommon struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SampleID     uuid.UUID  `gorm:"column:sample_id;type:uuid;not null;index" json:"sample_id"`
	SampleSetID  uuid.UUID  `gorm:"column:sample_set_id;type:uuid;not null;index" json:"sample_set_id"`
	ClientName   string     `gorm:"column:client_name;not null" json:"client_name"`
	ProjectTitle string     `gorm:"column:project_title;not null" json:"project_title"`
	DateReceived time.Time  `gorm:"column:date_received;not null" json:"date_received"`
	ReceiptNo    string     `gorm:"column:receipt_no;not null" json:"receipt_no"`
	AreaOfUse    string     `gorm:"column:area_of_use" json:"area_of_use"`
	SampleSerial *string    `gorm:"column:sample_serial" json:"sample_serial,omitempty"`
	CastingDate  *time.Time `gorm:"column:casting_date" json:"casting_date,omitempty"`
	TestingDate  *time.Time `gorm:"column:testing_date" json:"testing_date,omitempty"`
	AgeDays      *int       `gorm:"column:age_days" json:"age_days,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (c LogCommon) Keys() (uuid.UUID, uuid.UUID) { return c.SampleID, c.SampleSetID }

type ConcreteCubeLog struct {
	LogCommon
	Class    string  `gorm:"column:class" json:"class"`
	LengthMm *string `gorm:"column:length_mm" json:"length_mm,omitempty"`
	WidthMm  *string `gorm:"column:width_mm" json:"width_mm,omitempty"`
	HeightMm *string `gorm:"column:height_mm" json:"height_mm,omitempty"`
}

func (ConcreteCubeLog) TableName() string { return "concrete_cube_log" }

type BricksBlocksLog struct {
	LogCommon
	SampleType string         `gorm:"column:sample_type" json:"sample_type"`
	BlockType  string         `gorm:"column:block_type" json:"block_type"`
	LengthMm   *string        `gorm:"column:length_mm" json:"length_mm,omitempty"`
	WidthMm    *string        `gorm:"column:width_mm" json:"width_mm,omitempty"`
	HeightMm   *string        `gorm:"column:height_mm" json:"height_mm,omitempty"`
	Holes      datatypes.JSON `gorm:"column:holes" json:"holes,omitempty"`
}

func (BricksBlocksLog) TableName() string { return "bricks_blocks_log" }

type PaversLog struct {
	LogCommon
	PaverType    string  `gorm:"column:paver_type" json:"paver_type"`
	ThicknessMm  *string `gorm:"column:thickness_mm" json:"thickness_mm,omitempty"`
	PaversPerSqm *string `gorm:"column:pavers_per_sqm" json:"pavers_per_sqm,omitempty"`
}

func (PaversLog) TableName() string { return "pavers_log" }

type ConcreteCylinderLog struct {
	LogCommon
	DiameterMm *string `gorm:"column:diameter_mm" json:"diameter_mm,omitempty"`
	HeightMm   *string `gorm:"column:height_mm" json:"height_mm,omitempty"`
}

func (ConcreteCylinderLog) TableName() string { return "concrete_cylinder_log" }

type WaterAbsorptionLog struct {
	LogCommon
	SampleType string  `gorm:"column:sample_type" json:"sample_type"`
	LengthMm   *string `gorm:"column:length_mm" json:"length_mm,omitempty"`
	WidthMm    *string `gorm:"column:width_mm" json:"width_mm,omitempty"`
	HeightMm   *string `gorm:"column:height_mm" json:"height_mm,omitempty"`
}

func (WaterAbsorptionLog) TableName() string { return "water_absorption_log" }

// ProjectLog is the catch-all ledger for sets whose category maps to no
// material-specific log.
type ProjectLog struct {
	LogCommon
}

func (ProjectLog) TableName() string { return "project_log" }
