package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sample is one physical receipt event: a client dropping off one or more
// specimen sets for testing.
type Sample struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientName      string    `gorm:"column:client_name;not null" json:"client_name"`
	ProjectTitle    string    `gorm:"column:project_title;not null" json:"project_title"`
	ReceivedDate    time.Time `gorm:"column:received_date;not null" json:"received_date"`
	SampleCode      string    `gorm:"column:sample_code;not null;uniqueIndex" json:"sample_code"`
	ReceivedBy      string    `gorm:"column:received_by;not null" json:"received_by"`
	DeliveredBy     string    `gorm:"column:delivered_by" json:"delivered_by"`
	ContactNumber   string    `gorm:"column:contact_number" json:"contact_number"`
	TransmittalMode string    `gorm:"column:transmittal_mode" json:"transmittal_mode"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Sample) TableName() string { return "sample" }
