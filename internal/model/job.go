package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ServiceType enum constants
const (
	ServiceTypeRegular   = "regular"
	ServiceTypeDeepClean = "deep_clean"
	ServiceTypeMoveIn    = "move_in"
	ServiceTypeMoveOut   = "move_out"
	ServiceTypePostEvent = "post_event"
	ServiceTypeOther     = "other"
)

// JobStatus enum constants
const (
	JobStatusScheduled  = "scheduled"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

// Job is a scheduled piece of cleaning work. Accepting a quote creates exactly
// one job carrying the quote's total as its price.
type Job struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganisationID uuid.UUID        `gorm:"type:uuid;not null;index" json:"organisation_id"`
	ClientID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"client_id"`
	Client         *Client          `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	PropertyID     *uuid.UUID       `gorm:"type:uuid;index" json:"property_id"`
	Property       *Property        `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	AssignedTo     *uuid.UUID       `gorm:"type:uuid" json:"assigned_to"`
	QuoteID        *uuid.UUID       `gorm:"type:uuid;index" json:"quote_id"` // originating quote, if any
	ServiceType    string           `gorm:"type:varchar(20);not null;default:'other'" json:"service_type"`
	Status         string           `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	ScheduledDate  *time.Time       `gorm:"type:date" json:"scheduled_date"`
	ScheduledTime  string           `gorm:"type:varchar(10)" json:"scheduled_time"`
	DurationHours  *decimal.Decimal `gorm:"type:decimal(5,2)" json:"duration_hours"`
	Price          *decimal.Decimal `gorm:"type:decimal(18,4)" json:"price"`
	Notes          string           `gorm:"type:text" json:"notes"`
	InternalNotes  string           `gorm:"type:text" json:"internal_notes"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
