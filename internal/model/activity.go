package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityType enum constants
const (
	ActivityNote          = "note"
	ActivityCall          = "call"
	ActivityEmail         = "email"
	ActivityQuoteSent     = "quote_sent"
	ActivityQuoteViewed   = "quote_viewed"
	ActivityQuoteAccepted = "quote_accepted"
	ActivityQuoteDeclined = "quote_declined"
	ActivityJobScheduled  = "job_scheduled"
	ActivityJobCompleted  = "job_completed"
	ActivityJobCancelled  = "job_cancelled"
)

// Activity records Who, What, and When on a client's timeline. Quote lifecycle
// transitions write these as side effects; they also feed the dashboard and the
// websocket activity feed.
type Activity struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganisationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organisation_id"`
	ClientID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"client_id"`
	JobID          *uuid.UUID `gorm:"type:uuid" json:"job_id"`
	CreatedBy      *uuid.UUID `gorm:"type:uuid" json:"created_by"` // nil when written by the public gateway
	Type           string     `gorm:"type:varchar(30);not null;index" json:"type"`
	Title          string     `gorm:"type:varchar(255)" json:"title"`
	Body           string     `gorm:"type:text" json:"body"`
	Pinned         bool       `gorm:"not null;default:false" json:"pinned"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
