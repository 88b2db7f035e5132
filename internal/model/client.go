package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientStatus enum constants
const (
	ClientStatusActive   = "active"
	ClientStatusInactive = "inactive"
	ClientStatusLead     = "lead"
)

// Client is a customer of the cleaning business.
type Client struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganisationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organisation_id"`
	FirstName      string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName       string         `gorm:"type:varchar(100);not null" json:"last_name"`
	Email          string         `gorm:"type:varchar(255)" json:"email"`
	Phone          string         `gorm:"type:varchar(50)" json:"phone"`
	SecondaryPhone string         `gorm:"type:varchar(50)" json:"secondary_phone"`
	Notes          string         `gorm:"type:text" json:"notes"`
	Status         string         `gorm:"type:varchar(20);not null;default:'active';index" json:"status"` // active, inactive, lead
	Source         string         `gorm:"type:varchar(100)" json:"source"`
	Properties     []Property     `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"properties,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
