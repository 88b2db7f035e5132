package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Property is a cleanable address belonging to a client.
type Property struct {
	ID                   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganisationID       uuid.UUID `gorm:"type:uuid;not null;index" json:"organisation_id"`
	ClientID             uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	AddressLine1         string    `gorm:"type:varchar(255);not null" json:"address_line1"`
	AddressLine2         string    `gorm:"type:varchar(255)" json:"address_line2"`
	Town                 string    `gorm:"type:varchar(100);not null" json:"town"`
	Postcode             string    `gorm:"type:varchar(20);not null" json:"postcode"`
	PropertyType         string    `gorm:"type:varchar(50)" json:"property_type"`
	Bedrooms             *int      `json:"bedrooms"`
	Bathrooms            *int      `json:"bathrooms"`
	AccessInstructions   string    `gorm:"type:text" json:"access_instructions"`
	ParkingInstructions  string    `gorm:"type:text" json:"parking_instructions"`
	AlarmInstructions    string    `gorm:"type:text" json:"alarm_instructions"`
	KeyHeld              bool      `gorm:"default:false" json:"key_held"`
	SpecialistSurfaces   string    `gorm:"type:text" json:"specialist_surfaces"`
	Pets                 string    `gorm:"type:text" json:"pets"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
