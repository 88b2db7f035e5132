package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Organisation is the tenant. Every other entity carries an organisation_id
// and every query is scoped by it.
type Organisation struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Email         string          `gorm:"type:varchar(255)" json:"email"`
	Phone         string          `gorm:"type:varchar(50)" json:"phone"`
	AddressLine1  string          `gorm:"type:varchar(255)" json:"address_line1"`
	AddressLine2  string          `gorm:"type:varchar(255)" json:"address_line2"`
	Town          string          `gorm:"type:varchar(100)" json:"town"`
	Postcode      string          `gorm:"type:varchar(20)" json:"postcode"`
	Website       string          `gorm:"type:varchar(255)" json:"website"`
	VatRegistered bool            `gorm:"not null;default:false" json:"vat_registered"`
	VatRate       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:20" json:"vat_rate"` // percentage, e.g. 20.00
	VatNumber     string          `gorm:"type:varchar(20)" json:"vat_number"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (o *Organisation) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
