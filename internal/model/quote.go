package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuoteStatus enum constants. Transitions are monotonic: draft → sent → viewed →
// accepted/declined, with expired reachable from any open state. The only way back
// to draft is an explicit staff edit.
const (
	QuoteStatusDraft    = "draft"
	QuoteStatusSent     = "sent"
	QuoteStatusViewed   = "viewed"
	QuoteStatusAccepted = "accepted"
	QuoteStatusDeclined = "declined"
	QuoteStatusExpired  = "expired"
)

// PricingType enum constants
const (
	PricingTypeFixed    = "fixed"    // single VAT-inclusive price, tax backed out
	PricingTypeItemised = "itemised" // VAT-exclusive line items, tax added on top
)

// Quote is a price offer sent to a client. VAT settings are snapshotted from the
// organisation at create/update time so later settings changes never alter it.
type Quote struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganisationID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_quotes_org_number;index" json:"organisation_id"`
	ClientID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"client_id"`
	Client         *Client          `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	PropertyID     *uuid.UUID       `gorm:"type:uuid;index" json:"property_id"`
	Property       *Property        `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	CreatedBy      uuid.UUID        `gorm:"type:uuid;not null" json:"created_by"`
	// quote numbers are unique per organisation, not globally
	QuoteNumber    string           `gorm:"type:varchar(30);not null;uniqueIndex:idx_quotes_org_number" json:"quote_number"`
	AcceptToken    string           `gorm:"type:varchar(64);uniqueIndex;not null" json:"accept_token"`
	Title          string           `gorm:"type:varchar(255);not null" json:"title"`
	PricingType    string           `gorm:"type:varchar(20);not null" json:"pricing_type"` // fixed, itemised
	FixedPrice     *decimal.Decimal `gorm:"type:decimal(18,4)" json:"fixed_price"`
	Subtotal       decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	TaxRate        decimal.Decimal  `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate"` // snapshot percentage
	TaxAmount      decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	Total          decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"total"`
	Notes          string           `gorm:"type:text" json:"notes"`          // client-visible
	InternalNotes  string           `gorm:"type:text" json:"internal_notes"` // staff-only
	ValidUntil     *time.Time       `gorm:"type:date" json:"valid_until"`
	Status         string           `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	SentAt         *time.Time       `json:"sent_at"`
	ViewedAt       *time.Time       `json:"viewed_at"`
	RespondedAt    *time.Time       `json:"responded_at"`
	JobID          *uuid.UUID       `gorm:"type:uuid" json:"job_id"`
	LineItems      []QuoteLineItem  `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"line_items,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// QuoteLineItem belongs to exactly one itemised quote. Amount is always
// recomputed as quantity × unit_price at write time, never trusted from input.
type QuoteLineItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	QuoteID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"quote_id"`
	OrganisationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"organisation_id"`
	Description    string          `gorm:"type:varchar(500);not null" json:"description"`
	Quantity       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	IsAddon        bool            `gorm:"not null;default:false" json:"is_addon"`
	SortOrder      int             `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (i *QuoteLineItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// QuoteCounter holds the per-organisation quote number sequence. Incremented with
// a single atomic UPDATE inside the quote-creation transaction, so concurrent
// creates within one organisation never draw the same number.
type QuoteCounter struct {
	OrganisationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"organisation_id"`
	LastNumber     int64     `gorm:"not null;default:0" json:"last_number"`
	UpdatedAt      time.Time `json:"updated_at"`
}
