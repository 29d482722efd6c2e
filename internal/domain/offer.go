package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OfferStatus string

const (
	OfferPending   OfferStatus = "PENDING"
	OfferAccepted  OfferStatus = "ACCEPTED"
	OfferRejected  OfferStatus = "REJECTED"
	OfferCountered OfferStatus = "COUNTERED"
)

// Offer is one entry of a negotiation's offer ledger. Sequence is 1-based and
// dense per negotiation. Only one offer per negotiation may be PENDING.
type Offer struct {
	OfferID       uuid.UUID       `gorm:"column:offer_id;type:uuid;primaryKey" json:"offer_id"`
	NegotiationID uuid.UUID       `gorm:"column:negotiation_id;type:uuid;not null;uniqueIndex:idx_offers_negotiation_seq,priority:1;index:idx_offers_one_pending,unique,where:status = 'PENDING'" json:"negotiation_id"`
	Sequence      int             `gorm:"column:sequence;not null;uniqueIndex:idx_offers_negotiation_seq,priority:2" json:"sequence"`
	SenderID      uuid.UUID       `gorm:"column:sender_id;type:uuid;not null" json:"sender_id"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(20,4);not null" json:"amount"`
	Currency      string          `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
	Message       *string         `gorm:"column:message;type:text" json:"message"`
	Status        OfferStatus     `gorm:"column:status;type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt     time.Time       `gorm:"column:createdAt" json:"createdAt"`
	RespondedAt   *time.Time      `gorm:"column:responded_at" json:"responded_at"`
}

func (Offer) TableName() string {
	return "Offers"
}

func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.OfferID == uuid.Nil {
		o.OfferID = uuid.New()
	}
	return nil
}
