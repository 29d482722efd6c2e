package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventOpened            = "OPENED"
	EventOfferSubmitted    = "OFFER_SUBMITTED"
	EventOfferCountered    = "OFFER_COUNTERED"
	EventOfferRejected     = "OFFER_REJECTED"
	EventOfferAccepted     = "OFFER_ACCEPTED"
	EventCancelled         = "CANCELLED"
	EventTransactionMinted = "TRANSACTION_MINTED"
)

// NegotiationEvent is an append-only audit row written in the same unit of
// work as the transition it describes. Sequence numbers events per
// negotiation starting at 1.
type NegotiationEvent struct {
	EventID       uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	NegotiationID uuid.UUID      `gorm:"column:negotiation_id;type:uuid;not null;uniqueIndex:idx_negotiation_events_seq,priority:1" json:"negotiation_id"`
	Sequence      int            `gorm:"column:sequence;not null;uniqueIndex:idx_negotiation_events_seq,priority:2" json:"sequence"`
	OfferID       *uuid.UUID     `gorm:"column:offer_id;type:uuid" json:"offer_id"`
	ActorID       uuid.UUID      `gorm:"column:actor_id;type:uuid;not null" json:"actor_id"`
	EventType     string         `gorm:"column:event_type;type:varchar(30);not null" json:"event_type"`
	EventData     datatypes.JSON `gorm:"column:event_data;type:jsonb;not null" json:"event_data"`
	CreatedAt     time.Time      `gorm:"column:createdAt" json:"createdAt"`
}

func (NegotiationEvent) TableName() string {
	return "NegotiationEvents"
}

func (e *NegotiationEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
