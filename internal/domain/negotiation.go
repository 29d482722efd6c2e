package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NegotiationType string

const (
	NegotiationTypeBuy  NegotiationType = "BUY"
	NegotiationTypeRent NegotiationType = "RENT"
)

// Valid reports whether t is one of the known negotiation types.
func (t NegotiationType) Valid() bool {
	return t == NegotiationTypeBuy || t == NegotiationTypeRent
}

type NegotiationStatus string

const (
	NegotiationActive   NegotiationStatus = "ACTIVE"
	NegotiationAccepted NegotiationStatus = "ACCEPTED"
	NegotiationRejected NegotiationStatus = "REJECTED"
)

// Negotiation is a buyer/seller conversation about one property. At most one
// ACTIVE negotiation may exist per (property, buyer, type); the partial unique
// index idx_negotiations_active_pair holds that even if two opens race.
type Negotiation struct {
	NegotiationID uuid.UUID         `gorm:"column:negotiation_id;type:uuid;primaryKey" json:"negotiation_id"`
	PropertyID    uuid.UUID         `gorm:"column:property_id;type:uuid;not null;index:idx_negotiations_active_pair,unique,where:status = 'ACTIVE'" json:"property_id"`
	BuyerID       uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index:idx_negotiations_active_pair,unique,where:status = 'ACTIVE';index" json:"buyer_id"`
	SellerID      uuid.UUID         `gorm:"column:seller_id;type:uuid;not null;index" json:"seller_id"`
	Type          NegotiationType   `gorm:"column:type;type:varchar(10);not null;index:idx_negotiations_active_pair,unique,where:status = 'ACTIVE'" json:"type"`
	Status        NegotiationStatus `gorm:"column:status;type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	LastActionAt  time.Time         `gorm:"column:last_action_at;not null" json:"last_action_at"`
	CreatedAt     time.Time         `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt     time.Time         `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Negotiation) TableName() string {
	return "Negotiations"
}

func (n *Negotiation) BeforeCreate(tx *gorm.DB) error {
	if n.NegotiationID == uuid.Nil {
		n.NegotiationID = uuid.New()
	}
	return nil
}

// IsParticipant reports whether userID is the buyer or the seller.
func (n *Negotiation) IsParticipant(userID uuid.UUID) bool {
	return userID == n.BuyerID || userID == n.SellerID
}

// Counterparty returns the other participant. Only meaningful for participants.
func (n *Negotiation) Counterparty(userID uuid.UUID) uuid.UUID {
	if userID == n.BuyerID {
		return n.SellerID
	}
	return n.BuyerID
}

func (n *Negotiation) IsActive() bool {
	return n.Status == NegotiationActive
}
