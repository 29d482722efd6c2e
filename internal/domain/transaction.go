package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionRefunded  TransactionStatus = "REFUNDED"
)

// Transaction is the settlement record minted when an offer is accepted.
// negotiation_id is unique: one transaction per negotiation.
type Transaction struct {
	TransactionID   uuid.UUID         `gorm:"column:transaction_id;type:uuid;primaryKey" json:"transaction_id"`
	NegotiationID   uuid.UUID         `gorm:"column:negotiation_id;type:uuid;not null;uniqueIndex" json:"negotiation_id"`
	OfferID         uuid.UUID         `gorm:"column:offer_id;type:uuid;not null" json:"offer_id"`
	PayerID         uuid.UUID         `gorm:"column:payer_id;type:uuid;not null;index" json:"payer_id"`
	PayeeID         uuid.UUID         `gorm:"column:payee_id;type:uuid;not null;index" json:"payee_id"`
	Amount          decimal.Decimal   `gorm:"column:amount;type:decimal(20,4);not null" json:"amount"`
	Currency        string            `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
	FeeRate         decimal.Decimal   `gorm:"column:fee_rate;type:decimal(8,6);not null" json:"fee_rate"`
	PlatformFee     decimal.Decimal   `gorm:"column:platform_fee;type:decimal(20,4);not null" json:"platform_fee"`
	SellerAmount    decimal.Decimal   `gorm:"column:seller_amount;type:decimal(20,4);not null" json:"seller_amount"`
	Status          TransactionStatus `gorm:"column:status;type:varchar(20);not null;default:'PENDING'" json:"status"`
	PaymentIntentID *string           `gorm:"column:payment_intent_id" json:"payment_intent_id"`
	CreatedAt       time.Time         `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt       time.Time         `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Transaction) TableName() string {
	return "Transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.TransactionID == uuid.Nil {
		t.TransactionID = uuid.New()
	}
	return nil
}

// IsParty reports whether userID pays or receives in this transaction.
func (t *Transaction) IsParty(userID uuid.UUID) bool {
	return userID == t.PayerID || userID == t.PayeeID
}
