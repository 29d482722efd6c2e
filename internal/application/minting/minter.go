// Package minting turns an accepted offer into the negotiation's single
// settlement Transaction.
package minting

import (
	"errors"
	"fmt"

	"realty-backend/internal/domain"
	"realty-backend/internal/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const mintSavePoint = "mint_transaction"

var ErrNotMintable = errors.New("Negotiation has no accepted offer to mint")

// Minter computes the platform fee split and persists the Transaction.
type Minter struct {
	FeeRate decimal.Decimal
}

func NewMinter(feeRate decimal.Decimal) *Minter {
	return &Minter{FeeRate: feeRate}
}

// PlatformFee returns amount × FeeRate rounded to the currency's minor unit.
func (m *Minter) PlatformFee(amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	return money.Round(amount.Mul(m.FeeRate), currency)
}

// Mint must run inside the caller's transaction (it sets a savepoint). If the negotiation already has a
// transaction it is returned unchanged with created=false, so replays never
// produce a second row.
func (m *Minter) Mint(tx *gorm.DB, n *domain.Negotiation, offer *domain.Offer) (*domain.Transaction, bool, error) {
	if n.Status != domain.NegotiationAccepted || offer.Status != domain.OfferAccepted || offer.NegotiationID != n.NegotiationID {
		return nil, false, ErrNotMintable
	}

	existing, err := FindByNegotiation(tx, n.NegotiationID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	fee, err := m.PlatformFee(offer.Amount, offer.Currency)
	if err != nil {
		return nil, false, err
	}
	t := &domain.Transaction{
		NegotiationID: n.NegotiationID,
		OfferID:       offer.OfferID,
		PayerID:       n.BuyerID,
		PayeeID:       n.SellerID,
		Amount:        offer.Amount,
		Currency:      offer.Currency,
		FeeRate:       m.FeeRate,
		PlatformFee:   fee,
		SellerAmount:  offer.Amount.Sub(fee),
		Status:        domain.TransactionPending,
	}
	if err := tx.SavePoint(mintSavePoint).Error; err != nil {
		return nil, false, fmt.Errorf("mint savepoint: %w", err)
	}
	if err := tx.Create(t).Error; err != nil {
		// Another writer got there first; hand back its row.
		if errors.Is(err, gorm.ErrDuplicatedKey) && tx.RollbackTo(mintSavePoint).Error == nil {
			existing, ferr := FindByNegotiation(tx, n.NegotiationID)
			if ferr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("mint transaction: %w", err)
	}
	return t, true, nil
}

// FindByNegotiation returns nil, nil when no transaction exists yet.
func FindByNegotiation(db *gorm.DB, negotiationID uuid.UUID) (*domain.Transaction, error) {
	var t domain.Transaction
	err := db.Where("negotiation_id = ?", negotiationID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
