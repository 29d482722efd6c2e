package negotiation

import (
	"errors"
	"fmt"
	"time"

	"realty-backend/internal/domain"
	"realty-backend/internal/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OfferInput is a proposed amount. Currency is an ISO-4217 code.
type OfferInput struct {
	Amount   decimal.Decimal
	Currency string
	Message  *string
}

// OfferLedger keeps the ordered offer history of a negotiation. All methods
// take the caller's transaction and assume the negotiation row is locked.
type OfferLedger struct {
	Now func() time.Time
}

func NewOfferLedger() *OfferLedger {
	return &OfferLedger{Now: time.Now}
}

func (l *OfferLedger) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

// AppendOpeningOffer records the first offer of a negotiation.
func (l *OfferLedger) AppendOpeningOffer(tx *gorm.DB, n *domain.Negotiation, senderID uuid.UUID, in OfferInput) (*domain.Offer, error) {
	latest, err := l.LatestOffer(tx, n.NegotiationID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		return nil, ErrInvalidState
	}
	in, err = validateOffer(in, nil)
	if err != nil {
		return nil, err
	}
	return l.insert(tx, n.NegotiationID, senderID, in, 1)
}

// AppendCounterOffer marks the open offer COUNTERED and appends senderID's
// replacement. It returns the countered offer and the new open offer.
func (l *OfferLedger) AppendCounterOffer(tx *gorm.DB, n *domain.Negotiation, senderID uuid.UUID, in OfferInput) (*domain.Offer, *domain.Offer, error) {
	open, err := l.OpenOffer(tx, n.NegotiationID)
	if err != nil {
		return nil, nil, err
	}
	if open.SenderID == senderID {
		return nil, nil, ErrWrongTurn
	}
	if in.Currency == "" {
		in.Currency = open.Currency
	}
	in, err = validateOffer(in, open)
	if err != nil {
		return nil, nil, err
	}
	if err := l.resolve(tx, open, domain.OfferCountered); err != nil {
		return nil, nil, err
	}
	next, err := l.insert(tx, n.NegotiationID, senderID, in, open.Sequence+1)
	if err != nil {
		return nil, nil, err
	}
	return open, next, nil
}

// AppendFollowUpOffer reopens the cycle after the last offer was rejected.
// The sender must not be the author of the rejected offer.
func (l *OfferLedger) AppendFollowUpOffer(tx *gorm.DB, n *domain.Negotiation, senderID uuid.UUID, in OfferInput) (*domain.Offer, error) {
	latest, err := l.LatestOffer(tx, n.NegotiationID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, ErrNoOpenOffer
	}
	if latest.Status == domain.OfferPending {
		return nil, ErrInvalidState
	}
	if latest.SenderID == senderID {
		return nil, ErrWrongTurn
	}
	if in.Currency == "" {
		in.Currency = latest.Currency
	}
	in, err = validateOffer(in, latest)
	if err != nil {
		return nil, err
	}
	return l.insert(tx, n.NegotiationID, senderID, in, latest.Sequence+1)
}

// ResolveOpenOffer moves the open offer to ACCEPTED or REJECTED on behalf of
// the party that did not send it.
func (l *OfferLedger) ResolveOpenOffer(tx *gorm.DB, negotiationID, responderID uuid.UUID, outcome domain.OfferStatus) (*domain.Offer, error) {
	if outcome != domain.OfferAccepted && outcome != domain.OfferRejected {
		return nil, ErrInvalidAction
	}
	open, err := l.OpenOffer(tx, negotiationID)
	if err != nil {
		return nil, err
	}
	if open.SenderID == responderID {
		return nil, ErrWrongTurn
	}
	if err := l.resolve(tx, open, outcome); err != nil {
		return nil, err
	}
	return open, nil
}

// LatestOffer returns the highest-sequence offer, or nil when there is none.
func (l *OfferLedger) LatestOffer(tx *gorm.DB, negotiationID uuid.UUID) (*domain.Offer, error) {
	var o domain.Offer
	err := tx.Where("negotiation_id = ?", negotiationID).Order("sequence DESC").First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// OpenOffer returns the PENDING offer or ErrNoOpenOffer.
func (l *OfferLedger) OpenOffer(tx *gorm.DB, negotiationID uuid.UUID) (*domain.Offer, error) {
	var o domain.Offer
	err := tx.Where("negotiation_id = ? AND status = ?", negotiationID, domain.OfferPending).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoOpenOffer
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// History returns every offer in sequence order.
func (l *OfferLedger) History(tx *gorm.DB, negotiationID uuid.UUID) ([]domain.Offer, error) {
	var offers []domain.Offer
	if err := tx.Where("negotiation_id = ?", negotiationID).Order("sequence ASC").Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// resolve is a guarded PENDING -> status update; zero rows means someone else
// resolved the offer first.
func (l *OfferLedger) resolve(tx *gorm.DB, o *domain.Offer, status domain.OfferStatus) error {
	now := l.now()
	res := tx.Model(&domain.Offer{}).
		Where("offer_id = ? AND status = ?", o.OfferID, domain.OfferPending).
		Updates(map[string]interface{}{"status": status, "responded_at": now})
	if res.Error != nil {
		return fmt.Errorf("resolve offer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoOpenOffer
	}
	o.Status = status
	o.RespondedAt = &now
	return nil
}

func (l *OfferLedger) insert(tx *gorm.DB, negotiationID, senderID uuid.UUID, in OfferInput, seq int) (*domain.Offer, error) {
	o := &domain.Offer{
		NegotiationID: negotiationID,
		Sequence:      seq,
		SenderID:      senderID,
		Amount:        in.Amount,
		Currency:      in.Currency,
		Message:       in.Message,
		Status:        domain.OfferPending,
		CreatedAt:     l.now(),
	}
	if err := tx.Create(o).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("append offer: %w", err)
	}
	return o, nil
}

// validateOffer normalises the currency and checks the amount. prior, when
// set, fixes the currency for the rest of the negotiation.
func validateOffer(in OfferInput, prior *domain.Offer) (OfferInput, error) {
	code, err := money.NormalizeCurrency(in.Currency)
	if err != nil {
		return in, err
	}
	if prior != nil && prior.Currency != code {
		return in, ErrCurrencyMismatch
	}
	if err := money.ValidateAmount(in.Amount, code); err != nil {
		return in, err
	}
	in.Currency = code
	if in.Message != nil && *in.Message == "" {
		in.Message = nil
	}
	return in, nil
}
