package negotiation

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"realty-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Minter mints the settlement transaction for an accepted offer.
type Minter interface {
	Mint(tx *gorm.DB, n *domain.Negotiation, offer *domain.Offer) (*domain.Transaction, bool, error)
}

type OpenInput struct {
	PropertyID uuid.UUID
	BuyerID    uuid.UUID
	SellerID   uuid.UUID
	Type       domain.NegotiationType
	Opening    *OfferInput
}

// Outcome is what a transition changed. Events are the audit rows written in
// the same transaction, ready to publish once it commits.
type Outcome struct {
	Negotiation *domain.Negotiation       `json:"negotiation"`
	Offer       *domain.Offer             `json:"offer,omitempty"`
	Countered   *domain.Offer             `json:"countered_offer,omitempty"`
	Transaction *domain.Transaction       `json:"transaction,omitempty"`
	Events      []domain.NegotiationEvent `json:"-"`
}

// StateMachine applies negotiation transitions. ACTIVE is the only state that
// accepts actions; ACCEPTED and REJECTED are terminal.
type StateMachine struct {
	Ledger *OfferLedger
	Minter Minter
	Now    func() time.Time
}

func NewStateMachine(ledger *OfferLedger, minter Minter) *StateMachine {
	return &StateMachine{Ledger: ledger, Minter: minter, Now: time.Now}
}

func (m *StateMachine) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

// Open creates an ACTIVE negotiation and, if given, the buyer's opening offer.
func (m *StateMachine) Open(tx *gorm.DB, in OpenInput) (*Outcome, error) {
	if !in.Type.Valid() {
		return nil, ErrInvalidType
	}
	if in.BuyerID == in.SellerID {
		return nil, ErrSelfDealing
	}
	if in.Opening != nil {
		if _, err := validateOffer(*in.Opening, nil); err != nil {
			return nil, err
		}
	}

	var active int64
	if err := tx.Model(&domain.Negotiation{}).
		Where("property_id = ? AND buyer_id = ? AND type = ? AND status = ?", in.PropertyID, in.BuyerID, in.Type, domain.NegotiationActive).
		Count(&active).Error; err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, ErrDuplicateActiveNegotiation
	}

	now := m.now()
	n := &domain.Negotiation{
		PropertyID:   in.PropertyID,
		BuyerID:      in.BuyerID,
		SellerID:     in.SellerID,
		Type:         in.Type,
		Status:       domain.NegotiationActive,
		LastActionAt: now,
	}
	if err := tx.Create(n).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateActiveNegotiation
		}
		return nil, fmt.Errorf("create negotiation: %w", err)
	}

	out := &Outcome{Negotiation: n}
	if err := m.record(tx, out, nil, in.BuyerID, domain.EventOpened, map[string]interface{}{
		"property_id": in.PropertyID,
		"type":        in.Type,
	}); err != nil {
		return nil, err
	}
	if in.Opening == nil {
		return out, nil
	}

	offer, err := m.Ledger.AppendOpeningOffer(tx, n, in.BuyerID, *in.Opening)
	if err != nil {
		return nil, err
	}
	out.Offer = offer
	if err := m.record(tx, out, offer, in.BuyerID, domain.EventOfferSubmitted, offerData(offer)); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitCounter records a new offer from senderID: the opening offer when the
// ledger is empty, a counter when an offer is open, otherwise a follow-up to
// a rejected offer.
func (m *StateMachine) SubmitCounter(tx *gorm.DB, n *domain.Negotiation, senderID uuid.UUID, in OfferInput) (*Outcome, error) {
	if err := m.guard(n, senderID); err != nil {
		return nil, err
	}
	latest, err := m.Ledger.LatestOffer(tx, n.NegotiationID)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Negotiation: n}
	eventType := domain.EventOfferSubmitted
	switch {
	case latest == nil:
		if senderID != n.BuyerID {
			return nil, ErrWrongTurn
		}
		out.Offer, err = m.Ledger.AppendOpeningOffer(tx, n, senderID, in)
	case latest.Status == domain.OfferPending:
		out.Countered, out.Offer, err = m.Ledger.AppendCounterOffer(tx, n, senderID, in)
		eventType = domain.EventOfferCountered
	default:
		out.Offer, err = m.Ledger.AppendFollowUpOffer(tx, n, senderID, in)
	}
	if err != nil {
		return nil, err
	}
	if err := m.touch(tx, n, domain.NegotiationActive); err != nil {
		return nil, err
	}
	if err := m.record(tx, out, out.Offer, senderID, eventType, offerData(out.Offer)); err != nil {
		return nil, err
	}
	return out, nil
}

// Respond resolves the open offer on behalf of responderID.
func (m *StateMachine) Respond(tx *gorm.DB, n *domain.Negotiation, responderID uuid.UUID, action Action) (*Outcome, error) {
	if err := m.guard(n, responderID); err != nil {
		return nil, err
	}
	switch a := action.(type) {
	case Accept:
		return m.accept(tx, n, responderID)
	case Reject:
		return m.reject(tx, n, responderID)
	case Counter:
		return m.counter(tx, n, responderID, a.Offer)
	default:
		return nil, ErrInvalidAction
	}
}

// Cancel closes an ACTIVE negotiation, rejecting any open offer.
func (m *StateMachine) Cancel(tx *gorm.DB, n *domain.Negotiation, requesterID uuid.UUID) (*Outcome, error) {
	if err := m.guard(n, requesterID); err != nil {
		return nil, err
	}
	out := &Outcome{Negotiation: n}
	open, err := m.Ledger.OpenOffer(tx, n.NegotiationID)
	switch {
	case err == nil:
		if err := m.Ledger.resolve(tx, open, domain.OfferRejected); err != nil {
			return nil, err
		}
		out.Offer = open
	case !errors.Is(err, ErrNoOpenOffer):
		return nil, err
	}
	if err := m.touch(tx, n, domain.NegotiationRejected); err != nil {
		return nil, err
	}
	if err := m.record(tx, out, out.Offer, requesterID, domain.EventCancelled, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *StateMachine) accept(tx *gorm.DB, n *domain.Negotiation, responderID uuid.UUID) (*Outcome, error) {
	offer, err := m.Ledger.ResolveOpenOffer(tx, n.NegotiationID, responderID, domain.OfferAccepted)
	if err != nil {
		return nil, err
	}
	if err := m.touch(tx, n, domain.NegotiationAccepted); err != nil {
		return nil, err
	}
	out := &Outcome{Negotiation: n, Offer: offer}
	if err := m.record(tx, out, offer, responderID, domain.EventOfferAccepted, offerData(offer)); err != nil {
		return nil, err
	}

	t, created, err := m.Minter.Mint(tx, n, offer)
	if err != nil {
		return nil, err
	}
	out.Transaction = t
	if created {
		if err := m.record(tx, out, offer, responderID, domain.EventTransactionMinted, transactionData(t)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (m *StateMachine) reject(tx *gorm.DB, n *domain.Negotiation, responderID uuid.UUID) (*Outcome, error) {
	offer, err := m.Ledger.ResolveOpenOffer(tx, n.NegotiationID, responderID, domain.OfferRejected)
	if err != nil {
		return nil, err
	}
	if err := m.touch(tx, n, domain.NegotiationActive); err != nil {
		return nil, err
	}
	out := &Outcome{Negotiation: n, Offer: offer}
	if err := m.record(tx, out, offer, responderID, domain.EventOfferRejected, offerData(offer)); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *StateMachine) counter(tx *gorm.DB, n *domain.Negotiation, responderID uuid.UUID, in OfferInput) (*Outcome, error) {
	countered, offer, err := m.Ledger.AppendCounterOffer(tx, n, responderID, in)
	if err != nil {
		return nil, err
	}
	if err := m.touch(tx, n, domain.NegotiationActive); err != nil {
		return nil, err
	}
	out := &Outcome{Negotiation: n, Offer: offer, Countered: countered}
	if err := m.record(tx, out, offer, responderID, domain.EventOfferCountered, offerData(offer)); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *StateMachine) guard(n *domain.Negotiation, actorID uuid.UUID) error {
	if !n.IsParticipant(actorID) {
		return ErrNotParticipant
	}
	if !n.IsActive() {
		return ErrNegotiationClosed
	}
	return nil
}

// touch moves an ACTIVE negotiation to status and bumps last_action_at.
func (m *StateMachine) touch(tx *gorm.DB, n *domain.Negotiation, status domain.NegotiationStatus) error {
	now := m.now()
	res := tx.Model(&domain.Negotiation{}).
		Where("negotiation_id = ? AND status = ?", n.NegotiationID, domain.NegotiationActive).
		Updates(map[string]interface{}{"status": status, "last_action_at": now})
	if res.Error != nil {
		return fmt.Errorf("update negotiation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNegotiationClosed
	}
	n.Status = status
	n.LastActionAt = now
	return nil
}

func (m *StateMachine) record(tx *gorm.DB, out *Outcome, offer *domain.Offer, actorID uuid.UUID, eventType string, data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	// Callers hold the negotiation row lock, so MAX+1 cannot collide.
	var last int
	if err := tx.Model(&domain.NegotiationEvent{}).
		Where("negotiation_id = ?", out.Negotiation.NegotiationID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error; err != nil {
		return fmt.Errorf("record %s: %w", eventType, err)
	}
	ev := domain.NegotiationEvent{
		NegotiationID: out.Negotiation.NegotiationID,
		Sequence:      last + 1,
		ActorID:       actorID,
		EventType:     eventType,
		EventData:     datatypes.JSON(payload),
		CreatedAt:     m.now(),
	}
	if offer != nil {
		id := offer.OfferID
		ev.OfferID = &id
	}
	if err := tx.Create(&ev).Error; err != nil {
		return fmt.Errorf("record %s: %w", eventType, err)
	}
	out.Events = append(out.Events, ev)
	return nil
}

func offerData(o *domain.Offer) map[string]interface{} {
	return map[string]interface{}{
		"sequence":  o.Sequence,
		"sender_id": o.SenderID,
		"amount":    o.Amount.String(),
		"currency":  o.Currency,
		"status":    o.Status,
	}
}

func transactionData(t *domain.Transaction) map[string]interface{} {
	return map[string]interface{}{
		"transaction_id": t.TransactionID,
		"amount":         t.Amount.String(),
		"platform_fee":   t.PlatformFee.String(),
		"seller_amount":  t.SellerAmount.String(),
		"currency":       t.Currency,
	}
}
