package negotiation

import (
	"context"
	"errors"
	"fmt"

	"realty-backend/internal/application/minting"
	"realty-backend/internal/application/properties"
	"realty-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Publisher fans committed negotiation events out to other services.
type Publisher interface {
	Publish(ctx context.Context, ev domain.NegotiationEvent) error
}

// Service is the entry point for negotiation use cases. Each mutation runs in
// one database transaction holding a row lock on the negotiation.
type Service struct {
	DB         *gorm.DB
	Properties properties.Directory
	Machine    *StateMachine
	Publisher  Publisher
	Logger     zerolog.Logger
}

func NewService(db *gorm.DB, dir properties.Directory, minter Minter, pub Publisher, logger zerolog.Logger) *Service {
	return &Service{
		DB:         db,
		Properties: dir,
		Machine:    NewStateMachine(NewOfferLedger(), minter),
		Publisher:  pub,
		Logger:     logger.With().Str("service", "negotiation").Logger(),
	}
}

type CreateInput struct {
	PropertyID uuid.UUID
	Type       domain.NegotiationType
	Opening    *OfferInput
}

type ListFilter struct {
	Role   string // "buying", "selling" or "" for both
	Type   string
	Status string
	Page   int
	Limit  int
}

// View is a negotiation with its ordered offers and, once accepted, its transaction.
type View struct {
	Negotiation *domain.Negotiation `json:"negotiation"`
	Offers      []domain.Offer      `json:"offers"`
	Transaction *domain.Transaction `json:"transaction"`
}

// CreateNegotiation opens a negotiation with the caller as buyer and the
// property owner as seller.
func (s *Service) CreateNegotiation(ctx context.Context, callerID uuid.UUID, in CreateInput) (*Outcome, error) {
	ownerID, err := s.Properties.OwnerID(ctx, in.PropertyID)
	if err != nil {
		return nil, err
	}
	if ownerID == callerID {
		return nil, ErrSelfDealing
	}

	var out *Outcome
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = s.Machine.Open(tx, OpenInput{
			PropertyID: in.PropertyID,
			BuyerID:    callerID,
			SellerID:   ownerID,
			Type:       in.Type,
			Opening:    in.Opening,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, out)
	return out, nil
}

// SubmitOffer adds the caller's next offer to the negotiation.
func (s *Service) SubmitOffer(ctx context.Context, callerID, negotiationID uuid.UUID, in OfferInput) (*Outcome, error) {
	return s.withLockedNegotiation(ctx, negotiationID, func(tx *gorm.DB, n *domain.Negotiation) (*Outcome, error) {
		return s.Machine.SubmitCounter(tx, n, callerID, in)
	})
}

// RespondToOffer accepts, rejects or counters offerID. The offer must still be
// the negotiation's open offer when the lock is taken.
func (s *Service) RespondToOffer(ctx context.Context, callerID, offerID uuid.UUID, action Action) (*Outcome, error) {
	var ref domain.Offer
	err := s.DB.WithContext(ctx).Select("offer_id", "negotiation_id").Where("offer_id = ?", offerID).First(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOfferNotFound
	}
	if err != nil {
		return nil, err
	}

	return s.withLockedNegotiation(ctx, ref.NegotiationID, func(tx *gorm.DB, n *domain.Negotiation) (*Outcome, error) {
		if !n.IsParticipant(callerID) {
			return nil, ErrNotParticipant
		}
		// A cancelled negotiation is closed to every action. An ACCEPTED one
		// falls through so the losing side of an accept race sees ErrNoOpenOffer.
		if n.Status == domain.NegotiationRejected {
			return nil, ErrNegotiationClosed
		}
		var current domain.Offer
		if err := tx.Where("offer_id = ?", offerID).First(&current).Error; err != nil {
			return nil, err
		}
		if current.Status != domain.OfferPending {
			return nil, ErrNoOpenOffer
		}
		return s.Machine.Respond(tx, n, callerID, action)
	})
}

// CancelNegotiation closes the negotiation as REJECTED.
func (s *Service) CancelNegotiation(ctx context.Context, callerID, negotiationID uuid.UUID) (*Outcome, error) {
	return s.withLockedNegotiation(ctx, negotiationID, func(tx *gorm.DB, n *domain.Negotiation) (*Outcome, error) {
		return s.Machine.Cancel(tx, n, callerID)
	})
}

// MintTransaction returns the accepted negotiation's transaction, minting it
// if it is missing. Safe to call any number of times.
func (s *Service) MintTransaction(ctx context.Context, callerID, negotiationID uuid.UUID) (*domain.Transaction, error) {
	out, err := s.withLockedNegotiation(ctx, negotiationID, func(tx *gorm.DB, n *domain.Negotiation) (*Outcome, error) {
		if !n.IsParticipant(callerID) {
			return nil, ErrNotParticipant
		}
		if n.Status != domain.NegotiationAccepted {
			return nil, ErrNegotiationNotAccepted
		}
		var accepted domain.Offer
		err := tx.Where("negotiation_id = ? AND status = ?", n.NegotiationID, domain.OfferAccepted).First(&accepted).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotMintable
		}
		if err != nil {
			return nil, err
		}
		t, created, err := s.Machine.Minter.Mint(tx, n, &accepted)
		if err != nil {
			return nil, err
		}
		out := &Outcome{Negotiation: n, Offer: &accepted, Transaction: t}
		if created {
			if err := s.Machine.record(tx, out, &accepted, callerID, domain.EventTransactionMinted, transactionData(t)); err != nil {
				return nil, err
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return out.Transaction, nil
}

// ListNegotiations pages through the caller's negotiations, most recently active first.
func (s *Service) ListNegotiations(ctx context.Context, callerID uuid.UUID, f ListFilter) ([]domain.Negotiation, int64, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Negotiation{})
	switch f.Role {
	case "buying":
		q = q.Where("buyer_id = ?", callerID)
	case "selling":
		q = q.Where("seller_id = ?", callerID)
	case "":
		q = q.Where("(buyer_id = ? OR seller_id = ?)", callerID, callerID)
	default:
		return nil, 0, ErrInvalidRole
	}
	if f.Type != "" {
		t := domain.NegotiationType(f.Type)
		if !t.Valid() {
			return nil, 0, ErrInvalidType
		}
		q = q.Where("type = ?", t)
	}
	if f.Status != "" {
		switch st := domain.NegotiationStatus(f.Status); st {
		case domain.NegotiationActive, domain.NegotiationAccepted, domain.NegotiationRejected:
			q = q.Where("status = ?", st)
		default:
			return nil, 0, ErrInvalidStatus
		}
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	var items []domain.Negotiation
	if err := q.Order("last_action_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetNegotiation returns the negotiation with its offer history.
func (s *Service) GetNegotiation(ctx context.Context, callerID, negotiationID uuid.UUID) (*View, error) {
	db := s.DB.WithContext(ctx)
	n, err := s.participantNegotiation(db, callerID, negotiationID)
	if err != nil {
		return nil, err
	}
	offers, err := s.Machine.Ledger.History(db, n.NegotiationID)
	if err != nil {
		return nil, err
	}
	t, err := minting.FindByNegotiation(db, n.NegotiationID)
	if err != nil {
		return nil, err
	}
	return &View{Negotiation: n, Offers: offers, Transaction: t}, nil
}

// ListEvents returns the negotiation's audit trail in sequence order.
func (s *Service) ListEvents(ctx context.Context, callerID, negotiationID uuid.UUID) ([]domain.NegotiationEvent, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.participantNegotiation(db, callerID, negotiationID); err != nil {
		return nil, err
	}
	var events []domain.NegotiationEvent
	if err := db.Where("negotiation_id = ?", negotiationID).Order("sequence ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// GetTransaction returns the transaction minted for the negotiation.
func (s *Service) GetTransaction(ctx context.Context, callerID, negotiationID uuid.UUID) (*domain.Transaction, error) {
	db := s.DB.WithContext(ctx)
	n, err := s.participantNegotiation(db, callerID, negotiationID)
	if err != nil {
		return nil, err
	}
	t, err := minting.FindByNegotiation(db, n.NegotiationID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

// GetTransactionByID is the read used by checkout. Only the payer or payee may see it.
func (s *Service) GetTransactionByID(ctx context.Context, callerID, transactionID uuid.UUID) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.DB.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	if !t.IsParty(callerID) {
		return nil, ErrNotParticipant
	}
	return &t, nil
}

// AttachPaymentIntent stores the payment provider's intent id on a PENDING
// transaction. Only the payer may start checkout.
func (s *Service) AttachPaymentIntent(ctx context.Context, callerID, transactionID uuid.UUID, intentID string) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("transaction_id = ?", transactionID).First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTransactionNotFound
		}
		if err != nil {
			return err
		}
		if t.PayerID != callerID {
			return ErrNotParticipant
		}
		if t.Status != domain.TransactionPending {
			return ErrTransactionNotPending
		}
		t.PaymentIntentID = &intentID
		return tx.Model(&t).Update("payment_intent_id", intentID).Error
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info().Str("transaction_id", transactionID.String()).Str("payment_intent_id", intentID).Msg("payment intent attached")
	return &t, nil
}

// withLockedNegotiation runs fn in a transaction after SELECT ... FOR UPDATE on
// the negotiation row, then publishes the outcome's events once committed.
func (s *Service) withLockedNegotiation(ctx context.Context, negotiationID uuid.UUID, fn func(tx *gorm.DB, n *domain.Negotiation) (*Outcome, error)) (*Outcome, error) {
	var out *Outcome
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n domain.Negotiation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("negotiation_id = ?", negotiationID).First(&n).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNegotiationNotFound
		}
		if err != nil {
			return fmt.Errorf("lock negotiation: %w", err)
		}
		out, err = fn(tx, &n)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, out)
	return out, nil
}

func (s *Service) participantNegotiation(db *gorm.DB, callerID, negotiationID uuid.UUID) (*domain.Negotiation, error) {
	var n domain.Negotiation
	err := db.Where("negotiation_id = ?", negotiationID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNegotiationNotFound
	}
	if err != nil {
		return nil, err
	}
	if !n.IsParticipant(callerID) {
		return nil, ErrNotParticipant
	}
	return &n, nil
}

// committed logs and publishes events. Publish failures are logged only; the
// audit rows are already durable.
func (s *Service) committed(ctx context.Context, out *Outcome) {
	for _, ev := range out.Events {
		s.Logger.Info().
			Str("negotiation_id", ev.NegotiationID.String()).
			Str("event", ev.EventType).
			Str("actor_id", ev.ActorID.String()).
			Msg("negotiation transition")
		if s.Publisher == nil {
			continue
		}
		if err := s.Publisher.Publish(ctx, ev); err != nil {
			s.Logger.Warn().Err(err).
				Str("negotiation_id", ev.NegotiationID.String()).
				Str("event", ev.EventType).
				Msg("publish negotiation event failed")
		}
	}
}
