package negotiation

import (
	"errors"

	"realty-backend/internal/application/minting"
	"realty-backend/internal/application/properties"
	"realty-backend/internal/pkg/money"
)

var (
	ErrNegotiationNotFound        = errors.New("Negotiation not found")
	ErrOfferNotFound              = errors.New("Offer not found")
	ErrTransactionNotFound        = errors.New("Transaction not found")
	ErrNotParticipant             = errors.New("Only the buyer or seller can access this negotiation")
	ErrSelfDealing                = errors.New("You cannot negotiate on your own property")
	ErrDuplicateActiveNegotiation = errors.New("An active negotiation already exists for this property")
	ErrNegotiationClosed          = errors.New("Negotiation is closed")
	ErrWrongTurn                  = errors.New("It is not your turn to act on this negotiation")
	ErrNoOpenOffer                = errors.New("There is no open offer to act on")
	ErrInvalidState               = errors.New("Negotiation already has offers")
	ErrInvalidAction              = errors.New("Action must be one of accept, reject, counter")
	ErrInvalidType                = errors.New("Type must be BUY or RENT")
	ErrInvalidRole                = errors.New("Role must be buying or selling")
	ErrInvalidStatus              = errors.New("Status must be ACTIVE, ACCEPTED or REJECTED")
	ErrCurrencyMismatch           = errors.New("Offer currency must match the negotiation currency")
	ErrNegotiationNotAccepted     = errors.New("Negotiation has not been accepted")
	ErrTransactionNotPending      = errors.New("Transaction is not pending")
	ErrConcurrentUpdate           = errors.New("Negotiation was updated concurrently")

	// Re-exported so callers of this package need a single import for matching.
	ErrInvalidAmount    = money.ErrInvalidAmount
	ErrInvalidCurrency  = money.ErrInvalidCurrency
	ErrPropertyNotFound = properties.ErrPropertyNotFound
	ErrNotMintable      = minting.ErrNotMintable
)
