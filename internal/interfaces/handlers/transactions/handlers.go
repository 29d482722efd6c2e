package transactions

import (
	"errors"
	"strings"

	"realty-backend/internal/application/negotiation"
	"realty-backend/internal/domain"
	"realty-backend/internal/middleware"
	"realty-backend/internal/pkg/money"
	"realty-backend/internal/pkg/response"
	"realty-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

type Handlers struct {
	Service       *negotiation.Service
	StripeCreator StripePaymentIntentCreator
}

// StripePaymentIntentCreator abstracts Stripe PaymentIntent creation for testability.
type StripePaymentIntentCreator interface {
	Create(amountMinor int64, currency string, metadata map[string]string) (*StripePaymentIntentResult, error)
}

type StripePaymentIntentResult struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// RealStripeCreator uses the Stripe Go SDK to create PaymentIntents.
type RealStripeCreator struct {
	SecretKey string
}

func (r *RealStripeCreator) Create(amountMinor int64, currency string, metadata map[string]string) (*StripePaymentIntentResult, error) {
	if r.SecretKey == "" {
		return nil, fiber.NewError(fiber.StatusNotImplemented, "Stripe integration pending")
	}
	stripe.Key = r.SecretKey
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		Metadata: metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &StripePaymentIntentResult{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func transactionError(c *fiber.Ctx, err error) error {
	statusMap := map[error]int{
		negotiation.ErrTransactionNotFound:   fiber.StatusNotFound,
		negotiation.ErrNotParticipant:        fiber.StatusForbidden,
		negotiation.ErrTransactionNotPending: fiber.StatusConflict,
	}
	for target, code := range statusMap {
		if errors.Is(err, target) {
			return response.Error(c, target.Error(), code, nil)
		}
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("transaction request failed")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}

// GetByID GET /api/v1/transactions/:transaction_id
func (h *Handlers) GetByID(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	id, ok := validation.ParseUUID(c.Params("transaction_id"))
	if !ok {
		return response.Error(c, "Invalid UUID format for transaction_id", fiber.StatusBadRequest, nil)
	}
	t, err := h.Service.GetTransactionByID(c.UserContext(), callerID, id)
	if err != nil {
		return transactionError(c, err)
	}
	return response.Success(c, "Transaction retrieved", t, nil)
}

// CreatePaymentIntent POST /api/v1/transactions/:transaction_id/payment-intent
// opens checkout for the payer of a PENDING transaction.
func (h *Handlers) CreatePaymentIntent(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	id, ok := validation.ParseUUID(c.Params("transaction_id"))
	if !ok {
		return response.Error(c, "Invalid UUID format for transaction_id", fiber.StatusBadRequest, nil)
	}
	if h.StripeCreator == nil {
		return response.Error(c, "Stripe not configured", fiber.StatusInternalServerError, nil)
	}

	t, err := h.Service.GetTransactionByID(c.UserContext(), callerID, id)
	if err != nil {
		return transactionError(c, err)
	}
	if t.PayerID != callerID {
		return response.Error(c, "Only the buyer can pay for this transaction", fiber.StatusForbidden, nil)
	}
	if t.Status != domain.TransactionPending {
		return transactionError(c, negotiation.ErrTransactionNotPending)
	}

	amountMinor, err := money.ToMinor(t.Amount, t.Currency)
	if err != nil {
		return transactionError(c, err)
	}
	pi, err := h.StripeCreator.Create(amountMinor, strings.ToLower(t.Currency), map[string]string{
		"transaction_id": t.TransactionID.String(),
		"negotiation_id": t.NegotiationID.String(),
		"payer_id":       t.PayerID.String(),
		"payee_id":       t.PayeeID.String(),
	})
	if err != nil {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		return response.Error(c, err.Error(), code, nil)
	}

	t, err = h.Service.AttachPaymentIntent(c.UserContext(), callerID, id, pi.ID)
	if err != nil {
		return transactionError(c, err)
	}
	return response.Success(c, "Payment intent created", fiber.Map{
		"transaction":       t,
		"payment_intent_id": pi.ID,
		"client_secret":     pi.ClientSecret,
	}, nil)
}
