package negotiations

import (
	"errors"
	"strings"

	"realty-backend/internal/application/negotiation"
	"realty-backend/internal/domain"
	"realty-backend/internal/middleware"
	"realty-backend/internal/pkg/response"
	"realty-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *negotiation.Service
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorStatus = []errorMapping{
	{negotiation.ErrNegotiationNotFound, fiber.StatusNotFound, "NEGOTIATION_NOT_FOUND"},
	{negotiation.ErrOfferNotFound, fiber.StatusNotFound, "OFFER_NOT_FOUND"},
	{negotiation.ErrTransactionNotFound, fiber.StatusNotFound, "TRANSACTION_NOT_FOUND"},
	{negotiation.ErrPropertyNotFound, fiber.StatusNotFound, "PROPERTY_NOT_FOUND"},
	{negotiation.ErrSelfDealing, fiber.StatusForbidden, "SELF_DEALING"},
	{negotiation.ErrNotParticipant, fiber.StatusForbidden, "NOT_PARTICIPANT"},
	{negotiation.ErrDuplicateActiveNegotiation, fiber.StatusConflict, "DUPLICATE_ACTIVE_NEGOTIATION"},
	{negotiation.ErrNoOpenOffer, fiber.StatusConflict, "NO_OPEN_OFFER"},
	{negotiation.ErrNegotiationNotAccepted, fiber.StatusConflict, "NEGOTIATION_NOT_ACCEPTED"},
	{negotiation.ErrTransactionNotPending, fiber.StatusConflict, "TRANSACTION_NOT_PENDING"},
	{negotiation.ErrConcurrentUpdate, fiber.StatusConflict, "CONCURRENT_UPDATE"},
	{negotiation.ErrWrongTurn, fiber.StatusBadRequest, "WRONG_TURN"},
	{negotiation.ErrNegotiationClosed, fiber.StatusBadRequest, "NEGOTIATION_CLOSED"},
	{negotiation.ErrInvalidState, fiber.StatusBadRequest, "INVALID_STATE"},
	{negotiation.ErrInvalidAction, fiber.StatusBadRequest, "INVALID_ACTION"},
	{negotiation.ErrInvalidType, fiber.StatusBadRequest, "INVALID_TYPE"},
	{negotiation.ErrInvalidRole, fiber.StatusBadRequest, "INVALID_ROLE"},
	{negotiation.ErrInvalidStatus, fiber.StatusBadRequest, "INVALID_STATUS"},
	{negotiation.ErrInvalidAmount, fiber.StatusBadRequest, "INVALID_AMOUNT"},
	{negotiation.ErrInvalidCurrency, fiber.StatusBadRequest, "INVALID_CURRENCY"},
	{negotiation.ErrCurrencyMismatch, fiber.StatusBadRequest, "CURRENCY_MISMATCH"},
}

// respondError maps service errors to the error envelope. Unknown errors are
// logged and reported as 500.
func respondError(c *fiber.Ctx, err error) error {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return response.ErrorCode(c, m.err.Error(), m.status, m.code)
		}
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("negotiation request failed")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}

type offerBody struct {
	Amount   interface{} `json:"amount"`
	Currency string      `json:"currency"`
	Message  *string     `json:"message" validate:"omitempty,max=2000"`
}

func (b offerBody) input() (*negotiation.OfferInput, error) {
	amount, err := validation.ParseAmount(b.Amount)
	if err != nil {
		return nil, err
	}
	return &negotiation.OfferInput{Amount: amount, Currency: b.Currency, Message: b.Message}, nil
}

func invalidID(c *fiber.Ctx, name string) error {
	return response.Error(c, "Invalid UUID format for "+name, fiber.StatusBadRequest, nil)
}

// Create POST /api/v1/negotiations
func (h *Handlers) Create(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	var body struct {
		PropertyID string `json:"property_id" validate:"required,uuid"`
		Type       string `json:"type" validate:"required"`
		offerBody
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := validation.Struct(&body); err != nil {
		return response.ErrorCode(c, err.Error(), fiber.StatusBadRequest, "VALIDATION_FAILED")
	}
	propertyID, _ := validation.ParseUUID(body.PropertyID)

	in := negotiation.CreateInput{
		PropertyID: propertyID,
		Type:       domain.NegotiationType(strings.ToUpper(strings.TrimSpace(body.Type))),
	}
	if body.Amount != nil {
		opening, err := body.input()
		if err != nil {
			return response.ErrorCode(c, err.Error(), fiber.StatusBadRequest, "INVALID_AMOUNT")
		}
		in.Opening = opening
	}

	out, err := h.Service.CreateNegotiation(c.UserContext(), callerID, in)
	if err != nil {
		return respondError(c, err)
	}
	return response.SuccessCreated(c, "Negotiation opened", out, nil)
}

// List GET /api/v1/negotiations?role=&type=&status=&page=&limit=
func (h *Handlers) List(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	page, limit := validation.ParsePage(c.Query("page"), c.Query("limit"))
	items, total, err := h.Service.ListNegotiations(c.UserContext(), callerID, negotiation.ListFilter{
		Role:   c.Query("role"),
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Negotiations retrieved", items, response.NewPageMeta(page, limit, total))
}

// Get GET /api/v1/negotiations/:negotiation_id
func (h *Handlers) Get(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	id, ok := validation.ParseUUID(c.Params("negotiation_id"))
	if !ok {
		return invalidID(c, "negotiation_id")
	}
	view, err := h.Service.GetNegotiation(c.UserContext(), callerID, id)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Negotiation retrieved", view, nil)
}

// SubmitOffer POST /api/v1/negotiations/:negotiation_id/offers
func (h *Handlers) SubmitOffer(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	id, ok := validation.ParseUUID(c.Params("negotiation_id"))
	if !ok {
		return invalidID(c, "negotiation_id")
	}
	var body offerBody
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := validation.Struct(&body); err != nil {
		return response.ErrorCode(c, err.Error(), fiber.StatusBadRequest, "VALIDATION_FAILED")
	}
	in, err := body.input()
	if err != nil {
		return response.ErrorCode(c, err.Error(), fiber.StatusBadRequest, "INVALID_AMOUNT")
	}

	out, err := h.Service.SubmitOffer(c.UserContext(), callerID, id, *in)
	if err != nil {
		return respondError(c, err)
	}
	return response.SuccessCreated(c, "Offer submitted", out, nil)
}

// Respond POST /api/v1/offers/:offer_id/respond
func (h *Handlers) Respond(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	offerID, ok := validation.ParseUUID(c.Params("offer_id"))
	if !ok {
		return invalidID(c, "offer_id")
	}
	var body struct {
		Action        string      `json:"action" validate:"required"`
		CounterAmount interface{} `json:"counter_amount"`
		Currency      string      `json:"currency"`
		Message       *string     `json:"message" validate:"omitempty,max=2000"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := validation.Struct(&body); err != nil {
		return response.ErrorCode(c, err.Error(), fiber.StatusBadRequest, "VALIDATION_FAILED")
	}

	// counter_amount only matters for a counter; accept and reject ignore it.
	var counter *negotiation.OfferInput
	if strings.EqualFold(strings.TrimSpace(body.Action), "counter") && body.CounterAmount != nil {
		var err error
		counter, err = offerBody{Amount: body.CounterAmount, Currency: body.Currency, Message: body.Message}.input()
		if err != nil {
			return response.ErrorCode(c, err.Error(), fiber.StatusBadRequest, "INVALID_AMOUNT")
		}
	}
	action, err := negotiation.ParseAction(body.Action, counter)
	if err != nil {
		return respondError(c, err)
	}

	out, err := h.Service.RespondToOffer(c.UserContext(), callerID, offerID, action)
	if errors.Is(err, negotiation.ErrWrongTurn) {
		return response.ErrorCode(c, err.Error(), fiber.StatusForbidden, "WRONG_TURN")
	}
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Offer "+strings.ToLower(strings.TrimSpace(body.Action))+"ed", out, nil)
}

// Cancel POST /api/v1/negotiations/:negotiation_id/cancel
func (h *Handlers) Cancel(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	id, ok := validation.ParseUUID(c.Params("negotiation_id"))
	if !ok {
		return invalidID(c, "negotiation_id")
	}
	out, err := h.Service.CancelNegotiation(c.UserContext(), callerID, id)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Negotiation cancelled", out, nil)
}

// Events GET /api/v1/negotiations/:negotiation_id/events
func (h *Handlers) Events(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	id, ok := validation.ParseUUID(c.Params("negotiation_id"))
	if !ok {
		return invalidID(c, "negotiation_id")
	}
	events, err := h.Service.ListEvents(c.UserContext(), callerID, id)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Events retrieved", events, nil)
}

// GetTransaction GET /api/v1/negotiations/:negotiation_id/transaction
func (h *Handlers) GetTransaction(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	id, ok := validation.ParseUUID(c.Params("negotiation_id"))
	if !ok {
		return invalidID(c, "negotiation_id")
	}
	t, err := h.Service.GetTransaction(c.UserContext(), callerID, id)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Transaction retrieved", t, nil)
}

// MintTransaction POST /api/v1/negotiations/:negotiation_id/transaction
func (h *Handlers) MintTransaction(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	id, ok := validation.ParseUUID(c.Params("negotiation_id"))
	if !ok {
		return invalidID(c, "negotiation_id")
	}
	t, err := h.Service.MintTransaction(c.UserContext(), callerID, id)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Transaction minted", t, nil)
}
