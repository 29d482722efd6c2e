package negotiation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"realty-backend/internal/application/minting"
	"realty-backend/internal/application/properties"
	"realty-backend/internal/domain"
	"realty-backend/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.NegotiationEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev domain.NegotiationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.EventType)
	}
	return out
}

// tickClock advances one second per reading so ordering by time is stable.
type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type negotiationEnv struct {
	db         *gorm.DB
	svc        *Service
	pub        *recordingPublisher
	buyer      uuid.UUID
	seller     uuid.UUID
	propertyID uuid.UUID
}

func setupNegotiationTest(t *testing.T) *negotiationEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and serialises transactions.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	seller := uuid.New()
	p := &domain.Property{OwnerID: seller, Title: "Canal house", ListingType: "BUY"}
	require.NoError(t, db.Create(p).Error)

	pub := &recordingPublisher{}
	svc := NewService(db, &properties.GormDirectory{DB: db}, minting.NewMinter(decimal.RequireFromString("0.025")), pub, zerolog.Nop())
	clock := &tickClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc.Machine.Now = clock.Now
	svc.Machine.Ledger.Now = clock.Now

	return &negotiationEnv{db: db, svc: svc, pub: pub, buyer: uuid.New(), seller: seller, propertyID: p.PropertyID}
}

func eur(amount string) *OfferInput {
	return &OfferInput{Amount: decimal.RequireFromString(amount), Currency: "EUR"}
}

func (e *negotiationEnv) open(t *testing.T, opening *OfferInput) *Outcome {
	out, err := e.svc.CreateNegotiation(context.Background(), e.buyer, CreateInput{
		PropertyID: e.propertyID,
		Type:       domain.NegotiationTypeBuy,
		Opening:    opening,
	})
	require.NoError(t, err)
	return out
}

func (e *negotiationEnv) transactionCount(t *testing.T, negotiationID uuid.UUID) int64 {
	var n int64
	require.NoError(t, e.db.Model(&domain.Transaction{}).Where("negotiation_id = ?", negotiationID).Count(&n).Error)
	return n
}

func assertLedgerInvariants(t *testing.T, offers []domain.Offer, n *domain.Negotiation) {
	t.Helper()
	pending := 0
	for i, o := range offers {
		assert.Equal(t, i+1, o.Sequence)
		if o.Status == domain.OfferPending {
			pending++
		}
		if i > 0 {
			assert.NotEqual(t, offers[i-1].SenderID, o.SenderID, "offers must alternate senders")
		}
		assert.True(t, n.IsParticipant(o.SenderID))
	}
	assert.LessOrEqual(t, pending, 1)
}

func TestScenario_CounterChainThenAccept(t *testing.T) {
	e := setupNegotiationTest(t)
	ctx := context.Background()

	opened := e.open(t, eur("240000"))
	n := opened.Negotiation
	assert.Equal(t, domain.NegotiationActive, n.Status)
	assert.Equal(t, e.seller, n.SellerID)
	require.NotNil(t, opened.Offer)
	assert.Equal(t, domain.OfferPending, opened.Offer.Status)
	assert.Equal(t, e.buyer, opened.Offer.SenderID)

	countered, err := e.svc.RespondToOffer(ctx, e.seller, opened.Offer.OfferID, Counter{Offer: *eur("248000")})
	require.NoError(t, err)
	assert.Equal(t, domain.OfferCountered, countered.Countered.Status)
	assert.Equal(t, e.seller, countered.Offer.SenderID)
	assert.True(t, countered.Offer.Amount.Equal(decimal.RequireFromString("248000")))

	buyerCounter, err := e.svc.SubmitOffer(ctx, e.buyer, n.NegotiationID, *eur("245000"))
	require.NoError(t, err)
	assert.Equal(t, countered.Offer.OfferID, buyerCounter.Countered.OfferID)
	assert.Equal(t, domain.OfferPending, buyerCounter.Offer.Status)

	accepted, err := e.svc.RespondToOffer(ctx, e.seller, buyerCounter.Offer.OfferID, Accept{})
	require.NoError(t, err)
	assert.Equal(t, domain.NegotiationAccepted, accepted.Negotiation.Status)
	assert.Equal(t, domain.OfferAccepted, accepted.Offer.Status)
	require.NotNil(t, accepted.Transaction)
	assert.True(t, accepted.Transaction.Amount.Equal(decimal.RequireFromString("245000")))
	assert.True(t, accepted.Transaction.SellerAmount.Equal(decimal.RequireFromString("245000").Sub(accepted.Transaction.PlatformFee)))
	assert.True(t, accepted.Transaction.PlatformFee.Equal(decimal.RequireFromString("6125")))
	assert.Equal(t, e.buyer, accepted.Transaction.PayerID)

	view, err := e.svc.GetNegotiation(ctx, e.buyer, n.NegotiationID)
	require.NoError(t, err)
	require.Len(t, view.Offers, 3)
	assert.Equal(t, domain.OfferCountered, view.Offers[0].Status)
	assert.Equal(t, domain.OfferCountered, view.Offers[1].Status)
	assert.Equal(t, domain.OfferAccepted, view.Offers[2].Status)
	require.NotNil(t, view.Transaction)
	assertLedgerInvariants(t, view.Offers, view.Negotiation)
	assert.Equal(t, int64(1), e.transactionCount(t, n.NegotiationID))

	assert.Equal(t, []string{
		domain.EventOpened,
		domain.EventOfferSubmitted,
		domain.EventOfferCountered,
		domain.EventOfferCountered,
		domain.EventOfferAccepted,
		domain.EventTransactionMinted,
	}, e.pub.types())

	events, err := e.svc.ListEvents(ctx, e.seller, n.NegotiationID)
	require.NoError(t, err)
	assert.Len(t, events, 6)
	assert.Equal(t, domain.EventOpened, events[0].EventType)
	assert.Equal(t, domain.EventTransactionMinted, events[5].EventType)
}

func TestListEvents_OrderedBySequenceUnderFrozenClock(t *testing.T) {
	e := setupNegotiationTest(t)
	frozen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	e.svc.Machine.Now = func() time.Time { return frozen }
	e.svc.Machine.Ledger.Now = e.svc.Machine.Now
	ctx := context.Background()

	opened := e.open(t, eur("240000"))
	_, err := e.svc.RespondToOffer(ctx, e.seller, opened.Offer.OfferID, Accept{})
	require.NoError(t, err)

	events, err := e.svc.ListEvents(ctx, e.buyer, opened.Negotiation.NegotiationID)
	require.NoError(t, err)
	want := []string{
		domain.EventOpened,
		domain.EventOfferSubmitted,
		domain.EventOfferAccepted,
		domain.EventTransactionMinted,
	}
	require.Len(t, events, len(want))
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Sequence)
		assert.Equal(t, want[i], ev.EventType)
		assert.True(t, ev.CreatedAt.Equal(frozen))
	}
}

func TestScenario_DuplicateActiveNegotiation(t *testing.T) {
	e := setupNegotiationTest(t)
	e.open(t, eur("240000"))

	_, err := e.svc.CreateNegotiation(context.Background(), e.buyer, CreateInput{
		PropertyID: e.propertyID,
		Type:       domain.NegotiationTypeBuy,
		Opening:    eur("250000"),
	})
	assert.ErrorIs(t, err, ErrDuplicateActiveNegotiation)

	// A different type is a separate negotiation.
	_, err = e.svc.CreateNegotiation(context.Background(), e.buyer, CreateInput{
		PropertyID: e.propertyID,
		Type:       domain.NegotiationTypeRent,
	})
	assert.NoError(t, err)
}

func TestCreateNegotiation_AllowedAgainAfterClose(t *testing.T) {
	e := setupNegotiationTest(t)
	first := e.open(t, eur("240000"))
	_, err := e.svc.CancelNegotiation(context.Background(), e.buyer, first.Negotiation.NegotiationID)
	require.NoError(t, err)

	second := e.open(t, eur("241000"))
	assert.NotEqual(t, first.Negotiation.NegotiationID, second.Negotiation.NegotiationID)
}

func TestScenario_ConcurrentAccepts(t *testing.T) {
	e := setupNegotiationTest(t)
	opened := e.open(t, eur("300000"))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	results := make([]*Outcome, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.svc.RespondToOffer(context.Background(), e.seller, opened.Offer.OfferID, Accept{})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		if err == nil {
			succeeded++
			require.NotNil(t, results[i].Transaction)
			continue
		}
		assert.ErrorIs(t, err, ErrNoOpenOffer)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(1), e.transactionCount(t, opened.Negotiation.NegotiationID))
}

func TestScenario_CancelTwice(t *testing.T) {
	e := setupNegotiationTest(t)
	opened := e.open(t, eur("240000"))
	id := opened.Negotiation.NegotiationID

	out, err := e.svc.CancelNegotiation(context.Background(), e.buyer, id)
	require.NoError(t, err)
	assert.Equal(t, domain.NegotiationRejected, out.Negotiation.Status)
	require.NotNil(t, out.Offer)
	assert.Equal(t, domain.OfferRejected, out.Offer.Status)

	_, err = e.svc.CancelNegotiation(context.Background(), e.buyer, id)
	assert.ErrorIs(t, err, ErrNegotiationClosed)

	assert.Equal(t, int64(0), e.transactionCount(t, id))
}

func TestRespondToOffer_AfterCancel(t *testing.T) {
	e := setupNegotiationTest(t)
	opened := e.open(t, eur("240000"))
	id := opened.Negotiation.NegotiationID

	_, err := e.svc.CancelNegotiation(context.Background(), e.buyer, id)
	require.NoError(t, err)

	for _, action := range []Action{Accept{}, Reject{}, Counter{Offer: *eur("250000")}} {
		_, err = e.svc.RespondToOffer(context.Background(), e.seller, opened.Offer.OfferID, action)
		assert.ErrorIs(t, err, ErrNegotiationClosed)
	}
	_, err = e.svc.SubmitOffer(context.Background(), e.seller, id, *eur("250000"))
	assert.ErrorIs(t, err, ErrNegotiationClosed)
	assert.Equal(t, int64(0), e.transactionCount(t, id))
}

func TestCreateNegotiation_SelfDealing(t *testing.T) {
	e := setupNegotiationTest(t)
	_, err := e.svc.CreateNegotiation(context.Background(), e.seller, CreateInput{
		PropertyID: e.propertyID,
		Type:       domain.NegotiationTypeBuy,
		Opening:    eur("100000"),
	})
	assert.ErrorIs(t, err, ErrSelfDealing)
}

func TestCreateNegotiation_UnknownProperty(t *testing.T) {
	e := setupNegotiationTest(t)
	_, err := e.svc.CreateNegotiation(context.Background(), e.buyer, CreateInput{
		PropertyID: uuid.New(),
		Type:       domain.NegotiationTypeBuy,
	})
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestCreateNegotiation_ValidationLeavesNothingBehind(t *testing.T) {
	e := setupNegotiationTest(t)
	_, err := e.svc.CreateNegotiation(context.Background(), e.buyer, CreateInput{
		PropertyID: e.propertyID,
		Type:       domain.NegotiationTypeBuy,
		Opening:    &OfferInput{Amount: decimal.RequireFromString("-1"), Currency: "EUR"},
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = e.svc.CreateNegotiation(context.Background(), e.buyer, CreateInput{
		PropertyID: e.propertyID,
		Type:       "LEASE",
	})
	assert.ErrorIs(t, err, ErrInvalidType)

	var count int64
	e.db.Model(&domain.Negotiation{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestRespondToOffer_OwnOfferIsWrongTurn(t *testing.T) {
	e := setupNegotiationTest(t)
	opened := e.open(t, eur("240000"))
	ctx := context.Background()

	for _, action := range []Action{Accept{}, Reject{}, Counter{Offer: *eur("239000")}} {
		_, err := e.svc.RespondToOffer(ctx, e.buyer, opened.Offer.OfferID, action)
		assert.ErrorIs(t, err, ErrWrongTurn)
	}
}

func TestRespondToOffer_Outsider(t *testing.T) {
	e := setupNegotiationTest(t)
	opened := e.open(t, eur("240000"))

	_, err := e.svc.RespondToOffer(context.Background(), uuid.New(), opened.Offer.OfferID, Accept{})
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = e.svc.RespondToOffer(context.Background(), e.seller, uuid.New(), Accept{})
	assert.ErrorIs(t, err, ErrOfferNotFound)
}

func TestRespondToOffer_SupersededOffer(t *testing.T) {
	e := setupNegotiationTest(t)
	opened := e.open(t, eur("240000"))
	ctx := context.Background()

	_, err := e.svc.RespondToOffer(ctx, e.seller, opened.Offer.OfferID, Counter{Offer: *eur("250000")})
	require.NoError(t, err)

	_, err = e.svc.RespondToOffer(ctx, e.seller, opened.Offer.OfferID, Accept{})
	assert.ErrorIs(t, err, ErrNoOpenOffer)
}

func TestRejectKeepsNegotiationActive(t *testing.T) {
	e := setupNegotiationTest(t)
	opened := e.open(t, eur("240000"))
	ctx := context.Background()
	id := opened.Negotiation.NegotiationID

	out, err := e.svc.RespondToOffer(ctx, e.seller, opened.Offer.OfferID, Reject{})
	require.NoError(t, err)
	assert.Equal(t, domain.NegotiationActive, out.Negotiation.Status)
	assert.Equal(t, domain.OfferRejected, out.Offer.Status)

	// The author of the rejected offer may not go again.
	_, err = e.svc.SubmitOffer(ctx, e.buyer, id, *eur("245000"))
	assert.ErrorIs(t, err, ErrWrongTurn)

	next, err := e.svc.SubmitOffer(ctx, e.seller, id, *eur("255000"))
	require.NoError(t, err)
	assert.Equal(t, 2, next.Offer.Sequence)
	assert.Nil(t, next.Countered)

	view, err := e.svc.GetNegotiation(ctx, e.buyer, id)
	require.NoError(t, err)
	assertLedgerInvariants(t, view.Offers, view.Negotiation)
	assert.Nil(t, view.Transaction)
}

func TestSubmitOffer_TurnAndClosedRules(t *testing.T) {
	e := setupNegotiationTest(t)
	ctx := context.Background()
	opened := e.open(t, nil)
	id := opened.Negotiation.NegotiationID
	assert.Nil(t, opened.Offer)

	_, err := e.svc.SubmitOffer(ctx, e.seller, id, *eur("250000"))
	assert.ErrorIs(t, err, ErrWrongTurn, "seller cannot open the bidding")

	first, err := e.svc.SubmitOffer(ctx, e.buyer, id, *eur("240000"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Offer.Sequence)

	_, err = e.svc.SubmitOffer(ctx, e.buyer, id, *eur("241000"))
	assert.ErrorIs(t, err, ErrWrongTurn)

	_, err = e.svc.SubmitOffer(ctx, uuid.New(), id, *eur("241000"))
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = e.svc.SubmitOffer(ctx, e.seller, id, OfferInput{Amount: decimal.RequireFromString("250000"), Currency: "USD"})
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = e.svc.RespondToOffer(ctx, e.seller, first.Offer.OfferID, Accept{})
	require.NoError(t, err)

	_, err = e.svc.SubmitOffer(ctx, e.seller, id, *eur("250000"))
	assert.ErrorIs(t, err, ErrNegotiationClosed)

	_, err = e.svc.SubmitOffer(ctx, e.buyer, uuid.New(), *eur("250000"))
	assert.ErrorIs(t, err, ErrNegotiationNotFound)
}

func TestMintTransaction_Replay(t *testing.T) {
	e := setupNegotiationTest(t)
	ctx := context.Background()
	opened := e.open(t, eur("199999.99"))
	id := opened.Negotiation.NegotiationID

	_, err := e.svc.MintTransaction(ctx, e.buyer, id)
	assert.ErrorIs(t, err, ErrNegotiationNotAccepted)

	accepted, err := e.svc.RespondToOffer(ctx, e.seller, opened.Offer.OfferID, Accept{})
	require.NoError(t, err)

	replayed, err := e.svc.MintTransaction(ctx, e.seller, id)
	require.NoError(t, err)
	assert.Equal(t, accepted.Transaction.TransactionID, replayed.TransactionID)
	assert.Equal(t, int64(1), e.transactionCount(t, id))

	got, err := e.svc.GetTransaction(ctx, e.buyer, id)
	require.NoError(t, err)
	assert.Equal(t, accepted.Transaction.TransactionID, got.TransactionID)
	assert.True(t, got.PlatformFee.Equal(decimal.RequireFromString("5000")))
}

func TestGetTransaction_NotYetMinted(t *testing.T) {
	e := setupNegotiationTest(t)
	opened := e.open(t, eur("240000"))

	_, err := e.svc.GetTransaction(context.Background(), e.buyer, opened.Negotiation.NegotiationID)
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	_, err = e.svc.GetTransaction(context.Background(), uuid.New(), opened.Negotiation.NegotiationID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestAttachPaymentIntent(t *testing.T) {
	e := setupNegotiationTest(t)
	ctx := context.Background()
	opened := e.open(t, eur("240000"))
	accepted, err := e.svc.RespondToOffer(ctx, e.seller, opened.Offer.OfferID, Accept{})
	require.NoError(t, err)
	txID := accepted.Transaction.TransactionID

	_, err = e.svc.AttachPaymentIntent(ctx, e.seller, txID, "pi_123")
	assert.ErrorIs(t, err, ErrNotParticipant, "only the payer starts checkout")

	got, err := e.svc.AttachPaymentIntent(ctx, e.buyer, txID, "pi_123")
	require.NoError(t, err)
	require.NotNil(t, got.PaymentIntentID)
	assert.Equal(t, "pi_123", *got.PaymentIntentID)

	require.NoError(t, e.db.Model(&domain.Transaction{}).Where("transaction_id = ?", txID).Update("status", domain.TransactionCompleted).Error)
	_, err = e.svc.AttachPaymentIntent(ctx, e.buyer, txID, "pi_456")
	assert.ErrorIs(t, err, ErrTransactionNotPending)

	_, err = e.svc.GetTransactionByID(ctx, uuid.New(), txID)
	assert.ErrorIs(t, err, ErrNotParticipant)
	_, err = e.svc.GetTransactionByID(ctx, e.buyer, uuid.New())
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestListNegotiations_RoleAndFilters(t *testing.T) {
	e := setupNegotiationTest(t)
	ctx := context.Background()
	buying := e.open(t, eur("240000"))

	// The buyer also sells a property of their own.
	own := &domain.Property{OwnerID: e.buyer, Title: "Studio", ListingType: "RENT"}
	require.NoError(t, e.db.Create(own).Error)
	tenant := uuid.New()
	_, err := e.svc.CreateNegotiation(ctx, tenant, CreateInput{PropertyID: own.PropertyID, Type: domain.NegotiationTypeRent, Opening: eur("1500")})
	require.NoError(t, err)

	all, total, err := e.svc.ListNegotiations(ctx, e.buyer, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	mine, total, err := e.svc.ListNegotiations(ctx, e.buyer, ListFilter{Role: "buying"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, buying.Negotiation.NegotiationID, mine[0].NegotiationID)

	sales, _, err := e.svc.ListNegotiations(ctx, e.buyer, ListFilter{Role: "selling", Type: "RENT"})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, tenant, sales[0].BuyerID)

	page2, total, err := e.svc.ListNegotiations(ctx, e.buyer, ListFilter{Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page2, 1)

	_, _, err = e.svc.ListNegotiations(ctx, e.buyer, ListFilter{Role: "renting"})
	assert.ErrorIs(t, err, ErrInvalidRole)
	_, _, err = e.svc.ListNegotiations(ctx, e.buyer, ListFilter{Status: "OPEN"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestGetNegotiation_Authorization(t *testing.T) {
	e := setupNegotiationTest(t)
	opened := e.open(t, eur("240000"))

	_, err := e.svc.GetNegotiation(context.Background(), uuid.New(), opened.Negotiation.NegotiationID)
	assert.ErrorIs(t, err, ErrNotParticipant)
	_, err = e.svc.GetNegotiation(context.Background(), e.buyer, uuid.New())
	assert.ErrorIs(t, err, ErrNegotiationNotFound)
	_, err = e.svc.ListEvents(context.Background(), uuid.New(), opened.Negotiation.NegotiationID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestPublishFailureDoesNotFailTransition(t *testing.T) {
	e := setupNegotiationTest(t)
	e.pub.err = errors.New("redis down")

	opened := e.open(t, eur("240000"))
	assert.Equal(t, domain.NegotiationActive, opened.Negotiation.Status)

	var rows int64
	e.db.Model(&domain.NegotiationEvent{}).Where("negotiation_id = ?", opened.Negotiation.NegotiationID).Count(&rows)
	assert.Equal(t, int64(2), rows)
}

func TestTransactionExistsIffAccepted(t *testing.T) {
	e := setupNegotiationTest(t)
	ctx := context.Background()
	opened := e.open(t, eur("240000"))
	id := opened.Negotiation.NegotiationID

	_, err := e.svc.RespondToOffer(ctx, e.seller, opened.Offer.OfferID, Reject{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), e.transactionCount(t, id))

	next, err := e.svc.SubmitOffer(ctx, e.seller, id, *eur("260000"))
	require.NoError(t, err)
	_, err = e.svc.RespondToOffer(ctx, e.buyer, next.Offer.OfferID, Accept{})
	require.NoError(t, err)

	var n domain.Negotiation
	require.NoError(t, e.db.First(&n, "negotiation_id = ?", id).Error)
	assert.Equal(t, domain.NegotiationAccepted, n.Status)
	assert.Equal(t, int64(1), e.transactionCount(t, id))
}
