package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerr "zeen/internal/errors"
	"zeen/internal/models"
	"zeen/internal/repositories"
	"zeen/internal/repositories/cache"
	"zeen/internal/services/gateway"
	"zeen/internal/services/notification"
)

// fakePaymentStore is an in-memory PaymentRepository. Reads return copies
// so a test only observes what UpdatePayment actually persisted.
type fakePaymentStore struct {
	payments      map[uint]models.Payment
	byOrder       map[string]uint
	bookings      map[uint]models.Booking
	providers     map[uint]models.Provider
	ledgerEntries []models.LedgerEntry
	webhookEvents []models.WebhookEvent
	nextPaymentID uint
	nextLedgerID  uint
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{
		payments:  make(map[uint]models.Payment),
		byOrder:   make(map[string]uint),
		bookings:  make(map[uint]models.Booking),
		providers: make(map[uint]models.Provider),
	}
}

func (s *fakePaymentStore) Create(p *models.Payment) error {
	s.nextPaymentID++
	p.ID = s.nextPaymentID
	s.payments[p.ID] = *p
	s.byOrder[p.OrderID] = p.ID
	return nil
}

func (s *fakePaymentStore) GetByID(id uint) (*models.Payment, error) {
	p, ok := s.payments[id]
	if !ok {
		return nil, repositories.ErrPaymentNotFound
	}
	return &p, nil
}

func (s *fakePaymentStore) GetByOrderID(orderID string) (*models.Payment, error) {
	id, ok := s.byOrder[orderID]
	if !ok {
		return nil, repositories.ErrPaymentNotFound
	}
	return s.GetByID(id)
}

func (s *fakePaymentStore) GetBooking(id uint) (*models.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, repositories.ErrBookingNotFound
	}
	return &b, nil
}

func (s *fakePaymentStore) GetProvider(id uint) (*models.Provider, error) {
	p, ok := s.providers[id]
	if !ok {
		return nil, repositories.ErrProviderNotFound
	}
	return &p, nil
}

func (s *fakePaymentStore) WebhookEventExists(gatewayName, eventID string) (bool, error) {
	for _, e := range s.webhookEvents {
		if e.Gateway == gatewayName && e.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakePaymentStore) ProcessingOlderThan(age time.Duration) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range s.payments {
		if p.Status == models.PaymentProcessing {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakePaymentStore) InTransaction(fn func(repositories.PaymentTx) error) error {
	return fn(s)
}

func (s *fakePaymentStore) UpdatePayment(p *models.Payment) error {
	s.payments[p.ID] = *p
	return nil
}

func (s *fakePaymentStore) UpdateBooking(b *models.Booking) error {
	s.bookings[b.ID] = *b
	return nil
}

func (s *fakePaymentStore) InsertWebhookEvent(e *models.WebhookEvent) error {
	s.webhookEvents = append(s.webhookEvents, *e)
	return nil
}

func (s *fakePaymentStore) LockProvider(providerID uint) (*models.Provider, error) {
	return s.GetProvider(providerID)
}

func (s *fakePaymentStore) LedgerEntries(providerID uint) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range s.ledgerEntries {
		if e.ProviderID == providerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakePaymentStore) InsertLedgerEntry(entry *models.LedgerEntry) error {
	s.nextLedgerID++
	entry.ID = s.nextLedgerID
	entry.CreatedAt = time.Now()
	s.ledgerEntries = append(s.ledgerEntries, *entry)
	return nil
}

func (s *fakePaymentStore) LedgerHold(id uint) (*models.LedgerEntry, error) {
	for _, e := range s.ledgerEntries {
		if e.ID == id && e.Type == models.LedgerHold {
			hold := e
			return &hold, nil
		}
	}
	return nil, nil
}

func (s *fakePaymentStore) ReleaseForHold(holdID uint) (*models.LedgerEntry, error) {
	for _, e := range s.ledgerEntries {
		if e.ReleasedHoldID != nil && *e.ReleasedHoldID == holdID {
			release := e
			return &release, nil
		}
	}
	return nil, nil
}

// stubGateway scripts gateway responses for one test.
type stubGateway struct {
	name       string
	capability gateway.Capability

	initResult     *gateway.PaymentResult
	initErr        error
	completeResult *gateway.PaymentResult
	completeErr    error
	refundResult   *gateway.RefundResult
	refundErr      error
	webhookResult  *gateway.WebhookResult
	verifyOK       bool

	completeCalls int
}

func (g *stubGateway) Name() string                       { return g.name }
func (g *stubGateway) Capability() gateway.Capability     { return g.capability }
func (g *stubGateway) IsAvailable(ctx context.Context) bool { return true }
func (g *stubGateway) SupportedCurrencies() []string      { return []string{"USD"} }

func (g *stubGateway) InitializePayment(ctx context.Context, req gateway.InitializeRequest) (*gateway.PaymentResult, error) {
	return g.initResult, g.initErr
}

func (g *stubGateway) CompletePayment(ctx context.Context, reference string) (*gateway.PaymentResult, error) {
	g.completeCalls++
	return g.completeResult, g.completeErr
}

func (g *stubGateway) Refund(ctx context.Context, transactionID string, amount float64, currency string) (*gateway.RefundResult, error) {
	return g.refundResult, g.refundErr
}

func (g *stubGateway) Disburse(ctx context.Context, req gateway.DisburseRequest) (*gateway.DisburseResult, error) {
	return &gateway.DisburseResult{Success: true}, nil
}

func (g *stubGateway) VerifyWebhookSignature(payload []byte, headers map[string]string) bool {
	return g.verifyOK
}

func (g *stubGateway) HandleWebhook(payload []byte, headers map[string]string) (*gateway.WebhookResult, error) {
	return g.webhookResult, nil
}

// captureNotifier records emitted notifications.
type captureNotifier struct {
	events []notification.Notification
}

func (n *captureNotifier) Notify(ctx context.Context, e notification.Notification) {
	n.events = append(n.events, e)
}

func (n *captureNotifier) has(event notification.Event) bool {
	for _, e := range n.events {
		if e.Event == event {
			return true
		}
	}
	return false
}

// seedBooking stores a booking with the canonical starter-tier snapshot:
// price 1000, fees 30 + 41.20, client pays 1071.20.
func seedBooking(store *fakePaymentStore, status models.BookingStatus) *models.Booking {
	store.providers[7] = models.Provider{
		ID: 7, BusinessName: "Glow Studio", Tier: models.TierStarter,
		PayoutGateway: "paystack", PayoutRecipient: "RCP_123",
	}
	b := models.Booking{
		ID:             1,
		ClientID:       42,
		ProviderID:     7,
		ServiceID:      3,
		Status:         status,
		ServicePrice:   1000,
		ZeenFee:        30,
		GatewayFee:     41.20,
		ConvenienceFee: 71.20,
		FeePayer:       models.FeePayerClient,
	}
	store.bookings[b.ID] = b
	return &b
}

func newTestService(store *fakePaymentStore, gw gateway.Gateway) (Service, *captureNotifier) {
	notifier := &captureNotifier{}
	return NewService(store, gateway.NewRegistry(gw), nil, notifier), notifier
}

func TestInitialize_FreezesAmountsFromBooking(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name:       "paystack",
		capability: gateway.CapabilityEscrow,
		initResult: &gateway.PaymentResult{Success: true, RedirectURL: "https://pay.example/abc"},
	}
	svc, _ := newTestService(store, gw)

	resp, err := svc.Initialize(context.Background(), InitializeRequest{
		BookingID: 1, Gateway: "paystack", CustomerEmail: "client@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/abc", resp.RedirectURL)

	p := resp.Payment
	assert.Equal(t, models.PaymentProcessing, p.Status)
	assert.Equal(t, 1071.20, p.Amount)
	assert.Equal(t, 30.00, p.ZeenFee)
	assert.Equal(t, 41.20, p.GatewayFee)
	assert.Equal(t, 1000.00, p.ProviderAmount)
	assert.NotEmpty(t, p.OrderID)

	stored, err := store.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentProcessing, stored.Status)
}

func TestInitialize_RejectsNonPendingBooking(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingConfirmed)
	gw := &stubGateway{name: "paystack", capability: gateway.CapabilityEscrow}
	svc, _ := newTestService(store, gw)

	_, err := svc.Initialize(context.Background(), InitializeRequest{
		BookingID: 1, Gateway: "paystack", CustomerEmail: "client@example.com",
	})
	assert.ErrorIs(t, err, domainerr.ErrInvalidTransition)
}

func TestInitialize_UnknownGateway(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{name: "paystack", capability: gateway.CapabilityEscrow}
	svc, _ := newTestService(store, gw)

	_, err := svc.Initialize(context.Background(), InitializeRequest{
		BookingID: 1, Gateway: "squarespace", CustomerEmail: "client@example.com",
	})
	assert.ErrorIs(t, err, domainerr.ErrUnknownGateway)
}

func TestInitialize_DeclineMarksPaymentFailed(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name:       "paystack",
		capability: gateway.CapabilityEscrow,
		initResult: &gateway.PaymentResult{Success: false, ErrorMessage: "card declined"},
	}
	svc, notifier := newTestService(store, gw)

	resp, err := svc.Initialize(context.Background(), InitializeRequest{
		BookingID: 1, Gateway: "paystack", CustomerEmail: "client@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, resp.Payment.Status)
	assert.Equal(t, "card declined", resp.Payment.FailureReason)
	assert.True(t, notifier.has(notification.EventPaymentFailed))
}

func initializedPayment(t *testing.T, store *fakePaymentStore, svc Service) *models.Payment {
	t.Helper()
	resp, err := svc.Initialize(context.Background(), InitializeRequest{
		BookingID: 1, Gateway: "paystack", CustomerEmail: "client@example.com",
	})
	require.NoError(t, err)
	return resp.Payment
}

func TestHandleWebhook_SuccessCompletesAndCreditsLedger(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name:       "paystack",
		capability: gateway.CapabilityEscrow,
		initResult: &gateway.PaymentResult{Success: true, RedirectURL: "https://pay.example/abc"},
		verifyOK:   true,
	}
	svc, notifier := newTestService(store, gw)
	p := initializedPayment(t, store, svc)

	gw.webhookResult = &gateway.WebhookResult{
		EventID:       "evt_1",
		EventType:     "charge.success",
		OrderID:       p.OrderID,
		TransactionID: "TXN_99",
		Success:       true,
		ResponseCode:  "00",
		CardBrand:     "visa",
		CardLast4:     "4242",
	}
	require.NoError(t, svc.HandleWebhook(context.Background(), "paystack", []byte(`{}`), nil))

	stored, err := store.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, stored.Status)
	assert.Equal(t, "TXN_99", stored.TransactionID)
	assert.Equal(t, "4242", stored.CardLast4)
	require.NotNil(t, stored.CompletedAt)

	booking, _ := store.GetBooking(1)
	assert.Equal(t, models.BookingConfirmed, booking.Status)

	// Escrow settlement: the provider's share lands on the ledger.
	require.Len(t, store.ledgerEntries, 1)
	assert.Equal(t, models.LedgerCredit, store.ledgerEntries[0].Type)
	assert.Equal(t, 1000.00, store.ledgerEntries[0].Amount)
	assert.Equal(t, uint(7), store.ledgerEntries[0].ProviderID)

	require.Len(t, store.webhookEvents, 1)
	assert.Equal(t, "evt_1", store.webhookEvents[0].EventID)

	assert.True(t, notifier.has(notification.EventPaymentCompleted))
	assert.True(t, notifier.has(notification.EventBookingConfirmed))
}

func TestHandleWebhook_DuplicateEventIsNoOp(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name:       "paystack",
		capability: gateway.CapabilityEscrow,
		initResult: &gateway.PaymentResult{Success: true},
		verifyOK:   true,
	}
	svc, _ := newTestService(store, gw)
	p := initializedPayment(t, store, svc)

	gw.webhookResult = &gateway.WebhookResult{
		EventID: "evt_1", OrderID: p.OrderID, Success: true,
	}
	require.NoError(t, svc.HandleWebhook(context.Background(), "paystack", []byte(`{}`), nil))
	require.NoError(t, svc.HandleWebhook(context.Background(), "paystack", []byte(`{}`), nil))

	// The replay neither double-credits the ledger nor duplicates the
	// audit row.
	assert.Len(t, store.ledgerEntries, 1)
	assert.Len(t, store.webhookEvents, 1)
}

func TestHandleWebhook_BadSignature(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{name: "paystack", capability: gateway.CapabilityEscrow, verifyOK: false}
	svc, _ := newTestService(store, gw)

	err := svc.HandleWebhook(context.Background(), "paystack", []byte(`{}`), nil)
	assert.ErrorIs(t, err, domainerr.ErrWebhookSignature)
}

func TestHandleWebhook_IgnoredEvent(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name: "paystack", capability: gateway.CapabilityEscrow, verifyOK: true,
		webhookResult: &gateway.WebhookResult{ResponseCode: "IGNORED"},
	}
	svc, _ := newTestService(store, gw)

	require.NoError(t, svc.HandleWebhook(context.Background(), "paystack", []byte(`{}`), nil))
	assert.Empty(t, store.webhookEvents)
}

func TestHandleWebhook_FailureEventFailsPayment(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name:       "paystack",
		capability: gateway.CapabilityEscrow,
		initResult: &gateway.PaymentResult{Success: true},
		verifyOK:   true,
	}
	svc, notifier := newTestService(store, gw)
	p := initializedPayment(t, store, svc)

	gw.webhookResult = &gateway.WebhookResult{
		EventID: "evt_2", OrderID: p.OrderID, Success: false, ErrorMessage: "insufficient funds",
	}
	require.NoError(t, svc.HandleWebhook(context.Background(), "paystack", []byte(`{}`), nil))

	stored, _ := store.GetByID(p.ID)
	assert.Equal(t, models.PaymentFailed, stored.Status)
	assert.Equal(t, "insufficient funds", stored.FailureReason)
	assert.Empty(t, store.ledgerEntries)
	assert.True(t, notifier.has(notification.EventPaymentFailed))
}

func TestHandleWebhook_StaleFailureAfterCompletionIsNoOp(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name:       "paystack",
		capability: gateway.CapabilityEscrow,
		initResult: &gateway.PaymentResult{Success: true},
		verifyOK:   true,
	}
	svc, _ := newTestService(store, gw)
	p := completedPayment(t, store, svc, gw)

	// An out-of-order failure notice must be acknowledged, not escalated,
	// or the gateway keeps redelivering it.
	gw.webhookResult = &gateway.WebhookResult{
		EventID: "evt_stale", OrderID: p.OrderID, Success: false, ErrorMessage: "charge failed",
	}
	require.NoError(t, svc.HandleWebhook(context.Background(), "paystack", []byte(`{}`), nil))

	stored, _ := store.GetByID(p.ID)
	assert.Equal(t, models.PaymentCompleted, stored.Status)
	assert.Empty(t, stored.FailureReason)
	// The provider's credit is untouched.
	assert.Len(t, store.ledgerEntries, 1)
}

// flakyStore fails InTransaction a scripted number of times before
// delegating, simulating transient database trouble.
type flakyStore struct {
	*fakePaymentStore
	failures int
}

func (s *flakyStore) InTransaction(fn func(repositories.PaymentTx) error) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset by peer")
	}
	return s.fakePaymentStore.InTransaction(fn)
}

type fakeDedupe struct {
	keys map[string]bool
}

func (f *fakeDedupe) Seen(ctx context.Context, key string) (bool, error) {
	return f.keys[key], nil
}

func (f *fakeDedupe) Mark(ctx context.Context, key string, ttl time.Duration) error {
	f.keys[key] = true
	return nil
}

func TestHandleWebhook_DedupeKeyMarkedAfterCommit(t *testing.T) {
	base := newFakePaymentStore()
	seedBooking(base, models.BookingPending)
	store := &flakyStore{fakePaymentStore: base}
	gw := &stubGateway{
		name:       "paystack",
		capability: gateway.CapabilityEscrow,
		initResult: &gateway.PaymentResult{Success: true},
		verifyOK:   true,
	}
	dedupe := &fakeDedupe{keys: make(map[string]bool)}
	svc := &service{
		repo:     store,
		registry: gateway.NewRegistry(gw),
		cache:    dedupe,
		notifier: &captureNotifier{},
		timeout:  time.Second,
	}
	p := initializedPayment(t, base, svc)

	gw.webhookResult = &gateway.WebhookResult{
		EventID: "evt_flaky", OrderID: p.OrderID, TransactionID: "TXN_5", Success: true,
	}
	key := cache.WebhookKey("paystack", "evt_flaky")

	// First delivery hits a transient database failure; the dedupe key
	// must stay unset so the gateway's retry is not swallowed.
	store.failures = 1
	require.Error(t, svc.HandleWebhook(context.Background(), "paystack", []byte(`{}`), nil))
	assert.False(t, dedupe.keys[key])
	stored, _ := base.GetByID(p.ID)
	assert.Equal(t, models.PaymentProcessing, stored.Status)

	// The retry settles the payment and only then marks the key.
	require.NoError(t, svc.HandleWebhook(context.Background(), "paystack", []byte(`{}`), nil))
	assert.True(t, dedupe.keys[key])
	stored, _ = base.GetByID(p.ID)
	assert.Equal(t, models.PaymentCompleted, stored.Status)
}

func TestCompletePayment_SplitGatewaySkipsLedger(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name:       "paystack",
		capability: gateway.CapabilitySplit,
		initResult: &gateway.PaymentResult{Success: true},
		verifyOK:   true,
	}
	svc, _ := newTestService(store, gw)
	p := initializedPayment(t, store, svc)

	gw.webhookResult = &gateway.WebhookResult{
		EventID: "evt_1", OrderID: p.OrderID, Success: true,
	}
	require.NoError(t, svc.HandleWebhook(context.Background(), "paystack", []byte(`{}`), nil))

	stored, _ := store.GetByID(p.ID)
	assert.Equal(t, models.PaymentCompleted, stored.Status)
	// Split gateways routed the provider's share at charge time.
	assert.Empty(t, store.ledgerEntries)
}

func completedPayment(t *testing.T, store *fakePaymentStore, svc Service, gw *stubGateway) *models.Payment {
	t.Helper()
	p := initializedPayment(t, store, svc)
	gw.webhookResult = &gateway.WebhookResult{
		EventID: "evt_setup", OrderID: p.OrderID, TransactionID: "TXN_1", Success: true,
	}
	require.NoError(t, svc.HandleWebhook(context.Background(), "paystack", []byte(`{}`), nil))
	stored, err := store.GetByID(p.ID)
	require.NoError(t, err)
	return stored
}

func TestRefund_PartialKeepsBookingAndClawsBackShare(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name:         "paystack",
		capability:   gateway.CapabilityEscrow,
		initResult:   &gateway.PaymentResult{Success: true},
		verifyOK:     true,
		refundResult: &gateway.RefundResult{Success: true, RefundID: "RF_1"},
	}
	svc, _ := newTestService(store, gw)
	p := completedPayment(t, store, svc, gw)

	out, err := svc.Refund(context.Background(), RefundRequest{
		PaymentID: p.ID, Amount: 535.60, Reason: "partial cancellation",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPartiallyRefunded, out.Status)
	assert.Equal(t, 535.60, out.RefundedAmount)

	booking, _ := store.GetBooking(1)
	assert.Equal(t, models.BookingConfirmed, booking.Status)

	// Half the charge refunded claws back half the provider's share.
	require.Len(t, store.ledgerEntries, 2)
	debit := store.ledgerEntries[1]
	assert.Equal(t, models.LedgerDebit, debit.Type)
	assert.Equal(t, 500.00, debit.Amount)
}

func TestRefund_FullCancelsBooking(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name:         "paystack",
		capability:   gateway.CapabilityEscrow,
		initResult:   &gateway.PaymentResult{Success: true},
		verifyOK:     true,
		refundResult: &gateway.RefundResult{Success: true},
	}
	svc, notifier := newTestService(store, gw)
	p := completedPayment(t, store, svc, gw)

	out, err := svc.Refund(context.Background(), RefundRequest{PaymentID: p.ID, Amount: p.Amount})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, out.Status)

	booking, _ := store.GetBooking(1)
	assert.Equal(t, models.BookingCancelled, booking.Status)
	assert.Equal(t, cancelledBySystemReason, booking.CancellationReason)
	assert.True(t, notifier.has(notification.EventBookingCancelled))
	assert.True(t, notifier.has(notification.EventPaymentRefunded))
}

func TestRefund_SequentialPartialThenRemainder(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name:         "paystack",
		capability:   gateway.CapabilityEscrow,
		initResult:   &gateway.PaymentResult{Success: true},
		verifyOK:     true,
		refundResult: &gateway.RefundResult{Success: true},
	}
	svc, _ := newTestService(store, gw)
	p := completedPayment(t, store, svc, gw)

	out, err := svc.Refund(context.Background(), RefundRequest{PaymentID: p.ID, Amount: 200})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPartiallyRefunded, out.Status)
	assert.Equal(t, 200.00, out.RefundedAmount)

	// Refunding the remainder upgrades the status to fully refunded.
	out, err = svc.Refund(context.Background(), RefundRequest{PaymentID: p.ID, Amount: p.Amount - 200})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, out.Status)
	assert.Equal(t, p.Amount, out.RefundedAmount)

	booking, _ := store.GetBooking(1)
	assert.Equal(t, models.BookingCancelled, booking.Status)

	// A third attempt finds nothing left to refund.
	_, err = svc.Refund(context.Background(), RefundRequest{PaymentID: p.ID, Amount: 0.01})
	assert.ErrorIs(t, err, domainerr.ErrPaymentNotRefundable)

	// The two clawbacks drain exactly the provider's original credit.
	require.Len(t, store.ledgerEntries, 3)
	assert.Equal(t, 186.71, store.ledgerEntries[1].Amount)
	assert.Equal(t, 813.29, store.ledgerEntries[2].Amount)
	assert.Equal(t, 0.00, store.ledgerEntries[2].BalanceAfter)
}

func TestRefund_ExceedsRemaining(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name:         "paystack",
		capability:   gateway.CapabilityEscrow,
		initResult:   &gateway.PaymentResult{Success: true},
		verifyOK:     true,
		refundResult: &gateway.RefundResult{Success: true},
	}
	svc, _ := newTestService(store, gw)
	p := completedPayment(t, store, svc, gw)

	_, err := svc.Refund(context.Background(), RefundRequest{PaymentID: p.ID, Amount: p.Amount + 0.01})
	assert.ErrorIs(t, err, domainerr.ErrRefundExceedsPayment)
}

func TestRefund_NotRefundable(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name:       "paystack",
		capability: gateway.CapabilityEscrow,
		initResult: &gateway.PaymentResult{Success: true},
	}
	svc, _ := newTestService(store, gw)
	p := initializedPayment(t, store, svc)

	_, err := svc.Refund(context.Background(), RefundRequest{PaymentID: p.ID, Amount: 10})
	assert.ErrorIs(t, err, domainerr.ErrPaymentNotRefundable)
}

func TestConfirmByOrderID_IdempotentOnSettled(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name:       "paystack",
		capability: gateway.CapabilityEscrow,
		initResult: &gateway.PaymentResult{Success: true},
		verifyOK:   true,
	}
	svc, _ := newTestService(store, gw)
	p := completedPayment(t, store, svc, gw)

	out, err := svc.ConfirmByOrderID(context.Background(), p.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, out.Status)
	// The gateway is never queried for an already-settled payment.
	assert.Zero(t, gw.completeCalls)
}

func TestReconcilePending_SettlesStuckPayments(t *testing.T) {
	store := newFakePaymentStore()
	seedBooking(store, models.BookingPending)
	gw := &stubGateway{
		name:       "paystack",
		capability: gateway.CapabilityEscrow,
		initResult: &gateway.PaymentResult{Success: true},
	}
	svc, _ := newTestService(store, gw)
	p := initializedPayment(t, store, svc)

	gw.completeResult = &gateway.PaymentResult{Success: true, TransactionID: "TXN_7"}
	settled, err := svc.ReconcilePending(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	stored, _ := store.GetByID(p.ID)
	assert.Equal(t, models.PaymentCompleted, stored.Status)
	assert.Equal(t, "TXN_7", stored.TransactionID)
	assert.Len(t, store.ledgerEntries, 1)
}
