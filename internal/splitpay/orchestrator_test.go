package splitpay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	mu       sync.Mutex
	amounts  []int64
	receipts []string
	err      error
}

func (f *fakeOrders) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.amounts = append(f.amounts, amountMinor)
	f.receipts = append(f.receipts, receipt)
	return &Order{ID: fmt.Sprintf("order_%d", len(f.amounts)), Amount: amountMinor, Currency: currency, Receipt: receipt}, nil
}

func (f *fakeOrders) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.amounts)
}

type scriptedCheckout struct {
	mu       sync.Mutex
	outcomes []CheckoutOutcome
	reason   string
	opened   int
	gate     chan struct{}
	entered  chan struct{}
}

func (s *scriptedCheckout) Open(_ context.Context, req CheckoutRequest) (CheckoutResult, error) {
	s.mu.Lock()
	i := s.opened
	s.opened++
	s.mu.Unlock()

	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}

	outcome := CheckoutSuccess
	if i < len(s.outcomes) {
		outcome = s.outcomes[i]
	}
	return CheckoutResult{
		Outcome:   outcome,
		OrderID:   req.Order.ID,
		PaymentID: fmt.Sprintf("pay_%d", i+1),
		Signature: "sig",
		Reason:    s.reason,
	}, nil
}

// fakeVerifier plays the backend ledger.
type fakeVerifier struct {
	mu     sync.Mutex
	stored []VerifyRequest
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, req VerifyRequest) (*VerifyResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.stored = append(f.stored, req)
	return &VerifyResponse{PaymentID: req.PaymentID, OrderID: req.OrderID, InvestmentID: fmt.Sprintf("inv-%d", len(f.stored))}, nil
}

func (f *fakeVerifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(e Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Kind)
	}
	return out
}

func (l *eventLog) last() Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

var fixedNow = time.UnixMilli(1767225600000)

func profile() Profile {
	return Profile{Name: "Asha Rao", Email: "asha@example.com", LinkedIn: "linkedin.com/in/asha-rao"}
}

func newTestOrchestrator(orders *fakeOrders, checkout *scriptedCheckout, verifier *fakeVerifier, log *eventLog) *Orchestrator {
	return New(orders, checkout, verifier, log.record, WithClock(func() time.Time { return fixedNow }))
}

func TestPartialSequenceIsDurable(t *testing.T) {
	orders := &fakeOrders{}
	checkout := &scriptedCheckout{outcomes: []CheckoutOutcome{CheckoutSuccess, CheckoutDismiss}}
	verifier := &fakeVerifier{}
	log := &eventLog{}
	o := newTestOrchestrator(orders, checkout, verifier, log)
	ctx := context.Background()

	require.NoError(t, o.Start(ctx, 120000, profile()))
	st := o.State()
	assert.Equal(t, PhaseAwaitingConfirmation, st.Phase)
	assert.Equal(t, []int64{50000, 50000, 20000}, st.Chunks)

	require.NoError(t, o.Confirm(ctx))
	st = o.State()
	assert.Equal(t, PhaseAwaitingConfirmation, st.Phase)
	assert.Equal(t, 1, st.Index)

	require.NoError(t, o.Confirm(ctx))
	st = o.State()
	assert.Equal(t, PhaseAwaitingConfirmation, st.Phase)
	assert.Equal(t, 1, st.Index, "dismissed chunk stays current")
	assert.Equal(t, MsgPaymentCancelled, st.Notice)

	require.NoError(t, o.Cancel())
	st = o.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Equal(t, MsgSplitCancelled, st.Notice)
	require.Len(t, st.Receipts, 1)
	assert.Equal(t, int64(50000), st.Receipts[0].Amount)

	assert.Equal(t, 1, verifier.count(), "chunk 1 stays recorded")
	assert.Equal(t, 2, orders.calls(), "chunk 3 is never attempted")
	assert.Equal(t, EventNotice, log.last().Kind)
}

func TestAllChunksVerifiedSumToTotal(t *testing.T) {
	orders := &fakeOrders{}
	verifier := &fakeVerifier{}
	log := &eventLog{}
	o := newTestOrchestrator(orders, &scriptedCheckout{}, verifier, log)
	ctx := context.Background()

	require.NoError(t, o.Start(ctx, 120000, profile()))
	for i := 0; i < 3; i++ {
		require.NoError(t, o.Confirm(ctx))
	}

	st := o.State()
	assert.Equal(t, PhaseDone, st.Phase)
	var sum int64
	for _, r := range st.Receipts {
		sum += r.Amount
	}
	assert.Equal(t, int64(120000), sum)

	assert.Equal(t, []int64{5000000, 5000000, 2000000}, orders.amounts)
	for _, r := range orders.receipts {
		assert.Equal(t, "inv_1767225600000", r)
	}
	last := log.last()
	assert.Equal(t, EventCompleted, last.Kind)
	assert.Equal(t, int64(120000), last.Amount)

	require.Len(t, verifier.stored, 3)
	assert.Equal(t, int64(20000), verifier.stored[2].Amount)
	assert.Equal(t, "order_3", verifier.stored[2].OrderID)
}

func TestSingleChunkRunsImmediately(t *testing.T) {
	orders := &fakeOrders{}
	verifier := &fakeVerifier{}
	log := &eventLog{}
	o := newTestOrchestrator(orders, &scriptedCheckout{}, verifier, log)

	require.NoError(t, o.Start(context.Background(), 5000, profile()))
	assert.Equal(t, PhaseDone, o.State().Phase)
	assert.Equal(t, 1, verifier.count())
	assert.Equal(t, []EventKind{EventChunkVerified, EventCompleted}, log.kinds())
}

func TestSingleChunkFailureAbortsToIdle(t *testing.T) {
	orders := &fakeOrders{}
	checkout := &scriptedCheckout{outcomes: []CheckoutOutcome{CheckoutFailure}, reason: "Card declined"}
	verifier := &fakeVerifier{}
	log := &eventLog{}
	o := newTestOrchestrator(orders, checkout, verifier, log)

	err := o.Start(context.Background(), 5000, profile())
	require.Error(t, err)

	st := o.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Equal(t, "Card declined", st.LastError)
	assert.Empty(t, st.Chunks)
	assert.Zero(t, verifier.count())
	assert.Equal(t, EventError, log.last().Kind)
}

func TestSingleChunkDismissReturnsToIdle(t *testing.T) {
	checkout := &scriptedCheckout{outcomes: []CheckoutOutcome{CheckoutDismiss}}
	o := newTestOrchestrator(&fakeOrders{}, checkout, &fakeVerifier{}, &eventLog{})

	require.NoError(t, o.Start(context.Background(), 5000, profile()))
	st := o.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Equal(t, MsgPaymentCancelled, st.Notice)
}

func TestVerificationFailureKeepsChunk(t *testing.T) {
	verifier := &fakeVerifier{err: &APIError{Status: 400, Code: "INVALID_SIGNATURE", Message: "Invalid payment signature"}}
	o := newTestOrchestrator(&fakeOrders{}, &scriptedCheckout{}, verifier, &eventLog{})
	ctx := context.Background()

	require.NoError(t, o.Start(ctx, 60000, profile()))
	err := o.Confirm(ctx)
	require.Error(t, err)

	st := o.State()
	assert.Equal(t, PhaseAwaitingConfirmation, st.Phase)
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, "Invalid payment signature", st.LastError)

	verifier.mu.Lock()
	verifier.err = nil
	verifier.mu.Unlock()
	require.NoError(t, o.Confirm(ctx))
	assert.Equal(t, 1, o.State().Index)
}

func TestOrderFailureUsesFallbackMessage(t *testing.T) {
	orders := &fakeOrders{err: errors.New("dial tcp: connection refused")}
	o := newTestOrchestrator(orders, &scriptedCheckout{}, &fakeVerifier{}, &eventLog{})

	err := o.Start(context.Background(), 1000, profile())
	require.Error(t, err)
	assert.Equal(t, "An error occurred. Please try again.", o.State().LastError)
	assert.Equal(t, PhaseIdle, o.State().Phase)
}

func TestOverlappingCallsAreRejected(t *testing.T) {
	checkout := &scriptedCheckout{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	o := newTestOrchestrator(&fakeOrders{}, checkout, &fakeVerifier{}, &eventLog{})
	ctx := context.Background()

	require.NoError(t, o.Start(ctx, 100000, profile()))

	done := make(chan error, 1)
	go func() { done <- o.Confirm(ctx) }()
	<-checkout.entered

	assert.ErrorIs(t, o.Confirm(ctx), ErrBusy)
	assert.ErrorIs(t, o.Start(ctx, 1000, profile()), ErrBusy)
	assert.ErrorIs(t, o.Cancel(), ErrNotAwaiting)
	assert.Equal(t, PhaseInFlight, o.State().Phase)

	close(checkout.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, o.State().Index)
}

func TestStartKeepsSequenceAwaitingConfirmation(t *testing.T) {
	orders := &fakeOrders{}
	verifier := &fakeVerifier{}
	log := &eventLog{}
	o := newTestOrchestrator(orders, &scriptedCheckout{}, verifier, log)
	ctx := context.Background()

	require.NoError(t, o.Start(ctx, 120000, profile()))
	require.NoError(t, o.Confirm(ctx))
	before := len(log.kinds())

	assert.ErrorIs(t, o.Start(ctx, 100000, profile()), ErrSequenceActive)

	st := o.State()
	assert.Equal(t, PhaseAwaitingConfirmation, st.Phase)
	assert.Equal(t, []int64{50000, 50000, 20000}, st.Chunks)
	assert.Equal(t, 1, st.Index)
	assert.Equal(t, int64(120000), st.Total)
	require.Len(t, st.Receipts, 1)
	assert.Equal(t, 1, orders.calls())
	assert.Len(t, log.kinds(), before)

	require.NoError(t, o.Cancel())
	assert.Equal(t, MsgSplitCancelled, o.State().Notice)
	require.NoError(t, o.Start(ctx, 100000, profile()))
	st = o.State()
	assert.Equal(t, []int64{50000, 50000}, st.Chunks)
	assert.Equal(t, 0, st.Index)
}

func TestStartValidation(t *testing.T) {
	o := newTestOrchestrator(&fakeOrders{}, &scriptedCheckout{}, &fakeVerifier{}, &eventLog{})
	ctx := context.Background()

	err := o.Start(ctx, 299, profile())
	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "Minimum investment amount is ₹300", userErr.Message)

	bad := profile()
	bad.LinkedIn = "facebook.com/asha"
	require.ErrorAs(t, o.Start(ctx, 1000, bad), &userErr)

	assert.NoError(t, o.Start(ctx, 300, profile()))
}

func TestConfirmWithoutQueue(t *testing.T) {
	o := newTestOrchestrator(&fakeOrders{}, &scriptedCheckout{}, &fakeVerifier{}, &eventLog{})
	assert.ErrorIs(t, o.Confirm(context.Background()), ErrNotAwaiting)
	assert.ErrorIs(t, o.Cancel(), ErrNotAwaiting)
}

func TestStartWithoutCheckoutIsNotConfigured(t *testing.T) {
	o := New(&fakeOrders{}, nil, &fakeVerifier{}, nil)
	assert.ErrorIs(t, o.Start(context.Background(), 1000, profile()), ErrNotConfigured)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "awaiting_confirmation", PhaseAwaitingConfirmation.String())
	assert.Equal(t, "phase(42)", Phase(42).String())
}
