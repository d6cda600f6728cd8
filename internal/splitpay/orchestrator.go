package splitpay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aasta/aasta-backend/internal/payments"
)

const (
	DefaultMaxPerTransaction = 50000
	DefaultMinimum           = 300
	DefaultCurrency          = "INR"

	MsgSplitCancelled   = "Split payment was cancelled. You can adjust the amount or try again."
	MsgPaymentCancelled = "Payment was cancelled. You can resume to complete the remaining amount."
	MsgPaymentFailed    = "Payment failed. Please try again."
	MsgVerifyFailed     = "Failed to verify payment. Please contact support."
	MsgNotConfigured    = "Payment gateway is not configured."
)

var (
	ErrBusy           = errors.New("a payment step is already in progress")
	ErrNotAwaiting    = errors.New("no chunk is awaiting confirmation")
	ErrSequenceActive = errors.New("a split payment is awaiting confirmation; cancel it first")
	ErrNotConfigured  = &UserError{Message: MsgNotConfigured}
)

// UserError carries a message meant for the investor.
type UserError struct {
	Message string
}

func (e *UserError) Error() string { return e.Message }

// UserMessage exposes the investor-facing text.
func (e *UserError) UserMessage() string { return e.Message }

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingConfirmation
	PhaseInFlight
	PhaseVerifying
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingConfirmation:
		return "awaiting_confirmation"
	case PhaseInFlight:
		return "in_flight"
	case PhaseVerifying:
		return "verifying"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Profile is the investor data sent with every chunk.
type Profile struct {
	Name     string
	Email    string
	Phone    string
	LinkedIn string
}

// Order is a gateway order created for one chunk.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// OrderCreator asks the backend for a gateway order in minor units.
type OrderCreator interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error)
}

type CheckoutOutcome int

const (
	CheckoutSuccess CheckoutOutcome = iota
	CheckoutFailure
	CheckoutDismiss
)

// CheckoutRequest is what the payment widget needs to collect one chunk.
type CheckoutRequest struct {
	Order   Order
	Amount  int64
	Profile Profile
}

// CheckoutResult is the single outcome of one checkout session.
type CheckoutResult struct {
	Outcome   CheckoutOutcome
	OrderID   string
	PaymentID string
	Signature string
	// Reason carries the gateway failure description when Outcome is CheckoutFailure.
	Reason string
}

// Checkout opens the payment widget and blocks until it reports an outcome.
type Checkout interface {
	Open(ctx context.Context, req CheckoutRequest) (CheckoutResult, error)
}

// VerifyRequest is posted to the backend after a successful checkout.
type VerifyRequest struct {
	OrderID   string
	PaymentID string
	Signature string
	Profile   Profile
	Amount    int64
}

// VerifyResponse identifies the durable record for a chunk.
type VerifyResponse struct {
	PaymentID    string
	OrderID      string
	InvestmentID string
}

type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error)
}

type EventKind int

const (
	EventPhaseChanged EventKind = iota
	EventChunkVerified
	EventError
	EventNotice
	EventCompleted
)

// Event is delivered synchronously to the EventFunc passed to New.
type Event struct {
	Kind    EventKind
	Phase   Phase
	Chunk   int
	Chunks  int
	Amount  int64
	Message string
	Receipt *Receipt
}

type EventFunc func(Event)

// Receipt records a chunk the backend has durably stored.
type Receipt struct {
	Chunk        int
	Amount       int64
	OrderID      string
	PaymentID    string
	InvestmentID string
}

// State is a point-in-time copy of the orchestrator.
type State struct {
	Phase     Phase
	Chunks    []int64
	Index     int
	Receipts  []Receipt
	Total     int64
	LastError string
	Notice    string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithMaxPerTransaction(limit int64) Option {
	return func(o *Orchestrator) {
		if limit > 0 {
			o.limit = limit
		}
	}
}

func WithMinimum(minimum int64) Option {
	return func(o *Orchestrator) {
		if minimum > 0 {
			o.minimum = minimum
		}
	}
}

func WithCurrency(currency string) Option {
	return func(o *Orchestrator) {
		if c := strings.TrimSpace(currency); c != "" {
			o.currency = strings.ToUpper(c)
		}
	}
}

// WithClock injects the time source used for receipt ids.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// Orchestrator runs one split-payment sequence at a time. Verified chunks
// stay recorded whatever happens to later chunks.
type Orchestrator struct {
	orders   OrderCreator
	checkout Checkout
	verifier Verifier
	emit     EventFunc

	limit    int64
	minimum  int64
	currency string
	now      func() time.Time

	mu       sync.Mutex
	phase    Phase
	queue    []int64
	index    int
	total    int64
	profile  Profile
	receipts []Receipt
	lastErr  string
	notice   string
}

func New(orders OrderCreator, checkout Checkout, verifier Verifier, events EventFunc, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		orders:   orders,
		checkout: checkout,
		verifier: verifier,
		emit:     events,
		limit:    DefaultMaxPerTransaction,
		minimum:  DefaultMinimum,
		currency: DefaultCurrency,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.emit == nil {
		o.emit = func(Event) {}
	}
	return o
}

// Start validates the request and builds the chunk queue. A single chunk is
// paid immediately; longer queues wait for Confirm before each chunk. A queue
// awaiting confirmation must be cancelled before another sequence starts.
func (o *Orchestrator) Start(ctx context.Context, total int64, profile Profile) error {
	o.mu.Lock()
	switch o.phase {
	case PhaseInFlight, PhaseVerifying:
		o.mu.Unlock()
		return ErrBusy
	case PhaseAwaitingConfirmation:
		o.mu.Unlock()
		return ErrSequenceActive
	}
	if o.orders == nil || o.checkout == nil || o.verifier == nil {
		o.mu.Unlock()
		o.fail(ErrNotConfigured.Error())
		return ErrNotConfigured
	}
	if err := o.validate(total, profile); err != nil {
		o.mu.Unlock()
		o.fail(err.Error())
		return err
	}
	queue, err := Split(total, o.limit)
	if err != nil {
		o.mu.Unlock()
		return err
	}

	o.queue = queue
	o.index = 0
	o.total = total
	o.profile = profile
	o.receipts = nil
	o.lastErr = ""
	o.notice = ""

	if len(queue) > 1 {
		o.setPhaseLocked(PhaseAwaitingConfirmation)
		o.mu.Unlock()
		o.emit(Event{Kind: EventPhaseChanged, Phase: PhaseAwaitingConfirmation, Chunk: 0, Chunks: len(queue), Amount: queue[0]})
		return nil
	}
	o.setPhaseLocked(PhaseInFlight)
	o.mu.Unlock()

	return o.runChunk(ctx)
}

// Confirm pays the chunk that is awaiting confirmation.
func (o *Orchestrator) Confirm(ctx context.Context) error {
	o.mu.Lock()
	switch o.phase {
	case PhaseInFlight, PhaseVerifying:
		o.mu.Unlock()
		return ErrBusy
	case PhaseAwaitingConfirmation:
	default:
		o.mu.Unlock()
		return ErrNotAwaiting
	}
	o.lastErr = ""
	o.notice = ""
	o.setPhaseLocked(PhaseInFlight)
	o.mu.Unlock()

	return o.runChunk(ctx)
}

// Cancel abandons the remaining chunks at a confirmation boundary. Chunks
// already verified are unaffected.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	if o.phase != PhaseAwaitingConfirmation {
		o.mu.Unlock()
		return ErrNotAwaiting
	}
	o.queue = nil
	o.index = 0
	o.notice = MsgSplitCancelled
	o.setPhaseLocked(PhaseIdle)
	o.mu.Unlock()

	o.emit(Event{Kind: EventNotice, Phase: PhaseIdle, Message: MsgSplitCancelled})
	return nil
}

// State returns a copy of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return State{
		Phase:     o.phase,
		Chunks:    append([]int64(nil), o.queue...),
		Index:     o.index,
		Receipts:  append([]Receipt(nil), o.receipts...),
		Total:     o.total,
		LastError: o.lastErr,
		Notice:    o.notice,
	}
}

func (o *Orchestrator) validate(total int64, profile Profile) error {
	if total < o.minimum {
		return &UserError{Message: fmt.Sprintf("Minimum investment amount is ₹%d", o.minimum)}
	}
	if strings.TrimSpace(profile.Name) == "" || strings.TrimSpace(profile.Email) == "" {
		return &UserError{Message: "Please provide your name and email"}
	}
	if linkedIn := strings.TrimSpace(profile.LinkedIn); linkedIn != "" && !payments.IsLinkedInURL(linkedIn) {
		return &UserError{Message: "Please enter a valid LinkedIn URL (e.g., linkedin.com/in/yourname)"}
	}
	return nil
}

// runChunk is entered with phase InFlight and the lock released.
func (o *Orchestrator) runChunk(ctx context.Context) error {
	o.mu.Lock()
	index, chunks := o.index, len(o.queue)
	amount := o.queue[index]
	profile := o.profile
	o.mu.Unlock()

	receipt := fmt.Sprintf("inv_%d", o.now().UnixMilli())
	order, err := o.orders.CreateOrder(ctx, amount*100, o.currency, receipt)
	if err != nil {
		return o.chunkFailed(messageOr(err, "An error occurred. Please try again."), err)
	}

	result, err := o.checkout.Open(ctx, CheckoutRequest{Order: *order, Amount: amount, Profile: profile})
	if err != nil {
		return o.chunkFailed(messageOr(err, "An error occurred during payment. Please try again."), err)
	}

	switch result.Outcome {
	case CheckoutDismiss:
		o.chunkDismissed()
		return nil
	case CheckoutFailure:
		reason := strings.TrimSpace(result.Reason)
		if reason == "" {
			reason = MsgPaymentFailed
		}
		return o.chunkFailed(reason, nil)
	}

	o.mu.Lock()
	o.setPhaseLocked(PhaseVerifying)
	o.mu.Unlock()

	orderID := result.OrderID
	if orderID == "" {
		orderID = order.ID
	}
	resp, err := o.verifier.Verify(ctx, VerifyRequest{
		OrderID:   orderID,
		PaymentID: result.PaymentID,
		Signature: result.Signature,
		Profile:   profile,
		Amount:    amount,
	})
	if err != nil {
		return o.chunkFailed(messageOr(err, MsgVerifyFailed), err)
	}

	rec := Receipt{
		Chunk:        index,
		Amount:       amount,
		OrderID:      resp.OrderID,
		PaymentID:    resp.PaymentID,
		InvestmentID: resp.InvestmentID,
	}

	o.mu.Lock()
	o.receipts = append(o.receipts, rec)
	next := index + 1
	done := next >= chunks
	var nextAmount int64
	if done {
		o.queue = nil
		o.index = 0
		o.setPhaseLocked(PhaseDone)
	} else {
		o.index = next
		nextAmount = o.queue[next]
		o.setPhaseLocked(PhaseAwaitingConfirmation)
	}
	o.mu.Unlock()

	o.emit(Event{Kind: EventChunkVerified, Chunk: index, Chunks: chunks, Amount: amount, Receipt: &rec})
	if done {
		o.emit(Event{Kind: EventCompleted, Phase: PhaseDone, Chunks: chunks, Amount: o.sumReceipts()})
	} else {
		o.emit(Event{Kind: EventPhaseChanged, Phase: PhaseAwaitingConfirmation, Chunk: next, Chunks: chunks, Amount: nextAmount})
	}
	return nil
}

// chunkFailed keeps the chunk for a retry in a multi-chunk queue, or returns
// to Idle for a single chunk.
func (o *Orchestrator) chunkFailed(message string, cause error) error {
	o.mu.Lock()
	o.lastErr = message
	phase := o.settleLocked()
	o.mu.Unlock()

	o.emit(Event{Kind: EventError, Phase: phase, Message: message})
	if cause != nil {
		return fmt.Errorf("%s: %w", message, cause)
	}
	return &UserError{Message: message}
}

func (o *Orchestrator) chunkDismissed() {
	o.mu.Lock()
	o.notice = MsgPaymentCancelled
	phase := o.settleLocked()
	o.mu.Unlock()

	o.emit(Event{Kind: EventNotice, Phase: phase, Message: MsgPaymentCancelled})
}

func (o *Orchestrator) settleLocked() Phase {
	if len(o.queue) > 1 {
		o.setPhaseLocked(PhaseAwaitingConfirmation)
		return PhaseAwaitingConfirmation
	}
	o.queue = nil
	o.index = 0
	o.setPhaseLocked(PhaseIdle)
	return PhaseIdle
}

func (o *Orchestrator) setPhaseLocked(p Phase) {
	o.phase = p
}

// fail reports a pre-flight error without changing the phase.
func (o *Orchestrator) fail(message string) {
	o.mu.Lock()
	o.lastErr = message
	phase := o.phase
	o.mu.Unlock()
	o.emit(Event{Kind: EventError, Phase: phase, Message: message})
}

func (o *Orchestrator) sumReceipts() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	var sum int64
	for _, r := range o.receipts {
		sum += r.Amount
	}
	return sum
}

func messageOr(err error, fallback string) string {
	var msgErr interface{ UserMessage() string }
	if errors.As(err, &msgErr) {
		if m := strings.TrimSpace(msgErr.UserMessage()); m != "" {
			return m
		}
	}
	return fallback
}
