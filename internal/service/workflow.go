package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"beauty-booking/internal/domain"
	"beauty-booking/internal/logger"
	"beauty-booking/internal/metrics"
	"beauty-booking/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a payment workflow state
type State string

const (
	StateIdle                 State = "idle"
	StateValidating           State = "validating"
	StateSettling             State = "settling"
	StateSucceeded            State = "succeeded"
	StateRejected             State = "rejected"
	StateDeclinedBySettlement State = "declined_by_settlement"
	StateFailed               State = "failed"
)

// AcceptsSubmit reports whether a new submission may start from s
func (s State) AcceptsSubmit() bool {
	switch s {
	case StateIdle, StateRejected, StateDeclinedBySettlement, StateFailed:
		return true
	default:
		return false
	}
}

var (
	ErrSubmissionInProgress = errors.New("a payment is already being processed")
	ErrWorkflowClosed       = errors.New("checkout was abandoned")
	ErrWorkflowFinished     = errors.New("payment already confirmed")
)

// Failure codes reported once validation has passed
const (
	CodeSettlementDeclined  = "payment_declined"
	CodeSettlementError     = "settlement_error"
	CodeCommitFailed        = "commit_failed"
	CodePersistenceDegraded = "persistence_degraded"
)

const (
	messageSettling  = "Processing your payment..."
	messageConfirmed = "Payment confirmed. Your reservation is booked."
	messageCancelled = "Payment cancelled"
)

// WorkflowConfig holds the simulated delays and the navigation target on success
type WorkflowConfig struct {
	SettlementDelay   time.Duration
	ConfirmationDelay time.Duration
	DashboardPath     string
}

// WorkflowDeps are the collaborators a workflow drives. Notifications may be nil.
type WorkflowDeps struct {
	Reservations  repository.ReservationRepository
	Settler       Settler
	IDs           *IDGenerator
	Notifications NotificationService
	Metrics       *metrics.Booking
	Logger        *zap.Logger
	Now           func() time.Time
}

// WorkflowStatus is a snapshot of a workflow for the caller
type WorkflowStatus struct {
	State         State      `json:"state"`
	InProgress    bool       `json:"in_progress"`
	Message       string     `json:"message,omitempty"`
	ErrorCode     string     `json:"error_code,omitempty"`
	ReservationID *uuid.UUID `json:"reservation_id,omitempty"`
	PaymentID     *uuid.UUID `json:"payment_id,omitempty"`
	Redirect      string     `json:"redirect,omitempty"`
}

// Workflow drives one client's payment from submission to commit.
// Continuations run on timers; every field below mu is guarded by it.
type Workflow struct {
	client domain.Client
	cfg    WorkflowConfig
	deps   WorkflowDeps
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	state         State
	inProgress    bool
	closed        bool
	message       string
	errorCode     string
	draft         domain.DraftReservation
	input         PaymentInput
	submittedAt   time.Time
	reservationID uuid.UUID
	paymentID     uuid.UUID
	redirect      string
	pending       *Task
	inFlight      *Task
}

// NewWorkflow creates an idle workflow for client
func NewWorkflow(client domain.Client, cfg WorkflowConfig, deps WorkflowDeps) *Workflow {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.IDs == nil {
		deps.IDs = NewIDGenerator()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Workflow{
		client: client,
		cfg:    cfg,
		deps:   deps,
		logger: logger.ForClient(deps.Logger, client.ID),
		ctx:    ctx,
		cancel: cancel,
		state:  StateIdle,
	}
}

// Submit validates the input against the draft and, when it passes, schedules settlement.
// A validation failure leaves the workflow at rest with the error recorded.
func (w *Workflow) Submit(draft domain.DraftReservation, input PaymentInput) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.closed:
		return ErrWorkflowClosed
	case w.inProgress:
		return ErrSubmissionInProgress
	case !w.state.AcceptsSubmit():
		return ErrWorkflowFinished
	}

	if err := draft.Validate(); err != nil {
		return err
	}

	w.setState(StateValidating)
	w.message, w.errorCode = "", ""

	if err := ValidatePayment(draft.Provider, input); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			w.message, w.errorCode = verr.Message, verr.Code
			w.deps.Metrics.ValidationRejections.WithLabelValues(verr.Code).Inc()
		}
		w.setState(StateRejected)
		w.logger.Info("Payment rejected by validation", zap.String("code", w.errorCode))
		return err
	}

	w.inProgress = true
	w.draft = draft
	w.input = input
	w.submittedAt = w.deps.Now()
	w.message = messageSettling
	w.setState(StateSettling)
	w.pending = Schedule(w.cfg.SettlementDelay, w.settle)

	return nil
}

func (w *Workflow) settle() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	draft, input, submittedAt := w.draft, w.input, w.submittedAt
	w.mu.Unlock()

	result, err := w.deps.Settler.Settle(w.ctx, SettlementRequest{
		ClientID: w.client.ID,
		Amount:   draft.Service.GetPrice(),
		Method:   input.Method,
		Phone:    input.Phone,
	})
	w.deps.Metrics.SettlementDuration.Observe(w.deps.Now().Sub(submittedAt).Seconds())

	if err != nil {
		w.deps.Metrics.Settlements.WithLabelValues(string(input.Method), "error").Inc()
		w.logger.Error("Settlement failed", zap.Error(err))
		w.finish(StateFailed, CodeSettlementError, "Payment could not be processed. Please try again.")
		return
	}

	if !result.Approved {
		w.deps.Metrics.Settlements.WithLabelValues(string(input.Method), "declined").Inc()
		w.logger.Info("Payment declined", zap.String("reason", result.Reason))
		message := "Your payment was declined"
		if result.Reason != "" {
			message += ": " + result.Reason
		}
		w.finish(StateDeclinedBySettlement, CodeSettlementDeclined, message)
		return
	}
	w.deps.Metrics.Settlements.WithLabelValues(string(input.Method), "approved").Inc()

	reservationID, paymentID, err := w.deps.IDs.NewPair()
	if err != nil {
		w.logger.Error("Failed to allocate reservation ids", zap.Error(err))
		w.finish(StateFailed, CodeCommitFailed, "Your reservation could not be saved. Please contact support.")
		return
	}

	now := w.deps.Now().UTC()
	reservation := domain.NewReservation(reservationID, w.client, draft, input.Location, now)
	payment := domain.NewPayment(paymentID, reservation, input.Method, now)

	// Settled: teardown no longer interrupts the commit
	commitCtx := context.WithoutCancel(w.ctx)
	if err := w.deps.Reservations.CommitReservation(commitCtx, &reservation, &payment, w.client.ID, draft.Provider.ID); err != nil {
		w.commitFailed(err)
		return
	}
	w.deps.Metrics.Commits.WithLabelValues("success").Inc()

	w.notify(commitCtx, reservation, payment)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.inProgress = false
	w.reservationID = reservation.ID
	w.paymentID = payment.ID
	w.message, w.errorCode = messageConfirmed, ""
	w.setState(StateSucceeded)
	w.logger.Info("Checkout succeeded",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("reference", result.Reference),
	)

	if !w.closed {
		w.pending = Schedule(w.cfg.ConfirmationDelay, w.navigate)
	}
}

func (w *Workflow) commitFailed(err error) {
	code, result := CodeCommitFailed, "failed"
	var commitErr *repository.CommitError
	if errors.As(err, &commitErr) {
		w.deps.Metrics.CommitStepFailures.WithLabelValues(commitErr.StepName()).Inc()
	}
	if errors.Is(err, repository.ErrPersistenceDegraded) {
		code, result = CodePersistenceDegraded, "degraded"
	}
	w.deps.Metrics.Commits.WithLabelValues(result).Inc()

	w.logger.Error("Reservation commit failed", zap.String("code", code), zap.Error(err))
	w.finish(StateFailed, code, "Your payment was received but the reservation could not be saved. Please contact support.")
}

func (w *Workflow) notify(ctx context.Context, reservation domain.Reservation, payment domain.Payment) {
	if w.deps.Notifications == nil {
		return
	}

	message := fmt.Sprintf("Payment of %.0f via %s confirmed: %s with %s on %s at %s",
		payment.Amount, payment.Method,
		reservation.Service.Name, reservation.Provider.Name,
		reservation.Date, reservation.Time,
	)
	if _, err := w.deps.Notifications.Notify(ctx, w.client.ID, domain.NotificationPaymentConfirmed, message); err != nil {
		w.logger.Warn("Failed to send payment notification", zap.Error(err))
	}
}

func (w *Workflow) navigate() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.redirect = w.cfg.DashboardPath
	w.logger.Info("Checkout complete, returning to dashboard", zap.String("redirect", w.redirect))
}

func (w *Workflow) finish(state State, code, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.inProgress = false
	w.message, w.errorCode = message, code
	w.setState(state)
}

// setState must be called with mu held
func (w *Workflow) setState(next State) {
	w.logger.Debug("Workflow transition",
		zap.String("from", string(w.state)),
		zap.String("state", string(next)),
	)
	w.state = next
}

// Close tears the workflow down and drops any pending continuation.
// It reports whether a scheduled settlement was dropped.
func (w *Workflow) Close() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false
	}
	w.closed = true
	w.cancel()

	if w.pending == nil {
		return false
	}
	if !w.pending.Cancel() {
		if w.pending.Fired() {
			w.inFlight = w.pending
		}
		return false
	}
	if w.state != StateSettling {
		return false
	}

	w.inProgress = false
	w.message = messageCancelled
	w.setState(StateIdle)
	w.logger.Info("Pending settlement cancelled")
	return true
}

// Wait blocks until a continuation that fired before Close has returned
// or ctx is done.
func (w *Workflow) Wait(ctx context.Context) error {
	w.mu.Lock()
	task := w.inFlight
	w.mu.Unlock()

	if task == nil {
		return nil
	}
	select {
	case <-task.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finished reports whether the workflow can no longer take a submission
func (w *Workflow) Finished() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed || w.state == StateSucceeded
}

func (w *Workflow) Status() WorkflowStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	status := WorkflowStatus{
		State:      w.state,
		InProgress: w.inProgress,
		Message:    w.message,
		ErrorCode:  w.errorCode,
		Redirect:   w.redirect,
	}
	if w.reservationID != uuid.Nil {
		reservationID, paymentID := w.reservationID, w.paymentID
		status.ReservationID = &reservationID
		status.PaymentID = &paymentID
	}
	return status
}
