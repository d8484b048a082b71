package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"beauty-booking/internal/config"
	"beauty-booking/internal/domain"
	"beauty-booking/internal/metrics"
	"beauty-booking/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrNoSession = errors.New("no client session")
	ErrNoDraft   = errors.New("no draft reservation")
)

// Precondition reasons
const (
	ReasonNoSession = "no_session"
	ReasonNoDraft   = "no_draft"
)

// PreconditionError aborts a checkout that cannot start. The caller shows Message
// and navigates to Redirect once RedirectAfter has elapsed.
type PreconditionError struct {
	Reason        string
	Message       string
	Redirect      string
	RedirectAfter time.Duration
	Err           error
}

func (e *PreconditionError) Error() string {
	return e.Message
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// SubmitRequest carries the payment form. Draft is the draft handed over by
// navigation; when nil the persisted draft is used.
type SubmitRequest struct {
	Draft *DraftInput
	PaymentInput
}

// CheckoutService drives drafts and payment workflows per client
type CheckoutService interface {
	SaveDraft(ctx context.Context, client *domain.Client, input DraftInput) (*domain.DraftReservation, error)
	Submit(ctx context.Context, client *domain.Client, req SubmitRequest) (WorkflowStatus, error)
	Status(client *domain.Client) (WorkflowStatus, error)
	Abandon(ctx context.Context, client *domain.Client) (bool, error)
	Shutdown(ctx context.Context) error
}

// CheckoutDeps groups the collaborators of the checkout service
type CheckoutDeps struct {
	Catalog       CatalogService
	Drafts        repository.DraftRepository
	Reservations  repository.ReservationRepository
	Settler       Settler
	IDs           *IDGenerator
	Notifications NotificationService
	Metrics       *metrics.Booking
	Logger        *zap.Logger
	Now           func() time.Time
}

type checkoutService struct {
	deps   CheckoutDeps
	cfg    config.BookingConfig
	logger *zap.Logger

	mu        sync.Mutex
	workflows map[int64]*Workflow
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(cfg config.BookingConfig, deps CheckoutDeps) CheckoutService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.IDs == nil {
		deps.IDs = NewIDGenerator()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}

	return &checkoutService{
		deps:      deps,
		cfg:       cfg,
		logger:    deps.Logger.Named("checkout"),
		workflows: make(map[int64]*Workflow),
	}
}

// SaveDraft resolves the picked service and provider and stores the draft as the reload fallback
func (s *checkoutService) SaveDraft(ctx context.Context, client *domain.Client, input DraftInput) (*domain.DraftReservation, error) {
	if client == nil {
		return nil, s.noSession()
	}

	draft, err := s.buildDraft(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.deps.Drafts.Save(ctx, client.ID, draft); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	s.logger.Info("Draft saved",
		zap.Int64("client_id", client.ID),
		zap.Int64("service_id", draft.Service.ID),
		zap.Int64("provider_id", draft.Provider.ID),
	)
	return draft, nil
}

// Submit starts a payment for the client's draft. The navigation draft wins over the persisted one.
func (s *checkoutService) Submit(ctx context.Context, client *domain.Client, req SubmitRequest) (WorkflowStatus, error) {
	if client == nil {
		return WorkflowStatus{}, s.noSession()
	}

	input := req.Draft
	if input == nil {
		stored, err := s.deps.Drafts.Load(ctx, client.ID)
		if err != nil {
			return WorkflowStatus{}, err
		}
		if stored == nil {
			s.logger.Info("Checkout without a draft", zap.Int64("client_id", client.ID))
			return WorkflowStatus{}, &PreconditionError{
				Reason:        ReasonNoDraft,
				Message:       "No reservation in progress. Please choose a service first.",
				Redirect:      s.cfg.CatalogPath,
				RedirectAfter: s.cfg.MissingDraftRedirectDelay,
				Err:           ErrNoDraft,
			}
		}
		// Re-resolve against the catalog so a service deactivated since is refused
		input = &DraftInput{
			ServiceID:  stored.Service.ID,
			ProviderID: stored.Provider.ID,
			Date:       stored.Date,
			Time:       stored.Time,
		}
	}

	draft, err := s.buildDraft(ctx, *input)
	if err != nil {
		return WorkflowStatus{}, err
	}

	workflow := s.workflowFor(*client)
	if err := workflow.Submit(*draft, req.PaymentInput); err != nil {
		return workflow.Status(), err
	}
	return workflow.Status(), nil
}

func (s *checkoutService) Status(client *domain.Client) (WorkflowStatus, error) {
	if client == nil {
		return WorkflowStatus{}, s.noSession()
	}

	s.mu.Lock()
	workflow, ok := s.workflows[client.ID]
	s.mu.Unlock()

	if !ok {
		return WorkflowStatus{State: StateIdle}, nil
	}
	return workflow.Status(), nil
}

// Abandon tears down the client's workflow and discards the persisted draft.
// It reports whether a pending settlement was cancelled.
func (s *checkoutService) Abandon(ctx context.Context, client *domain.Client) (bool, error) {
	if client == nil {
		return false, s.noSession()
	}

	s.mu.Lock()
	workflow, ok := s.workflows[client.ID]
	delete(s.workflows, client.ID)
	s.mu.Unlock()

	cancelled := false
	if ok {
		cancelled = workflow.Close()
	}

	if err := s.deps.Drafts.Clear(ctx, client.ID); err != nil {
		return cancelled, err
	}

	s.logger.Info("Checkout abandoned", zap.Int64("client_id", client.ID), zap.Bool("cancelled", cancelled))
	return cancelled, nil
}

// Shutdown tears down every workflow, then waits until ctx expires for
// commits that were already running.
func (s *checkoutService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	workflows := s.workflows
	s.workflows = make(map[int64]*Workflow)
	s.mu.Unlock()

	for id, workflow := range workflows {
		if workflow.Close() {
			s.logger.Info("Pending settlement dropped at shutdown", zap.Int64("client_id", id))
		}
	}

	for id, workflow := range workflows {
		if err := workflow.Wait(ctx); err != nil {
			s.logger.Error("Shutdown interrupted an in-flight commit", zap.Int64("client_id", id), zap.Error(err))
			return fmt.Errorf("failed to drain checkout commits: %w", err)
		}
	}
	return nil
}

// workflowFor returns the client's live workflow, replacing a finished one
func (s *checkoutService) workflowFor(client domain.Client) *Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.workflows[client.ID]; ok {
		if !existing.Finished() {
			return existing
		}
		existing.Close()
	}

	workflow := NewWorkflow(client, WorkflowConfig{
		SettlementDelay:   s.cfg.SettlementDelay,
		ConfirmationDelay: s.cfg.ConfirmationDelay,
		DashboardPath:     s.cfg.DashboardPath,
	}, WorkflowDeps{
		Reservations:  s.deps.Reservations,
		Settler:       s.deps.Settler,
		IDs:           s.deps.IDs,
		Notifications: s.deps.Notifications,
		Metrics:       s.deps.Metrics,
		Logger:        s.deps.Logger,
		Now:           s.deps.Now,
	})
	s.workflows[client.ID] = workflow
	return workflow
}

func (s *checkoutService) buildDraft(ctx context.Context, input DraftInput) (*domain.DraftReservation, error) {
	draft, err := s.deps.Catalog.BuildDraft(ctx, input)
	if err != nil {
		return nil, err
	}

	withDefaults := draft.WithDefaults(s.deps.Now(), s.cfg.DateLayout, s.cfg.DefaultTime)
	return &withDefaults, nil
}

func (s *checkoutService) noSession() error {
	return &PreconditionError{
		Reason:   ReasonNoSession,
		Message:  "Please sign in to book a service",
		Redirect: s.cfg.LoginPath,
		Err:      ErrNoSession,
	}
}
