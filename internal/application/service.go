// internal/application/service.go
package application

import (
	"context"
	"errors"
	"time"

	apperrors "application-workers/internal/common/errors"
	"application-workers/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "application-workers/internal/application"

// SweepLock serialises expiry sweeps across worker instances.
type SweepLock interface {
	Acquire(ctx context.Context) (release func(context.Context) error, err error)
}

// ErrLockHeld is implemented by lock errors that mean "someone else holds
// it" as opposed to a backend failure.
type ErrLockHeld interface {
	LockHeld() bool
}

// SweepObserver records the outcome of each sweep.
type SweepObserver interface {
	RecordSweep(ctx context.Context, result SweepResult, duration time.Duration, err error)
}

// SweepResult summarises one ExpireApplications call.
type SweepResult struct {
	Scanned              int
	Expired              []Application
	NotificationFailures int
	SweptAt              time.Time
}

// Service orchestrates registration and expiry. It holds no application
// state of its own; everything lives in the repository.
type Service struct {
	repo      Repository
	notifier  NotificationClient
	customers CustomerRepository

	policy   ExpiryPolicy
	clock    func() time.Time
	lock     SweepLock
	observer SweepObserver
	logger   logger.Logger
	tracer   trace.Tracer
}

// ServiceOption customises NewService.
type ServiceOption func(*Service)

func WithPolicy(p ExpiryPolicy) ServiceOption {
	return func(s *Service) { s.policy = p }
}

// WithServiceClock replaces time.Now for age computations.
func WithServiceClock(clock func() time.Time) ServiceOption {
	return func(s *Service) { s.clock = clock }
}

func WithLogger(l logger.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

func WithSweepLock(l SweepLock) ServiceOption {
	return func(s *Service) { s.lock = l }
}

func WithObserver(o SweepObserver) ServiceOption {
	return func(s *Service) { s.observer = o }
}

func WithTracer(t trace.Tracer) ServiceOption {
	return func(s *Service) { s.tracer = t }
}

// NewService wires the three collaborators into a service.
func NewService(repo Repository, notifier NotificationClient, customers CustomerRepository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:      repo,
		notifier:  notifier,
		customers: customers,
		policy:    DefaultExpiryPolicy(),
		clock:     time.Now,
		logger:    logger.NewNoOpLogger(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInitialApplication stores app and records the applicant as a
// customer. Registering the same application twice stores it twice.
func (s *Service) RegisterInitialApplication(ctx context.Context, app Application) error {
	ctx, span := s.tracer.Start(ctx, "application.Register",
		trace.WithAttributes(attribute.String("application.id", app.ID())))
	defer span.End()

	if err := s.repo.Save(ctx, app); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return apperrors.NewDatabaseInsertFailedError(err).
			WithMetadata("applicationId", app.ID())
	}

	if err := s.registerCustomer(ctx, app); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "customer registration failed")
		return err
	}

	s.logger.Info("application registered", map[string]interface{}{
		"applicationId": app.ID(),
		"name":          app.Name(),
		"createdAt":     app.CreatedAt().Format(time.RFC3339),
	})
	return nil
}

// RegisterCustomerFor records the applicant of an already stored app as a
// customer. It finishes a registration whose customer step failed without
// storing app a second time.
func (s *Service) RegisterCustomerFor(ctx context.Context, app Application) error {
	if err := s.registerCustomer(ctx, app); err != nil {
		return err
	}
	s.logger.Info("customer registration resumed", map[string]interface{}{
		"applicationId": app.ID(),
		"name":          app.Name(),
	})
	return nil
}

func (s *Service) registerCustomer(ctx context.Context, app Application) error {
	if err := s.customers.RegisterCustomer(ctx, app.Name()); err != nil {
		return apperrors.NewCustomerRegistrationFailedError(app.Name(), err).
			WithMetadata("applicationId", app.ID())
	}
	return nil
}

// ApplicationsForName returns every stored application of name.
func (s *Service) ApplicationsForName(ctx context.Context, name string) ([]Application, error) {
	apps, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("find_by_name", err)
	}
	return apps, nil
}

// OpenApplicationsFor returns the applications of name that have not been
// expired. Expired applications are removed from the store, so this is the
// stored set for name.
func (s *Service) OpenApplicationsFor(ctx context.Context, name string) ([]Application, error) {
	apps, err := s.repo.FindOpen(ctx)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("find_open", err)
	}
	open := make([]Application, 0, len(apps))
	for _, app := range apps {
		if app.Name() == name {
			open = append(open, app)
		}
	}
	return open, nil
}

// ExpireApplications removes every application the policy selects and
// notifies its applicant. A failed removal aborts the sweep; a failed
// notification is logged and the sweep moves on.
func (s *Service) ExpireApplications(ctx context.Context) (result SweepResult, err error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "application.ExpireApplications")
	defer func() {
		span.SetAttributes(
			attribute.Int("sweep.scanned", result.Scanned),
			attribute.Int("sweep.expired", len(result.Expired)),
			attribute.Int("sweep.notification_failures", result.NotificationFailures),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "sweep failed")
		}
		span.End()
		if s.observer != nil {
			s.observer.RecordSweep(ctx, result, time.Since(started), err)
		}
	}()

	if s.lock != nil {
		release, lockErr := s.lock.Acquire(ctx)
		if lockErr != nil {
			var held ErrLockHeld
			if errors.As(lockErr, &held) && held.LockHeld() {
				return result, apperrors.NewSweepInProgressError()
			}
			return result, apperrors.NewSweepLockFailedError(lockErr)
		}
		defer func() {
			if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
				s.logger.Warn("failed to release sweep lock", map[string]interface{}{
					"error": relErr,
				})
			}
		}()
	}

	now := s.clock()
	result.SweptAt = now.UTC()

	stored, err := s.repo.FindOpen(ctx)
	if err != nil {
		return result, apperrors.NewQueryExecutionFailedError("find_open", err)
	}
	result.Scanned = len(stored)

	for _, app := range s.policy.Select(stored, now) {
		if err := s.repo.Remove(ctx, app); err != nil {
			s.logger.Error("failed to expire application", map[string]interface{}{
				"applicationId": app.ID(),
				"name":          app.Name(),
				"expiredSoFar":  len(result.Expired),
				"error":         err,
			})
			return result, apperrors.NewApplicationExpiryFailedError(app.ID(), err)
		}
		result.Expired = append(result.Expired, app)
		s.logger.Debug("application expired", map[string]interface{}{
			"applicationId": app.ID(),
			"name":          app.Name(),
			"age":           app.Age(now).String(),
		})

		if err := s.notifier.NotifyUser(ctx, app.Name(), ExpiryMessage(app)); err != nil {
			result.NotificationFailures++
			s.logger.Warn("expiry notification failed", map[string]interface{}{
				"applicationId": app.ID(),
				"name":          app.Name(),
				"error":         err,
			})
		}
	}

	s.logger.Info("expiry sweep finished", map[string]interface{}{
		"scanned":              result.Scanned,
		"expired":              len(result.Expired),
		"notificationFailures": result.NotificationFailures,
		"mode":                 string(s.policy.Mode),
		"thresholdMonths":      s.policy.ThresholdMonths,
	})
	return result, nil
}
