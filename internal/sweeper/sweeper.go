package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/debacu/evalgate/internal/clock"
	eventdomain "github.com/debacu/evalgate/internal/event/domain"
	obsmetrics "github.com/debacu/evalgate/internal/observability/metrics"
	subscriptiondomain "github.com/debacu/evalgate/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("sweeper: invalid configuration")

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	GenID            *snowflake.Node
	Clock            clock.Clock
	SubscriptionRepo subscriptiondomain.Repository
	EventRepo        eventdomain.Repository
	Config           Config `optional:"true"`
}

// Sweeper moves lapsed subscriptions through the lifecycle on a timer:
// expired trials to PAYMENT_REQUIRED, expired grace windows to
// SUSPENDED. Both passes are idempotent because their row predicates
// exclude anything already transitioned.
type Sweeper struct {
	db               *gorm.DB
	log              *zap.Logger
	cfg              Config
	genID            *snowflake.Node
	clock            clock.Clock
	subscriptionRepo subscriptiondomain.Repository
	eventRepo        eventdomain.Repository
}

func New(p Params) (*Sweeper, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.SubscriptionRepo == nil || p.EventRepo == nil {
		return nil, ErrInvalidConfig
	}
	return &Sweeper{
		db:               p.DB,
		log:              p.Log.Named("sweeper").With(zap.String("component", "sweeper")),
		cfg:              p.Config.withDefaults(),
		genID:            p.GenID,
		clock:            p.Clock,
		subscriptionRepo: p.SubscriptionRepo,
		eventRepo:        p.EventRepo,
	}, nil
}

func (s *Sweeper) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, batchSize)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	sweepMetrics := obsmetrics.Sweeper()
	sweepMetrics.IncJobRun(name)

	err := fn(ctx)
	sweepMetrics.ObserveJobDuration(name, time.Since(start))
	if owner {
		if err != nil && run != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		sweepMetrics.IncJobTimeout(name)
	}
	sweepMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes one sweep: the trial pass fully completes before the
// grace pass starts, so a trial that lapses in this run cannot be
// suspended until a later run, after its fresh grace window has passed.
func (s *Sweeper) RunOnce(parent context.Context) error {
	var err error

	err = errors.Join(err, s.runJob(parent, "trial_expiry", s.cfg.BatchSize, s.cfg.JobTimeout, s.TrialExpiryJob))
	err = errors.Join(err, s.runJob(parent, "grace_expiry", s.cfg.BatchSize, s.cfg.JobTimeout, s.GraceExpiryJob))

	return err
}

func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	sweepMetrics := obsmetrics.Sweeper()

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			sweepMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// TrialExpiryJob moves TRIAL_ACTIVE rows whose trial ended before now
// to PAYMENT_REQUIRED, opening a fresh grace window. The first error
// aborts the pass; the untouched rows still match on the next run.
func (s *Sweeper) TrialExpiryJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "trial_expiry", s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}
	now := s.clock.Now()
	sweepMetrics := obsmetrics.Sweeper()

	subscriptions, err := s.subscriptionRepo.ListTrialExpired(ctx, s.db, now, s.cfg.BatchSize)
	if err != nil {
		s.logSweepError(ctx, run, "sweeper.fetch.failed", "trial_expiry", err)
		return err
	}

	for _, subscription := range subscriptions {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		graceEndsAt := now.Add(subscriptiondomain.GracePeriod)
		var updated int64
		txErr := s.db.Transaction(func(tx *gorm.DB) error {
			var err error
			updated, err = s.subscriptionRepo.MarkPaymentRequired(
				ctx, tx, subscription.ID, now, graceEndsAt,
				subscriptiondomain.DefaultRequiredPlanCode,
				subscriptiondomain.DefaultRequiredBillingFrequency,
			)
			if err != nil || updated == 0 {
				return err
			}
			return s.eventRepo.Append(ctx, tx, &eventdomain.LifecycleEvent{
				ID:             s.genID.Generate(),
				SubscriptionID: subscription.ID,
				CustomerID:     subscription.CustomerID,
				Type:           eventdomain.TypeTrialEndedPaymentRequired,
				Payload: datatypes.JSONMap{
					"from_status":   subscriptiondomain.StatusTrialActive,
					"to_status":     subscriptiondomain.StatusPaymentRequired,
					"trial_ends_at": formatTime(subscription.TrialEndsAt),
					"grace_ends_at": graceEndsAt.Format(time.RFC3339),
				},
				OccurredAt: now,
				CreatedAt:  now,
			})
		})
		if txErr != nil {
			s.logSweepError(ctx, run, "sweeper.transition.failed", "trial_expiry", txErr,
				zap.String("subscription_id", subscription.ID.String()),
			)
			return txErr
		}
		if updated == 0 {
			// Another sweep moved the row first.
			continue
		}

		run.AddProcessed(1)
		sweepMetrics.IncTransition(subscriptiondomain.StatusTrialActive, subscriptiondomain.StatusPaymentRequired)
	}

	sweepMetrics.AddBatchProcessed("trial_expiry", run.processedCount)
	return nil
}

// GraceExpiryJob moves PAYMENT_REQUIRED rows whose grace window ended
// before now to SUSPENDED.
func (s *Sweeper) GraceExpiryJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, "grace_expiry", s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}
	now := s.clock.Now()
	sweepMetrics := obsmetrics.Sweeper()

	subscriptions, err := s.subscriptionRepo.ListGraceExpired(ctx, s.db, now, s.cfg.BatchSize)
	if err != nil {
		s.logSweepError(ctx, run, "sweeper.fetch.failed", "grace_expiry", err)
		return err
	}

	for _, subscription := range subscriptions {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var updated int64
		txErr := s.db.Transaction(func(tx *gorm.DB) error {
			var err error
			updated, err = s.subscriptionRepo.MarkSuspended(ctx, tx, subscription.ID, now)
			if err != nil || updated == 0 {
				return err
			}
			return s.eventRepo.Append(ctx, tx, &eventdomain.LifecycleEvent{
				ID:             s.genID.Generate(),
				SubscriptionID: subscription.ID,
				CustomerID:     subscription.CustomerID,
				Type:           eventdomain.TypeSuspendedForNonPayment,
				Payload: datatypes.JSONMap{
					"from_status":   subscriptiondomain.StatusPaymentRequired,
					"to_status":     subscriptiondomain.StatusSuspended,
					"grace_ends_at": formatTime(subscription.GraceEndsAt),
					"suspended_at":  now.Format(time.RFC3339),
				},
				OccurredAt: now,
				CreatedAt:  now,
			})
		})
		if txErr != nil {
			s.logSweepError(ctx, run, "sweeper.transition.failed", "grace_expiry", txErr,
				zap.String("subscription_id", subscription.ID.String()),
			)
			return txErr
		}
		if updated == 0 {
			continue
		}

		run.AddProcessed(1)
		sweepMetrics.IncTransition(subscriptiondomain.StatusPaymentRequired, subscriptiondomain.StatusSuspended)
	}

	sweepMetrics.AddBatchProcessed("grace_expiry", run.processedCount)
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
