package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/fixdesk/internal/authorization"
	"github.com/smallbiznis/fixdesk/internal/clock"
	commissiondomain "github.com/smallbiznis/fixdesk/internal/commission/domain"
	"github.com/smallbiznis/fixdesk/internal/lock"
	obsmetrics "github.com/smallbiznis/fixdesk/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

const keyJobLock = "scheduler:job:%s"

type Params struct {
	fx.In

	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	CommissionSvc commissiondomain.Service
	AuthzSvc      authorization.Service `optional:"true"`
	Locker        *lock.Locker          `optional:"true"`
	Config        Config                `optional:"true"`
}

type Scheduler struct {
	log           *zap.Logger
	cfg           Config
	genID         *snowflake.Node
	clock         clock.Clock
	commissionSvc commissiondomain.Service
	authzSvc      authorization.Service
	locker        *lock.Locker
	cron          *cron.Cron
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.CommissionSvc == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	if _, err := cron.ParseStandard(cfg.OverdueSpec); err != nil {
		return nil, fmt.Errorf("%w: overdue schedule %q: %v", ErrInvalidConfig, cfg.OverdueSpec, err)
	}

	log := p.Log.Named("scheduler").With(zap.String("component", "scheduler"))
	s := &Scheduler{
		log:           log,
		cfg:           cfg,
		genID:         p.GenID,
		clock:         p.Clock,
		commissionSvc: p.CommissionSvc,
		authzSvc:      p.AuthzSvc,
		locker:        p.Locker,
	}

	cl := cronLogger{log: log.Sugar()}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.cron.AddFunc(cfg.OverdueSpec, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins firing jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running job to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, obsmetrics.JobCommissionOverdue, s.cfg.BatchSize, s.cfg.JobTimeout, s.CommissionOverdueJob)
}

func (s *Scheduler) runJob(
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
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)

	if s.locker != nil {
		key := fmt.Sprintf(keyJobLock, name)
		token, acquired, err := s.locker.TryLock(ctx, key, s.cfg.JobLockTimeout)
		if err != nil {
			log.Warn("job lock unavailable, running unguarded", zap.Error(err))
		} else if !acquired {
			log.Debug("job already running on another instance")
			return nil
		} else {
			defer func() { _ = s.locker.Release(context.WithoutCancel(ctx), key, token) }()
		}
	}

	if owner {
		s.logJobStart(ctx, run)
	}
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// CommissionOverdueJob ages pending ledger entries past their due date,
// batch by batch, until a short batch signals the backlog is drained.
func (s *Scheduler) CommissionOverdueJob(ctx context.Context) error {
	if err := s.authorizeSystem(ctx, authorization.ObjectCommission, authorization.ActionCommissionAge); err != nil {
		return err
	}

	run := jobRunFromContext(ctx)
	now := s.clock.Now()
	schedMetrics := obsmetrics.Scheduler()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		aged, err := s.commissionSvc.MarkOverdue(ctx, now, s.cfg.BatchSize)
		if err != nil {
			return err
		}
		run.AddProcessed(aged)
		schedMetrics.AddBatchProcessed(obsmetrics.JobCommissionOverdue, obsmetrics.ResourceCommissionCollections, int(aged))
		if aged < int64(s.cfg.BatchSize) {
			return nil
		}
	}
}

func (s *Scheduler) authorizeSystem(ctx context.Context, object, action string) error {
	if s.authzSvc == nil {
		return nil
	}
	return s.authzSvc.Authorize(ctx, authorization.Actor{Role: authorization.RoleSystem, ID: "scheduler"}, object, action)
}
