package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/requestdesk/intake-backend/internal/metrics"
	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

const defaultJobTimeout = 5 * time.Minute

// Store is the repository side of maintenance.
type Store interface {
	PruneAnalysisHistory(ctx context.Context) (int64, error)
	ListNeedingClassification(ctx context.Context) ([]string, error)
}

// Warmer refreshes the project list from ClickUp.
type Warmer interface {
	GetProjects(ctx context.Context) ([]domain.Project, error)
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron       *cron.Cron
	store      Store
	warmer     Warmer
	jobTimeout time.Duration
}

func NewScheduler(store Store, warmer Warmer) *Scheduler {
	logger := cronLogger{log: slog.Default().With(slog.String("component", "cron"))}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		store:      store,
		warmer:     warmer,
		jobTimeout: defaultJobTimeout,
	}
}

// Start registers the jobs and starts the cron loop. An empty spec
// disables that job.
func (s *Scheduler) Start(pruneSpec, warmSpec string) error {
	if pruneSpec != "" {
		if _, err := s.cron.AddFunc(pruneSpec, s.job("prune", s.Prune)); err != nil {
			return fmt.Errorf("invalid prune schedule %q: %w", pruneSpec, err)
		}
	}
	if warmSpec != "" {
		if _, err := s.cron.AddFunc(warmSpec, s.job("warm", s.Warm)); err != nil {
			return fmt.Errorf("invalid warm schedule %q: %w", warmSpec, err)
		}
	}

	s.cron.Start()
	slog.Info("cron scheduler started",
		slog.String("prune", pruneSpec),
		slog.String("warm", warmSpec),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop stops scheduling and waits for running jobs up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("cron jobs still running at shutdown")
	}
}

func (s *Scheduler) job(name string, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			slog.Error("maintenance job failed", slog.String("job", name), slog.Any("error", err))
			return
		}
		slog.Info("maintenance job completed", slog.String("job", name), slog.Duration("took", time.Since(start)))
	}
}

// Prune deletes classification history beyond the retention limit.
func (s *Scheduler) Prune(ctx context.Context) error {
	n, err := s.store.PruneAnalysisHistory(ctx)
	if err != nil {
		return err
	}
	metrics.AddPruned(n)
	slog.Info("analysis history pruned", slog.Int64("deleted", n))
	return nil
}

// Warm syncs the project list so stored projects stay current and the
// classification pass runs even without API traffic.
func (s *Scheduler) Warm(ctx context.Context) error {
	projects, err := s.warmer.GetProjects(ctx)
	if err != nil {
		return err
	}
	slog.Info("project cache warmed", slog.Int("projects", len(projects)))

	backlog, err := s.store.ListNeedingClassification(ctx)
	if err != nil {
		slog.Warn("could not count classification backlog", slog.Any("error", err))
		return nil
	}
	metrics.SetBacklog(len(backlog))
	if len(backlog) > 0 {
		slog.Info("projects awaiting classification", slog.Int("count", len(backlog)))
	}
	return nil
}

type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
