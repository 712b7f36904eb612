package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/requestdesk/intake-backend/internal/logging"
	"github.com/requestdesk/intake-backend/internal/metrics"
	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

const syncKey = "projects"

// ListFetcher is the slice of the ClickUp client the synchronizer needs.
type ListFetcher interface {
	FetchLists(ctx context.Context) ([]domain.ListRecord, error)
	FetchTasks(ctx context.Context, listID string, f domain.TaskFilter) ([]domain.TaskRecord, error)
}

// ProjectStore is the durable side of the synchronizer.
type ProjectStore interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, p domain.UpsertProject) error
	GetAll(ctx context.Context) ([]domain.Project, error)
	MarkClassified(ctx context.Context, id, category string, taskCount int, confidence float64, samples []domain.TaskSample) error
	NeedsClassification(ctx context.Context, id string) bool
}

// ProjectClassifier assigns a category to a project. It must not fail.
type ProjectClassifier interface {
	ClassifyProject(ctx context.Context, name string, samples []domain.TaskSample) domain.Classification
}

type State int

const (
	StateEmpty State = iota
	StateSyncing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateSyncing:
		return "SYNCING"
	case StateReady:
		return "READY"
	default:
		return "EMPTY"
	}
}

// Options are the synchronizer's policy knobs.
type Options struct {
	CacheTTL      time.Duration
	BatchSize     int
	BatchCooldown time.Duration
	SampleTasks   int
	// PassTimeout bounds a whole background classification pass.
	PassTimeout time.Duration
	Now         func() time.Time
}

func DefaultOptions() Options {
	return Options{
		CacheTTL:      5 * time.Minute,
		BatchSize:     3,
		BatchCooldown: 2 * time.Second,
		SampleTasks:   10,
		PassTimeout:   10 * time.Minute,
		Now:           time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CacheTTL <= 0 {
		o.CacheTTL = d.CacheTTL
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.BatchCooldown < 0 {
		o.BatchCooldown = 0
	}
	if o.SampleTasks <= 0 {
		o.SampleTasks = d.SampleTasks
	}
	if o.PassTimeout <= 0 {
		o.PassTimeout = d.PassTimeout
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}

// Synchronizer reconciles the project store with ClickUp and serves the
// merged list from a short-lived in-memory cache.
type Synchronizer struct {
	lists      ListFetcher
	store      ProjectStore
	classifier ProjectClassifier
	opts       Options

	group singleflight.Group

	mu        sync.Mutex
	state     State
	cache     []domain.Project
	fetchedAt time.Time
	// gen is bumped by ClearCache; a sync started under an older gen must
	// not publish its result.
	gen         uint64
	passRunning bool
	passes      sync.WaitGroup
}

func NewSynchronizer(lists ListFetcher, store ProjectStore, classifier ProjectClassifier, opts Options) *Synchronizer {
	return &Synchronizer{
		lists:      lists,
		store:      store,
		classifier: classifier,
		opts:       opts.withDefaults(),
	}
}

// State returns the cache state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ClearCache drops the cached snapshot so the next GetProjects resyncs. A
// sync already in flight still answers its own callers but is not cached,
// and later callers do not join it.
func (s *Synchronizer) ClearCache() {
	s.mu.Lock()
	s.gen++
	s.cache = nil
	s.fetchedAt = time.Time{}
	s.state = StateEmpty
	s.mu.Unlock()
	s.group.Forget(syncKey)
	slog.Info("project cache cleared")
}

// Wait blocks until the running background pass, if any, has finished.
func (s *Synchronizer) Wait() {
	s.passes.Wait()
}

// FetchRawLists returns the ClickUp lists without touching store or cache.
func (s *Synchronizer) FetchRawLists(ctx context.Context) ([]domain.ListRecord, error) {
	return s.lists.FetchLists(ctx)
}

// GetProjects returns the merged project list. A fresh cache is served as is;
// otherwise one sync runs and concurrent callers share its result.
func (s *Synchronizer) GetProjects(ctx context.Context) ([]domain.Project, error) {
	if err := ctx.Err(); err != nil {
		metrics.RecordSync("aborted")
		return nil, abortErr(err)
	}

	if snap, ok := s.fresh(); ok {
		metrics.RecordSync("cache_hit")
		return snap, nil
	}

	for {
		ch := s.group.DoChan(syncKey, func() (any, error) {
			return s.sync(ctx)
		})

		select {
		case <-ctx.Done():
			return nil, abortErr(ctx.Err())
		case res := <-ch:
			if res.Err != nil {
				// Someone else's sync was cancelled under us; ours is still wanted.
				if errors.Is(res.Err, domain.ErrAborted) && ctx.Err() == nil && res.Shared {
					continue
				}
				return nil, res.Err
			}
			return cloneProjects(res.Val.([]domain.Project)), nil
		}
	}
}

func (s *Synchronizer) fresh() ([]domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady || s.opts.Now().Sub(s.fetchedAt) >= s.opts.CacheTTL {
		return nil, false
	}
	return cloneProjects(s.cache), true
}

func (s *Synchronizer) sync(ctx context.Context) ([]domain.Project, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	s.mu.Lock()
	gen := s.gen
	s.state = StateSyncing
	s.mu.Unlock()

	if err := s.store.EnsureSchema(ctx); err != nil && ctx.Err() == nil {
		log.Warn("could not ensure project schema", slog.Any("error", err))
	}
	before, err := s.store.GetAll(ctx)
	if err != nil && ctx.Err() == nil {
		log.Warn("could not read stored projects before sync", slog.Any("error", err))
		before = nil
	}

	lists, err := s.lists.FetchLists(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAborted) || ctx.Err() != nil {
			s.restoreState(gen)
			log.Debug("project sync aborted by caller")
			metrics.RecordSync("aborted")
			if errors.Is(err, domain.ErrAborted) {
				return nil, err
			}
			return nil, abortErr(ctx.Err())
		}
		return s.fallback(ctx, gen, err, before)
	}

	for _, l := range lists {
		if err := s.store.Upsert(ctx, l.ToUpsert()); err != nil {
			if ctx.Err() != nil {
				s.restoreState(gen)
				metrics.RecordSync("aborted")
				return nil, abortErr(ctx.Err())
			}
			log.Warn("could not store project", slog.String("project_id", l.ID), slog.Any("error", err))
		}
	}

	merged, err := s.store.GetAll(ctx)
	if err != nil {
		log.Warn("could not re-read projects, serving fetched lists over the prior snapshot", slog.Any("error", err))
		merged = overlay(before, lists, s.opts.Now())
	}
	merged = normalize(merged)

	if !s.publish(gen, merged) {
		log.Info("project cache was cleared during sync, result not cached")
	}

	metrics.RecordSync("fetched")
	metrics.ObserveSyncDuration(time.Since(start).Seconds())
	log.Info("projects synchronized",
		slog.Int("lists", len(lists)),
		slog.Int("projects", len(merged)),
		slog.Duration("took", time.Since(start)))

	s.schedulePass(merged)
	return cloneProjects(merged), nil
}

// fallback serves the last cache, then the stored snapshot, before giving up.
func (s *Synchronizer) fallback(ctx context.Context, gen uint64, cause error, stored []domain.Project) ([]domain.Project, error) {
	log := logging.FromContext(ctx)

	s.mu.Lock()
	cached := cloneProjects(s.cache)
	hasCache := s.cache != nil
	s.mu.Unlock()
	s.restoreState(gen)

	if hasCache {
		log.Warn("clickup unavailable, serving cached projects", slog.Any("error", cause))
		metrics.RecordSync("fallback_cache")
		return cached, nil
	}
	if len(stored) > 0 {
		log.Warn("clickup unavailable, serving stored projects", slog.Any("error", cause))
		metrics.RecordSync("fallback_store")
		return normalize(stored), nil
	}

	log.Error("clickup unavailable and nothing to fall back to", slog.Any("error", cause))
	metrics.RecordSync("unreachable")
	return nil, fmt.Errorf("%w: %w", domain.ErrBackendUnreachable, cause)
}

// publish installs merged as the cache unless ClearCache ran since gen.
func (s *Synchronizer) publish(gen uint64, merged []domain.Project) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.cache = merged
	s.fetchedAt = s.opts.Now()
	s.state = StateReady
	return true
}

func (s *Synchronizer) restoreState(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	if s.cache != nil {
		s.state = StateReady
	} else {
		s.state = StateEmpty
	}
}

// schedulePass starts a detached classification pass unless one is running.
func (s *Synchronizer) schedulePass(projects []domain.Project) {
	s.mu.Lock()
	if s.passRunning {
		s.mu.Unlock()
		slog.Debug("classification pass already running, not starting another")
		return
	}
	s.passRunning = true
	s.passes.Add(1)
	s.mu.Unlock()

	go s.runPass(cloneProjects(projects))
}

func (s *Synchronizer) runPass(projects []domain.Project) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("classification pass panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			metrics.RecordPass("panic")
		}
		s.mu.Lock()
		s.passRunning = false
		s.mu.Unlock()
		s.passes.Done()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.PassTimeout)
	defer cancel()

	var pending []domain.Project
	for _, p := range projects {
		if ctx.Err() != nil {
			break
		}
		if s.store.NeedsClassification(ctx, p.ID) {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		metrics.RecordPass("idle")
		return
	}

	slog.Info("classification pass started", slog.Int("projects", len(pending)))
	for i := 0; i < len(pending); i += s.opts.BatchSize {
		if i > 0 {
			timer := time.NewTimer(s.opts.BatchCooldown)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				slog.Warn("classification pass timed out", slog.Int("remaining", len(pending)-i))
				metrics.RecordPass("timeout")
				return
			}
		}

		end := min(i+s.opts.BatchSize, len(pending))
		var g errgroup.Group
		for _, p := range pending[i:end] {
			g.Go(func() error {
				s.classifyOne(ctx, p)
				return nil
			})
		}
		_ = g.Wait()
	}

	metrics.RecordPass("completed")
	slog.Info("classification pass finished", slog.Int("projects", len(pending)))
}

func (s *Synchronizer) classifyOne(ctx context.Context, p domain.Project) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("classifying project panicked",
				slog.String("project_id", p.ID),
				slog.Any("panic", r))
		}
	}()

	tasks, err := s.lists.FetchTasks(ctx, p.ID, domain.RecentTasksFilter(s.opts.SampleTasks))
	if err != nil {
		slog.Warn("could not fetch sample tasks, classifying by name",
			slog.String("project_id", p.ID), slog.Any("error", err))
		tasks = nil
	}
	if len(tasks) > s.opts.SampleTasks {
		tasks = tasks[:s.opts.SampleTasks]
	}
	samples := make([]domain.TaskSample, 0, len(tasks))
	for _, t := range tasks {
		samples = append(samples, t.Sample())
	}

	res := s.classifier.ClassifyProject(ctx, p.Name, samples)
	err = s.store.MarkClassified(ctx, p.ID, res.Category, len(samples), res.Confidence, samples)
	metrics.RecordClassification(res.FallbackUsed, err == nil)
	if err != nil {
		slog.Warn("could not store classification",
			slog.String("project_id", p.ID), slog.Any("error", err))
		return
	}

	s.applyClassification(p.ID, res.Category)
	slog.Debug("project classified",
		slog.String("project_id", p.ID),
		slog.String("category", res.Category),
		slog.Bool("fallback", res.FallbackUsed),
		slog.Int("samples", len(samples)))
}

// applyClassification patches the cached copy so readers see the new type
// before the cache expires.
func (s *Synchronizer) applyClassification(id, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.opts.Now()
	for i := range s.cache {
		if s.cache[i].ID == id {
			s.cache[i].ProjectType = category
			s.cache[i].LastAnalyzed = &now
			return
		}
	}
}

func abortErr(cause error) error {
	return fmt.Errorf("%w: %w", domain.ErrAborted, cause)
}
