package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeLists struct {
	mu         sync.Mutex
	lists      []domain.ListRecord
	err        error
	calls      int
	release    chan struct{}
	tasks      map[string][]domain.TaskRecord
	tasksErr   error
	taskCalls  int
	lastFilter domain.TaskFilter
}

func (f *fakeLists) FetchLists(ctx context.Context) ([]domain.ListRecord, error) {
	f.mu.Lock()
	f.calls++
	release := f.release
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, errors.Join(domain.ErrAborted, ctx.Err())
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.ListRecord(nil), f.lists...), nil
}

func (f *fakeLists) FetchTasks(ctx context.Context, listID string, filter domain.TaskFilter) ([]domain.TaskRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taskCalls++
	f.lastFilter = filter
	if f.tasksErr != nil {
		return nil, f.tasksErr
	}
	return f.tasks[listID], nil
}

func (f *fakeLists) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeLists) set(lists ...domain.ListRecord) {
	f.mu.Lock()
	f.lists = lists
	f.mu.Unlock()
}

type markCall struct {
	ID         string
	Category   string
	TaskCount  int
	Confidence float64
}

type fakeStore struct {
	mu          sync.Mutex
	projects    map[string]domain.Project
	upserts     int
	getAllCalls int
	getAllErrAt map[int]error
	upsertErr   map[string]error
	markErr     map[string]error
	marks       []markCall
	needs       func(id string) bool
	now         func() time.Time
}

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{
		projects:    map[string]domain.Project{},
		getAllErrAt: map[int]error{},
		upsertErr:   map[string]error{},
		markErr:     map[string]error{},
		now:         now,
	}
}

func (s *fakeStore) EnsureSchema(ctx context.Context) error { return nil }

func (s *fakeStore) Upsert(ctx context.Context, p domain.UpsertProject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.upsertErr[p.ID]; err != nil {
		return err
	}
	s.upserts++
	existing, ok := s.projects[p.ID]
	if !ok {
		existing = domain.Project{
			ID:            p.ID,
			ClickUpListID: p.ID,
			ProjectType:   domain.DefaultCategory,
			TechStack:     domain.DefaultStack(),
			CreatedAt:     s.now(),
		}
	}
	existing.Name = p.Name
	existing.DisplayName = p.DisplayName
	existing.SpaceName = p.SpaceName
	existing.FolderName = p.FolderName
	existing.Description = p.Description
	existing.UpdatedAt = s.now()
	s.projects[p.ID] = existing
	return nil
}

func (s *fakeStore) GetAll(ctx context.Context) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getAllCalls++
	if err := s.getAllErrAt[s.getAllCalls]; err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) MarkClassified(ctx context.Context, id, category string, taskCount int, confidence float64, samples []domain.TaskSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markErr[id]; err != nil {
		return err
	}
	p, ok := s.projects[id]
	if !ok {
		return domain.ErrProjectNotFound
	}
	now := s.now()
	p.ProjectType = category
	p.LastAnalyzed = &now
	s.projects[id] = p
	s.marks = append(s.marks, markCall{ID: id, Category: category, TaskCount: taskCount, Confidence: confidence})
	return nil
}

func (s *fakeStore) NeedsClassification(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.needs != nil {
		return s.needs(id)
	}
	p, ok := s.projects[id]
	return !ok || p.LastAnalyzed == nil
}

func (s *fakeStore) Marks() []markCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]markCall(nil), s.marks...)
}

func (s *fakeStore) Upserts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

type fakeClassifier struct {
	mu       sync.Mutex
	calls    int
	inFlight int
	peak     int
	samples  map[string]int
	block    chan struct{}
	panicFor string
	hold     time.Duration
}

func (c *fakeClassifier) ClassifyProject(ctx context.Context, name string, samples []domain.TaskSample) domain.Classification {
	c.mu.Lock()
	c.calls++
	c.inFlight++
	if c.inFlight > c.peak {
		c.peak = c.inFlight
	}
	if c.samples == nil {
		c.samples = map[string]int{}
	}
	c.samples[name] = len(samples)
	block := c.block
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()
	}()

	if block != nil {
		<-block
	}
	if c.hold > 0 {
		time.Sleep(c.hold)
	}
	if name == c.panicFor {
		panic("classifier exploded")
	}
	if len(samples) == 0 {
		return domain.Classification{Category: domain.DefaultCategory, Confidence: 0.5, FallbackUsed: true}
	}
	return domain.Classification{Category: "Fintech", Confidence: 0.8}
}

func (c *fakeClassifier) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *fakeClassifier) Peak() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peak
}

func listRecord(id, space string, folder *string, name string) domain.ListRecord {
	return domain.ListRecord{
		ID:          id,
		Name:        name,
		SpaceName:   space,
		FolderName:  folder,
		DisplayName: domain.DisplayName(space, folder, name),
	}
}

func strPtr(s string) *string { return &s }
