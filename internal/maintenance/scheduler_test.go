package maintenance

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

type fakeStore struct {
	calls      atomic.Int32
	n          int64
	err        error
	backlog    []string
	backlogErr error
	listed     atomic.Int32
}

func (f *fakeStore) PruneAnalysisHistory(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func (f *fakeStore) ListNeedingClassification(ctx context.Context) ([]string, error) {
	f.listed.Add(1)
	return f.backlog, f.backlogErr
}

type fakeWarmer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeWarmer) GetProjects(ctx context.Context) ([]domain.Project, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Project{{ID: "L1"}}, nil
}

func TestPrune(t *testing.T) {
	p := &fakeStore{n: 4}
	s := NewScheduler(p, &fakeWarmer{})
	require.NoError(t, s.Prune(context.Background()))
	assert.EqualValues(t, 1, p.calls.Load())

	p.err = errors.New("db down")
	assert.ErrorContains(t, s.Prune(context.Background()), "db down")
}

func TestWarm(t *testing.T) {
	st, w := &fakeStore{backlog: []string{"L1", "L2"}}, &fakeWarmer{}
	s := NewScheduler(st, w)
	require.NoError(t, s.Warm(context.Background()))
	assert.EqualValues(t, 1, st.listed.Load())

	st.backlogErr = errors.New("db down")
	assert.NoError(t, s.Warm(context.Background()), "backlog is informational")

	w.err = domain.ErrBackendUnreachable
	assert.ErrorIs(t, s.Warm(context.Background()), domain.ErrBackendUnreachable)
	assert.EqualValues(t, 2, st.listed.Load(), "backlog is not read after a failed sync")
}

func TestStart_InvalidSpec(t *testing.T) {
	s := NewScheduler(&fakeStore{}, &fakeWarmer{})
	err := s.Start("not a schedule", "")
	assert.ErrorContains(t, err, "invalid prune schedule")
}

func TestStart_RunsJobs(t *testing.T) {
	p, w := &fakeStore{}, &fakeWarmer{}
	s := NewScheduler(p, w)
	require.NoError(t, s.Start("* * * * * *", "* * * * * *"))

	assert.Eventually(t, func() bool {
		return p.calls.Load() > 0 && w.calls.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestStart_EmptySpecsDisableJobs(t *testing.T) {
	s := NewScheduler(&fakeStore{}, &fakeWarmer{})
	require.NoError(t, s.Start("", ""))
	assert.Empty(t, s.cron.Entries())
	s.Stop(context.Background())
}
