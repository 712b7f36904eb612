package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/requestdesk/intake-backend/internal/clickup"
	"github.com/requestdesk/intake-backend/internal/logging"
	projects "github.com/requestdesk/intake-backend/internal/projects/domain"
	"github.com/requestdesk/intake-backend/internal/workmap/domain"
)

// Workspace is the slice of the ClickUp client the work map reads from.
type Workspace interface {
	FetchTeam(ctx context.Context) (*clickup.Team, error)
	FetchSpaces(ctx context.Context) ([]clickup.Space, error)
	FetchSpaceLists(ctx context.Context, space clickup.Space) ([]projects.ListRecord, error)
	FetchLists(ctx context.Context) ([]projects.ListRecord, error)
	FetchTasks(ctx context.Context, listID string, f projects.TaskFilter) ([]projects.TaskRecord, error)
}

type Options struct {
	// Concurrency bounds parallel task fetches; the client's own rate
	// limiter still applies.
	Concurrency int
	TaskLimit   int
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.TaskLimit <= 0 {
		o.TaskLimit = 100
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Service struct {
	cu   Workspace
	opts Options
}

func New(cu Workspace, opts Options) *Service {
	return &Service{cu: cu, opts: opts.withDefaults()}
}

// Build walks every list of the team and summarises its tasks. A list whose
// tasks cannot be fetched is skipped.
func (s *Service) Build(ctx context.Context) (*domain.WorkMap, error) {
	log := logging.FromContext(ctx)

	lists, err := s.cu.FetchLists(ctx)
	if err != nil {
		return nil, err
	}

	filter := projects.RecentTasksFilter(s.opts.TaskLimit)
	perList, err := s.fetchTasks(ctx, lists, filter)
	if err != nil {
		return nil, err
	}

	tasks := []domain.Task{}
	for i, l := range lists {
		for _, t := range perList[i] {
			tasks = append(tasks, domain.FromRecord(t, l.Name))
		}
	}

	stats := domain.Compute(tasks, s.opts.Now())
	log.Info("work map built",
		slog.Int("lists", len(lists)),
		slog.Int("tasks", stats.TotalTasks),
		slog.Int("overdue", stats.OverdueTasks))
	return &domain.WorkMap{Tasks: tasks, Stats: stats}, nil
}

// Workspaces returns the RED and GREY space groups of the team.
func (s *Service) Workspaces(ctx context.Context) ([]domain.Workspace, error) {
	team, err := s.cu.FetchTeam(ctx)
	if err != nil {
		return nil, err
	}
	red, grey, err := s.split(ctx)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug("workspace groups resolved",
		slog.String("team", team.Name),
		slog.Int("red", len(red)),
		slog.Int("grey", len(grey)))

	out := []domain.Workspace{}
	if len(red) > 0 {
		out = append(out, domain.Workspace{ID: domain.RedWorkspaceID, Name: domain.RedWorkspaceName, Spaces: red})
	}
	if len(grey) > 0 {
		out = append(out, domain.Workspace{ID: domain.GreyWorkspaceID, Name: domain.GreyWorkspaceName, Spaces: grey})
	}
	return out, nil
}

// WorkspaceTasks returns the open, in-progress tasks of each space group.
func (s *Service) WorkspaceTasks(ctx context.Context) ([]domain.WorkspaceTasks, error) {
	red, grey, err := s.split(ctx)
	if err != nil {
		return nil, err
	}

	out := []domain.WorkspaceTasks{}
	for _, g := range []struct {
		name   string
		spaces []domain.Space
	}{{domain.RedWorkspaceName, red}, {domain.GreyWorkspaceName, grey}} {
		if len(g.spaces) == 0 {
			continue
		}
		ws, err := s.workspaceTasks(ctx, g.name, g.spaces)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, nil
}

func (s *Service) split(ctx context.Context) (red, grey []domain.Space, err error) {
	spaces, err := s.cu.FetchSpaces(ctx)
	if err != nil {
		return nil, nil, err
	}
	all := make([]domain.Space, 0, len(spaces))
	for _, sp := range spaces {
		all = append(all, domain.Space{ID: sp.ID, Name: sp.Name, Private: sp.Private, Color: sp.Color})
	}
	red, grey = domain.SplitSpaces(all)
	return red, grey, nil
}

func (s *Service) workspaceTasks(ctx context.Context, name string, spaces []domain.Space) (domain.WorkspaceTasks, error) {
	log := logging.FromContext(ctx)
	ws := domain.WorkspaceTasks{WorkspaceName: name, Spaces: []domain.SpaceTasks{}}
	open := projects.RecentTasksFilter(s.opts.TaskLimit)
	open.IncludeClosed = false

	for _, sp := range spaces {
		lists, err := s.cu.FetchSpaceLists(ctx, clickup.Space{ID: sp.ID, Name: sp.Name, Private: sp.Private})
		if err != nil {
			if clickup.IsAborted(err) {
				return ws, err
			}
			log.Warn("skipping space, lists could not be fetched",
				slog.String("space_id", sp.ID), slog.Any("error", err))
			continue
		}

		perList, err := s.fetchTasks(ctx, lists, open)
		if err != nil {
			return ws, err
		}

		st := domain.SpaceTasks{SpaceName: sp.Name}
		for i, l := range lists {
			var active []projects.TaskRecord
			for _, t := range perList[i] {
				if domain.IsInProgress(t.Status) {
					active = append(active, t)
				}
			}
			if len(active) == 0 {
				continue
			}
			st.Lists = append(st.Lists, domain.ListTasks{
				ListID:          l.ID,
				ListName:        l.Name,
				FolderName:      l.FolderName,
				InProgressTasks: active,
			})
		}
		if len(st.Lists) > 0 {
			ws.Spaces = append(ws.Spaces, st)
		}
	}
	return ws, nil
}

// fetchTasks loads the tasks of every list, at most Concurrency at a time.
// Per-list failures leave that list empty; cancellation fails the call.
func (s *Service) fetchTasks(ctx context.Context, lists []projects.ListRecord, f projects.TaskFilter) ([][]projects.TaskRecord, error) {
	log := logging.FromContext(ctx)
	out := make([][]projects.TaskRecord, len(lists))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, l := range lists {
		g.Go(func() error {
			tasks, err := s.cu.FetchTasks(gctx, l.ID, f)
			if err != nil {
				if clickup.IsAborted(err) || gctx.Err() != nil {
					return err
				}
				log.Warn("skipping list, tasks could not be fetched",
					slog.String("list_id", l.ID), slog.Any("error", err))
				return nil
			}
			out[i] = tasks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, projects.ErrAborted) {
			return nil, fmt.Errorf("%w: %w", projects.ErrAborted, ctxErr)
		}
		return nil, err
	}
	return out, nil
}
