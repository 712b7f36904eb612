package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

const (
	DefaultStaleAfter = 7 * 24 * time.Hour
	// HistoryRetention is how many analyses are kept per project.
	HistoryRetention    = 10
	defaultAnalysesPage = 10
)

// ProjectRepository persists projects and their classification history.
type ProjectRepository struct {
	db         *sql.DB
	staleAfter time.Duration
	now        func() time.Time
}

type Option func(*ProjectRepository)

// WithStaleAfter sets how old a classification may get before it is redone.
func WithStaleAfter(d time.Duration) Option {
	return func(r *ProjectRepository) {
		if d > 0 {
			r.staleAfter = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *ProjectRepository) { r.now = now }
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB, opts ...Option) *ProjectRepository {
	r := &ProjectRepository{db: db, staleAfter: DefaultStaleAfter, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const projectColumns = `id, name, clickup_list_id, display_name, description, space_name, folder_name,
	project_type, tech_stack, last_analyzed, created_at, updated_at`

// Upsert inserts a project or refreshes its descriptive fields. The
// classification columns are never touched here.
func (r *ProjectRepository) Upsert(ctx context.Context, p domain.UpsertProject) error {
	if p.ID == "" {
		return fmt.Errorf("project id required")
	}
	if p.Name == "" {
		return fmt.Errorf("project name required")
	}

	const q = `
INSERT INTO projects (id, name, clickup_list_id, space_name, folder_name, display_name, description, updated_at)
VALUES ($1, $2, $1, $3, $4, $5, $6, now())
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	clickup_list_id = EXCLUDED.clickup_list_id,
	space_name = EXCLUDED.space_name,
	folder_name = EXCLUDED.folder_name,
	display_name = EXCLUDED.display_name,
	description = EXCLUDED.description,
	updated_at = now();
`
	_, err := r.db.ExecContext(ctx, q, p.ID, p.Name, p.SpaceName, nullString(p.FolderName), p.DisplayName, p.Description)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) {
			return fmt.Errorf("failed to upsert project %s (%s): %w", p.ID, pgErr.Code.Name(), err)
		}
		return fmt.Errorf("failed to upsert project %s: %w", p.ID, err)
	}
	return nil
}

// GetAll returns every project, most recently updated first.
func (r *ProjectRepository) GetAll(ctx context.Context) ([]domain.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects ORDER BY updated_at DESC;`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 32)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return out, nil
}

// GetByID returns one project or domain.ErrProjectNotFound.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1;`

	p, err := scanProject(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	return p, nil
}

// MarkClassified stores the detected type and appends a history row in one
// transaction.
func (r *ProjectRepository) MarkClassified(ctx context.Context, id, category string, taskCount int, confidence float64, samples []domain.TaskSample) error {
	if !domain.IsCategory(category) {
		category = domain.DefaultCategory
	}
	confidence = clamp01(confidence)
	if samples == nil {
		samples = []domain.TaskSample{}
	}
	samplesJSON, err := json.Marshal(samples)
	if err != nil {
		return fmt.Errorf("failed to marshal task samples: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const update = `
UPDATE projects
SET project_type = $2, last_analyzed = now(), updated_at = now()
WHERE id = $1;
`
	res, err := tx.ExecContext(ctx, update, id, category)
	if err != nil {
		return fmt.Errorf("failed to update project type: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update project type: %w", err)
	}
	if n == 0 {
		return domain.ErrProjectNotFound
	}

	const insert = `
INSERT INTO project_analyses (project_id, task_count, ai_confidence, project_type_detected, tasks_analyzed)
VALUES ($1, $2, $3, $4, $5);
`
	if _, err := tx.ExecContext(ctx, insert, id, taskCount, confidence, category, string(samplesJSON)); err != nil {
		return fmt.Errorf("failed to record analysis: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit classification: %w", err)
	}
	return nil
}

// NeedsClassification reports whether a project was never classified or its
// classification is older than the staleness window. Unknown ids and read
// errors count as needing classification.
func (r *ProjectRepository) NeedsClassification(ctx context.Context, id string) bool {
	const q = `SELECT last_analyzed FROM projects WHERE id = $1;`

	var last sql.NullTime
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&last); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("could not read last_analyzed", slog.String("project_id", id), slog.Any("error", err))
		}
		return true
	}
	if !last.Valid {
		return true
	}
	return r.now().Sub(last.Time) > r.staleAfter
}

// ListNeedingClassification returns ids of projects that are unclassified or stale.
func (r *ProjectRepository) ListNeedingClassification(ctx context.Context) ([]string, error) {
	const q = `
SELECT id FROM projects
WHERE last_analyzed IS NULL OR last_analyzed < $1
ORDER BY id;
`
	rows, err := r.db.QueryContext(ctx, q, r.now().Add(-r.staleAfter))
	if err != nil {
		return nil, fmt.Errorf("failed to list stale projects: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListAnalyses returns the newest history entries of a project.
func (r *ProjectRepository) ListAnalyses(ctx context.Context, projectID string, limit int) ([]domain.AnalysisRecord, error) {
	if limit <= 0 {
		limit = defaultAnalysesPage
	}
	const q = `
SELECT id, project_id, analysis_date, task_count, ai_confidence, project_type_detected, tasks_analyzed
FROM project_analyses
WHERE project_id = $1
ORDER BY analysis_date DESC
LIMIT $2;
`
	rows, err := r.db.QueryContext(ctx, q, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AnalysisRecord, 0, limit)
	for rows.Next() {
		var (
			a       domain.AnalysisRecord
			samples string
		)
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.AnalysisDate, &a.TaskCount, &a.Confidence, &a.DetectedType, &samples); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(samples), &a.TasksAnalyzed); err != nil || a.TasksAnalyzed == nil {
			a.TasksAnalyzed = []domain.TaskSample{}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// PruneAnalysisHistory keeps the newest HistoryRetention analyses per project
// and returns how many rows were deleted.
func (r *ProjectRepository) PruneAnalysisHistory(ctx context.Context) (int64, error) {
	const q = `
DELETE FROM project_analyses
WHERE id IN (
	SELECT id FROM (
		SELECT id, ROW_NUMBER() OVER (PARTITION BY project_id ORDER BY analysis_date DESC, id DESC) AS rn
		FROM project_analyses
	) ranked
	WHERE rn > $1
);
`
	res, err := r.db.ExecContext(ctx, q, HistoryRetention)
	if err != nil {
		return 0, fmt.Errorf("failed to prune analysis history: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(s rowScanner) (*domain.Project, error) {
	var (
		p            domain.Project
		folder       sql.NullString
		techStack    string
		lastAnalyzed sql.NullTime
	)
	err := s.Scan(&p.ID, &p.Name, &p.ClickUpListID, &p.DisplayName, &p.Description, &p.SpaceName, &folder,
		&p.ProjectType, &techStack, &lastAnalyzed, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if folder.Valid {
		name := folder.String
		p.FolderName = &name
	}
	if lastAnalyzed.Valid {
		t := lastAnalyzed.Time
		p.LastAnalyzed = &t
	}
	if err := json.Unmarshal([]byte(techStack), &p.TechStack); err != nil || len(p.TechStack) == 0 {
		p.TechStack = domain.DefaultStack()
	}
	if !domain.IsCategory(p.ProjectType) {
		p.ProjectType = domain.DefaultCategory
	}
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
