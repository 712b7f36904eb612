package repository

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	clickup_list_id TEXT NOT NULL,
	project_type TEXT NOT NULL DEFAULT 'Web Uygulaması',
	tech_stack TEXT NOT NULL DEFAULT '["Next.js","React","TypeScript"]',
	space_name TEXT NOT NULL,
	folder_name TEXT,
	display_name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	last_analyzed TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	`ALTER TABLE projects ADD COLUMN IF NOT EXISTS description TEXT NOT NULL DEFAULT '';`,
	`
CREATE TABLE IF NOT EXISTS project_analyses (
	id BIGSERIAL PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	analysis_date TIMESTAMPTZ NOT NULL DEFAULT now(),
	task_count INTEGER NOT NULL DEFAULT 0,
	ai_confidence REAL NOT NULL DEFAULT 0,
	project_type_detected TEXT NOT NULL,
	tasks_analyzed TEXT NOT NULL DEFAULT '[]'
);`,
	`CREATE INDEX IF NOT EXISTS idx_project_analyses_project_date ON project_analyses (project_id, analysis_date DESC);`,
}

// EnsureSchema creates both tables and the history index if missing.
func (r *ProjectRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
