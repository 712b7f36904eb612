package http

import (
	"context"
	"time"

	"github.com/requestdesk/intake-backend/internal/classifier"
	"github.com/requestdesk/intake-backend/internal/clickup"
	intakedomain "github.com/requestdesk/intake-backend/internal/intake/domain"
	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

// ProjectSource is the synchronizer as seen by the handlers.
type ProjectSource interface {
	GetProjects(ctx context.Context) ([]domain.Project, error)
	ClearCache()
	FetchRawLists(ctx context.Context) ([]domain.ListRecord, error)
}

// ProjectStore exposes the read and maintenance side of the repository.
type ProjectStore interface {
	EnsureSchema(ctx context.Context) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListAnalyses(ctx context.Context, projectID string, limit int) ([]domain.AnalysisRecord, error)
}

// TaskClient is the ClickUp client as seen by the handlers.
type TaskClient interface {
	TeamID() string
	FetchTasks(ctx context.Context, listID string, f domain.TaskFilter) ([]domain.TaskRecord, error)
	CreateTask(ctx context.Context, listID string, t clickup.NewTask) (*clickup.CreatedTask, error)
}

// TypeAnalyzer classifies a project on demand.
type TypeAnalyzer interface {
	AnalyzeProjectType(ctx context.Context, name string, samples []domain.TaskSample) (*classifier.ProjectTypeResult, error)
}

type refreshResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type createTaskReq struct {
	Analysis intakedomain.AnalysisResult `json:"analysis"`
	Project  intakedomain.ProjectContext `json:"project"`
}

type taskInput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type analyzeTypeReq struct {
	ProjectName string      `json:"projectName" binding:"required"`
	Tasks       []taskInput `json:"tasks" binding:"required"`
}

func toNewTask(a intakedomain.AnalysisResult) clickup.NewTask {
	return clickup.NewTask{
		Title:                 a.Title,
		Description:           a.Description,
		TechnicalRequirements: a.TechnicalRequirements,
		AcceptanceCriteria:    a.AcceptanceCriteria,
		Priority:              a.Priority,
		Tags:                  a.Tags,
		EstimatedTime:         a.EstimatedTime,
		DueDate:               a.DueDate,
	}
}
