package domain

import "time"

// Project is a ClickUp list known to the intake tool.
// ID is the external list id and is never regenerated.
type Project struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	ClickUpListID string     `json:"clickupListId"`
	DisplayName   string     `json:"displayName"`
	Description   string     `json:"description"`
	SpaceName     string     `json:"spaceName"`
	FolderName    *string    `json:"folderName"`
	ProjectType   string     `json:"projectType"`
	TechStack     []string   `json:"techStack"`
	LastAnalyzed  *time.Time `json:"lastAnalyzed"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// UpsertProject carries the descriptive fields refreshed on every sync.
type UpsertProject struct {
	ID          string
	Name        string
	DisplayName string
	Description string
	SpaceName   string
	FolderName  *string
}

// AnalysisRecord is one append-only classification audit entry.
type AnalysisRecord struct {
	ID            int64        `json:"id"`
	ProjectID     string       `json:"projectId"`
	AnalysisDate  time.Time    `json:"analysisDate"`
	TaskCount     int          `json:"taskCount"`
	Confidence    float64      `json:"confidence"`
	DetectedType  string       `json:"projectTypeDetected"`
	TasksAnalyzed []TaskSample `json:"tasksAnalyzed"`
}

// ListRecord is a ClickUp list flattened out of the space/folder hierarchy.
type ListRecord struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	SpaceName   string  `json:"spaceName"`
	FolderName  *string `json:"folderName"`
	DisplayName string  `json:"displayName"`
	Description string  `json:"description,omitempty"`
}

// ToUpsert maps a fetched list onto the store's mutable fields.
func (l ListRecord) ToUpsert() UpsertProject {
	return UpsertProject{
		ID:          l.ID,
		Name:        l.Name,
		DisplayName: l.DisplayName,
		Description: l.Description,
		SpaceName:   l.SpaceName,
		FolderName:  l.FolderName,
	}
}

// TaskRecord is a ClickUp task reduced to what analysis and the work map need.
type TaskRecord struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Tags         []string      `json:"tags"`
	CustomFields []CustomField `json:"customFields"`

	Status         string     `json:"status,omitempty"`
	Priority       string     `json:"priority,omitempty"`
	Assignees      []string   `json:"assignees,omitempty"`
	TimeEstimateMs int64      `json:"timeEstimateMs,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

type CustomField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TaskSample is the trimmed task snapshot sent to the classifier and kept in history.
type TaskSample struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

const (
	sampleDescriptionLimit = 200
	sampleTagLimit         = 5
)

// Sample trims a task to a classifier sample.
func (t TaskRecord) Sample() TaskSample {
	desc := []rune(t.Description)
	if len(desc) > sampleDescriptionLimit {
		desc = desc[:sampleDescriptionLimit]
	}
	tags := t.Tags
	if len(tags) > sampleTagLimit {
		tags = tags[:sampleTagLimit]
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return TaskSample{Name: t.Name, Description: string(desc), Tags: out}
}

// TaskFilter holds the ClickUp task listing parameters.
type TaskFilter struct {
	Page          int
	OrderBy       string
	Reverse       bool
	IncludeClosed bool
	Limit         int
}

// RecentTasksFilter selects the newest tasks of a list, closed ones included.
// Both the task listing endpoint and classification sampling use it.
func RecentTasksFilter(limit int) TaskFilter {
	return TaskFilter{
		OrderBy:       "created",
		Reverse:       true,
		IncludeClosed: true,
		Limit:         limit,
	}
}

// Classification is the outcome of classifying one project.
type Classification struct {
	Category     string
	Confidence   float64
	FallbackUsed bool
}

// DisplayName builds "space / folder / list" or "space / list".
func DisplayName(space string, folder *string, list string) string {
	if folder != nil && *folder != "" {
		return space + " / " + *folder + " / " + list
	}
	return space + " / " + list
}
