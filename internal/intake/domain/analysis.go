package domain

import (
	"errors"
	"strings"
)

// ErrInvalidAnalysis is returned when the model reply is not a usable work item.
var ErrInvalidAnalysis = errors.New("invalid analysis reply")

var Priorities = []string{"low", "medium", "high", "urgent"}

const DefaultPriority = "medium"

// RequestData is the free-text request a user submits against a project.
type RequestData struct {
	Text          string `json:"text" binding:"required"`
	ProjectID     string `json:"projectId"`
	ClickUpListID string `json:"clickupListId"`
	Priority      string `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Type          string `json:"type" binding:"omitempty,oneof=bug feature improvement question"`
}

// ProjectContext is what the UI sends about the selected project.
type ProjectContext struct {
	ID            string   `json:"id"`
	Name          string   `json:"name" binding:"required"`
	ClickUpListID string   `json:"clickupListId"`
	Description   string   `json:"description"`
	TechStack     []string `json:"techStack"`
	AIContext     string   `json:"aiContext"`
	ProjectType   string   `json:"projectType"`
}

// AnalysisResult is the structured work item produced from a request.
type AnalysisResult struct {
	Title                 string   `json:"title" validate:"required,max=300"`
	Description           string   `json:"description" validate:"required"`
	Category              string   `json:"category"`
	Priority              string   `json:"priority" validate:"required,oneof=low medium high urgent"`
	EstimatedTime         string   `json:"estimatedTime"`
	TechnicalRequirements []string `json:"technicalRequirements" validate:"dive,required"`
	AcceptanceCriteria    []string `json:"acceptanceCriteria" validate:"dive,required"`
	Tags                  []string `json:"tags" validate:"dive,required"`
	Assignee              string   `json:"assignee,omitempty"`
	DueDate               string   `json:"dueDate,omitempty"`
}

// Normalize lowercases the priority, replaces unknown ones with the default
// and drops blank list entries.
func (a *AnalysisResult) Normalize() {
	a.Title = strings.TrimSpace(a.Title)
	a.Description = strings.TrimSpace(a.Description)
	a.Priority = strings.ToLower(strings.TrimSpace(a.Priority))
	if !IsPriority(a.Priority) {
		a.Priority = DefaultPriority
	}
	a.TechnicalRequirements = compact(a.TechnicalRequirements)
	a.AcceptanceCriteria = compact(a.AcceptanceCriteria)
	a.Tags = compact(a.Tags)
}

func IsPriority(p string) bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
