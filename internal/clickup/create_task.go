package clickup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTaskStatus = "to do"

var priorityCodes = map[string]int{
	"urgent": 1,
	"high":   2,
	"medium": 3,
	"low":    4,
}

// NewTask is the structured work item to push into a list.
type NewTask struct {
	Title                 string
	Description           string
	TechnicalRequirements []string
	AcceptanceCriteria    []string
	Priority              string
	Tags                  []string
	EstimatedTime         string
	DueDate               string
}

// TaskPayload is the POST /list/{id}/task body.
type TaskPayload struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Priority     *int     `json:"priority,omitempty"`
	Status       string   `json:"status"`
	Tags         []string `json:"tags,omitempty"`
	TimeEstimate int64    `json:"time_estimate"`
	DueDate      *int64   `json:"due_date,omitempty"`
}

// CreatedTask is what the UI gets back after a task was created.
type CreatedTask struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Status      string `json:"status"`
	URL         string `json:"url"`
}

// BuildTaskPayload composes the markdown description and maps priority,
// estimate and due date into ClickUp's encoding.
func BuildTaskPayload(t NewTask) TaskPayload {
	p := TaskPayload{
		Name:         t.Title,
		Description:  composeDescription(t),
		Status:       defaultTaskStatus,
		Tags:         t.Tags,
		TimeEstimate: ParseDuration(t.EstimatedTime).Milliseconds(),
	}
	if code, ok := priorityCodes[strings.ToLower(strings.TrimSpace(t.Priority))]; ok {
		p.Priority = &code
	}
	if due, ok := parseDueDate(t.DueDate); ok {
		ms := due.UnixMilli()
		p.DueDate = &ms
	}
	return p
}

// CreateTask creates a task in the given list.
func (c *Client) CreateTask(ctx context.Context, listID string, t NewTask) (*CreatedTask, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	if listID == "" {
		return nil, errors.New("list id is required")
	}

	var resp createdTaskResponse
	if err := c.do(ctx, "POST", "/list/"+url.PathEscape(listID)+"/task", nil, BuildTaskPayload(t), &resp); err != nil {
		return nil, fmt.Errorf("create task in list %s: %w", listID, err)
	}

	out := &CreatedTask{
		ID:          resp.ID,
		Name:        resp.Name,
		Description: resp.Description,
		Status:      defaultTaskStatus,
		URL:         resp.URL,
	}
	if resp.Status != nil && resp.Status.Status != "" {
		out.Status = resp.Status.Status
	}
	if resp.Priority != nil {
		if n, err := strconv.Atoi(resp.Priority.ID); err == nil {
			out.Priority = n
		} else if code, ok := priorityCodes[resp.Priority.Priority]; ok {
			out.Priority = code
		}
	}
	return out, nil
}

func composeDescription(t NewTask) string {
	var b strings.Builder
	b.WriteString(t.Description)
	b.WriteString("\n\n**Teknik Gereksinimler:**\n")
	b.WriteString(bulletList(t.TechnicalRequirements))
	b.WriteString("\n\n**Kabul Kriterleri:**\n")
	b.WriteString(bulletList(t.AcceptanceCriteria))
	return b.String()
}

func bulletList(items []string) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+it)
	}
	return strings.Join(lines, "\n")
}

var dueDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02.01.2006",
}

// parseDueDate accepts a handful of layouts and rejects implausible years.
func parseDueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dueDateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() <= 2020 {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}
