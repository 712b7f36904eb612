package clickup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

const (
	defaultTaskLimit = 10
	maxTaskLimit     = 100
)

// FetchTasks lists tasks of one list, newest first by default.
func (c *Client) FetchTasks(ctx context.Context, listID string, f domain.TaskFilter) ([]domain.TaskRecord, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	if listID == "" {
		return nil, errors.New("list id is required")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultTaskLimit
	}
	if limit > maxTaskLimit {
		limit = maxTaskLimit
	}
	orderBy := f.OrderBy
	if orderBy == "" {
		orderBy = "created"
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("order_by", orderBy)
	q.Set("reverse", strconv.FormatBool(f.Reverse))
	q.Set("subtasks", "false")
	q.Set("include_closed", strconv.FormatBool(f.IncludeClosed))
	q.Set("limit", strconv.Itoa(limit))

	var resp tasksResponse
	if err := c.get(ctx, "/list/"+url.PathEscape(listID)+"/task", q, &resp); err != nil {
		return nil, fmt.Errorf("fetch tasks of list %s: %w", listID, err)
	}

	out := make([]domain.TaskRecord, 0, len(resp.Tasks))
	for _, t := range resp.Tasks {
		if t.ID == "" {
			continue
		}
		out = append(out, toTaskRecord(t))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func toTaskRecord(t task) domain.TaskRecord {
	tags := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		tags = append(tags, tag.Name)
	}
	fields := make([]domain.CustomField, 0, len(t.CustomFields))
	for _, cf := range t.CustomFields {
		fields = append(fields, domain.CustomField{Name: cf.Name, Value: customFieldValue(cf.Value)})
	}
	rec := domain.TaskRecord{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		Tags:         tags,
		CustomFields: fields,
		CreatedAt:    millisTime(t.DateCreated),
	}
	if t.Status != nil {
		rec.Status = t.Status.Status
	}
	if t.Priority != nil {
		rec.Priority = t.Priority.Priority
	}
	for _, a := range t.Assignees {
		name := a.Username
		if name == "" {
			name = a.Email
		}
		rec.Assignees = append(rec.Assignees, name)
	}
	if t.TimeEstimate != nil && *t.TimeEstimate > 0 {
		rec.TimeEstimateMs = *t.TimeEstimate
	}
	if t.DueDate != nil {
		rec.DueDate = millisTime(*t.DueDate)
	}
	return rec
}

// millisTime parses a ClickUp epoch-millisecond string; nil when absent or malformed.
func millisTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

func customFieldValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
