package domain

import (
	"math"
	"strings"
	"time"

	projects "github.com/requestdesk/intake-backend/internal/projects/domain"
)

// Task is one ClickUp task as the work map shows it.
type Task struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Status            string     `json:"status"`
	Priority          int        `json:"priority"`
	Assignees         []string   `json:"assignees"`
	Tags              []string   `json:"tags"`
	TimeEstimateHours int        `json:"timeEstimate"`
	ProjectName       string     `json:"projectName"`
	DueDate           *time.Time `json:"dueDate"`
	CreatedDate       *time.Time `json:"createdDate"`
}

// FromRecord converts a fetched task of the list named projectName.
func FromRecord(r projects.TaskRecord, projectName string) Task {
	assignees := r.Assignees
	if assignees == nil {
		assignees = []string{}
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return Task{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description,
		Status:            r.Status,
		Priority:          PriorityRank(r.Priority),
		Assignees:         assignees,
		Tags:              tags,
		TimeEstimateHours: int(math.Round(float64(r.TimeEstimateMs) / float64(time.Hour/time.Millisecond))),
		ProjectName:       projectName,
		DueDate:           r.DueDate,
		CreatedDate:       r.CreatedAt,
	}
}

// PriorityRank maps a ClickUp priority name to 1 (urgent) .. 5 (none).
func PriorityRank(name string) int {
	switch strings.ToLower(name) {
	case "urgent":
		return 1
	case "high":
		return 2
	case "normal":
		return 3
	case "low":
		return 4
	default:
		return 5
	}
}

// IsCompleted reports whether a status name reads as finished.
func IsCompleted(status string) bool {
	s := strings.ToLower(status)
	return strings.Contains(s, "done") || strings.Contains(s, "complete") || strings.Contains(s, "closed")
}

// IsInProgress reports whether a status name reads as being worked on.
func IsInProgress(status string) bool {
	s := strings.ToLower(status)
	for _, k := range []string{"progress", "doing", "development", "active"} {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

var funnyKeywords = []string{
	"bug", "hata", "çalışmıyor", "neden", "wtf", "acil", "asap",
	"pizza", "kahve", "coffee", "uyku", "yorgun", "stress",
	"test", "deneme", "temp", "geçici", "fix", "düzelt",
	"magic", "sihir", "nasıl", "niye", "kim", "ne zaman",
	"deadline", "rush", "panic", "help", "yardım", "sos",
}

const (
	longNameRunes = 100
	manyTags      = 10
)

// Stats summarises the tasks of a whole workspace.
type Stats struct {
	TotalTasks            int    `json:"totalTasks"`
	CompletedTasks        int    `json:"completedTasks"`
	OverdueTasks          int    `json:"overdueTasks"`
	FunnyTasks            []Task `json:"funnyTasks"`
	LongestTask           *Task  `json:"longestTask"`
	ShortestTask          *Task  `json:"shortestTask"`
	MostTaggedTask        *Task  `json:"mostTaggedTask"`
	UrgentWithoutAssignee []Task `json:"urgentWithoutAssignee"`
	OldestTask            *Task  `json:"oldestTask"`
	WeekendWarriors       []Task `json:"weekendWarriors"`
}

// Compute builds the stats as of now. Weekdays are taken in now's location.
// Ties keep the earlier task.
func Compute(tasks []Task, now time.Time) Stats {
	st := Stats{
		TotalTasks:            len(tasks),
		FunnyTasks:            []Task{},
		UrgentWithoutAssignee: []Task{},
		WeekendWarriors:       []Task{},
	}

	for i := range tasks {
		t := &tasks[i]
		done := IsCompleted(t.Status)
		if done {
			st.CompletedTasks++
		}
		if !done && t.DueDate != nil && t.DueDate.Before(now) {
			st.OverdueTasks++
		}
		if isFunny(*t) {
			st.FunnyTasks = append(st.FunnyTasks, *t)
		}
		if t.Priority <= 2 && len(t.Assignees) == 0 {
			st.UrgentWithoutAssignee = append(st.UrgentWithoutAssignee, *t)
		}

		if t.TimeEstimateHours > 0 {
			if st.LongestTask == nil || t.TimeEstimateHours > st.LongestTask.TimeEstimateHours {
				st.LongestTask = t
			}
			if st.ShortestTask == nil || t.TimeEstimateHours < st.ShortestTask.TimeEstimateHours {
				st.ShortestTask = t
			}
		}
		if len(t.Tags) > 0 && (st.MostTaggedTask == nil || len(t.Tags) > len(st.MostTaggedTask.Tags)) {
			st.MostTaggedTask = t
		}

		if t.CreatedDate == nil {
			continue
		}
		ref := now
		if st.OldestTask != nil {
			ref = *st.OldestTask.CreatedDate
		}
		if t.CreatedDate.Before(ref) {
			st.OldestTask = t
		}
		switch t.CreatedDate.In(now.Location()).Weekday() {
		case time.Saturday, time.Sunday:
			st.WeekendWarriors = append(st.WeekendWarriors, *t)
		}
	}
	return st
}

func isFunny(t Task) bool {
	if len([]rune(t.Name)) > longNameRunes || len(t.Tags) > manyTags {
		return true
	}
	name := strings.ToLower(t.Name)
	desc := strings.ToLower(t.Description)
	for _, k := range funnyKeywords {
		if strings.Contains(name, k) || strings.Contains(desc, k) {
			return true
		}
	}
	return false
}

// WorkMap is every task of the workspace plus its stats.
type WorkMap struct {
	Tasks []Task `json:"tasks"`
	Stats Stats  `json:"stats"`
}
