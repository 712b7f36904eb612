package clickup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"1-2 gün", 12 * time.Hour},
		{"3 saat", 3 * time.Hour},
		{"1 hafta", 40 * time.Hour},
		{"2-3 hafta", 100 * time.Hour},
		{"yaklaşık 4 SAAT", 4 * time.Hour},
		{"bilinmiyor", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseDuration(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, int64(43200000), ParseDuration("1-2 gün").Milliseconds())
}

func TestBuildTaskPayload(t *testing.T) {
	t.Run("priority mapping", func(t *testing.T) {
		for name, code := range map[string]int{"low": 4, "medium": 3, "high": 2, "urgent": 1} {
			p := BuildTaskPayload(NewTask{Priority: name})
			if assert.NotNil(t, p.Priority, name) {
				assert.Equal(t, code, *p.Priority, name)
			}
		}
		assert.Nil(t, BuildTaskPayload(NewTask{Priority: "whenever"}).Priority)
	})

	t.Run("due date only when plausible", func(t *testing.T) {
		p := BuildTaskPayload(NewTask{DueDate: "2031-01-15"})
		if assert.NotNil(t, p.DueDate) {
			assert.Equal(t, time.Date(2031, 1, 15, 0, 0, 0, 0, time.UTC).UnixMilli(), *p.DueDate)
		}
		assert.Nil(t, BuildTaskPayload(NewTask{DueDate: "2019-03-01"}).DueDate)
		assert.Nil(t, BuildTaskPayload(NewTask{DueDate: "next tuesday"}).DueDate)
		assert.Nil(t, BuildTaskPayload(NewTask{}).DueDate)
	})

	t.Run("defaults", func(t *testing.T) {
		p := BuildTaskPayload(NewTask{Title: "x", EstimatedTime: "?"})
		assert.Equal(t, "to do", p.Status)
		assert.Equal(t, int64(0), p.TimeEstimate)
	})
}
