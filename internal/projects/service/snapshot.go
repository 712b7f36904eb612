package service

import (
	"time"

	"github.com/requestdesk/intake-backend/internal/projects/domain"
)

func cloneProjects(in []domain.Project) []domain.Project {
	if in == nil {
		return nil
	}
	out := make([]domain.Project, len(in))
	for i, p := range in {
		p.TechStack = append([]string(nil), p.TechStack...)
		if p.FolderName != nil {
			f := *p.FolderName
			p.FolderName = &f
		}
		if p.LastAnalyzed != nil {
			t := *p.LastAnalyzed
			p.LastAnalyzed = &t
		}
		out[i] = p
	}
	return out
}

// normalize drops duplicate ids (first wins) and fills the stack and type
// defaults, so every served project has a unique id and a non-empty stack.
func normalize(in []domain.Project) []domain.Project {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.Project, 0, len(in))
	for _, p := range in {
		if p.ID == "" {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		if len(p.TechStack) == 0 {
			p.TechStack = domain.DefaultStack()
		}
		if !domain.IsCategory(p.ProjectType) {
			p.ProjectType = domain.DefaultCategory
		}
		if p.ClickUpListID == "" {
			p.ClickUpListID = p.ID
		}
		out = append(out, p)
	}
	return out
}

// overlay applies freshly fetched lists on top of a stored snapshot, the way
// the upserts would have if the store had accepted them.
func overlay(stored []domain.Project, lists []domain.ListRecord, now time.Time) []domain.Project {
	out := cloneProjects(stored)
	index := make(map[string]int, len(out))
	for i, p := range out {
		index[p.ID] = i
	}

	for _, l := range lists {
		if i, ok := index[l.ID]; ok {
			p := &out[i]
			p.Name = l.Name
			p.DisplayName = l.DisplayName
			p.SpaceName = l.SpaceName
			p.FolderName = l.FolderName
			p.Description = l.Description
			p.UpdatedAt = now
			continue
		}
		index[l.ID] = len(out)
		out = append(out, domain.Project{
			ID:            l.ID,
			Name:          l.Name,
			ClickUpListID: l.ID,
			DisplayName:   l.DisplayName,
			SpaceName:     l.SpaceName,
			FolderName:    l.FolderName,
			Description:   l.Description,
			ProjectType:   domain.DefaultCategory,
			TechStack:     domain.DefaultStack(),
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return out
}
