package domain

import (
	"strings"

	projects "github.com/requestdesk/intake-backend/internal/projects/domain"
)

const (
	RedWorkspaceID    = "red-workspace"
	RedWorkspaceName  = "RED Workspace"
	GreyWorkspaceID   = "grey-workspace"
	GreyWorkspaceName = "GREY Workspace"
)

type Space struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Private bool   `json:"private"`
	Color   string `json:"color,omitempty"`
}

// Workspace is a named group of ClickUp spaces.
type Workspace struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Spaces []Space `json:"spaces"`
}

// SplitSpaces sorts spaces into the RED and GREY groups by name. When no
// space name mentions either, the first half (rounded up) is RED and the
// rest GREY.
func SplitSpaces(spaces []Space) (red, grey []Space) {
	for _, s := range spaces {
		name := strings.ToUpper(s.Name)
		if strings.Contains(name, "RED") {
			red = append(red, s)
		}
		if strings.Contains(name, "GREY") || strings.Contains(name, "GRAY") {
			grey = append(grey, s)
		}
	}
	if len(red) > 0 || len(grey) > 0 {
		return red, grey
	}
	half := (len(spaces) + 1) / 2
	return spaces[:half:half], spaces[half:]
}

// ListTasks are the in-progress tasks of one list.
type ListTasks struct {
	ListID          string                `json:"listId"`
	ListName        string                `json:"listName"`
	FolderName      *string               `json:"folderName,omitempty"`
	InProgressTasks []projects.TaskRecord `json:"inProgressTasks"`
}

type SpaceTasks struct {
	SpaceName string      `json:"spaceName"`
	Lists     []ListTasks `json:"lists"`
}

// WorkspaceTasks is the in-progress view of one workspace group. Lists and
// spaces without in-progress tasks are left out.
type WorkspaceTasks struct {
	WorkspaceName string       `json:"workspaceName"`
	Spaces        []SpaceTasks `json:"spaces"`
}
