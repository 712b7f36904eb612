package clickup

// Wire schemas for the endpoints this client consumes. Only the fields we
// read are declared; records with an empty id are dropped when narrowed.

type Space struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Private bool   `json:"private"`
	Color   string `json:"color,omitempty"`
}

// Team is the ClickUp workspace the token is scoped to.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type teamResponse struct {
	Team *Team `json:"team"`
}

type spacesResponse struct {
	Spaces []Space `json:"spaces"`
}

type folder struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
}

type foldersResponse struct {
	Folders []folder `json:"folders"`
}

type list struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

type listsResponse struct {
	Lists []list `json:"lists"`
}

type taskTag struct {
	Name string `json:"name"`
}

type taskCustomField struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type taskAssignee struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Timestamps arrive as millisecond strings, estimates as millisecond numbers.
type task struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Tags         []taskTag         `json:"tags"`
	CustomFields []taskCustomField `json:"custom_fields"`
	Status       *taskStatus       `json:"status"`
	Priority     *taskPriority     `json:"priority"`
	Assignees    []taskAssignee    `json:"assignees"`
	TimeEstimate *int64            `json:"time_estimate"`
	DueDate      *string           `json:"due_date"`
	DateCreated  string            `json:"date_created"`
}

type tasksResponse struct {
	Tasks []task `json:"tasks"`
}

type taskStatus struct {
	Status string `json:"status"`
}

type taskPriority struct {
	ID       string `json:"id"`
	Priority string `json:"priority"`
}

type createdTaskResponse struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      *taskStatus   `json:"status"`
	Priority    *taskPriority `json:"priority"`
	URL         string        `json:"url"`
}
