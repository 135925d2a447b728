package handler

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ToggleMembershipRequest struct {
	GroupID string `json:"group_id"`
}

type GroupResponse struct {
	GroupID     string   `json:"group_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
	IsMember    bool     `json:"is_member"`
}

type GroupsResponse struct {
	Filter string          `json:"filter,omitempty"`
	Groups []GroupResponse `json:"groups"`
}

type CreateGroupResponse struct {
	Group GroupResponse `json:"group"`
}

type ToggleMembershipResponse struct {
	Outcome string        `json:"outcome"`
	Group   GroupResponse `json:"group"`
}

type CreateTaskRequest struct {
	GroupID     string `json:"group_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	AssignedTo  string `json:"assigned_to"`
}

type SetCompletionRequest struct {
	GroupID   string `json:"group_id"`
	TaskID    string `json:"task_id"`
	Completed bool   `json:"completed"`
}

type TaskResponse struct {
	TaskID         string `json:"task_id"`
	GroupID        string `json:"group_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Completed      bool   `json:"completed"`
	AssignedTo     string `json:"assigned_to,omitempty"`
	AssignedToName string `json:"assigned_to_name,omitempty"`
	AssigneeLabel  string `json:"assignee_label"`
	DueDate        string `json:"due_date,omitempty"`
	DueLabel       string `json:"due_label"`
	SyncStatus     string `json:"sync_status,omitempty"`
}

type TasksResponse struct {
	GroupID string         `json:"group_id"`
	Tasks   []TaskResponse `json:"tasks"`
}

type TaskEnvelope struct {
	Task TaskResponse `json:"task"`
}

type AssigneeResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type AssigneesResponse struct {
	GroupID   string             `json:"group_id"`
	Assignees []AssigneeResponse `json:"assignees"`
}

type UserResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
}

type UserEnvelope struct {
	User UserResponse `json:"user"`
}
