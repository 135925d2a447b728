package domain

// DueDateLayout is the only accepted form of Task.DueDate.
const DueDateLayout = "2006-01-02"

// Task is a unit of work inside a group. AssignedTo, AssignedToName and DueDate
// are optional; the empty string means unset.
type Task struct {
	ID             string
	GroupID        string
	Title          string
	Description    string
	Completed      bool
	AssignedTo     string
	AssignedToName string
	DueDate        string
}

func (t Task) EntityID() string {
	return t.ID
}

func (t Task) Clone() Task {
	return t
}

func (t Task) HasAssignee() bool {
	return t.AssignedTo != ""
}

// AssigneeLabel is the display form of the denormalized assignee name.
func (t Task) AssigneeLabel() string {
	if t.AssignedToName == "" {
		return "(none)"
	}
	return t.AssignedToName
}

func (t Task) DueLabel() string {
	if t.DueDate == "" {
		return "not set"
	}
	return t.DueDate
}
