package store

import (
	"fmt"
	"strings"
)

const (
	GroupsCollection = "groups"
	TasksCollection  = "tasks"
	UsersCollection  = "users"

	MembersField   = "members"
	CompletedField = "completed"
	GroupIDField   = "groupId"
)

func GroupPath(groupID string) string {
	return GroupsCollection + "/" + groupID
}

func GroupMembersPath(groupID string) string {
	return GroupPath(groupID) + "/" + MembersField
}

func TaskPath(taskID string) string {
	return TasksCollection + "/" + taskID
}

func TaskCompletedPath(taskID string) string {
	return TaskPath(taskID) + "/" + CompletedField
}

func UserPath(userID string) string {
	return UsersCollection + "/" + userID
}

// Path is a parsed location in the tree: a collection, a record inside it, or a
// single field of a record.
type Path struct {
	Collection string
	Key        string
	Field      string
}

func ParsePath(p string) (Path, error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) > 3 {
		return Path{}, fmt.Errorf("path %q is too deep", p)
	}
	for _, part := range parts {
		if part == "" {
			return Path{}, fmt.Errorf("path %q has an empty segment", p)
		}
	}

	var parsed Path
	parsed.Collection = parts[0]
	if len(parts) > 1 {
		parsed.Key = parts[1]
	}
	if len(parts) > 2 {
		parsed.Field = parts[2]
	}
	return parsed, nil
}

func (p Path) IsCollection() bool {
	return p.Key == ""
}

func (p Path) IsField() bool {
	return p.Field != ""
}

func (p Path) String() string {
	s := p.Collection
	if p.Key != "" {
		s += "/" + p.Key
	}
	if p.Field != "" {
		s += "/" + p.Field
	}
	return s
}
