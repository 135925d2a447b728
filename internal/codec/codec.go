// Package codec converts between store records and domain entities. Decoding is
// tolerant: absent or mistyped optional fields are left unset, while a record
// missing a required field is rejected so the caller can drop it.
package codec

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/mradkov043/discite-omnes-app/internal/domain"
)

type groupRecord struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
}

type taskRecord struct {
	ID             string `json:"id"`
	GroupID        string `json:"groupId"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Completed      bool   `json:"completed"`
	AssignedTo     string `json:"assignedTo,omitempty"`
	AssignedToName string `json:"assignedToName,omitempty"`
	DueDate        string `json:"dueDate,omitempty"`
}

type fields map[string]json.RawMessage

func parseFields(raw json.RawMessage) (fields, bool) {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil || f == nil {
		return nil, false
	}
	return f, true
}

func (f fields) requiredString(name string) (string, bool) {
	var v string
	if err := json.Unmarshal(f[name], &v); err != nil || v == "" {
		return "", false
	}
	return v, true
}

func (f fields) optionalString(name string) string {
	var v string
	_ = json.Unmarshal(f[name], &v)
	return v
}

func (f fields) optionalBool(name string) bool {
	var v bool
	_ = json.Unmarshal(f[name], &v)
	return v
}

// DecodeGroup requires id and name.
func DecodeGroup(raw json.RawMessage) (domain.Group, bool) {
	f, ok := parseFields(raw)
	if !ok {
		return domain.Group{}, false
	}
	id, ok := f.requiredString("id")
	if !ok {
		return domain.Group{}, false
	}
	name, ok := f.requiredString("name")
	if !ok {
		return domain.Group{}, false
	}

	members, _ := DecodeMembers(f["members"])
	return domain.Group{
		ID:          id,
		Name:        name,
		Description: f.optionalString("description"),
		Members:     members,
	}, true
}

// DecodeTask requires id, groupId and title.
func DecodeTask(raw json.RawMessage) (domain.Task, bool) {
	f, ok := parseFields(raw)
	if !ok {
		return domain.Task{}, false
	}
	id, ok := f.requiredString("id")
	if !ok {
		return domain.Task{}, false
	}
	groupID, ok := f.requiredString("groupId")
	if !ok {
		return domain.Task{}, false
	}
	title, ok := f.requiredString("title")
	if !ok {
		return domain.Task{}, false
	}

	return domain.Task{
		ID:             id,
		GroupID:        groupID,
		Title:          title,
		Description:    f.optionalString("description"),
		Completed:      f.optionalBool("completed"),
		AssignedTo:     f.optionalString("assignedTo"),
		AssignedToName: f.optionalString("assignedToName"),
		DueDate:        f.optionalString("dueDate"),
	}, true
}

// DecodeUser requires id and name; a directory entry without a name cannot be
// offered as an assignee.
func DecodeUser(raw json.RawMessage) (domain.User, bool) {
	f, ok := parseFields(raw)
	if !ok {
		return domain.User{}, false
	}
	id, ok := f.requiredString("id")
	if !ok {
		return domain.User{}, false
	}
	name, ok := f.requiredString("name")
	if !ok {
		return domain.User{}, false
	}
	return domain.User{ID: id, Name: name, Email: f.optionalString("email")}, true
}

// DecodeMembers reads a member list stored either as a JSON array or as an
// object keyed by array index. Non-string, empty and repeated ids are skipped.
// It returns false only when raw holds something that is neither.
func DecodeMembers(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, true
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		var byIndex map[string]json.RawMessage
		if err := json.Unmarshal(raw, &byIndex); err != nil {
			return []string{}, false
		}
		items = orderedByIndex(byIndex)
	}

	members := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		var id string
		if err := json.Unmarshal(item, &id); err != nil || id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	return members, true
}

func orderedByIndex(byIndex map[string]json.RawMessage) []json.RawMessage {
	keys := make([]string, 0, len(byIndex))
	for k := range byIndex {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})

	items := make([]json.RawMessage, 0, len(keys))
	for _, k := range keys {
		items = append(items, byIndex[k])
	}
	return items
}

// EncodeGroup returns the wire form of g. A nil member list is written as [].
func EncodeGroup(g domain.Group) any {
	members := g.Members
	if members == nil {
		members = []string{}
	}
	return groupRecord{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Members:     members,
	}
}

func EncodeTask(t domain.Task) any {
	return taskRecord{
		ID:             t.ID,
		GroupID:        t.GroupID,
		Title:          t.Title,
		Description:    t.Description,
		Completed:      t.Completed,
		AssignedTo:     t.AssignedTo,
		AssignedToName: t.AssignedToName,
		DueDate:        t.DueDate,
	}
}

func EncodeUser(u domain.User) any {
	return struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email,omitempty"`
	}{u.ID, u.Name, u.Email}
}
