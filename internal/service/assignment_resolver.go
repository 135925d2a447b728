package service

import (
	"context"
)

// AssigneeOption is one entry of the assignee picker. Name is a display label
// and may repeat across options; UserID is unique.
type AssigneeOption struct {
	UserID string
	Name   string
}

type AssignmentResolver interface {
	LoadPicker(ctx context.Context, groupID string) (*AssigneePicker, error)
}

// AssigneePicker keeps group members in join order, keyed by user id.
type AssigneePicker struct {
	options []AssigneeOption
	byID    map[string]int
}

func NewAssigneePicker(options []AssigneeOption) *AssigneePicker {
	p := &AssigneePicker{
		options: make([]AssigneeOption, 0, len(options)),
		byID:    make(map[string]int, len(options)),
	}
	for _, opt := range options {
		if opt.UserID == "" {
			continue
		}
		if _, dup := p.byID[opt.UserID]; dup {
			continue
		}
		p.byID[opt.UserID] = len(p.options)
		p.options = append(p.options, opt)
	}
	return p
}

func (p *AssigneePicker) Options() []AssigneeOption {
	return append([]AssigneeOption(nil), p.options...)
}

func (p *AssigneePicker) Labels() []string {
	labels := make([]string, 0, len(p.options))
	for _, opt := range p.options {
		labels = append(labels, opt.Name)
	}
	return labels
}

func (p *AssigneePicker) Resolve(userID string) (AssigneeOption, bool) {
	i, ok := p.byID[userID]
	if !ok {
		return AssigneeOption{}, false
	}
	return p.options[i], true
}

func (p *AssigneePicker) Len() int {
	return len(p.options)
}
