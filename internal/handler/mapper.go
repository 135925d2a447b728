package handler

import (
	"github.com/mradkov043/discite-omnes-app/internal/catalog"
	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/service"
)

func domainGroupToHTTP(group domain.Group, userID string) GroupResponse {
	members := group.Members
	if members == nil {
		members = []string{}
	}
	return GroupResponse{
		GroupID:     group.ID,
		Name:        group.Name,
		Description: group.Description,
		Members:     members,
		IsMember:    catalog.IsMember(group, userID),
	}
}

func domainGroupsToHTTP(groups []domain.Group, userID string) []GroupResponse {
	result := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		result = append(result, domainGroupToHTTP(g, userID))
	}
	return result
}

func domainTaskToHTTP(task domain.Task, status domain.SyncStatus) TaskResponse {
	return TaskResponse{
		TaskID:         task.ID,
		GroupID:        task.GroupID,
		Title:          task.Title,
		Description:    task.Description,
		Completed:      task.Completed,
		AssignedTo:     task.AssignedTo,
		AssignedToName: task.AssignedToName,
		AssigneeLabel:  task.AssigneeLabel(),
		DueDate:        task.DueDate,
		DueLabel:       task.DueLabel(),
		SyncStatus:     string(status),
	}
}

func assigneesToHTTP(options []service.AssigneeOption) []AssigneeResponse {
	result := make([]AssigneeResponse, 0, len(options))
	for _, opt := range options {
		result = append(result, AssigneeResponse{UserID: opt.UserID, Name: opt.Name})
	}
	return result
}

func httpTaskToRequest(req CreateTaskRequest) service.CreateTaskRequest {
	return service.CreateTaskRequest{
		GroupID:     req.GroupID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssignedTo,
	}
}
