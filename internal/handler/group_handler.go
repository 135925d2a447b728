package handler

import (
	"context"
	"net/http"

	"github.com/mradkov043/discite-omnes-app/internal/catalog"
	"github.com/mradkov043/discite-omnes-app/internal/domain"
)

const (
	filterAll  = "all"
	filterMine = "mine"
)

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	var req CreateGroupRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleError(w, err)
		return
	}

	group, err := h.groupService.CreateGroup(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateGroupResponse{
		Group: domainGroupToHTTP(*group, userID),
	})
}

// ListGroups отдает группы из живой проекции; filter=mine оставляет только
// группы текущего пользователя. Проекция общая для всех запросов, поэтому
// фильтр применяется на запрос через catalog.FilterMember, тот же предикат,
// что catalog.MemberOf в GroupProjector.SetFilterPredicate
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	filter := r.URL.Query().Get("filter")
	if filter == "" {
		filter = filterAll
	}
	if filter != filterAll && filter != filterMine {
		h.handleError(w, domain.NewInvalidInputError("filter must be 'all' or 'mine'"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.readyTimeout)
	defer cancel()
	if err := h.groups.WaitReady(ctx); err != nil {
		h.handleError(w, err)
		return
	}

	groups := h.groups.Items()
	if filter == filterMine {
		groups = catalog.FilterMember(groups, userID)
	}

	writeJSON(w, http.StatusOK, GroupsResponse{
		Filter: filter,
		Groups: domainGroupsToHTTP(groups, userID),
	})
}

func (h *Handler) MyGroups(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	groups, err := h.groupService.MyGroups(r.Context(), userID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GroupsResponse{
		Filter: filterMine,
		Groups: domainGroupsToHTTP(groups, userID),
	})
}

func (h *Handler) ToggleMembership(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	var req ToggleMembershipRequest
	if err := decodeBody(r, &req); err != nil {
		h.handleError(w, err)
		return
	}
	if req.GroupID == "" {
		h.handleError(w, domain.NewPreconditionError("group_id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.readyTimeout)
	defer cancel()
	if err := h.groups.WaitReady(ctx); err != nil {
		h.handleError(w, err)
		return
	}

	group, ok := h.groups.Get(req.GroupID)
	if !ok {
		h.handleError(w, domain.NewNotFoundError("group with id "+req.GroupID))
		return
	}

	outcome, err := h.membershipService.ToggleMembership(r.Context(), &group, userID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ToggleMembershipResponse{
		Outcome: string(outcome),
		Group:   domainGroupToHTTP(group, userID),
	})
}
