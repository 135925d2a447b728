// Package catalog answers which groups a user belongs to.
package catalog

import "github.com/mradkov043/discite-omnes-app/internal/domain"

// IsMember is true iff userID appears in group.Members.
func IsMember(group domain.Group, userID string) bool {
	if userID == "" {
		return false
	}
	return group.HasMember(userID)
}

// MemberOf is the "my groups" filter predicate.
func MemberOf(group domain.Group, currentUserID string) bool {
	return IsMember(group, currentUserID)
}

// ShowAll is the "all groups" filter predicate.
func ShowAll(domain.Group, string) bool {
	return true
}

// FilterMember keeps the groups userID belongs to, in their original order.
func FilterMember(groups []domain.Group, userID string) []domain.Group {
	out := make([]domain.Group, 0, len(groups))
	for _, g := range groups {
		if IsMember(g, userID) {
			out = append(out, g)
		}
	}
	return out
}
