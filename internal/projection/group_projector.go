package projection

import (
	"github.com/mradkov043/discite-omnes-app/internal/catalog"
	"github.com/mradkov043/discite-omnes-app/internal/codec"
	"github.com/mradkov043/discite-omnes-app/internal/domain"
	"github.com/mradkov043/discite-omnes-app/internal/store"
)

// GroupPredicate decides whether a group is visible to the current user.
type GroupPredicate func(group domain.Group, currentUserID string) bool

// GroupProjector projects every group in the store. It starts with
// catalog.ShowAll as its predicate.
type GroupProjector struct {
	*Projector[domain.Group]
	currentUserID string
}

func NewGroupProjector(s store.RemoteStore, currentUserID string, opts ...Option) *GroupProjector {
	p := &GroupProjector{
		Projector:     newProjector[domain.Group]("group", s, store.CollectionQuery(store.GroupsCollection), codec.DecodeGroup, opts),
		currentUserID: currentUserID,
	}
	p.filter = p.bind(catalog.ShowAll)
	return p
}

func (p *GroupProjector) CurrentUserID() string {
	return p.currentUserID
}

// SetFilterPredicate switches between views such as catalog.ShowAll and
// catalog.MemberOf. It never fetches from the store.
func (p *GroupProjector) SetFilterPredicate(pred GroupPredicate) {
	p.SetFilter(p.bind(pred))
}

func (p *GroupProjector) bind(pred GroupPredicate) func(domain.Group) bool {
	if pred == nil {
		return nil
	}
	userID := p.currentUserID
	return func(g domain.Group) bool {
		return pred(g, userID)
	}
}
