package domain

type Group struct {
	ID          string
	Name        string
	Description string
	Members     []string
}

func (g Group) EntityID() string {
	return g.ID
}

// Clone returns a copy that shares no backing array with g.
func (g Group) Clone() Group {
	if g.Members != nil {
		g.Members = append(make([]string, 0, len(g.Members)), g.Members...)
	}
	return g
}

// HasMember reports whether userID appears in the member list.
func (g Group) HasMember(userID string) bool {
	for _, id := range g.Members {
		if id == userID {
			return true
		}
	}
	return false
}
