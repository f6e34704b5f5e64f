package directory

import "time"

// Role controls access to the admin surfaces.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Status is a user's reported presence.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
)

// Default avatar glyphs used when none is supplied.
const (
	DefaultUserAvatar  = "👤"
	DefaultGroupAvatar = "👥"
)

// User is a company directory entry.
type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	Role     Role      `json:"role"`
	Status   Status    `json:"status"`
	Avatar   string    `json:"avatar"`
	LastSeen time.Time `json:"lastSeen"`
}

// Group is a named conversation with an ordered member list. The owner
// is always a member; the member list keeps insertion order.
type Group struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	MemberIDs   []string `json:"members"`
	OwnerID     string   `json:"owner"`
	Avatar      string   `json:"avatar"`
	Description string   `json:"description"`
}

// IsMember reports whether userID is in the group's member list.
func (g *Group) IsMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
