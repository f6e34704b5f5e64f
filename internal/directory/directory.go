// Package directory holds the users and groups identity store. All
// collections are in-memory; the owning coordinator serializes access
// and writes snapshots through to storage after every mutation.
package directory

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"teamchat/internal/apperr"
)

// phonePattern is the E.164-like format accepted for login and
// registration.
var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// ValidPhone reports whether phone matches the accepted format.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// Directory answers identity lookups over users and groups.
type Directory struct {
	users  []*User
	groups []*Group

	now   func() time.Time
	newID func() string
}

// New creates an empty directory.
func New() *Directory {
	return &Directory{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Load replaces the directory contents with restored snapshots.
func (d *Directory) Load(users []*User, groups []*Group) {
	d.users = users
	d.groups = groups
}

// Users returns all users in registration order.
func (d *Directory) Users() []*User {
	return d.users
}

// Groups returns all groups in creation order.
func (d *Directory) Groups() []*Group {
	return d.groups
}

// FindUserByPhone returns the user with an exact phone match.
func (d *Directory) FindUserByPhone(phone string) (*User, error) {
	for _, u := range d.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

// FindUserByID returns the user with the given identifier.
func (d *Directory) FindUserByID(id string) (*User, error) {
	for _, u := range d.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

// FindGroupByID returns the group with the given identifier.
func (d *Directory) FindGroupByID(id string) (*Group, error) {
	for _, g := range d.groups {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, apperr.ErrNotFound
}

// Authenticate looks up a user by phone and marks them online.
func (d *Directory) Authenticate(phone string) (*User, error) {
	u, err := d.FindUserByPhone(phone)
	if err != nil {
		return nil, err
	}
	u.Status = StatusOnline
	u.LastSeen = d.now()
	return u, nil
}

// Logout marks the user offline and stamps their last-seen time.
func (d *Directory) Logout(userID string) error {
	u, err := d.FindUserByID(userID)
	if err != nil {
		return err
	}
	u.Status = StatusOffline
	u.LastSeen = d.now()
	return nil
}

// SetStatus reassigns a user's presence and refreshes last-seen.
func (d *Directory) SetStatus(userID string, status Status) error {
	u, err := d.FindUserByID(userID)
	if err != nil {
		return err
	}
	u.Status = status
	u.LastSeen = d.now()
	return nil
}

// AddUser registers a new user. The phone must match the accepted
// format and be unused; new users start offline.
func (d *Directory) AddUser(name, phone string, role Role, avatar string) (*User, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	if name == "" || phone == "" {
		return nil, apperr.Validationf("name and phone are required")
	}
	if !ValidPhone(phone) {
		return nil, apperr.Validationf("invalid phone number %q", phone)
	}
	if _, err := d.FindUserByPhone(phone); err == nil {
		return nil, apperr.Validationf("phone number %s already registered", phone)
	}
	if avatar == "" {
		avatar = DefaultUserAvatar
	}

	u := &User{
		ID:       d.newID(),
		Name:     name,
		Phone:    phone,
		Role:     role,
		Status:   StatusOffline,
		Avatar:   avatar,
		LastSeen: d.now(),
	}
	d.users = append(d.users, u)
	return u, nil
}

// DeleteUser removes a user and cascades through group membership:
// the user leaves every group, and groups they owned pass to the first
// remaining member (or become ownerless). Message cascade is the
// caller's responsibility. Returns the removed user.
func (d *Directory) DeleteUser(userID string) (*User, error) {
	idx := -1
	for i, u := range d.users {
		if u.ID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperr.ErrNotFound
	}

	removed := d.users[idx]
	d.users = append(d.users[:idx], d.users[idx+1:]...)

	for _, g := range d.groups {
		members := g.MemberIDs[:0]
		for _, id := range g.MemberIDs {
			if id != userID {
				members = append(members, id)
			}
		}
		g.MemberIDs = members
		if g.OwnerID == userID {
			if len(g.MemberIDs) > 0 {
				g.OwnerID = g.MemberIDs[0]
			} else {
				g.OwnerID = ""
			}
		}
	}

	return removed, nil
}

// CreateGroup creates a group owned by ownerID. Membership is the
// owner plus memberIDs, deduplicated, owner first.
func (d *Directory) CreateGroup(ownerID, name string, memberIDs []string, description string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validationf("group name is required")
	}
	if len(memberIDs) == 0 {
		return nil, apperr.Validationf("group needs at least one member")
	}
	if _, err := d.FindUserByID(ownerID); err != nil {
		return nil, err
	}

	members := []string{ownerID}
	seen := map[string]bool{ownerID: true}
	for _, id := range memberIDs {
		if !seen[id] {
			members = append(members, id)
			seen[id] = true
		}
	}

	g := &Group{
		ID:          d.newID(),
		Name:        name,
		MemberIDs:   members,
		OwnerID:     ownerID,
		Avatar:      DefaultGroupAvatar,
		Description: strings.TrimSpace(description),
	}
	d.groups = append(d.groups, g)
	return g, nil
}

// DeleteGroup removes a group. Message cascade is the caller's
// responsibility. Returns the removed group.
func (d *Directory) DeleteGroup(groupID string) (*Group, error) {
	for i, g := range d.groups {
		if g.ID == groupID {
			d.groups = append(d.groups[:i], d.groups[i+1:]...)
			return g, nil
		}
	}
	return nil, apperr.ErrNotFound
}

// GroupsContaining returns the groups that include userID, in group
// creation order.
func (d *Directory) GroupsContaining(userID string) []*Group {
	var out []*Group
	for _, g := range d.groups {
		if g.IsMember(userID) {
			out = append(out, g)
		}
	}
	return out
}

// MatchUsers returns users whose name or phone contains the query,
// case-insensitively. An empty query matches everyone.
func (d *Directory) MatchUsers(query string) []*User {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return d.users
	}
	var out []*User
	for _, u := range d.users {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Phone), q) {
			out = append(out, u)
		}
	}
	return out
}
