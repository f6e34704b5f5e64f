// Package session tracks the authenticated user and the currently open
// conversation. Sessions are transient: nothing here is persisted, and
// logout resets everything.
package session

import (
	"teamchat/internal/apperr"
	"teamchat/internal/directory"
	"teamchat/internal/ledger"
)

// Session scopes directory and ledger queries to one logged-in user.
type Session struct {
	user *directory.User
	chat *ledger.Target
}

// New creates a session for an authenticated user.
func New(u *directory.User) *Session {
	return &Session{user: u}
}

// User returns the authenticated user, or nil after logout.
func (s *Session) User() *directory.User {
	return s.user
}

// Login replaces the session's user. A reentrant login simply swaps the
// user and drops the previous chat selection.
func (s *Session) Login(u *directory.User) {
	s.user = u
	s.chat = nil
}

// Logout clears the user and the chat selection.
func (s *Session) Logout() {
	s.user = nil
	s.chat = nil
}

// SelectChat opens a conversation. Group targets require membership.
func (s *Session) SelectChat(dir *directory.Directory, target ledger.Target) error {
	if s.user == nil {
		return apperr.ErrPermissionDenied
	}
	if !target.Valid() {
		return apperr.Validationf("invalid chat target")
	}

	switch target.Type {
	case ledger.TargetUser:
		if _, err := dir.FindUserByID(target.ID); err != nil {
			return err
		}
	case ledger.TargetGroup:
		g, err := dir.FindGroupByID(target.ID)
		if err != nil {
			return err
		}
		if !g.IsMember(s.user.ID) {
			return apperr.Validationf("not a member of group %s", g.Name)
		}
	}

	t := target
	s.chat = &t
	return nil
}

// DeselectIf clears the chat selection when it points at target. Used
// by cascade deletes so a session never holds a dangling conversation.
func (s *Session) DeselectIf(target ledger.Target) {
	if s.chat != nil && s.chat.Type == target.Type && s.chat.ID == target.ID {
		s.chat = nil
	}
}

// Current returns the open conversation, or nil when none is selected.
func (s *Session) Current() *ledger.Target {
	return s.chat
}
