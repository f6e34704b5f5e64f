package directory

import (
	"errors"
	"testing"

	"teamchat/internal/apperr"
)

func TestAddUserValidPhones(t *testing.T) {
	d := New()

	phones := []string{"+1234567890", "1234567890", "+491711234567", "+999999999999999"}
	for _, phone := range phones {
		if _, err := d.AddUser("User "+phone, phone, RoleMember, ""); err != nil {
			t.Errorf("AddUser(%q): unexpected error %v", phone, err)
		}
	}
}

func TestAddUserRejectsBadInput(t *testing.T) {
	d := New()

	cases := []struct {
		name  string
		phone string
	}{
		{"", "+1234567890"},
		{"No Phone", ""},
		{"Leading Zero", "+0123456789"},
		{"Too Long", "+12345678901234567890"},
		{"Letters", "+12345abc"},
	}
	for _, tc := range cases {
		_, err := d.AddUser(tc.name, tc.phone, RoleMember, "")
		if !apperr.IsValidation(err) {
			t.Errorf("AddUser(%q, %q): expected validation error, got %v", tc.name, tc.phone, err)
		}
	}
}

func TestAddUserDuplicatePhone(t *testing.T) {
	d := New()

	if _, err := d.AddUser("First", "+1000000001", RoleMember, ""); err != nil {
		t.Fatalf("first AddUser: %v", err)
	}
	_, err := d.AddUser("Second", "+1000000001", RoleMember, "")
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for duplicate phone, got %v", err)
	}
}

func TestAddUserDefaults(t *testing.T) {
	d := New()

	u, err := d.AddUser("Plain", "+1000000002", RoleMember, "")
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if u.Status != StatusOffline {
		t.Errorf("expected new user offline, got %s", u.Status)
	}
	if u.Avatar != DefaultUserAvatar {
		t.Errorf("expected default avatar, got %q", u.Avatar)
	}
	if u.ID == "" {
		t.Error("expected a generated id")
	}
}

func TestAuthenticate(t *testing.T) {
	d := New()
	u, _ := d.AddUser("Caller", "+1000000003", RoleMember, "")

	got, err := d.Authenticate("+1000000003")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("expected user %s, got %s", u.ID, got.ID)
	}
	if got.Status != StatusOnline {
		t.Errorf("expected online after login, got %s", got.Status)
	}

	if _, err := d.Authenticate("+1999999999"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found for unknown phone, got %v", err)
	}
}

func TestLogoutMarksOffline(t *testing.T) {
	d := New()
	u, _ := d.AddUser("Caller", "+1000000004", RoleMember, "")
	if _, err := d.Authenticate(u.Phone); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if err := d.Logout(u.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if u.Status != StatusOffline {
		t.Errorf("expected offline after logout, got %s", u.Status)
	}
}

func TestCreateGroupDeduplicatesMembers(t *testing.T) {
	d := New()
	owner, _ := d.AddUser("Owner", "+1000000005", RoleAdmin, "")
	other, _ := d.AddUser("Other", "+1000000006", RoleMember, "")

	g, err := d.CreateGroup(owner.ID, "Team", []string{other.ID, owner.ID, other.ID}, "desc")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if len(g.MemberIDs) != 2 {
		t.Fatalf("expected 2 members, got %v", g.MemberIDs)
	}
	if g.MemberIDs[0] != owner.ID {
		t.Errorf("expected owner first, got %v", g.MemberIDs)
	}
	if g.OwnerID != owner.ID {
		t.Errorf("expected owner %s, got %s", owner.ID, g.OwnerID)
	}
}

func TestCreateGroupValidation(t *testing.T) {
	d := New()
	owner, _ := d.AddUser("Owner", "+1000000007", RoleMember, "")

	if _, err := d.CreateGroup(owner.ID, "", []string{owner.ID}, ""); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for empty name, got %v", err)
	}
	if _, err := d.CreateGroup(owner.ID, "Team", nil, ""); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for empty members, got %v", err)
	}
}

func TestDeleteUserCascadesMembershipAndOwnership(t *testing.T) {
	d := New()
	a, _ := d.AddUser("A", "+1000000010", RoleAdmin, "")
	b, _ := d.AddUser("B", "+1000000011", RoleMember, "")

	g, err := d.CreateGroup(a.ID, "G", []string{b.ID}, "")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	if _, err := d.DeleteUser(a.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	if g.IsMember(a.ID) {
		t.Error("deleted user still a group member")
	}
	if g.OwnerID != b.ID {
		t.Errorf("expected ownership reassigned to %s, got %s", b.ID, g.OwnerID)
	}

	if _, err := d.DeleteUser(b.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if g.OwnerID != "" {
		t.Errorf("expected ownerless group, got owner %s", g.OwnerID)
	}

	if _, err := d.DeleteUser("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found for unknown user, got %v", err)
	}
}

func TestGroupsContainingKeepsCreationOrder(t *testing.T) {
	d := New()
	u, _ := d.AddUser("U", "+1000000012", RoleMember, "")
	o, _ := d.AddUser("O", "+1000000013", RoleMember, "")

	g1, _ := d.CreateGroup(o.ID, "First", []string{u.ID}, "")
	if _, err := d.CreateGroup(o.ID, "Without", []string{o.ID}, ""); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	g3, _ := d.CreateGroup(u.ID, "Third", []string{o.ID}, "")

	got := d.GroupsContaining(u.ID)
	if len(got) != 2 || got[0].ID != g1.ID || got[1].ID != g3.ID {
		t.Errorf("unexpected groups: %+v", got)
	}
}

func TestMatchUsers(t *testing.T) {
	d := New()
	d.AddUser("John Admin", "+1234567890", RoleAdmin, "")
	d.AddUser("Sarah Manager", "+1234567891", RoleMember, "")

	if got := d.MatchUsers("john"); len(got) != 1 || got[0].Name != "John Admin" {
		t.Errorf("name match failed: %+v", got)
	}
	if got := d.MatchUsers("7891"); len(got) != 1 || got[0].Name != "Sarah Manager" {
		t.Errorf("phone match failed: %+v", got)
	}
	if got := d.MatchUsers(""); len(got) != 2 {
		t.Errorf("empty query should match all, got %d", len(got))
	}
}
