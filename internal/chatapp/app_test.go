package chatapp

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"teamchat/internal/apperr"
	"teamchat/internal/config"
	"teamchat/internal/db"
	"teamchat/internal/directory"
	"teamchat/internal/ledger"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	return openTestApp(t, path)
}

func openTestApp(t *testing.T, path string) *App {
	t.Helper()
	store, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	app, err := New(config.Default(), store, nil, nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestSeedOnFirstRun(t *testing.T) {
	app := newTestApp(t)

	if got := len(app.Users()); got != 5 {
		t.Errorf("expected 5 seeded users, got %d", got)
	}
	if got := len(app.Groups()); got != 2 {
		t.Errorf("expected 2 seeded groups, got %d", got)
	}

	token, u, err := app.Login("+1234567890")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Name != "John Admin" || u.Role != directory.RoleAdmin {
		t.Errorf("unexpected seeded admin: %+v", u)
	}

	contacts, err := app.Contacts(token, "")
	if err != nil {
		t.Fatalf("contacts: %v", err)
	}
	// 4 peers plus both groups, never the user themselves.
	if len(contacts) != 6 {
		t.Fatalf("expected 6 contacts, got %d", len(contacts))
	}
	for _, c := range contacts {
		if c.Target.Type == ledger.TargetUser && c.Target.ID == u.ID {
			t.Error("contact list should exclude the session user")
		}
		if c.Unread != 0 {
			t.Errorf("unread should always be 0, got %d for %s", c.Unread, c.Name)
		}
	}
}

func TestLoginValidation(t *testing.T) {
	app := newTestApp(t)

	if _, _, err := app.Login("abc"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for malformed phone, got %v", err)
	}
	if _, _, err := app.Login("+1999999999"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found for unknown phone, got %v", err)
	}
}

func TestDirectMessageFlow(t *testing.T) {
	app := newTestApp(t)
	a, err := app.AddUser("Alice", "+1000000001", directory.RoleMember, "")
	if err != nil {
		t.Fatalf("add alice: %v", err)
	}
	b, err := app.AddUser("Bob", "+1000000002", directory.RoleMember, "")
	if err != nil {
		t.Fatalf("add bob: %v", err)
	}

	aTok, _, err := app.Login("+1000000001")
	if err != nil {
		t.Fatalf("login alice: %v", err)
	}
	if _, err := app.SendText(aTok, ledger.DirectTo(b.ID), "hello Bob"); err != nil {
		t.Fatalf("send: %v", err)
	}

	bTok, _, err := app.Login("+1000000002")
	if err != nil {
		t.Fatalf("login bob: %v", err)
	}
	if err := app.SelectChat(bTok, ledger.DirectTo(a.ID)); err != nil {
		t.Fatalf("select: %v", err)
	}
	thread, err := app.Thread(bTok)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(thread) != 1 || thread[0].Content != "hello Bob" {
		t.Fatalf("unexpected thread: %+v", thread)
	}

	contacts, err := app.Contacts(bTok, "alice")
	if err != nil {
		t.Fatalf("contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].LastMessage != "hello Bob" {
		t.Fatalf("unexpected filtered contacts: %+v", contacts)
	}
}

func TestSendRequiresMembershipAndContent(t *testing.T) {
	app := newTestApp(t)
	users := app.Users()
	var tom directory.User
	for _, u := range users {
		if u.Name == "Tom Support" {
			tom = u
		}
	}
	var dev directory.Group
	for _, g := range app.Groups() {
		if g.Name == "Development Team" {
			dev = g
		}
	}

	token, _, err := app.Login(tom.Phone)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := app.SendText(token, ledger.GroupTarget(dev.ID), "hi"); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for non-member group send, got %v", err)
	}
	if _, err := app.SendText(token, ledger.DirectTo(users[0].ID), "   "); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for blank message, got %v", err)
	}
	if _, err := app.SendText(token, ledger.DirectTo("missing"), "hi"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found for unknown recipient, got %v", err)
	}
}

func TestDeleteUserCascade(t *testing.T) {
	app := newTestApp(t)
	a, _ := app.AddUser("Anna", "+1000000011", directory.RoleAdmin, "")
	b, _ := app.AddUser("Ben", "+1000000012", directory.RoleMember, "")
	c, _ := app.AddUser("Cora", "+1000000013", directory.RoleMember, "")

	g, err := app.CreateGroup(a.ID, "Project", []string{b.ID}, "")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	aTok, _, _ := app.Login(a.Phone)
	bTok, _, _ := app.Login(b.Phone)
	for i := 0; i < 3; i++ {
		if _, err := app.SendText(aTok, ledger.GroupTarget(g.ID), "from anna"); err != nil {
			t.Fatalf("group send: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := app.SendText(bTok, ledger.GroupTarget(g.ID), "from ben"); err != nil {
			t.Fatalf("group send: %v", err)
		}
	}
	if _, err := app.SendText(aTok, ledger.DirectTo(c.ID), "direct to cora"); err != nil {
		t.Fatalf("direct send: %v", err)
	}

	if err := app.DeleteUser(a.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	// Anna's session is gone.
	if _, err := app.CurrentUser(aTok); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Errorf("expected dead session after owner deletion, got %v", err)
	}

	// Ownership passed to the next member, Anna left the roster.
	var after directory.Group
	for _, gr := range app.Groups() {
		if gr.ID == g.ID {
			after = gr
		}
	}
	if after.OwnerID != b.ID {
		t.Errorf("expected ownership reassigned to %s, got %s", b.ID, after.OwnerID)
	}
	for _, id := range after.MemberIDs {
		if id == a.ID {
			t.Error("deleted user should leave the member list")
		}
	}

	// Group history survives; the direct thread does not.
	if err := app.SelectChat(bTok, ledger.GroupTarget(g.ID)); err != nil {
		t.Fatalf("select group: %v", err)
	}
	thread, err := app.Thread(bTok)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(thread) != 5 {
		t.Errorf("expected all 5 group messages to survive, got %d", len(thread))
	}

	cTok, _, _ := app.Login(c.Phone)
	contacts, err := app.Contacts(cTok, "ben")
	if err != nil {
		t.Fatalf("contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].LastMessage != ledger.PreviewUnavailable {
		t.Errorf("unexpected contacts after cascade: %+v", contacts)
	}
}

func TestDeleteGroupCascade(t *testing.T) {
	app := newTestApp(t)
	token, _, err := app.Login("+1234567890")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	var dev directory.Group
	for _, g := range app.Groups() {
		if g.Name == "Development Team" {
			dev = g
		}
	}

	if err := app.SelectChat(token, ledger.GroupTarget(dev.ID)); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := app.DeleteGroup(dev.ID); err != nil {
		t.Fatalf("delete group: %v", err)
	}

	if _, err := app.Thread(token); !apperr.IsValidation(err) {
		t.Errorf("expected cleared selection after group deletion, got %v", err)
	}
	contacts, err := app.Contacts(token, "")
	if err != nil {
		t.Fatalf("contacts: %v", err)
	}
	for _, c := range contacts {
		if c.Target.Type == ledger.TargetGroup && c.Target.ID == dev.ID {
			t.Error("deleted group should not appear in contacts")
		}
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	app := openTestApp(t, path)
	u, err := app.AddUser("Nina", "+1000000021", directory.RoleMember, "")
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	token, _, _ := app.Login("+1234567890")
	if _, err := app.SendText(token, ledger.DirectTo(u.ID), "persist me"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := app.UpdateCompanyName("Initech"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	reopened := openTestApp(t, path)
	if got := len(reopened.Users()); got != 6 {
		t.Errorf("expected 6 users after reopen (no reseed), got %d", got)
	}
	if got := reopened.Branding().Name; got != "Initech" {
		t.Errorf("expected persisted company name, got %q", got)
	}

	tok, _, err := reopened.Login("+1000000021")
	if err != nil {
		t.Fatalf("login after reopen: %v", err)
	}
	contacts, err := reopened.Contacts(tok, "john")
	if err != nil {
		t.Fatalf("contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].LastMessage != "persist me" {
		t.Errorf("expected persisted thread preview, got %+v", contacts)
	}
}

func TestSendFileLimits(t *testing.T) {
	app := newTestApp(t)
	token, _, _ := app.Login("+1234567890")
	var sarah directory.User
	for _, u := range app.Users() {
		if u.Name == "Sarah Manager" {
			sarah = u
		}
	}

	if _, err := app.SendFile(token, ledger.DirectTo(sarah.ID), "big.zip", 11*1024*1024); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for oversized file, got %v", err)
	}

	m, err := app.SendFile(token, ledger.DirectTo(sarah.ID), "report.pdf", 1536)
	if err != nil {
		t.Fatalf("send file: %v", err)
	}
	if m.Kind != ledger.KindFile || !strings.Contains(m.Content, "report.pdf") {
		t.Errorf("unexpected file message: %+v", m)
	}
}

func TestUpdateLogoDimensions(t *testing.T) {
	app := newTestApp(t)

	if err := app.UpdateLogo(pngBytes(t, 100, 40)); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for undersized logo, got %v", err)
	}
	if err := app.UpdateLogo([]byte("not an image")); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for garbage bytes, got %v", err)
	}

	if err := app.UpdateLogo(pngBytes(t, 200, 80)); err != nil {
		t.Fatalf("update logo: %v", err)
	}
	if len(app.Branding().Logo) == 0 {
		t.Error("expected logo stored after accepted upload")
	}
}

func TestMentionNotification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	store, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer store.Close()

	var titles []string
	notifier := NotifierFunc(func(title, body string, severity Severity) {
		titles = append(titles, title)
	})
	app, err := New(config.Default(), store, nil, notifier)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	token, _, err := app.Login("+1234567892")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	var dev directory.Group
	for _, g := range app.Groups() {
		if g.Name == "Development Team" {
			dev = g
		}
	}
	if _, err := app.SendText(token, ledger.GroupTarget(dev.ID), "please review @Lisa Designer"); err != nil {
		t.Fatalf("send: %v", err)
	}

	found := false
	for _, title := range titles {
		if title == "You were mentioned" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected mention notification, got titles %v", titles)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	app := newTestApp(t)
	token, u, _ := app.Login("+1234567890")

	if err := app.Logout(token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := app.CurrentUser(token); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Errorf("expected dead session after logout, got %v", err)
	}
	for _, again := range app.Users() {
		if again.ID == u.ID && again.Status != directory.StatusOffline {
			t.Errorf("expected offline after logout, got %s", again.Status)
		}
	}
}
