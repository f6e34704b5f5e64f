// Package chatapp wires the directory, the message ledger, and the
// snapshot store into one coordinator. Every entry point serializes on
// the app mutex and writes the touched collections back to storage
// before returning, so the database always holds the latest state.
package chatapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"teamchat/internal/apperr"
	"teamchat/internal/config"
	"teamchat/internal/db"
	"teamchat/internal/directory"
	"teamchat/internal/ledger"
	"teamchat/internal/session"
)

// DefaultCompanyName is used until an admin renames the workspace.
const DefaultCompanyName = "TechCorp Inc."

var mentionPattern = regexp.MustCompile(`@(\w+(?:\s\w+)?)`)

// Settings is the persisted branding state. Only the company name and
// the logo survive restarts.
type Settings struct {
	Name string `json:"name"`
	Logo []byte `json:"logo,omitempty"`
}

// Contact is one entry in a user's contact list: a peer or a group,
// annotated with presence and the latest conversation preview.
type Contact struct {
	Target      ledger.Target    `json:"target"`
	Name        string           `json:"name"`
	Avatar      string           `json:"avatar"`
	Phone       string           `json:"phone,omitempty"`
	Status      directory.Status `json:"status,omitempty"`
	Members     int              `json:"members,omitempty"`
	LastMessage string           `json:"lastMessage"`
	Unread      int              `json:"unread"`
}

// App is the application coordinator. All state behind the mutex.
type App struct {
	mu sync.Mutex

	cfg      *config.Config
	store    *db.DB
	log      *zap.Logger
	notifier Notifier

	dir      *directory.Directory
	ledger   *ledger.Ledger
	settings Settings

	sessions map[string]*session.Session
	newToken func() string
}

// New loads the snapshots from the store, seeding the demo dataset on
// first run, and returns a ready coordinator.
func New(cfg *config.Config, store *db.DB, log *zap.Logger, notifier Notifier) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = NopNotifier()
	}

	a := &App{
		cfg:      cfg,
		store:    store,
		log:      log,
		notifier: notifier,
		dir:      directory.New(),
		ledger:   ledger.New(),
		sessions: make(map[string]*session.Session),
		newToken: uuid.NewString,
	}
	if err := a.load(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) load() error {
	raw, ok, err := a.store.Get(db.KeyUsers)
	if err != nil {
		return err
	}
	if !ok {
		a.seed()
		a.log.Info("seeded demo dataset",
			zap.Int("users", len(a.dir.Users())),
			zap.Int("groups", len(a.dir.Groups())),
			zap.Int("messages", len(a.ledger.Messages())))
		return a.persistAll()
	}

	var users []*directory.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return fmt.Errorf("decode users snapshot: %w", err)
	}

	var groups []*directory.Group
	if raw, ok, err = a.store.Get(db.KeyGroups); err != nil {
		return err
	} else if ok {
		if err := json.Unmarshal(raw, &groups); err != nil {
			return fmt.Errorf("decode groups snapshot: %w", err)
		}
	}

	var msgs []*ledger.Message
	if raw, ok, err = a.store.Get(db.KeyMessages); err != nil {
		return err
	} else if ok {
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return fmt.Errorf("decode messages snapshot: %w", err)
		}
	}

	a.settings = Settings{Name: DefaultCompanyName}
	if raw, ok, err = a.store.Get(db.KeySettings); err != nil {
		return err
	} else if ok {
		if err := json.Unmarshal(raw, &a.settings); err != nil {
			return fmt.Errorf("decode settings snapshot: %w", err)
		}
	}

	a.dir.Load(users, groups)
	a.ledger.Load(msgs)
	return nil
}

func (a *App) persistAll() error {
	if err := a.saveUsers(); err != nil {
		return err
	}
	if err := a.saveGroups(); err != nil {
		return err
	}
	if err := a.saveMessages(); err != nil {
		return err
	}
	return a.saveSettings()
}

func (a *App) saveUsers() error {
	return a.saveKey(db.KeyUsers, a.dir.Users())
}

func (a *App) saveGroups() error {
	return a.saveKey(db.KeyGroups, a.dir.Groups())
}

func (a *App) saveMessages() error {
	return a.saveKey(db.KeyMessages, a.ledger.Messages())
}

func (a *App) saveSettings() error {
	return a.saveKey(db.KeySettings, a.settings)
}

func (a *App) saveKey(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", key, err)
	}
	return a.store.Set(key, raw)
}

func (a *App) sessionFor(token string) (*session.Session, error) {
	sess, ok := a.sessions[token]
	if !ok || sess.User() == nil {
		return nil, apperr.ErrPermissionDenied
	}
	return sess, nil
}

// Login authenticates by phone number and opens a session. It returns
// the session token and the authenticated user.
func (a *App) Login(phone string) (string, directory.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	phone = strings.TrimSpace(phone)
	if !directory.ValidPhone(phone) {
		return "", directory.User{}, apperr.Validationf("please enter a valid phone number")
	}

	u, err := a.dir.Authenticate(phone)
	if err != nil {
		return "", directory.User{}, err
	}
	if err := a.saveUsers(); err != nil {
		return "", directory.User{}, err
	}

	token := a.newToken()
	a.sessions[token] = session.New(u)

	a.log.Info("user logged in", zap.String("user", u.ID), zap.String("name", u.Name))
	a.notifier.Notify("Login successful", fmt.Sprintf("Welcome back, %s!", u.Name), SeveritySuccess)
	return token, *u, nil
}

// Logout ends the session and marks the user offline.
func (a *App) Logout(token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.sessionFor(token)
	if err != nil {
		return err
	}

	u := sess.User()
	if err := a.dir.Logout(u.ID); err != nil {
		return err
	}
	sess.Logout()
	delete(a.sessions, token)

	a.log.Info("user logged out", zap.String("user", u.ID))
	return a.saveUsers()
}

// CurrentUser returns the user behind a session token.
func (a *App) CurrentUser(token string) (directory.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.sessionFor(token)
	if err != nil {
		return directory.User{}, err
	}
	return *sess.User(), nil
}

// SelectChat opens a conversation in the session. Group targets
// require membership.
func (a *App) SelectChat(token string, target ledger.Target) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.sessionFor(token)
	if err != nil {
		return err
	}
	return sess.SelectChat(a.dir, target)
}

// Contacts lists the session user's peers and groups, filtered by an
// optional search query and annotated with previews.
func (a *App) Contacts(token, query string) ([]Contact, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.sessionFor(token)
	if err != nil {
		return nil, err
	}
	self := sess.User()
	q := strings.ToLower(strings.TrimSpace(query))

	var out []Contact
	for _, u := range a.dir.MatchUsers(query) {
		if u.ID == self.ID {
			continue
		}
		out = append(out, Contact{
			Target:      ledger.DirectTo(u.ID),
			Name:        u.Name,
			Avatar:      u.Avatar,
			Phone:       u.Phone,
			Status:      u.Status,
			LastMessage: a.ledger.LastPreview(self.ID, u.ID, false),
			Unread:      a.ledger.UnreadCount(self.ID, u.ID, false),
		})
	}
	for _, g := range a.dir.GroupsContaining(self.ID) {
		if q != "" && !strings.Contains(strings.ToLower(g.Name), q) {
			continue
		}
		out = append(out, Contact{
			Target:      ledger.GroupTarget(g.ID),
			Name:        g.Name,
			Avatar:      g.Avatar,
			Members:     len(g.MemberIDs),
			LastMessage: a.ledger.LastPreview(self.ID, g.ID, true),
			Unread:      a.ledger.UnreadCount(self.ID, g.ID, true),
		})
	}
	return out, nil
}

// Thread returns the messages of the session's open conversation.
func (a *App) Thread(token string) ([]ledger.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.sessionFor(token)
	if err != nil {
		return nil, err
	}
	cur := sess.Current()
	if cur == nil {
		return nil, apperr.Validationf("no chat selected")
	}

	var thread []*ledger.Message
	if cur.Type == ledger.TargetGroup {
		thread = a.ledger.ThreadOf(cur.ID)
	} else {
		thread = a.ledger.ThreadWith(sess.User().ID, cur.ID)
	}

	out := make([]ledger.Message, len(thread))
	for i, m := range thread {
		out[i] = *m
	}
	return out, nil
}

func (a *App) validateTarget(u *directory.User, target ledger.Target) error {
	if !target.Valid() {
		return apperr.Validationf("invalid chat target")
	}
	switch target.Type {
	case ledger.TargetUser:
		if _, err := a.dir.FindUserByID(target.ID); err != nil {
			return err
		}
	case ledger.TargetGroup:
		g, err := a.dir.FindGroupByID(target.ID)
		if err != nil {
			return err
		}
		if !g.IsMember(u.ID) {
			return apperr.Validationf("not a member of group %s", g.Name)
		}
	}
	return nil
}

// SendText appends a text message from the session user to target.
func (a *App) SendText(token string, target ledger.Target, content string) (ledger.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.sessionFor(token)
	if err != nil {
		return ledger.Message{}, err
	}
	u := sess.User()

	content = strings.TrimSpace(content)
	if content == "" {
		return ledger.Message{}, apperr.Validationf("message cannot be empty")
	}
	if err := a.validateTarget(u, target); err != nil {
		return ledger.Message{}, err
	}

	m, err := a.ledger.AppendText(u.ID, target, content)
	if err != nil {
		return ledger.Message{}, err
	}
	if err := a.saveMessages(); err != nil {
		return ledger.Message{}, err
	}

	a.notifyMentions(u, content)
	a.log.Debug("message sent",
		zap.Int64("id", m.ID),
		zap.String("sender", u.ID),
		zap.String("target", string(target.Type)+":"+target.ID))
	return *m, nil
}

// notifyMentions scans content for @Name references and raises a
// notification for every matched user.
func (a *App) notifyMentions(sender *directory.User, content string) {
	for _, match := range mentionPattern.FindAllStringSubmatch(content, -1) {
		name := strings.ToLower(strings.TrimSpace(match[1]))
		if name == "" {
			continue
		}
		for _, u := range a.dir.Users() {
			if u.ID == sender.ID {
				continue
			}
			if strings.Contains(strings.ToLower(u.Name), name) {
				a.notifier.Notify("You were mentioned",
					fmt.Sprintf("%s mentioned %s", sender.Name, u.Name), SeverityInfo)
			}
		}
	}
}

// SendFile appends a file attachment message. Only the name and size
// are recorded; content bytes are not stored.
func (a *App) SendFile(token string, target ledger.Target, fileName string, fileSize int64) (ledger.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.sessionFor(token)
	if err != nil {
		return ledger.Message{}, err
	}
	u := sess.User()

	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return ledger.Message{}, apperr.Validationf("file name is required")
	}
	if fileSize < 0 {
		return ledger.Message{}, apperr.Validationf("invalid file size")
	}
	if fileSize > a.cfg.Limits.MaxFileBytes {
		return ledger.Message{}, apperr.Validationf("file size must be less than %s",
			ledger.FormatFileSize(a.cfg.Limits.MaxFileBytes))
	}
	if err := a.validateTarget(u, target); err != nil {
		return ledger.Message{}, err
	}

	m, err := a.ledger.AppendFile(u.ID, target, fileName, fileSize)
	if err != nil {
		return ledger.Message{}, err
	}
	if err := a.saveMessages(); err != nil {
		return ledger.Message{}, err
	}

	a.notifier.Notify("File uploaded", fileName, SeveritySuccess)
	return *m, nil
}

// DeleteMessage removes one message. Senders may delete their own
// messages; admins may delete any.
func (a *App) DeleteMessage(token string, messageID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.sessionFor(token)
	if err != nil {
		return err
	}
	u := sess.User()

	if err := a.ledger.Delete(messageID, u.ID, u.Role == directory.RoleAdmin); err != nil {
		return err
	}
	if err := a.saveMessages(); err != nil {
		return err
	}

	a.notifier.Notify("Message deleted", "", SeverityInfo)
	return nil
}

// Users returns every directory entry in registration order.
func (a *App) Users() []directory.User {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]directory.User, 0, len(a.dir.Users()))
	for _, u := range a.dir.Users() {
		out = append(out, *u)
	}
	return out
}

// Groups returns every group in creation order.
func (a *App) Groups() []directory.Group {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]directory.Group, 0, len(a.dir.Groups()))
	for _, g := range a.dir.Groups() {
		cp := *g
		cp.MemberIDs = append([]string(nil), g.MemberIDs...)
		out = append(out, cp)
	}
	return out
}

// AddUser registers a new user in the directory.
func (a *App) AddUser(name, phone string, role directory.Role, avatar string) (directory.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u, err := a.dir.AddUser(name, phone, role, avatar)
	if err != nil {
		return directory.User{}, err
	}
	if err := a.saveUsers(); err != nil {
		return directory.User{}, err
	}

	a.log.Info("user added", zap.String("user", u.ID), zap.String("name", u.Name))
	a.notifier.Notify("User added", fmt.Sprintf("%s (%s)", u.Name, u.Phone), SeveritySuccess)
	return *u, nil
}

// DeleteUser removes a user and runs the full cascade: their direct
// messages disappear, they leave every group, groups they owned pass
// to the next member, and their live sessions end.
func (a *App) DeleteUser(userID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed, err := a.dir.DeleteUser(userID)
	if err != nil {
		return err
	}
	dropped := a.ledger.RemoveUser(userID)

	for token, sess := range a.sessions {
		if u := sess.User(); u != nil && u.ID == userID {
			sess.Logout()
			delete(a.sessions, token)
			continue
		}
		sess.DeselectIf(ledger.DirectTo(userID))
	}

	if err := a.persistAll(); err != nil {
		return err
	}

	a.log.Info("user deleted",
		zap.String("user", userID),
		zap.String("name", removed.Name),
		zap.Int("messages_removed", dropped))
	a.notifier.Notify("User deleted", removed.Name, SeverityInfo)
	return nil
}

// CreateGroup creates a group owned by ownerID. The owner is always a
// member.
func (a *App) CreateGroup(ownerID, name string, memberIDs []string, description string) (directory.Group, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	g, err := a.dir.CreateGroup(ownerID, name, memberIDs, description)
	if err != nil {
		return directory.Group{}, err
	}
	if err := a.saveGroups(); err != nil {
		return directory.Group{}, err
	}

	a.log.Info("group created", zap.String("group", g.ID), zap.String("name", g.Name))
	a.notifier.Notify("Group created", g.Name, SeveritySuccess)

	cp := *g
	cp.MemberIDs = append([]string(nil), g.MemberIDs...)
	return cp, nil
}

// DeleteGroup removes a group and every message posted to it.
func (a *App) DeleteGroup(groupID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed, err := a.dir.DeleteGroup(groupID)
	if err != nil {
		return err
	}
	dropped := a.ledger.RemoveGroup(groupID)

	for _, sess := range a.sessions {
		sess.DeselectIf(ledger.GroupTarget(groupID))
	}

	if err := a.saveGroups(); err != nil {
		return err
	}
	if err := a.saveMessages(); err != nil {
		return err
	}

	a.log.Info("group deleted",
		zap.String("group", groupID),
		zap.String("name", removed.Name),
		zap.Int("messages_removed", dropped))
	a.notifier.Notify("Group deleted", removed.Name, SeverityInfo)
	return nil
}

// Branding returns the current company settings.
func (a *App) Branding() Settings {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.settings
	s.Logo = append([]byte(nil), a.settings.Logo...)
	return s
}

// UpdateCompanyName renames the workspace.
func (a *App) UpdateCompanyName(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validationf("company name is required")
	}
	a.settings.Name = name
	if err := a.saveSettings(); err != nil {
		return err
	}

	a.notifier.Notify("Settings saved", name, SeveritySuccess)
	return nil
}

// UpdateLogo replaces the company logo. The image must decode and meet
// the minimum dimensions.
func (a *App) UpdateLogo(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cfgImg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return apperr.Validationf("unsupported image format")
	}
	minW, minH := a.cfg.Limits.LogoMinWidth, a.cfg.Limits.LogoMinHeight
	if cfgImg.Width < minW || cfgImg.Height < minH {
		return apperr.Validationf("logo must be at least %dx%d pixels", minW, minH)
	}

	a.settings.Logo = append([]byte(nil), data...)
	if err := a.saveSettings(); err != nil {
		return err
	}

	a.log.Info("logo updated",
		zap.String("format", format),
		zap.Int("width", cfgImg.Width),
		zap.Int("height", cfgImg.Height))
	a.notifier.Notify("Logo updated", "", SeveritySuccess)
	return nil
}

// ActiveUsers returns the users behind live sessions.
func (a *App) ActiveUsers() []directory.User {
	a.mu.Lock()
	defer a.mu.Unlock()

	seen := make(map[string]bool)
	var out []directory.User
	for _, sess := range a.sessions {
		if u := sess.User(); u != nil && !seen[u.ID] {
			seen[u.ID] = true
			out = append(out, *u)
		}
	}
	return out
}

// OnlineUsers returns every user currently marked online.
func (a *App) OnlineUsers() []directory.User {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []directory.User
	for _, u := range a.dir.Users() {
		if u.Status == directory.StatusOnline {
			out = append(out, *u)
		}
	}
	return out
}

// DeliverSimulated appends a direct message on behalf of fromID and
// raises a new-message notification. Used by the presence simulator.
func (a *App) DeliverSimulated(fromID, toID, content string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	from, err := a.dir.FindUserByID(fromID)
	if err != nil {
		return err
	}
	if _, err := a.dir.FindUserByID(toID); err != nil {
		return err
	}

	if _, err := a.ledger.AppendText(fromID, ledger.DirectTo(toID), content); err != nil {
		return err
	}
	if err := a.saveMessages(); err != nil {
		return err
	}

	a.notifier.Notify(fmt.Sprintf("New message from %s", from.Name), content, SeverityInfo)
	return nil
}

// ChurnStatus reassigns a user's presence. Used by the simulator for
// users without a live session.
func (a *App) ChurnStatus(userID string, status directory.Status) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.dir.SetStatus(userID, status); err != nil {
		return err
	}
	return a.saveUsers()
}
