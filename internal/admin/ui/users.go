package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"teamchat/internal/admin/app"
	"teamchat/internal/directory"
)

type usersModel struct {
	app *app.App

	width  int
	height int

	Done bool

	state usersState

	list list.Model
	err  error

	selected *directory.User

	form *huh.Form

	createName   string
	createPhone  string
	createRole   string
	createAvatar string
	createSave   bool

	deleteConfirm bool
}

type usersState int

const (
	usersStateList usersState = iota
	usersStateDetail
	usersStateCreate
	usersStateDelete
)

type userItem struct {
	id    string
	title string
	desc  string
	kind  string
}

func (i userItem) Title() string       { return i.title }
func (i userItem) Description() string { return i.desc }
func (i userItem) FilterValue() string { return i.title }

func newUsersModel(a *app.App) *usersModel {
	m := &usersModel{app: a, state: usersStateList}
	m.reloadList()
	return m
}

func (m *usersModel) SetSize(w, h int) {
	m.width, m.height = w, h
	m.list.SetSize(w, h-2)
}

func (m *usersModel) Update(msg tea.Msg) tea.Cmd {
	if m.err != nil {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "esc" || msg.String() == "q" || msg.String() == "enter" {
				m.err = nil
				m.state = usersStateList
				m.form = nil
				m.selected = nil
				m.reloadList()
			}
		}
		return nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			if m.state == usersStateList {
				m.Done = true
				return nil
			}
		case "esc":
			m.back()
			return nil
		}
	}

	switch m.state {
	case usersStateList:
		return m.updateList(msg)
	case usersStateDetail:
		return m.updateDetail(msg)
	case usersStateCreate, usersStateDelete:
		return m.updateForm(msg)
	default:
		return nil
	}
}

func (m *usersModel) updateList(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(userItem)
			if !ok {
				return cmd
			}
			if it.kind == "create" {
				m.startCreate()
				return nil
			}

			for _, u := range m.app.Chat.Users() {
				if u.ID == it.id {
					sel := u
					m.selected = &sel
					break
				}
			}
			if m.selected == nil {
				m.err = fmt.Errorf("user not found")
				return nil
			}
			m.state = usersStateDetail
			m.list = newUserActionList(m.width, m.height)
			return nil
		}
	}

	return cmd
}

func (m *usersModel) updateDetail(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(userItem)
			if !ok {
				return cmd
			}
			switch it.kind {
			case "delete":
				m.startDelete()
			case "back":
				m.back()
			}
			return nil
		}
	}

	return cmd
}

func (m *usersModel) updateForm(msg tea.Msg) tea.Cmd {
	if m.form == nil {
		m.err = fmt.Errorf("internal error: form not initialized")
		return nil
	}
	var cmd tea.Cmd
	updated, cmd := m.form.Update(msg)
	f, ok := updated.(*huh.Form)
	if !ok {
		m.err = fmt.Errorf("internal error: unexpected form model type")
		return nil
	}
	m.form = f
	if m.form.State == huh.StateCompleted {
		switch m.state {
		case usersStateCreate:
			if m.createSave {
				role := directory.RoleMember
				if m.createRole == string(directory.RoleAdmin) {
					role = directory.RoleAdmin
				}
				if _, err := m.app.Chat.AddUser(m.createName, m.createPhone, role, m.createAvatar); err != nil {
					m.err = err
					return nil
				}
			}
			m.form = nil
			m.state = usersStateList
			m.reloadList()
		case usersStateDelete:
			if m.deleteConfirm && m.selected != nil {
				if err := m.app.Chat.DeleteUser(m.selected.ID); err != nil {
					m.err = err
					return nil
				}
				m.form = nil
				m.selected = nil
				m.state = usersStateList
				m.reloadList()
				return nil
			}
			m.form = nil
			m.state = usersStateDetail
			m.list = newUserActionList(m.width, m.height)
		}
		return nil
	}
	return cmd
}

func (m *usersModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Users error: %v\n\nPress Enter/Esc to go back.", m.err)
	}

	switch m.state {
	case usersStateList:
		m.list.Title = "Users"
		return m.list.View() + "\n(q to quit, enter to select)"
	case usersStateDetail:
		if m.selected == nil {
			return "No user selected\n\n(esc to go back)"
		}
		header := fmt.Sprintf("User: %s %s\n", m.selected.Avatar, m.selected.Name)
		meta := fmt.Sprintf("Phone: %s\nRole: %s\nStatus: %s\nLast seen: %s\n\n",
			m.selected.Phone, m.selected.Role, m.selected.Status,
			m.selected.LastSeen.Format("2006-01-02 15:04"),
		)
		m.list.Title = "Actions"
		return header + meta + m.list.View() + "\n(esc to go back)"
	default:
		return m.form.View() + "\n\n(esc to go back)"
	}
}

func (m *usersModel) reloadList() {
	users := m.app.Chat.Users()

	items := make([]list.Item, 0, len(users)+1)
	items = append(items, userItem{title: "+ Add new user", desc: "Register a directory entry", kind: "create"})
	for _, u := range users {
		desc := fmt.Sprintf("%s • %s • %s", u.Phone, u.Role, u.Status)
		items = append(items, userItem{id: u.ID, title: u.Avatar + " " + u.Name, desc: desc, kind: "user"})
	}

	m.list = list.New(items, list.NewDefaultDelegate(), m.width, m.height-2)
	m.list.SetShowStatusBar(false)
	m.list.SetFilteringEnabled(true)
	m.list.SetShowHelp(true)
	m.list.Title = "Users"
}

func newUserActionList(w, h int) list.Model {
	items := []list.Item{
		userItem{title: "Delete user", desc: "Remove user, their chats and group memberships", kind: "delete"},
		userItem{title: "Back", desc: "Return to user list", kind: "back"},
	}
	l := list.New(items, list.NewDefaultDelegate(), w, h-8)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)
	return l
}

func (m *usersModel) startCreate() {
	m.state = usersStateCreate
	m.createName = ""
	m.createPhone = ""
	m.createRole = string(directory.RoleMember)
	m.createAvatar = ""
	m.createSave = true
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&m.createName).Validate(nonEmpty("name")),
			huh.NewInput().Title("Phone").Value(&m.createPhone).Validate(validPhone),
			huh.NewSelect[string]().Title("Role").Options(
				huh.NewOption("Member", string(directory.RoleMember)),
				huh.NewOption("Admin", string(directory.RoleAdmin)),
			).Value(&m.createRole),
			huh.NewInput().Title("Avatar (emoji, optional)").Value(&m.createAvatar),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Add user?").Value(&m.createSave),
		),
	)
}

func (m *usersModel) startDelete() {
	m.state = usersStateDelete
	m.deleteConfirm = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s? Their direct chats will be removed.", m.selected.Name)).
				Value(&m.deleteConfirm),
		),
	)
}

func (m *usersModel) back() {
	switch m.state {
	case usersStateList:
		m.Done = true
	case usersStateDetail:
		m.state = usersStateList
		m.selected = nil
		m.form = nil
		m.reloadList()
	default:
		m.state = usersStateDetail
		m.form = nil
		m.list = newUserActionList(m.width, m.height)
	}
}
