package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"teamchat/internal/admin/app"
	"teamchat/internal/directory"
)

type groupsModel struct {
	app *app.App

	width  int
	height int

	Done bool

	state groupsState

	list list.Model
	err  error

	selected *directory.Group

	form *huh.Form

	createName        string
	createDescription string
	createOwner       string
	createMembers     []string
	createSave        bool

	deleteConfirm bool
}

type groupsState int

const (
	groupsStateList groupsState = iota
	groupsStateDetail
	groupsStateCreate
	groupsStateDelete
)

type groupItem struct {
	id    string
	title string
	desc  string
	kind  string
}

func (i groupItem) Title() string       { return i.title }
func (i groupItem) Description() string { return i.desc }
func (i groupItem) FilterValue() string { return i.title }

func newGroupsModel(a *app.App) *groupsModel {
	m := &groupsModel{app: a, state: groupsStateList}
	m.reloadList()
	return m
}

func (m *groupsModel) SetSize(w, h int) {
	m.width, m.height = w, h
	m.list.SetSize(w, h-2)
}

func (m *groupsModel) Update(msg tea.Msg) tea.Cmd {
	if m.err != nil {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "esc" || msg.String() == "q" || msg.String() == "enter" {
				m.err = nil
				m.state = groupsStateList
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
			if m.state == groupsStateList {
				m.Done = true
				return nil
			}
		case "esc":
			m.back()
			return nil
		}
	}

	switch m.state {
	case groupsStateList:
		return m.updateList(msg)
	case groupsStateDetail:
		return m.updateDetail(msg)
	case groupsStateCreate, groupsStateDelete:
		return m.updateForm(msg)
	default:
		return nil
	}
}

func (m *groupsModel) updateList(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(groupItem)
			if !ok {
				return cmd
			}
			if it.kind == "create" {
				m.startCreate()
				return nil
			}

			for _, g := range m.app.Chat.Groups() {
				if g.ID == it.id {
					sel := g
					m.selected = &sel
					break
				}
			}
			if m.selected == nil {
				m.err = fmt.Errorf("group not found")
				return nil
			}
			m.state = groupsStateDetail
			m.list = newGroupActionList(m.width, m.height)
			return nil
		}
	}

	return cmd
}

func (m *groupsModel) updateDetail(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			it, ok := m.list.SelectedItem().(groupItem)
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

func (m *groupsModel) updateForm(msg tea.Msg) tea.Cmd {
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
		case groupsStateCreate:
			if m.createSave {
				members := m.createMembers
				if len(members) == 0 {
					members = []string{m.createOwner}
				}
				if _, err := m.app.Chat.CreateGroup(m.createOwner, m.createName, members, m.createDescription); err != nil {
					m.err = err
					return nil
				}
			}
			m.form = nil
			m.state = groupsStateList
			m.reloadList()
		case groupsStateDelete:
			if m.deleteConfirm && m.selected != nil {
				if err := m.app.Chat.DeleteGroup(m.selected.ID); err != nil {
					m.err = err
					return nil
				}
				m.form = nil
				m.selected = nil
				m.state = groupsStateList
				m.reloadList()
				return nil
			}
			m.form = nil
			m.state = groupsStateDetail
			m.list = newGroupActionList(m.width, m.height)
		}
		return nil
	}
	return cmd
}

func (m *groupsModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Groups error: %v\n\nPress Enter/Esc to go back.", m.err)
	}

	switch m.state {
	case groupsStateList:
		m.list.Title = "Groups"
		return m.list.View() + "\n(q to quit, enter to select)"
	case groupsStateDetail:
		if m.selected == nil {
			return "No group selected\n\n(esc to go back)"
		}
		header := fmt.Sprintf("Group: %s %s\n", m.selected.Avatar, m.selected.Name)
		meta := fmt.Sprintf("Description: %s\nOwner: %s\nMembers: %s\n\n",
			m.selected.Description,
			m.userName(m.selected.OwnerID),
			strings.Join(m.memberNames(), ", "),
		)
		m.list.Title = "Actions"
		return header + meta + m.list.View() + "\n(esc to go back)"
	default:
		return m.form.View() + "\n\n(esc to go back)"
	}
}

func (m *groupsModel) userName(id string) string {
	for _, u := range m.app.Chat.Users() {
		if u.ID == id {
			return u.Name
		}
	}
	if id == "" {
		return "(none)"
	}
	return id
}

func (m *groupsModel) memberNames() []string {
	names := make([]string, 0, len(m.selected.MemberIDs))
	for _, id := range m.selected.MemberIDs {
		names = append(names, m.userName(id))
	}
	return names
}

func (m *groupsModel) reloadList() {
	groups := m.app.Chat.Groups()

	items := make([]list.Item, 0, len(groups)+1)
	items = append(items, groupItem{title: "+ Create new group", desc: "Start a group conversation", kind: "create"})
	for _, g := range groups {
		desc := fmt.Sprintf("%d members • %s", len(g.MemberIDs), g.Description)
		items = append(items, groupItem{id: g.ID, title: g.Avatar + " " + g.Name, desc: desc, kind: "group"})
	}

	m.list = list.New(items, list.NewDefaultDelegate(), m.width, m.height-2)
	m.list.SetShowStatusBar(false)
	m.list.SetFilteringEnabled(true)
	m.list.SetShowHelp(true)
	m.list.Title = "Groups"
}

func newGroupActionList(w, h int) list.Model {
	items := []list.Item{
		groupItem{title: "Delete group", desc: "Remove the group and all its messages", kind: "delete"},
		groupItem{title: "Back", desc: "Return to group list", kind: "back"},
	}
	l := list.New(items, list.NewDefaultDelegate(), w, h-8)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)
	return l
}

func (m *groupsModel) startCreate() {
	users := m.app.Chat.Users()
	if len(users) == 0 {
		m.err = fmt.Errorf("no users to form a group from")
		return
	}

	userOptions := make([]huh.Option[string], 0, len(users))
	for _, u := range users {
		userOptions = append(userOptions, huh.NewOption(u.Name, u.ID))
	}

	m.state = groupsStateCreate
	m.createName = ""
	m.createDescription = ""
	m.createOwner = users[0].ID
	m.createMembers = nil
	m.createSave = true
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Group name").Value(&m.createName).Validate(nonEmpty("group name")),
			huh.NewInput().Title("Description").Value(&m.createDescription),
			huh.NewSelect[string]().Title("Owner").Options(userOptions...).Value(&m.createOwner),
			huh.NewMultiSelect[string]().Title("Members").Options(userOptions...).Value(&m.createMembers),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Create group?").Value(&m.createSave),
		),
	)
}

func (m *groupsModel) startDelete() {
	m.state = groupsStateDelete
	m.deleteConfirm = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s? All its messages will be removed.", m.selected.Name)).
				Value(&m.deleteConfirm),
		),
	)
}

func (m *groupsModel) back() {
	switch m.state {
	case groupsStateList:
		m.Done = true
	case groupsStateDetail:
		m.state = groupsStateList
		m.selected = nil
		m.form = nil
		m.reloadList()
	default:
		m.state = groupsStateDetail
		m.form = nil
		m.list = newGroupActionList(m.width, m.height)
	}
}
