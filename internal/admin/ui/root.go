package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"teamchat/internal/admin/app"
)

type screen int

const (
	screenHome screen = iota
	screenBranding
	screenUsers
	screenGroups
)

type rootModel struct {
	app *app.App

	width  int
	height int

	active screen

	homeList list.Model
	err      error

	branding *brandingModel
	users    *usersModel
	groups   *groupsModel
}

type menuItem struct {
	title string
	desc  string
	to    screen
}

func (m menuItem) Title() string       { return m.title }
func (m menuItem) Description() string { return m.desc }
func (m menuItem) FilterValue() string { return m.title }

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func NewRootModel(a *app.App) tea.Model {
	items := []list.Item{
		menuItem{title: "Company Settings", desc: "Edit company name and logo", to: screenBranding},
		menuItem{title: "Users", desc: "Manage the company directory", to: screenUsers},
		menuItem{title: "Groups", desc: "View and delete chat groups", to: screenGroups},
		menuItem{title: "Quit", desc: "Exit", to: -1},
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = a.Chat.Branding().Name + " Admin"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)

	return &rootModel{
		app:      a,
		active:   screenHome,
		homeList: l,
	}
}

func (m *rootModel) Init() tea.Cmd {
	return nil
}

func (m *rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.homeList.SetSize(msg.Width, msg.Height-2)
		if m.branding != nil {
			m.branding.SetSize(msg.Width, msg.Height)
		}
		if m.users != nil {
			m.users.SetSize(msg.Width, msg.Height)
		}
		if m.groups != nil {
			m.groups.SetSize(msg.Width, msg.Height)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	}

	switch m.active {
	case screenHome:
		return m.updateHome(msg)
	case screenBranding:
		if m.branding == nil {
			m.branding = newBrandingModel(m.app)
			m.branding.SetSize(m.width, m.height)
		}
		cmd := m.branding.Update(msg)
		if m.branding.Done {
			m.active = screenHome
			m.branding = nil
		}
		return m, cmd
	case screenUsers:
		if m.users == nil {
			m.users = newUsersModel(m.app)
			m.users.SetSize(m.width, m.height)
		}
		cmd := m.users.Update(msg)
		if m.users.Done {
			m.active = screenHome
			m.users = nil
		}
		return m, cmd
	case screenGroups:
		if m.groups == nil {
			m.groups = newGroupsModel(m.app)
			m.groups.SetSize(m.width, m.height)
		}
		cmd := m.groups.Update(msg)
		if m.groups.Done {
			m.active = screenHome
			m.groups = nil
		}
		return m, cmd
	default:
		return m, nil
	}
}

func (m *rootModel) updateHome(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.homeList, cmd = m.homeList.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if it, ok := m.homeList.SelectedItem().(menuItem); ok {
				if it.to == -1 {
					return m, tea.Quit
				}
				m.active = it.to
				return m, nil
			}
		}
	}

	return m, cmd
}

func (m *rootModel) View() string {
	if m.err != nil {
		return errStyle.Render("Error: ") + m.err.Error()
	}

	switch m.active {
	case screenHome:
		return m.homeList.View()
	case screenBranding:
		if m.branding == nil {
			return "Loading settings..."
		}
		return m.branding.View()
	case screenUsers:
		if m.users == nil {
			return "Loading users..."
		}
		return m.users.View()
	case screenGroups:
		if m.groups == nil {
			return "Loading groups..."
		}
		return m.groups.View()
	default:
		return titleStyle.Render("Unknown screen") + "\n" + fmt.Sprint(m.active)
	}
}
