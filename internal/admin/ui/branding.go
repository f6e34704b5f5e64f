package ui

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"teamchat/internal/admin/app"
	"teamchat/internal/directory"
)

type brandingModel struct {
	app *app.App

	width  int
	height int

	Done bool

	form *huh.Form
	err  error

	name     string
	logoPath string
	save     bool
}

func newBrandingModel(a *app.App) *brandingModel {
	m := &brandingModel{app: a}
	m.name = a.Chat.Branding().Name
	m.form = buildBrandingForm(&m.name, &m.logoPath, &m.save)
	return m
}

func buildBrandingForm(name, logoPath *string, save *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Company Name").Value(name).Validate(nonEmpty("company name")),
			huh.NewInput().Title("Logo file (PNG/JPEG/GIF, blank to keep)").Value(logoPath),
		),
		huh.NewGroup(
			huh.NewConfirm().Title("Save changes?").Value(save),
		),
	)
}

func (m *brandingModel) SetSize(w, h int) {
	m.width, m.height = w, h
}

func (m *brandingModel) Update(msg tea.Msg) tea.Cmd {
	if m.err != nil {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "esc" || msg.String() == "q" || msg.String() == "enter" {
				m.Done = true
			}
		}
		return nil
	}

	if m.form == nil {
		m.form = buildBrandingForm(&m.name, &m.logoPath, &m.save)
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
		if m.save {
			if err := m.app.Chat.UpdateCompanyName(m.name); err != nil {
				m.err = err
				return nil
			}
			if path := strings.TrimSpace(m.logoPath); path != "" {
				data, err := os.ReadFile(path)
				if err != nil {
					m.err = fmt.Errorf("read logo: %w", err)
					return nil
				}
				if err := m.app.Chat.UpdateLogo(data); err != nil {
					m.err = err
					return nil
				}
			}
		}
		m.Done = true
		return nil
	}

	return cmd
}

func (m *brandingModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Settings error: %v\n\nPress Enter/Esc to go back.", m.err)
	}
	return m.form.View() + "\n\n(esc to go back)"
}

func nonEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

func validPhone(s string) error {
	if !directory.ValidPhone(strings.TrimSpace(s)) {
		return fmt.Errorf("phone must be digits with optional leading +")
	}
	return nil
}
