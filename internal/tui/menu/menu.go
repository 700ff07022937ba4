// ABOUTME: Home menu shown when the dashboard starts
// ABOUTME: Wraps a huh select as a bubbletea model and gates actions that need calendar credentials

package menu

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// Action represents a home menu choice
type Action int

const (
	ActionDocuments Action = iota
	ActionAddClass
	ActionUpload
	ActionLogout
	ActionQuit
)

// ErrNotConnected is returned when a calendar action is picked without credentials.
var ErrNotConnected = errors.New("calendar is not connected; log in on the web dashboard first")

// ActionSelectedMsg is sent when an enabled action is chosen
type ActionSelectedMsg struct {
	Action Action
}

type option struct {
	label   string
	value   Action
	enabled bool
}

// Menu represents the home menu
type Menu struct {
	options  []option
	selected Action
	form     *huh.Form
	err      error
}

// New creates the home menu. Adding a class needs calendar credentials.
func New(connected bool) *Menu {
	m := &Menu{
		options: []option{
			{label: "My documents", value: ActionDocuments, enabled: true},
			{label: "Add class to calendar", value: ActionAddClass, enabled: connected},
			{label: "Upload document", value: ActionUpload, enabled: true},
			{label: "Log out", value: ActionLogout, enabled: true},
			{label: "Quit", value: ActionQuit, enabled: true},
		},
		selected: ActionDocuments,
	}
	m.form = m.newForm()
	return m
}

func (m *Menu) newForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Action]().
				Title("What would you like to do?").
				Options(m.huhOptions()...).
				Value(&m.selected),
		),
	).WithTheme(huh.ThemeBase()).WithShowHelp(false)
}

func (m *Menu) huhOptions() []huh.Option[Action] {
	var options []huh.Option[Action]
	for _, opt := range m.options {
		label := opt.label
		if !opt.enabled {
			label = fmt.Sprintf("%s (calendar not connected)", label)
		}
		options = append(options, huh.NewOption(label, opt.value))
	}
	return options
}

func (m *Menu) validate(a Action) (Action, error) {
	for _, opt := range m.options {
		if opt.value == a && !opt.enabled {
			return 0, ErrNotConnected
		}
	}
	return a, nil
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	action, err := m.validate(m.selected)
	// the form is single-use; rebuild it so the menu stays interactive
	m.form = m.newForm()
	if err != nil {
		m.err = err
		return m, m.form.Init()
	}
	m.err = nil
	return m, func() tea.Msg { return ActionSelectedMsg{Action: action} }
}

// View implements tea.Model
func (m *Menu) View() string {
	if m.err != nil {
		return m.form.View() + "\n" + m.err.Error()
	}
	return m.form.View()
}

// Run displays the menu as a blocking form and returns the selected action
func (m *Menu) Run() (Action, error) {
	if err := m.newForm().Run(); err != nil {
		return 0, err
	}
	return m.validate(m.selected)
}

// String returns the string representation of an Action
func (a Action) String() string {
	switch a {
	case ActionDocuments:
		return "documents"
	case ActionAddClass:
		return "add-class"
	case ActionUpload:
		return "upload"
	case ActionLogout:
		return "logout"
	case ActionQuit:
		return "quit"
	default:
		return "unknown"
	}
}
