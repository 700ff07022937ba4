// ABOUTME: Upload picker for choosing a local document and its display name
// ABOUTME: Offers recent uploads, a path input and a name input before emitting the selection

package filepicker

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/academix/academix-cli/internal/tui/icons"
	"github.com/academix/academix-cli/internal/tui/recentfiles"
	"github.com/academix/academix-cli/internal/tui/styles"
)

type state int

const (
	stateList state = iota
	statePath
	stateName
)

// FileSelectedMsg is sent when a file and its name are chosen
type FileSelectedMsg struct {
	Path string
	Name string
}

// CancelledMsg is sent when the user cancels
type CancelledMsg struct{}

// FilePicker is the upload selection component
type FilePicker struct {
	recent    []recentfiles.Entry
	cursor    int
	state     state
	pathInput textinput.Model
	nameInput textinput.Model
	path      string
	err       string
	width     int
	height    int
}

var (
	errorStyle   = lipgloss.NewStyle().Foreground(styles.Danger)
	dividerStyle = lipgloss.NewStyle().Foreground(styles.Muted)
)

// New creates a picker listing recent uploads first
func New(recent []recentfiles.Entry) *FilePicker {
	pi := textinput.New()
	pi.Placeholder = "~/Downloads/lecture-notes.pdf"
	pi.CharLimit = 256
	pi.Width = 60

	ni := textinput.New()
	ni.Placeholder = "Document name"
	ni.CharLimit = 120
	ni.Width = 60

	return &FilePicker{
		recent:    recent,
		state:     stateList,
		pathInput: pi,
		nameInput: ni,
	}
}

// Init implements tea.Model
func (fp *FilePicker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (fp *FilePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		fp.width = msg.Width
		fp.height = msg.Height
		return fp, nil

	case tea.KeyMsg:
		fp.err = ""

		switch fp.state {
		case stateList:
			return fp.updateList(msg)
		case statePath:
			return fp.updatePath(msg)
		case stateName:
			return fp.updateName(msg)
		}
	}

	return fp, nil
}

func (fp *FilePicker) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if fp.cursor > 0 {
			fp.cursor--
		}
	case "down", "j":
		if fp.cursor < len(fp.recent) {
			fp.cursor++
		}
	case "enter":
		if fp.cursor < len(fp.recent) {
			e := fp.recent[fp.cursor]
			return fp.choosePath(e.Path, e.Name)
		}
		fp.state = statePath
		fp.pathInput.Focus()
		return fp, textinput.Blink
	case "esc", "b":
		return fp, func() tea.Msg { return CancelledMsg{} }
	}
	return fp, nil
}

func (fp *FilePicker) updatePath(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fp.state = stateList
		fp.pathInput.SetValue("")
		fp.pathInput.Blur()
		return fp, nil
	case "enter":
		path := strings.TrimSpace(fp.pathInput.Value())
		if path == "" {
			fp.err = "Please enter a file path"
			return fp, nil
		}
		return fp.choosePath(path, "")
	}

	var cmd tea.Cmd
	fp.pathInput, cmd = fp.pathInput.Update(msg)
	return fp, cmd
}

func (fp *FilePicker) updateName(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fp.state = stateList
		fp.nameInput.Blur()
		return fp, nil
	case "enter":
		name := strings.TrimSpace(fp.nameInput.Value())
		if name == "" {
			fp.err = "Please enter a document name"
			return fp, nil
		}
		path := fp.path
		return fp, func() tea.Msg { return FileSelectedMsg{Path: path, Name: name} }
	}

	var cmd tea.Cmd
	fp.nameInput, cmd = fp.nameInput.Update(msg)
	return fp, cmd
}

// choosePath checks the file and moves on to naming it.
func (fp *FilePicker) choosePath(path, name string) (tea.Model, tea.Cmd) {
	expanded := expandPath(path)

	info, err := os.Stat(expanded)
	switch {
	case os.IsNotExist(err):
		fp.err = "File not found: " + path
		return fp, nil
	case os.IsPermission(err):
		fp.err = "Cannot read file: permission denied"
		return fp, nil
	case err != nil:
		fp.err = "Error reading file: " + err.Error()
		return fp, nil
	case info.IsDir():
		fp.err = path + " is a directory"
		return fp, nil
	}

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(expanded), filepath.Ext(expanded))
	}

	fp.path = expanded
	fp.state = stateName
	fp.pathInput.Blur()
	fp.nameInput.SetValue(name)
	fp.nameInput.Focus()
	return fp, textinput.Blink
}

// expandPath expands ~ to the home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	return path
}

// SetError sets an error message to display
func (fp *FilePicker) SetError(msg string) {
	fp.err = msg
}

// View implements tea.Model
func (fp *FilePicker) View() string {
	var b strings.Builder

	switch fp.state {
	case statePath:
		b.WriteString(styles.Title.Render("Enter file path"))
		b.WriteString("\n")
		b.WriteString(fp.pathInput.View())
	case stateName:
		b.WriteString(styles.Title.Render("Name this document"))
		b.WriteString("\n")
		b.WriteString(styles.Subtitle.Render(icons.ForFile(fp.path).String() + " " + fp.path))
		b.WriteString("\n")
		b.WriteString(fp.nameInput.View())
	default:
		b.WriteString(fp.viewList())
	}

	if fp.err != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render("Error: " + fp.err))
	}
	return b.String()
}

func (fp *FilePicker) viewList() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render(icons.Upload.String() + " Upload document"))
	b.WriteString("\n")

	if len(fp.recent) > 0 {
		b.WriteString(styles.Subtitle.Render("Recent uploads:"))
		b.WriteString("\n")
		for i, e := range fp.recent {
			display := e.Path
			if len(display) > fp.width-10 && fp.width > 20 {
				display = "..." + display[len(display)-(fp.width-13):]
			}
			b.WriteString(fp.row(i, icons.ForFile(e.Path).String()+" "+display))
		}

		width := min(40, fp.width-4)
		if width < 1 {
			width = 40
		}
		b.WriteString(dividerStyle.Render(strings.Repeat("─", width)))
		b.WriteString("\n")
	}

	b.WriteString(fp.row(len(fp.recent), "Enter path..."))
	return b.String()
}

func (fp *FilePicker) row(i int, text string) string {
	if i == fp.cursor {
		return "> " + styles.Selected.Render(text) + "\n"
	}
	return "  " + styles.Normal.Render(text) + "\n"
}
