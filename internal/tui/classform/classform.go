// ABOUTME: Add-class form as a bubbletea model
// ABOUTME: Uses huh forms with a visual progress indicator across the course and slot steps

package classform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/academix/academix-cli/internal/recurrence"
	"github.com/academix/academix-cli/internal/schedule"
	"github.com/academix/academix-cli/internal/tui/icons"
	"github.com/academix/academix-cli/internal/tui/styles"
)

// ClassFormCompleteMsg is sent when both steps are filled in
type ClassFormCompleteMsg struct {
	Request schedule.ClassRequest
}

// ClassFormCancelledMsg is sent when the form is cancelled
type ClassFormCancelledMsg struct{}

// Form walks the user through describing one weekly class.
type Form struct {
	req   schedule.ClassRequest
	form  *huh.Form
	step  int
	width int
}

var stepNames = []string{"Course", "Slot"}

// createTheme returns a huh theme matching the dashboard palette
func createTheme() *huh.Theme {
	t := huh.ThemeBase()

	sky := styles.Primary
	skyLight := styles.Accent
	gray := lipgloss.Color("#9CA3AF")
	grayLight := lipgloss.Color("#E5E7EB")
	red := lipgloss.Color("#F87171")
	slate := lipgloss.Color("#334155")

	t.Group.Title = lipgloss.NewStyle().
		Foreground(sky).
		Bold(true).
		MarginBottom(1)
	t.Group.Description = lipgloss.NewStyle().
		Foreground(gray).
		MarginBottom(1)

	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(sky)
	t.Focused.Title = lipgloss.NewStyle().
		Foreground(skyLight).
		Bold(true)
	t.Focused.Description = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().
		Foreground(red).
		SetString(" *")
	t.Focused.ErrorMessage = lipgloss.NewStyle().
		Foreground(red)

	t.Focused.SelectSelector = lipgloss.NewStyle().
		Foreground(sky).
		SetString("> ")
	t.Focused.Option = lipgloss.NewStyle().
		Foreground(grayLight)
	t.Focused.SelectedOption = lipgloss.NewStyle().
		Foreground(sky).
		Bold(true)

	t.Focused.TextInput.Cursor = lipgloss.NewStyle().
		Foreground(sky)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().
		Foreground(sky)
	t.Focused.TextInput.Text = lipgloss.NewStyle().
		Foreground(grayLight)

	t.Focused.FocusedButton = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(sky).
		Padding(0, 2).
		MarginRight(1)
	t.Focused.BlurredButton = lipgloss.NewStyle().
		Foreground(gray).
		Background(slate).
		Padding(0, 2).
		MarginRight(1)

	t.Blurred = t.Focused
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)
	t.Blurred.Title = lipgloss.NewStyle().
		Foreground(gray)
	t.Blurred.SelectSelector = lipgloss.NewStyle().
		Foreground(gray).
		SetString("  ")
	t.Blurred.Option = lipgloss.NewStyle().
		Foreground(gray)

	return t
}

func dayOptions() []huh.Option[string] {
	var opts []huh.Option[string]
	for _, d := range recurrence.Weekdays {
		opts = append(opts, huh.NewOption(d.String(), d.String()))
	}
	return opts
}

// New creates a form, prefilled from initial when the user is editing a previous attempt.
func New(initial schedule.ClassRequest) *Form {
	f := &Form{req: initial, step: 1}
	if f.req.Day == "" {
		f.req.Day = time.Monday.String()
	}
	f.form = f.createCourseForm()
	return f
}

func (f *Form) courseGroup() *huh.Group {
	return huh.NewGroup(
		huh.NewInput().
			Title("Subject name").
			Placeholder("e.g., Operating Systems").
			Value(&f.req.SubjectName).
			Validate(required("subject name")),
		huh.NewInput().
			Title("Subject code").
			Placeholder("e.g., CS301").
			Value(&f.req.SubjectCode).
			Validate(required("subject code")),
		huh.NewInput().
			Title("Professor").
			Value(&f.req.ProfessorName).
			Validate(required("professor name")),
		huh.NewInput().
			Title("Classroom").
			Placeholder("e.g., B-204").
			Value(&f.req.Classroom).
			Validate(required("classroom")),
	).Title("Step 1: Course").
		Description("Which class is this?")
}

func (f *Form) slotGroup() *huh.Group {
	return huh.NewGroup(
		huh.NewSelect[string]().
			Title("Day of week").
			Description("Use ↑/↓ to select, Enter to confirm").
			Options(dayOptions()...).
			Value(&f.req.Day),
		huh.NewInput().
			Title("Start time").
			Description("24-hour HH:MM").
			Placeholder("09:00").
			CharLimit(5).
			Value(&f.req.StartTime).
			Validate(validateTime),
		huh.NewInput().
			Title("End time").
			Description("24-hour HH:MM").
			Placeholder("10:30").
			CharLimit(5).
			Value(&f.req.EndTime).
			Validate(validateTime),
	).Title("Step 2: Slot").
		Description("When does it meet each week?")
}

func (f *Form) createCourseForm() *huh.Form {
	return huh.NewForm(f.courseGroup()).WithTheme(createTheme())
}

func (f *Form) createSlotForm() *huh.Form {
	return huh.NewForm(f.slotGroup()).WithTheme(createTheme())
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.width = msg.Width
		form, cmd := f.form.Update(msg)
		if hf, ok := form.(*huh.Form); ok {
			f.form = hf
		}
		return f, cmd

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return f, func() tea.Msg { return ClassFormCancelledMsg{} }
		}
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State == huh.StateCompleted {
		return f.advanceStep()
	}

	return f, cmd
}

func (f *Form) advanceStep() (tea.Model, tea.Cmd) {
	switch f.step {
	case 1:
		f.step = 2
		f.form = f.createSlotForm()
		return f, f.form.Init()
	case 2:
		req := f.Request()
		return f, func() tea.Msg {
			return ClassFormCompleteMsg{Request: req}
		}
	}
	return f, nil
}

// SetWidth sets the form width for proper rendering
func (f *Form) SetWidth(width int) {
	f.width = width
}

// Step returns the current step, starting at 1.
func (f *Form) Step() int {
	return f.step
}

// Request returns the values collected so far with surrounding whitespace trimmed.
func (f *Form) Request() schedule.ClassRequest {
	r := f.req
	r.SubjectName = strings.TrimSpace(r.SubjectName)
	r.SubjectCode = strings.TrimSpace(r.SubjectCode)
	r.Classroom = strings.TrimSpace(r.Classroom)
	r.ProfessorName = strings.TrimSpace(r.ProfessorName)
	r.StartTime = strings.TrimSpace(r.StartTime)
	r.EndTime = strings.TrimSpace(r.EndTime)
	return r
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder
	sb.WriteString(f.renderProgress())
	sb.WriteString("\n\n")
	sb.WriteString(f.form.View())
	return sb.String()
}

// renderProgress renders the step progress indicator
func (f *Form) renderProgress() string {
	width := f.width - 1
	if width < 60 {
		width = 60
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary)

	var steps []string
	for i, name := range stepNames {
		stepNum := i + 1
		var indicator string
		var nameStyle lipgloss.Style

		switch {
		case stepNum < f.step:
			indicator = lipgloss.NewStyle().Foreground(styles.Secondary).Render(icons.CheckOK.String())
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		case stepNum == f.step:
			indicator = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("●")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
		default:
			indicator = lipgloss.NewStyle().Foreground(styles.Muted).Render("○")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		}

		steps = append(steps, fmt.Sprintf("%s %s", indicator, nameStyle.Render(name)))
	}
	stepsLine := strings.Join(steps, "    ")

	// "│  " + bar + " │"
	barWidth := width - 5
	filledWidth := (f.step * barWidth) / len(stepNames)
	filled := lipgloss.NewStyle().Foreground(styles.Primary).Render(strings.Repeat("━", filledWidth))
	empty := lipgloss.NewStyle().Foreground(styles.Surface).Render(strings.Repeat("─", barWidth-filledWidth))

	title := "New class"
	top := "┌─ " + titleStyle.Render(title) + " " + strings.Repeat("─", max(0, width-5-lipgloss.Width(title))) + "┐"
	stepsPadded := "│ " + stepsLine + strings.Repeat(" ", max(0, width-4-lipgloss.Width(stepsLine))) + " │"
	progress := "│  " + filled + empty + " │"
	bottom := "└" + strings.Repeat("─", width-2) + "┘"

	return borderStyle.Render(strings.Join([]string{top, stepsPadded, progress, bottom}, "\n"))
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateTime(s string) error {
	if _, err := recurrence.ParseTimeOfDay(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("use 24-hour HH:MM")
	}
	return nil
}

// Run shows both steps as blocking forms, for use outside a bubbletea program.
func (f *Form) Run() (schedule.ClassRequest, error) {
	if err := huh.NewForm(f.courseGroup(), f.slotGroup()).WithTheme(createTheme()).Run(); err != nil {
		return schedule.ClassRequest{}, err
	}
	return f.Request(), nil
}
