// ABOUTME: Root bubbletea model for the student dashboard TUI
// ABOUTME: Manages screen state, routes keys to child components and bridges store and document changes into messages

package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/academix/academix-cli/internal/client"
	"github.com/academix/academix-cli/internal/documents"
	"github.com/academix/academix-cli/internal/schedule"
	"github.com/academix/academix-cli/internal/tokenstore"
	"github.com/academix/academix-cli/internal/tui/classform"
	"github.com/academix/academix-cli/internal/tui/classresult"
	"github.com/academix/academix-cli/internal/tui/doclist"
	"github.com/academix/academix-cli/internal/tui/filepicker"
	"github.com/academix/academix-cli/internal/tui/icons"
	"github.com/academix/academix-cli/internal/tui/menu"
	"github.com/academix/academix-cli/internal/tui/recentfiles"
	"github.com/academix/academix-cli/internal/tui/styles"
	"github.com/academix/academix-cli/internal/tui/widgets"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenHome Screen = iota
	ScreenDocuments
	ScreenFilePicker
	ScreenClassForm
	ScreenClassResult
)

// Layout constants
const (
	minTerminalWidth = 80 // Minimum width before using single-column layout
	panelPadding     = 4  // Total horizontal padding from panel borders (2 each side)
)

// Session ends the backend session and drops local credentials.
type Session interface {
	Logout(ctx context.Context) error
}

// Options carries the components the dashboard drives.
type Options struct {
	Store     *tokenstore.Store
	Documents *documents.Synchronizer
	Workflow  *schedule.Workflow
	Session   Session
	ConfigDir string
	// Backend names the token store in the header, e.g. "file" or "redis".
	Backend string
	// Expired receives a value each time the workflow discards expired credentials.
	Expired <-chan struct{}
}

// ExpiryHook returns a callback for schedule.WithTokenExpired and the channel
// to pass as Options.Expired.
func ExpiryHook() (notify func(), expired <-chan struct{}) {
	ch := make(chan struct{}, 1)
	return func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}, ch
}

type docsChangedMsg struct{}

type tokenExpiredMsg struct{}

type connectionChangedMsg struct {
	connected bool
}

type loadDoneMsg struct {
	err error
}

type deleteDoneMsg struct {
	name string
	err  error
}

type uploadDoneMsg struct {
	path string
	name string
	err  error
}

type classAddedMsg struct {
	req    schedule.ClassRequest
	result *schedule.Result
	err    error
}

type loggedOutMsg struct {
	err error
}

type statusLine struct {
	text  string
	level widgets.StatusLevel
}

// App is the root model for the TUI
type App struct {
	ctx      context.Context
	opts     Options
	screen   Screen
	width    int
	height   int
	status   *statusLine
	busy     string
	spinner  spinner.Model
	lastLoad time.Time

	connected   bool
	lastRequest schedule.ClassRequest
	lastErr     error
	pickerFrom  Screen

	docsCh chan struct{}
	connCh chan bool

	// Child models
	menu   *menu.Menu
	list   *doclist.List
	picker *filepicker.FilePicker
	form   *classform.Form
	result *classresult.View

	recent *recentfiles.Recent
}

// New creates the application. Nil components are tolerated so views can be
// rendered without a backend.
func New(ctx context.Context, opts Options) *App {
	a := &App{
		ctx:     ctx,
		opts:    opts,
		screen:  ScreenHome,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary))),
		docsCh:  make(chan struct{}, 1),
		connCh:  make(chan bool, 8),
		recent:  recentfiles.New(opts.ConfigDir),
	}

	if opts.Store != nil {
		a.connected = opts.Store.IsConnected(ctx)
		opts.Store.Subscribe(func(connected bool) {
			select {
			case a.connCh <- connected:
			default:
			}
		})
	}
	if opts.Documents != nil {
		opts.Documents.OnChange(func() {
			select {
			case a.docsCh <- struct{}{}:
			default:
			}
		})
	}

	a.menu = menu.New(a.connected)
	a.list = doclist.New(a.listWidth(), a.contentHeight())
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.menu.Init(), a.waitForDocs(), a.waitForConnection(), a.waitForExpiry())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.list.SetSize(a.listWidth(), a.contentHeight())
		a.menu.Update(msg)
		if a.picker != nil {
			a.picker.Update(msg)
		}
		if a.result != nil {
			a.result.SetWidth(a.frameWidth() - panelPadding)
		}
		if a.form != nil {
			a.form.SetWidth(a.frameWidth())
			return a.updateForm(msg)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		a.status = nil

		switch a.screen {
		case ScreenHome:
			return a.updateMenu(msg)
		case ScreenDocuments:
			return a.updateDocuments(msg)
		case ScreenFilePicker:
			return a.updatePicker(msg)
		case ScreenClassForm:
			return a.updateForm(msg)
		case ScreenClassResult:
			return a.updateResult(msg)
		}

	case spinner.TickMsg:
		if a.busy == "" {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case docsChangedMsg:
		a.refreshList()
		return a, a.waitForDocs()

	case connectionChangedMsg:
		a.connected = msg.connected
		if msg.connected {
			a.setStatus("Calendar connected in another session", widgets.StatusInfo)
		} else {
			a.setStatus("Calendar disconnected in another session", widgets.StatusWarning)
		}
		cmds := []tea.Cmd{a.waitForConnection()}
		if a.screen == ScreenHome {
			cmds = append(cmds, a.resetMenu())
		}
		return a, tea.Batch(cmds...)

	case tokenExpiredMsg:
		a.connected = false
		a.setStatus("Calendar session expired, reconnect to add classes", widgets.StatusWarning)
		cmds := []tea.Cmd{a.waitForExpiry()}
		if a.screen == ScreenHome {
			cmds = append(cmds, a.resetMenu())
		}
		return a, tea.Batch(cmds...)

	case menu.ActionSelectedMsg:
		return a.handleAction(msg.Action)

	case loadDoneMsg:
		a.busy = ""
		a.lastLoad = time.Now()
		a.refreshList()
		return a, nil

	case deleteDoneMsg:
		a.refreshList()
		if msg.err != nil {
			a.setStatus("Delete failed: "+msg.err.Error(), widgets.StatusCritical)
		} else {
			a.setStatus("Deleted "+msg.name, widgets.StatusOK)
		}
		return a, nil

	case filepicker.FileSelectedMsg:
		a.picker = nil
		a.screen = ScreenDocuments
		return a, a.startBusy("Uploading "+msg.Name, a.uploadDocument(msg.Path, msg.Name))

	case filepicker.CancelledMsg:
		a.picker = nil
		if a.pickerFrom == ScreenDocuments {
			a.screen = ScreenDocuments
			return a, nil
		}
		return a, a.goHome()

	case uploadDoneMsg:
		a.busy = ""
		a.refreshList()
		if msg.err != nil {
			a.setStatus("Upload failed: "+msg.err.Error(), widgets.StatusCritical)
			return a, nil
		}
		a.lastLoad = time.Now()
		if err := a.recent.Add(msg.path, msg.name); err != nil {
			a.setStatus("Uploaded "+msg.name+" (recent list not saved)", widgets.StatusWarning)
			return a, nil
		}
		a.setStatus("Uploaded "+msg.name, widgets.StatusOK)
		return a, nil

	case classform.ClassFormCompleteMsg:
		a.form = nil
		a.lastRequest = msg.Request
		a.result = nil
		a.screen = ScreenClassResult
		return a, a.startBusy("Adding class to calendar", a.addClass(msg.Request))

	case classform.ClassFormCancelledMsg:
		a.form = nil
		return a, a.goHome()

	case classAddedMsg:
		a.busy = ""
		a.lastErr = msg.err
		a.result = classresult.New(msg.req, msg.result, msg.err, a.frameWidth()-panelPadding)
		if a.opts.Store != nil {
			a.connected = a.opts.Store.IsConnected(a.ctx)
		}
		return a, nil

	case loggedOutMsg:
		a.busy = ""
		if msg.err != nil {
			a.setStatus("Logout failed: "+msg.err.Error(), widgets.StatusCritical)
			return a, a.goHome()
		}
		a.connected = false
		a.setStatus("Logged out", widgets.StatusOK)
		return a, a.goHome()

	default:
		// huh forms need their internal messages
		switch a.screen {
		case ScreenHome:
			return a.updateMenu(msg)
		case ScreenClassForm:
			return a.updateForm(msg)
		}
	}

	return a, nil
}

func (a *App) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.busy != "" {
		return a, nil
	}
	model, cmd := a.menu.Update(msg)
	a.menu = model.(*menu.Menu)
	return a, cmd
}

func (a *App) updateDocuments(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "up", "k":
		a.list.Up()
	case "down", "j":
		a.list.Down()
	case "r":
		if a.busy == "" {
			return a, a.startBusy("Loading documents", a.loadDocuments())
		}
	case "d", "x", "delete":
		if doc, ok := a.list.Selected(); ok {
			return a, a.deleteDocument(doc)
		}
	case "u":
		return a, a.openPicker(ScreenDocuments)
	case "enter", "o":
		if doc, ok := a.list.Selected(); ok && doc.URL != "" {
			a.setStatus(icons.Link.String()+" "+doc.URL, widgets.StatusInfo)
		}
	case "b", "esc":
		return a, a.goHome()
	}
	return a, nil
}

func (a *App) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.picker == nil {
		return a, nil
	}
	model, cmd := a.picker.Update(msg)
	a.picker = model.(*filepicker.FilePicker)
	return a, cmd
}

func (a *App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.form == nil {
		return a, nil
	}
	model, cmd := a.form.Update(msg)
	a.form = model.(*classform.Form)
	return a, cmd
}

func (a *App) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.busy != "" {
		return a, nil
	}
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "a":
		if !a.connected {
			a.setStatus(menu.ErrNotConnected.Error(), widgets.StatusWarning)
			return a, nil
		}
		initial := schedule.ClassRequest{}
		if a.lastErr != nil {
			initial = a.lastRequest
		}
		return a, a.openClassForm(initial)
	case "b", "esc":
		a.result = nil
		return a, a.goHome()
	}
	return a, nil
}

func (a *App) handleAction(action menu.Action) (tea.Model, tea.Cmd) {
	switch action {
	case menu.ActionDocuments:
		a.screen = ScreenDocuments
		return a, a.startBusy("Loading documents", a.loadDocuments())
	case menu.ActionAddClass:
		return a, a.openClassForm(schedule.ClassRequest{})
	case menu.ActionUpload:
		return a, a.openPicker(ScreenHome)
	case menu.ActionLogout:
		return a, a.startBusy("Logging out", a.logout())
	case menu.ActionQuit:
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) goHome() tea.Cmd {
	a.screen = ScreenHome
	return a.resetMenu()
}

func (a *App) resetMenu() tea.Cmd {
	a.menu = menu.New(a.connected)
	if a.width > 0 {
		a.menu.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	}
	return a.menu.Init()
}

func (a *App) openPicker(from Screen) tea.Cmd {
	a.pickerFrom = from
	recent, _ := a.recent.Load()
	a.picker = filepicker.New(recent)
	if a.width > 0 {
		a.picker.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	}
	a.screen = ScreenFilePicker
	return a.picker.Init()
}

func (a *App) openClassForm(initial schedule.ClassRequest) tea.Cmd {
	a.form = classform.New(initial)
	a.form.SetWidth(a.frameWidth())
	a.screen = ScreenClassForm
	return a.form.Init()
}

func (a *App) setStatus(text string, level widgets.StatusLevel) {
	a.status = &statusLine{text: text, level: level}
}

func (a *App) startBusy(label string, cmd tea.Cmd) tea.Cmd {
	a.busy = label
	return tea.Batch(cmd, a.spinner.Tick)
}

// refreshList copies the synchronizer state into the list view
func (a *App) refreshList() {
	if a.opts.Documents == nil {
		return
	}
	d := a.opts.Documents
	a.list.Update(d.Documents(), d.Deleting(), d.Loading(), d.Err())
}

// waitForDocs blocks until the synchronizer reports a change
func (a *App) waitForDocs() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-a.docsCh:
			return docsChangedMsg{}
		case <-a.ctx.Done():
			return nil
		}
	}
}

// waitForConnection blocks until another session changes the credentials
func (a *App) waitForConnection() tea.Cmd {
	return func() tea.Msg {
		select {
		case c := <-a.connCh:
			return connectionChangedMsg{connected: c}
		case <-a.ctx.Done():
			return nil
		}
	}
}

// waitForExpiry blocks until the workflow reports expired credentials
func (a *App) waitForExpiry() tea.Cmd {
	if a.opts.Expired == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-a.opts.Expired:
			return tokenExpiredMsg{}
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a *App) loadDocuments() tea.Cmd {
	return func() tea.Msg {
		if a.opts.Documents == nil {
			return loadDoneMsg{}
		}
		return loadDoneMsg{err: a.opts.Documents.Load(a.ctx)}
	}
}

func (a *App) deleteDocument(doc client.Document) tea.Cmd {
	id := documents.ID(doc)
	name := doc.DisplayName()
	return func() tea.Msg {
		return deleteDoneMsg{name: name, err: a.opts.Documents.Remove(a.ctx, id)}
	}
}

func (a *App) uploadDocument(path, name string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return uploadDoneMsg{path: path, name: name, err: err}
		}
		defer f.Close()
		err = a.opts.Documents.Upload(a.ctx, name, filepath.Base(path), f)
		return uploadDoneMsg{path: path, name: name, err: err}
	}
}

func (a *App) addClass(req schedule.ClassRequest) tea.Cmd {
	return func() tea.Msg {
		res, err := a.opts.Workflow.AddClass(a.ctx, req)
		return classAddedMsg{req: req, result: res, err: err}
	}
}

func (a *App) logout() tea.Cmd {
	return func() tea.Msg {
		if a.opts.Session == nil {
			return loggedOutMsg{}
		}
		return loggedOutMsg{err: a.opts.Session.Logout(a.ctx)}
	}
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenDocuments:
		content = a.viewDocuments()
	case ScreenFilePicker:
		if a.picker != nil {
			content = a.picker.View()
		}
	case ScreenClassForm:
		if a.form != nil {
			content = a.form.View()
		}
	case ScreenClassResult:
		content = a.viewResult()
	default:
		content = a.viewHome()
	}

	if a.busy != "" {
		content += "\n\n" + a.spinner.View() + " " + styles.Subtitle.Render(a.busy+"...")
	}
	if a.status != nil {
		content += "\n\n" + widgets.StatusText(a.status.text, a.status.level)
	}

	return a.wrapWithFrame(content)
}

func (a *App) viewHome() string {
	var sb strings.Builder
	sb.WriteString(widgets.ConnectionBadge(a.connected))
	sb.WriteString("\n\n")
	sb.WriteString(a.menu.View())
	return sb.String()
}

// viewDocuments renders the document list with the actions pane
func (a *App) viewDocuments() string {
	leftPane := styles.ActivePanel.Width(a.listWidth()).Render(a.list.View())

	rightContent := styles.Title.Render("Actions") + "\n"
	rightContent += icons.Refresh.String() + " Refresh list\n"
	rightContent += icons.Upload.String() + " Upload document\n"
	rightContent += icons.Delete.String() + " Delete selected\n"
	rightContent += icons.Link.String() + " Show link\n"
	rightContent += icons.Back.String() + " Back to menu\n"
	rightPane := styles.Panel.Width(a.actionsWidth()).Render(rightContent)

	if a.width < minTerminalWidth {
		return leftPane
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)
}

func (a *App) viewResult() string {
	if a.result == nil {
		return styles.Subtitle.Render(fmt.Sprintf("%s %s", a.lastRequest.SubjectCode, a.lastRequest.SubjectName))
	}
	return styles.ActivePanel.Render(a.result.View())
}

// frameWidth is one less than the terminal to avoid wrapping, never below 80
func (a *App) frameWidth() int {
	width := a.width - 1
	if width < minTerminalWidth {
		width = minTerminalWidth
	}
	return width
}

// listWidth calculates the width for the document pane
func (a *App) listWidth() int {
	if a.width < minTerminalWidth {
		return max(a.width-panelPadding, 20)
	}
	return (a.width - panelPadding) * 3 / 5
}

// actionsWidth calculates the width for the actions pane
func (a *App) actionsWidth() int {
	return a.width - a.listWidth() - 2*panelPadding
}

// contentHeight is the terminal height minus header, footer and panel chrome
func (a *App) contentHeight() int {
	return max(a.height-8, 0)
}

// renderHeader creates the header bar with app branding and connection state
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	left := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("AcademiX"))

	right := ""
	if a.screen != ScreenHome {
		right = " " + widgets.ConnectionBadge(a.connected)
	}
	if a.opts.Backend != "" {
		right += " " + contextStyle.Render(a.opts.Backend) + " "
	}

	// -4 for ╭─ and ─╮
	fill := max(width-4-lipgloss.Width(left)-lipgloss.Width(right), 0)

	return borderStyle.Render("╭─" + left + strings.Repeat("─", fill) + right + "─╮")
}

// renderFooter creates the footer with keyboard shortcuts and last refresh
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	var shortcuts []string
	switch a.screen {
	case ScreenHome:
		shortcuts = []string{"↑↓ Navigate", "Enter Select", "ctrl+c Quit"}
	case ScreenDocuments:
		shortcuts = []string{"r Refresh", "u Upload", "d Delete", "b Back", "q Quit"}
	case ScreenFilePicker:
		shortcuts = []string{"↑↓ Navigate", "Enter Select", "Esc Back"}
	case ScreenClassForm:
		shortcuts = []string{"Tab Next", "Enter Confirm", "Esc Cancel"}
	case ScreenClassResult:
		shortcuts = []string{"a Add another", "b Back", "q Quit"}
	}

	var styled []string
	for _, s := range shortcuts {
		key, label, ok := strings.Cut(s, " ")
		if ok {
			styled = append(styled, keyStyle.Render(key)+" "+labelStyle.Render(label))
		} else {
			styled = append(styled, s)
		}
	}

	left := " " + strings.Join(styled, "  ")

	right := ""
	if !a.lastLoad.IsZero() && a.screen == ScreenDocuments {
		right = statusStyle.Render("Updated "+formatTimeSince(a.lastLoad)) + " "
	}

	// -4 for ╰─ and ─╯
	fill := max(width-4-lipgloss.Width(left)-lipgloss.Width(right), 0)

	return borderStyle.Render("╰─" + left + strings.Repeat("─", fill) + right + "─╯")
}

// formatTimeSince formats a duration since the given time in human-readable form
func formatTimeSince(t time.Time) string {
	d := time.Since(t)

	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI and the store watcher until ctx is done or the user quits
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.Store != nil {
		go func() {
			if err := opts.Store.Watch(ctx); err != nil {
				slog.Warn("Token store watcher stopped", "error", err)
			}
		}()
	}

	app := New(ctx, opts)
	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
