// ABOUTME: Document list component for the dashboard
// ABOUTME: Renders documents with file icons, the selection cursor and the pending deletion marker

package doclist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/academix/academix-cli/internal/client"
	"github.com/academix/academix-cli/internal/documents"
	"github.com/academix/academix-cli/internal/tui/icons"
	"github.com/academix/academix-cli/internal/tui/styles"
)

// List displays documents and tracks the cursor
type List struct {
	docs     []client.Document
	deleting string
	loading  bool
	err      error
	cursor   int
	width    int
	height   int
}

// New creates an empty list
func New(width, height int) *List {
	return &List{width: width, height: height, loading: true}
}

// Update replaces the rendered state with a synchronizer snapshot
func (l *List) Update(docs []client.Document, deleting string, loading bool, err error) {
	l.docs = docs
	l.deleting = deleting
	l.loading = loading
	l.err = err
	if l.cursor >= len(l.docs) {
		l.cursor = max(0, len(l.docs)-1)
	}
}

// SetSize updates the list dimensions
func (l *List) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// Up moves the cursor up
func (l *List) Up() {
	if l.cursor > 0 {
		l.cursor--
	}
}

// Down moves the cursor down
func (l *List) Down() {
	if l.cursor < len(l.docs)-1 {
		l.cursor++
	}
}

// Selected returns the document under the cursor
func (l *List) Selected() (client.Document, bool) {
	if len(l.docs) == 0 {
		return client.Document{}, false
	}
	return l.docs[l.cursor], true
}

// View renders the list
func (l *List) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(icons.Documents.String() + " My Documents"))
	sb.WriteString("\n")

	if l.err != nil {
		sb.WriteString(styles.StatusCritical.Render(l.err.Error()))
		sb.WriteString("\n\n")
	}

	switch {
	case len(l.docs) == 0 && l.loading:
		sb.WriteString(styles.Subtitle.Render("Loading documents..."))
	case len(l.docs) == 0:
		sb.WriteString(styles.Subtitle.Render("No documents yet. Press u to upload one."))
	default:
		for i, doc := range l.docs {
			sb.WriteString(l.renderRow(i, doc))
			sb.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().
		Width(l.width).
		Height(l.height).
		Render(sb.String())
}

func (l *List) renderRow(i int, doc client.Document) string {
	name := doc.Name
	if name == "" {
		name = doc.DisplayName()
	}
	label := fmt.Sprintf("%s %s", icons.ForFile(doc.DisplayName()).String(), name)

	prefix := "  "
	style := styles.Normal
	if i == l.cursor {
		prefix = "> "
		style = styles.Selected
	}

	if l.deleting != "" && documents.ID(doc) == l.deleting {
		return prefix + styles.Pending.Render(label+"  Deleting…")
	}
	return prefix + style.Render(label)
}
