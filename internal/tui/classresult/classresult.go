// ABOUTME: Result view shown after a class is added or rejected
// ABOUTME: Displays the backend message, the first occurrence and the weeks that follow

package classresult

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/academix/academix-cli/internal/client"
	"github.com/academix/academix-cli/internal/recurrence"
	"github.com/academix/academix-cli/internal/schedule"
	"github.com/academix/academix-cli/internal/tui/icons"
	"github.com/academix/academix-cli/internal/tui/styles"
)

// UpcomingWeeks is how many occurrences the view lists.
const UpcomingWeeks = 4

// View renders the outcome of one add-class attempt.
type View struct {
	req    schedule.ClassRequest
	result *schedule.Result
	err    error
	width  int
}

// New creates a result view. Exactly one of result and err is expected to be set.
func New(req schedule.ClassRequest, result *schedule.Result, err error, width int) *View {
	return &View{req: req, result: result, err: err, width: width}
}

// SetWidth updates the render width
func (v *View) SetWidth(width int) {
	v.width = width
}

// View renders the result
func (v *View) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(fmt.Sprintf("%s %s %s", icons.Calendar.String(), v.req.SubjectCode, v.req.SubjectName)))
	sb.WriteString("\n")

	switch {
	case v.err != nil:
		sb.WriteString(v.renderError())
	case v.result == nil:
		sb.WriteString("No result")
	default:
		sb.WriteString(v.renderSuccess())
	}

	return lipgloss.NewStyle().Width(v.width).Render(sb.String())
}

func (v *View) renderError() string {
	var sb strings.Builder
	sb.WriteString(styles.StatusCritical.Render(icons.Critical.String() + " " + v.err.Error()))
	sb.WriteString("\n\n")
	if client.IsTokenExpired(v.err) {
		sb.WriteString(styles.StatusWarning.Render("Your calendar session expired and was cleared."))
		sb.WriteString("\n")
		sb.WriteString("Log in again on the web dashboard, then retry.\n")
	}
	return sb.String()
}

func (v *View) renderSuccess() string {
	var sb strings.Builder
	sb.WriteString(styles.StatusOK.Render(icons.CheckOK.String() + " " + v.result.Message))
	sb.WriteString("\n\n")

	occ := v.result.Occurrence
	sb.WriteString(fmt.Sprintf("%s  %s\n", styles.KeyStyle.Render("Room"), v.req.Classroom))
	sb.WriteString(fmt.Sprintf("%s  %s\n", styles.KeyStyle.Render("Prof"), v.req.ProfessorName))
	sb.WriteString(fmt.Sprintf("%s  %s\n", styles.KeyStyle.Render("When"), formatOccurrence(occ)))

	if v.result.TokensRefreshed {
		sb.WriteString(styles.Subtitle.Render("Calendar credentials were refreshed."))
		sb.WriteString("\n")
	}

	upcoming, err := recurrence.Upcoming(occ, UpcomingWeeks)
	if err != nil || len(upcoming) < 2 {
		return sb.String()
	}

	sb.WriteString("\n")
	sb.WriteString(styles.Subtitle.Render("Following weeks"))
	sb.WriteString("\n")
	for _, o := range upcoming[1:] {
		sb.WriteString("  " + formatOccurrence(o) + "\n")
	}
	return sb.String()
}

func formatOccurrence(o recurrence.Occurrence) string {
	return fmt.Sprintf("%s %s–%s", o.Start.Format("Mon 02 Jan 2006"), o.Start.Format("15:04"), o.End.Format("15:04"))
}
