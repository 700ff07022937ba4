// ABOUTME: iCalendar export of a weekly class slot
// ABOUTME: Writes one VEVENT with a weekly RRULE so the class can be imported anywhere

package schedule

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/academix/academix-cli/internal/recurrence"
)

// ExportICS writes a calendar holding req as a weekly event starting at occ.
// A count of zero repeats forever.
func ExportICS(w io.Writer, req ClassRequest, occ recurrence.Occurrence, count int, stamp time.Time) error {
	rule, err := recurrence.NewWeekly(occ, count)
	if err != nil {
		return err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//AcademiX//academix-cli//EN")

	event := cal.AddEvent(uuid.NewString() + "@academix")
	event.SetDtStampTime(stamp)
	event.SetCreatedTime(stamp)
	event.SetStartAt(occ.Start)
	event.SetEndAt(occ.End)
	event.SetSummary(strings.TrimSpace(req.SubjectCode + " " + req.SubjectName))
	if req.Classroom != "" {
		event.SetLocation(req.Classroom)
	}
	if req.ProfessorName != "" {
		event.SetDescription("Professor: " + req.ProfessorName)
	}
	event.AddRrule(rule.RRule())

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}
