// ABOUTME: Schedule commands for the academix CLI
// ABOUTME: Adds a weekly class to Google Calendar and previews upcoming occurrences

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/academix/academix-cli/internal/client"
	"github.com/academix/academix-cli/internal/recurrence"
	"github.com/academix/academix-cli/internal/schedule"
	"github.com/academix/academix-cli/internal/tui/classform"
)

const expiredHint = "Your calendar session expired. Reconnect Google Calendar, then try again."

var (
	classReq    schedule.ClassRequest
	interactive bool
	icsPath     string
	weeks       int
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule weekly classes",
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a weekly class to Google Calendar",
	Long: `Add a weekly class to the connected Google Calendar. The first event is
placed on the next occurrence of the given weekday.

Exit codes:
  0  Class added
  1  Backend rejected the request (including an expired calendar session)
  2  Invalid input, network error or local failure

Example:
  academix schedule add --subject "Linear Algebra" --code MAT201 \
    --room B-12 --professor "Dr. Ortiz" --day Monday --start 09:00 --end 10:30`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		req := classReq
		if interactive {
			var err error
			req, err = classform.New(req).Run()
			if err != nil {
				fmt.Fprintf(os.Stdout, "Error: %v\n", err)
				os.Exit(2)
			}
		}

		if code := runScheduleAdd(ctx, os.Stdout, req, icsPath, weeks); code != 0 {
			os.Exit(code)
		}
	},
}

var schedulePreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show when a class would be scheduled",
	Long: `Resolve the next occurrence of a class and list the following weeks without
contacting the backend. With --ics the series is written as an iCalendar file.`,
	Run: func(cmd *cobra.Command, args []string) {
		if code := runSchedulePreview(os.Stdout, classReq, icsPath, weeks); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{scheduleAddCmd, schedulePreviewCmd} {
		f := c.Flags()
		f.StringVar(&classReq.SubjectName, "subject", "", "Subject name")
		f.StringVar(&classReq.SubjectCode, "code", "", "Subject code")
		f.StringVar(&classReq.Classroom, "room", "", "Classroom")
		f.StringVar(&classReq.ProfessorName, "professor", "", "Professor name")
		f.StringVar(&classReq.Day, "day", "", "Weekday, e.g. Monday")
		f.StringVar(&classReq.StartTime, "start", "", "Start time as HH:MM")
		f.StringVar(&classReq.EndTime, "end", "", "End time as HH:MM")
		f.StringVar(&icsPath, "ics", "", "Also write the weekly series to this .ics file")
		f.IntVar(&weeks, "weeks", 4, "Number of weekly occurrences to show or export")
	}
	scheduleAddCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Fill in the class with a form")

	scheduleCmd.AddCommand(scheduleAddCmd, schedulePreviewCmd)
	rootCmd.AddCommand(scheduleCmd)
}

// classView is the JSON shape of a scheduled or previewed class.
type classView struct {
	Message         string   `json:"message,omitempty"`
	Start           string   `json:"start"`
	End             string   `json:"end"`
	Upcoming        []string `json:"upcoming,omitempty"`
	TokensRefreshed bool     `json:"tokens_refreshed"`
	ICS             string   `json:"ics,omitempty"`
}

func runScheduleAdd(ctx context.Context, w io.Writer, req schedule.ClassRequest, ics string, count int) int {
	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer s.Close()

	if !s.store.IsConnected(ctx) {
		fmt.Fprintln(w, "Error: Google Calendar is not connected")
		return 1
	}

	wf, err := s.workflow()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	res, err := wf.AddClass(ctx, req)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		if client.IsTokenExpired(err) {
			fmt.Fprintln(w, expiredHint)
		}
		return exitCodeFor(err)
	}

	view := classView{
		Message:         res.Message,
		Start:           res.Occurrence.StartISO(),
		End:             res.Occurrence.EndISO(),
		TokensRefreshed: res.TokensRefreshed,
	}
	if ics != "" {
		if err := writeICS(ics, req, res.Occurrence, count); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
		view.ICS = ics
	}

	if IsJSONOutput() {
		printJSON(w, view)
		return 0
	}
	fmt.Fprintln(w, res.Message)
	fmt.Fprintf(w, "First class: %s\n", formatSlot(res.Occurrence))
	if res.TokensRefreshed {
		fmt.Fprintln(w, "Calendar credentials were refreshed.")
	}
	if ics != "" {
		fmt.Fprintf(w, "Wrote %s\n", ics)
	}
	return 0
}

func runSchedulePreview(w io.Writer, req schedule.ClassRequest, ics string, count int) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	occ, err := schedule.New(nil, nil, schedule.WithLocation(loc)).Resolve(req)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	upcoming, err := recurrence.Upcoming(occ, max(count, 1))
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	view := classView{Start: occ.StartISO(), End: occ.EndISO()}
	for _, u := range upcoming {
		view.Upcoming = append(view.Upcoming, u.StartISO())
	}
	if ics != "" {
		if err := writeICS(ics, req, occ, count); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
		view.ICS = ics
	}

	if IsJSONOutput() {
		printJSON(w, view)
		return 0
	}
	fmt.Fprintf(w, "Next class: %s\n", formatSlot(occ))
	for i, u := range upcoming {
		fmt.Fprintf(w, "  %d. %s\n", i+1, formatSlot(u))
	}
	if ics != "" {
		fmt.Fprintf(w, "Wrote %s\n", ics)
	}
	return 0
}

func writeICS(path string, req schedule.ClassRequest, occ recurrence.Occurrence, count int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := schedule.ExportICS(f, req, occ, count, time.Now()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatSlot renders an occurrence in local wall-clock form.
func formatSlot(o recurrence.Occurrence) string {
	return fmt.Sprintf("%s %s-%s", o.Start.Format("Mon 2 Jan 2006"), o.Start.Format("15:04"), o.End.Format("15:04"))
}
