// ABOUTME: Add-class workflow: validate, resolve the next occurrence, call the backend
// ABOUTME: Adopts refreshed tokens on success and invalidates them when the backend reports expiry

package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/academix/academix-cli/internal/client"
	"github.com/academix/academix-cli/internal/envelope"
	"github.com/academix/academix-cli/internal/recurrence"
)

// DefaultMessage is shown when the backend does not send its own.
const DefaultMessage = "Event added to Google Calendar"

// Calendar is the backend call the workflow drives.
type Calendar interface {
	AddClass(ctx context.Context, payload *client.ClassPayload) (*client.AddClassResponse, error)
}

// Result describes a class that was added.
type Result struct {
	Occurrence      recurrence.Occurrence
	Message         string
	TokensRefreshed bool
}

// Workflow runs one add-class attempt per call. It never retries.
type Workflow struct {
	api            Calendar
	env            *envelope.Builder
	now            func() time.Time
	loc            *time.Location
	onTokenExpired func()
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithClock overrides the wall clock used to resolve the next occurrence.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithLocation resolves class times in loc instead of the local zone.
func WithLocation(loc *time.Location) Option {
	return func(w *Workflow) {
		if loc != nil {
			w.loc = loc
		}
	}
}

// WithTokenExpired registers a callback run after credentials were invalidated.
func WithTokenExpired(fn func()) Option {
	return func(w *Workflow) { w.onTokenExpired = fn }
}

// New builds a workflow over api using env for token adoption and invalidation.
func New(api Calendar, env *envelope.Builder, opts ...Option) *Workflow {
	w := &Workflow{
		api: api,
		env: env,
		now: time.Now,
		loc: time.Local,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Resolve validates req and returns the occurrence it would be scheduled at.
func (w *Workflow) Resolve(req ClassRequest) (recurrence.Occurrence, error) {
	if err := req.Validate(); err != nil {
		return recurrence.Occurrence{}, err
	}
	occ, err := recurrence.ResolveStrings(req.Day, req.StartTime, req.EndTime, w.now().In(w.loc))
	if err != nil {
		return recurrence.Occurrence{}, err
	}
	if !occ.Valid() {
		slog.Warn("Class ends at or before its start", "start", req.StartTime, "end", req.EndTime)
	}
	return occ, nil
}

// AddClass adds the class to the student's calendar.
func (w *Workflow) AddClass(ctx context.Context, req ClassRequest) (*Result, error) {
	occ, err := w.Resolve(req)
	if err != nil {
		return nil, err
	}

	slog.Debug("Adding class", "subject", req.SubjectCode, "start", occ.StartISO(), "end", occ.EndISO())
	resp, err := w.api.AddClass(ctx, req.Payload(occ))
	if err != nil {
		if client.IsTokenExpired(err) {
			if ierr := w.env.Invalidate(ctx); ierr != nil {
				slog.Error("Failed to clear expired tokens", "error", ierr)
			}
			if w.onTokenExpired != nil {
				w.onTokenExpired()
			}
		}
		return nil, err
	}

	res := &Result{Occurrence: occ, Message: resp.MessageText()}
	if res.Message == "" {
		res.Message = DefaultMessage
	}
	refreshed, err := w.env.Adopt(ctx, resp.Tokens)
	if err != nil {
		slog.Warn("Class added but refreshed tokens could not be saved", "error", err)
	}
	res.TokensRefreshed = refreshed
	return res, nil
}
