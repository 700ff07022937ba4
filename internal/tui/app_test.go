// ABOUTME: Integration tests for the TUI app
// ABOUTME: Tests component wiring and state transitions against a fake backend

package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/academix/academix-cli/internal/client"
	"github.com/academix/academix-cli/internal/documents"
	"github.com/academix/academix-cli/internal/envelope"
	"github.com/academix/academix-cli/internal/schedule"
	"github.com/academix/academix-cli/internal/tokenstore"
	"github.com/academix/academix-cli/internal/tui/classform"
	"github.com/academix/academix-cli/internal/tui/filepicker"
	"github.com/academix/academix-cli/internal/tui/menu"
	"github.com/academix/academix-cli/internal/tui/recentfiles"

	tea "github.com/charmbracelet/bubbletea"
)

const docsBody = `{"message":{"documents":[{"_id":"a","name":"Lecture 1","originalName":"lecture1.pdf","url":"https://files.example/a"},{"_id":"b","name":"Notes","originalName":"notes.docx","url":"https://files.example/b"}]}}`

type harness struct {
	app    *App
	store  *tokenstore.Store
	server *httptest.Server
}

func newHarness(t *testing.T, handler http.HandlerFunc) *harness {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := tokenstore.New(tokenstore.NewMemoryBackend())
	env := envelope.New(store)
	c, err := client.New(server.URL, client.WithAuthorizer(env))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	notify, expired := ExpiryHook()
	app := New(ctx, Options{
		Store:     store,
		Documents: documents.New(c),
		Workflow:  schedule.New(c, env, schedule.WithTokenExpired(notify)),
		Session:   c,
		ConfigDir: t.TempDir(),
		Backend:   "memory",
		Expired:   expired,
	})
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return &harness{app: app, store: store, server: server}
}

func docsHandler(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet:
		w.Write([]byte(docsBody))
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"storage unavailable"}`))
	default:
		w.Write([]byte(`{"message":"ok"}`))
	}
}

func TestAppInitialState(t *testing.T) {
	app := New(context.Background(), Options{})

	if app.screen != ScreenHome {
		t.Errorf("expected initial screen to be ScreenHome, got %d", app.screen)
	}
	if app.menu == nil {
		t.Error("expected menu to be initialized")
	}
	if app.connected {
		t.Error("expected disconnected without a store")
	}
}

func TestAppReadsConnectionFromStore(t *testing.T) {
	store := tokenstore.New(tokenstore.NewMemoryBackend())
	store.Write(context.Background(), tokenstore.TokenPair{AccessToken: "a", RefreshToken: "r"})

	app := New(context.Background(), Options{Store: store})

	if !app.connected {
		t.Error("expected connected when both tokens are stored")
	}
}

func TestScreenConstants(t *testing.T) {
	if ScreenHome != 0 {
		t.Errorf("expected ScreenHome to be 0, got %d", ScreenHome)
	}
	if ScreenDocuments != 1 {
		t.Errorf("expected ScreenDocuments to be 1, got %d", ScreenDocuments)
	}
	if ScreenClassResult != 4 {
		t.Errorf("expected ScreenClassResult to be 4, got %d", ScreenClassResult)
	}
}

func TestAppLoadsDocuments(t *testing.T) {
	h := newHarness(t, docsHandler)

	h.app.Update(menu.ActionSelectedMsg{Action: menu.ActionDocuments})
	if h.app.screen != ScreenDocuments {
		t.Fatalf("expected documents screen, got %d", h.app.screen)
	}
	if h.app.busy == "" {
		t.Error("expected busy indicator while loading")
	}

	h.app.Update(h.app.loadDocuments()())

	if h.app.busy != "" {
		t.Error("expected busy cleared after load")
	}
	view := h.app.View()
	for _, want := range []string{"lecture1.pdf", "notes.docx", "Actions", "Updated"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q\nView:\n%s", want, view)
		}
	}
}

func TestAppDeleteFailureRestoresList(t *testing.T) {
	h := newHarness(t, docsHandler)
	h.app.screen = ScreenDocuments
	h.app.Update(h.app.loadDocuments()())

	_, cmd := h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	if cmd == nil {
		t.Fatal("expected delete command")
	}
	h.app.Update(cmd())

	view := h.app.View()
	if !strings.Contains(view, "Delete failed") || !strings.Contains(view, "storage unavailable") {
		t.Errorf("expected failure status\nView:\n%s", view)
	}
	if !strings.Contains(view, "lecture1.pdf") {
		t.Errorf("expected document restored\nView:\n%s", view)
	}
}

func TestAppUploadRecordsRecent(t *testing.T) {
	h := newHarness(t, docsHandler)

	path := filepath.Join(t.TempDir(), "syllabus.pdf")
	os.WriteFile(path, []byte("%PDF"), 0644)

	_, cmd := h.app.Update(filepicker.FileSelectedMsg{Path: path, Name: "Syllabus"})
	if h.app.screen != ScreenDocuments {
		t.Errorf("expected documents screen during upload, got %d", h.app.screen)
	}
	if cmd == nil {
		t.Fatal("expected upload command")
	}

	h.app.Update(h.app.uploadDocument(path, "Syllabus")())

	if !strings.Contains(h.app.View(), "Uploaded Syllabus") {
		t.Errorf("expected upload status\nView:\n%s", h.app.View())
	}
	recent, _ := recentfiles.New(h.app.opts.ConfigDir).Load()
	if len(recent) != 1 || recent[0].Name != "Syllabus" {
		t.Errorf("expected recent upload recorded, got %+v", recent)
	}
}

func TestAppClassTokenExpired(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"calendar_token_expired","message":"Google token expired"}`))
	})
	h.store.Write(context.Background(), tokenstore.TokenPair{AccessToken: "a", RefreshToken: "r"})
	h.app.connected = true

	req := schedule.ClassRequest{
		SubjectName: "Networks", SubjectCode: "CS305", Classroom: "B-204",
		ProfessorName: "Dr. Rao", Day: "Monday", StartTime: "09:00", EndTime: "10:30",
	}
	_, cmd := h.app.Update(classform.ClassFormCompleteMsg{Request: req})
	if h.app.screen != ScreenClassResult || cmd == nil {
		t.Fatalf("expected result screen with pending command, got %d", h.app.screen)
	}

	h.app.Update(h.app.addClass(req)())

	if h.app.connected {
		t.Error("expected disconnected after token expiry")
	}
	if h.store.IsConnected(context.Background()) {
		t.Error("expected store cleared")
	}
	if !strings.Contains(h.app.View(), "session expired") {
		t.Errorf("expected expiry hint\nView:\n%s", h.app.View())
	}

	h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	if h.app.screen != ScreenClassResult {
		t.Error("expected to stay on result screen while disconnected")
	}
	if h.app.status == nil || h.app.status.text != menu.ErrNotConnected.Error() {
		t.Errorf("expected not connected status, got %+v", h.app.status)
	}
}

func TestAppExpiryCallbackReachesApp(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Unauthorized","error_kind":"calendar_token_expired"}`))
	})
	h.store.Write(context.Background(), tokenstore.TokenPair{AccessToken: "a", RefreshToken: "r"})
	h.app.connected = true

	req := schedule.ClassRequest{
		SubjectName: "Networks", SubjectCode: "CS305", Classroom: "B-204",
		ProfessorName: "Dr. Rao", Day: "Monday", StartTime: "09:00", EndTime: "10:30",
	}
	h.app.addClass(req)()

	msg := h.app.waitForExpiry()()
	if _, ok := msg.(tokenExpiredMsg); !ok {
		t.Fatalf("expected tokenExpiredMsg from the workflow callback, got %T", msg)
	}
	_, cmd := h.app.Update(msg)

	if h.app.connected {
		t.Error("expected disconnected after expiry callback")
	}
	if h.app.status == nil || !strings.Contains(h.app.status.text, "session expired") {
		t.Errorf("expected expiry status, got %+v", h.app.status)
	}
	if cmd == nil {
		t.Error("expected the expiry listener to be re-armed")
	}
}

func TestAppWithoutExpiryChannel(t *testing.T) {
	app := New(context.Background(), Options{})

	if app.waitForExpiry() != nil {
		t.Error("expected no expiry listener without a channel")
	}
}

func TestAppClassRetryPrefillsForm(t *testing.T) {
	app := New(context.Background(), Options{})
	app.connected = true
	req := schedule.ClassRequest{SubjectCode: "CS305", Day: "Friday"}

	app.Update(classform.ClassFormCompleteMsg{Request: req})
	app.Update(classAddedMsg{req: req, err: &client.Error{Kind: client.KindRejected, Status: 400, Message: "Invalid slot"}})
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})

	if app.screen != ScreenClassForm {
		t.Fatalf("expected class form, got %d", app.screen)
	}
	if got := app.form.Request(); got.SubjectCode != "CS305" || got.Day != "Friday" {
		t.Errorf("expected failed request to prefill the form, got %+v", got)
	}
}

func TestAppForeignDisconnectRebuildsMenu(t *testing.T) {
	app := New(context.Background(), Options{})
	app.connected = true
	before := app.menu

	app.Update(connectionChangedMsg{connected: false})

	if app.connected {
		t.Error("expected disconnected")
	}
	if app.menu == before {
		t.Error("expected menu rebuilt on home screen")
	}
	if !strings.Contains(app.View(), "disconnected in another session") {
		t.Errorf("expected status line\nView:\n%s", app.View())
	}
}

func TestAppDocsChangedRewaits(t *testing.T) {
	app := New(context.Background(), Options{})

	_, cmd := app.Update(docsChangedMsg{})
	if cmd == nil {
		t.Error("expected wait command to be re-armed")
	}
}

func TestAppLogout(t *testing.T) {
	h := newHarness(t, docsHandler)

	h.app.Update(menu.ActionSelectedMsg{Action: menu.ActionLogout})
	h.app.Update(h.app.logout()())

	if h.app.screen != ScreenHome {
		t.Errorf("expected home screen, got %d", h.app.screen)
	}
	if !strings.Contains(h.app.View(), "Logged out") {
		t.Errorf("expected logout status\nView:\n%s", h.app.View())
	}
}

func TestAppPickerCancelReturnsToOrigin(t *testing.T) {
	h := newHarness(t, docsHandler)
	h.app.screen = ScreenDocuments

	h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'u'}})
	if h.app.screen != ScreenFilePicker {
		t.Fatalf("expected picker, got %d", h.app.screen)
	}

	h.app.Update(filepicker.CancelledMsg{})
	if h.app.screen != ScreenDocuments {
		t.Errorf("expected back on documents, got %d", h.app.screen)
	}
}

func TestFormatTimeSince(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{time.Second, "just now"},
		{30 * time.Second, "30s ago"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
	}

	for _, tc := range tests {
		if got := formatTimeSince(time.Now().Add(-tc.ago)); got != tc.want {
			t.Errorf("formatTimeSince(-%v) = %q, want %q", tc.ago, got, tc.want)
		}
	}
}
