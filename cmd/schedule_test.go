// ABOUTME: Tests for the schedule commands
// ABOUTME: Verifies token adoption, expiry handling, previews and iCalendar export

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/academix/academix-cli/internal/schedule"
	"github.com/academix/academix-cli/internal/tokenstore"
)

func sampleClass() schedule.ClassRequest {
	return schedule.ClassRequest{
		SubjectName:   "Linear Algebra",
		SubjectCode:   "MAT201",
		Classroom:     "B-12",
		ProfessorName: "Dr. Ortiz",
		Day:           "Monday",
		StartTime:     "09:00",
		EndTime:       "10:30",
	}
}

// seedTokens writes a pair into the configured store.
func seedTokens(t *testing.T, p tokenstore.TokenPair) {
	t.Helper()
	store, err := openStore(context.Background())
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer store.Close()
	if err := store.Write(context.Background(), p); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}
}

func readTokens(t *testing.T) tokenstore.TokenPair {
	t.Helper()
	store, err := openStore(context.Background())
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer store.Close()
	return store.Read(context.Background())
}

func TestRunScheduleAdd_AdoptsRefreshedTokens(t *testing.T) {
	isolate(t)
	t.Setenv("ACADEMIX_TIMEZONE", "UTC")
	seedTokens(t, tokenstore.TokenPair{AccessToken: "a", RefreshToken: "r"})

	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/student/addClass" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer a" || r.Header.Get("X-Refresh-Token") != "r" {
			t.Errorf("missing credentials: %v", r.Header)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"message":"Class scheduled","tokens":{"access_token":"a2","expires_in":3600}}`))
	}))
	defer server.Close()
	apiURL = server.URL

	var buf bytes.Buffer
	code := runScheduleAdd(context.Background(), &buf, sampleClass(), "", 4)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Class scheduled") || !strings.Contains(buf.String(), "refreshed") {
		t.Errorf("unexpected output %q", buf.String())
	}
	if got["day"] != "Monday" || !strings.HasSuffix(got["start_time"], "09:00:00.000Z") {
		t.Errorf("unexpected payload %v", got)
	}

	pair := readTokens(t)
	if pair.AccessToken != "a2" || pair.RefreshToken != "r" || pair.ExpiresAt.IsZero() {
		t.Errorf("expected refreshed access token to be adopted, got %+v", pair)
	}
}

func TestRunScheduleAdd_TokenExpired(t *testing.T) {
	isolate(t)
	seedTokens(t, tokenstore.TokenPair{AccessToken: "a", RefreshToken: "r"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Google token expired","error_kind":"calendar_token_expired"}`))
	}))
	defer server.Close()
	apiURL = server.URL

	var buf bytes.Buffer
	code := runScheduleAdd(context.Background(), &buf, sampleClass(), "", 4)

	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "calendar session expired") {
		t.Errorf("expected reconnect hint, got %q", buf.String())
	}
	if pair := readTokens(t); pair != (tokenstore.TokenPair{}) {
		t.Errorf("expected tokens cleared, got %+v", pair)
	}
}

func TestRunScheduleAdd_NotConnected(t *testing.T) {
	isolate(t)
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()
	apiURL = server.URL

	var buf bytes.Buffer
	code := runScheduleAdd(context.Background(), &buf, sampleClass(), "", 4)

	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if called {
		t.Error("backend should not be called without credentials")
	}
}

func TestRunScheduleAdd_InvalidInput(t *testing.T) {
	isolate(t)
	seedTokens(t, tokenstore.TokenPair{AccessToken: "a", RefreshToken: "r"})
	apiURL = "http://localhost:1"

	req := sampleClass()
	req.Day = "Someday"

	var buf bytes.Buffer
	code := runScheduleAdd(context.Background(), &buf, req, "", 4)

	if code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}

func TestRunSchedulePreview_WritesICS(t *testing.T) {
	isolate(t)
	t.Setenv("ACADEMIX_TIMEZONE", "UTC")
	path := filepath.Join(t.TempDir(), "class.ics")

	var buf bytes.Buffer
	code := runSchedulePreview(&buf, sampleClass(), path, 3)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if strings.Count(buf.String(), "Mon ") != 4 {
		t.Errorf("expected next class plus 3 weeks, got:\n%s", buf.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"BEGIN:VEVENT", "FREQ=WEEKLY", "COUNT=3", "MAT201 Linear Algebra"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected calendar to contain %q", want)
		}
	}
}

func TestRunSchedulePreview_JSON(t *testing.T) {
	isolate(t)
	jsonOutput = true

	var buf bytes.Buffer
	if code := runSchedulePreview(&buf, sampleClass(), "", 2); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	var view classView
	if err := json.Unmarshal(buf.Bytes(), &view); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(view.Upcoming) != 2 || view.Upcoming[0] != view.Start {
		t.Errorf("unexpected preview %+v", view)
	}
}

func TestRunSchedulePreview_MissingFields(t *testing.T) {
	isolate(t)

	var buf bytes.Buffer
	code := runSchedulePreview(&buf, schedule.ClassRequest{Day: "Monday"}, "", 2)

	if code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}
