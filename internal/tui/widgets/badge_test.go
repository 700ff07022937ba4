// ABOUTME: Tests for badge widgets
// ABOUTME: Checks rendered text for connection and status badges

package widgets

import (
	"strings"
	"testing"
)

func TestConnectionBadge(t *testing.T) {
	if got := ConnectionBadge(true); !strings.Contains(got, "Calendar connected") {
		t.Errorf("expected connected badge, got %q", got)
	}
	if got := ConnectionBadge(false); !strings.Contains(got, "not connected") {
		t.Errorf("expected disconnected badge, got %q", got)
	}
}

func TestStatusText(t *testing.T) {
	got := StatusText("Deleted notes.pdf", StatusOK)
	if !strings.Contains(got, "Deleted notes.pdf") {
		t.Errorf("expected message in status text, got %q", got)
	}
}
