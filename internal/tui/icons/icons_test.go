// ABOUTME: Tests for icon selection
// ABOUTME: Covers extension mapping and Nerd Font override

package icons

import "testing"

func TestForFile(t *testing.T) {
	tests := []struct {
		name string
		want Icon
	}{
		{"notes.pdf", FilePDF},
		{"REPORT.DOCX", FileText},
		{"deck.pptx", FileSlides},
		{"marks.xls", FileSheet},
		{"photo.jpeg", FileImage},
		{"backup.tar.rar", FileArchive},
		{"README", FileOther},
		{"data.csv", FileOther},
		{"", FileOther},
	}

	for _, tt := range tests {
		if got := ForFile(tt.name); got != tt.want {
			t.Errorf("ForFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDetectNerdFonts_EnvOverride(t *testing.T) {
	t.Setenv("ACADEMIX_NERD_FONTS", "true")
	if !detectNerdFonts() {
		t.Error("expected override to enable nerd fonts")
	}

	t.Setenv("ACADEMIX_NERD_FONTS", "0")
	t.Setenv("TERM_PROGRAM", "iTerm.app")
	if detectNerdFonts() {
		t.Error("expected override to win over terminal detection")
	}
}
