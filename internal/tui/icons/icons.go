// ABOUTME: Icon system with Nerd Font detection and Unicode fallback
// ABOUTME: Also maps document file extensions to their listing icon

package icons

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	useNerdFonts     bool
	nerdFontDetected sync.Once
)

// detectNerdFonts checks if Nerd Fonts should be used
func detectNerdFonts() bool {
	if env := os.Getenv("ACADEMIX_NERD_FONTS"); env != "" {
		return env == "1" || strings.ToLower(env) == "true"
	}

	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	nerdFontTerminals := []string{
		"iTerm.app",
		"alacritty",
		"WezTerm",
		"kitty",
		"ghostty",
	}

	for _, t := range nerdFontTerminals {
		if strings.Contains(termProgram, t) || strings.Contains(term, strings.ToLower(t)) {
			return true
		}
	}

	return os.Getenv("NERD_FONTS") == "1"
}

// HasNerdFonts returns true if Nerd Fonts are available
func HasNerdFonts() bool {
	nerdFontDetected.Do(func() {
		useNerdFonts = detectNerdFonts()
	})
	return useNerdFonts
}

// Icon represents an icon with Nerd Font and Unicode fallback variants
type Icon struct {
	NerdFont string
	Fallback string
}

// String returns the appropriate icon based on font availability
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

var (
	// Status
	CheckOK  = Icon{"", "✓"}
	Warning  = Icon{"", "⚠"}
	Critical = Icon{"", "✗"}
	Info     = Icon{"", "ℹ"}

	// Actions
	Refresh  = Icon{"󰑓", "↻"}
	Upload   = Icon{"󰕒", "⇪"}
	Delete   = Icon{"󰆴", "✗"}
	Calendar = Icon{"󰃭", "▦"}
	Back     = Icon{"󰁍", "←"}

	// Application
	App       = Icon{"󰑴", "◈"}
	Documents = Icon{"󰈙", "▤"}
	Link      = Icon{"󰌹", "↗"}
)

// File type icons, same set as the web dashboard.
var (
	FilePDF     = Icon{"📄", "📄"}
	FileText    = Icon{"📝", "📝"}
	FileSlides  = Icon{"📊", "📊"}
	FileSheet   = Icon{"📈", "📈"}
	FileImage   = Icon{"🖼️", "🖼️"}
	FileArchive = Icon{"🗜️", "🗜️"}
	FileOther   = Icon{"📁", "📁"}
)

var byExtension = map[string]Icon{
	"pdf":  FilePDF,
	"doc":  FileText,
	"docx": FileText,
	"ppt":  FileSlides,
	"pptx": FileSlides,
	"xls":  FileSheet,
	"xlsx": FileSheet,
	"png":  FileImage,
	"jpg":  FileImage,
	"jpeg": FileImage,
	"gif":  FileImage,
	"zip":  FileArchive,
	"rar":  FileArchive,
}

// ForFile returns the icon for a file name by extension, case-insensitive.
// Unknown or missing extensions get the folder icon.
func ForFile(name string) Icon {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if icon, ok := byExtension[ext]; ok {
		return icon
	}
	return FileOther
}
