// ABOUTME: Remembers recently uploaded documents for the upload picker
// ABOUTME: Stores entries as JSON next to the session file in the config directory

package recentfiles

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// MaxEntries is the maximum number of recent uploads to keep
const MaxEntries = 8

// FileName is the JSON file holding the list inside the config directory.
const FileName = "recent-uploads.json"

// Entry is one uploaded file.
type Entry struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Recent manages the list of recently uploaded files
type Recent struct {
	configDir string
	entries   []Entry
	now       func() time.Time
}

type recentData struct {
	Uploads []Entry `json:"uploads"`
}

// New creates a manager rooted at configDir
func New(configDir string) *Recent {
	return &Recent{configDir: configDir, now: time.Now}
}

func (r *Recent) file() string {
	return filepath.Join(r.configDir, FileName)
}

// Load reads the list from disk, dropping files that no longer exist.
// A missing or unreadable list loads as empty.
func (r *Recent) Load() ([]Entry, error) {
	data, err := os.ReadFile(r.file())
	if os.IsNotExist(err) {
		r.entries = []Entry{}
		return r.entries, nil
	}
	if err != nil {
		return nil, err
	}

	var d recentData
	if err := json.Unmarshal(data, &d); err != nil {
		r.entries = []Entry{}
		return r.entries, nil
	}

	r.entries = make([]Entry, 0, len(d.Uploads))
	for _, e := range d.Uploads {
		if _, err := os.Stat(e.Path); err == nil {
			r.entries = append(r.entries, e)
		}
	}
	return r.entries, nil
}

func (r *Recent) save(entries []Entry) error {
	if err := os.MkdirAll(r.configDir, 0700); err != nil {
		return err
	}
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	r.entries = entries

	data, err := json.MarshalIndent(recentData{Uploads: entries}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.file(), data, 0600)
}

// Add records an upload of path under name, moving it to the front if already listed.
func (r *Recent) Add(path, name string) error {
	if r.entries == nil {
		if _, err := r.Load(); err != nil {
			r.entries = []Entry{}
		}
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	next := make([]Entry, 0, len(r.entries)+1)
	next = append(next, Entry{Path: path, Name: name, UploadedAt: r.now().UTC()})
	for _, e := range r.entries {
		if e.Path != path {
			next = append(next, e)
		}
	}
	return r.save(next)
}

// List returns the current entries, loading them on first use
func (r *Recent) List() []Entry {
	if r.entries == nil {
		r.Load()
	}
	return r.entries
}
