// ABOUTME: Token backend persisted as a JSON file in the config directory
// ABOUTME: Watches the directory with fsnotify to see writes made by other processes

package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SessionFileName is the name of the token file inside the config directory.
const SessionFileName = "session.json"

type sessionData struct {
	Origin    string            `json:"origin"`
	UpdatedAt time.Time         `json:"updated_at"`
	Values    map[string]string `json:"values"`
}

// FileBackend stores all keys in one JSON document. Every write replaces the
// file atomically so readers in other processes never see a partial document.
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

// NewFileBackend returns a backend rooted at dir. The directory is created on first write.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// Path returns the session file location.
func (f *FileBackend) Path() string {
	return filepath.Join(f.dir, SessionFileName)
}

// load reads the session file. A missing or corrupt file reads as empty.
func (f *FileBackend) load() (sessionData, error) {
	data, err := os.ReadFile(f.Path())
	if os.IsNotExist(err) {
		return sessionData{Values: map[string]string{}}, nil
	}
	if err != nil {
		return sessionData{}, err
	}

	var s sessionData
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Warn("Session file is not valid JSON, starting fresh", "path", f.Path(), "error", err)
		return sessionData{Values: map[string]string{}}, nil
	}
	if s.Values == nil {
		s.Values = map[string]string{}
	}
	return s, nil
}

func (f *FileBackend) save(s sessionData) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, ".session-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, f.Path())
}

func (f *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := s.Values[key]
	return v, ok, nil
}

func (f *FileBackend) Set(_ context.Context, origin string, values map[string]string) error {
	return f.update(origin, func(m map[string]string) {
		for k, v := range values {
			m[k] = v
		}
	})
}

func (f *FileBackend) Delete(_ context.Context, origin string, keys ...string) error {
	return f.update(origin, func(m map[string]string) {
		for _, k := range keys {
			delete(m, k)
		}
	})
}

func (f *FileBackend) update(origin string, mutate func(map[string]string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.load()
	if err != nil {
		return err
	}
	mutate(s.Values)
	s.Origin = origin
	s.UpdatedAt = time.Now().UTC()
	if err := f.save(s); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Watch reports changes to the session file until ctx is done. The origin
// passed to fn is the one recorded by the writer; a deleted file reports "".
func (f *FileBackend) Watch(ctx context.Context, fn ChangeFunc) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(f.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", f.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != SessionFileName {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				f.mu.Lock()
				s, err := f.load()
				f.mu.Unlock()
				if err != nil {
					slog.Warn("Failed to read changed session file", "error", err)
					continue
				}
				fn(s.Origin)
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				if _, err := os.Stat(f.Path()); os.IsNotExist(err) {
					fn("")
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Session file watcher error", "error", err)
		}
	}
}

func (f *FileBackend) Close() error {
	return nil
}
