// ABOUTME: Local mirror of the student's uploaded documents
// ABOUTME: Optimistic deletion with exact rollback and a single in-flight delete

package documents

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/academix/academix-cli/internal/client"
)

var (
	// ErrNoDocumentID is returned when Remove is called without an id.
	ErrNoDocumentID = errors.New("no document id found")
	// ErrDeletionInFlight is returned while another deletion is awaiting the backend.
	ErrDeletionInFlight = errors.New("another document is being deleted")
)

// API is the subset of the backend client the synchronizer uses.
type API interface {
	ListDocuments(ctx context.Context) ([]client.Document, error)
	UploadDocument(ctx context.Context, name, filename string, content io.Reader) error
	DeleteDocument(ctx context.Context, id string) error
}

// ID is the identity used both for rendering and for delete targeting:
// "_id" when present, else "id", else a digest of the document's content fields.
func ID(doc client.Document) string {
	if doc.ID != "" {
		return doc.ID
	}
	if doc.AltID != "" {
		return doc.AltID
	}
	sum := sha1.Sum([]byte(doc.URL + "|" + doc.OriginalName + "|" + doc.Name))
	return "local-" + hex.EncodeToString(sum[:6])
}

// Synchronizer owns the document list shown to the user.
type Synchronizer struct {
	api   API
	loads singleflight.Group

	mu       sync.Mutex
	docs     []client.Document
	deleting string
	loading  bool
	err      error
	onChange func()
}

// New returns an empty synchronizer backed by api.
func New(api API) *Synchronizer {
	return &Synchronizer{api: api, docs: []client.Document{}}
}

// OnChange registers fn to be called after every state transition.
func (s *Synchronizer) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Synchronizer) changed() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Documents returns a copy of the current list.
func (s *Synchronizer) Documents() []client.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]client.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Deleting returns the id whose deletion is pending, or "".
func (s *Synchronizer) Deleting() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleting
}

// Loading reports whether a fetch is running.
func (s *Synchronizer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last recorded failure.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Load replaces the list with the server's. On failure the list becomes empty
// and the error is recorded. Concurrent calls share one request.
func (s *Synchronizer) Load(ctx context.Context) error {
	_, err, shared := s.loads.Do("list", func() (any, error) {
		s.mu.Lock()
		s.loading = true
		s.mu.Unlock()
		s.changed()

		docs, err := s.api.ListDocuments(ctx)

		s.mu.Lock()
		s.loading = false
		if err != nil {
			s.docs = []client.Document{}
			s.err = err
		} else {
			if docs == nil {
				docs = []client.Document{}
			}
			s.docs = docs
			s.err = nil
		}
		count := len(s.docs)
		s.mu.Unlock()
		s.changed()

		if err != nil {
			slog.Warn("Failed to fetch documents", "error", err)
			return nil, err
		}
		slog.Debug("Documents loaded", "count", count)
		return nil, nil
	})
	if shared {
		slog.Debug("Joined in-progress document fetch")
	}
	return err
}

// Remove deletes id optimistically. The document disappears before the request
// is sent; if the backend refuses, the exact previous list is restored before
// the pending marker is cleared.
func (s *Synchronizer) Remove(ctx context.Context, id string) error {
	if id == "" {
		s.mu.Lock()
		s.err = ErrNoDocumentID
		s.mu.Unlock()
		s.changed()
		return ErrNoDocumentID
	}

	s.mu.Lock()
	if s.deleting != "" {
		pending := s.deleting
		s.mu.Unlock()
		slog.Debug("Rejected deletion while another is pending", "id", id, "pending", pending)
		return ErrDeletionInFlight
	}
	previous := s.docs
	next := make([]client.Document, 0, len(previous))
	for _, d := range previous {
		if ID(d) != id {
			next = append(next, d)
		}
	}
	s.docs = next
	s.deleting = id
	s.mu.Unlock()
	s.changed()

	err := s.api.DeleteDocument(ctx, id)

	s.mu.Lock()
	if err != nil {
		s.docs = previous
		s.err = err
	}
	s.deleting = ""
	s.mu.Unlock()
	s.changed()

	if err != nil {
		slog.Warn("Document deletion failed, restored list", "id", id, "error", err)
		return err
	}
	slog.Info("Document deleted", "id", id)
	return nil
}

// Upload sends a file and, on success, reloads the full list. A failed reload
// does not fail the upload; it is left in Err.
func (s *Synchronizer) Upload(ctx context.Context, name, filename string, content io.Reader) error {
	if err := s.api.UploadDocument(ctx, name, filename, content); err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		s.changed()
		return err
	}
	slog.Info("Document uploaded", "name", name, "file", filename)
	_ = s.Load(ctx)
	return nil
}
