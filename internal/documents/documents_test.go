// ABOUTME: Tests for the document list synchronizer
// ABOUTME: Uses a scripted fake API for ordering checks and httptest for end-to-end cases

package documents

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academix/academix-cli/internal/client"
)

type fakeAPI struct {
	listCalls   atomic.Int32
	listRelease chan struct{}
	listStarted chan struct{}
	docs        []client.Document
	listErr     error

	deleteRelease chan struct{}
	deleteStarted chan string
	deleteErr     error
	deleteCalls   atomic.Int32

	uploadErr  error
	uploadName string
}

func (f *fakeAPI) ListDocuments(ctx context.Context) ([]client.Document, error) {
	f.listCalls.Add(1)
	if f.listStarted != nil {
		f.listStarted <- struct{}{}
	}
	if f.listRelease != nil {
		<-f.listRelease
	}
	return f.docs, f.listErr
}

func (f *fakeAPI) UploadDocument(ctx context.Context, name, filename string, content io.Reader) error {
	f.uploadName = name
	return f.uploadErr
}

func (f *fakeAPI) DeleteDocument(ctx context.Context, id string) error {
	f.deleteCalls.Add(1)
	if f.deleteStarted != nil {
		f.deleteStarted <- id
	}
	if f.deleteRelease != nil {
		<-f.deleteRelease
	}
	return f.deleteErr
}

var sample = []client.Document{
	{ID: "a", Name: "Resume", OriginalName: "resume.pdf", URL: "http://f/a"},
	{ID: "b", Name: "Marks", OriginalName: "marks.xlsx", URL: "http://f/b"},
	{AltID: "c", Name: "Photo", URL: "http://f/c"},
}

func loaded(t *testing.T, api *fakeAPI) *Synchronizer {
	t.Helper()
	api.docs = sample
	s := New(api)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestID(t *testing.T) {
	assert.Equal(t, "x", ID(client.Document{ID: "x", AltID: "y"}))
	assert.Equal(t, "y", ID(client.Document{AltID: "y"}))

	doc := client.Document{Name: "n", URL: "http://f/1"}
	first := ID(doc)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, ID(doc), "fallback id must be stable")
	assert.NotEqual(t, first, ID(client.Document{Name: "n", URL: "http://f/2"}))
}

func TestLoad_ReplacesList(t *testing.T) {
	s := loaded(t, &fakeAPI{})

	assert.Equal(t, sample, s.Documents())
	assert.NoError(t, s.Err())
	assert.False(t, s.Loading())
}

func TestLoad_FailureEmptiesList(t *testing.T) {
	api := &fakeAPI{}
	s := loaded(t, api)
	api.listErr = errors.New("Failed to fetch documents")

	err := s.Load(context.Background())

	require.Error(t, err)
	assert.Empty(t, s.Documents())
	assert.Equal(t, err, s.Err())
}

func TestLoad_ConcurrentCallsShareRequest(t *testing.T) {
	api := &fakeAPI{
		docs:        sample,
		listStarted: make(chan struct{}, 4),
		listRelease: make(chan struct{}),
	}
	s := New(api)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); assert.NoError(t, s.Load(context.Background())) }()
	<-api.listStarted
	assert.True(t, s.Loading())
	go func() { defer wg.Done(); assert.NoError(t, s.Load(context.Background())) }()
	time.Sleep(50 * time.Millisecond)
	close(api.listRelease)
	wg.Wait()

	assert.Equal(t, int32(1), api.listCalls.Load())
	assert.Len(t, s.Documents(), 3)
}

func TestRemove_OptimisticThenConfirmed(t *testing.T) {
	api := &fakeAPI{deleteStarted: make(chan string, 1), deleteRelease: make(chan struct{})}
	s := loaded(t, api)

	done := make(chan error, 1)
	go func() { done <- s.Remove(context.Background(), "b") }()

	assert.Equal(t, "b", <-api.deleteStarted)
	assert.Equal(t, "b", s.Deleting())
	assert.NotContains(t, ids(s.Documents()), "b", "document must disappear before the request completes")

	close(api.deleteRelease)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"a", "c"}, ids(s.Documents()))
	assert.Empty(t, s.Deleting())
	assert.NoError(t, s.Err())
}

func TestRemove_FailureRestoresExactList(t *testing.T) {
	api := &fakeAPI{deleteErr: errors.New("Failed to delete document")}
	s := loaded(t, api)
	before := s.Documents()

	err := s.Remove(context.Background(), "a")

	require.Error(t, err)
	assert.Equal(t, before, s.Documents())
	assert.Empty(t, s.Deleting())
	assert.Equal(t, err, s.Err())
}

func TestRemove_RollbackBeforeMarkerCleared(t *testing.T) {
	api := &fakeAPI{deleteErr: errors.New("nope")}
	s := loaded(t, api)

	type snap struct {
		deleting string
		count    int
	}
	var seen []snap
	s.OnChange(func() { seen = append(seen, snap{s.Deleting(), len(s.Documents())}) })

	require.Error(t, s.Remove(context.Background(), "a"))

	require.Len(t, seen, 2)
	assert.Equal(t, snap{"a", 2}, seen[0])
	assert.Equal(t, snap{"", 3}, seen[1])
	for _, st := range seen {
		assert.False(t, st.deleting == "" && st.count == 2, "list must never look deleted once the marker is cleared")
	}
}

func TestRemove_SecondDeletionRejectedWhilePending(t *testing.T) {
	api := &fakeAPI{deleteStarted: make(chan string, 1), deleteRelease: make(chan struct{})}
	s := loaded(t, api)

	done := make(chan error, 1)
	go func() { done <- s.Remove(context.Background(), "a") }()
	<-api.deleteStarted

	err := s.Remove(context.Background(), "b")
	assert.ErrorIs(t, err, ErrDeletionInFlight)
	assert.Contains(t, ids(s.Documents()), "b")

	close(api.deleteRelease)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), api.deleteCalls.Load())
}

func TestRemove_EmptyID(t *testing.T) {
	api := &fakeAPI{}
	s := loaded(t, api)

	err := s.Remove(context.Background(), "")

	assert.ErrorIs(t, err, ErrNoDocumentID)
	assert.ErrorIs(t, s.Err(), ErrNoDocumentID)
	assert.Zero(t, api.deleteCalls.Load())
	assert.Len(t, s.Documents(), 3)
}

func TestRemove_ByAltID(t *testing.T) {
	s := loaded(t, &fakeAPI{})

	require.NoError(t, s.Remove(context.Background(), "c"))

	assert.Equal(t, []string{"a", "b"}, ids(s.Documents()))
}

func TestUpload_ReloadsOnSuccess(t *testing.T) {
	api := &fakeAPI{}
	s := New(api)
	api.docs = sample

	require.NoError(t, s.Upload(context.Background(), "Resume", "resume.pdf", strings.NewReader("x")))

	assert.Equal(t, "Resume", api.uploadName)
	assert.Equal(t, int32(1), api.listCalls.Load())
	assert.Len(t, s.Documents(), 3)
}

func TestUpload_SucceedsWhenReloadFails(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("list down")}
	s := New(api)

	err := s.Upload(context.Background(), "Resume", "resume.pdf", strings.NewReader("x"))

	require.NoError(t, err)
	assert.Equal(t, "Resume", api.uploadName)
	assert.Equal(t, int32(1), api.listCalls.Load())
	assert.EqualError(t, s.Err(), "list down")
	assert.Empty(t, s.Documents())
}

func TestUpload_FailureKeepsList(t *testing.T) {
	api := &fakeAPI{}
	s := loaded(t, api)
	api.uploadErr = errors.New("Upload failed")

	err := s.Upload(context.Background(), "x", "x.pdf", strings.NewReader("x"))

	require.Error(t, err)
	assert.Equal(t, int32(1), api.listCalls.Load())
	assert.Len(t, s.Documents(), 3)
	assert.Equal(t, err, s.Err())
}

func TestRemove_UnknownIDAgainstBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/student/getAllDocuments":
			w.Write([]byte(`{"message":{"documents":[{"_id":"a","name":"A","url":"u1"},{"_id":"b","name":"B","url":"u2"}]}}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/student/deleteDocument/zzz":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Document not found"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer server.Close()

	c, err := client.New(server.URL)
	require.NoError(t, err)
	s := New(c)
	require.NoError(t, s.Load(context.Background()))

	err = s.Remove(context.Background(), "zzz")

	require.Error(t, err)
	assert.True(t, client.IsRejected(err))
	assert.Contains(t, err.Error(), "Document not found")
	assert.Equal(t, []string{"a", "b"}, ids(s.Documents()))
	assert.Empty(t, s.Deleting())
}

func ids(docs []client.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = ID(d)
	}
	return out
}
