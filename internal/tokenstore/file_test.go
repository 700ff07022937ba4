// ABOUTME: Tests for the JSON file token backend
// ABOUTME: Covers persistence across instances, file permissions, corrupt files and fsnotify watching

package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := New(NewFileBackend(dir))
	require.NoError(t, first.Write(ctx, TokenPair{AccessToken: "a", RefreshToken: "r"}))

	second := New(NewFileBackend(dir))
	got := second.Read(ctx)
	assert.Equal(t, "a", got.AccessToken)
	assert.Equal(t, "r", got.RefreshToken)
	assert.True(t, second.IsConnected(ctx))
}

func TestFileBackend_FileIsPrivate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "academix")
	b := NewFileBackend(dir)

	require.NoError(t, b.Set(context.Background(), "o", map[string]string{KeyAccessToken: "a"}))

	info, err := os.Stat(b.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")
}

func TestFileBackend_MissingFileReadsEmpty(t *testing.T) {
	b := NewFileBackend(t.TempDir())

	_, ok, err := b.Get(context.Background(), KeyAccessToken)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileBackend_CorruptFileReadsEmpty(t *testing.T) {
	dir := t.TempDir()
	b := NewFileBackend(dir)
	require.NoError(t, os.WriteFile(b.Path(), []byte("{not json"), 0600))

	assert.Equal(t, TokenPair{}, New(b).Read(context.Background()))

	require.NoError(t, b.Set(context.Background(), "o", map[string]string{KeyRefreshToken: "r"}))
	v, ok, err := b.Get(context.Background(), KeyRefreshToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "r", v)
}

func TestFileBackend_DeleteRecordsOrigin(t *testing.T) {
	ctx := context.Background()
	b := NewFileBackend(t.TempDir())
	require.NoError(t, b.Set(ctx, "one", map[string]string{KeyAccessToken: "a", KeyRefreshToken: "r"}))

	require.NoError(t, b.Delete(ctx, "two", KeyAccessToken))

	s, err := b.load()
	require.NoError(t, err)
	assert.Equal(t, "two", s.Origin)
	assert.Equal(t, map[string]string{KeyRefreshToken: "r"}, s.Values)
}

func TestFileBackend_WatchSeesOtherProcess(t *testing.T) {
	dir := t.TempDir()
	ours := New(NewFileBackend(dir))
	theirs := New(NewFileBackend(dir))

	got := startWatch(t, ours, theirs)

	time.Sleep(200 * time.Millisecond)
	drain(got)

	require.NoError(t, theirs.Clear(context.Background()))
	require.Eventually(t, func() bool {
		select {
		case c := <-got:
			return !c
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
}

func TestFileBackend_WatchIgnoresOwnWrites(t *testing.T) {
	dir := t.TempDir()
	ours := New(NewFileBackend(dir))
	theirs := New(NewFileBackend(dir))

	got := startWatch(t, ours, theirs)

	time.Sleep(200 * time.Millisecond)
	drain(got)

	require.NoError(t, ours.Write(context.Background(), TokenPair{AccessToken: "mine"}))

	assert.Never(t, func() bool { return len(got) > 0 }, 300*time.Millisecond, 20*time.Millisecond)
}
