package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) handle(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(t.TempDir(), nil, WithPatterns("[a-"))

	assert.Error(t, err)
}

func TestWatcher_Match(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, nil)
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"report.pdf", true},
		{"nested/deep/notes.md", true},
		{"readme.txt", true},
		{"image.png", false},
		{filepath.Join(root, "abs.pdf"), true},
		{filepath.Join(root, "sub", "abs.docx"), true},
		{filepath.Join(root, "sub", "abs.xlsx"), false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Match(tt.path))
		})
	}
}

func TestWatcher_Match_CustomPatterns(t *testing.T) {
	w, err := New(t.TempDir(), nil, WithPatterns("inbox/*.pdf"))
	require.NoError(t, err)

	assert.True(t, w.Match("inbox/a.pdf"))
	assert.False(t, w.Match("a.pdf"))
	assert.False(t, w.Match("inbox/deeper/a.pdf"))
}

func TestWatcher_Existing(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "a.pdf"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip.png"), []byte("x"), 0o600))

	w, err := New(root, nil)
	require.NoError(t, err)

	paths, err := w.Existing()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "b.txt"),
		filepath.Join(root, "sub", "a.pdf"),
	}, paths)
}

func TestWatcher_Run_HandlesNewFiles(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	w, err := New(root, rec.handle, WithSettle(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	target := filepath.Join(root, "new.txt")
	go func() {
		time.Sleep(50 * time.Millisecond)
		os.WriteFile(filepath.Join(root, "ignored.png"), []byte("x"), 0o600) //nolint:errcheck
		os.WriteFile(target, []byte("hello"), 0o600)                          //nolint:errcheck
	}()

	assert.Eventually(t, func() bool { return len(rec.seen()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{target}, rec.seen())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_Run_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	w, err := New(root, rec.handle, WithSettle(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx) //nolint:errcheck

	time.Sleep(50 * time.Millisecond)
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(50 * time.Millisecond)
	target := filepath.Join(sub, "doc.md")
	require.NoError(t, os.WriteFile(target, []byte("# hi"), 0o600))

	assert.Eventually(t, func() bool {
		seen := rec.seen()
		return len(seen) == 1 && seen[0] == target
	}, 2*time.Second, 10*time.Millisecond)
}
