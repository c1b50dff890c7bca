package blob

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestPutAndOpenRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	payload := "fake video bytes"

	written, err := store.Put("abc123.mp4", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if written != int64(len(payload)) {
		t.Fatalf("expected %d bytes written, got %d", len(payload), written)
	}

	reader, err := store.Open("abc123.mp4")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != payload {
		t.Fatalf("payload mismatch: %q", got)
	}
}

func TestOpenAbsentReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if _, err := store.Open("missing.mp4"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Path("missing.mp4"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Path, got %v", err)
	}
}

func TestDeleteRemovesBlobAndIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if _, err := store.Put("gone.webm", strings.NewReader("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := store.Delete("gone.webm"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Path("gone.webm"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected blob removed, got %v", err)
	}
	if err := store.Delete("gone.webm"); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	for _, name := range []string{"a.mp4", "b.webm", "c.mkv"} {
		if _, err := store.Put(name, strings.NewReader("data")); err != nil {
			t.Fatalf("Put %s: %v", name, err)
		}
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, name := range []string{"a.mp4", "b.webm", "c.mkv"} {
		if _, err := store.Path(name); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected %s removed, got %v", name, err)
		}
	}
}

func TestRejectsPathTraversalNames(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	for _, name := range []string{"", "../escape.mp4", "dir/clip.mp4", ".hidden"} {
		if _, err := store.Put(name, strings.NewReader("x")); err == nil {
			t.Fatalf("expected rejection for %q", name)
		}
	}
}

func TestPutLeavesNoTempFileOnFailure(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	reader := io.MultiReader(strings.NewReader("partial"), failingReader{})

	if _, err := store.Put("broken.mp4", reader); err == nil {
		t.Fatal("expected copy error")
	}

	entries, err := os.ReadDir(storeDir(t, store))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty directory, found %d entries", len(entries))
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if err := os.RemoveAll(storeDir(t, store)); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if err := store.Ping(context.Background()); err == nil {
		t.Fatal("expected ping failure for removed directory")
	}
}

func storeDir(t *testing.T, store *Store) string {
	t.Helper()
	return store.baseDir
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("stream interrupted")
}

func TestNewStoreCreatesNestedDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "blobs")
	if _, err := NewStore(dir); err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory created, err=%v", err)
	}
}
