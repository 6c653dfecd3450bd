package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// TestLocalOpen verifies that Local reads back the file contents.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "orders.csv")
	if err := os.WriteFile(p, []byte("order_id\nO1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rc, err := NewLocal(p).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "order_id\nO1\n" {
		t.Fatalf("content = %q", b)
	}
}

// TestLocalOpenErrors verifies missing files keep os.ErrNotExist, directories
// are rejected, and a canceled context is honored before touching disk.
func TestLocalOpenErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := NewLocal(filepath.Join(dir, "nope.csv")).Open(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing: err = %v, want os.ErrNotExist", err)
	}
	if _, err := NewLocal(dir).Open(context.Background()); err == nil {
		t.Fatalf("directory: expected error")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal(filepath.Join(dir, "nope.csv")).Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled: err = %v, want context.Canceled", err)
	}
}
