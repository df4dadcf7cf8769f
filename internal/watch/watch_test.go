package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "input.json")
	other := filepath.Join(dir, "other.json")
	for _, p := range []string{target, other} {
		if err := os.WriteFile(p, []byte(`{}`), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", p, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- Files(ctx, []string{target}, 50*time.Millisecond, func() { calls <- struct{}{} })
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(other, []byte(`{"x": 1}`), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	select {
	case <-calls:
		t.Fatal("change to an unwatched file triggered a run")
	case <-time.After(200 * time.Millisecond):
	}

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte(`{"tasks": []}`), 0600); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("no run after the watched file changed")
	}
	select {
	case <-calls:
		t.Error("a burst of writes should produce a single run")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Files returned %v after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Files did not stop after cancel")
	}
}
