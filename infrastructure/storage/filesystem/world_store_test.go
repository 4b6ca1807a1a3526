package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/storyforge/autopilot-go/domain/world"
)

func TestWorldStoreSaveLoad(t *testing.T) {
	store, err := NewWorldStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorldStore() error = %v", err)
	}
	ctx := context.Background()

	state := world.NewState()
	state.Set("outline.exists", world.Bool(true))
	state.Set("chapter.count", world.Int(2))

	if err := store.Save(ctx, "proj-1", state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(ctx, "proj-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !loaded.GetBool("outline.exists") {
		t.Error("outline.exists = false, want true")
	}
	if got := loaded.GetInt("chapter.count"); got != 2 {
		t.Errorf("chapter.count = %d, want 2", got)
	}
}

func TestWorldStoreLoadNotFound(t *testing.T) {
	store, err := NewWorldStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorldStore() error = %v", err)
	}

	if _, err := store.Load(context.Background(), "missing"); !errors.Is(err, world.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestWorldStoreSaveReplaces(t *testing.T) {
	store, err := NewWorldStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorldStore() error = %v", err)
	}
	ctx := context.Background()

	first := world.NewState()
	first.Set("chapter.count", world.Int(1))
	if err := store.Save(ctx, "proj-1", first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := world.NewState()
	second.Set("chapter.count", world.Int(5))
	if err := store.Save(ctx, "proj-1", second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(ctx, "proj-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := loaded.GetInt("chapter.count"); got != 5 {
		t.Errorf("chapter.count = %d, want 5", got)
	}
}

func TestWorldStoreNoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	store, err := NewWorldStore(dir)
	if err != nil {
		t.Fatalf("NewWorldStore() error = %v", err)
	}

	if err := store.Save(context.Background(), "proj-1", world.NewState()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, ".world-*.tmp"))
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
	if _, err := os.Stat(filepath.Join(dir, "proj-1.json")); err != nil {
		t.Errorf("world file missing: %v", err)
	}
}

func TestWorldStoreRejectsPathTraversal(t *testing.T) {
	store, err := NewWorldStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorldStore() error = %v", err)
	}
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		if err := store.Save(ctx, id, world.NewState()); !errors.Is(err, world.ErrInvalidProjectID) {
			t.Errorf("Save(%q) error = %v, want ErrInvalidProjectID", id, err)
		}
	}
}

func TestWorldStoreDelete(t *testing.T) {
	store, err := NewWorldStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorldStore() error = %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "proj-1", world.NewState()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(ctx, "proj-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, "proj-1"); !errors.Is(err, world.ErrNotFound) {
		t.Errorf("Load() after delete error = %v, want ErrNotFound", err)
	}
}
