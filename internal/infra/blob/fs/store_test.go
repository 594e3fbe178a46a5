package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"heritagecore/internal/blob/core"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(Config{Root: t.TempDir(), BaseURL: "http://localhost:8080/media"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	info, err := store.Put(ctx, "kurmin-iya/item1/dance.mp4", bytes.NewReader([]byte("frames")), core.PutOptions{ContentType: "video/mp4", Metadata: map[string]string{"item": "item1"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 6 || info.ETag == "" || info.URL != "http://localhost:8080/media/kurmin-iya/item1/dance.mp4" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "kurmin-iya/item1/dance.mp4", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	head, err := store.Head(ctx, "kurmin-iya/item1/dance.mp4")
	if err != nil || head.ContentType != "video/mp4" || head.Metadata["item"] != "item1" {
		t.Fatalf("unexpected head %+v err=%v", head, err)
	}
	got, rc, err := store.Get(ctx, "kurmin-iya/item1/dance.mp4")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "frames" || got.ETag != info.ETag {
		t.Fatalf("unexpected body %q etag %s", body, got.ETag)
	}
	if _, err := store.Put(ctx, "adunu/item2/pot.jpg", strings.NewReader("jpg"), core.PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	list, err := store.List(ctx, "kurmin-iya/")
	if err != nil || len(list) != 1 || list[0].Key != "kurmin-iya/item1/dance.mp4" {
		t.Fatalf("unexpected list %+v err=%v", list, err)
	}
	all, _ := store.List(ctx, "")
	if len(all) != 2 || all[0].Key != "adunu/item2/pot.jpg" {
		t.Fatalf("expected sorted listing, got %+v", all)
	}
	if _, err := store.PresignURL(ctx, "adunu/item2/pot.jpg", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsigned filesystem links, got %v", err)
	}
	deleted, err := store.Delete(ctx, "adunu/item2/pot.jpg")
	if err != nil || !deleted {
		t.Fatalf("expected delete, got %v %v", deleted, err)
	}
	deleted, err = store.Delete(ctx, "adunu/item2/pot.jpg")
	if err != nil || deleted {
		t.Fatalf("expected second delete to report missing, got %v %v", deleted, err)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "adunu", "item2", "pot.jpg.meta")); !os.IsNotExist(err) {
		t.Fatalf("expected sidecar removed, got %v", err)
	}
}

func TestStoreMissingObjects(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	if _, err := store.Head(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}
	if _, _, err := store.Get(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
}

func TestStoreRejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	for _, key := range []string{"", "  ", "/abs", "../escape", "a/../../b", "x.meta", "dir/.upload-1", `win\path`} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
	if _, err := store.PresignURL(ctx, "../x", core.SignedURLOptions{}); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("expected presign to validate key, got %v", err)
	}
}

func TestNewDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	store, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if store.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected driver")
	}
	if _, err := os.Stat(filepath.Join(dir, "media")); err != nil {
		t.Fatalf("expected default root created: %v", err)
	}
	info, err := store.Put(context.Background(), "kasuwan-magani/1/song name.mp3", strings.NewReader("x"), core.PutOptions{})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.URL != "/media/kasuwan-magani/1/song%20name.mp3" {
		t.Fatalf("unexpected url %s", info.URL)
	}
}
