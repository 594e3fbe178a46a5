package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"heritagecore/internal/blob/core"
)

func TestMockStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if store.Driver() != core.DriverS3 || store.Bucket() != "heritage-media" {
		t.Fatalf("unexpected store identity")
	}
	info, err := store.Put(ctx, "kateri/3/story.txt", bytes.NewReader([]byte("once upon a time")), core.PutOptions{ContentType: "text/plain"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "kateri/3/story.txt" || info.Size != int64(len("once upon a time")) || info.ContentType != "text/plain" {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.ETag != "mock-etag" {
		t.Fatalf("expected quotes trimmed from etag, got %q", info.ETag)
	}
	if _, err := store.Put(ctx, "kateri/3/story.txt", strings.NewReader("again"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	_, rc, err := store.Get(ctx, "kateri/3/story.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "once upon a time" {
		t.Fatalf("unexpected body %q", body)
	}
	if _, err := store.Put(ctx, "adunu/2/pot.txt", bytes.NewReader([]byte("clay")), core.PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}
	list, err := store.List(ctx, "")
	if err != nil || len(list) != 2 || list[0].Key != "adunu/2/pot.txt" {
		t.Fatalf("unexpected list %+v err=%v", list, err)
	}
	filtered, _ := store.List(ctx, "kateri/")
	if len(filtered) != 1 {
		t.Fatalf("expected prefix filtering, got %+v", filtered)
	}
	deleted, err := store.Delete(ctx, "adunu/2/pot.txt")
	if err != nil || !deleted {
		t.Fatalf("expected delete, got %v %v", deleted, err)
	}
	deleted, err = store.Delete(ctx, "adunu/2/pot.txt")
	if err != nil || deleted {
		t.Fatalf("expected missing on second delete, got %v %v", deleted, err)
	}
}

func TestMockStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
}

func TestPresignURL(t *testing.T) {
	store := NewMockForTests()
	link, err := store.PresignURL(context.Background(), "adunu/2/pot.jpg", core.SignedURLOptions{Expiry: 5 * time.Minute})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(link, "heritage-media/adunu/2/pot.jpg") || !strings.Contains(link, "X-Amz-Expires=300") {
		t.Fatalf("unexpected presigned url %s", link)
	}
	if _, err := store.Put(context.Background(), "", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
	store, err := New(context.Background(), Config{Bucket: "b", KeyPrefix: "heritage/"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if store.objectKey("a") != "heritage/a" {
		t.Fatalf("expected key prefix applied")
	}
}

func TestDecodeAWSChunked(t *testing.T) {
	body, ok := decodeAWSChunked([]byte("5\r\nhello\r\n0\r\nx-amz-checksum-crc32:abc\r\n\r\n"))
	if !ok || string(body) != "hello" {
		t.Fatalf("unexpected decode %q %v", body, ok)
	}
	if _, ok := decodeAWSChunked([]byte("plain body")); ok {
		t.Fatalf("plain body must not decode")
	}
}
