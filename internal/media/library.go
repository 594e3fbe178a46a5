// Package media uploads heritage item media to object storage.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"heritagecore/internal/blob"
	"heritagecore/pkg/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gosimple/slug"
)

const (
	// DefaultMaxBytes caps a single upload.
	DefaultMaxBytes int64 = 64 << 20
	// DefaultLinkExpiry is the lifetime of presigned download links.
	DefaultLinkExpiry = time.Hour
	// DefaultURLBase is the path the HTTP adapter serves stored media under.
	DefaultURLBase = "/media"
)

// ErrTooLarge is returned when an upload exceeds the size cap.
var ErrTooLarge = errors.New("media exceeds upload size limit")

// Option customises a Library.
type Option func(*Library)

// WithMaxBytes sets the upload size cap.
func WithMaxBytes(n int64) Option {
	return func(l *Library) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// WithLinkExpiry sets the lifetime of presigned links.
func WithLinkExpiry(d time.Duration) Option {
	return func(l *Library) {
		if d > 0 {
			l.linkExpiry = d
		}
	}
}

// WithURLBase sets the path prefix of the stable media references stored on
// items.
func WithURLBase(base string) Option {
	return func(l *Library) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			l.urlBase = base
		}
	}
}

// Library stores media objects under items/<item-id>/<file>.
type Library struct {
	store      blob.Store
	maxBytes   int64
	linkExpiry time.Duration
	urlBase    string
}

// Upload is the result of storing one media file. URL is the stable reference
// kept on the item; Link is a download link that may expire.
type Upload struct {
	Object      blob.Info `json:"object"`
	URL         string    `json:"url"`
	Link        string    `json:"link"`
	ContentType string    `json:"contentType"`
	Replaced    bool      `json:"replaced"`
}

// NewLibrary wraps store.
func NewLibrary(store blob.Store, opts ...Option) *Library {
	l := &Library{store: store, maxBytes: DefaultMaxBytes, linkExpiry: DefaultLinkExpiry, urlBase: DefaultURLBase}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Store returns the backing object store.
func (l *Library) Store() blob.Store { return l.store }

// Prefix returns the key prefix holding the media of item. It depends on the
// id only, so editing other item fields never moves its media.
func Prefix(item domain.HeritageItem) string {
	return "items/" + item.ID + "/"
}

// Reference returns the stable URL stored on an item for key.
func (l *Library) Reference(key string) string {
	return l.urlBase + "/" + key
}

// Allowed reports whether a detected content type fits the item media type.
func Allowed(t domain.MediaType, contentType string) bool {
	family, _, _ := strings.Cut(contentType, "/")
	switch t {
	case domain.MediaImage:
		return family == "image"
	case domain.MediaAudio:
		return family == "audio"
	case domain.MediaVideo:
		return family == "video"
	case domain.MediaText:
		return family == "text" || strings.HasPrefix(contentType, "application/pdf")
	default:
		return false
	}
}

func objectName(filename string, mt *mimetype.MIME) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	stem := slug.Make(strings.TrimSuffix(base, path.Ext(base)))
	if stem == "" {
		stem = "media"
	}
	if ext == "" || slug.Make(strings.TrimPrefix(ext, ".")) != strings.TrimPrefix(ext, ".") {
		ext = mt.Extension()
	}
	return stem + ext
}

// Upload sniffs the content, checks it against the item media type and stores
// it. An object already stored under the same name is replaced.
func (l *Library) Upload(ctx context.Context, item domain.HeritageItem, filename string, r io.Reader) (Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return Upload{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return Upload{}, ErrTooLarge
	}
	mt := mimetype.Detect(data)
	if !Allowed(item.Type, mt.String()) {
		return Upload{}, fmt.Errorf("%w: %s detected as %s for %s item", domain.ErrInvalidMediaType, filename, mt.String(), item.Type)
	}
	key := Prefix(item) + objectName(filename, mt)
	opts := blob.PutOptions{
		ContentType: mt.String(),
		Metadata: map[string]string{
			"item-id":  item.ID,
			"village":  item.Village,
			"filename": path.Base(filename),
		},
	}
	replaced := false
	info, err := l.store.Put(ctx, key, bytes.NewReader(data), opts)
	if errors.Is(err, blob.ErrExists) {
		if _, err := l.store.Delete(ctx, key); err != nil {
			return Upload{}, fmt.Errorf("replace media %s: %w", key, err)
		}
		replaced = true
		info, err = l.store.Put(ctx, key, bytes.NewReader(data), opts)
	}
	if err != nil {
		return Upload{}, fmt.Errorf("store media: %w", err)
	}
	link, err := l.link(ctx, info)
	if err != nil {
		return Upload{}, err
	}
	return Upload{
		Object:      info,
		URL:         l.Reference(info.Key),
		Link:        link,
		ContentType: mt.String(),
		Replaced:    replaced,
	}, nil
}

// Presign returns a fresh time-limited link for a stored object. Drivers
// without presigning return blob.ErrUnsupported.
func (l *Library) Presign(ctx context.Context, key string) (string, error) {
	if _, err := l.store.Head(ctx, key); err != nil {
		return "", err
	}
	return l.store.PresignURL(ctx, key, blob.SignedURLOptions{Expiry: l.linkExpiry})
}

// Remove deletes one stored object and reports whether it existed.
func (l *Library) Remove(ctx context.Context, key string) (bool, error) {
	return l.store.Delete(ctx, key)
}

func (l *Library) link(ctx context.Context, info blob.Info) (string, error) {
	link, err := l.store.PresignURL(ctx, info.Key, blob.SignedURLOptions{Expiry: l.linkExpiry})
	if errors.Is(err, blob.ErrUnsupported) {
		return info.URL, nil
	}
	if err != nil {
		return "", fmt.Errorf("link media: %w", err)
	}
	return link, nil
}

// List returns the stored media of item.
func (l *Library) List(ctx context.Context, item domain.HeritageItem) ([]blob.Info, error) {
	return l.store.List(ctx, Prefix(item))
}

// Open streams one stored object.
func (l *Library) Open(ctx context.Context, key string) (blob.Info, io.ReadCloser, error) {
	return l.store.Get(ctx, key)
}

// RemoveAll deletes every object stored for item and returns how many were
// removed.
func (l *Library) RemoveAll(ctx context.Context, item domain.HeritageItem) (int, error) {
	objects, err := l.List(ctx, item)
	if err != nil {
		return 0, fmt.Errorf("list media: %w", err)
	}
	removed := 0
	for _, obj := range objects {
		ok, err := l.store.Delete(ctx, obj.Key)
		if err != nil {
			return removed, fmt.Errorf("delete media %s: %w", obj.Key, err)
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}
