// Package fs stores media objects as files under a root directory, each with
// a JSON sidecar holding its attributes.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"heritagecore/internal/blob/core"
)

const (
	defaultRoot    = "./media"
	defaultBaseURL = "/media"
	metaSuffix     = ".meta"
	tempPrefix     = ".upload-"
)

// Config locates the store on disk and sets the public URL prefix of its
// objects.
type Config struct {
	Root    string
	BaseURL string
}

// Store implements core.Store on the local filesystem.
type Store struct {
	root    string
	baseURL string
}

// New creates the root directory if needed and returns the store.
func New(cfg Config) (*Store, error) {
	root := cfg.Root
	if root == "" {
		root = defaultRoot
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &Store{root: root, baseURL: base}, nil
}

// Driver implements core.Store.
func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// Root returns the directory backing the store.
func (s *Store) Root() string { return s.root }

func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidKey, key)
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if strings.HasSuffix(clean, metaSuffix) || strings.HasPrefix(filepath.Base(clean), tempPrefix) {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidKey, key)
	}
	return clean, nil
}

func (s *Store) paths(key string) (string, string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", "", err
	}
	data := filepath.Join(s.root, filepath.FromSlash(k))
	return data, data + metaSuffix, nil
}

type sidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size"`
	StoredAt    time.Time         `json:"stored_at"`
}

func (s *Store) info(key string, sc sidecar) core.Info {
	return core.Info{
		Key:          key,
		Size:         sc.Size,
		ContentType:  sc.ContentType,
		ETag:         sc.ETag,
		Metadata:     core.CloneMetadata(sc.Metadata),
		LastModified: sc.StoredAt,
		URL:          s.objectURL(key),
	}
}

// Put writes r to a temp file, hashes it, then renames it into place.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, err
	}
	if _, err := os.Stat(dataPath); err == nil {
		return core.Info{}, fmt.Errorf("%w: %s", core.ErrExists, key)
	}
	dir := filepath.Dir(dataPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return core.Info{}, fmt.Errorf("create object dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return core.Info{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hash), r)
	if err != nil {
		_ = tmp.Close()
		return core.Info{}, fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return core.Info{}, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return core.Info{}, fmt.Errorf("move object into place: %w", err)
	}
	sc := sidecar{
		ContentType: opts.ContentType,
		Metadata:    core.CloneMetadata(opts.Metadata),
		ETag:        hex.EncodeToString(hash.Sum(nil)),
		Size:        size,
		StoredAt:    time.Now().UTC(),
	}
	payload, err := json.Marshal(sc)
	if err != nil {
		return core.Info{}, fmt.Errorf("encode sidecar: %w", err)
	}
	if err := os.WriteFile(metaPath, payload, 0o600); err != nil {
		return core.Info{}, fmt.Errorf("write sidecar: %w", err)
	}
	return s.info(key, sc), nil
}

func readSidecar(path string) (sidecar, error) {
	payload, err := os.ReadFile(path)
	if errors.Is(err, iofs.ErrNotExist) {
		return sidecar{}, core.ErrNotFound
	}
	if err != nil {
		return sidecar{}, err
	}
	var sc sidecar
	if err := json.Unmarshal(payload, &sc); err != nil {
		return sidecar{}, fmt.Errorf("decode sidecar: %w", err)
	}
	return sc, nil
}

// Get opens the object for reading.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	file, err := os.Open(dataPath)
	if errors.Is(err, iofs.ErrNotExist) {
		return core.Info{}, nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	if err != nil {
		return core.Info{}, nil, err
	}
	sc, err := readSidecar(metaPath)
	if err != nil {
		_ = file.Close()
		return core.Info{}, nil, fmt.Errorf("%s: %w", key, err)
	}
	return s.info(key, sc), file, nil
}

// Head returns the object attributes.
func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	_, metaPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, err
	}
	sc, err := readSidecar(metaPath)
	if err != nil {
		return core.Info{}, fmt.Errorf("%s: %w", key, err)
	}
	return s.info(key, sc), nil
}

// Delete removes the object and its sidecar.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(dataPath); err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	_ = os.Remove(metaPath)
	return true, nil
}

// List walks the root and returns the objects under prefix.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	var out []core.Info
	err := filepath.WalkDir(s.root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, strings.TrimSuffix(path, metaSuffix))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		sc, err := readSidecar(path)
		if err != nil {
			return err
		}
		out = append(out, s.info(key, sc))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// PresignURL is not supported: filesystem objects are served unsigned at
// Info.URL.
func (s *Store) PresignURL(_ context.Context, key string, _ core.SignedURLOptions) (string, error) {
	if _, err := cleanKey(key); err != nil {
		return "", err
	}
	return "", core.ErrUnsupported
}

func (s *Store) objectURL(key string) string {
	u, err := url.JoinPath(s.baseURL, strings.Split(key, "/")...)
	if err != nil {
		return s.baseURL + "/" + key
	}
	return u
}
