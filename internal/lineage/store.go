// Package lineage persists the six-slot ancestry chart of a device.
package lineage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"heritagecore/pkg/domain"

	"github.com/segmentio/ksuid"
)

// RecordKey is the durable key holding the lineage chart of a device.
const RecordKey = "adara_lineage"

// Store reads and writes the whole lineage chart as one JSON document.
type Store struct {
	mu    sync.Mutex
	kv    domain.KeyValueStore
	key   string
	newID func() string
}

// Option customises a Store.
type Option func(*Store)

// WithIDGenerator overrides ancestor id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewStore binds a lineage store to the device namespace of kv.
func NewStore(kv domain.KeyValueStore, device string, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		key:   domain.DeviceKey(device, RecordKey),
		newID: func() string { return ksuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the durable key the store writes to.
func (s *Store) Key() string { return s.key }

// Load returns the persisted chart. Missing, unreadable or malformed state
// yields an empty record.
func (s *Store) Load(ctx context.Context) domain.LineageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) domain.LineageRecord {
	payload, ok, err := s.kv.Get(ctx, s.key)
	if err != nil || !ok {
		return domain.LineageRecord{}
	}
	var record domain.LineageRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return domain.LineageRecord{}
	}
	return record.Normalize()
}

// SetSlot overwrites one slot and persists the whole chart. The ancestor gets
// a fresh id and its relation is forced to key.
func (s *Store) SetSlot(ctx context.Context, key domain.RelationKey, ancestor domain.Ancestor) (domain.LineageRecord, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRelation, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ancestor.ID = s.newID()
	ancestor.Relation = key
	updated := s.loadLocked(ctx).With(key, ancestor)
	payload, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("encode lineage: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, payload); err != nil {
		return nil, fmt.Errorf("persist lineage: %w", err)
	}
	return updated, nil
}
