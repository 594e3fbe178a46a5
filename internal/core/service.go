package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"heritagecore/internal/community"
	"heritagecore/internal/content"
	"heritagecore/internal/gate"
	"heritagecore/internal/identity"
	"heritagecore/internal/infra/persistence/memory"
	"heritagecore/internal/lineage"
	"heritagecore/internal/media"
	"heritagecore/pkg/domain"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultDevice is used when a caller does not name its device.
	DefaultDevice = "default"
	// DefaultMaxDevices bounds the device registry.
	DefaultMaxDevices = 4096
)

// ErrMediaDisabled is returned by UploadMedia when no media library is configured.
var ErrMediaDisabled = errors.New("media uploads are not configured")

// Service owns the shared archive, chat rooms and media library, and the
// per-device sessions, gates and lineage charts.
type Service struct {
	kv       KeyValueStore
	items    *content.Repository
	rooms    *community.Rooms
	media    *media.Library
	engine   *RulesEngine
	roles    identity.RoleResolver
	verifier gate.Verifier

	clock        Clock
	logger       Logger
	audit        AuditRecorder
	metrics      MetricsRecorder
	tracer       Tracer
	errorDisplay time.Duration
	newID        func() string

	authorMu sync.Mutex
	mu       sync.Mutex
	devices  *lru.Cache[string, *Device]
}

// NewService constructs a service persisting sessions and lineage charts to kv.
// A nil kv falls back to an in-memory store.
func NewService(kv KeyValueStore, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if kv == nil {
		kv = memory.NewStore()
	}
	items := content.NewRepository()
	if o.seed {
		items = content.NewSeededRepository(o.clock.Now())
	}
	s := &Service{
		kv:           kv,
		items:        items,
		rooms:        community.NewRooms(community.WithNow(o.clock.Now)),
		media:        o.media,
		engine:       o.engine,
		roles:        o.roles,
		verifier:     o.verifier,
		clock:        o.clock,
		logger:       o.logger,
		audit:        o.audit,
		metrics:      o.metrics,
		tracer:       o.tracer,
		errorDisplay: o.errorDisplay,
		newID:        o.newID,
	}
	// maxDevices is always positive, the only case NewWithEvict rejects.
	s.devices, _ = lru.NewWithEvict(o.maxDevices, func(id string, _ *Device) {
		s.logger.Debug("device evicted", "device", id)
	})
	return s
}

// NewInMemoryService creates a service backed by an in-memory store.
func NewInMemoryService(opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(), opts...)
}

// Store returns the durable key-value store.
func (s *Service) Store() KeyValueStore { return s.kv }

// Items returns the shared content repository.
func (s *Service) Items() *content.Repository { return s.items }

// Media returns the media library, or nil when uploads are disabled.
func (s *Service) Media() *media.Library { return s.media }

// Close releases the durable store.
func (s *Service) Close() error { return s.kv.Close() }

// Device returns the state bound to device id, creating it on first use.
// Devices beyond the registry limit are evicted least recently used first, and
// an evicted device comes back with a locked gate.
func (s *Service) Device(id string) *Device {
	id = strings.TrimSpace(id)
	if id == "" {
		id = DefaultDevice
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.devices.Get(id); ok {
		return d
	}
	d := &Device{
		svc:      s,
		id:       id,
		identity: identity.NewProvider(s.kv, id, identity.WithRoleResolver(s.roles)),
		lineage:  lineage.NewStore(s.kv, id),
		gate: gate.NewMachine(
			gate.WithVerifier(s.verifier),
			gate.WithNow(s.clock.Now),
			gate.WithErrorDisplay(s.errorDisplay),
		),
	}
	s.devices.Add(id, d)
	return d
}

type auditTarget struct {
	entity EntityType
	action Action
}

var auditOperations = map[string]auditTarget{
	"create_item":      {EntityHeritageItem, ActionCreate},
	"update_item":      {EntityHeritageItem, ActionUpdate},
	"delete_item":      {EntityHeritageItem, ActionDelete},
	"upload_media":     {EntityMedia, ActionCreate},
	"login":            {EntitySession, ActionCreate},
	"logout":           {EntitySession, ActionDelete},
	"set_lineage_slot": {EntityAncestor, ActionUpdate},
	"post_message":     {EntityMessage, ActionCreate},
}

type operation func(ctx context.Context) (entityID string, err error)

// run wraps fn with tracing, metrics, audit and error logging.
func (s *Service) run(ctx context.Context, op, device, actor string, fn operation) error {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op)
	entityID, err := fn(ctx)
	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	s.recordAudit(ctx, op, device, actor, entityID, duration, err)
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "device", device, "entity_id", entityID, "error", err)
		return err
	}
	s.logger.Debug("operation completed", "operation", op, "device", device, "entity_id", entityID, "duration", duration)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, op, device, actor, entityID string, duration time.Duration, err error) {
	target, ok := auditOperations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    target.entity,
		Action:    target.action,
		EntityID:  entityID,
		Device:    device,
		Actor:     actor,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

type itemView struct {
	repo *content.Repository
}

func (v itemView) ListItems() []HeritageItem               { return v.repo.List() }
func (v itemView) FindItem(id string) (HeritageItem, bool) { return v.repo.Get(id) }

// evaluate runs the rules engine against one change. Warnings are logged;
// blocking violations are returned as RuleViolationError.
func (s *Service) evaluate(ctx context.Context, change Change) (Result, error) {
	res, err := s.engine.Evaluate(ctx, itemView{repo: s.items}, []Change{change})
	if err != nil {
		return Result{}, fmt.Errorf("evaluate rules: %w", err)
	}
	if res.HasBlocking() {
		return res, RuleViolationError{Result: res}
	}
	for _, v := range res.Violations {
		s.logger.Warn("rule violation", "rule", v.Rule, "severity", v.Severity, "entity_id", v.EntityID, "message", v.Message)
	}
	return res, nil
}

func requireAdmin(session Session) error {
	if !session.Valid() {
		return domain.ErrNoSession
	}
	if !session.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// PlaceholderURL is the image link given to items created without media.
func PlaceholderURL(id string) string {
	return "https://picsum.photos/seed/" + url.PathEscape(id) + "/800/600"
}

// CreateItem archives a new heritage item authored by session. The id,
// author and timestamp are assigned here; an empty url gets a placeholder.
func (s *Service) CreateItem(ctx context.Context, session Session, draft HeritageItem) (HeritageItem, Result, error) {
	var (
		created HeritageItem
		res     Result
	)
	err := s.run(ctx, "create_item", "", session.Name, func(ctx context.Context) (string, error) {
		if err := requireAdmin(session); err != nil {
			return "", err
		}
		item := HeritageItem{
			ID:          s.newID(),
			Title:       draft.Title,
			Description: draft.Description,
			Type:        draft.Type,
			URL:         strings.TrimSpace(draft.URL),
			Village:     draft.Village,
			Author:      session.Name,
			Timestamp:   s.clock.Now().UnixMilli(),
		}
		if item.URL == "" {
			item.URL = PlaceholderURL(item.ID)
		}
		s.authorMu.Lock()
		defer s.authorMu.Unlock()
		var err error
		res, err = s.evaluate(ctx, Change{Entity: EntityHeritageItem, Action: ActionCreate, After: &item})
		if err != nil {
			return item.ID, err
		}
		s.items.Add(item)
		created = item
		return item.ID, nil
	})
	return created, res, err
}

// UpdateItem replaces the editable fields of an existing item. The id and
// author are kept and the timestamp refreshed; an empty url keeps the current
// one. A missing id is reported as OutcomeNotFound without error.
func (s *Service) UpdateItem(ctx context.Context, session Session, edit HeritageItem) (HeritageItem, Outcome, Result, error) {
	var (
		updated HeritageItem
		res     Result
		outcome = domain.OutcomeNotFound
	)
	err := s.run(ctx, "update_item", "", session.Name, func(ctx context.Context) (string, error) {
		if err := requireAdmin(session); err != nil {
			return edit.ID, err
		}
		s.authorMu.Lock()
		defer s.authorMu.Unlock()
		existing, ok := s.items.Get(edit.ID)
		if !ok {
			return edit.ID, nil
		}
		item := existing
		item.Title = edit.Title
		item.Description = edit.Description
		item.Type = edit.Type
		item.Village = edit.Village
		if u := strings.TrimSpace(edit.URL); u != "" {
			item.URL = u
		}
		item.Timestamp = s.clock.Now().UnixMilli()
		var err error
		res, err = s.evaluate(ctx, Change{Entity: EntityHeritageItem, Action: ActionUpdate, Before: &existing, After: &item})
		if err != nil {
			return item.ID, err
		}
		outcome = s.items.Update(item)
		if outcome.Found() {
			updated = item
		}
		return item.ID, nil
	})
	return updated, outcome, res, err
}

// DeleteItem removes an item and any media stored for it. Removing a missing
// id is reported as OutcomeNotFound without error.
func (s *Service) DeleteItem(ctx context.Context, session Session, id string) (Outcome, Result, error) {
	var (
		res     Result
		outcome = domain.OutcomeNotFound
	)
	err := s.run(ctx, "delete_item", "", session.Name, func(ctx context.Context) (string, error) {
		if err := requireAdmin(session); err != nil {
			return id, err
		}
		s.authorMu.Lock()
		defer s.authorMu.Unlock()
		existing, ok := s.items.Get(id)
		if !ok {
			return id, nil
		}
		var err error
		res, err = s.evaluate(ctx, Change{Entity: EntityHeritageItem, Action: ActionDelete, Before: &existing})
		if err != nil {
			return id, err
		}
		outcome = s.items.Remove(id)
		if s.media != nil {
			removed, err := s.media.RemoveAll(ctx, existing)
			if err != nil {
				s.logger.Warn("media cleanup failed", "item_id", id, "error", err)
			} else if removed > 0 {
				s.logger.Info("media removed", "item_id", id, "objects", removed)
			}
		}
		return id, nil
	})
	return outcome, res, err
}

// SearchItems lists the whole archive filtered by term for the admin view.
func (s *Service) SearchItems(_ context.Context, session Session, term string) ([]HeritageItem, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}
	return s.items.Query(domain.AllVillages, term), nil
}

// UploadMedia stores media for an existing item and points the item url at
// the stable media reference.
func (s *Service) UploadMedia(ctx context.Context, session Session, id, filename string, r io.Reader) (HeritageItem, media.Upload, error) {
	var (
		item   HeritageItem
		upload media.Upload
	)
	err := s.run(ctx, "upload_media", "", session.Name, func(ctx context.Context) (string, error) {
		if err := requireAdmin(session); err != nil {
			return id, err
		}
		if s.media == nil {
			return id, ErrMediaDisabled
		}
		existing, ok := s.items.Get(id)
		if !ok {
			return id, fmt.Errorf("%w: heritage item %s", domain.ErrNotFound, id)
		}
		up, err := s.media.Upload(ctx, existing, filename, r)
		if err != nil {
			return id, err
		}
		s.authorMu.Lock()
		defer s.authorMu.Unlock()
		current, ok := s.items.Get(id)
		if !ok {
			if _, err := s.media.Remove(ctx, up.Object.Key); err != nil {
				s.logger.Warn("media cleanup failed", "item_id", id, "key", up.Object.Key, "error", err)
			}
			return up.Object.Key, fmt.Errorf("%w: heritage item %s", domain.ErrNotFound, id)
		}
		current.URL = up.URL
		s.items.Update(current)
		item, upload = current, up
		return up.Object.Key, nil
	})
	return item, upload, err
}
