package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"heritagecore/internal/blob"
	"heritagecore/internal/infra/blob/memory"
	"heritagecore/internal/media"
	"heritagecore/pkg/domain"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestNewServiceSeedsArchive(t *testing.T) {
	svc := newTestService(t)
	if got := svc.Items().Len(); got != 3 {
		t.Fatalf("expected 3 seed items, got %d", got)
	}
	empty := newTestService(t, WithoutSeed())
	if got := empty.Items().Len(); got != 0 {
		t.Fatalf("expected empty archive, got %d", got)
	}
	if NewService(nil).Store() == nil {
		t.Fatalf("expected nil store to fall back to memory")
	}
}

func TestCreateItemAssignsServerFields(t *testing.T) {
	svc := newTestService(t, WithIDGenerator(func() string { return "item-1" }))
	admin := loginAs(t, svc.Device("a"), "admin@adara.org", "Kajuru")

	created, res, err := svc.CreateItem(context.Background(), admin, HeritageItem{
		ID:      "ignored",
		Title:   "Harvest Song",
		Type:    domain.MediaAudio,
		Village: "Kajuru",
		Author:  "ignored",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations: %+v", res.Violations)
	}
	if created.ID != "item-1" || created.Author != "Tester" {
		t.Fatalf("unexpected identity fields: %+v", created)
	}
	if created.Timestamp != fixedNow.UnixMilli() {
		t.Fatalf("expected timestamp %d, got %d", fixedNow.UnixMilli(), created.Timestamp)
	}
	if created.URL != PlaceholderURL("item-1") {
		t.Fatalf("expected placeholder url, got %q", created.URL)
	}
	if first := svc.Items().List()[0]; first.ID != "item-1" {
		t.Fatalf("expected new item first, got %s", first.ID)
	}
}

func TestCreateItemKeepsProvidedURL(t *testing.T) {
	svc := newTestService(t)
	admin := loginAs(t, svc.Device(""), "admin@adara.org", "Kajuru")
	created, _, err := svc.CreateItem(context.Background(), admin, HeritageItem{
		Title: "Pot", Type: domain.MediaImage, Village: "Adunu", URL: " https://example.org/pot.jpg ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.URL != "https://example.org/pot.jpg" {
		t.Fatalf("unexpected url %q", created.URL)
	}
}

func TestAuthoringRequiresAdmin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := loginAs(t, svc.Device("u"), "kin@adara.org", "Kajuru")

	if _, _, err := svc.CreateItem(ctx, user, HeritageItem{Title: "x", Type: domain.MediaText, Village: "Kajuru"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden create, got %v", err)
	}
	if _, _, _, err := svc.UpdateItem(ctx, user, HeritageItem{ID: "1"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden update, got %v", err)
	}
	if _, _, err := svc.DeleteItem(ctx, user, "1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden delete, got %v", err)
	}
	if _, err := svc.SearchItems(ctx, user, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden search, got %v", err)
	}
	if _, err := svc.SearchItems(ctx, Session{}, ""); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("expected no session, got %v", err)
	}
	if svc.Items().Len() != 3 {
		t.Fatalf("archive must be unchanged")
	}
}

func TestCreateItemBlockedByRules(t *testing.T) {
	svc := newTestService(t)
	admin := loginAs(t, svc.Device("a"), "admin@adara.org", "Kajuru")
	cases := []struct {
		name string
		item HeritageItem
		rule string
	}{
		{"blank title", HeritageItem{Title: "  ", Type: domain.MediaText, Village: "Kajuru"}, "item_fields"},
		{"unknown village", HeritageItem{Title: "t", Type: domain.MediaText, Village: "Atlantis"}, "item_fields"},
		{"all is not a village", HeritageItem{Title: "t", Type: domain.MediaText, Village: domain.AllVillages}, "item_fields"},
		{"unknown type", HeritageItem{Title: "t", Type: "hologram", Village: "Kajuru"}, "item_fields"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, res, err := svc.CreateItem(context.Background(), admin, tc.item)
			var violation RuleViolationError
			if !errors.As(err, &violation) {
				t.Fatalf("expected rule violation, got %v", err)
			}
			if !res.HasBlocking() || res.Violations[0].Rule != tc.rule {
				t.Fatalf("unexpected result %+v", res)
			}
		})
	}
	if svc.Items().Len() != 3 {
		t.Fatalf("blocked creates must not change the archive")
	}
}

func TestDuplicateTitleWarnsButCommits(t *testing.T) {
	logger := &captureLogger{}
	svc := newTestService(t, WithLogger(logger))
	admin := loginAs(t, svc.Device("a"), "admin@adara.org", "Kajuru")

	_, res, err := svc.CreateItem(context.Background(), admin, HeritageItem{
		Title: "adunu hill artifacts", Type: domain.MediaImage, Village: "Adunu",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Severity != SeverityWarn {
		t.Fatalf("expected one warning, got %+v", res.Violations)
	}
	if svc.Items().Len() != 4 {
		t.Fatalf("warning must not block the create")
	}
	if logger.count("warn", "rule violation") != 1 {
		t.Fatalf("expected warning to be logged")
	}
}

func TestUpdateItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	admin := loginAs(t, svc.Device("a"), "admin@adara.org", "Kajuru")

	updated, outcome, _, err := svc.UpdateItem(ctx, admin, HeritageItem{
		ID: "2", Title: "Adunu Pottery", Description: "d", Type: domain.MediaImage, Village: "Adunu", Author: "someone else",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if outcome != domain.OutcomeFound {
		t.Fatalf("expected found, got %s", outcome)
	}
	if updated.Author != "Heritage Team" || updated.ID != "2" {
		t.Fatalf("id and author must be kept: %+v", updated)
	}
	if updated.URL != "https://picsum.photos/seed/adunu/800/600" {
		t.Fatalf("empty url must keep the current one, got %q", updated.URL)
	}
	if updated.Timestamp != fixedNow.UnixMilli() {
		t.Fatalf("expected refreshed timestamp")
	}
	got, _ := svc.Items().Get("2")
	if got.Title != "Adunu Pottery" {
		t.Fatalf("update not stored: %+v", got)
	}

	before := svc.Items().List()
	_, outcome, _, err = svc.UpdateItem(ctx, admin, HeritageItem{ID: "missing", Title: "x", Type: domain.MediaText, Village: "Kajuru"})
	if err != nil || outcome != domain.OutcomeNotFound {
		t.Fatalf("expected silent not found, got %s %v", outcome, err)
	}
	if len(svc.Items().List()) != len(before) {
		t.Fatalf("missing update must not change the archive")
	}
}

func TestDeleteItemRemovesMedia(t *testing.T) {
	blobs := memory.New()
	svc := newTestService(t, WithMediaLibrary(media.NewLibrary(blobs)))
	ctx := context.Background()
	admin := loginAs(t, svc.Device("a"), "admin@adara.org", "Kajuru")

	if _, _, err := svc.UploadMedia(ctx, admin, "2", "pot.png", bytes.NewReader(pngHeader)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if blobs.Len() != 1 {
		t.Fatalf("expected stored object")
	}
	outcome, _, err := svc.DeleteItem(ctx, admin, "2")
	if err != nil || !outcome.Found() {
		t.Fatalf("delete: %s %v", outcome, err)
	}
	if blobs.Len() != 0 {
		t.Fatalf("expected media to be removed with the item")
	}
	outcome, _, err = svc.DeleteItem(ctx, admin, "2")
	if err != nil || outcome != domain.OutcomeNotFound {
		t.Fatalf("second delete must be a silent no-op, got %s %v", outcome, err)
	}
}

func TestDeleteItemRemovesMediaAfterVillageEdit(t *testing.T) {
	blobs := memory.New()
	svc := newTestService(t, WithMediaLibrary(media.NewLibrary(blobs)))
	ctx := context.Background()
	admin := loginAs(t, svc.Device("a"), "admin@adara.org", "Kajuru")

	if _, _, err := svc.UploadMedia(ctx, admin, "2", "pot.png", bytes.NewReader(pngHeader)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	item, _ := svc.Items().Get("2")
	item.Village = "Kateri"
	if _, outcome, _, err := svc.UpdateItem(ctx, admin, item); err != nil || !outcome.Found() {
		t.Fatalf("update: %s %v", outcome, err)
	}
	if _, _, err := svc.DeleteItem(ctx, admin, "2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if blobs.Len() != 0 {
		t.Fatalf("media orphaned after village edit: %d objects remain", blobs.Len())
	}
}

type putHookStore struct {
	blob.Store
	afterPut func()
}

func (s *putHookStore) Put(ctx context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	info, err := s.Store.Put(ctx, key, r, opts)
	if err == nil && s.afterPut != nil {
		s.afterPut()
	}
	return info, err
}

func TestSearchItems(t *testing.T) {
	svc := newTestService(t)
	admin := loginAs(t, svc.Device("a"), "admin@adara.org", "Kajuru")
	items, err := svc.SearchItems(context.Background(), admin, "KATERI")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].ID != "3" {
		t.Fatalf("unexpected results %+v", items)
	}
	all, _ := svc.SearchItems(context.Background(), admin, "")
	if len(all) != 3 {
		t.Fatalf("expected every item, got %d", len(all))
	}
}

func TestUploadMedia(t *testing.T) {
	ctx := context.Background()
	t.Run("disabled", func(t *testing.T) {
		svc := newTestService(t)
		admin := loginAs(t, svc.Device("a"), "admin@adara.org", "Kajuru")
		if _, _, err := svc.UploadMedia(ctx, admin, "2", "a.png", bytes.NewReader(pngHeader)); !errors.Is(err, ErrMediaDisabled) {
			t.Fatalf("expected media disabled, got %v", err)
		}
	})
	t.Run("stores and links", func(t *testing.T) {
		svc := newTestService(t, WithMediaLibrary(media.NewLibrary(memory.New())))
		admin := loginAs(t, svc.Device("a"), "admin@adara.org", "Kajuru")
		item, up, err := svc.UploadMedia(ctx, admin, "2", "Old Pot.png", bytes.NewReader(pngHeader))
		if err != nil {
			t.Fatalf("upload: %v", err)
		}
		if up.Object.Key != "items/2/old-pot.png" {
			t.Fatalf("unexpected key %q", up.Object.Key)
		}
		if item.URL != "/media/items/2/old-pot.png" || up.Link != memory.URLScheme+up.Object.Key {
			t.Fatalf("expected stable item url, got %q (link %q)", item.URL, up.Link)
		}
		stored, _ := svc.Items().Get("2")
		if stored.URL != item.URL {
			t.Fatalf("url not persisted on item")
		}
	})
	t.Run("type mismatch", func(t *testing.T) {
		svc := newTestService(t, WithMediaLibrary(media.NewLibrary(memory.New())))
		admin := loginAs(t, svc.Device("a"), "admin@adara.org", "Kajuru")
		_, _, err := svc.UploadMedia(ctx, admin, "3", "song.png", bytes.NewReader(pngHeader))
		if !errors.Is(err, domain.ErrInvalidMediaType) {
			t.Fatalf("expected invalid media type, got %v", err)
		}
	})
	t.Run("item removed during upload", func(t *testing.T) {
		blobs := &putHookStore{Store: memory.New()}
		svc := newTestService(t, WithMediaLibrary(media.NewLibrary(blobs)))
		blobs.afterPut = func() { svc.Items().Remove("2") }
		admin := loginAs(t, svc.Device("a"), "admin@adara.org", "Kajuru")
		_, _, err := svc.UploadMedia(ctx, admin, "2", "pot.png", bytes.NewReader(pngHeader))
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		if left, _ := blobs.List(ctx, ""); len(left) != 0 {
			t.Fatalf("expected uploaded object to be cleaned up, got %+v", left)
		}
	})
	t.Run("missing item", func(t *testing.T) {
		svc := newTestService(t, WithMediaLibrary(media.NewLibrary(memory.New())))
		admin := loginAs(t, svc.Device("a"), "admin@adara.org", "Kajuru")
		_, _, err := svc.UploadMedia(ctx, admin, "nope", "a.png", strings.NewReader("x"))
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestServiceObservabilityHooks(t *testing.T) {
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	tracer := NewJSONTracer(nil)
	logger := &captureLogger{}
	svc := newTestService(t,
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithLogger(logger),
	)
	ctx := context.Background()
	admin := loginAs(t, svc.Device("a"), "admin@adara.org", "Kajuru")
	if _, _, err := svc.CreateItem(ctx, admin, HeritageItem{Title: "ok", Type: domain.MediaText, Village: "Kajuru"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, _, _ = svc.CreateItem(ctx, admin, HeritageItem{Title: "", Type: domain.MediaText, Village: "Kajuru"})
	_, _ = svc.Device("a").SelectVillage(ctx, "Kajuru")

	if !audit.has("login", AuditStatusSuccess) || !audit.has("create_item", AuditStatusSuccess) || !audit.has("create_item", AuditStatusError) {
		t.Fatalf("missing audit entries: %+v", audit.entries)
	}
	if audit.has("select_village", AuditStatusSuccess) {
		t.Fatalf("gate navigation must not be audited")
	}
	if !metrics.has("create_item", true) || !metrics.has("create_item", false) || !metrics.has("select_village", true) {
		t.Fatalf("missing metrics: %+v", metrics.calls)
	}
	if len(tracer.Entries()) != len(metrics.calls) {
		t.Fatalf("expected one span per observed operation")
	}
	if logger.count("error", "operation failed") != 1 {
		t.Fatalf("expected failed create to be logged once")
	}
}

func TestDefaultServiceOptions(t *testing.T) {
	opts := defaultServiceOptions()
	if opts.clock == nil || opts.logger == nil || opts.audit == nil || opts.metrics == nil || opts.tracer == nil {
		t.Fatalf("expected defaults populated")
	}
	if opts.engine == nil || opts.roles == nil || opts.verifier == nil || opts.newID == nil {
		t.Fatalf("expected domain defaults populated")
	}
	_ = opts.clock.Now()
	opts.audit.Record(context.Background(), AuditEntry{})
	opts.metrics.Observe(context.Background(), "noop", true, 0)
	_, span := opts.tracer.Start(context.Background(), "noop")
	span.End(nil)
	if a, b := opts.newID(), opts.newID(); a == b || a == "" {
		t.Fatalf("expected unique ids, got %q %q", a, b)
	}
}

func TestNilOptionsKeepDefaults(t *testing.T) {
	opts := defaultServiceOptions()
	for _, opt := range []ServiceOption{
		WithClock(nil), WithLogger(nil), WithAuditRecorder(nil), WithMetricsRecorder(nil),
		WithTracer(nil), WithRulesEngine(nil), WithRoleResolver(nil), WithVerifier(nil),
		WithErrorDisplay(0), WithIDGenerator(nil),
	} {
		opt(&opts)
	}
	if opts.clock == nil || opts.logger == nil || opts.engine == nil || opts.newID == nil || opts.errorDisplay <= 0 {
		t.Fatalf("nil options must not clear defaults")
	}
}
