// Package identity issues, persists and clears portal sessions.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"heritagecore/pkg/domain"

	"github.com/google/uuid"
)

// SessionKey is the durable key holding the current session of a device.
const SessionKey = "adara_auth_user"

// RoleResolver derives the coarse role of a new session from its email.
type RoleResolver interface {
	Resolve(email string) domain.Role
}

// RoleResolverFunc adapts a function to RoleResolver.
type RoleResolverFunc func(email string) domain.Role

// Resolve implements RoleResolver.
func (f RoleResolverFunc) Resolve(email string) domain.Role { return f(email) }

// SubstringRoleResolver grants the admin role when the email contains Marker,
// ignoring case. It is a placeholder and must be replaced by a real identity
// provider before production use.
type SubstringRoleResolver struct {
	Marker string
}

// Resolve implements RoleResolver.
func (r SubstringRoleResolver) Resolve(email string) domain.Role {
	marker := r.Marker
	if marker == "" {
		marker = "admin"
	}
	if strings.Contains(strings.ToLower(email), strings.ToLower(marker)) {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

// Option customises a Provider.
type Option func(*Provider)

// WithRoleResolver overrides the role resolution strategy.
func WithRoleResolver(r RoleResolver) Option {
	return func(p *Provider) {
		if r != nil {
			p.roles = r
		}
	}
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(fn func() string) Option {
	return func(p *Provider) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// Provider manages the session of one device.
type Provider struct {
	store domain.KeyValueStore
	key   string
	roles RoleResolver
	newID func() string
}

// NewProvider binds a provider to the device namespace of store.
func NewProvider(store domain.KeyValueStore, device string, opts ...Option) *Provider {
	p := &Provider{
		store: store,
		key:   domain.DeviceKey(device, SessionKey),
		roles: SubstringRoleResolver{},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Key returns the durable key the provider writes to.
func (p *Provider) Key() string { return p.key }

// Login creates a session, persists it and returns it. The role is resolved
// once here and never re-evaluated.
func (p *Provider) Login(ctx context.Context, email, name, village string) (domain.Session, error) {
	session := domain.Session{
		ID:      p.newID(),
		Name:    name,
		Email:   email,
		Village: village,
		Role:    p.roles.Resolve(email),
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return domain.Session{}, fmt.Errorf("encode session: %w", err)
	}
	if err := p.store.Put(ctx, p.key, payload); err != nil {
		return domain.Session{}, fmt.Errorf("persist session: %w", err)
	}
	return session, nil
}

// Current returns the persisted session. Missing, unreadable or malformed
// state is reported as absent.
func (p *Provider) Current(ctx context.Context) (domain.Session, bool) {
	payload, ok, err := p.store.Get(ctx, p.key)
	if err != nil || !ok {
		return domain.Session{}, false
	}
	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return domain.Session{}, false
	}
	if !session.Valid() {
		return domain.Session{}, false
	}
	return session, true
}

// Logout clears the persisted session. It is idempotent.
func (p *Provider) Logout(ctx context.Context) error {
	if err := p.store.Delete(ctx, p.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
