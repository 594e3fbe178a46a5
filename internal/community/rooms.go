// Package community keeps the per-village chat rooms of the portal. Rooms live
// in memory only and start with a welcome message.
package community

import (
	"strings"
	"sync"
	"time"

	"heritagecore/pkg/domain"

	"github.com/segmentio/ksuid"
)

// Welcome message identity.
const (
	BotID   = "0"
	BotName = "Heritage Bot"
)

const welcomeAge = 100 * time.Second

// Option customises Rooms.
type Option func(*Rooms)

// WithNow sets the time source for message timestamps.
func WithNow(now func() time.Time) Option {
	return func(r *Rooms) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides message id generation.
func WithIDGenerator(fn func() string) Option {
	return func(r *Rooms) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// Rooms holds an append-only message log per village.
type Rooms struct {
	mu    sync.Mutex
	rooms map[string][]domain.CommunityMessage
	now   func() time.Time
	newID func() string
}

// NewRooms returns an empty room registry.
func NewRooms(opts ...Option) *Rooms {
	r := &Rooms{
		rooms: make(map[string][]domain.CommunityMessage),
		now:   time.Now,
		newID: func() string { return ksuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ChatVillage returns the room a session talks in: the selected village, or
// the session's home village when every village is selected.
func ChatVillage(session domain.Session, selected string) string {
	if selected == domain.AllVillages || selected == "" {
		return session.Village
	}
	return selected
}

// WelcomeText is the greeting seeded into a room.
func WelcomeText(village string) string {
	return "Welcome to the " + village + " community chat. Connect with your kin!"
}

func (r *Rooms) roomLocked(village string) []domain.CommunityMessage {
	msgs, ok := r.rooms[village]
	if !ok {
		msgs = []domain.CommunityMessage{{
			ID:         "1",
			SenderID:   BotID,
			SenderName: BotName,
			Text:       WelcomeText(village),
			Timestamp:  r.now().Add(-welcomeAge).UnixMilli(),
			Village:    village,
		}}
		r.rooms[village] = msgs
	}
	return msgs
}

// Messages returns the room log in posting order, seeding the room on first
// access.
func (r *Rooms) Messages(village string) []domain.CommunityMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.roomLocked(village)
	out := make([]domain.CommunityMessage, len(msgs))
	copy(out, msgs)
	return out
}

// Post appends text from session to the room. Blank text is ignored and
// reported with false.
func (r *Rooms) Post(session domain.Session, village, text string) (domain.CommunityMessage, bool) {
	if strings.TrimSpace(text) == "" {
		return domain.CommunityMessage{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := domain.CommunityMessage{
		ID:         r.newID(),
		SenderID:   session.ID,
		SenderName: session.Name,
		Text:       text,
		Timestamp:  r.now().UnixMilli(),
		Village:    village,
	}
	r.rooms[village] = append(r.roomLocked(village), msg)
	return msg, true
}
