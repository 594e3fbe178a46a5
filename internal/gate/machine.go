// Package gate implements the per-device access gate deciding whether
// village-scoped content may be shown.
package gate

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"heritagecore/pkg/domain"
)

// Status is the gate state of one village.
type Status string

// Gate states. The "All" pseudo-village is always StatusUnlocked.
const (
	StatusLocked      Status = "locked"
	StatusChallenging Status = "challenging"
	StatusUnlocked    Status = "unlocked"
)

// DefaultErrorDisplay is how long a rejected code stays visible.
const DefaultErrorDisplay = 2 * time.Second

// Snapshot is a read-only view of the machine.
type Snapshot struct {
	SelectedVillage  string     `json:"selectedVillage"`
	ActiveTab        domain.Tab `json:"activeTab"`
	UnlockedVillages []string   `json:"unlockedVillages"`
	PendingChallenge bool       `json:"pendingChallenge"`
	Status           Status     `json:"status"`
	ContentVisible   bool       `json:"contentVisible"`
	ErrorVisible     bool       `json:"errorVisible"`
}

// Option customises a Machine.
type Option func(*Machine)

// WithVerifier sets the challenge verifier.
func WithVerifier(v Verifier) Option {
	return func(m *Machine) {
		if v != nil {
			m.verifier = v
		}
	}
}

// WithNow sets the time source used for the transient error signal.
func WithNow(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithErrorDisplay sets how long a rejected code stays visible.
func WithErrorDisplay(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.errorDisplay = d
		}
	}
}

// Machine tracks village selection, the active tab, unlocked villages and the
// pending challenge of one device session. It is safe for concurrent use.
type Machine struct {
	mu           sync.Mutex
	verifier     Verifier
	now          func() time.Time
	errorDisplay time.Duration

	selected   string
	tab        domain.Tab
	unlocked   map[string]struct{}
	pending    bool
	errorUntil time.Time
}

// NewMachine returns a machine with "All" selected on the dashboard tab.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		verifier:     PrefixCodeVerifier{},
		now:          time.Now,
		errorDisplay: DefaultErrorDisplay,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.resetLocked()
	return m
}

func (m *Machine) resetLocked() {
	m.selected = domain.AllVillages
	m.tab = domain.TabDashboard
	m.unlocked = make(map[string]struct{})
	m.pending = false
	m.errorUntil = time.Time{}
}

func (m *Machine) unlockedLocked(v string) bool {
	if v == domain.AllVillages {
		return true
	}
	_, ok := m.unlocked[v]
	return ok
}

// SelectVillage commits the selection. A locked village opens a challenge;
// an unlocked one dismisses any pending challenge.
func (m *Machine) SelectVillage(v string) error {
	if !domain.IsSelectable(v) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownVillage, v)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = v
	m.pending = !m.unlockedLocked(v)
	m.errorUntil = time.Time{}
	return nil
}

// SelectTab commits the tab. A village-scoped tab on a locked selection
// opens a challenge; the tab still changes.
func (m *Machine) SelectTab(t domain.Tab) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownTab, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tab = t
	if t.VillageScoped() && !m.unlockedLocked(m.selected) {
		m.pending = true
	}
	return nil
}

// RequestChallenge reopens the challenge for a locked selection. It reports
// whether a challenge is pending afterwards.
func (m *Machine) RequestChallenge() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.unlockedLocked(m.selected) {
		m.pending = true
	}
	return m.pending
}

// Submit checks code against the verifier for the selected village. Success
// unlocks the village for the rest of the session. Failure keeps the
// challenge open and raises the transient error signal.
func (m *Machine) Submit(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	if !m.pending {
		m.mu.Unlock()
		return false, domain.ErrNoChallenge
	}
	village := m.selected
	verifier := m.verifier
	m.mu.Unlock()

	ok := verifier.Verify(ctx, village, code)

	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.unlocked[village] = struct{}{}
		if m.selected == village {
			m.pending = false
		}
		m.errorUntil = time.Time{}
		return true, nil
	}
	if m.pending && m.selected == village {
		m.errorUntil = m.now().Add(m.errorDisplay)
	}
	return false, nil
}

// Cancel dismisses the pending challenge. The village stays locked and the
// tab is unchanged.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = false
	m.errorUntil = time.Time{}
}

// Reset clears every unlocked village and restores the initial selection.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

// IsUnlocked reports whether v may show content.
func (m *Machine) IsUnlocked(v string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unlockedLocked(v)
}

// Status returns the gate state of v.
func (m *Machine) Status(v string) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked(v)
}

func (m *Machine) statusLocked(v string) Status {
	switch {
	case m.unlockedLocked(v):
		return StatusUnlocked
	case m.pending && m.selected == v:
		return StatusChallenging
	default:
		return StatusLocked
	}
}

// Selected returns the selected village.
func (m *Machine) Selected() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// ContentVisible reports whether the active tab may render its content.
func (m *Machine) ContentVisible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contentVisibleLocked()
}

func (m *Machine) contentVisibleLocked() bool {
	return !m.tab.VillageScoped() || m.unlockedLocked(m.selected)
}

// ErrorVisible reports whether a rejected code should still be shown at now.
func (m *Machine) ErrorVisible(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return now.Before(m.errorUntil)
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	unlocked := make([]string, 0, len(m.unlocked))
	for v := range m.unlocked {
		unlocked = append(unlocked, v)
	}
	sort.Strings(unlocked)
	return Snapshot{
		SelectedVillage:  m.selected,
		ActiveTab:        m.tab,
		UnlockedVillages: unlocked,
		PendingChallenge: m.pending,
		Status:           m.statusLocked(m.selected),
		ContentVisible:   m.contentVisibleLocked(),
		ErrorVisible:     m.now().Before(m.errorUntil),
	}
}
