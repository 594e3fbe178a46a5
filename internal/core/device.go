package core

import (
	"context"
	"fmt"
	"strings"

	"heritagecore/internal/community"
	"heritagecore/internal/gate"
	"heritagecore/internal/identity"
	"heritagecore/internal/lineage"
	"heritagecore/pkg/domain"
)

// Device is the per-device view of the portal: its persisted session and
// lineage chart plus the in-memory access gate of the current session.
type Device struct {
	svc      *Service
	id       string
	identity *identity.Provider
	lineage  *lineage.Store
	gate     *gate.Machine
}

// ID returns the device identifier.
func (d *Device) ID() string { return d.id }

// Login persists a new session for the device and starts with a locked gate.
func (d *Device) Login(ctx context.Context, email, name, village string) (Session, error) {
	var session Session
	err := d.svc.run(ctx, "login", d.id, email, func(ctx context.Context) (string, error) {
		if strings.TrimSpace(email) == "" || strings.TrimSpace(name) == "" {
			return "", fmt.Errorf("%w: email and name are required", domain.ErrInvalidInput)
		}
		if !domain.IsVillage(village) {
			return "", fmt.Errorf("%w: %q", domain.ErrUnknownVillage, village)
		}
		s, err := d.identity.Login(ctx, email, name, village)
		if err != nil {
			return "", err
		}
		d.gate.Reset()
		session = s
		return s.ID, nil
	})
	return session, err
}

// Session returns the persisted session of the device, if any.
func (d *Device) Session(ctx context.Context) (Session, bool) {
	return d.identity.Current(ctx)
}

// Logout clears the session and relocks every village.
func (d *Device) Logout(ctx context.Context) error {
	actor := ""
	if s, ok := d.identity.Current(ctx); ok {
		actor = s.Email
	}
	return d.svc.run(ctx, "logout", d.id, actor, func(ctx context.Context) (string, error) {
		if err := d.identity.Logout(ctx); err != nil {
			return "", err
		}
		d.gate.Reset()
		return "", nil
	})
}

// SelectVillage changes the village filter. Selecting a locked village opens
// the access challenge.
func (d *Device) SelectVillage(ctx context.Context, village string) (gate.Snapshot, error) {
	err := d.svc.run(ctx, "select_village", d.id, "", func(context.Context) (string, error) {
		return village, d.gate.SelectVillage(village)
	})
	return d.gate.Snapshot(), err
}

// SelectTab switches the active view.
func (d *Device) SelectTab(ctx context.Context, tab Tab) (gate.Snapshot, error) {
	err := d.svc.run(ctx, "select_tab", d.id, "", func(context.Context) (string, error) {
		return string(tab), d.gate.SelectTab(tab)
	})
	return d.gate.Snapshot(), err
}

// RequestChallenge reopens the challenge for a locked selection.
func (d *Device) RequestChallenge(ctx context.Context) gate.Snapshot {
	_ = d.svc.run(ctx, "request_challenge", d.id, "", func(context.Context) (string, error) {
		d.gate.RequestChallenge()
		return d.gate.Selected(), nil
	})
	return d.gate.Snapshot()
}

// SubmitChallenge checks an access code for the selected village.
func (d *Device) SubmitChallenge(ctx context.Context, code string) (bool, gate.Snapshot, error) {
	var ok bool
	err := d.svc.run(ctx, "submit_challenge", d.id, "", func(ctx context.Context) (string, error) {
		village := d.gate.Selected()
		var err error
		ok, err = d.gate.Submit(ctx, code)
		if err == nil && !ok {
			d.svc.logger.Info("access code rejected", "device", d.id, "village", village)
		}
		return village, err
	})
	return ok, d.gate.Snapshot(), err
}

// CancelChallenge dismisses the pending challenge without unlocking.
func (d *Device) CancelChallenge(ctx context.Context) gate.Snapshot {
	_ = d.svc.run(ctx, "cancel_challenge", d.id, "", func(context.Context) (string, error) {
		d.gate.Cancel()
		return d.gate.Selected(), nil
	})
	return d.gate.Snapshot()
}

// Gate returns the current gate state.
func (d *Device) Gate() gate.Snapshot { return d.gate.Snapshot() }

// Gallery lists the items of the selected village matching term. A locked
// selection yields ErrLocked and no items.
func (d *Device) Gallery(_ context.Context, session Session, term string) ([]HeritageItem, error) {
	if !session.Valid() {
		return nil, domain.ErrNoSession
	}
	selected := d.gate.Selected()
	if !d.gate.IsUnlocked(selected) {
		return nil, fmt.Errorf("%w: %s", domain.ErrLocked, selected)
	}
	return d.svc.items.Query(selected, term), nil
}

func (d *Device) chatVillage(session Session) (string, error) {
	if !session.Valid() {
		return "", domain.ErrNoSession
	}
	selected := d.gate.Selected()
	if !d.gate.IsUnlocked(selected) {
		return "", fmt.Errorf("%w: %s", domain.ErrLocked, selected)
	}
	return community.ChatVillage(session, selected), nil
}

// Chat returns the room the session talks in and its messages.
func (d *Device) Chat(_ context.Context, session Session) (string, []CommunityMessage, error) {
	village, err := d.chatVillage(session)
	if err != nil {
		return "", nil, err
	}
	return village, d.svc.rooms.Messages(village), nil
}

// PostMessage appends text to the session's room. Blank text is ignored and
// reported with false.
func (d *Device) PostMessage(ctx context.Context, session Session, text string) (CommunityMessage, bool, error) {
	var (
		msg    CommunityMessage
		posted bool
	)
	err := d.svc.run(ctx, "post_message", d.id, session.Email, func(context.Context) (string, error) {
		village, err := d.chatVillage(session)
		if err != nil {
			return "", err
		}
		msg, posted = d.svc.rooms.Post(session, village, text)
		return msg.ID, nil
	})
	return msg, posted, err
}

// Lineage returns the persisted lineage chart of the device.
func (d *Device) Lineage(ctx context.Context) LineageRecord {
	return d.lineage.Load(ctx)
}

// SetLineageSlot fills one chart slot and persists the whole chart.
func (d *Device) SetLineageSlot(ctx context.Context, key RelationKey, name, village string) (LineageRecord, error) {
	var record LineageRecord
	err := d.svc.run(ctx, "set_lineage_slot", d.id, "", func(ctx context.Context) (string, error) {
		var err error
		record, err = d.lineage.SetSlot(ctx, key, Ancestor{Name: name, Village: village})
		if err != nil {
			return string(key), err
		}
		return record[key].ID, nil
	})
	return record, err
}
