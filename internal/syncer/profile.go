package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/remote"
)

// ProfileManager owns the single per-user profile. Profiles are never
// deleted and are not part of the reconcile cycle: the record is pulled
// once during bootstrap and pushed like any other flagged entity afterward.
type ProfileManager struct {
	deps Deps
	eng  *engine[model.Profile]
}

func NewProfileManager(d Deps) *ProfileManager {
	m := &ProfileManager{deps: d}
	m.eng = &engine[model.Profile]{
		ad: adapter[model.Profile]{
			kind:            model.KindProfile,
			id:              func(p *model.Profile) string { return p.UserID },
			needsSync:       func(p *model.Profile) bool { return p.NeedsSync },
			setNeedsSync:    func(p *model.Profile, v bool) { p.NeedsSync = v },
			encode:          remote.EncodeProfile,
			decode:          remote.DecodeProfile,
			get:             d.Store.Profiles().Get,
			put:             d.Store.Profiles().Put,
			listNeedingSync: d.Store.Profiles().ListNeedingSync,
		},
		rem: d.Remote,
		reg: d.Registry,
		log: d.Log,
	}
	return m
}

// Bootstrap returns the user's profile, creating it lazily on first run:
// the local copy wins, then a remote copy is adopted, and only when the
// profile exists nowhere is a fresh one created (flagged for push). A
// remote that cannot be reached is treated as not having the profile; the
// flag keeps the fresh profile queued until the remote confirms it.
func (m *ProfileManager) Bootstrap(ctx context.Context, userID, displayName string) (*model.Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is empty", model.ErrValidation)
	}

	p, err := m.deps.Store.Profiles().Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	if rec, err := m.deps.Remote.FetchOne(ctx, model.KindProfile, userID); err == nil {
		adopted, err := remote.DecodeProfile(rec)
		if err != nil {
			return nil, err
		}
		if err := m.deps.Store.Profiles().Put(ctx, adopted); err != nil {
			return nil, err
		}
		m.deps.publishChanged(model.KindProfile)
		return adopted, nil
	} else if !isRemoteErr(err) {
		return nil, err
	}

	p = &model.Profile{UserID: userID, DisplayName: displayName, NeedsSync: true}
	if err := m.deps.Store.Profiles().Put(ctx, p); err != nil {
		return nil, err
	}
	m.deps.publishChanged(model.KindProfile)
	m.deps.submitPush(model.KindProfile, pushByIDJob(m.eng, userID))
	return p, nil
}

func (m *ProfileManager) Get(ctx context.Context, userID string) (*model.Profile, error) {
	return m.deps.Store.Profiles().Get(ctx, userID)
}

// AwardPoints credits focus points earned from completed sessions.
func (m *ProfileManager) AwardPoints(ctx context.Context, userID string, points int) (*model.Profile, error) {
	if points < 0 {
		return nil, fmt.Errorf("%w: award must be non-negative", model.ErrValidation)
	}
	return m.mutate(ctx, userID, func(p *model.Profile) error {
		p.Points += points
		return nil
	})
}

// SpendPoints debits the balance; the balance never goes negative.
func (m *ProfileManager) SpendPoints(ctx context.Context, userID string, points int) (*model.Profile, error) {
	if points < 0 {
		return nil, fmt.Errorf("%w: spend must be non-negative", model.ErrValidation)
	}
	return m.mutate(ctx, userID, func(p *model.Profile) error {
		if p.Points < points {
			return fmt.Errorf("%w: have %d, need %d", model.ErrInsufficientPoints, p.Points, points)
		}
		p.Points -= points
		return nil
	})
}

// RecordFocusDuration updates the best focus duration when seconds beats it.
func (m *ProfileManager) RecordFocusDuration(ctx context.Context, userID string, seconds int) (*model.Profile, error) {
	return m.mutate(ctx, userID, func(p *model.Profile) error {
		if seconds > p.BestFocusSeconds {
			p.BestFocusSeconds = seconds
		}
		return nil
	})
}

// SetWeeklyHours replaces the productivity-hours map.
func (m *ProfileManager) SetWeeklyHours(ctx context.Context, userID string, hours model.WeeklyHours) (*model.Profile, error) {
	return m.mutate(ctx, userID, func(p *model.Profile) error {
		p.WeeklyHours = hours
		return nil
	})
}

// mutate loads, edits, flags and stores the profile, then schedules a push.
func (m *ProfileManager) mutate(ctx context.Context, userID string, edit func(*model.Profile) error) (*model.Profile, error) {
	p, err := m.deps.Store.Profiles().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := edit(p); err != nil {
		return nil, err
	}
	p.NeedsSync = true
	if err := m.deps.Store.Profiles().Put(ctx, p); err != nil {
		return nil, err
	}
	m.deps.publishChanged(model.KindProfile)
	m.deps.submitPush(model.KindProfile, pushByIDJob(m.eng, userID))
	return p, nil
}

func (m *ProfileManager) Kind() model.Kind { return model.KindProfile }

func (m *ProfileManager) SyncPendingEdits(ctx context.Context) error {
	return m.eng.syncPendingEdits(ctx)
}

func (m *ProfileManager) TakeSoftError() string { return m.eng.takeSoftError() }
