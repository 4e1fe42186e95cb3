package session

import (
	"context"
	"sort"
)

// PendingViews bundles the per-user matchmaking views a polling client
// fetches in one round trip.
type PendingViews struct {
	DirectChallenges []*Session
	OpenChallenges   []*Session
	MyChallenges     []*Session
	ActiveGames      []*Session
}

// CurrentActiveSession returns the single session where the user is a
// player, accepted and active, or nil. With the one-live-session invariant
// there is at most one; if stale index entries ever produce more, the most
// recently updated wins.
func (m *Manager) CurrentActiveSession(ctx context.Context, userID string) (*Session, error) {
	list, err := m.store.SessionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var active []*Session
	for _, s := range list {
		if s.IsPlayer(userID) && s.Status == StatusActive && s.Accepted {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}
	sort.Slice(active, func(i, j int) bool { return active[i].UpdatedAt.After(active[j].UpdatedAt) })
	return active[0], nil
}

// DirectChallengesToMe lists pending challenges where the user is already
// slotted as a player but did not create the session. Newest first.
func (m *Manager) DirectChallengesToMe(ctx context.Context, userID string) ([]*Session, error) {
	list, err := m.store.SessionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []*Session
	for _, s := range list {
		if s.IsPlayer(userID) && s.Status == StatusPending && !s.Accepted && s.CreatedBy != userID {
			out = append(out, s)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// OpenChallenges lists every open challenge awaiting an acceptor, except
// the user's own. Newest first.
func (m *Manager) OpenChallenges(ctx context.Context, userID string) ([]*Session, error) {
	list, err := m.store.OpenChallenges(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Session
	for _, s := range list {
		if s.CreatedBy != userID {
			out = append(out, s)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// MyPendingChallenges lists the pending challenges the user created,
// newest first.
func (m *Manager) MyPendingChallenges(ctx context.Context, userID string) ([]*Session, error) {
	list, err := m.store.SessionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []*Session
	for _, s := range list {
		if s.CreatedBy == userID && s.Status == StatusPending && !s.Accepted {
			out = append(out, s)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// activeGames lists accepted active sessions where the user is a player.
func (m *Manager) activeGames(ctx context.Context, userID string) ([]*Session, error) {
	list, err := m.store.SessionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []*Session
	for _, s := range list {
		if s.IsPlayer(userID) && s.Status == StatusActive && s.Accepted {
			out = append(out, s)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// PendingOverview builds the bundled view served by the pending endpoint.
func (m *Manager) PendingOverview(ctx context.Context, userID string) (*PendingViews, error) {
	direct, err := m.DirectChallengesToMe(ctx, userID)
	if err != nil {
		return nil, err
	}
	open, err := m.OpenChallenges(ctx, userID)
	if err != nil {
		return nil, err
	}
	mine, err := m.MyPendingChallenges(ctx, userID)
	if err != nil {
		return nil, err
	}
	active, err := m.activeGames(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PendingViews{
		DirectChallenges: direct,
		OpenChallenges:   open,
		MyChallenges:     mine,
		ActiveGames:      active,
	}, nil
}

func sortNewestFirst(list []*Session) {
	sort.Slice(list, func(i, j int) bool { return list[i].StartedAt.After(list[j].StartedAt) })
}
