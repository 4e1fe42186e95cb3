package session

import (
	"context"
	"testing"
)

func TestPendingOverviewPartitioning(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	// u2 is directly challenged by u1
	direct, err := m.CreateChallenge(ctx, "u1", "alice", "u2", White)
	if err != nil {
		t.Fatalf("CreateChallenge: %v", err)
	}
	// u3 posts an open challenge
	open, err := m.CreateChallenge(ctx, "u3", "carol", "", Black)
	if err != nil {
		t.Fatalf("CreateChallenge: %v", err)
	}

	views, err := m.PendingOverview(ctx, "u2")
	if err != nil {
		t.Fatalf("PendingOverview: %v", err)
	}
	if len(views.DirectChallenges) != 1 || views.DirectChallenges[0].ID != direct.ID {
		t.Fatalf("direct challenges: %+v", views.DirectChallenges)
	}
	if len(views.OpenChallenges) != 1 || views.OpenChallenges[0].ID != open.ID {
		t.Fatalf("open challenges: %+v", views.OpenChallenges)
	}
	if len(views.MyChallenges) != 0 || len(views.ActiveGames) != 0 {
		t.Fatalf("unexpected views: %+v", views)
	}

	// the creator sees the same sessions partitioned differently
	creatorViews, err := m.PendingOverview(ctx, "u1")
	if err != nil {
		t.Fatalf("PendingOverview: %v", err)
	}
	if len(creatorViews.DirectChallenges) != 0 {
		t.Fatalf("creator must not see own challenge as incoming: %+v", creatorViews.DirectChallenges)
	}
	if len(creatorViews.MyChallenges) != 1 || creatorViews.MyChallenges[0].ID != direct.ID {
		t.Fatalf("my challenges: %+v", creatorViews.MyChallenges)
	}

	// open challenges exclude the poster
	posterViews, err := m.PendingOverview(ctx, "u3")
	if err != nil {
		t.Fatalf("PendingOverview: %v", err)
	}
	if len(posterViews.OpenChallenges) != 0 {
		t.Fatalf("poster must not see own open challenge: %+v", posterViews.OpenChallenges)
	}
	if len(posterViews.MyChallenges) != 1 {
		t.Fatalf("my challenges: %+v", posterViews.MyChallenges)
	}
}

func TestPendingOverviewAfterAccept(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	s, err := m.CreateChallenge(ctx, "u1", "alice", "", White)
	if err != nil {
		t.Fatalf("CreateChallenge: %v", err)
	}
	if _, err := m.AcceptChallenge(ctx, "u2", "bob", s.ID); err != nil {
		t.Fatalf("AcceptChallenge: %v", err)
	}

	views, err := m.PendingOverview(ctx, "u2")
	if err != nil {
		t.Fatalf("PendingOverview: %v", err)
	}
	if len(views.OpenChallenges) != 0 {
		t.Fatalf("accepted session must leave the open pool: %+v", views.OpenChallenges)
	}
	if len(views.ActiveGames) != 1 || views.ActiveGames[0].ID != s.ID {
		t.Fatalf("active games: %+v", views.ActiveGames)
	}

	// an uninvolved user sees nothing
	other, err := m.PendingOverview(ctx, "u3")
	if err != nil {
		t.Fatalf("PendingOverview: %v", err)
	}
	if len(other.DirectChallenges)+len(other.OpenChallenges)+len(other.MyChallenges)+len(other.ActiveGames) != 0 {
		t.Fatalf("unexpected views for bystander: %+v", other)
	}
}

func TestCurrentActiveSession(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	got, err := m.CurrentActiveSession(ctx, "u1")
	if err != nil {
		t.Fatalf("CurrentActiveSession: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no active session, got %+v", got)
	}

	s, err := m.CreateChallenge(ctx, "u1", "alice", "u2", White)
	if err != nil {
		t.Fatalf("CreateChallenge: %v", err)
	}
	// pending sessions do not count as active
	if got, _ := m.CurrentActiveSession(ctx, "u1"); got != nil {
		t.Fatalf("pending session reported as active: %+v", got)
	}

	if _, err := m.AcceptChallenge(ctx, "u2", "bob", s.ID); err != nil {
		t.Fatalf("AcceptChallenge: %v", err)
	}
	got, err = m.CurrentActiveSession(ctx, "u1")
	if err != nil {
		t.Fatalf("CurrentActiveSession: %v", err)
	}
	if got == nil || got.ID != s.ID {
		t.Fatalf("expected session %s, got %+v", s.ID, got)
	}

	if _, err := m.EndSession(ctx, "u1", s.ID, StatusDrawn, ResultDraw, ""); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if got, _ := m.CurrentActiveSession(ctx, "u1"); got != nil {
		t.Fatalf("finished session reported as active: %+v", got)
	}
}
