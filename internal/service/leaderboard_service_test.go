package service

import (
	"errors"
	"symposium_backend/internal/model"
	"symposium_backend/internal/util"
	"testing"
	"time"
)

func TestRoundLeaderboardBreaksTiesBySubmissionTime(t *testing.T) {
	f := newFixture(t)
	qs := f.addMCQs(t, f.round.ID, 10)
	a := f.addParticipant(t, "A")
	b := f.addParticipant(t, "B")
	c := f.addParticipant(t, "C")

	attemptA := f.start(t, a.ID, f.round.ID)
	attemptB := f.start(t, b.ID, f.round.ID)
	attemptC := f.start(t, c.ID, f.round.ID)
	for _, q := range qs[:8] {
		f.answer(t, attemptA, q.ID, `"A"`)
		f.answer(t, attemptB, q.ID, `"A"`)
	}
	for _, q := range qs[:3] {
		f.answer(t, attemptC, q.ID, `"A"`)
	}

	f.clock.Advance(5 * time.Minute)
	f.attempts.SubmitAttempt(attemptB.ID, b.ID)
	f.clock.Advance(5 * time.Minute)
	f.attempts.SubmitAttempt(attemptA.ID, a.ID)
	f.attempts.SubmitAttempt(attemptC.ID, c.ID)

	board, err := f.leaderboard.BuildLeaderboard(RoundScope(f.round.ID))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(board.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(board.Entries))
	}
	want := []struct {
		name  string
		score int
	}{{"B", 8}, {"A", 8}, {"C", 3}}
	for i, w := range want {
		e := board.Entries[i]
		if e.Rank != i+1 || e.ParticipantName != w.name || e.TotalScore != w.score {
			t.Fatalf("entry %d: got rank=%d name=%s score=%d, want %s/%d", i, e.Rank, e.ParticipantName, e.TotalScore, w.name, w.score)
		}
		if e.MaxScore != 10 {
			t.Fatalf("entry %d: expected max 10, got %d", i, e.MaxScore)
		}
	}
}

func TestLeaderboardSkipsLiveAttemptsAndHealsExpired(t *testing.T) {
	f := newFixture(t)
	f.addMCQs(t, f.round.ID, 2)
	early := f.addParticipant(t, "early")
	late := f.addParticipant(t, "late")

	f.start(t, early.ID, f.round.ID)
	f.clock.Advance(20 * time.Minute)
	f.start(t, late.ID, f.round.ID)

	board, err := f.leaderboard.BuildLeaderboard(RoundScope(f.round.ID))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(board.Entries) != 0 {
		t.Fatalf("live attempts must not be ranked, got %d entries", len(board.Entries))
	}

	f.clock.Advance(15 * time.Minute)
	board, _ = f.leaderboard.BuildLeaderboard(RoundScope(f.round.ID))
	if len(board.Entries) != 1 || board.Entries[0].ParticipantID != early.ID {
		t.Fatalf("expected only the expired attempt ranked, got %+v", board.Entries)
	}
	if !board.GeneratedAt.Equal(f.clock.Now()) {
		t.Fatal("generatedAt should use the service clock")
	}
}

func TestEventLeaderboardSumsRounds(t *testing.T) {
	f := newFixture(t)
	second := f.addRound(t, model.RoundInProgress, 30)
	q1 := f.addMCQs(t, f.round.ID, 4)
	q2 := f.addMCQs(t, second.ID, 6)
	alice := f.addParticipant(t, "alice")
	bob := f.addParticipant(t, "bob")

	a1 := f.start(t, alice.ID, f.round.ID)
	f.answer(t, a1, q1[0].ID, `"A"`)
	f.answer(t, a1, q1[1].ID, `"A"`)
	f.attempts.SubmitAttempt(a1.ID, alice.ID)

	a2 := f.start(t, alice.ID, second.ID)
	f.answer(t, a2, q2[0].ID, `"A"`)
	f.clock.Advance(time.Minute)
	f.attempts.SubmitAttempt(a2.ID, alice.ID)

	b1 := f.start(t, bob.ID, second.ID)
	for _, q := range q2[:4] {
		f.answer(t, b1, q.ID, `"A"`)
	}
	f.attempts.SubmitAttempt(b1.ID, bob.ID)

	board, err := f.leaderboard.BuildLeaderboard(EventScope(f.event.ID))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(board.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board.Entries))
	}
	top, next := board.Entries[0], board.Entries[1]
	if top.ParticipantID != bob.ID || top.TotalScore != 4 || top.RoundsCompleted != 1 {
		t.Fatalf("unexpected top entry %+v", top)
	}
	if next.ParticipantID != alice.ID || next.TotalScore != 3 || next.RoundsCompleted != 2 {
		t.Fatalf("unexpected second entry %+v", next)
	}
	if top.MaxScore != 10 || next.MaxScore != 10 {
		t.Fatalf("max score should sum the rounds, got %d/%d", top.MaxScore, next.MaxScore)
	}
}

func TestEventMaxScoreIncludesRoundsWithoutAttempts(t *testing.T) {
	f := newFixture(t)
	upcoming := f.addRound(t, model.RoundDraft, 30)
	qs := f.addMCQs(t, f.round.ID, 2)
	f.addMCQs(t, upcoming.ID, 3)
	p := f.addParticipant(t, "alice")

	a := f.start(t, p.ID, f.round.ID)
	f.answer(t, a, qs[0].ID, `"A"`)
	f.attempts.SubmitAttempt(a.ID, p.ID)

	board, err := f.leaderboard.BuildLeaderboard(EventScope(f.event.ID))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(board.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(board.Entries))
	}
	if e := board.Entries[0]; e.TotalScore != 1 || e.MaxScore != 5 {
		t.Fatalf("expected 1/5 across both rounds, got %d/%d", e.TotalScore, e.MaxScore)
	}

	board, _ = f.leaderboard.BuildLeaderboard(RoundScope(f.round.ID))
	if board.Entries[0].MaxScore != 2 {
		t.Fatalf("round scope should only count its own questions, got %d", board.Entries[0].MaxScore)
	}
}

func TestPublishResultsNotifiesEventTopic(t *testing.T) {
	f := newFixture(t)
	p := f.addParticipant(t, "alice")
	a := f.start(t, p.ID, f.round.ID)
	f.attempts.SubmitAttempt(a.ID, p.ID)
	sub := f.broker.Subscribe(EventTopic(f.event.ID))

	board, err := f.leaderboard.PublishResults(RoundScope(f.round.ID))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	events := drain(sub)
	if len(events) != 1 || events[0].Type != EventResultsPublished || events[0].RoundID != f.round.ID {
		t.Fatalf("expected results_published, got %+v", events)
	}
	if got, ok := events[0].Payload.(*Leaderboard); !ok || got != board {
		t.Fatalf("payload should carry the leaderboard, got %T", events[0].Payload)
	}
}

func TestLeaderboardScopeErrors(t *testing.T) {
	f := newFixture(t)
	if _, err := f.leaderboard.BuildLeaderboard(RoundScope(404)); !errors.Is(err, util.ErrRoundNotFound) {
		t.Fatalf("expected round not found, got %v", err)
	}
	if _, err := f.leaderboard.BuildLeaderboard(EventScope(404)); !errors.Is(err, util.ErrEventNotFound) {
		t.Fatalf("expected event not found, got %v", err)
	}
	if _, err := f.leaderboard.BuildLeaderboard(Scope{Kind: "season", ID: 1}); !errors.Is(err, util.ErrInvalidScope) {
		t.Fatalf("expected invalid scope, got %v", err)
	}
}

func TestAggregateKeepsLatestAttemptPerRound(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	at := func(m int) *time.Time { v := base.Add(time.Duration(m) * time.Minute); return &v }

	attempts := []model.TestAttempt{
		{ParticipantID: 1, RoundID: 1, TotalScore: intPtr(2), MaxScore: 5, CompletedAt: at(1)},
		{ParticipantID: 1, RoundID: 1, TotalScore: intPtr(4), MaxScore: 5, CompletedAt: at(9)},
		{ParticipantID: 1, RoundID: 2, TotalScore: intPtr(1), MaxScore: 3, CompletedAt: at(5), PendingCount: 1},
		{ParticipantID: 2, RoundID: 1, TotalScore: intPtr(4), MaxScore: 5, CompletedAt: at(3)},
		{ParticipantID: 3, RoundID: 1, MaxScore: 5},
	}
	entries := RankEntries(AggregateEntries(attempts, 8))
	if len(entries) != 2 {
		t.Fatalf("unscored attempts must be skipped, got %d entries", len(entries))
	}
	first, second := entries[0], entries[1]
	if first.ParticipantID != 1 || first.TotalScore != 5 || first.PendingCount != 1 || !first.SubmittedAt.Equal(*at(9)) {
		t.Fatalf("unexpected first entry %+v", first)
	}
	if second.ParticipantID != 2 || second.TotalScore != 4 || second.Rank != 2 {
		t.Fatalf("unexpected second entry %+v", second)
	}
	if first.MaxScore != 8 || second.MaxScore != 8 {
		t.Fatalf("expected max 8 on every entry, got %d/%d", first.MaxScore, second.MaxScore)
	}
}

func TestRankEntriesFallsBackToParticipantID(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := RankEntries([]LeaderboardEntry{
		{ParticipantID: 9, TotalScore: 4, SubmittedAt: ts},
		{ParticipantID: 3, TotalScore: 4, SubmittedAt: ts},
		{ParticipantID: 5, TotalScore: 6, SubmittedAt: ts.Add(time.Hour)},
	})
	order := []uint{5, 3, 9}
	for i, id := range order {
		if entries[i].ParticipantID != id || entries[i].Rank != i+1 {
			t.Fatalf("position %d: got participant %d rank %d", i, entries[i].ParticipantID, entries[i].Rank)
		}
	}
}
