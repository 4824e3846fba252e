package service

import (
	"encoding/json"
	"sync"
	"symposium_backend/internal/model"
	"symposium_backend/internal/repository"
	"symposium_backend/pkg/database"
	"symposium_backend/pkg/logger"
	"testing"
	"time"

	"gorm.io/gorm"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	db          *gorm.DB
	clock       *fakeClock
	broker      *LocalBroker
	rules       *RuleService
	attempts    *AttemptService
	violations  *ViolationService
	leaderboard *LeaderboardService
	event       model.Event
	round       model.Round
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger.InitNop()
	db := database.OpenTestDB(t)

	f := &fixture{
		db:     db,
		clock:  &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		broker: NewLocalBroker(256),
	}
	f.event = model.Event{Title: "Spring Symposium", Status: model.EventStatusActive}
	mustCreate(t, db, &f.event)
	f.round = f.addRound(t, model.RoundInProgress, 30)

	f.attempts = f.newAttemptService()
	f.violations = NewViolationService(f.attempts)
	f.rules = f.attempts.Rules
	f.leaderboard = NewLeaderboardService(
		repository.NewAttemptRepository(db),
		repository.NewEventRepository(db),
		repository.NewParticipantRepository(db),
		repository.NewQuestionRepository(db),
		f.attempts,
		f.broker,
	)
	f.leaderboard.now = f.clock.Now
	return f
}

// newAttemptService builds an independent service (own keylock) over the same database.
func (f *fixture) newAttemptService() *AttemptService {
	eventRepo := repository.NewEventRepository(f.db)
	svc := NewAttemptService(
		f.db,
		repository.NewAttemptRepository(f.db),
		eventRepo,
		repository.NewParticipantRepository(f.db),
		repository.NewQuestionRepository(f.db),
		NewRuleService(eventRepo, repository.NewRuleRepository(f.db)),
		NewScoringService(),
		f.broker,
		nil,
	)
	svc.now = f.clock.Now
	return svc
}

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func (f *fixture) addRound(t *testing.T, status model.RoundStatus, minutes int) model.Round {
	t.Helper()
	r := model.Round{EventID: f.event.ID, Title: "Round", Status: status, DurationMinutes: minutes}
	mustCreate(t, f.db, &r)
	return r
}

func (f *fixture) addParticipant(t *testing.T, name string) model.Participant {
	t.Helper()
	p := model.Participant{EventID: f.event.ID, Name: name, Email: name + "@example.com", TestEnabled: true}
	mustCreate(t, f.db, &p)
	return p
}

// addMCQs adds n one-point multiple choice questions whose key is "A".
func (f *fixture) addMCQs(t *testing.T, roundID uint, n int) []model.Question {
	t.Helper()
	qs := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		q := model.Question{
			RoundID:       roundID,
			Type:          model.QuestionMultipleChoice,
			Prompt:        "pick one",
			Options:       []string{"A", "B", "C"},
			CorrectOption: "A",
			Points:        1,
			Order:         i,
		}
		mustCreate(t, f.db, &q)
		qs = append(qs, q)
	}
	return qs
}

func (f *fixture) addRoundRules(t *testing.T, roundID uint, rs model.RuleSet) {
	t.Helper()
	rs.EventID = f.event.ID
	rs.RoundID = &roundID
	mustCreate(t, f.db, &rs)
}

func (f *fixture) start(t *testing.T, participantID, roundID uint) *model.TestAttempt {
	t.Helper()
	res, err := f.attempts.StartAttempt(participantID, roundID)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	return res.Attempt
}

func (f *fixture) answer(t *testing.T, a *model.TestAttempt, questionID uint, value string) *AnswerResult {
	t.Helper()
	res, err := f.attempts.SubmitAnswer(a.ID, a.ParticipantID, questionID, json.RawMessage(value))
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	return res
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

// drain collects events currently buffered on sub.
func drain(sub *Subscription) []DomainEvent {
	var events []DomainEvent
	for {
		select {
		case evt, ok := <-sub.C():
			if !ok {
				return events
			}
			events = append(events, evt)
		default:
			return events
		}
	}
}
