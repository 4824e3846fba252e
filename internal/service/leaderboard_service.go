package service

import (
	"errors"
	"sort"
	"symposium_backend/internal/model"
	"symposium_backend/internal/repository"
	"symposium_backend/internal/util"
	"symposium_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ScopeKind string

const (
	ScopeRound ScopeKind = "round"
	ScopeEvent ScopeKind = "event"
)

type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   uint      `json:"id"`
}

func RoundScope(roundID uint) Scope { return Scope{Kind: ScopeRound, ID: roundID} }
func EventScope(eventID uint) Scope { return Scope{Kind: ScopeEvent, ID: eventID} }

type LeaderboardEntry struct {
	Rank            int       `json:"rank"`
	ParticipantID   uint      `json:"participantId"`
	ParticipantName string    `json:"participantName"`
	TotalScore      int       `json:"totalScore"`
	MaxScore        int       `json:"maxScore"`
	PendingCount    int       `json:"pendingCount"`
	RoundsCompleted int       `json:"roundsCompleted"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

type Leaderboard struct {
	Scope       Scope              `json:"scope"`
	Entries     []LeaderboardEntry `json:"entries"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// ExpiryHealer 读取前结束过期尝试
type ExpiryHealer interface {
	HealRounds(roundIDs []uint) error
}

// LeaderboardService 排行榜按需从终态尝试计算，不做持久化
type LeaderboardService struct {
	AttemptRepo     *repository.AttemptRepository
	EventRepo       *repository.EventRepository
	ParticipantRepo *repository.ParticipantRepository
	QuestionRepo    *repository.QuestionRepository
	Healer          ExpiryHealer
	Notifier        Publisher

	now func() time.Time
}

func NewLeaderboardService(
	attemptRepo *repository.AttemptRepository,
	eventRepo *repository.EventRepository,
	participantRepo *repository.ParticipantRepository,
	questionRepo *repository.QuestionRepository,
	healer ExpiryHealer,
	notifier Publisher,
) *LeaderboardService {
	return &LeaderboardService{
		AttemptRepo:     attemptRepo,
		EventRepo:       eventRepo,
		ParticipantRepo: participantRepo,
		QuestionRepo:    questionRepo,
		Healer:          healer,
		Notifier:        notifier,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *LeaderboardService) BuildLeaderboard(scope Scope) (*Leaderboard, error) {
	roundIDs, err := s.scopeRounds(scope)
	if err != nil {
		return nil, err
	}
	if s.Healer != nil {
		if err := s.Healer.HealRounds(roundIDs); err != nil {
			return nil, err
		}
	}

	maxScore, err := s.scopeMaxScore(roundIDs)
	if err != nil {
		return nil, err
	}
	attempts, err := s.AttemptRepo.ListScoredByRounds(roundIDs)
	if err != nil {
		return nil, err
	}
	entries := AggregateEntries(attempts, maxScore)

	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ParticipantID)
	}
	participants, err := s.ParticipantRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if p, ok := participants[entries[i].ParticipantID]; ok {
			entries[i].ParticipantName = p.Name
		}
	}

	return &Leaderboard{
		Scope:       scope,
		Entries:     RankEntries(entries),
		GeneratedAt: s.now(),
	}, nil
}

// PublishResults 计算排行榜并推送结果发布事件
func (s *LeaderboardService) PublishResults(scope Scope) (*Leaderboard, error) {
	board, err := s.BuildLeaderboard(scope)
	if err != nil {
		return nil, err
	}

	evt := DomainEvent{
		Type:    EventResultsPublished,
		Payload: board,
	}
	switch scope.Kind {
	case ScopeRound:
		round, err := s.EventRepo.FindRound(scope.ID)
		if err != nil {
			return nil, err
		}
		evt.RoundID = round.ID
		evt.EventID = round.EventID
	case ScopeEvent:
		evt.EventID = scope.ID
	}
	publishEvent(s.Notifier, evt, s.now())

	logger.Log.Info("Results published",
		zap.String("scope", string(scope.Kind)),
		zap.Uint("id", scope.ID),
		zap.Int("entries", len(board.Entries)))
	return board, nil
}

func (s *LeaderboardService) scopeRounds(scope Scope) ([]uint, error) {
	switch scope.Kind {
	case ScopeRound:
		if _, err := s.EventRepo.FindRound(scope.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrRoundNotFound
			}
			return nil, err
		}
		return []uint{scope.ID}, nil
	case ScopeEvent:
		if _, err := s.EventRepo.FindEvent(scope.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrEventNotFound
			}
			return nil, err
		}
		rounds, err := s.EventRepo.ListRoundsByEvent(scope.ID)
		if err != nil {
			return nil, err
		}
		ids := make([]uint, 0, len(rounds))
		for _, r := range rounds {
			ids = append(ids, r.ID)
		}
		return ids, nil
	}
	return nil, util.ErrInvalidScope
}

// scopeMaxScore 范围内所有轮次题目总分，未有人交卷的轮次也计入
func (s *LeaderboardService) scopeMaxScore(roundIDs []uint) (int, error) {
	total := 0
	for _, id := range roundIDs {
		points, err := s.QuestionRepo.SumPointsByRound(id)
		if err != nil {
			return 0, err
		}
		total += points
	}
	return total, nil
}

// AggregateEntries 每个参赛者一条：各轮取最新一次尝试累加，最晚交卷时间作为提交时间
func AggregateEntries(attempts []model.TestAttempt, maxScore int) []LeaderboardEntry {
	type pair struct{ participant, round uint }
	latest := make(map[pair]model.TestAttempt)
	for _, a := range attempts {
		if a.TotalScore == nil || a.CompletedAt == nil {
			continue
		}
		k := pair{a.ParticipantID, a.RoundID}
		if prev, ok := latest[k]; ok && !a.CompletedAt.After(*prev.CompletedAt) {
			continue
		}
		latest[k] = a
	}

	byParticipant := make(map[uint]*LeaderboardEntry)
	for _, a := range latest {
		e, ok := byParticipant[a.ParticipantID]
		if !ok {
			e = &LeaderboardEntry{ParticipantID: a.ParticipantID}
			byParticipant[a.ParticipantID] = e
		}
		e.TotalScore += *a.TotalScore
		e.PendingCount += a.PendingCount
		e.RoundsCompleted++
		if a.CompletedAt.After(e.SubmittedAt) {
			e.SubmittedAt = *a.CompletedAt
		}
	}

	entries := make([]LeaderboardEntry, 0, len(byParticipant))
	for _, e := range byParticipant {
		e.MaxScore = maxScore
		entries = append(entries, *e)
	}
	return entries
}

// RankEntries 分数降序，同分按提交时间先后，再按参赛者ID；名次不并列
func RankEntries(entries []LeaderboardEntry) []LeaderboardEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.ParticipantID < b.ParticipantID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
