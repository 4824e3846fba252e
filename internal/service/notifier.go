package service

import (
	"context"
	"fmt"
	"symposium_backend/pkg/monitoring"
	"sync"
	"time"
)

type EventType string

const (
	EventAttemptStarted     EventType = "attempt_started"
	EventAttemptFinalized   EventType = "attempt_finalized"
	EventAttemptOverridden  EventType = "attempt_overridden"
	EventViolationRecorded  EventType = "violation_recorded"
	EventRoundStatusChanged EventType = "round_status_changed"
	EventResultsPublished   EventType = "results_published"
	EventResultsUpdated     EventType = "results_updated"
)

// DomainEvent 推送给实时订阅者的状态变更通知
type DomainEvent struct {
	Type          EventType   `json:"type"`
	EventID       uint        `json:"eventId,omitempty"`
	RoundID       uint        `json:"roundId,omitempty"`
	AttemptID     string      `json:"attemptId,omitempty"`
	ParticipantID uint        `json:"participantId,omitempty"`
	Status        string      `json:"status,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Payload       interface{} `json:"payload,omitempty"`
	At            time.Time   `json:"at"`
}

func RoundTopic(roundID uint) string {
	return fmt.Sprintf("round:%d", roundID)
}

func EventTopic(eventID uint) string {
	return fmt.Sprintf("event:%d", eventID)
}

func (e DomainEvent) Topics() []string {
	var topics []string
	if e.RoundID != 0 {
		topics = append(topics, RoundTopic(e.RoundID))
	}
	if e.EventID != 0 {
		topics = append(topics, EventTopic(e.EventID))
	}
	return topics
}

// Publisher 尽力投递，不保证送达
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent) error
}

type Broker interface {
	Publisher
	Subscribe(topics ...string) *Subscription
	Unsubscribe(sub *Subscription)
}

type Subscription struct {
	ch     chan DomainEvent
	topics []string
}

// C is closed once the subscription is removed.
func (s *Subscription) C() <-chan DomainEvent {
	return s.ch
}

func (s *Subscription) Topics() []string {
	return s.topics
}

const defaultSubscriberBuffer = 64

// LocalBroker 进程内广播，慢订阅者的消息直接丢弃
type LocalBroker struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	buffer int
}

func NewLocalBroker(buffer int) *LocalBroker {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &LocalBroker{
		topics: make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

func (b *LocalBroker) Publish(ctx context.Context, evt DomainEvent) error {
	b.Deliver(evt)
	return nil
}

// Deliver 本地分发，同一订阅者只收到一次，返回成功投递数
func (b *LocalBroker) Deliver(evt DomainEvent) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := make(map[*Subscription]struct{})
	delivered := 0
	for _, topic := range evt.Topics() {
		for sub := range b.topics[topic] {
			if _, ok := seen[sub]; ok {
				continue
			}
			seen[sub] = struct{}{}
			select {
			case sub.ch <- evt:
				delivered++
				monitoring.NotifierMessages.WithLabelValues(string(evt.Type), "delivered").Inc()
			default:
				monitoring.NotifierMessages.WithLabelValues(string(evt.Type), "dropped").Inc()
			}
		}
	}
	return delivered
}

func (b *LocalBroker) Subscribe(topics ...string) *Subscription {
	sub := &Subscription{
		ch:     make(chan DomainEvent, b.buffer),
		topics: topics,
	}
	b.mu.Lock()
	for _, topic := range topics {
		subs, ok := b.topics[topic]
		if !ok {
			subs = make(map[*Subscription]struct{})
			b.topics[topic] = subs
		}
		subs[sub] = struct{}{}
	}
	b.mu.Unlock()
	return sub
}

// Unsubscribe 可重复调用
func (b *LocalBroker) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := false
	for _, topic := range sub.topics {
		subs, ok := b.topics[topic]
		if !ok {
			continue
		}
		if _, ok := subs[sub]; ok {
			delete(subs, sub)
			removed = true
		}
		if len(subs) == 0 {
			delete(b.topics, topic)
		}
	}
	if removed {
		close(sub.ch)
	}
}

// SubscriberCount 当前订阅数（按 topic 去重前）
func (b *LocalBroker) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}
