package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"symposium_backend/pkg/logger"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServeRealtimeStreamsAndUnsubscribes(t *testing.T) {
	logger.InitNop()
	broker := NewLocalBroker(8)
	topic := RoundTopic(11)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeRealtime(broker, w, r, []string{topic})
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitFor(t, "subscription", func() bool { return broker.SubscriberCount(topic) == 1 })

	broker.Deliver(DomainEvent{Type: EventRoundStatusChanged, RoundID: 11, EventID: 2, Status: "completed"})

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var evt DomainEvent
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if evt.Type != EventRoundStatusChanged || evt.RoundID != 11 || evt.Status != "completed" {
		t.Fatalf("unexpected event %+v", evt)
	}

	conn.Close()
	waitFor(t, "unsubscribe after disconnect", func() bool { return broker.SubscriberCount(topic) == 0 })
}
