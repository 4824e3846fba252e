package service

import (
	"encoding/json"
	"net/http"
	"symposium_backend/pkg/logger"
	"symposium_backend/pkg/monitoring"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RealtimeClient 一个 WebSocket 订阅连接。只下行推送，上行消息仅用于保活。
type RealtimeClient struct {
	Broker  Broker
	Conn    *websocket.Conn
	Sub     *Subscription
	Limiter *rate.Limiter
}

func (c *RealtimeClient) readPump() {
	defer func() {
		c.Broker.Unsubscribe(c.Sub)
		c.Conn.Close()
		monitoring.RealtimeSubscribers.Dec()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.Strings("topics", c.Sub.Topics()))
			}
			break
		}
		// 客户端刷屏时直接断开
		if !c.Limiter.Allow() {
			logger.Log.Warn("Realtime client exceeded read rate, closing", zap.Strings("topics", c.Sub.Topics()))
			break
		}
	}
}

func (c *RealtimeClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case evt, ok := <-c.Sub.C():
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				logger.Log.Error("Realtime marshal error", zap.Error(err))
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeRealtime 升级为 WebSocket 并推送订阅主题的事件
func ServeRealtime(broker Broker, w http.ResponseWriter, r *http.Request, topics []string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.Strings("topics", topics))
		return
	}
	client := &RealtimeClient{
		Broker:  broker,
		Conn:    conn,
		Sub:     broker.Subscribe(topics...),
		Limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
	monitoring.RealtimeSubscribers.Inc()

	go client.writePump()
	go client.readPump()
}
