package service

import (
	"context"
	"encoding/json"
	"symposium_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisBroker 多实例部署：发布走 Redis 频道，每个实例订阅后再做本地分发
type RedisBroker struct {
	Redis   *redis.Client
	Channel string
	local   *LocalBroker
}

func NewRedisBroker(rdb *redis.Client, channel string, local *LocalBroker) *RedisBroker {
	if local == nil {
		local = NewLocalBroker(0)
	}
	return &RedisBroker{
		Redis:   rdb,
		Channel: channel,
		local:   local,
	}
}

func (b *RedisBroker) Publish(ctx context.Context, evt DomainEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return b.Redis.Publish(ctx, b.Channel, payload).Err()
}

func (b *RedisBroker) Subscribe(topics ...string) *Subscription {
	return b.local.Subscribe(topics...)
}

func (b *RedisBroker) Unsubscribe(sub *Subscription) {
	b.local.Unsubscribe(sub)
}

// Run 将 Redis 频道消息转发给本地订阅者，ctx 取消时退出
func (b *RedisBroker) Run(ctx context.Context) {
	pubsub := b.Redis.Subscribe(ctx, b.Channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var evt DomainEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				logger.Log.Error("PubSub unmarshal error", zap.Error(err))
				continue
			}
			b.local.Deliver(evt)
		}
	}
}
