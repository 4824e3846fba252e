package service

import (
	"context"
	"symposium_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// Sweeper 定时结束已过期的尝试，保证无人访问时也能按时收卷
type Sweeper struct {
	sweep    func() (int, error)
	interval time.Duration
	reset    chan time.Duration
}

func NewSweeper(attempts *AttemptService, interval time.Duration) *Sweeper {
	return &Sweeper{
		sweep:    attempts.SweepExpired,
		interval: interval,
		reset:    make(chan time.Duration, 1),
	}
}

// SetInterval 配置热更新时调整扫描周期
func (s *Sweeper) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case s.reset <- d:
	default:
		// 丢弃旧的待处理值
		select {
		case <-s.reset:
		default:
		}
		s.reset <- d
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	logger.Log.Info("Attempt sweeper started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Attempt sweeper stopped")
			return
		case d := <-s.reset:
			if d != s.interval {
				s.interval = d
				ticker.Reset(d)
				logger.Log.Info("Attempt sweeper interval changed", zap.Duration("interval", d))
			}
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

func (s *Sweeper) RunOnce() int {
	closed, err := s.sweep()
	if err != nil {
		logger.Log.Error("Attempt sweep failed", zap.Error(err))
		return 0
	}
	if closed > 0 {
		logger.Log.Info("Expired attempts finalized", zap.Int("count", closed))
	}
	return closed
}
