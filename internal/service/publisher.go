package service

import (
	"context"
	"fmt"
	"time"

	"perpwatch/conf"
	"perpwatch/internal/dao"
	"perpwatch/internal/model/entity"
	"perpwatch/pkg/kafka"
	"perpwatch/pkg/logger"
)

// PublisherService 把到期的 pending 事件批量投到事件出口。
// 语义为至少一次：先投递成功再落 published 状态，落状态失败会导致重投，
// 消费端按 event_id 去重。失败按指数退避重试，次数用尽转终态 failed。
type PublisherService struct {
	events   dao.FillEventDao
	producer kafka.ProducerService
	cfg      conf.EventConfig

	now func() time.Time
}

func NewPublisherService(events dao.FillEventDao, producer kafka.ProducerService, cfg conf.EventConfig) *PublisherService {
	if cfg.PublishBatch <= 0 {
		cfg.PublishBatch = 100
	}
	if cfg.PublishMaxAttempts <= 0 {
		cfg.PublishMaxAttempts = 3
	}
	if cfg.PublishBaseDelay <= 0 {
		cfg.PublishBaseDelay = 30 * time.Second
	}
	return &PublisherService{
		events:   events,
		producer: producer,
		cfg:      cfg,
		now:      time.Now,
	}
}

// RunOnce 出队一批到期事件并逐条投递
func (s *PublisherService) RunOnce(ctx context.Context, run *RunRecord) error {
	due, err := s.events.DuePending(ctx, s.now(), s.cfg.PublishBatch)
	if err != nil {
		return fmt.Errorf("dequeue pending events: %w", err)
	}

	for _, ev := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.publishOne(ctx, ev); err != nil {
			run.AddFailed(1)
			continue
		}
		run.AddProcessed(1)
	}
	return nil
}

// publishOne 投递单条事件并推进其状态
func (s *PublisherService) publishOne(ctx context.Context, ev *entity.FillEvent) error {
	err := s.producer.Produce(ctx, []byte(ev.EventId), []byte(ev.Payload))
	if err == nil {
		if markErr := s.events.MarkPublished(ctx, ev.Id, s.now()); markErr != nil {
			// 投成但状态没落上，下轮重投，消费端按 event_id 去重
			logger.Errorf("mark event %s published failed: %v", ev.EventId, markErr)
			return markErr
		}
		logger.Info("event published",
			logger.Pair("event_id", ev.EventId),
			logger.Pair("type", ev.EventType),
			logger.Pair("attempts", ev.Attempts+1))
		return nil
	}

	attempts := ev.Attempts + 1
	terminal := attempts >= s.cfg.PublishMaxAttempts
	nextAttempt := s.now().Add(s.backoff(ev.Attempts))

	if markErr := s.events.MarkFailedAttempt(ctx, ev.Id, err.Error(), nextAttempt, terminal); markErr != nil {
		logger.Errorf("mark event %s failed-attempt failed: %v", ev.EventId, markErr)
	}
	if terminal {
		logger.Error("event publish gave up",
			logger.Pair("event_id", ev.EventId),
			logger.Pair("attempts", attempts),
			logger.Pair("error", err.Error()))
	} else {
		logger.Warnf("event %s publish attempt %d failed, retry after %s: %v",
			ev.EventId, attempts, time.Until(nextAttempt).Truncate(time.Second), err)
	}
	return err
}

// backoff 第 n 次失败后的等待时长，指数增长
func (s *PublisherService) backoff(priorAttempts int) time.Duration {
	d := s.cfg.PublishBaseDelay
	for i := 0; i < priorAttempts; i++ {
		d *= 2
	}
	return d
}
