package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"perpwatch/conf"
	"perpwatch/internal/model/entity"
	"perpwatch/internal/service"
	"perpwatch/pkg/logger"
)

// Scheduler 驱动四个相互独立的周期循环：
// 成交拉取、排名评估、候选发现、事件发布。
// 每个循环启动时立即执行一次，之后按各自周期触发；
// 单轮失败只记录，不影响其他循环，也不影响下一轮。
type Scheduler struct {
	ingester  *service.IngesterService
	ranking   *service.RankingService
	discovery *service.DiscoveryService
	publisher *service.PublisherService
	oplog     *service.OpLogService

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewScheduler(
	ingester *service.IngesterService,
	ranking *service.RankingService,
	discovery *service.DiscoveryService,
	publisher *service.PublisherService,
	oplog *service.OpLogService,
) *Scheduler {
	return &Scheduler{
		ingester:  ingester,
		ranking:   ranking,
		discovery: discovery,
		publisher: publisher,
		oplog:     oplog,
		stopCh:    make(chan struct{}),
	}
}

// runFunc 一轮业务执行
type runFunc func(ctx context.Context, run *service.RunRecord) error

// Start 拉起所有循环
func (s *Scheduler) Start() {
	cfg := conf.AppConfig

	// 先发现一轮再开始拉成交，冷启动时跟踪表不为空
	s.launch(entity.OpTypeDiscovery, cfg.Discovery.Interval, cfg.Discovery.RunTimeout, s.discovery.RunOnce)
	s.launch(entity.OpTypeFillWatch, cfg.Watch.Interval, cfg.Watch.RunTimeout, s.ingester.RunOnce)
	s.launch(entity.OpTypeRanking, cfg.Ranking.Interval, cfg.Ranking.RunTimeout, s.ranking.RunOnce)
	// 发布一轮必须在下一轮之前结束
	s.launch(entity.OpTypePublish, cfg.Events.PublishInterval, cfg.Events.PublishInterval, s.publisher.RunOnce)

	logger.Info("scheduler started",
		logger.Pair("watch_interval", cfg.Watch.Interval.String()),
		logger.Pair("ranking_interval", cfg.Ranking.Interval.String()),
		logger.Pair("discovery_interval", cfg.Discovery.Interval.String()),
		logger.Pair("publish_interval", cfg.Events.PublishInterval.String()))
}

// Stop 停止所有循环并等待当前轮次退出
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	logger.Info("scheduler stopped")
}

func (s *Scheduler) launch(opType string, interval, timeout time.Duration, fn runFunc) {
	if interval <= 0 {
		logger.Warnf("loop %s disabled: interval not set", opType)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// 启动时立即跑一次
		s.runOnce(opType, timeout, fn)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runOnce(opType, timeout, fn)
			case <-s.stopCh:
				return
			}
		}
	}()
}

// runOnce 执行一轮并兜住 panic，单轮崩溃不拖垮循环
func (s *Scheduler) runOnce(opType string, timeout time.Duration, fn runFunc) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	run := s.oplog.Begin(ctx, opType)

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("loop %s panicked: %v", opType, r)
			run.Finish(fmt.Errorf("panic: %v", r))
		}
	}()

	err := fn(ctx, run)
	run.Finish(err)
	if err != nil {
		logger.Error("loop run failed",
			logger.Pair("op", opType),
			logger.Pair("error", err.Error()))
	}
}
