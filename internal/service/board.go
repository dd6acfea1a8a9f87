package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"perpwatch/internal/consts"
	"perpwatch/internal/dao"
	"perpwatch/internal/model"
	"perpwatch/internal/model/entity"
	"perpwatch/pkg/logger"
)

// BoardService 对外读接口的查询层，旁路缓存：
// redis 命中直接返回，未命中查库再回填，缓存故障降级为直查库。
type BoardService struct {
	traders  dao.TraderDao
	rankings dao.RankingDao
	events   dao.FillEventDao
	oplogs   dao.OpLogDao
	metrics  dao.PeriodMetricsDao
	rc       *redis.Client
}

func NewBoardService(
	traders dao.TraderDao,
	rankings dao.RankingDao,
	events dao.FillEventDao,
	oplogs dao.OpLogDao,
	metrics dao.PeriodMetricsDao,
	rc *redis.Client,
) *BoardService {
	return &BoardService{
		traders:  traders,
		rankings: rankings,
		events:   events,
		oplogs:   oplogs,
		metrics:  metrics,
		rc:       rc,
	}
}

// CurrentRanking 某窗口长度下最新一批排名
func (s *BoardService) CurrentRanking(ctx context.Context, windowHours, limit int) (*model.TopTradersRes, error) {
	rdsKey := fmt.Sprintf("%s:%d:%d", consts.RankingCurrentKey, windowHours, limit)

	var cached model.TopTradersRes
	if s.cacheGet(ctx, rdsKey, &cached) {
		return &cached, nil
	}

	rows, err := s.rankings.CurrentRanking(ctx, windowHours, limit)
	if err != nil {
		return nil, err
	}
	res := &model.TopTradersRes{
		Total: int64(len(rows)),
		List:  rows,
	}

	s.cacheSet(ctx, rdsKey, res, consts.RankingCacheTTL)
	return res, nil
}

// TraderDetail 交易员详情加最近日度指标
func (s *BoardService) TraderDetail(ctx context.Context, address string, subAccount int) (*model.TraderDetail, []*entity.TraderPeriodMetrics, error) {
	rdsKey := fmt.Sprintf("%s:%s:%d", consts.TraderDetailKey, address, subAccount)

	var cached traderDetailRes
	if s.cacheGet(ctx, rdsKey, &cached) {
		return cached.Detail, cached.Daily, nil
	}

	detail, err := s.traders.GetDetail(ctx, address, subAccount)
	if err != nil {
		return nil, nil, err
	}

	daily, err := s.metrics.ListByTrader(ctx, detail.Id, entity.PeriodTypeDaily, 30)
	if err != nil {
		logger.Warnf("load daily metrics for %s failed: %v", address, err)
		daily = nil
	}

	s.cacheSet(ctx, rdsKey, &traderDetailRes{Detail: detail, Daily: daily}, consts.TraderCacheTTL)
	return detail, daily, nil
}

type traderDetailRes struct {
	Detail *model.TraderDetail            `json:"detail"`
	Daily  []*entity.TraderPeriodMetrics  `json:"daily"`
}

// RecentEvents 最近已发布事件
func (s *BoardService) RecentEvents(ctx context.Context, limit int) ([]*entity.FillEvent, error) {
	rdsKey := fmt.Sprintf("%s:%d", consts.RecentEventsKey, limit)

	var cached []*entity.FillEvent
	if s.cacheGet(ctx, rdsKey, &cached) {
		return cached, nil
	}

	events, err := s.events.RecentPublished(ctx, limit)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, rdsKey, events, consts.EventsCacheTTL)
	return events, nil
}

// RecentRuns 某类操作最近的运行记录，不走缓存
func (s *BoardService) RecentRuns(ctx context.Context, opType string, limit int) ([]*entity.OperationLogEntry, error) {
	return s.oplogs.Recent(ctx, opType, limit)
}

func (s *BoardService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.rc == nil {
		return false
	}
	bytes, err := s.rc.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Errorf("Redis连接异常:%v", err.Error())
		}
		return false
	}
	return json.Unmarshal(bytes, dest) == nil
}

func (s *BoardService) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.rc == nil {
		return
	}
	bytes, err := json.Marshal(value)
	if err != nil {
		logger.Errorf("BoardService 序列化缓存失败：%v", err.Error())
		return
	}
	if err := s.rc.Set(ctx, key, bytes, ttl).Err(); err != nil {
		logger.Errorf("BoardService存储Cache失败:%v", err.Error())
	}
}
