package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"perpwatch/conf"
	"perpwatch/internal/dao"
	"perpwatch/internal/model/entity"
	"perpwatch/pkg/indexer/rest"
	"perpwatch/pkg/indexer/types"
	"perpwatch/pkg/logger"
)

// DiscoveryService 低频重扫排行榜，筛出达标的候选交易员注册进跟踪表。
// 已跟踪的交易员不会被重复注册，只刷新展示字段。
type DiscoveryService struct {
	registry *RegistryService
	samples  dao.PnlSampleDao
	client   *rest.IndexerClient
	cfg      conf.DiscoveryConfig
}

func NewDiscoveryService(registry *RegistryService, samples dao.PnlSampleDao, client *rest.IndexerClient, cfg conf.DiscoveryConfig) *DiscoveryService {
	if cfg.TopN <= 0 {
		cfg.TopN = 50
	}
	return &DiscoveryService{
		registry: registry,
		samples:  samples,
		client:   client,
		cfg:      cfg,
	}
}

// RunOnce 拉一次排行榜，过滤、截断、注册，再给新交易员补历史盈亏样本
func (s *DiscoveryService) RunOnce(ctx context.Context, run *RunRecord) error {
	rows, err := s.client.Leaderboard(ctx)
	if err != nil {
		return fmt.Errorf("fetch leaderboard: %w", err)
	}

	candidates := filterCandidates(rows, s.cfg)
	if len(candidates) == 0 {
		logger.Warn("leaderboard scan produced no candidates",
			logger.Pair("rows", len(rows)),
			logger.Pair("min_account_value", s.cfg.MinAccountValue))
		return nil
	}

	if err := s.registry.RegisterFromLeaderboard(ctx, candidates); err != nil {
		return fmt.Errorf("register candidates: %w", err)
	}
	run.AddProcessed(len(candidates))

	s.snapshotPnl(ctx, run, candidates)

	logger.Info("discovery scan finished",
		logger.Pair("rows", len(rows)),
		logger.Pair("registered", len(candidates)))
	return nil
}

// filterCandidates 按账户价值与日成交量过滤，按账户价值降序取前 N
func filterCandidates(rows []types.TraderPerformance, cfg conf.DiscoveryConfig) []types.TraderPerformance {
	kept := make([]types.TraderPerformance, 0, len(rows))
	for _, row := range rows {
		if row.EthAddress == "" {
			continue
		}
		if row.AccountValue < cfg.MinAccountValue {
			continue
		}
		if row.Day.Vlm < cfg.MinDayVolume {
			continue
		}
		kept = append(kept, row)
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].AccountValue != kept[j].AccountValue {
			return kept[i].AccountValue > kept[j].AccountValue
		}
		return kept[i].EthAddress < kept[j].EthAddress
	})
	if len(kept) > cfg.TopN {
		kept = kept[:cfg.TopN]
	}
	return kept
}

// snapshotPnl 为近期没有样本的交易员拉一次账户历史并缓存末点。
// 单个交易员失败不影响其他人。
func (s *DiscoveryService) snapshotPnl(ctx context.Context, run *RunRecord, candidates []types.TraderPerformance) {
	now := time.Now()
	for _, c := range candidates {
		tr, err := s.registry.GetOrCreate(ctx, c.EthAddress, 0)
		if err != nil {
			run.AddFailed(1)
			logger.Warnf("resolve trader %s failed: %v", c.EthAddress, err)
			continue
		}

		// 24 小时内已有样本就不再打 portfolio 接口
		latest, err := s.samples.LatestBefore(ctx, tr.Id, now)
		if err != nil {
			run.AddFailed(1)
			logger.Warnf("lookup pnl sample for %s failed: %v", c.EthAddress, err)
			continue
		}
		if latest != nil && now.Sub(latest.AsOf) < 24*time.Hour {
			continue
		}

		history, err := s.client.PortfolioHistory(ctx, c.EthAddress)
		if err != nil {
			run.AddFailed(1)
			logger.Warnf("fetch portfolio for %s failed: %v", c.EthAddress, err)
			continue
		}
		sample, err := latestSample(tr, history)
		if err != nil {
			run.AddFailed(1)
			logger.Warnf("parse portfolio for %s failed: %v", c.EthAddress, err)
			continue
		}
		if sample == nil {
			continue
		}
		if err := s.samples.UpsertBatch(ctx, []*entity.HistoricalPnlSample{sample}); err != nil {
			run.AddFailed(1)
			logger.Warnf("save pnl sample for %s failed: %v", c.EthAddress, err)
		}
	}
}

// latestSample 取 allTime 序列的末点作为当前样本；序列为空返回 nil
func latestSample(tr *entity.Trader, history *types.PortfolioHistory) (*entity.HistoricalPnlSample, error) {
	points := history.AllTime.AccountValue
	if len(points) == 0 {
		return nil, nil
	}
	last := points[len(points)-1]

	av, err := decimal.NewFromString(last.Value)
	if err != nil {
		return nil, fmt.Errorf("bad accountValue %q: %w", last.Value, err)
	}

	pnl := decimal.Zero
	if n := len(history.AllTime.Pnl); n > 0 {
		pnl, err = decimal.NewFromString(history.AllTime.Pnl[n-1].Value)
		if err != nil {
			return nil, fmt.Errorf("bad pnl %q: %w", history.AllTime.Pnl[n-1].Value, err)
		}
	}

	return &entity.HistoricalPnlSample{
		TraderId:     tr.Id,
		Address:      tr.Address,
		AsOf:         last.Time,
		AccountValue: av,
		Pnl:          pnl,
	}, nil
}
