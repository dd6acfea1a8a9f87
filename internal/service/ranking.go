package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"perpwatch/conf"
	"perpwatch/internal/dao"
	"perpwatch/internal/model/entity"
	"perpwatch/pkg/logger"
)

// RankingService 按配置的各个滑动窗口评估活跃交易员，产出排名快照。
// 同一 (window_end, window_hours) 重算产生完全相同的结果。
type RankingService struct {
	registry *RegistryService
	fills    dao.FillDao
	rankings dao.RankingDao
	cfg      conf.RankingConfig
}

func NewRankingService(registry *RegistryService, fills dao.FillDao, rankings dao.RankingDao, cfg conf.RankingConfig) *RankingService {
	return &RankingService{
		registry: registry,
		fills:    fills,
		rankings: rankings,
		cfg:      cfg,
	}
}

// windowMetrics 单个交易员在一个窗口内的原始指标
type windowMetrics struct {
	trader      *entity.Trader
	fillCount   int64
	turnover    decimal.Decimal
	realizedPnl decimal.Decimal
	netPnl      decimal.Decimal
	winRate     float64
	hasPnl      bool // 窗口内是否存在任何带 closedPnl 的成交
}

// RunOnce 对所有配置窗口各评估一次，窗口之间并行
func (s *RankingService) RunOnce(ctx context.Context, run *RunRecord) error {
	traders, err := s.registry.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active traders: %w", err)
	}
	if len(traders) == 0 {
		return nil
	}

	asOf := time.Now().Truncate(time.Second)

	g, gctx := errgroup.WithContext(ctx)
	for _, window := range s.cfg.Windows {
		window := window
		g.Go(func() error {
			n, err := s.evaluateWindow(gctx, traders, window, asOf)
			if err != nil {
				run.AddFailed(1)
				return fmt.Errorf("window %s: %w", window, err)
			}
			run.AddProcessed(n)
			return nil
		})
	}
	return g.Wait()
}

// evaluateWindow 评估一个窗口：算指标、归一化打分、排名、落快照
func (s *RankingService) evaluateWindow(ctx context.Context, traders []*entity.Trader, window time.Duration, asOf time.Time) (int, error) {
	start := asOf.Add(-window)

	metrics := make([]*windowMetrics, 0, len(traders))
	for _, tr := range traders {
		fills, err := s.fills.ListByTraderWindow(ctx, tr.Id, start, asOf)
		if err != nil {
			return 0, fmt.Errorf("load fills for %s: %w", tr.Address, err)
		}
		m := computeWindowMetrics(tr, fills)
		// 窗口内无成交的交易员不进榜
		if m.fillCount == 0 {
			continue
		}
		metrics = append(metrics, m)
	}
	if len(metrics) == 0 {
		return 0, nil
	}

	snapshots := scoreAndRank(metrics, s.cfg, window, start, asOf)
	if err := s.rankings.UpsertSnapshots(ctx, snapshots); err != nil {
		return 0, fmt.Errorf("upsert snapshots: %w", err)
	}

	logger.Info("ranking window evaluated",
		logger.Pair("window", window.String()),
		logger.Pair("as_of", asOf),
		logger.Pair("ranked", len(snapshots)))
	return len(snapshots), nil
}

// computeWindowMetrics 汇总一个交易员窗口内的原始指标。
// 胜率只看带 closedPnl 且非零的成交；全是开仓时胜率记 0。
func computeWindowMetrics(tr *entity.Trader, fills []*entity.Fill) *windowMetrics {
	m := &windowMetrics{
		trader:      tr,
		turnover:    decimal.Zero,
		realizedPnl: decimal.Zero,
		netPnl:      decimal.Zero,
	}

	fees := decimal.Zero
	var closed, wins int64
	for _, f := range fills {
		m.fillCount++
		m.turnover = m.turnover.Add(f.Notional())
		fees = fees.Add(f.Fee)
		if f.ClosedPnl != nil {
			m.hasPnl = true
			m.realizedPnl = m.realizedPnl.Add(*f.ClosedPnl)
			if !f.ClosedPnl.IsZero() {
				closed++
				if f.ClosedPnl.IsPositive() {
					wins++
				}
			}
		}
	}

	m.netPnl = m.realizedPnl.Sub(fees)
	if closed > 0 {
		m.winRate = float64(wins) / float64(closed)
	}
	return m
}

// scoreAndRank 归一化各指标、加权求和并按分数排名。
// 并列时先比窗口成交额再比地址，保证排名确定。
func scoreAndRank(metrics []*windowMetrics, cfg conf.RankingConfig, window time.Duration, start, asOf time.Time) []*entity.RankingSnapshot {
	// PnL 做 min-max 归一化；全体相同的时候每人都拿满分
	minPnl, maxPnl := pnlRange(metrics, cfg.TreatMissingPnlAsZero)
	pnlSpan := maxPnl - minPnl

	maxTurnover := decimal.Zero
	for _, m := range metrics {
		if m.turnover.GreaterThan(maxTurnover) {
			maxTurnover = m.turnover
		}
	}

	activityCap := cfg.ActivityCap
	if activityCap <= 0 {
		activityCap = 1
	}

	snapshots := make([]*entity.RankingSnapshot, 0, len(metrics))
	for _, m := range metrics {
		var pnlScore float64
		if usable, v := pnlValue(m, cfg.TreatMissingPnlAsZero); usable {
			if pnlSpan > 0 {
				pnlScore = (v - minPnl) / pnlSpan
			} else {
				pnlScore = 1
			}
		}

		var turnoverScore float64
		if maxTurnover.IsPositive() {
			turnoverScore, _ = m.turnover.Div(maxTurnover).Float64()
		}

		activityScore := float64(m.fillCount) / float64(activityCap)
		if activityScore > 1 {
			activityScore = 1
		}

		score := cfg.WeightPnl*pnlScore +
			cfg.WeightTurnover*turnoverScore +
			cfg.WeightWinRate*m.winRate +
			cfg.WeightActivity*activityScore

		snapshots = append(snapshots, &entity.RankingSnapshot{
			TraderId:    m.trader.Id,
			Address:     m.trader.Address,
			WindowHours: int(window / time.Hour),
			WindowStart: start,
			WindowEnd:   asOf,
			Score:       score,
			FillCount:   m.fillCount,
			Turnover:    m.turnover,
			RealizedPnl: m.realizedPnl,
			NetPnl:      m.netPnl,
			WinRate:     m.winRate,
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		a, b := snapshots[i], snapshots[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Turnover.Equal(b.Turnover) {
			return a.Turnover.GreaterThan(b.Turnover)
		}
		return a.Address < b.Address
	})
	for i, sn := range snapshots {
		sn.Rank = i + 1
	}
	return snapshots
}

// pnlValue 返回该交易员参与 PnL 分量的取值。
// 无 closedPnl 时，按配置当作 0 计入或整体剔除该分量。
func pnlValue(m *windowMetrics, missingAsZero bool) (bool, float64) {
	if !m.hasPnl && !missingAsZero {
		return false, 0
	}
	v, _ := m.netPnl.Float64()
	return true, v
}

func pnlRange(metrics []*windowMetrics, missingAsZero bool) (float64, float64) {
	first := true
	var minV, maxV float64
	for _, m := range metrics {
		usable, v := pnlValue(m, missingAsZero)
		if !usable {
			continue
		}
		if first {
			minV, maxV = v, v
			first = false
			continue
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return minV, maxV
}
