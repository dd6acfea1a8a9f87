package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"perpwatch/conf"
	"perpwatch/internal/dao"
	"perpwatch/internal/model"
	"perpwatch/internal/model/entity"
	"perpwatch/pkg/indexer/rest"
	"perpwatch/pkg/indexer/types"
	"perpwatch/pkg/logger"
)

// IngesterService 按交易员水位增量拉取成交并幂等入库。
// 单个交易员的失败被隔离：记数、打日志，不中断其他交易员。
type IngesterService struct {
	registry *RegistryService
	traders  dao.TraderDao
	fills    dao.FillDao
	metrics  dao.PeriodMetricsDao
	client   *rest.IndexerClient
	detector *DetectorService
	cfg      conf.WatchConfig
}

func NewIngesterService(
	registry *RegistryService,
	traders dao.TraderDao,
	fills dao.FillDao,
	metrics dao.PeriodMetricsDao,
	client *rest.IndexerClient,
	detector *DetectorService,
	cfg conf.WatchConfig,
) *IngesterService {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.LookbackOnInit <= 0 {
		cfg.LookbackOnInit = 24 * time.Hour
	}
	return &IngesterService{
		registry: registry,
		traders:  traders,
		fills:    fills,
		metrics:  metrics,
		client:   client,
		detector: detector,
		cfg:      cfg,
	}
}

// RunOnce 跑一轮 fill-watch。交易员分发给固定数量的 worker，
// 所有 worker 共享 client 内部的限速闸门。
func (s *IngesterService) RunOnce(ctx context.Context, run *RunRecord) error {
	traders, err := s.registry.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active traders: %w", err)
	}
	if len(traders) == 0 {
		return nil
	}

	jobs := make(chan *entity.Trader)
	var wg sync.WaitGroup

	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tr := range jobs {
				inserted, err := s.IngestTrader(ctx, tr)
				if err != nil {
					run.AddFailed(1)
					logger.Errorf("ingest trader %s#%d failed: %v", tr.Address, tr.SubAccount, err)
					continue
				}
				run.AddProcessed(inserted)
			}
		}()
	}

	for _, tr := range traders {
		select {
		case jobs <- tr:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()
	return nil
}

// IngestTrader 从水位向前翻页拉取一个交易员的成交。
// 每页在一个事务内入库并推进水位，重放安全；新入库的成交交给事件检测。
func (s *IngesterService) IngestTrader(ctx context.Context, tr *entity.Trader) (int, error) {
	cursor := tr.FillWatermark
	if cursor == 0 {
		cursor = time.Now().Add(-s.cfg.LookbackOnInit).UnixMilli()
	}
	end := time.Now().UnixMilli()

	total := 0
	for {
		page, err := s.client.UserFillsPage(ctx, tr.Address, cursor, end)
		if err != nil {
			return total, err
		}

		if len(page.Fills) > 0 {
			fills, delta, err := convertFills(tr, page.Fills)
			if err != nil {
				// 合同违约：数值解析失败必须响亮地失败，不做静默兜底
				return total, err
			}

			inserted, err := s.traders.ApplyIngestBatch(ctx, tr.Id, fills, delta, page.Cursor)
			if err != nil {
				return total, err
			}
			total += int(inserted)

			if inserted > 0 {
				s.detector.EvaluateBatch(ctx, tr, fills)
			}
		} else {
			// 空页也推进水位，跳过无数据的时间段
			if _, err := s.traders.ApplyIngestBatch(ctx, tr.Id, nil, model.FillDelta{}, page.Cursor); err != nil {
				return total, err
			}
		}

		if !page.HasMore {
			break
		}
		cursor = page.Cursor
	}

	if total > 0 {
		if err := s.rollupDaily(ctx, tr); err != nil {
			// 周期聚合失败不影响已入库的成交
			logger.Warnf("rollup daily metrics for %s failed: %v", tr.Address, err)
		}
	}
	return total, nil
}

// convertFills 把 API 成交转成实体，严格按定点小数解析数值字段。
// 任何数值解析失败都让整批失败。
func convertFills(tr *entity.Trader, records []*types.FillRecord) ([]*entity.Fill, model.FillDelta, error) {
	fills := make([]*entity.Fill, 0, len(records))
	delta := model.FillDelta{
		Volume:      decimal.Zero,
		RealizedPnl: decimal.Zero,
		Fees:        decimal.Zero,
	}

	// 同一页里重复出现的外部成交 ID 只入账一次，保持聚合与落库行数一致
	seen := make(map[int64]struct{}, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.Tid]; dup {
			continue
		}
		seen[rec.Tid] = struct{}{}

		px, err := decimal.NewFromString(rec.Px)
		if err != nil {
			return nil, delta, fmt.Errorf("fill %d: bad px %q: %w", rec.Tid, rec.Px, err)
		}
		sz, err := decimal.NewFromString(rec.Sz)
		if err != nil {
			return nil, delta, fmt.Errorf("fill %d: bad sz %q: %w", rec.Tid, rec.Sz, err)
		}
		fee := decimal.Zero
		if rec.Fee != "" {
			fee, err = decimal.NewFromString(rec.Fee)
			if err != nil {
				return nil, delta, fmt.Errorf("fill %d: bad fee %q: %w", rec.Tid, rec.Fee, err)
			}
		}
		startPos := decimal.Zero
		if rec.StartPosition != "" {
			startPos, err = decimal.NewFromString(rec.StartPosition)
			if err != nil {
				return nil, delta, fmt.Errorf("fill %d: bad startPosition %q: %w", rec.Tid, rec.StartPosition, err)
			}
		}

		fill := &entity.Fill{
			Tid:         rec.Tid,
			TraderId:    tr.Id,
			Address:     tr.Address,
			Coin:        rec.Coin,
			Side:        rec.Side,
			Dir:         rec.Dir,
			Px:          px,
			Sz:          sz,
			Fee:         fee,
			StartPosSzi: startPos,
			Hash:        rec.Hash,
			Oid:         rec.Oid,
			EventTime:   time.UnixMilli(rec.Time),
		}

		// closedPnl 允许缺失，缺失与零是两回事
		if rec.ClosedPnl != "" {
			pnl, err := decimal.NewFromString(rec.ClosedPnl)
			if err != nil {
				return nil, delta, fmt.Errorf("fill %d: bad closedPnl %q: %w", rec.Tid, rec.ClosedPnl, err)
			}
			fill.ClosedPnl = &pnl
			delta.RealizedPnl = delta.RealizedPnl.Add(pnl)
		}

		delta.FillCount++
		delta.Volume = delta.Volume.Add(px.Mul(sz))
		delta.Fees = delta.Fees.Add(fee)
		if fill.EventTime.After(delta.LastEventAt) {
			delta.LastEventAt = fill.EventTime
		}

		fills = append(fills, fill)
	}
	return fills, delta, nil
}

// rollupDaily 重算当天的周期聚合，同键覆盖
func (s *IngesterService) rollupDaily(ctx context.Context, tr *entity.Trader) error {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	fills, err := s.fills.ListByTraderWindow(ctx, tr.Id, dayStart, now)
	if err != nil {
		return err
	}
	if len(fills) == 0 {
		return nil
	}

	m := buildPeriodMetrics(tr, fills)
	m.PeriodType = entity.PeriodTypeDaily
	m.PeriodStart = dayStart
	m.PeriodEnd = dayEnd

	return s.metrics.UpsertBatch(ctx, []*entity.TraderPeriodMetrics{m})
}

// buildPeriodMetrics 从一批成交汇总周期指标
func buildPeriodMetrics(tr *entity.Trader, fills []*entity.Fill) *entity.TraderPeriodMetrics {
	m := &entity.TraderPeriodMetrics{
		TraderId:    tr.Id,
		Address:     tr.Address,
		Volume:      decimal.Zero,
		AvgFillSize: decimal.Zero,
		MaxFillSize: decimal.Zero,
		RealizedPnl: decimal.Zero,
		Fees:        decimal.Zero,
	}

	markets := make(map[string]struct{})
	sizeSum := decimal.Zero
	var closed, wins int64

	for _, f := range fills {
		m.FillCount++
		markets[f.Coin] = struct{}{}
		m.Volume = m.Volume.Add(f.Notional())
		m.Fees = m.Fees.Add(f.Fee)
		sizeSum = sizeSum.Add(f.Sz)
		if f.Sz.GreaterThan(m.MaxFillSize) {
			m.MaxFillSize = f.Sz
		}
		if f.ClosedPnl != nil {
			m.RealizedPnl = m.RealizedPnl.Add(*f.ClosedPnl)
			if !f.ClosedPnl.IsZero() {
				closed++
				if f.ClosedPnl.IsPositive() {
					wins++
				}
			}
		}
	}

	m.DistinctMarkets = len(markets)
	if m.FillCount > 0 {
		m.AvgFillSize = sizeSum.Div(decimal.NewFromInt(m.FillCount))
	}
	if closed > 0 {
		m.WinRate = float64(wins) / float64(closed)
	}
	return m
}
