package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"perpwatch/conf"
	"perpwatch/internal/dao"
	"perpwatch/internal/model"
	"perpwatch/internal/model/entity"
	"perpwatch/pkg/logger"
)

// DetectorService 对新入库的成交做规则检测，命中则落一条 pending 事件。
// (fill_id, event_type) 唯一，重放不会产生重复事件；检测失败只打日志，
// 绝不阻断成交入库。
type DetectorService struct {
	fills  dao.FillDao
	events dao.FillEventDao
	cfg    conf.EventConfig

	largeFillNotional decimal.Decimal
	positionSwingSize decimal.Decimal
}

// NewDetectorService 构造时就把阈值解析成定点小数，配置错误尽早暴露
func NewDetectorService(fills dao.FillDao, events dao.FillEventDao, cfg conf.EventConfig) (*DetectorService, error) {
	largeFill, err := decimal.NewFromString(cfg.LargeFillNotional)
	if err != nil {
		return nil, fmt.Errorf("parse large-fill-notional %q: %w", cfg.LargeFillNotional, err)
	}
	swing, err := decimal.NewFromString(cfg.PositionSwingSize)
	if err != nil {
		return nil, fmt.Errorf("parse position-swing-size %q: %w", cfg.PositionSwingSize, err)
	}
	return &DetectorService{
		fills:             fills,
		events:            events,
		cfg:               cfg,
		largeFillNotional: largeFill,
		positionSwingSize: swing,
	}, nil
}

// EvaluateBatch 对一批刚插入的成交逐条跑所有规则。
// Id 为 0 的成交是重放时撞上的重复行，直接跳过。
func (s *DetectorService) EvaluateBatch(ctx context.Context, tr *entity.Trader, fills []*entity.Fill) {
	for _, f := range fills {
		if f.Id == 0 {
			continue
		}
		s.checkLargeFill(ctx, tr, f)
		s.checkPositionSwing(ctx, tr, f)
		s.checkVolumeSpike(ctx, tr, f)
	}
}

// checkLargeFill 名义价值达到阈值即命中
func (s *DetectorService) checkLargeFill(ctx context.Context, tr *entity.Trader, f *entity.Fill) {
	notional := f.Notional()
	if notional.LessThan(s.largeFillNotional) {
		return
	}
	s.emit(ctx, tr, f, entity.EventTypeLargeFill, map[string]string{
		"threshold": s.largeFillNotional.String(),
	})
}

// checkPositionSwing 回看窗口内该市场的净签名成交量，摆动超过阈值即命中。
// 买入记正、卖出记负，与 startPosition 无关，衡量的是窗口内的净变化。
func (s *DetectorService) checkPositionSwing(ctx context.Context, tr *entity.Trader, f *entity.Fill) {
	since := f.EventTime.Add(-s.cfg.PositionLookback)
	recent, err := s.fills.ListByTraderCoinSince(ctx, tr.Id, f.Coin, since)
	if err != nil {
		logger.Warnf("position swing lookup for %s %s failed: %v", tr.Address, f.Coin, err)
		return
	}

	net := decimal.Zero
	for _, r := range recent {
		if r.Side == "B" {
			net = net.Add(r.Sz)
		} else {
			net = net.Sub(r.Sz)
		}
	}
	if net.Abs().LessThan(s.positionSwingSize) {
		return
	}
	s.emit(ctx, tr, f, entity.EventTypePositionChange, map[string]string{
		"net_size":  net.String(),
		"lookback":  s.cfg.PositionLookback.String(),
		"threshold": s.positionSwingSize.String(),
	})
}

// checkVolumeSpike 观察窗口内成交笔数相对基线窗口折算速率的倍数
func (s *DetectorService) checkVolumeSpike(ctx context.Context, tr *entity.Trader, f *entity.Fill) {
	if s.cfg.SpikeWindow <= 0 || s.cfg.SpikeBaselineWindow <= s.cfg.SpikeWindow {
		return
	}

	recent, err := s.fills.CountByTraderSince(ctx, tr.Id, f.EventTime.Add(-s.cfg.SpikeWindow))
	if err != nil {
		logger.Warnf("volume spike lookup for %s failed: %v", tr.Address, err)
		return
	}
	baseline, err := s.fills.CountByTraderSince(ctx, tr.Id, f.EventTime.Add(-s.cfg.SpikeBaselineWindow))
	if err != nil {
		logger.Warnf("volume spike baseline lookup for %s failed: %v", tr.Address, err)
		return
	}

	// 基线速率折算到观察窗口；基线太薄时不触发，避免冷启动误报
	expected := float64(baseline) * (float64(s.cfg.SpikeWindow) / float64(s.cfg.SpikeBaselineWindow))
	if expected < 1 {
		return
	}
	if float64(recent) < expected*s.cfg.SpikeMultiplier {
		return
	}
	s.emit(ctx, tr, f, entity.EventTypeVolumeSpike, map[string]string{
		"recent_count":   fmt.Sprintf("%d", recent),
		"baseline_count": fmt.Sprintf("%d", baseline),
		"multiplier":     fmt.Sprintf("%.2f", s.cfg.SpikeMultiplier),
	})
}

// emit 组装 payload 并落库；重复命中由唯一键吞掉
func (s *DetectorService) emit(ctx context.Context, tr *entity.Trader, f *entity.Fill, eventType string, detail map[string]string) {
	payload := model.EventPayload{
		EventId:    uuid.NewString(),
		EventType:  eventType,
		Address:    tr.Address,
		SubAccount: tr.SubAccount,
		Coin:       f.Coin,
		Side:       f.Side,
		Px:         f.Px.String(),
		Sz:         f.Sz.String(),
		Notional:   f.Notional().String(),
		OccurredAt: f.EventTime,
		Detail:     detail,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Errorf("marshal event payload for fill %d: %v", f.Id, err)
		return
	}

	event := &entity.FillEvent{
		EventId:    payload.EventId,
		FillId:     f.Id,
		TraderId:   tr.Id,
		Address:    tr.Address,
		EventType:  eventType,
		Payload:    raw,
		Status:     entity.EventStatusPending,
		OccurredAt: f.EventTime,
	}
	created, err := s.events.CreateIgnoreDup(ctx, event)
	if err != nil {
		logger.Errorf("create %s event for fill %d: %v", eventType, f.Id, err)
		return
	}
	if created {
		logger.Info("event detected",
			logger.Pair("type", eventType),
			logger.Pair("address", tr.Address),
			logger.Pair("coin", f.Coin),
			logger.Pair("event_id", payload.EventId))
	}
}
