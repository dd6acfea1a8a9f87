package dao

import (
	"context"
	"time"

	"perpwatch/internal/model/entity"
)

type PnlSampleDao interface {
	// 批量写入样本，(trader_id, as_of) 冲突覆盖
	UpsertBatch(ctx context.Context, samples []*entity.HistoricalPnlSample) error
	// 某交易员在 t 之前最近的一个样本
	LatestBefore(ctx context.Context, traderId uint, t time.Time) (*entity.HistoricalPnlSample, error)
}

type PeriodMetricsDao interface {
	// 批量写入周期聚合，同键重算覆盖
	UpsertBatch(ctx context.Context, metrics []*entity.TraderPeriodMetrics) error
	// 某交易员最近的周期聚合
	ListByTrader(ctx context.Context, traderId uint, periodType string, limit int) ([]*entity.TraderPeriodMetrics, error)
}
