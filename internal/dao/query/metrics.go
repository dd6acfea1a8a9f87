package query

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"perpwatch/internal/model/entity"
)

type pnlSampleDao struct {
	db *gorm.DB
}

// NewPnlSampleDao 创建 DAO
func NewPnlSampleDao(db *gorm.DB) *pnlSampleDao {
	return &pnlSampleDao{db: db}
}

func (dao *pnlSampleDao) UpsertBatch(ctx context.Context, samples []*entity.HistoricalPnlSample) error {
	if len(samples) == 0 {
		return nil
	}
	return dao.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "trader_id"}, {Name: "as_of"}},
			UpdateAll: true,
		}).
		CreateInBatches(samples, 100).Error
}

func (dao *pnlSampleDao) LatestBefore(ctx context.Context, traderId uint, t time.Time) (*entity.HistoricalPnlSample, error) {
	var sample entity.HistoricalPnlSample
	err := dao.db.WithContext(ctx).
		Where("trader_id = ? AND as_of <= ?", traderId, t).
		Order("as_of DESC").
		First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

type periodMetricsDao struct {
	db *gorm.DB
}

// NewPeriodMetricsDao 创建 DAO
func NewPeriodMetricsDao(db *gorm.DB) *periodMetricsDao {
	return &periodMetricsDao{db: db}
}

func (dao *periodMetricsDao) UpsertBatch(ctx context.Context, metrics []*entity.TraderPeriodMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	return dao.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "trader_id"},
				{Name: "period_start"},
				{Name: "period_end"},
				{Name: "period_type"},
			},
			UpdateAll: true,
		}).
		CreateInBatches(metrics, 100).Error
}

func (dao *periodMetricsDao) ListByTrader(ctx context.Context, traderId uint, periodType string, limit int) ([]*entity.TraderPeriodMetrics, error) {
	if limit <= 0 {
		limit = 30
	}
	var metrics []*entity.TraderPeriodMetrics
	err := dao.db.WithContext(ctx).
		Where("trader_id = ? AND period_type = ?", traderId, periodType).
		Order("period_start DESC").
		Limit(limit).
		Find(&metrics).Error
	return metrics, err
}
