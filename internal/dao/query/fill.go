package query

import (
	"context"
	"time"

	"gorm.io/gorm"

	"perpwatch/internal/model/entity"
)

type fillDao struct {
	db *gorm.DB
}

// NewFillDao 创建 DAO
func NewFillDao(db *gorm.DB) *fillDao {
	return &fillDao{db: db}
}

func (dao *fillDao) ListByTraderWindow(ctx context.Context, traderId uint, start, end time.Time) ([]*entity.Fill, error) {
	var fills []*entity.Fill
	err := dao.db.WithContext(ctx).
		Where("trader_id = ? AND event_time >= ? AND event_time <= ?", traderId, start, end).
		Order("event_time ASC, tid ASC").
		Find(&fills).Error
	return fills, err
}

func (dao *fillDao) ListByTraderCoinSince(ctx context.Context, traderId uint, coin string, since time.Time) ([]*entity.Fill, error) {
	var fills []*entity.Fill
	err := dao.db.WithContext(ctx).
		Where("trader_id = ? AND coin = ? AND event_time >= ?", traderId, coin, since).
		Order("event_time ASC, tid ASC").
		Find(&fills).Error
	return fills, err
}

func (dao *fillDao) CountByTraderSince(ctx context.Context, traderId uint, since time.Time) (int64, error) {
	var count int64
	err := dao.db.WithContext(ctx).
		Model(&entity.Fill{}).
		Where("trader_id = ? AND event_time >= ?", traderId, since).
		Count(&count).Error
	return count, err
}

func (dao *fillDao) TradersWithFills(ctx context.Context, start, end time.Time) ([]uint, error) {
	var ids []uint
	err := dao.db.WithContext(ctx).
		Model(&entity.Fill{}).
		Where("event_time >= ? AND event_time <= ?", start, end).
		Distinct().
		Pluck("trader_id", &ids).Error
	return ids, err
}
