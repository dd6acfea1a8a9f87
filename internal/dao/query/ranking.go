package query

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"perpwatch/internal/model"
	"perpwatch/internal/model/entity"
)

type rankingDao struct {
	db *gorm.DB
}

// NewRankingDao 创建 DAO
func NewRankingDao(db *gorm.DB) *rankingDao {
	return &rankingDao{db: db}
}

// UpsertSnapshots 同一 (trader, window_end, window_hours) 键重算覆盖，不产生重复行
func (dao *rankingDao) UpsertSnapshots(ctx context.Context, snapshots []*entity.RankingSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return dao.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "trader_id"},
				{Name: "window_end"},
				{Name: "window_hours"},
			},
			UpdateAll: true,
		}).
		CreateInBatches(snapshots, 100).Error
}

func (dao *rankingDao) LatestAsOf(ctx context.Context, windowHours int) (time.Time, error) {
	var asOf time.Time
	err := dao.db.WithContext(ctx).
		Model(&entity.RankingSnapshot{}).
		Where("window_hours = ?", windowHours).
		Select("MAX(window_end)").
		Scan(&asOf).Error
	return asOf, err
}

// CurrentRanking 当前排行榜 = 该窗口长度下 window_end 最新的一批快照
func (dao *rankingDao) CurrentRanking(ctx context.Context, windowHours int, limit int) ([]*model.TopTraderRow, error) {
	if limit <= 0 {
		limit = 100
	}

	asOf, err := dao.LatestAsOf(ctx, windowHours)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		return nil, nil
	}

	var rows []*model.TopTraderRow
	err = dao.db.WithContext(ctx).
		Model(&entity.RankingSnapshot{}).
		Joins("LEFT JOIN trader ON ranking_snapshot.trader_id = trader.id").
		Select("ranking_snapshot.address, trader.display_name, ranking_snapshot.rank, ranking_snapshot.score, "+
			"ranking_snapshot.window_hours, ranking_snapshot.fill_count, ranking_snapshot.turnover, "+
			"ranking_snapshot.realized_pnl, ranking_snapshot.net_pnl, ranking_snapshot.win_rate, "+
			"ranking_snapshot.window_end AS as_of").
		Where("ranking_snapshot.window_hours = ? AND ranking_snapshot.window_end = ?", windowHours, asOf).
		Order("ranking_snapshot.rank ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
