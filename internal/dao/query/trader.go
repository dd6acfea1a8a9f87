package query

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"perpwatch/internal/model"
	"perpwatch/internal/model/entity"
)

type traderDao struct {
	db *gorm.DB
}

// NewTraderDao 创建 DAO
func NewTraderDao(db *gorm.DB) *traderDao {
	return &traderDao{db: db}
}

// 批量 Upsert，身份键冲突时只刷新展示字段，不触碰聚合与水位
func (dao *traderDao) UpsertBatch(ctx context.Context, traders []*entity.Trader) error {
	if len(traders) == 0 {
		return nil
	}
	return dao.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}, {Name: "sub_account"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "leaderboard_av", "active", "updated_at"}),
		}).
		CreateInBatches(traders, 60).Error
}

func (dao *traderDao) GetOrCreate(ctx context.Context, address string, subAccount int) (*entity.Trader, error) {
	var trader entity.Trader
	err := dao.db.WithContext(ctx).
		Where("address = ? AND sub_account = ?", address, subAccount).
		First(&trader).Error
	if err == nil {
		return &trader, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	trader = entity.Trader{
		Address:     address,
		SubAccount:  subAccount,
		Active:      true,
		FirstSeenAt: time.Now(),
	}
	// 并发创建同一身份时靠唯一索引收敛，冲突则忽略后重查
	err = dao.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}, {Name: "sub_account"}},
			DoNothing: true,
		}).
		Create(&trader).Error
	if err != nil {
		return nil, err
	}
	err = dao.db.WithContext(ctx).
		Where("address = ? AND sub_account = ?", address, subAccount).
		First(&trader).Error
	return &trader, err
}

func (dao *traderDao) GetByIdentity(ctx context.Context, address string, subAccount int) (*entity.Trader, error) {
	var trader entity.Trader
	err := dao.db.WithContext(ctx).
		Where("address = ? AND sub_account = ?", address, subAccount).
		First(&trader).Error
	if err != nil {
		return nil, err
	}
	return &trader, nil
}

func (dao *traderDao) ListActive(ctx context.Context) ([]*entity.Trader, error) {
	var traders []*entity.Trader
	err := dao.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&traders).Error
	return traders, err
}

func (dao *traderDao) Deactivate(ctx context.Context, traderId uint) error {
	return dao.db.WithContext(ctx).
		Model(&entity.Trader{}).
		Where("id = ?", traderId).
		Update("active", false).Error
}

// ApplyIngestBatch 单个事务：逐条写入成交（幂等键冲突静默跳过），
// 聚合增量只按真正落库的成交累计，最后推进水位与最近成交时间。
// 水位只前进不回退，重放安全。
func (dao *traderDao) ApplyIngestBatch(ctx context.Context, traderId uint, fills []*entity.Fill, delta model.FillDelta, watermark int64) (int64, error) {
	var inserted int64

	err := dao.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fill := range fills {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "tid"}, {Name: "trader_id"}},
				DoNothing: true,
			}).Create(fill)
			if res.Error != nil {
				return res.Error
			}
			inserted += res.RowsAffected
		}

		updates := map[string]interface{}{
			"fill_watermark": gorm.Expr("GREATEST(fill_watermark, ?)", watermark),
		}
		// 重放时整批都是重复，聚合保持不变
		if inserted > 0 {
			updates["total_fills"] = gorm.Expr("total_fills + ?", delta.FillCount)
			updates["total_volume"] = gorm.Expr("total_volume + ?", delta.Volume)
			updates["realized_pnl"] = gorm.Expr("realized_pnl + ?", delta.RealizedPnl)
			updates["net_pnl"] = gorm.Expr("net_pnl + ?", delta.RealizedPnl.Sub(delta.Fees))
			if !delta.LastEventAt.IsZero() {
				updates["last_seen_at"] = delta.LastEventAt
			}
		}

		return tx.Model(&entity.Trader{}).
			Where("id = ?", traderId).
			Updates(updates).Error
	})

	return inserted, err
}

func (dao *traderDao) GetDetail(ctx context.Context, address string, subAccount int) (*model.TraderDetail, error) {
	trader, err := dao.GetByIdentity(ctx, address, subAccount)
	if err != nil {
		return nil, err
	}
	return &model.TraderDetail{
		Id:          trader.Id,
		Address:     trader.Address,
		SubAccount:  trader.SubAccount,
		DisplayName: trader.DisplayName,
		Active:      trader.Active,
		FirstSeenAt: trader.FirstSeenAt,
		LastSeenAt:  trader.LastSeenAt,
		TotalFills:  trader.TotalFills,
		TotalVolume: trader.TotalVolume,
		RealizedPnl: trader.RealizedPnl,
		NetPnl:      trader.NetPnl,
	}, nil
}
