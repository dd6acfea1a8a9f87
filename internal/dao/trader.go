package dao

import (
	"context"

	"perpwatch/internal/model"
	"perpwatch/internal/model/entity"
)

type TraderDao interface {
	// 按身份键插入或更新，并发upsert收敛到一行
	UpsertBatch(ctx context.Context, traders []*entity.Trader) error
	// 按身份键取出，没有则创建
	GetOrCreate(ctx context.Context, address string, subAccount int) (*entity.Trader, error)
	// 按身份键查询
	GetByIdentity(ctx context.Context, address string, subAccount int) (*entity.Trader, error)
	// 所有在跟踪的交易员
	ListActive(ctx context.Context) ([]*entity.Trader, error)
	// 软停用
	Deactivate(ctx context.Context, traderId uint) error
	// 一个事务内：写入一批成交（幂等键冲突静默忽略）、推进水位、
	// 更新最近成交时间与终身聚合。返回真正新插入的条数。
	ApplyIngestBatch(ctx context.Context, traderId uint, fills []*entity.Fill, delta model.FillDelta, watermark int64) (int64, error)
	// 交易员详情
	GetDetail(ctx context.Context, address string, subAccount int) (*model.TraderDetail, error)
}
