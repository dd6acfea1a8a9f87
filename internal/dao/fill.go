package dao

import (
	"context"
	"time"

	"perpwatch/internal/model/entity"
)

type FillDao interface {
	// 某交易员在 [start, end] 内的成交，按时间升序
	ListByTraderWindow(ctx context.Context, traderId uint, start, end time.Time) ([]*entity.Fill, error)
	// 某交易员某市场自 since 起的成交，按时间升序，头寸摆动检测用
	ListByTraderCoinSince(ctx context.Context, traderId uint, coin string, since time.Time) ([]*entity.Fill, error)
	// 某交易员自 since 起的成交笔数，频率尖峰检测用
	CountByTraderSince(ctx context.Context, traderId uint, since time.Time) (int64, error)
	// 窗口内有成交的交易员ID列表
	TradersWithFills(ctx context.Context, start, end time.Time) ([]uint, error)
}
