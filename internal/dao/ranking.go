package dao

import (
	"context"
	"time"

	"perpwatch/internal/model"
	"perpwatch/internal/model/entity"
)

type RankingDao interface {
	// 批量写入一个 (window_end, window_hours) 批次的快照，同键重算覆盖
	UpsertSnapshots(ctx context.Context, snapshots []*entity.RankingSnapshot) error
	// 某窗口长度下最新一次评估的排行榜
	CurrentRanking(ctx context.Context, windowHours int, limit int) ([]*model.TopTraderRow, error)
	// 某窗口长度下最新的评估时刻
	LatestAsOf(ctx context.Context, windowHours int) (time.Time, error)
}
