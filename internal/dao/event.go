package dao

import (
	"context"
	"time"

	"perpwatch/internal/model/entity"
)

type FillEventDao interface {
	// 创建事件；(fill_id, event_type) 已存在时静默忽略，返回是否新建
	CreateIgnoreDup(ctx context.Context, event *entity.FillEvent) (bool, error)
	// 到期可投递的 pending 事件，按创建顺序
	DuePending(ctx context.Context, now time.Time, limit int) ([]*entity.FillEvent, error)
	// 投递成功
	MarkPublished(ctx context.Context, id uint64, at time.Time) error
	// 投递失败：攒一次尝试、记录错误；terminal=true 时置为终态 failed，
	// 否则回到 pending 并在 nextAttempt 之前不再出队
	MarkFailedAttempt(ctx context.Context, id uint64, errText string, nextAttempt time.Time, terminal bool) error
	// 最近已发布事件，读接口用
	RecentPublished(ctx context.Context, limit int) ([]*entity.FillEvent, error)
}
