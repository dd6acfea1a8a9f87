package dao

import (
	"context"

	"perpwatch/internal/model/entity"
)

type OpLogDao interface {
	// 开启一条 running 记录
	Create(ctx context.Context, entry *entity.OperationLogEntry) error
	// 收尾：落终态与计数器
	Finish(ctx context.Context, entry *entity.OperationLogEntry) error
	// 最近若干次运行，观测用
	Recent(ctx context.Context, opType string, limit int) ([]*entity.OperationLogEntry, error)
}
