package service

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"perpwatch/internal/dao"
	"perpwatch/internal/model/entity"
	"perpwatch/pkg/logger"
)

// OpLogService 操作日志：每次调度运行一条记录。
// 只写不读；落库失败只打日志，绝不影响业务流程。
type OpLogService struct {
	dao dao.OpLogDao
}

func NewOpLogService(dao dao.OpLogDao) *OpLogService {
	return &OpLogService{dao: dao}
}

// RunRecord 一次运行的句柄，计数器可被多个 worker 并发累加
type RunRecord struct {
	svc       *OpLogService
	entry     *entity.OperationLogEntry
	processed int64
	failed    int64
	context   map[string]interface{}
}

// Begin 开启一条 running 记录
func (s *OpLogService) Begin(ctx context.Context, opType string) *RunRecord {
	entry := &entity.OperationLogEntry{
		OpType:    opType,
		Status:    entity.OpStatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.dao.Create(ctx, entry); err != nil {
		logger.Errorf("oplog: create %s entry failed: %v", opType, err)
	}
	return &RunRecord{svc: s, entry: entry}
}

func (r *RunRecord) AddProcessed(n int) {
	atomic.AddInt64(&r.processed, int64(n))
}

func (r *RunRecord) AddFailed(n int) {
	atomic.AddInt64(&r.failed, int64(n))
}

// SetContext 附加结构化上下文，收尾时序列化进记录
func (r *RunRecord) SetContext(kv map[string]interface{}) {
	r.context = kv
}

// finishWriteTimeout 收尾写入自带的超时，与本轮运行的超时无关
const finishWriteTimeout = 5 * time.Second

// Finish 收尾。err 非空则 failed；有失败计数则 partial；否则 success。
// 运行超时或被取消的轮次也必须落库，所以写入用独立的上下文。
func (r *RunRecord) Finish(runErr error) {
	now := time.Now()
	r.entry.FinishedAt = &now
	r.entry.ItemsProcessed = int(atomic.LoadInt64(&r.processed))
	r.entry.ItemsFailed = int(atomic.LoadInt64(&r.failed))

	switch {
	case runErr != nil:
		r.entry.Status = entity.OpStatusFailed
		r.entry.ErrorText = truncateErr(runErr.Error())
	case r.entry.ItemsFailed > 0:
		r.entry.Status = entity.OpStatusPartial
	default:
		r.entry.Status = entity.OpStatusSuccess
	}

	if r.context != nil {
		if data, err := json.Marshal(r.context); err == nil {
			r.entry.Context = data
		}
	}

	if r.entry.Id == 0 {
		// 开启时就没写进去，不再尝试
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), finishWriteTimeout)
	defer cancel()
	if err := r.svc.dao.Finish(ctx, r.entry); err != nil {
		logger.Errorf("oplog: finish %s entry failed: %v", r.entry.OpType, err)
	}
}

func truncateErr(s string) string {
	const max = 1000
	if len(s) > max {
		return s[:max]
	}
	return s
}
