package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpwatch/internal/model/entity"
	"perpwatch/internal/service"
)

// ctxOpLogDao 按行拷贝存储，且像 mysql 驱动一样尊重上下文：
// 上下文已过期的写入直接失败
type ctxOpLogDao struct {
	entries []entity.OperationLogEntry
}

func (f *ctxOpLogDao) Create(ctx context.Context, entry *entity.OperationLogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry.Id = uint64(len(f.entries) + 1)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *ctxOpLogDao) Finish(ctx context.Context, entry *entity.OperationLogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i := range f.entries {
		if f.entries[i].Id == entry.Id {
			f.entries[i] = *entry
			return nil
		}
	}
	return errors.New("entry not found")
}

func (f *ctxOpLogDao) Recent(_ context.Context, opType string, limit int) ([]*entity.OperationLogEntry, error) {
	var out []*entity.OperationLogEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].OpType == opType {
			out = append(out, &f.entries[i])
		}
	}
	return out, nil
}

func newTestScheduler(store *ctxOpLogDao) *Scheduler {
	return NewScheduler(nil, nil, nil, nil, service.NewOpLogService(store))
}

func TestRunOnceTimedOutRunStillClosesEntry(t *testing.T) {
	store := &ctxOpLogDao{}
	s := newTestScheduler(store)

	// 整轮耗尽超时，收尾写入不能再用本轮的上下文
	s.runOnce(entity.OpTypeFillWatch, 20*time.Millisecond, func(ctx context.Context, _ *service.RunRecord) error {
		<-ctx.Done()
		return ctx.Err()
	})

	require.Len(t, store.entries, 1)
	entry := store.entries[0]
	assert.Equal(t, entity.OpStatusFailed, entry.Status)
	require.NotNil(t, entry.FinishedAt)
	assert.Contains(t, entry.ErrorText, "deadline")
}

func TestRunOnceSuccessClosesEntry(t *testing.T) {
	store := &ctxOpLogDao{}
	s := newTestScheduler(store)

	s.runOnce(entity.OpTypeRanking, time.Second, func(_ context.Context, run *service.RunRecord) error {
		run.AddProcessed(3)
		return nil
	})

	require.Len(t, store.entries, 1)
	assert.Equal(t, entity.OpStatusSuccess, store.entries[0].Status)
	assert.Equal(t, 3, store.entries[0].ItemsProcessed)
}

func TestRunOncePanicClosesEntryAsFailed(t *testing.T) {
	store := &ctxOpLogDao{}
	s := newTestScheduler(store)

	s.runOnce(entity.OpTypeDiscovery, time.Second, func(_ context.Context, _ *service.RunRecord) error {
		panic("boom")
	})

	require.Len(t, store.entries, 1)
	assert.Equal(t, entity.OpStatusFailed, store.entries[0].Status)
	assert.Contains(t, store.entries[0].ErrorText, "boom")
}
