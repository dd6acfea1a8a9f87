package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"perpwatch/internal/model"
	"perpwatch/internal/model/entity"
)

// 内存版 DAO，行为与 mysql 实现的约定一致

type fakeFillDao struct {
	fills []*entity.Fill
}

func (f *fakeFillDao) ListByTraderWindow(_ context.Context, traderId uint, start, end time.Time) ([]*entity.Fill, error) {
	var out []*entity.Fill
	for _, fl := range f.fills {
		if fl.TraderId != traderId {
			continue
		}
		if fl.EventTime.Before(start) || fl.EventTime.After(end) {
			continue
		}
		out = append(out, fl)
	}
	sortFillsAsc(out)
	return out, nil
}

func (f *fakeFillDao) ListByTraderCoinSince(_ context.Context, traderId uint, coin string, since time.Time) ([]*entity.Fill, error) {
	var out []*entity.Fill
	for _, fl := range f.fills {
		if fl.TraderId != traderId || fl.Coin != coin {
			continue
		}
		if fl.EventTime.Before(since) {
			continue
		}
		out = append(out, fl)
	}
	sortFillsAsc(out)
	return out, nil
}

func (f *fakeFillDao) CountByTraderSince(_ context.Context, traderId uint, since time.Time) (int64, error) {
	var n int64
	for _, fl := range f.fills {
		if fl.TraderId == traderId && !fl.EventTime.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeFillDao) TradersWithFills(_ context.Context, start, end time.Time) ([]uint, error) {
	seen := map[uint]struct{}{}
	var out []uint
	for _, fl := range f.fills {
		if fl.EventTime.Before(start) || fl.EventTime.After(end) {
			continue
		}
		if _, ok := seen[fl.TraderId]; !ok {
			seen[fl.TraderId] = struct{}{}
			out = append(out, fl.TraderId)
		}
	}
	return out, nil
}

func sortFillsAsc(fills []*entity.Fill) {
	sort.Slice(fills, func(i, j int) bool {
		if fills[i].EventTime.Equal(fills[j].EventTime) {
			return fills[i].Tid < fills[j].Tid
		}
		return fills[i].EventTime.Before(fills[j].EventTime)
	})
}

type fakeTraderDao struct {
	traders    []*entity.Trader
	fillStore  *fakeFillDao
	nextFillId uint64
}

func (f *fakeTraderDao) UpsertBatch(_ context.Context, traders []*entity.Trader) error {
	for _, tr := range traders {
		if existing := f.find(tr.Address, tr.SubAccount); existing != nil {
			existing.DisplayName = tr.DisplayName
			existing.LeaderboardAV = tr.LeaderboardAV
			existing.Active = true
			continue
		}
		tr.Id = uint(len(f.traders) + 1)
		f.traders = append(f.traders, tr)
	}
	return nil
}

func (f *fakeTraderDao) find(address string, subAccount int) *entity.Trader {
	for _, tr := range f.traders {
		if tr.Address == address && tr.SubAccount == subAccount {
			return tr
		}
	}
	return nil
}

func (f *fakeTraderDao) GetOrCreate(_ context.Context, address string, subAccount int) (*entity.Trader, error) {
	if tr := f.find(address, subAccount); tr != nil {
		return tr, nil
	}
	tr := &entity.Trader{
		Id:          uint(len(f.traders) + 1),
		Address:     address,
		SubAccount:  subAccount,
		Active:      true,
		FirstSeenAt: time.Now(),
	}
	f.traders = append(f.traders, tr)
	return tr, nil
}

func (f *fakeTraderDao) GetByIdentity(_ context.Context, address string, subAccount int) (*entity.Trader, error) {
	if tr := f.find(address, subAccount); tr != nil {
		return tr, nil
	}
	return nil, fmt.Errorf("trader %s#%d not found", address, subAccount)
}

func (f *fakeTraderDao) ListActive(_ context.Context) ([]*entity.Trader, error) {
	var out []*entity.Trader
	for _, tr := range f.traders {
		if tr.Active {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (f *fakeTraderDao) Deactivate(_ context.Context, traderId uint) error {
	for _, tr := range f.traders {
		if tr.Id == traderId {
			tr.Active = false
			return nil
		}
	}
	return fmt.Errorf("trader %d not found", traderId)
}

// ApplyIngestBatch 模拟 mysql 实现的约定：按幂等键去重、
// 水位只前进、聚合只对真正插入的批次累加
func (f *fakeTraderDao) ApplyIngestBatch(_ context.Context, traderId uint, fills []*entity.Fill, delta model.FillDelta, watermark int64) (int64, error) {
	var tr *entity.Trader
	for _, cand := range f.traders {
		if cand.Id == traderId {
			tr = cand
			break
		}
	}
	if tr == nil {
		return 0, fmt.Errorf("trader %d not found", traderId)
	}
	if f.fillStore == nil {
		f.fillStore = &fakeFillDao{}
	}

	var inserted int64
	for _, fl := range fills {
		dup := false
		for _, existing := range f.fillStore.fills {
			if existing.Tid == fl.Tid && existing.TraderId == fl.TraderId {
				dup = true
				break
			}
		}
		if dup {
			fl.Id = 0
			continue
		}
		f.nextFillId++
		fl.Id = f.nextFillId
		f.fillStore.fills = append(f.fillStore.fills, fl)
		inserted++
	}

	if watermark > tr.FillWatermark {
		tr.FillWatermark = watermark
	}
	if inserted > 0 {
		tr.TotalFills += delta.FillCount
		tr.TotalVolume = tr.TotalVolume.Add(delta.Volume)
		tr.RealizedPnl = tr.RealizedPnl.Add(delta.RealizedPnl)
		tr.NetPnl = tr.NetPnl.Add(delta.RealizedPnl.Sub(delta.Fees))
		last := delta.LastEventAt
		tr.LastSeenAt = &last
	}
	return inserted, nil
}

func (f *fakeTraderDao) GetDetail(ctx context.Context, address string, subAccount int) (*model.TraderDetail, error) {
	tr, err := f.GetByIdentity(ctx, address, subAccount)
	if err != nil {
		return nil, err
	}
	return &model.TraderDetail{
		Id:          tr.Id,
		Address:     tr.Address,
		SubAccount:  tr.SubAccount,
		DisplayName: tr.DisplayName,
		Active:      tr.Active,
		TotalFills:  tr.TotalFills,
		TotalVolume: tr.TotalVolume,
		RealizedPnl: tr.RealizedPnl,
		NetPnl:      tr.NetPnl,
	}, nil
}

type fakePeriodMetricsDao struct {
	upserts []*entity.TraderPeriodMetrics
}

func (f *fakePeriodMetricsDao) UpsertBatch(_ context.Context, metrics []*entity.TraderPeriodMetrics) error {
	f.upserts = append(f.upserts, metrics...)
	return nil
}

func (f *fakePeriodMetricsDao) ListByTrader(_ context.Context, traderId uint, periodType string, limit int) ([]*entity.TraderPeriodMetrics, error) {
	var out []*entity.TraderPeriodMetrics
	for _, m := range f.upserts {
		if m.TraderId == traderId && m.PeriodType == periodType {
			out = append(out, m)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeEventDao struct {
	events  []*entity.FillEvent
	nextId  uint64
	markErr error
}

func (f *fakeEventDao) CreateIgnoreDup(_ context.Context, event *entity.FillEvent) (bool, error) {
	for _, ev := range f.events {
		if ev.FillId == event.FillId && ev.EventType == event.EventType {
			return false, nil
		}
	}
	f.nextId++
	event.Id = f.nextId
	event.CreatedAt = time.Now()
	f.events = append(f.events, event)
	return true, nil
}

func (f *fakeEventDao) DuePending(_ context.Context, now time.Time, limit int) ([]*entity.FillEvent, error) {
	var out []*entity.FillEvent
	for _, ev := range f.events {
		if ev.Status != entity.EventStatusPending {
			continue
		}
		if ev.NextAttempt != nil && ev.NextAttempt.After(now) {
			continue
		}
		out = append(out, ev)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeEventDao) MarkPublished(_ context.Context, id uint64, at time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	for _, ev := range f.events {
		if ev.Id == id {
			ev.Status = entity.EventStatusPublished
			ev.PublishedAt = &at
			return nil
		}
	}
	return fmt.Errorf("event %d not found", id)
}

func (f *fakeEventDao) MarkFailedAttempt(_ context.Context, id uint64, errText string, nextAttempt time.Time, terminal bool) error {
	for _, ev := range f.events {
		if ev.Id == id {
			ev.Attempts++
			ev.LastError = errText
			if terminal {
				ev.Status = entity.EventStatusFailed
				ev.NextAttempt = nil
			} else {
				ev.Status = entity.EventStatusPending
				na := nextAttempt
				ev.NextAttempt = &na
			}
			return nil
		}
	}
	return fmt.Errorf("event %d not found", id)
}

func (f *fakeEventDao) RecentPublished(_ context.Context, limit int) ([]*entity.FillEvent, error) {
	var out []*entity.FillEvent
	for i := len(f.events) - 1; i >= 0 && len(out) < limit; i-- {
		if f.events[i].Status == entity.EventStatusPublished {
			out = append(out, f.events[i])
		}
	}
	return out, nil
}

type fakeProducer struct {
	failures int // 前多少次调用失败
	calls    int
	keys     []string
}

func (f *fakeProducer) Produce(_ context.Context, key, _ []byte) error {
	f.calls++
	if f.calls <= f.failures {
		return fmt.Errorf("broker unavailable")
	}
	f.keys = append(f.keys, string(key))
	return nil
}

func (f *fakeProducer) Close() {}

type fakeOpLogDao struct {
	entries []*entity.OperationLogEntry
}

func (f *fakeOpLogDao) Create(_ context.Context, entry *entity.OperationLogEntry) error {
	entry.Id = uint64(len(f.entries) + 1)
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeOpLogDao) Finish(_ context.Context, entry *entity.OperationLogEntry) error {
	for i, e := range f.entries {
		if e.Id == entry.Id {
			f.entries[i] = entry
			return nil
		}
	}
	return fmt.Errorf("entry %d not found", entry.Id)
}

func (f *fakeOpLogDao) Recent(_ context.Context, opType string, limit int) ([]*entity.OperationLogEntry, error) {
	var out []*entity.OperationLogEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].OpType == opType {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

type fakeRankingDao struct {
	snapshots []*entity.RankingSnapshot
}

func (f *fakeRankingDao) UpsertSnapshots(_ context.Context, snapshots []*entity.RankingSnapshot) error {
	for _, snap := range snapshots {
		replaced := false
		for i, old := range f.snapshots {
			if old.TraderId == snap.TraderId && old.WindowEnd.Equal(snap.WindowEnd) && old.WindowHours == snap.WindowHours {
				f.snapshots[i] = snap
				replaced = true
				break
			}
		}
		if !replaced {
			f.snapshots = append(f.snapshots, snap)
		}
	}
	return nil
}

func (f *fakeRankingDao) LatestAsOf(_ context.Context, windowHours int) (time.Time, error) {
	var latest time.Time
	for _, snap := range f.snapshots {
		if snap.WindowHours == windowHours && snap.WindowEnd.After(latest) {
			latest = snap.WindowEnd
		}
	}
	return latest, nil
}

func (f *fakeRankingDao) CurrentRanking(ctx context.Context, windowHours int, limit int) ([]*model.TopTraderRow, error) {
	asOf, _ := f.LatestAsOf(ctx, windowHours)
	if asOf.IsZero() {
		return nil, nil
	}
	var rows []*model.TopTraderRow
	for _, snap := range f.snapshots {
		if snap.WindowHours != windowHours || !snap.WindowEnd.Equal(asOf) {
			continue
		}
		rows = append(rows, &model.TopTraderRow{
			Address:     snap.Address,
			Rank:        snap.Rank,
			Score:       snap.Score,
			WindowHours: snap.WindowHours,
			FillCount:   snap.FillCount,
			Turnover:    snap.Turnover,
			RealizedPnl: snap.RealizedPnl,
			NetPnl:      snap.NetPnl,
			WinRate:     snap.WinRate,
			AsOf:        snap.WindowEnd,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Rank < rows[j].Rank })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeRankingDao) byWindow(windowHours int) []*entity.RankingSnapshot {
	var out []*entity.RankingSnapshot
	for _, snap := range f.snapshots {
		if snap.WindowHours == windowHours {
			out = append(out, snap)
		}
	}
	return out
}
