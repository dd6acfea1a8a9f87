package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpwatch/conf"
	"perpwatch/internal/model/entity"
	"perpwatch/pkg/indexer/rest"
	"perpwatch/pkg/indexer/types"
)

func TestConvertFills(t *testing.T) {
	tr := &entity.Trader{Id: 1, Address: "0xaaa"}
	base := time.Now().Truncate(time.Millisecond)

	records := []*types.FillRecord{
		{Coin: "BTC", Px: "60000", Sz: "0.5", Side: "B", Time: base.UnixMilli(), Tid: 1, Fee: "3", ClosedPnl: "100.5"},
		{Coin: "BTC", Px: "61000", Sz: "1", Side: "A", Time: base.Add(time.Minute).UnixMilli(), Tid: 2, Fee: "6.1"},
	}

	fills, delta, err := convertFills(tr, records)
	require.NoError(t, err)
	require.Len(t, fills, 2)

	// 定点小数累加：0.5*60000 + 1*61000
	assert.Equal(t, "91000", delta.Volume.String())
	assert.Equal(t, "9.1", delta.Fees.String())
	assert.EqualValues(t, 2, delta.FillCount)
	assert.True(t, delta.LastEventAt.Equal(base.Add(time.Minute)))

	// closedPnl 缺失与零是两回事
	assert.Equal(t, "100.5", delta.RealizedPnl.String())
	require.NotNil(t, fills[0].ClosedPnl)
	assert.Nil(t, fills[1].ClosedPnl)

	assert.EqualValues(t, 1, fills[0].TraderId)
	assert.Equal(t, "0xaaa", fills[0].Address)
}

func TestConvertFillsRejectsBadDecimal(t *testing.T) {
	tr := &entity.Trader{Id: 1}
	_, _, err := convertFills(tr, []*types.FillRecord{
		{Coin: "BTC", Px: "not-a-price", Sz: "1", Time: time.Now().UnixMilli(), Tid: 1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad px")
}

func newTestIngester(t *testing.T, srvURL string, traders *fakeTraderDao) *IngesterService {
	t.Helper()

	client, err := rest.NewIndexerClient(conf.IndexerConfig{
		BaseURL:        srvURL,
		LeaderboardURL: srvURL,
		PageLimit:      2,
		MinInterval:    time.Millisecond,
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
	})
	require.NoError(t, err)

	if traders.fillStore == nil {
		traders.fillStore = &fakeFillDao{}
	}
	detector, err := NewDetectorService(traders.fillStore, &fakeEventDao{}, conf.EventConfig{
		LargeFillNotional: "99999999",
		PositionSwingSize: "99999999",
		PositionLookback:  time.Hour,
	})
	require.NoError(t, err)

	return NewIngesterService(
		NewRegistryService(traders),
		traders,
		traders.fillStore,
		&fakePeriodMetricsDao{},
		client,
		detector,
		conf.WatchConfig{Workers: 2, LookbackOnInit: time.Hour},
	)
}

func TestIngestTraderPaginatesAndAdvancesWatermark(t *testing.T) {
	now := time.Now()
	t1 := now.Add(-50 * time.Minute).UnixMilli()
	t2 := now.Add(-40 * time.Minute).UnixMilli()
	t3 := now.Add(-30 * time.Minute).UnixMilli()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			StartTime int64 `json:"startTime"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		// 第一页满页触发翻页，第二页不满页
		if req.StartTime <= t1 {
			_ = json.NewEncoder(w).Encode([]map[string]interface{}{
				{"coin": "BTC", "px": "60000", "sz": "1", "side": "B", "time": t1, "tid": 1},
				{"coin": "BTC", "px": "60100", "sz": "1", "side": "B", "time": t2, "tid": 2},
			})
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"coin": "BTC", "px": "60200", "sz": "1", "side": "A", "time": t3, "tid": 3},
		})
	}))
	defer srv.Close()

	traders := &fakeTraderDao{}
	tr, err := traders.GetOrCreate(context.Background(), "0xaaa", 0)
	require.NoError(t, err)
	tr.FillWatermark = now.Add(-time.Hour).UnixMilli()

	ing := newTestIngester(t, srv.URL, traders)

	inserted, err := ing.IngestTrader(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	// 水位推进到本轮终点附近，聚合只算插入成功的
	assert.GreaterOrEqual(t, tr.FillWatermark, t3)
	assert.EqualValues(t, 3, tr.TotalFills)
	assert.Equal(t, "180300", tr.TotalVolume.String())
	require.NotNil(t, tr.LastSeenAt)

	// 重放：同样的数据不会二次入账
	tr.FillWatermark = now.Add(-time.Hour).UnixMilli()
	inserted, err = ing.IngestTrader(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.EqualValues(t, 3, tr.TotalFills)
	assert.Equal(t, "180300", tr.TotalVolume.String())
}

func TestIngestTraderDedupsSameExternalId(t *testing.T) {
	now := time.Now()
	t1 := now.Add(-30 * time.Minute).UnixMilli()

	// 同一外部成交 ID 在一页里出现两次
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			StartTime int64 `json:"startTime"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.StartTime > t1 {
			_ = json.NewEncoder(w).Encode([]map[string]interface{}{})
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"coin": "BTC", "px": "90000", "sz": "0.2", "side": "B", "time": t1, "tid": 7},
			{"coin": "BTC", "px": "90000", "sz": "0.2", "side": "B", "time": t1, "tid": 7},
		})
	}))
	defer srv.Close()

	traders := &fakeTraderDao{}
	tr, err := traders.GetOrCreate(context.Background(), "0xaaa", 0)
	require.NoError(t, err)
	tr.FillWatermark = now.Add(-time.Hour).UnixMilli()

	ing := newTestIngester(t, srv.URL, traders)

	inserted, err := ing.IngestTrader(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// 只落一行，聚合只入账一次
	rows, err := traders.fillStore.ListByTraderWindow(context.Background(), tr.Id, now.Add(-time.Hour), now)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 7, rows[0].Tid)
	assert.EqualValues(t, 1, tr.TotalFills)
	assert.Equal(t, "18000", tr.TotalVolume.String())
}

func TestRunOnceIsolatesTraderFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			User string `json:"user"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		if req.User == "0xbad" {
			http.Error(w, "no such user", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"coin": "ETH", "px": "3000", "sz": "2", "side": "B", "time": time.Now().Add(-time.Minute).UnixMilli(), "tid": 10},
		})
	}))
	defer srv.Close()

	traders := &fakeTraderDao{}
	_, err := traders.GetOrCreate(context.Background(), "0xbad", 0)
	require.NoError(t, err)
	good, err := traders.GetOrCreate(context.Background(), "0xgood", 0)
	require.NoError(t, err)

	ing := newTestIngester(t, srv.URL, traders)

	run := newTestRun()
	require.NoError(t, ing.RunOnce(context.Background(), run))

	// 坏地址计入失败，好地址照常入库
	assert.EqualValues(t, 1, run.failed)
	assert.EqualValues(t, 1, run.processed)
	assert.EqualValues(t, 1, good.TotalFills)
}

func TestBuildPeriodMetrics(t *testing.T) {
	tr := &entity.Trader{Id: 1, Address: "0xaaa"}
	now := time.Now()

	win := dec("25")
	loss := dec("-10")
	fills := []*entity.Fill{
		{TraderId: 1, Coin: "BTC", Px: dec("100"), Sz: dec("2"), Fee: dec("0.2"), ClosedPnl: &win, EventTime: now},
		{TraderId: 1, Coin: "ETH", Px: dec("50"), Sz: dec("4"), Fee: dec("0.1"), ClosedPnl: &loss, EventTime: now},
		{TraderId: 1, Coin: "BTC", Px: dec("110"), Sz: dec("1"), Fee: dec("0.1"), EventTime: now},
	}

	m := buildPeriodMetrics(tr, fills)

	assert.EqualValues(t, 3, m.FillCount)
	assert.Equal(t, 2, m.DistinctMarkets)
	assert.Equal(t, "510", m.Volume.String()) // 200+200+110
	assert.Equal(t, "15", m.RealizedPnl.String())
	assert.Equal(t, "0.4", m.Fees.String())
	assert.Equal(t, "4", m.MaxFillSize.String())
	// 两笔平仓一胜一负
	assert.InDelta(t, 0.5, m.WinRate, 1e-9)
}
