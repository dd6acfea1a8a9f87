package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FillDelta 一批成交对交易员终身聚合的增量
type FillDelta struct {
	FillCount   int64
	Volume      decimal.Decimal
	RealizedPnl decimal.Decimal
	Fees        decimal.Decimal
	LastEventAt time.Time
}

// TraderDetail 交易员详情（终身聚合 + 最近周期指标）
type TraderDetail struct {
	Id          uint            `json:"id"`
	Address     string          `json:"address"`
	SubAccount  int             `json:"sub_account"`
	DisplayName string          `json:"display_name"`
	Active      bool            `json:"active"`
	FirstSeenAt time.Time       `json:"first_seen_at"`
	LastSeenAt  *time.Time      `json:"last_seen_at"`
	TotalFills  int64           `json:"total_fills"`
	TotalVolume decimal.Decimal `json:"total_volume"`
	RealizedPnl decimal.Decimal `json:"realized_pnl"`
	NetPnl      decimal.Decimal `json:"net_pnl"`
}

// TopTraderRow 排行读接口的一行
type TopTraderRow struct {
	Address     string          `json:"address"`
	DisplayName string          `json:"display_name"`
	Rank        int             `json:"rank"`
	Score       float64         `json:"score"`
	WindowHours int             `json:"window_hours"`
	FillCount   int64           `json:"fill_count"`
	Turnover    decimal.Decimal `json:"turnover"`
	RealizedPnl decimal.Decimal `json:"realized_pnl"`
	NetPnl      decimal.Decimal `json:"net_pnl"`
	WinRate     float64         `json:"win_rate"`
	AsOf        time.Time       `json:"as_of"`
}

// TopTradersRes 排行读接口响应
type TopTradersRes struct {
	Total int64           `json:"total"`
	List  []*TopTraderRow `json:"list"`
}
