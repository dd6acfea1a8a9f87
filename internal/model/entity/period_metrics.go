package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 周期类型
const (
	PeriodTypeDaily  = "daily"
	PeriodTypeWeekly = "weekly"
)

// TraderPeriodMetrics 交易员在一个固定周期内的聚合指标。
// (trader_id, period_start, period_end, period_type) 唯一，重算覆盖。
type TraderPeriodMetrics struct {
	Id       uint64 `gorm:"primaryKey;column:id" json:"id"`
	TraderId uint   `gorm:"not null;uniqueIndex:uk_period_metrics,priority:1;column:trader_id" json:"trader_id"`
	Address  string `gorm:"size:100;not null;index;column:address;comment:冗余地址" json:"address"`

	PeriodType  string    `gorm:"size:12;not null;uniqueIndex:uk_period_metrics,priority:4;column:period_type" json:"period_type"`
	PeriodStart time.Time `gorm:"not null;uniqueIndex:uk_period_metrics,priority:2;column:period_start" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null;uniqueIndex:uk_period_metrics,priority:3;column:period_end" json:"period_end"`

	FillCount       int64           `gorm:"not null;default:0;column:fill_count" json:"fill_count"`
	DistinctMarkets int             `gorm:"not null;default:0;column:distinct_markets;comment:交易过的市场数" json:"distinct_markets"`
	Volume          decimal.Decimal `gorm:"type:decimal(38,10);not null;default:0;column:volume;comment:成交额" json:"volume"`
	AvgFillSize     decimal.Decimal `gorm:"type:decimal(28,10);not null;default:0;column:avg_fill_size" json:"avg_fill_size"`
	MaxFillSize     decimal.Decimal `gorm:"type:decimal(28,10);not null;default:0;column:max_fill_size" json:"max_fill_size"`
	RealizedPnl     decimal.Decimal `gorm:"type:decimal(38,10);not null;default:0;column:realized_pnl" json:"realized_pnl"`
	Fees            decimal.Decimal `gorm:"type:decimal(38,10);not null;default:0;column:fees" json:"fees"`
	WinRate         float64         `gorm:"not null;default:0;column:win_rate;comment:盈利平仓占比" json:"win_rate"`

	UpdatedAt time.Time `gorm:"autoUpdateTime;column:updated_at" json:"updated_at"`
	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at" json:"created_at"`
}

// TableName 可以显式指定表名
func (TraderPeriodMetrics) TableName() string {
	return "trader_period_metrics"
}
