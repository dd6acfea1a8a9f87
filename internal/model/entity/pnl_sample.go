package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoricalPnlSample 某个时刻的账户权益/盈亏快照缓存，
// 避免对 portfolio 接口的重复拉取。(trader_id, as_of) 唯一。
type HistoricalPnlSample struct {
	Id       uint64 `gorm:"primaryKey;column:id" json:"id"`
	TraderId uint   `gorm:"not null;uniqueIndex:uk_pnl_sample,priority:1;column:trader_id" json:"trader_id"`
	Address  string `gorm:"size:100;not null;index;column:address;comment:冗余地址" json:"address"`

	AsOf         time.Time       `gorm:"not null;uniqueIndex:uk_pnl_sample,priority:2;column:as_of;comment:样本时刻" json:"as_of"`
	AccountValue decimal.Decimal `gorm:"type:decimal(38,10);not null;column:account_value;comment:账户权益" json:"account_value"`
	Pnl          decimal.Decimal `gorm:"type:decimal(38,10);not null;column:pnl;comment:累计盈亏" json:"pnl"`

	FetchedAt time.Time `gorm:"autoCreateTime;column:fetched_at" json:"fetched_at"`
}

// TableName 可以显式指定表名
func (HistoricalPnlSample) TableName() string {
	return "historical_pnl_sample"
}
