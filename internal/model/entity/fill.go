package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fill 一条不可变的成交记录。(tid, trader_id) 是幂等键，
// 重复写入静默忽略。address 为冗余字段，只做查询加速，以 trader 表为准。
type Fill struct {
	Id       uint64 `gorm:"primaryKey;column:id" json:"id"`
	Tid      int64  `gorm:"not null;uniqueIndex:uk_fill_tid_trader,priority:1;column:tid;comment:外部成交ID" json:"tid"`
	TraderId uint   `gorm:"not null;uniqueIndex:uk_fill_tid_trader,priority:2;index:idx_fill_trader_time,priority:1;column:trader_id" json:"trader_id"`
	Address  string `gorm:"size:100;not null;index;column:address;comment:冗余地址" json:"address"`

	Coin string `gorm:"size:32;not null;index;column:coin;comment:交易市场" json:"coin"`
	Side string `gorm:"size:4;not null;column:side;comment:B买/A卖" json:"side"`
	Dir  string `gorm:"size:24;column:dir;comment:开平方向" json:"dir"`

	Px          decimal.Decimal  `gorm:"type:decimal(28,10);not null;column:px;comment:成交价" json:"px"`
	Sz          decimal.Decimal  `gorm:"type:decimal(28,10);not null;column:sz;comment:成交数量" json:"sz"`
	Fee         decimal.Decimal  `gorm:"type:decimal(28,10);not null;default:0;column:fee;comment:手续费" json:"fee"`
	ClosedPnl   *decimal.Decimal `gorm:"type:decimal(28,10);column:closed_pnl;comment:已实现盈亏,可能缺失" json:"closed_pnl,omitempty"`
	StartPosSzi decimal.Decimal  `gorm:"type:decimal(28,10);not null;default:0;column:start_pos_szi;comment:成交前净头寸" json:"start_pos_szi"`

	Hash string `gorm:"size:80;column:hash;comment:链上哈希" json:"hash"`
	Oid  int64  `gorm:"column:oid;comment:订单ID" json:"oid"`

	EventTime  time.Time `gorm:"not null;index:idx_fill_trader_time,priority:2;column:event_time;comment:成交发生时间" json:"event_time"`
	IngestedAt time.Time `gorm:"autoCreateTime;column:ingested_at;comment:入库时间" json:"ingested_at"`
}

// TableName 可以显式指定表名
func (Fill) TableName() string {
	return "fill"
}

// Notional 名义价值 = 价格 × 数量
func (f *Fill) Notional() decimal.Decimal {
	return f.Px.Mul(f.Sz)
}
