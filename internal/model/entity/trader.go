package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trader 被跟踪的交易员。身份键 (address, sub_account) 创建后不可变；
// 永不删除，只做软停用。
type Trader struct {
	Id         uint   `gorm:"primaryKey;column:id" json:"id"`
	Address    string `gorm:"size:100;not null;uniqueIndex:uk_trader_identity,priority:1;column:address;comment:钱包地址" json:"address"`
	SubAccount int    `gorm:"not null;default:0;uniqueIndex:uk_trader_identity,priority:2;column:sub_account;comment:子账户编号" json:"sub_account"`
	ParentSub  *int   `gorm:"column:parent_sub;comment:父级子账户" json:"parent_sub,omitempty"`

	DisplayName string `gorm:"size:100;column:display_name;comment:昵称" json:"display_name"`
	Active      bool   `gorm:"not null;default:true;column:active;comment:是否在跟踪" json:"active"`

	FirstSeenAt time.Time  `gorm:"column:first_seen_at;comment:首次发现时间" json:"first_seen_at"`
	LastSeenAt  *time.Time `gorm:"column:last_seen_at;comment:最近一次成交时间" json:"last_seen_at"`

	// 终身聚合，只增不减，与成交写入同一事务更新
	TotalFills    int64           `gorm:"not null;default:0;column:total_fills;comment:累计成交笔数" json:"total_fills"`
	TotalVolume   decimal.Decimal `gorm:"type:decimal(38,10);not null;default:0;column:total_volume;comment:累计成交额" json:"total_volume"`
	RealizedPnl   decimal.Decimal `gorm:"type:decimal(38,10);not null;default:0;column:realized_pnl;comment:累计已实现盈亏" json:"realized_pnl"`
	NetPnl        decimal.Decimal `gorm:"type:decimal(38,10);not null;default:0;column:net_pnl;comment:累计净盈亏(扣费)" json:"net_pnl"`
	LeaderboardAV float64         `gorm:"column:leaderboard_av;comment:发现时的账户价值" json:"leaderboard_av"`

	// 增量拉取的断点，毫秒时间戳
	FillWatermark int64 `gorm:"not null;default:0;column:fill_watermark;comment:成交拉取水位" json:"fill_watermark"`

	UpdatedAt time.Time `gorm:"autoUpdateTime;column:updated_at" json:"updated_at"`
	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at" json:"created_at"`
}

// TableName 可以显式指定表名
func (Trader) TableName() string {
	return "trader"
}
