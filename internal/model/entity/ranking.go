package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RankingSnapshot 某个评估时刻、某个窗口长度下一名交易员的排名快照。
// (trader_id, window_end, window_hours) 唯一；同键重算覆盖旧值，历史键只增不改。
// 当前排行榜 = 每个窗口长度下 as_of 最新的一批快照。
type RankingSnapshot struct {
	Id       uint64 `gorm:"primaryKey;column:id" json:"id"`
	TraderId uint   `gorm:"not null;uniqueIndex:uk_rank_key,priority:1;column:trader_id" json:"trader_id"`
	Address  string `gorm:"size:100;not null;index;column:address;comment:冗余地址" json:"address"`

	WindowHours int       `gorm:"not null;uniqueIndex:uk_rank_key,priority:3;column:window_hours;comment:窗口长度(小时)" json:"window_hours"`
	WindowStart time.Time `gorm:"not null;column:window_start" json:"window_start"`
	WindowEnd   time.Time `gorm:"not null;uniqueIndex:uk_rank_key,priority:2;index:idx_rank_asof,priority:1;column:window_end;comment:窗口终点=评估时刻" json:"window_end"`

	Rank  int     `gorm:"not null;column:rank;comment:名次,1起" json:"rank"`
	Score float64 `gorm:"not null;column:score;comment:复合得分[0,1]" json:"score"`

	FillCount   int64           `gorm:"not null;column:fill_count;comment:窗口内成交笔数" json:"fill_count"`
	Turnover    decimal.Decimal `gorm:"type:decimal(38,10);not null;column:turnover;comment:窗口内成交额" json:"turnover"`
	RealizedPnl decimal.Decimal `gorm:"type:decimal(38,10);not null;column:realized_pnl;comment:窗口内已实现盈亏" json:"realized_pnl"`
	NetPnl      decimal.Decimal `gorm:"type:decimal(38,10);not null;column:net_pnl;comment:窗口内净盈亏" json:"net_pnl"`
	WinRate     float64         `gorm:"not null;default:0;column:win_rate;comment:窗口内胜率" json:"win_rate"`

	FetchedAt time.Time `gorm:"autoCreateTime;column:fetched_at;comment:计算落库时间" json:"fetched_at"`
}

// TableName 可以显式指定表名
func (RankingSnapshot) TableName() string {
	return "ranking_snapshot"
}
