package types

import "time"

// 账户资产/盈亏历史（type: "portfolio"）

type DataPoint struct {
	Time  time.Time
	Value string // 十进制字符串，保持定点精度
}

type PeriodData struct {
	AccountValue []DataPoint
	Pnl          []DataPoint
	Vlm          string
}

// PortfolioHistory 按周期聚合的账户历史
type PortfolioHistory struct {
	Day     PeriodData
	Week    PeriodData
	Month   PeriodData
	AllTime PeriodData
}
