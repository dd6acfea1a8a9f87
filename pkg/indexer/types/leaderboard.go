package types

// 排行榜原始响应

type LeaderboardRow struct {
	EthAddress         string          `json:"ethAddress"`
	AccountValue       string          `json:"accountValue"`
	WindowPerformances [][]interface{} `json:"windowPerformances"`
	Prize              int64           `json:"prize"`
	DisplayName        string          `json:"displayName"`
}

type RawLeaderboardResponse struct {
	LeaderboardRows []LeaderboardRow `json:"leaderboardRows"`
}

// TraderPerformance 解析后的一行排行榜数据
type TraderPerformance struct {
	EthAddress   string
	DisplayName  string
	AccountValue float64
	Day          PeriodPerformance
	Week         PeriodPerformance
	Month        PeriodPerformance
	AllTime      PeriodPerformance
}

type PeriodPerformance struct {
	Pnl float64 `json:"pnl"`
	Roi float64 `json:"roi"`
	Vlm float64 `json:"vlm"`
}
