package consts

import "time"

const (
	// RequestId 请求id名称
	RequestId = "request_id"

	// 默认redis过期时间
	RedisExrDefault = time.Hour * 24

	DateLayout   = "2006-01-02"
	TimeLayout   = "2006-01-02 15:04:05"
	TimeLayoutMs = "2006-01-02 15:04:05.000"
)

// redis缓存键
const (
	RankingCurrentKey  = "ranking:current"   // + :窗口小时数
	TopTradersKey      = "trader:top"        // + :排序字段
	TraderDetailKey    = "trader:detail"     // + :地址
	RecentEventsKey    = "events:recent"     // 最近已发布事件
	TraderSummaryCache = "trader:summary"    // + :地址
)

// 缓存TTL
const (
	RankingCacheTTL = time.Second * 30
	TraderCacheTTL  = time.Second * 15
	EventsCacheTTL  = time.Second * 10
)
