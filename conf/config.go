package conf

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// 配置加载（数据库、采集参数等）

type Db struct {
	DbName   string `yaml:"dbname"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	FileName   string `yaml:"file-name"`
	TimeFormat string `yaml:"time-format"`
	MaxSize    int    `yaml:"max-size"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAge     int    `yaml:"max-age"`
	Compress   bool   `yaml:"compress"`
	LocalTime  bool   `yaml:"local-time"`
	Console    bool   `yaml:"console"`
}

// RedisConfig is used to configure redis
type RedisConfig struct {
	Addr         string `yaml:"address"`
	Password     string `yaml:"password"`
	Db           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool-size"`
	MinIdleConns int    `yaml:"min-idle-conns"`
	IdleTimeout  int    `yaml:"idle-timeout"`
}

type KafkaConfig struct {
	Broker string `yaml:"broker"`
	Topic  string `yaml:"topic"`
}

// IndexerConfig 指向交易所公共 indexer API
type IndexerConfig struct {
	BaseURL        string        `yaml:"base-url"`
	LeaderboardURL string        `yaml:"leaderboard-url"`
	PageLimit      int           `yaml:"page-limit"`       // 单页最大记录数
	MinInterval    time.Duration `yaml:"min-interval"`     // 两次请求之间的最小间隔
	MaxRetries     int           `yaml:"max-retries"`      // 429/网络错误的最大重试次数
	RetryBaseDelay time.Duration `yaml:"retry-base-delay"` // 退避基数
}

// WatchConfig 成交抓取循环
type WatchConfig struct {
	Interval       time.Duration `yaml:"interval"`        // 抓取周期
	RunTimeout     time.Duration `yaml:"run-timeout"`     // 单轮超时时间
	Workers        int           `yaml:"workers"`         // 并发 worker 数
	LookbackOnInit time.Duration `yaml:"lookback-init"`   // 新地址首次回溯多久
	TrackedTraders []string      `yaml:"tracked-traders"` // 种子地址，发现循环会补充
}

// RankingConfig 排行榜计算
type RankingConfig struct {
	Interval   time.Duration   `yaml:"interval"`
	RunTimeout time.Duration   `yaml:"run-timeout"`
	Windows    []time.Duration `yaml:"windows"` // 滑动窗口长度，如 24h、168h

	// 各归一化指标的权重，相加应为 1
	WeightPnl      float64 `yaml:"weight-pnl"`
	WeightTurnover float64 `yaml:"weight-turnover"`
	WeightWinRate  float64 `yaml:"weight-win-rate"`
	WeightActivity float64 `yaml:"weight-activity"`

	// 活跃度归一化的固定上限（窗口内成交笔数）
	ActivityCap int `yaml:"activity-cap"`

	// 成交缺失 closedPnl 时按 0 计入 PnL 分量；false 则从 PnL 分量中剔除
	TreatMissingPnlAsZero bool `yaml:"treat-missing-pnl-as-zero"`
}

// DiscoveryConfig 候选发现循环（低频重扫排行榜）
type DiscoveryConfig struct {
	Interval        time.Duration `yaml:"interval"`
	RunTimeout      time.Duration `yaml:"run-timeout"`
	MinAccountValue float64       `yaml:"min-account-value"` // 账户价值下限
	MinDayVolume    float64       `yaml:"min-day-volume"`    // 日成交量下限
	TopN            int           `yaml:"top-n"`
}

// EventConfig 事件检测与发布
type EventConfig struct {
	LargeFillNotional   string        `yaml:"large-fill-notional"`   // 大单名义价值阈值（十进制字符串）
	PositionSwingSize   string        `yaml:"position-swing-size"`   // 净头寸摆动阈值
	PositionLookback    time.Duration `yaml:"position-lookback"`     // 头寸摆动回看窗口
	SpikeWindow         time.Duration `yaml:"spike-window"`          // 频率尖峰观察窗口
	SpikeBaselineWindow time.Duration `yaml:"spike-baseline-window"` // 频率基线窗口
	SpikeMultiplier     float64       `yaml:"spike-multiplier"`      // 超出基线多少倍才算尖峰
	PublishMaxAttempts  int           `yaml:"publish-max-attempts"`  // 发布最大尝试次数
	PublishBaseDelay    time.Duration `yaml:"publish-base-delay"`    // 发布重试退避基数
	PublishBatch        int           `yaml:"publish-batch"`         // 单轮出队数量
	PublishInterval     time.Duration `yaml:"publish-interval"`      // 发布循环周期
}

type Config struct {
	AppName      string `yaml:"app_name"`
	Listen       string `yaml:"listen"`
	Mode         string `yaml:"mode"`
	MaxPingCount int    `yaml:"max-ping-count"`

	Db        `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Indexer   IndexerConfig   `yaml:"indexer"`
	Watch     WatchConfig     `yaml:"watch"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Events    EventConfig     `yaml:"events"`
}

var AppConfig Config

func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("Read config file error %w", err)
	}
	if err := yaml.Unmarshal(data, &AppConfig); err != nil {
		return fmt.Errorf("Unmarshal config yaml error: %w", err)
	}
	return nil
}
