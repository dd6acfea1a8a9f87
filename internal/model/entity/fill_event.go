package entity

import (
	"time"

	"gorm.io/datatypes"
)

// 事件发布状态机：pending → published（终态），
// 或 pending → failed → pending（重试），尝试次数达到上限后终态 failed。
const (
	EventStatusPending   = "pending"
	EventStatusPublished = "published"
	EventStatusFailed    = "failed"
)

// 事件类型
const (
	EventTypeLargeFill      = "large_fill"
	EventTypePositionChange = "position_change"
	EventTypeVolumeSpike    = "volume_spike"
)

// FillEvent 由某条成交触发的一次值得关注的事件。
// EventId 是对外的稳定ID，消费端按它去重；投递语义为至少一次。
type FillEvent struct {
	Id      uint64 `gorm:"primaryKey;column:id" json:"id"`
	EventId string `gorm:"size:40;not null;uniqueIndex;column:event_id;comment:对外稳定事件ID" json:"event_id"`

	FillId   uint64 `gorm:"not null;uniqueIndex:uk_event_fill_type,priority:1;column:fill_id" json:"fill_id"`
	TraderId uint   `gorm:"not null;index;column:trader_id" json:"trader_id"`
	Address  string `gorm:"size:100;not null;index;column:address;comment:冗余地址" json:"address"`

	EventType string `gorm:"size:24;not null;uniqueIndex:uk_event_fill_type,priority:2;column:event_type" json:"event_type"`
	Payload   datatypes.JSON `gorm:"column:payload;comment:序列化后的事件内容" json:"payload"`

	Status      string     `gorm:"size:12;not null;default:pending;index:idx_event_status,priority:1;column:status" json:"status"`
	Attempts    int        `gorm:"not null;default:0;column:attempts;comment:已尝试次数" json:"attempts"`
	LastError   string     `gorm:"size:500;column:last_error" json:"last_error"`
	NextAttempt *time.Time `gorm:"index:idx_event_status,priority:2;column:next_attempt;comment:退避后可重投时间" json:"next_attempt,omitempty"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`

	OccurredAt time.Time `gorm:"not null;column:occurred_at;comment:事件发生时间(成交时间)" json:"occurred_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index;column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime;column:updated_at" json:"updated_at"`
}

// TableName 可以显式指定表名
func (FillEvent) TableName() string {
	return "fill_event"
}
