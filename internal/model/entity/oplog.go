package entity

import (
	"time"

	"gorm.io/datatypes"
)

// 运行状态
const (
	OpStatusRunning = "running"
	OpStatusSuccess = "success"
	OpStatusFailed  = "failed"
	OpStatusPartial = "partial"
)

// 运行类型
const (
	OpTypeRanking   = "ranking"
	OpTypeFillWatch = "fill_watch"
	OpTypeDiscovery = "discovery"
	OpTypePublish   = "event_publish"
)

// OperationLogEntry 每次调度运行一行。只写不读，
// 是服务唯一的故障可见面，绝不用于控制流。
type OperationLogEntry struct {
	Id     uint64 `gorm:"primaryKey;column:id" json:"id"`
	OpType string `gorm:"size:24;not null;index:idx_oplog_type_start,priority:1;column:op_type" json:"op_type"`
	Status string `gorm:"size:12;not null;default:running;column:status" json:"status"`

	StartedAt  time.Time  `gorm:"not null;index:idx_oplog_type_start,priority:2;column:started_at" json:"started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`

	// 计数器，各循环自行解释
	ItemsProcessed int    `gorm:"not null;default:0;column:items_processed;comment:处理条数" json:"items_processed"`
	ItemsFailed    int    `gorm:"not null;default:0;column:items_failed;comment:失败条数" json:"items_failed"`
	ErrorText      string `gorm:"size:1000;column:error_text" json:"error_text"`
	Context        datatypes.JSON `gorm:"column:context;comment:结构化上下文(JSON)" json:"context"`

	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;column:updated_at" json:"updated_at"`
}

// TableName 可以显式指定表名
func (OperationLogEntry) TableName() string {
	return "operation_log"
}
