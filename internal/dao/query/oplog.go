package query

import (
	"context"

	"gorm.io/gorm"

	"perpwatch/internal/model/entity"
)

type opLogDao struct {
	db *gorm.DB
}

// NewOpLogDao 创建 DAO
func NewOpLogDao(db *gorm.DB) *opLogDao {
	return &opLogDao{db: db}
}

func (dao *opLogDao) Create(ctx context.Context, entry *entity.OperationLogEntry) error {
	return dao.db.WithContext(ctx).Create(entry).Error
}

func (dao *opLogDao) Finish(ctx context.Context, entry *entity.OperationLogEntry) error {
	return dao.db.WithContext(ctx).
		Model(&entity.OperationLogEntry{}).
		Where("id = ?", entry.Id).
		Updates(map[string]interface{}{
			"status":          entry.Status,
			"finished_at":     entry.FinishedAt,
			"items_processed": entry.ItemsProcessed,
			"items_failed":    entry.ItemsFailed,
			"error_text":      entry.ErrorText,
			"context":         entry.Context,
		}).Error
}

func (dao *opLogDao) Recent(ctx context.Context, opType string, limit int) ([]*entity.OperationLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []*entity.OperationLogEntry
	q := dao.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if opType != "" {
		q = q.Where("op_type = ?", opType)
	}
	err := q.Find(&entries).Error
	return entries, err
}
