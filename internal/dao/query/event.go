package query

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"perpwatch/internal/model/entity"
)

type fillEventDao struct {
	db *gorm.DB
}

// NewFillEventDao 创建 DAO
func NewFillEventDao(db *gorm.DB) *fillEventDao {
	return &fillEventDao{db: db}
}

// CreateIgnoreDup 同一成交同一事件类型只产生一条事件
func (dao *fillEventDao) CreateIgnoreDup(ctx context.Context, event *entity.FillEvent) (bool, error) {
	res := dao.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fill_id"}, {Name: "event_type"}},
			DoNothing: true,
		}).
		Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DuePending 按创建顺序出队；退避期内（next_attempt 未到）的不出队
func (dao *fillEventDao) DuePending(ctx context.Context, now time.Time, limit int) ([]*entity.FillEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []*entity.FillEvent
	err := dao.db.WithContext(ctx).
		Where("status = ?", entity.EventStatusPending).
		Where("next_attempt IS NULL OR next_attempt <= ?", now).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (dao *fillEventDao) MarkPublished(ctx context.Context, id uint64, at time.Time) error {
	return dao.db.WithContext(ctx).
		Model(&entity.FillEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       entity.EventStatusPublished,
			"published_at": at,
			"last_error":   "",
		}).Error
}

func (dao *fillEventDao) MarkFailedAttempt(ctx context.Context, id uint64, errText string, nextAttempt time.Time, terminal bool) error {
	if len(errText) > 500 {
		errText = errText[:500]
	}
	updates := map[string]interface{}{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": errText,
	}
	if terminal {
		updates["status"] = entity.EventStatusFailed
	} else {
		updates["status"] = entity.EventStatusPending
		updates["next_attempt"] = nextAttempt
	}
	return dao.db.WithContext(ctx).
		Model(&entity.FillEvent{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (dao *fillEventDao) RecentPublished(ctx context.Context, limit int) ([]*entity.FillEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []*entity.FillEvent
	err := dao.db.WithContext(ctx).
		Where("status = ?", entity.EventStatusPublished).
		Order("published_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
