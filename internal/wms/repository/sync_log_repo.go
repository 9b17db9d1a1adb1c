package repository

import (
	"context"
	"errors"
	"time"

	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/entity"
	"gorm.io/gorm"
)

// SyncLogRepository reads the append-only SAP sync audit trail. Writes
// happen inside sync-engine transactions; there is no update path at all.
type SyncLogRepository struct {
	db *gorm.DB
}

func NewSyncLogRepository(db *gorm.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// LogFilter narrows list and export queries.
type LogFilter struct {
	PRID      string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
}

// FindAll lists sync attempts newest first.
func (r *SyncLogRepository) FindAll(ctx context.Context, page, pageSize int, filter LogFilter) ([]entity.SapSyncLog, int64, error) {
	var logs []entity.SapSyncLog
	var total int64

	query := r.applyFilter(r.db.WithContext(ctx).Model(&entity.SapSyncLog{}), filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&logs).Error

	return logs, total, err
}

// FindAllForExport returns every matching row without pagination.
func (r *SyncLogRepository) FindAllForExport(ctx context.Context, filter LogFilter) ([]entity.SapSyncLog, error) {
	var logs []entity.SapSyncLog
	err := r.applyFilter(r.db.WithContext(ctx).Model(&entity.SapSyncLog{}), filter).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}

func (r *SyncLogRepository) applyFilter(query *gorm.DB, filter LogFilter) *gorm.DB {
	if filter.PRID != "" {
		query = query.Where("pr_id = ?", filter.PRID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}
	return query
}

// FindByID loads one sync attempt.
func (r *SyncLogRepository) FindByID(ctx context.Context, id string) (*entity.SapSyncLog, error) {
	var log entity.SapSyncLog
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

// FindByPRID lists all attempts for one PR, newest first.
func (r *SyncLogRepository) FindByPRID(ctx context.Context, prID string) ([]entity.SapSyncLog, error) {
	var logs []entity.SapSyncLog
	err := r.db.WithContext(ctx).
		Where("pr_id = ?", prID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
