package repository

import (
	"context"
	"errors"

	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/entity"
	"gorm.io/gorm"
)

// PRRepository reads the purchase request aggregate. Multi-table writes go
// through service-level transactions; the read side lives here.
type PRRepository struct {
	db *gorm.DB
}

func NewPRRepository(db *gorm.DB) *PRRepository {
	return &PRRepository{db: db}
}

// FindAll lists PRs newest first with the full aggregate preloaded.
func (r *PRRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseRequest, int64, error) {
	var prs []entity.PurchaseRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PurchaseRequest{})

	if status := filters["status"]; status != "" {
		query = query.Where("purchase_requests.status = ?", status)
	}
	if createdBy := filters["created_by"]; createdBy != "" {
		query = query.Where("purchase_requests.created_by = ?", createdBy)
	}
	if search := filters["search"]; search != "" {
		query = query.
			Joins("LEFT JOIN users AS clients ON clients.id = purchase_requests.client_id").
			Where("purchase_requests.id ILIKE ? OR clients.name ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("DeliveryNote").
		Preload("Items").
		Preload("Items.Product").
		Order("purchase_requests.created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&prs).Error

	return prs, total, err
}

// FindByID loads one PR with its delivery note and priced line items.
func (r *PRRepository) FindByID(ctx context.Context, id string) (*entity.PurchaseRequest, error) {
	var pr entity.PurchaseRequest
	err := r.db.WithContext(ctx).
		Preload("DeliveryNote").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Product").
		Where("id = ?", id).
		First(&pr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &pr, nil
}

// StatusCount is one bucket of the dashboard tally.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// CountByStatus tallies PRs per status in a single GROUP BY pass.
func (r *PRRepository) CountByStatus(ctx context.Context) ([]StatusCount, int64, error) {
	var counts []StatusCount
	err := r.db.WithContext(ctx).
		Model(&entity.PurchaseRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, 0, err
	}

	var total int64
	for _, c := range counts {
		total += c.Count
	}
	return counts, total, nil
}

// FindUnsynced returns IDs of PRs not yet pushed to SAP, oldest first.
func (r *PRRepository) FindUnsynced(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&entity.PurchaseRequest{}).
		Where("sap_sync_status = ?", false).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}
