package service

import (
	"context"
	"fmt"

	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/entity"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequestService owns the purchase request aggregate. Every mutation runs
// in one transaction covering the PR, its delivery note and its line items,
// so the aggregate is never half-written.
type RequestService struct {
	db          *gorm.DB
	prRepo      *repository.PRRepository
	userRepo    *repository.UserRepository
	productRepo *repository.ProductRepository
	notifier    *NotificationService
	logger      *zap.Logger
}

func NewRequestService(db *gorm.DB, repos *repository.Repositories, notifier *NotificationService, logger *zap.Logger) *RequestService {
	return &RequestService{
		db:          db,
		prRepo:      repos.PR,
		userRepo:    repos.User,
		productRepo: repos.Product,
		notifier:    notifier,
		logger:      logger,
	}
}

// CreatePRRequest creates a full aggregate in one shot.
type CreatePRRequest struct {
	ClientID *string        `json:"client_id"`
	Note     string         `json:"note"`
	Items    []CreatePRItem `json:"items" binding:"required"`
}

type CreatePRItem struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required"`
	UnitPrice float64 `json:"unit_price"`
}

// PRResponse is the read shape: the aggregate plus resolved display names.
type PRResponse struct {
	entity.PurchaseRequest
	CreatedByName  string `json:"created_by_name,omitempty"`
	ApprovedByName string `json:"approved_by_name,omitempty"`
	ClientName     string `json:"client_name,omitempty"`
}

// Create inserts PR + delivery note + items atomically, then notifies
// supervisors after commit.
func (s *RequestService) Create(ctx context.Context, actorID string, req *CreatePRRequest) (*PRResponse, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}

	productIDs := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", ErrValidation)
		}
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	for _, id := range productIDs {
		if _, ok := products[id]; !ok {
			return nil, fmt.Errorf("%w: unknown product %s", ErrValidation, id)
		}
	}

	pr := &entity.PurchaseRequest{
		ID:        uuid.New().String(),
		CreatedBy: actorID,
		ClientID:  req.ClientID,
		Status:    entity.PRStatusPending,
	}

	note := &entity.DeliveryNote{
		ID:     uuid.New().String(),
		PRID:   pr.ID,
		Note:   req.Note,
		Status: entity.PRStatusPending,
	}

	items := make([]entity.PRItem, 0, len(req.Items))
	for _, item := range req.Items {
		unitPrice := item.UnitPrice
		if unitPrice == 0 {
			unitPrice = products[item.ProductID].UnitPrice
		}
		items = append(items, entity.PRItem{
			ID:         uuid.New().String(),
			PRID:       pr.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  unitPrice,
			TotalPrice: unitPrice * float64(item.Quantity),
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(pr).Error; err != nil {
			return err
		}
		if err := tx.Create(note).Error; err != nil {
			return err
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create purchase request: %w", err)
	}

	// Post-commit fan-out; a dispatch failure never unwinds the PR.
	message := fmt.Sprintf("New Purchase Request (#%s) was submitted and is pending approval.", pr.ID)
	if err := s.notifier.NotifyRole(ctx, entity.RoleSupervisor, message); err != nil {
		s.logger.Warn("failed to notify supervisors of new purchase request",
			zap.String("pr_id", pr.ID),
			zap.Error(err))
	}

	return s.GetByID(ctx, pr.ID)
}

// GetByID loads the aggregate with creator, approver and client names
// resolved.
func (s *RequestService) GetByID(ctx context.Context, id string) (*PRResponse, error) {
	pr, err := s.prRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	responses, err := s.enrich(ctx, []entity.PurchaseRequest{*pr})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// List returns PRs newest first. Filters accepts status, created_by and
// search (PR ID or client name).
func (s *RequestService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]PRResponse, int64, error) {
	prs, total, err := s.prRepo.FindAll(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, err
	}

	responses, err := s.enrich(ctx, prs)
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

// CountSummary is the dashboard tally: one bucket per status plus the
// overall total.
type CountSummary struct {
	Total  int64                    `json:"total"`
	Counts []repository.StatusCount `json:"counts"`
}

func (s *RequestService) CountByStatus(ctx context.Context) (*CountSummary, error) {
	counts, total, err := s.prRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &CountSummary{Total: total, Counts: counts}, nil
}

// UpdatePRRequest is a partial update: nil fields stay untouched, a non-nil
// Items slice replaces the line items wholesale.
type UpdatePRRequest struct {
	ClientID *string         `json:"client_id"`
	Note     *string         `json:"note"`
	Items    *[]CreatePRItem `json:"items"`
}

// Update applies note and item changes in one transaction.
func (s *RequestService) Update(ctx context.Context, id string, req *UpdatePRRequest) (*PRResponse, error) {
	pr, err := s.prRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var newItems []entity.PRItem
	if req.Items != nil {
		if len(*req.Items) == 0 {
			return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
		}

		productIDs := make([]string, 0, len(*req.Items))
		for _, item := range *req.Items {
			if item.Quantity <= 0 {
				return nil, fmt.Errorf("%w: item quantity must be positive", ErrValidation)
			}
			productIDs = append(productIDs, item.ProductID)
		}

		products, err := s.productRepo.FindByIDs(ctx, productIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load products: %w", err)
		}

		for _, item := range *req.Items {
			product, ok := products[item.ProductID]
			if !ok {
				return nil, fmt.Errorf("%w: unknown product %s", ErrValidation, item.ProductID)
			}
			unitPrice := item.UnitPrice
			if unitPrice == 0 {
				unitPrice = product.UnitPrice
			}
			newItems = append(newItems, entity.PRItem{
				ID:         uuid.New().String(),
				PRID:       pr.ID,
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				UnitPrice:  unitPrice,
				TotalPrice: unitPrice * float64(item.Quantity),
			})
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.ClientID != nil {
			if err := tx.Model(&entity.PurchaseRequest{}).
				Where("id = ?", pr.ID).
				Update("client_id", *req.ClientID).Error; err != nil {
				return err
			}
		}
		if req.Note != nil {
			if err := tx.Model(&entity.DeliveryNote{}).
				Where("pr_id = ?", pr.ID).
				Update("note", *req.Note).Error; err != nil {
				return err
			}
		}
		if req.Items != nil {
			if err := tx.Where("pr_id = ?", pr.ID).Delete(&entity.PRItem{}).Error; err != nil {
				return err
			}
			if err := tx.Create(&newItems).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update purchase request: %w", err)
	}

	return s.GetByID(ctx, id)
}

// Delete removes items, note and PR in one transaction and returns the
// deleted aggregate for the caller's confirmation payload.
func (s *RequestService) Delete(ctx context.Context, id string) (*PRResponse, error) {
	deleted, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pr_id = ?", id).Delete(&entity.PRItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("pr_id = ?", id).Delete(&entity.DeliveryNote{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.PurchaseRequest{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete purchase request: %w", err)
	}

	return deleted, nil
}

// enrich resolves the display names referenced by a page of PRs in one
// user lookup.
func (s *RequestService) enrich(ctx context.Context, prs []entity.PurchaseRequest) ([]PRResponse, error) {
	idSet := make(map[string]struct{})
	for _, pr := range prs {
		idSet[pr.CreatedBy] = struct{}{}
		if pr.ApprovedBy != nil {
			idSet[*pr.ApprovedBy] = struct{}{}
		}
		if pr.ClientID != nil {
			idSet[*pr.ClientID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	names, err := s.userRepo.NamesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user names: %w", err)
	}

	responses := make([]PRResponse, 0, len(prs))
	for _, pr := range prs {
		resp := PRResponse{
			PurchaseRequest: pr,
			CreatedByName:   names[pr.CreatedBy],
		}
		if pr.ApprovedBy != nil {
			resp.ApprovedByName = names[*pr.ApprovedBy]
		}
		if pr.ClientID != nil {
			resp.ClientName = names[*pr.ClientID]
		}
		responses = append(responses, resp)
	}
	return responses, nil
}
