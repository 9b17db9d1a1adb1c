package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/entity"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatusService drives the PR workflow. A status change is one transaction:
// flip the PR, stamp the approver, append the audit line to the delivery
// note and mirror the status onto it. Notification fan-out happens after
// commit and never rolls the change back.
type StatusService struct {
	db         *gorm.DB
	requestSvc *RequestService
	notifier   *NotificationService
	logger     *zap.Logger
}

func NewStatusService(db *gorm.DB, requestSvc *RequestService, notifier *NotificationService, logger *zap.Logger) *StatusService {
	return &StatusService{
		db:         db,
		requestSvc: requestSvc,
		notifier:   notifier,
		logger:     logger,
	}
}

// statusFanOut maps the new status to the role that needs to act next.
var statusFanOut = map[string]string{
	entity.PRStatusApproved:  entity.RoleWarehouseMan,
	entity.PRStatusProcessed: entity.RoleSupervisor,
	entity.PRStatusReturned:  entity.RoleWarehouseMan,
}

// ApplyStatusChange moves a PR to newStatus on behalf of the actor. The
// optional note is appended to the delivery note's audit trail together
// with the actor and the status.
func (s *StatusService) ApplyStatusChange(ctx context.Context, prID, newStatus, actorID, actorName, note string) (*PRResponse, error) {
	if strings.TrimSpace(newStatus) == "" {
		return nil, fmt.Errorf("%w: status is required", ErrValidation)
	}
	if !entity.ValidPRStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock so two concurrent changes cannot interleave their
		// note appends.
		var pr entity.PurchaseRequest
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", prID).
			First(&pr).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrNotFound
			}
			return err
		}

		updates := map[string]interface{}{
			"status":      newStatus,
			"approved_by": actorID,
		}
		if err := tx.Model(&pr).Updates(updates).Error; err != nil {
			return err
		}

		var dn entity.DeliveryNote
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("pr_id = ?", prID).
			First(&dn).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrNotFound
			}
			return err
		}

		noteUpdates := map[string]interface{}{
			"status": newStatus,
		}
		// The audit line is only written when the actor supplied a note.
		if note != "" {
			auditLine := fmt.Sprintf("%s %s Purchase Request: %s", actorName, newStatus, note)
			appended := auditLine
			if dn.Note != "" {
				appended = dn.Note + "\n" + auditLine
			}
			noteUpdates["note"] = appended
		}

		return tx.Model(&dn).Updates(noteUpdates).Error
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to apply status change: %w", err)
	}

	if role, ok := statusFanOut[newStatus]; ok {
		message := fmt.Sprintf("Purchase Request (#%s) was %s by %s.", prID, newStatus, actorName)
		if err := s.notifier.NotifyRole(ctx, role, message); err != nil {
			s.logger.Warn("failed to dispatch status notification",
				zap.String("pr_id", prID),
				zap.String("status", newStatus),
				zap.Error(err))
		}
	}

	return s.requestSvc.GetByID(ctx, prID)
}
