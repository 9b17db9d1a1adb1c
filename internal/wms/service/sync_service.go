package service

import (
	"context"
	"fmt"

	"github.com/batsuburgeru/we-support-wms-backend/internal/shared/sap"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/entity"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SyncService pushes PRs to SAP and keeps the append-only audit trail.
// Every attempt, failed ones included, commits a sap_sync_logs row; a retry
// writes a new row with a fresh transaction ID instead of touching the old
// one.
type SyncService struct {
	db      *gorm.DB
	prRepo  *repository.PRRepository
	logRepo *repository.SyncLogRepository
	client  sap.Client
	logger  *zap.Logger
}

func NewSyncService(db *gorm.DB, repos *repository.Repositories, client sap.Client, logger *zap.Logger) *SyncService {
	return &SyncService{
		db:      db,
		prRepo:  repos.PR,
		logRepo: repos.SyncLog,
		client:  client,
		logger:  logger,
	}
}

// SyncResult is the outcome of one attempt: the committed log row plus a
// convenience flag.
type SyncResult struct {
	Synced bool              `json:"synced"`
	Log    entity.SapSyncLog `json:"log"`
}

// SyncOne attempts to push a single PR. A gateway rejection or transport
// failure is not an error here: the attempt commits as a Failed row and
// the result says so. Only storage trouble surfaces as an error.
func (s *SyncService) SyncOne(ctx context.Context, prID string) (*SyncResult, error) {
	if _, err := s.prRepo.FindByID(ctx, prID); err != nil {
		return nil, err
	}
	return s.attempt(ctx, prID)
}

// Resync retries a previously logged attempt. The old row stays as it is;
// the retry is a brand-new attempt under a new transaction ID.
func (s *SyncService) Resync(ctx context.Context, logID string) (*SyncResult, error) {
	log, err := s.logRepo.FindByID(ctx, logID)
	if err != nil {
		return nil, err
	}
	if log.PRID == nil {
		return nil, repository.ErrNotFound
	}
	if _, err := s.prRepo.FindByID(ctx, *log.PRID); err != nil {
		return nil, err
	}
	return s.attempt(ctx, *log.PRID)
}

// SyncAllSummary reports a bulk run. Each PR ran in its own transaction,
// so one failure never unwinds another PR's attempt.
type SyncAllSummary struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Results   []SyncResult `json:"results"`
}

// SyncAll pushes every PR still flagged unsynced, independently.
func (s *SyncService) SyncAll(ctx context.Context) (*SyncAllSummary, error) {
	ids, err := s.prRepo.FindUnsynced(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsynced purchase requests: %w", err)
	}

	summary := &SyncAllSummary{Total: len(ids)}
	for _, prID := range ids {
		prID := prID
		result, err := s.attempt(ctx, prID)
		if err != nil {
			// Storage failure for this PR only; carry on with the rest.
			// The detail list still gets an entry so it stays one per PR.
			s.logger.Error("sync attempt could not be recorded",
				zap.String("pr_id", prID),
				zap.Error(err))
			summary.Failed++
			summary.Results = append(summary.Results, SyncResult{
				Synced: false,
				Log: entity.SapSyncLog{
					PRID:   &prID,
					Status: entity.SyncStatusFailed,
					Detail: fmt.Sprintf("sync attempt could not be recorded: %v", err),
				},
			})
			continue
		}
		if result.Synced {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, *result)
	}
	return summary, nil
}

// attempt performs one gateway call and commits its outcome. The log row
// and the sap_sync_status flip share a transaction so a Success can never
// be recorded without the PR being marked synced.
func (s *SyncService) attempt(ctx context.Context, prID string) (*SyncResult, error) {
	transactionID := uuid.New().String()

	status := entity.SyncStatusFailed
	detail := ""
	synced := false

	result, err := s.client.AttemptSync(ctx, prID)
	switch {
	case err != nil:
		detail = fmt.Sprintf("sync attempt failed: %v", err)
	case result.OK:
		status = entity.SyncStatusSuccess
		detail = result.Detail
		synced = true
	default:
		detail = result.Detail
	}

	log := entity.SapSyncLog{
		ID:            uuid.New().String(),
		PRID:          &prID,
		TransactionID: transactionID,
		Status:        status,
		Detail:        detail,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&log).Error; err != nil {
			return err
		}
		if synced {
			return tx.Model(&entity.PurchaseRequest{}).
				Where("id = ?", prID).
				Update("sap_sync_status", true).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record sync attempt: %w", err)
	}

	if !synced {
		s.logger.Warn("sap sync attempt failed",
			zap.String("pr_id", prID),
			zap.String("transaction_id", transactionID),
			zap.String("detail", detail))
	}

	return &SyncResult{Synced: synced, Log: log}, nil
}

// ListLogs serves the paginated audit trail view.
func (s *SyncService) ListLogs(ctx context.Context, page, pageSize int, filter repository.LogFilter) ([]entity.SapSyncLog, int64, error) {
	return s.logRepo.FindAll(ctx, page, pageSize, filter)
}

// LogsByPR returns every attempt recorded for one PR.
func (s *SyncService) LogsByPR(ctx context.Context, prID string) ([]entity.SapSyncLog, error) {
	if _, err := s.prRepo.FindByID(ctx, prID); err != nil {
		return nil, err
	}
	return s.logRepo.FindByPRID(ctx, prID)
}

// ExportLogs returns the filtered rows for the xlsx download, newest first.
func (s *SyncService) ExportLogs(ctx context.Context, filter repository.LogFilter) ([]entity.SapSyncLog, error) {
	return s.logRepo.FindAllForExport(ctx, filter)
}
