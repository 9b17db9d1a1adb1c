package service

import (
	"context"
	"errors"
	"testing"

	"github.com/batsuburgeru/we-support-wms-backend/internal/shared/sap"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/entity"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/repository"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeSAPClient plays back a scripted sequence of outcomes.
type fakeSAPClient struct {
	script []sap.Result
	errs   []error
	calls  int
}

func (f *fakeSAPClient) AttemptSync(ctx context.Context, prID string) (sap.Result, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return sap.Result{}, f.errs[i]
	}
	if i < len(f.script) {
		return f.script[i], nil
	}
	return sap.Result{OK: true, Detail: "synced"}, nil
}

func setupSyncTest(t *testing.T, client sap.Client) (*gorm.DB, *RequestService, *SyncService) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	logger := zap.NewNop()
	notifier := NewNotificationService(repos.Notification, repos.User, logger)
	requestSvc := NewRequestService(db, repos, notifier, logger)
	syncSvc := NewSyncService(db, repos, client, logger)
	return db, requestSvc, syncSvc
}

func createSyncPR(t *testing.T, db *gorm.DB, requestSvc *RequestService) string {
	t.Helper()
	seedRequestFixtures(t, db)
	pr, err := requestSvc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
		Items: []CreatePRItem{{ProductID: "prod-001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return pr.ID
}

func TestSyncOneSuccess(t *testing.T) {
	client := &fakeSAPClient{script: []sap.Result{{OK: true, Detail: "accepted"}}}
	db, requestSvc, syncSvc := setupSyncTest(t, client)
	prID := createSyncPR(t, db, requestSvc)

	result, err := syncSvc.SyncOne(context.Background(), prID)
	if err != nil {
		t.Fatalf("SyncOne failed: %v", err)
	}
	if !result.Synced {
		t.Fatalf("expected synced result")
	}
	if result.Log.Status != entity.SyncStatusSuccess {
		t.Fatalf("expected Success log, got %s", result.Log.Status)
	}
	if result.Log.TransactionID == "" {
		t.Fatalf("expected a transaction ID")
	}

	var pr entity.PurchaseRequest
	if err := db.Where("id = ?", prID).First(&pr).Error; err != nil {
		t.Fatalf("failed to reload PR: %v", err)
	}
	if !pr.SapSyncStatus {
		t.Fatalf("expected sap_sync_status flipped to true")
	}
}

func TestSyncOneFailureStillCommitsLog(t *testing.T) {
	client := &fakeSAPClient{script: []sap.Result{{OK: false, Detail: "document rejected"}}}
	db, requestSvc, syncSvc := setupSyncTest(t, client)
	prID := createSyncPR(t, db, requestSvc)

	result, err := syncSvc.SyncOne(context.Background(), prID)
	if err != nil {
		t.Fatalf("SyncOne returned error for a failed attempt: %v", err)
	}
	if result.Synced {
		t.Fatalf("expected failed result")
	}
	if result.Log.Status != entity.SyncStatusFailed {
		t.Fatalf("expected Failed log, got %s", result.Log.Status)
	}

	// The failed attempt is on the audit trail.
	var logs []entity.SapSyncLog
	if err := db.Where("pr_id = ?", prID).Find(&logs).Error; err != nil {
		t.Fatalf("failed to load logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != entity.SyncStatusFailed {
		t.Fatalf("expected 1 committed Failed row, got %+v", logs)
	}

	var pr entity.PurchaseRequest
	db.Where("id = ?", prID).First(&pr)
	if pr.SapSyncStatus {
		t.Fatalf("expected sap_sync_status to stay false after failure")
	}
}

func TestSyncOneTransportError(t *testing.T) {
	client := &fakeSAPClient{errs: []error{errors.New("connection refused")}}
	db, requestSvc, syncSvc := setupSyncTest(t, client)
	prID := createSyncPR(t, db, requestSvc)

	result, err := syncSvc.SyncOne(context.Background(), prID)
	if err != nil {
		t.Fatalf("SyncOne returned error for a transport failure: %v", err)
	}
	if result.Synced || result.Log.Status != entity.SyncStatusFailed {
		t.Fatalf("expected Failed log for transport error, got %+v", result)
	}
}

func TestSyncOneNotFound(t *testing.T) {
	_, _, syncSvc := setupSyncTest(t, &fakeSAPClient{})
	if _, err := syncSvc.SyncOne(context.Background(), "pr-missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResyncWritesNewRow(t *testing.T) {
	client := &fakeSAPClient{script: []sap.Result{
		{OK: false, Detail: "first attempt rejected"},
		{OK: true, Detail: "second attempt accepted"},
	}}
	db, requestSvc, syncSvc := setupSyncTest(t, client)
	prID := createSyncPR(t, db, requestSvc)

	first, err := syncSvc.SyncOne(context.Background(), prID)
	if err != nil {
		t.Fatalf("SyncOne failed: %v", err)
	}

	second, err := syncSvc.Resync(context.Background(), first.Log.ID)
	if err != nil {
		t.Fatalf("Resync failed: %v", err)
	}
	if !second.Synced {
		t.Fatalf("expected successful retry")
	}
	if second.Log.ID == first.Log.ID {
		t.Fatalf("expected a new log row, got the same ID")
	}
	if second.Log.TransactionID == first.Log.TransactionID {
		t.Fatalf("expected a fresh transaction ID")
	}

	// The original Failed row is untouched.
	var original entity.SapSyncLog
	if err := db.Where("id = ?", first.Log.ID).First(&original).Error; err != nil {
		t.Fatalf("original log row is gone: %v", err)
	}
	if original.Status != entity.SyncStatusFailed {
		t.Fatalf("expected original row still Failed, got %s", original.Status)
	}

	var count int64
	db.Model(&entity.SapSyncLog{}).Where("pr_id = ?", prID).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 audit rows, got %d", count)
	}
}

func TestResyncNotFound(t *testing.T) {
	_, _, syncSvc := setupSyncTest(t, &fakeSAPClient{})
	if _, err := syncSvc.Resync(context.Background(), "log-missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSyncAllIndependentOutcomes(t *testing.T) {
	client := &fakeSAPClient{script: []sap.Result{
		{OK: true, Detail: "accepted"},
		{OK: false, Detail: "rejected"},
		{OK: true, Detail: "accepted"},
	}}
	db, requestSvc, syncSvc := setupSyncTest(t, client)

	seedRequestFixtures(t, db)
	for i := 0; i < 3; i++ {
		if _, err := requestSvc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
			Items: []CreatePRItem{{ProductID: "prod-001", Quantity: 1}},
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	summary, err := syncSvc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	if summary.Total != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	// One failure does not stop the others from being marked synced.
	var syncedCount int64
	db.Model(&entity.PurchaseRequest{}).Where("sap_sync_status = ?", true).Count(&syncedCount)
	if syncedCount != 2 {
		t.Fatalf("expected 2 synced PRs, got %d", syncedCount)
	}

	// A second run only picks up the remaining one.
	summary, err = syncSvc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("second SyncAll failed: %v", err)
	}
	if summary.Total != 1 {
		t.Fatalf("expected 1 remaining unsynced PR, got %d", summary.Total)
	}
}

func TestSyncAllKeepsResultPerPROnStorageFailure(t *testing.T) {
	client := &fakeSAPClient{}
	db, requestSvc, syncSvc := setupSyncTest(t, client)

	seedRequestFixtures(t, db)
	for i := 0; i < 2; i++ {
		if _, err := requestSvc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
			Items: []CreatePRItem{{ProductID: "prod-001", Quantity: 1}},
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	// With the audit table gone every attempt fails at the storage layer.
	if err := db.Exec("DROP TABLE sap_sync_logs").Error; err != nil {
		t.Fatalf("failed to drop log table: %v", err)
	}

	summary, err := syncSvc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	if summary.Total != 2 || summary.Failed != 2 || summary.Succeeded != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.Results) != summary.Total {
		t.Fatalf("expected one result per PR, got %d of %d", len(summary.Results), summary.Total)
	}
	for _, result := range summary.Results {
		if result.Synced || result.Log.Status != entity.SyncStatusFailed {
			t.Fatalf("expected Failed placeholder result, got %+v", result)
		}
		if result.Log.PRID == nil || result.Log.Detail == "" {
			t.Fatalf("expected PR reference and error detail, got %+v", result.Log)
		}
	}
}

func TestExportLogsFilters(t *testing.T) {
	client := &fakeSAPClient{script: []sap.Result{
		{OK: true, Detail: "accepted"},
		{OK: false, Detail: "rejected"},
	}}
	db, requestSvc, syncSvc := setupSyncTest(t, client)
	prID := createSyncPR(t, db, requestSvc)

	if _, err := syncSvc.SyncOne(context.Background(), prID); err != nil {
		t.Fatalf("SyncOne failed: %v", err)
	}
	pr2, err := requestSvc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
		Items: []CreatePRItem{{ProductID: "prod-002", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := syncSvc.SyncOne(context.Background(), pr2.ID); err != nil {
		t.Fatalf("SyncOne failed: %v", err)
	}

	failed, err := syncSvc.ExportLogs(context.Background(), repository.LogFilter{Status: entity.SyncStatusFailed})
	if err != nil {
		t.Fatalf("ExportLogs failed: %v", err)
	}
	if len(failed) != 1 || failed[0].Status != entity.SyncStatusFailed {
		t.Fatalf("expected only the Failed row, got %+v", failed)
	}

	all, err := syncSvc.ExportLogs(context.Background(), repository.LogFilter{})
	if err != nil {
		t.Fatalf("ExportLogs failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(all))
	}
}
