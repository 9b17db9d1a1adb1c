package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/entity"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/repository"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupStatusTest(t *testing.T) (*gorm.DB, *RequestService, *StatusService) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	logger := zap.NewNop()
	notifier := NewNotificationService(repos.Notification, repos.User, logger)
	requestSvc := NewRequestService(db, repos, notifier, logger)
	statusSvc := NewStatusService(db, requestSvc, notifier, logger)
	return db, requestSvc, statusSvc
}

func TestApplyStatusChange(t *testing.T) {
	db, requestSvc, statusSvc := setupStatusTest(t)
	seedRequestFixtures(t, db)

	pr, err := requestSvc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
		Note:  "original note",
		Items: []CreatePRItem{{ProductID: "prod-001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := statusSvc.ApplyStatusChange(context.Background(),
		pr.ID, entity.PRStatusApproved, "user-sv-001", "Sue Visor", "looks good")
	if err != nil {
		t.Fatalf("ApplyStatusChange failed: %v", err)
	}

	if updated.Status != entity.PRStatusApproved {
		t.Fatalf("expected Approved, got %s", updated.Status)
	}
	if updated.ApprovedBy == nil || *updated.ApprovedBy != "user-sv-001" {
		t.Fatalf("expected approver stamped, got %v", updated.ApprovedBy)
	}

	// The audit line is appended, the original note stays.
	note := updated.DeliveryNote.Note
	if !strings.Contains(note, "original note") {
		t.Fatalf("expected original note preserved, got %q", note)
	}
	if !strings.Contains(note, "Sue Visor Approved Purchase Request: looks good") {
		t.Fatalf("expected audit line appended, got %q", note)
	}
	if updated.DeliveryNote.Status != entity.PRStatusApproved {
		t.Fatalf("expected note status mirrored, got %s", updated.DeliveryNote.Status)
	}

	// Approval fans out to warehouse staff, naming the PR and the actor.
	var notifications []entity.Notification
	if err := db.Where("user_id = ?", "user-wm-001").Find(&notifications).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	want := fmt.Sprintf("Purchase Request (#%s) was Approved by Sue Visor.", pr.ID)
	found := false
	for _, n := range notifications {
		if n.Message == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected notification %q for WarehouseMan, got %+v", want, notifications)
	}
}

func TestStatusNotificationNamesActor(t *testing.T) {
	db, requestSvc, statusSvc := setupStatusTest(t)
	seedRequestFixtures(t, db)

	pr, err := requestSvc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
		Items: []CreatePRItem{{ProductID: "prod-001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := statusSvc.ApplyStatusChange(context.Background(),
		pr.ID, entity.PRStatusReturned, "user-sv-001", "Sue Visor", "prices missing"); err != nil {
		t.Fatalf("ApplyStatusChange failed: %v", err)
	}

	var notifications []entity.Notification
	if err := db.Where("user_id = ?", "user-wm-001").Find(&notifications).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	want := fmt.Sprintf("Purchase Request (#%s) was Returned by Sue Visor.", pr.ID)
	found := false
	for _, n := range notifications {
		if n.Message == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected notification %q, got %+v", want, notifications)
	}
}

func TestApplyStatusChangeWithoutNote(t *testing.T) {
	db, requestSvc, statusSvc := setupStatusTest(t)
	seedRequestFixtures(t, db)

	pr, err := requestSvc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
		Note:  "original note",
		Items: []CreatePRItem{{ProductID: "prod-001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := statusSvc.ApplyStatusChange(context.Background(),
		pr.ID, entity.PRStatusApproved, "user-sv-001", "Sue Visor", "")
	if err != nil {
		t.Fatalf("ApplyStatusChange failed: %v", err)
	}

	// Without a note there is nothing to append; only the status mirrors.
	if updated.DeliveryNote.Note != "original note" {
		t.Fatalf("expected note untouched, got %q", updated.DeliveryNote.Note)
	}
	if updated.DeliveryNote.Status != entity.PRStatusApproved {
		t.Fatalf("expected note status mirrored, got %s", updated.DeliveryNote.Status)
	}
}

func TestApplyStatusChangeAppendsAcrossTransitions(t *testing.T) {
	db, requestSvc, statusSvc := setupStatusTest(t)
	seedRequestFixtures(t, db)

	pr, err := requestSvc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
		Items: []CreatePRItem{{ProductID: "prod-001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := statusSvc.ApplyStatusChange(context.Background(),
		pr.ID, entity.PRStatusApproved, "user-sv-001", "Sue Visor", "first pass"); err != nil {
		t.Fatalf("first transition failed: %v", err)
	}
	updated, err := statusSvc.ApplyStatusChange(context.Background(),
		pr.ID, entity.PRStatusReturned, "user-sv-001", "Sue Visor", "missing prices")
	if err != nil {
		t.Fatalf("second transition failed: %v", err)
	}

	note := updated.DeliveryNote.Note
	if !strings.Contains(note, "first pass") || !strings.Contains(note, "missing prices") {
		t.Fatalf("expected both audit lines retained, got %q", note)
	}
	idxFirst := strings.Index(note, "first pass")
	idxSecond := strings.Index(note, "missing prices")
	if idxFirst > idxSecond {
		t.Fatalf("expected chronological order of audit lines, got %q", note)
	}
}

func TestApplyStatusChangeValidation(t *testing.T) {
	db, requestSvc, statusSvc := setupStatusTest(t)
	seedRequestFixtures(t, db)

	pr, err := requestSvc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
		Items: []CreatePRItem{{ProductID: "prod-001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := statusSvc.ApplyStatusChange(context.Background(),
		pr.ID, "", "user-sv-001", "Sue Visor", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty status, got %v", err)
	}
	if _, err := statusSvc.ApplyStatusChange(context.Background(),
		pr.ID, "Shipped", "user-sv-001", "Sue Visor", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown status, got %v", err)
	}
	if _, err := statusSvc.ApplyStatusChange(context.Background(),
		"pr-missing", entity.PRStatusApproved, "user-sv-001", "Sue Visor", ""); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing PR, got %v", err)
	}

	// Failed attempts leave the PR untouched.
	current, err := requestSvc.GetByID(context.Background(), pr.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if current.Status != entity.PRStatusPending {
		t.Fatalf("expected status unchanged, got %s", current.Status)
	}
}
