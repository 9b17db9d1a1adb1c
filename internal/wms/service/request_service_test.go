package service

import (
	"context"
	"errors"
	"testing"

	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/entity"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/repository"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupRequestTest(t *testing.T) (*gorm.DB, *RequestService) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	logger := zap.NewNop()
	notifier := NewNotificationService(repos.Notification, repos.User, logger)
	svc := NewRequestService(db, repos, notifier, logger)
	return db, svc
}

func seedRequestFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()
	testutil.SeedTestUser(t, db, "user-wm-001", "Wally Mann", "wally@test.com", entity.RoleWarehouseMan)
	testutil.SeedTestUser(t, db, "user-sv-001", "Sue Visor", "sue@test.com", entity.RoleSupervisor)
	testutil.SeedTestUser(t, db, "user-client-001", "Cleo Client", "cleo@test.com", entity.RolePlantOfficer)
	testutil.SeedTestProduct(t, db, "prod-001", "Pallet Jack", 250.00)
	testutil.SeedTestProduct(t, db, "prod-002", "Safety Gloves", 12.50)
}

func TestCreatePurchaseRequestAggregate(t *testing.T) {
	db, svc := setupRequestTest(t)
	seedRequestFixtures(t, db)

	clientID := "user-client-001"
	pr, err := svc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
		ClientID: &clientID,
		Note:     "Initial request",
		Items: []CreatePRItem{
			{ProductID: "prod-001", Quantity: 2},
			{ProductID: "prod-002", Quantity: 10, UnitPrice: 11.00},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if pr.Status != entity.PRStatusPending {
		t.Fatalf("expected status Pending, got %s", pr.Status)
	}
	if pr.CreatedByName != "Wally Mann" {
		t.Fatalf("expected creator name resolved, got %q", pr.CreatedByName)
	}
	if pr.ClientName != "Cleo Client" {
		t.Fatalf("expected client name resolved, got %q", pr.ClientName)
	}
	if pr.DeliveryNote == nil || pr.DeliveryNote.Note != "Initial request" {
		t.Fatalf("expected delivery note with initial text, got %+v", pr.DeliveryNote)
	}
	if len(pr.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(pr.Items))
	}

	// Catalog price fills in when the request omits one.
	for _, item := range pr.Items {
		switch item.ProductID {
		case "prod-001":
			if item.UnitPrice != 250.00 || item.TotalPrice != 500.00 {
				t.Fatalf("expected catalog price 250.00 and total 500.00, got %v / %v", item.UnitPrice, item.TotalPrice)
			}
		case "prod-002":
			if item.UnitPrice != 11.00 || item.TotalPrice != 110.00 {
				t.Fatalf("expected explicit price 11.00 and total 110.00, got %v / %v", item.UnitPrice, item.TotalPrice)
			}
		}
	}

	// Supervisors get notified after commit.
	var notifications []entity.Notification
	if err := db.Where("user_id = ?", "user-sv-001").Find(&notifications).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("expected 1 supervisor notification, got %d", len(notifications))
	}
	if notifications[0].Status != entity.NotificationUnread {
		t.Fatalf("expected Unread notification, got %s", notifications[0].Status)
	}
}

func TestCreatePurchaseRequestValidation(t *testing.T) {
	db, svc := setupRequestTest(t)
	seedRequestFixtures(t, db)

	_, err := svc.Create(context.Background(), "user-wm-001", &CreatePRRequest{Items: nil})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty items, got %v", err)
	}

	_, err = svc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
		Items: []CreatePRItem{{ProductID: "prod-missing", Quantity: 1}},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown product, got %v", err)
	}

	// Nothing half-written after the failures.
	var count int64
	db.Model(&entity.PurchaseRequest{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no purchase requests, got %d", count)
	}
}

func TestUpdateReplacesLineItems(t *testing.T) {
	db, svc := setupRequestTest(t)
	seedRequestFixtures(t, db)

	pr, err := svc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
		Items: []CreatePRItem{{ProductID: "prod-001", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newNote := "Revised quantities"
	items := []CreatePRItem{{ProductID: "prod-002", Quantity: 5}}
	updated, err := svc.Update(context.Background(), pr.ID, &UpdatePRRequest{
		Note:  &newNote,
		Items: &items,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if len(updated.Items) != 1 || updated.Items[0].ProductID != "prod-002" {
		t.Fatalf("expected items replaced wholesale, got %+v", updated.Items)
	}
	if updated.DeliveryNote.Note != newNote {
		t.Fatalf("expected note updated, got %q", updated.DeliveryNote.Note)
	}

	// The old line item is gone, not orphaned.
	var itemCount int64
	db.Model(&entity.PRItem{}).Where("pr_id = ?", pr.ID).Count(&itemCount)
	if itemCount != 1 {
		t.Fatalf("expected 1 item row, got %d", itemCount)
	}
}

func TestUpdateNotFound(t *testing.T) {
	db, svc := setupRequestTest(t)
	seedRequestFixtures(t, db)
	_ = db

	note := "whatever"
	_, err := svc.Update(context.Background(), "pr-missing", &UpdatePRRequest{Note: &note})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesAggregate(t *testing.T) {
	db, svc := setupRequestTest(t)
	seedRequestFixtures(t, db)

	pr, err := svc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
		Items: []CreatePRItem{{ProductID: "prod-001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	deleted, err := svc.Delete(context.Background(), pr.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted.ID != pr.ID {
		t.Fatalf("expected deleted PR returned, got %s", deleted.ID)
	}

	for _, model := range []interface{}{&entity.PurchaseRequest{}, &entity.DeliveryNote{}, &entity.PRItem{}} {
		var count int64
		db.Model(model).Count(&count)
		if count != 0 {
			t.Fatalf("expected %T rows removed, got %d", model, count)
		}
	}

	if _, err := svc.GetByID(context.Background(), pr.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCountByStatus(t *testing.T) {
	db, svc := setupRequestTest(t)
	seedRequestFixtures(t, db)

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
			Items: []CreatePRItem{{ProductID: "prod-001", Quantity: 1}},
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	var first entity.PurchaseRequest
	if err := db.Order("created_at ASC").First(&first).Error; err != nil {
		t.Fatalf("failed to load seeded PR: %v", err)
	}
	db.Model(&entity.PurchaseRequest{}).Where("id = ?", first.ID).Update("status", entity.PRStatusApproved)

	summary, err := svc.CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if summary.Total != 3 {
		t.Fatalf("expected total 3, got %d", summary.Total)
	}

	byStatus := map[string]int64{}
	for _, c := range summary.Counts {
		byStatus[c.Status] = c.Count
	}
	if byStatus[entity.PRStatusPending] != 2 || byStatus[entity.PRStatusApproved] != 1 {
		t.Fatalf("unexpected status buckets: %+v", byStatus)
	}
}

func TestSearchMatchesClientName(t *testing.T) {
	db, svc := setupRequestTest(t)
	seedRequestFixtures(t, db)

	clientID := "user-client-001"
	if _, err := svc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
		ClientID: &clientID,
		Items:    []CreatePRItem{{ProductID: "prod-001", Quantity: 1}},
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), "user-wm-001", &CreatePRRequest{
		Items: []CreatePRItem{{ProductID: "prod-002", Quantity: 1}},
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	results, total, err := svc.List(context.Background(), 1, 20, map[string]string{"search": "cleo"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(results) != 1 {
		t.Fatalf("expected 1 match for client name, got %d", total)
	}
	if results[0].ClientName != "Cleo Client" {
		t.Fatalf("expected Cleo Client match, got %q", results[0].ClientName)
	}
	_ = db
}
