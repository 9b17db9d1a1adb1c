package entity

import "time"

// SapSyncLog is one attempt to push a PR to SAP. Rows are append-only:
// a retry writes a new row with a fresh transaction ID and leaves the old
// attempt untouched, so the table is a complete audit trail.
type SapSyncLog struct {
	ID            string  `json:"id" gorm:"primaryKey;size:36"`
	PRID          *string `json:"pr_id" gorm:"size:36;index"`
	TransactionID string  `json:"transaction_id" gorm:"size:36;not null"`
	Status        string  `json:"status" gorm:"size:20;default:Pending;index"`
	Detail        string  `json:"detail" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
}

func (SapSyncLog) TableName() string {
	return "sap_sync_logs"
}

// Sync attempt states
const (
	SyncStatusPending = "Pending"
	SyncStatusSuccess = "Success"
	SyncStatusFailed  = "Failed"
)
