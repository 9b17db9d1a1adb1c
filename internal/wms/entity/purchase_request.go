package entity

import "time"

// PurchaseRequest is the root of the procurement aggregate. Every PR owns
// exactly one DeliveryNote and one or more PRItems; the three are always
// written together in a single transaction.
type PurchaseRequest struct {
	ID            string  `json:"id" gorm:"primaryKey;size:36"`
	CreatedBy     string  `json:"created_by" gorm:"size:36;not null;index"`
	ClientID      *string `json:"client_id" gorm:"size:36;index"`
	Status        string  `json:"status" gorm:"size:20;default:Pending;index"`
	ApprovedBy    *string `json:"approved_by" gorm:"size:36"`
	SapSyncStatus bool    `json:"sap_sync_status" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	DeliveryNote *DeliveryNote `json:"delivery_note,omitempty" gorm:"foreignKey:PRID"`
	Items        []PRItem      `json:"items,omitempty" gorm:"foreignKey:PRID"`
}

func (PurchaseRequest) TableName() string {
	return "purchase_requests"
}

// PR workflow states
const (
	PRStatusPending   = "Pending"
	PRStatusApproved  = "Approved"
	PRStatusProcessed = "Processed"
	PRStatusReturned  = "Returned"
)

// ValidPRStatus reports whether s is one of the workflow states.
func ValidPRStatus(s string) bool {
	switch s {
	case PRStatusPending, PRStatusApproved, PRStatusProcessed, PRStatusReturned:
		return true
	}
	return false
}

// DeliveryNote carries the running free-text audit log of a PR. The note
// column is append-only: status changes add lines, nothing rewrites history.
type DeliveryNote struct {
	ID         string  `json:"id" gorm:"primaryKey;size:36"`
	PRID       string  `json:"pr_id" gorm:"size:36;not null;uniqueIndex"`
	Note       string  `json:"note" gorm:"type:text"`
	Status     string  `json:"status" gorm:"size:20;default:Pending"`
	VerifiedBy *string `json:"verified_by" gorm:"size:36"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DeliveryNote) TableName() string {
	return "delivery_notes"
}

// PRItem is one requested product line. Lines are replaced wholesale on
// update, never edited in place.
type PRItem struct {
	ID         string  `json:"id" gorm:"primaryKey;size:36"`
	PRID       string  `json:"pr_id" gorm:"size:36;not null;index"`
	ProductID  string  `json:"product_id" gorm:"size:36;not null"`
	Quantity   int     `json:"quantity" gorm:"not null"`
	UnitPrice  float64 `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	TotalPrice float64 `json:"total_price" gorm:"type:decimal(15,2);not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (PRItem) TableName() string {
	return "pr_items"
}
