package entity

import (
	"encoding/json"
	"time"
)

// User is an operator account. Role is a single string matched against
// roles_permissions at authorization time.
type User struct {
	ID           string `json:"id" gorm:"primaryKey;size:36"`
	Name         string `json:"name" gorm:"size:100;not null"`
	Email        string `json:"email" gorm:"size:200;uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"size:100;not null"`
	Role         string `json:"role" gorm:"size:30;not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Roles
const (
	RoleWarehouseMan = "WarehouseMan"
	RoleSupervisor   = "Supervisor"
	RolePlantOfficer = "PlantOfficer"
	RoleGuard        = "Guard"
	RoleAdmin        = "Admin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool {
	switch r {
	case RoleWarehouseMan, RoleSupervisor, RolePlantOfficer, RoleGuard, RoleAdmin:
		return true
	}
	return false
}

// RolePermission maps a role name to its capability strings, stored as a
// JSON array so new capabilities need no schema change.
type RolePermission struct {
	RoleName    string          `json:"role_name" gorm:"primaryKey;size:30"`
	Permissions json.RawMessage `json:"permissions" gorm:"type:jsonb;not null"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (RolePermission) TableName() string {
	return "roles_permissions"
}

// PermissionList decodes the capability array.
func (rp *RolePermission) PermissionList() ([]string, error) {
	var perms []string
	if err := json.Unmarshal(rp.Permissions, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}
