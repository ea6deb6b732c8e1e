package user

import (
	"errors"
	"strings"
	"time"

	"microfinance-backoffice/internal/domain/branch"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSubAdmin Role = "sub_admin"
	RoleAgent    Role = "agent"
)

var (
	ErrNotFound         = errors.New("user profile not found")
	ErrInvalidRole      = errors.New("invalid role")
	ErrBranchRequired   = errors.New("branch is required for sub_admin and agent")
	ErrBranchNotAllowed = errors.New("admin must not be assigned to a branch")
	ErrInactive         = errors.New("user is inactive")
	ErrDuplicate        = errors.New("a profile already exists for this email or identity")
	ErrForbidden        = errors.New("operation not permitted for this user")
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSubAdmin, RoleAgent:
		return true
	}
	return false
}

// Branch-scoped roles see exactly one branch; admin sees all.
func (r Role) BranchScoped() bool { return r == RoleSubAdmin || r == RoleAgent }

// Approver roles may approve, reject and disburse loan applications.
func (r Role) Approver() bool { return r == RoleAdmin || r == RoleSubAdmin }

// ValidateAssignment checks the role/branch pairing of a staff identity.
func ValidateAssignment(r Role, branchID *string) error {
	if !r.Valid() {
		return ErrInvalidRole
	}
	hasBranch := branchID != nil && strings.TrimSpace(*branchID) != ""
	if r.BranchScoped() && !hasBranch {
		return ErrBranchRequired
	}
	if r == RoleAdmin && hasBranch {
		return ErrBranchNotAllowed
	}
	return nil
}

// Table: users (staff identities).
type User struct {
	ID            string         `gorm:"primaryKey;size:32" json:"id"`
	AuthID        *string        `gorm:"size:36;uniqueIndex:ux_users_auth_id" json:"auth_id,omitempty"`
	Email         string         `gorm:"size:190;not null;uniqueIndex:ux_users_email" json:"email"`
	FirstName     string         `gorm:"size:100;not null" json:"first_name"`
	LastName      string         `gorm:"size:100;not null" json:"last_name"`
	Phone         *string        `gorm:"size:32" json:"phone,omitempty"`
	Role          Role           `gorm:"size:16;not null;index" json:"role"`
	BranchID      *string        `gorm:"size:32;index" json:"branch_id,omitempty"`
	Branch        *branch.Branch `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	IsActive      bool           `gorm:"not null" json:"is_active"`
	EmailVerified bool           `gorm:"not null" json:"email_verified"`
	CreatedBy     *string        `gorm:"size:32" json:"created_by,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// InBranch reports whether the user's scope covers branchID.
func (u *User) InBranch(branchID string) bool {
	if u.Role == RoleAdmin {
		return true
	}
	return u.BranchID != nil && *u.BranchID == branchID
}

// Covers reports whether the user may act on a record owned by agentID in
// branchID: admins on everything, sub-admins on their branch, agents on
// their own records.
func (u *User) Covers(branchID, agentID string) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleSubAdmin:
		return u.InBranch(branchID)
	case RoleAgent:
		return u.ID == agentID && u.InBranch(branchID)
	}
	return false
}

// Scope narrows a branch/agent filter pair to what the user may see.
func (u *User) Scope(branchID, agentID string) (string, string) {
	own := ""
	if u.BranchID != nil {
		own = *u.BranchID
	}
	switch u.Role {
	case RoleSubAdmin:
		return own, agentID
	case RoleAgent:
		return own, u.ID
	}
	return branchID, agentID
}

type Filter struct {
	BranchID string
	Role     Role
	Active   *bool
}

// Patch holds the self-service profile fields. Role, branch and auth link
// are not part of it.
type Patch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

func (p Patch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil
}

func (p Patch) Columns() map[string]any {
	m := map[string]any{}
	if p.FirstName != nil {
		m["first_name"] = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		m["last_name"] = strings.TrimSpace(*p.LastName)
	}
	if p.Phone != nil {
		m["phone"] = strings.TrimSpace(*p.Phone)
	}
	return m
}
