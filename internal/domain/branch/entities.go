package branch

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("branch not found")
	ErrDuplicateCode = errors.New("branch code already in use")
)

// Table: branches. Reference data, created by administrators only.
type Branch struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Code      string    `gorm:"size:16;not null;uniqueIndex:ux_branches_code" json:"code"`
	Address   *string   `gorm:"type:text" json:"address,omitempty"`
	Phone     *string   `gorm:"size:32" json:"phone,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Branch) TableName() string { return "branches" }
