package authprovider

import (
	"encoding/json"
	"time"

	"microfinance-backoffice/internal/domain/identity"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Table: auth_identities. Owned by the provider; the back office only sees
// identity.User projections of it.
type authIdentity struct {
	ID                 string         `gorm:"primaryKey;size:36"`
	Email              string         `gorm:"size:190;not null;uniqueIndex:ux_auth_identities_email"`
	PasswordHash       string         `gorm:"size:72;not null"`
	EmailConfirmedAt   *time.Time     `gorm:"column:email_confirmed_at"`
	ConfirmationToken  *string        `gorm:"size:36;index"`
	ConfirmationSentAt *time.Time     `gorm:"column:confirmation_sent_at"`
	Metadata           datatypes.JSON `gorm:"column:raw_user_meta_data"`
	LastSignInAt       *time.Time     `gorm:"column:last_sign_in_at"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`
}

func (authIdentity) TableName() string { return "auth_identities" }

func (a *authIdentity) toUser() *identity.User {
	u := &identity.User{
		ID:               a.ID,
		Email:            a.Email,
		EmailConfirmedAt: a.EmailConfirmedAt,
	}
	if len(a.Metadata) > 0 {
		_ = json.Unmarshal(a.Metadata, &u.Metadata)
	}
	return u
}

// Migrate creates the provider's own table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&authIdentity{})
}
