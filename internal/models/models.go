package models

import (
	"time"
)

type Role string

const (
	RoleMainAdmin Role = "MAIN_ADMIN"
	RoleUser      Role = "USER"
)

// Account is a registered user. Token columns hold the latest issued pair;
// only the SHA-256 digest of the refresh token is stored.
type Account struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)"  json:"id"`
	Username         string    `gorm:"not null"                     json:"username"`
	Email            string    `gorm:"uniqueIndex;not null"         json:"email"`
	FirstName        string    `                                    json:"firstName"`
	LastName         string    `                                    json:"lastName"`
	ProfilePicture   string    `                                    json:"profilePicture"`
	PasswordHash     string    `gorm:"not null"                     json:"-"`
	Role             Role      `gorm:"type:varchar(16);not null"    json:"role"`
	AccessToken      *string   `                                    json:"-"`
	RefreshTokenHash *string   `gorm:"type:varchar(64)"             json:"-"`
	CreatedAt        time.Time `                                    json:"createdAt"`
	UpdatedAt        time.Time `                                    json:"updatedAt"`
}

const MainAdminClaim = "main_admin"

// AdminClaim has at most one row per name; inserting it is the one-time
// "claim first admin" gate.
type AdminClaim struct {
	Name      string `gorm:"primaryKey;type:varchar(32)"`
	AccountID string `gorm:"type:varchar(36);not null"`
	CreatedAt time.Time
}
