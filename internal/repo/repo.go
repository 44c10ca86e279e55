package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("account not found")
	ErrAlreadyExists = errors.New("account already exists")
	// ErrStaleToken means the stored refresh token changed since it was read.
	ErrStaleToken = errors.New("refresh token is no longer current")
)

// GormRepo is the account registry.
type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
