package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/session_auth/internal/models"
)

func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(r.DB.WithContext(ctx), "email = ?", email)
}

func (r *GormRepo) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return r.findOne(r.DB.WithContext(ctx), "id = ?", id)
}

func (r *GormRepo) findOne(db *gorm.DB, query string, arg any) (*models.Account, error) {
	var account models.Account
	if err := db.Where(query, arg).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *GormRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Account{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new account and decides its role. The email recheck, the
// empty-registry count and the main admin claim share one transaction, and the
// unique email index backs the recheck.
func (r *GormRepo) Create(ctx context.Context, a *models.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.findOne(tx, "email = ?", a.Email); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		var count int64
		if err := tx.Model(&models.Account{}).Count(&count).Error; err != nil {
			return err
		}

		a.Role = models.RoleUser
		if count == 0 {
			claimed, err := claimMainAdmin(tx, a.ID)
			if err != nil {
				return err
			}
			if claimed {
				a.Role = models.RoleMainAdmin
			}
		}

		return tx.Create(a).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	return err
}

func claimMainAdmin(tx *gorm.DB, accountID string) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.AdminClaim{Name: models.MainAdminClaim, AccountID: accountID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateTokens overwrites both token columns unconditionally.
func (r *GormRepo) UpdateTokens(ctx context.Context, id, accessToken, refreshDigest string) error {
	res := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"access_token":       accessToken,
			"refresh_token_hash": refreshDigest,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RotateTokens replaces the token pair only if the stored refresh digest is
// still prevDigest, so one refresh token can be exchanged at most once.
func (r *GormRepo) RotateTokens(ctx context.Context, id, prevDigest, accessToken, refreshDigest string) error {
	res := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND refresh_token_hash = ?", id, prevDigest).
		Updates(map[string]any{
			"access_token":       accessToken,
			"refresh_token_hash": refreshDigest,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleToken
	}
	return nil
}

func (r *GormRepo) ClearTokens(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"access_token":       gorm.Expr("NULL"),
			"refresh_token_hash": gorm.Expr("NULL"),
		}).Error
}
