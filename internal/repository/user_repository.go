package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"nudge-notify/internal/model"
)

// UserRepository handles users and their registered push tokens.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert finds or creates a user by UID and refreshes profile fields.
func (r *UserRepository) Upsert(ctx context.Context, uid, handle, displayName string) (*model.User, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	err := db.Where("uid = ?", uid).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"handle":       handle,
			"display_name": displayName,
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{
			UID:         uid,
			Handle:      handle,
			DisplayName: displayName,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return &user, nil
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}
}

func (r *UserRepository) FindByUID(ctx context.Context, uid string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Tokens returns the user's registered push tokens.
func (r *UserRepository) Tokens(ctx context.Context, uid string) ([]string, error) {
	var tokens []string
	if err := r.db.WithContext(ctx).Model(&model.DeviceToken{}).
		Where("user_uid = ?", uid).
		Pluck("token", &tokens).Error; err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return tokens, nil
}

// RegisterToken records a push token for the user. Re-registering the same
// token is a no-op, matching the set semantics of the token map.
func (r *UserRepository) RegisterToken(ctx context.Context, uid, token string) error {
	var existing model.DeviceToken
	db := r.db.WithContext(ctx)
	err := db.Where("token = ?", token).First(&existing).Error
	switch {
	case err == nil:
		if existing.UserUID == uid {
			return nil
		}
		// Token moved to another account (reinstall with a different login).
		if err := db.Model(&existing).Update("user_uid", uid).Error; err != nil {
			return fmt.Errorf("reassign token: %w", err)
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(&model.DeviceToken{UserUID: uid, Token: token}).Error; err != nil {
			return fmt.Errorf("register token: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("find token: %w", err)
	}
}

// DeleteToken removes a single token from the given user's set. Scoping the
// delete to the owning user keeps concurrent registrations by other users
// untouched.
func (r *UserRepository) DeleteToken(ctx context.Context, uid, token string) error {
	if err := r.db.WithContext(ctx).
		Where("user_uid = ? AND token = ?", uid, token).
		Delete(&model.DeviceToken{}).Error; err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
