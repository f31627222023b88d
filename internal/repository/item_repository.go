package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"nudge-notify/internal/model"
)

// ItemRepository handles CRUD for reminder items.
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Create(ctx context.Context, item *model.Item) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (r *ItemRepository) Save(ctx context.Context, item *model.Item) error {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return fmt.Errorf("save item: %w", err)
	}
	return nil
}

func (r *ItemRepository) FindByID(ctx context.Context, itemID string) (*model.Item, error) {
	var item model.Item
	if err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListDue returns items still awaiting a notification whose reminder time falls
// at or before the given boundary.
func (r *ItemRepository) ListDue(ctx context.Context, boundary time.Time) ([]model.Item, error) {
	var items []model.Item
	if err := r.db.WithContext(ctx).
		Where("notify_status = ? AND remind_at IS NOT NULL AND remind_at <= ?", model.NotifyScheduled, boundary).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list due items: %w", err)
	}
	return items, nil
}

// ListForUser returns items the user owns directly or through space membership.
func (r *ItemRepository) ListForUser(ctx context.Context, uid string) ([]model.Item, error) {
	var items []model.Item
	if err := r.db.WithContext(ctx).
		Where("owner_uid = ? OR space_id IN (?)", uid,
			r.db.Model(&model.SpaceMember{}).Select("space_id").Where("user_uid = ?", uid)).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ClaimForDispatch moves an item from scheduled to the given terminal status,
// but only if no other scan has claimed it first. Returns false when the
// conditional update matched no row.
func (r *ItemRepository) ClaimForDispatch(ctx context.Context, itemID string, status model.NotifyStatus, jobID string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("id = ? AND notify_status = ?", itemID, model.NotifyScheduled).
		Updates(map[string]interface{}{
			"notify_status": status,
			"notify_job_id": jobID,
			"updated_at":    now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("claim item: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *ItemRepository) Delete(ctx context.Context, itemID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&model.Item{}).Error; err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}
