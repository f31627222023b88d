package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nudge-notify/internal/model"
	"nudge-notify/internal/repository"
)

// ItemInput carries the fields a client may set when creating an item.
type ItemInput struct {
	Type     model.ItemType
	SpaceID  string
	Title    string
	Details  string
	RemindAt *time.Time
	Timezone string
}

// ItemUpdate carries a partial update. Nil fields are left untouched;
// ClearReminder removes the reminder time regardless of RemindAt.
type ItemUpdate struct {
	Title         *string
	Details       *string
	RemindAt      *time.Time
	ClearReminder bool
	Timezone      *string
}

// ItemService owns the item write path. Every mutation runs the status
// deriver over the before/after pair, so the notification status always
// reflects the reminder fields it was written with.
type ItemService struct {
	items *repository.ItemRepository
	log   *zap.Logger
	now   func() time.Time
}

func NewItemService(items *repository.ItemRepository, log *zap.Logger) *ItemService {
	return &ItemService{items: items, log: log, now: time.Now}
}

func (s *ItemService) Create(ctx context.Context, uid string, input ItemInput) (*model.Item, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	item := model.Item{
		ID:           uuid.New().String(),
		Type:         input.Type,
		Title:        input.Title,
		Details:      input.Details,
		RemindAt:     input.RemindAt,
		Timezone:     input.Timezone,
		NotifyStatus: model.NotifyNone,
		CreatedByUID: uid,
		UpdatedByUID: uid,
	}

	switch input.Type {
	case model.ItemPersonal:
		item.OwnerUID = uid
	case model.ItemSpace:
		if input.SpaceID == "" {
			return nil, fmt.Errorf("space id is required for space items")
		}
		item.SpaceID = input.SpaceID
	default:
		return nil, fmt.Errorf("unknown item type %q", input.Type)
	}

	s.applyDerivedStatus(nil, &item)

	if err := s.items.Create(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *ItemService) Update(ctx context.Context, uid, itemID string, update ItemUpdate) (*model.Item, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	before := *item

	if update.Title != nil {
		if *update.Title == "" {
			return nil, fmt.Errorf("title is required")
		}
		item.Title = *update.Title
	}
	if update.Details != nil {
		item.Details = *update.Details
	}
	if update.ClearReminder {
		item.RemindAt = nil
	} else if update.RemindAt != nil {
		item.RemindAt = update.RemindAt
	}
	if update.Timezone != nil {
		item.Timezone = *update.Timezone
	}
	item.UpdatedByUID = uid

	s.applyDerivedStatus(&before, item)

	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// SetCompleted flips the completion flag. Completing an item does not cancel
// its scheduled notification here; the scan does that so the two paths cannot
// race over the same field.
func (s *ItemService) SetCompleted(ctx context.Context, uid, itemID string, completed bool) (*model.Item, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	before := *item

	item.IsCompleted = completed
	if completed {
		now := s.now()
		item.CompletedAt = &now
	} else {
		item.CompletedAt = nil
	}
	item.UpdatedByUID = uid

	s.applyDerivedStatus(&before, item)

	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemService) List(ctx context.Context, uid string) ([]model.Item, error) {
	return s.items.ListForUser(ctx, uid)
}

func (s *ItemService) Delete(ctx context.Context, itemID string) error {
	return s.items.Delete(ctx, itemID)
}

// applyDerivedStatus folds the derived notification status into the pending
// write, so the status lands atomically with the fields that produced it.
func (s *ItemService) applyDerivedStatus(before, item *model.Item) {
	status, ok := DeriveStatus(before, item, s.now())
	if !ok || status == item.NotifyStatus {
		return
	}
	s.log.Info("item notify status derived",
		zap.String("item_id", item.ID),
		zap.String("from", string(item.NotifyStatus)),
		zap.String("to", string(status)))
	item.NotifyStatus = status
}
