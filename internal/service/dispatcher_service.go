package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nudge-notify/internal/model"
	"nudge-notify/internal/push"
	"nudge-notify/internal/repository"
)

// DispatchSummary reports what one scan did.
type DispatchSummary struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
}

// DispatcherService runs the periodic reminder scan: find due scheduled items,
// claim each one, and fan the notification out to the owner or to every space
// member.
type DispatcherService struct {
	items     *repository.ItemRepository
	spaces    *repository.SpaceRepository
	users     *repository.UserRepository
	deliverer *Deliverer
	lookahead time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewDispatcherService(
	items *repository.ItemRepository,
	spaces *repository.SpaceRepository,
	users *repository.UserRepository,
	deliverer *Deliverer,
	lookahead time.Duration,
	log *zap.Logger,
) *DispatcherService {
	return &DispatcherService{
		items:     items,
		spaces:    spaces,
		users:     users,
		deliverer: deliverer,
		lookahead: lookahead,
		log:       log,
		now:       time.Now,
	}
}

// Run executes one scan. Items are claimed with a conditional update before
// anything is sent: once the status leaves scheduled no overlapping scan can
// pick the item up again, so each scheduling produces at most one send. A
// failed claim write leaves the item scheduled for the next scan, which is the
// only retry mechanism in the system.
func (s *DispatcherService) Run(ctx context.Context) (DispatchSummary, error) {
	now := s.now()
	boundary := now.Add(s.lookahead)
	jobID := uuid.New().String()

	due, err := s.items.ListDue(ctx, boundary)
	if err != nil {
		return DispatchSummary{}, err
	}
	if len(due) == 0 {
		return DispatchSummary{}, nil
	}

	s.log.Info("reminders due", zap.Int("count", len(due)), zap.String("job_id", jobID))

	summary := DispatchSummary{}
	for i := range due {
		item := &due[i]
		summary.Processed++

		terminal := model.NotifySent
		if item.IsCompleted {
			terminal = model.NotifyCancelled
		}

		claimed, err := s.items.ClaimForDispatch(ctx, item.ID, terminal, jobID, now)
		if err != nil {
			s.log.Error("failed to claim item, will retry next scan",
				zap.String("item_id", item.ID), zap.Error(err))
			continue
		}
		if !claimed {
			// Another scan got there first.
			continue
		}
		if terminal == model.NotifyCancelled {
			s.log.Info("reminder cancelled for completed item", zap.String("item_id", item.ID))
			continue
		}

		if s.dispatchItem(ctx, item) {
			summary.Sent++
		}
	}

	s.log.Info("scan finished",
		zap.Int("processed", summary.Processed), zap.Int("sent", summary.Sent))
	return summary, nil
}

// dispatchItem resolves recipients and performs the send for one claimed item.
// Reports whether a delivery call was made. Recipient-resolution misses are not
// errors: the item stays in its terminal status and the send is skipped.
func (s *DispatcherService) dispatchItem(ctx context.Context, item *model.Item) bool {
	switch item.Type {
	case model.ItemPersonal:
		return s.dispatchPersonal(ctx, item)
	case model.ItemSpace:
		return s.dispatchSpace(ctx, item)
	default:
		s.log.Warn("item with unknown type", zap.String("item_id", item.ID), zap.String("type", string(item.Type)))
		return false
	}
}

func (s *DispatcherService) dispatchPersonal(ctx context.Context, item *model.Item) bool {
	refs, err := s.userTokenRefs(ctx, item.OwnerUID)
	if err != nil {
		s.log.Error("failed to load owner tokens",
			zap.String("item_id", item.ID), zap.String("uid", item.OwnerUID), zap.Error(err))
		return false
	}
	if len(refs) == 0 {
		s.log.Warn("owner has no tokens", zap.String("item_id", item.ID), zap.String("uid", item.OwnerUID))
		return false
	}

	msg := push.Message{
		Title: "Reminder",
		Body:  item.Title,
		Data: map[string]string{
			"type":   string(model.ItemPersonal),
			"itemId": item.ID,
		},
		ChannelID: push.ChannelReminders,
	}

	success, failure := s.deliverer.Deliver(ctx, refs, msg)
	s.log.Info("personal reminder sent",
		zap.String("item_id", item.ID),
		zap.Int("success", success), zap.Int("failure", failure))
	return true
}

func (s *DispatcherService) dispatchSpace(ctx context.Context, item *model.Item) bool {
	space, err := s.spaces.FindByID(ctx, item.SpaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("space not found", zap.String("item_id", item.ID), zap.String("space_id", item.SpaceID))
		} else {
			s.log.Error("failed to load space", zap.String("space_id", item.SpaceID), zap.Error(err))
		}
		return false
	}

	// Gather the union of every member's tokens so the whole space gets one
	// multicast call, not one call per member.
	var refs []TokenRef
	for _, member := range space.Members {
		memberRefs, err := s.userTokenRefs(ctx, member.UserUID)
		if err != nil {
			continue
		}
		refs = append(refs, memberRefs...)
	}
	if len(refs) == 0 {
		s.log.Warn("no tokens among space members",
			zap.String("item_id", item.ID), zap.String("space_id", item.SpaceID))
		return false
	}

	msg := push.Message{
		Title: space.Title(),
		Body:  item.Title,
		Data: map[string]string{
			"type":      string(model.ItemSpace),
			"itemId":    item.ID,
			"spaceId":   space.ID,
			"spaceName": space.Name,
		},
		ChannelID: push.ChannelSpaceReminders,
	}

	success, failure := s.deliverer.Deliver(ctx, refs, msg)
	s.log.Info("space reminder sent",
		zap.String("item_id", item.ID), zap.String("space_id", space.ID),
		zap.Int("success", success), zap.Int("failure", failure))
	return true
}

func (s *DispatcherService) userTokenRefs(ctx context.Context, uid string) ([]TokenRef, error) {
	tokens, err := s.users.Tokens(ctx, uid)
	if err != nil {
		return nil, err
	}
	refs := make([]TokenRef, 0, len(tokens))
	for _, token := range tokens {
		refs = append(refs, TokenRef{UserUID: uid, Token: token})
	}
	return refs, nil
}
