package service

import (
	"context"

	"go.uber.org/zap"

	"nudge-notify/internal/push"
	"nudge-notify/internal/repository"
)

// TokenRef pairs a push token with the user it belongs to, so pruning after a
// batched send is a direct lookup instead of a reverse search.
type TokenRef struct {
	UserUID string
	Token   string
}

// Deliverer performs the batched send plus invalid-token cleanup shared by the
// reminder scan and the ping path.
type Deliverer struct {
	sender push.Sender
	users  *repository.UserRepository
	log    *zap.Logger
}

func NewDeliverer(sender push.Sender, users *repository.UserRepository, log *zap.Logger) *Deliverer {
	return &Deliverer{sender: sender, users: users, log: log}
}

// Deliver sends msg to every token in one multicast call and removes tokens the
// provider reports as permanently invalid from their owning users. Pruning is
// best-effort: a failed delete is logged and never retried.
func (d *Deliverer) Deliver(ctx context.Context, refs []TokenRef, msg push.Message) (successCount, failureCount int) {
	if len(refs) == 0 {
		return 0, 0
	}

	tokens := make([]string, len(refs))
	for i, ref := range refs {
		tokens[i] = ref.Token
	}

	results, err := d.sender.Send(ctx, tokens, msg)
	if err != nil {
		d.log.Error("multicast send failed", zap.Int("tokens", len(tokens)), zap.Error(err))
		return 0, len(refs)
	}

	for i, res := range results {
		if res.OK {
			successCount++
			continue
		}
		failureCount++
		if !res.Invalid {
			continue
		}
		ref := refs[i]
		if err := d.users.DeleteToken(ctx, ref.UserUID, ref.Token); err != nil {
			d.log.Warn("failed to prune invalid token",
				zap.String("uid", ref.UserUID), zap.Error(err))
			continue
		}
		d.log.Info("removed invalid token", zap.String("uid", ref.UserUID))
	}
	return successCount, failureCount
}
