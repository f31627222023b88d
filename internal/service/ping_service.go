package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"nudge-notify/internal/push"
	"nudge-notify/internal/repository"
)

// PingInput is one ad-hoc nudge from one user to another.
type PingInput struct {
	FromUID   string
	ToUID     string
	SpaceID   string
	ItemID    string
	ItemTitle string
	SpaceName string
}

// PingResult mirrors the response body of the ping endpoint. "Not sent" is a
// valid outcome, not an error: there was simply nobody to notify.
type PingResult struct {
	Sent         bool   `json:"sent"`
	SuccessCount int    `json:"successCount,omitempty"`
	FailureCount int    `json:"failureCount,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// PingService sends a single nudge notification, independent of the scheduled
// scan. It never touches item state.
type PingService struct {
	users     *repository.UserRepository
	deliverer *Deliverer
	log       *zap.Logger
}

func NewPingService(users *repository.UserRepository, deliverer *Deliverer, log *zap.Logger) *PingService {
	return &PingService{users: users, deliverer: deliverer, log: log}
}

func (s *PingService) Send(ctx context.Context, in PingInput) (PingResult, error) {
	senderName := "Someone"
	if sender, err := s.users.FindByUID(ctx, in.FromUID); err == nil && sender.DisplayName != "" {
		senderName = sender.DisplayName
	}

	if _, err := s.users.FindByUID(ctx, in.ToUID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PingResult{Sent: false, Reason: "User not found"}, nil
		}
		return PingResult{}, fmt.Errorf("find target user: %w", err)
	}

	tokens, err := s.users.Tokens(ctx, in.ToUID)
	if err != nil {
		return PingResult{}, err
	}
	if len(tokens) == 0 {
		return PingResult{Sent: false, Reason: "No FCM tokens"}, nil
	}

	refs := make([]TokenRef, 0, len(tokens))
	for _, token := range tokens {
		refs = append(refs, TokenRef{UserUID: in.ToUID, Token: token})
	}

	spaceName := in.SpaceName
	if spaceName == "" {
		spaceName = "a space"
	}

	msg := push.Message{
		Title: fmt.Sprintf("%s nudged you!", senderName),
		Body:  fmt.Sprintf("About %q in %s", in.ItemTitle, spaceName),
		Data: map[string]string{
			"type":    "ping",
			"itemId":  in.ItemID,
			"spaceId": in.SpaceID,
			"fromUid": in.FromUID,
		},
		ChannelID: push.ChannelNudges,
	}

	success, failure := s.deliverer.Deliver(ctx, refs, msg)
	s.log.Info("ping sent",
		zap.String("from", in.FromUID), zap.String("to", in.ToUID),
		zap.Int("success", success), zap.Int("failure", failure))

	return PingResult{Sent: true, SuccessCount: success, FailureCount: failure}, nil
}
