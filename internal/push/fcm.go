package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMSender delivers notifications through Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
}

// NewFCMSender initialises the Firebase app from a service-account file and
// returns a sender bound to its messaging client.
func NewFCMSender(ctx context.Context, credentialsFile string) (*FCMSender, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}

	return &FCMSender{client: client}, nil
}

// Send delivers msg to all tokens with one multicast call and maps each
// provider response onto a Result.
func (s *FCMSender) Send(ctx context.Context, tokens []string, msg Message) ([]Result, error) {
	badge := 1
	multicast := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID:    msg.ChannelID,
				DefaultSound: true,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
					Badge: &badge,
				},
			},
		},
	}

	resp, err := s.client.SendEachForMulticast(ctx, multicast)
	if err != nil {
		return nil, fmt.Errorf("multicast send: %w", err)
	}

	results := make([]Result, len(resp.Responses))
	for i, r := range resp.Responses {
		if r.Success {
			results[i] = Result{OK: true}
			continue
		}
		results[i] = Result{
			Invalid: isDeadToken(r.Error),
			Err:     r.Error,
		}
	}
	return results, nil
}

// isDeadToken reports whether the send error means the token will never work
// again, as opposed to a transient delivery failure.
func isDeadToken(err error) bool {
	if err == nil {
		return false
	}
	return messaging.IsUnregistered(err) || errorutils.IsInvalidArgument(err)
}
