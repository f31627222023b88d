package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nudge-notify/internal/model"
	"nudge-notify/internal/push"
	"nudge-notify/internal/repository"
)

type pingFixture struct {
	db     *gorm.DB
	sender *fakeSender
	svc    *PingService
}

func newPingFixture(t *testing.T) *pingFixture {
	t.Helper()

	db := newTestDB(t)
	sender := &fakeSender{results: map[string]push.Result{}}
	users := repository.NewUserRepository(db)
	log := zap.NewNop()

	return &pingFixture{
		db:     db,
		sender: sender,
		svc:    NewPingService(users, NewDeliverer(sender, users, log), log),
	}
}

func (f *pingFixture) seedUser(t *testing.T, uid, displayName string, tokens ...string) {
	t.Helper()
	require.NoError(t, f.db.Create(&model.User{UID: uid, Handle: uid, DisplayName: displayName}).Error)
	for _, token := range tokens {
		require.NoError(t, f.db.Create(&model.DeviceToken{UserUID: uid, Token: token}).Error)
	}
}

func TestPingDeliversToAllTargetTokens(t *testing.T) {
	t.Parallel()

	f := newPingFixture(t)
	f.seedUser(t, "alice", "Alice", "tok-1")
	f.seedUser(t, "bob", "Bob", "tok-2", "tok-3")

	result, err := f.svc.Send(context.Background(), PingInput{
		FromUID: "alice", ToUID: "bob",
		SpaceID: "sp-1", ItemID: "item-1",
		ItemTitle: "buy milk", SpaceName: "Groceries",
	})
	require.NoError(t, err)

	assert.True(t, result.Sent)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.FailureCount)

	require.Len(t, f.sender.calls, 1)
	assert.ElementsMatch(t, []string{"tok-2", "tok-3"}, f.sender.calls[0])
	assert.Equal(t, "Alice nudged you!", f.sender.messages[0].Title)
	assert.Equal(t, `About "buy milk" in Groceries`, f.sender.messages[0].Body)
	assert.Equal(t, push.ChannelNudges, f.sender.messages[0].ChannelID)
	assert.Equal(t, "alice", f.sender.messages[0].Data["fromUid"])
}

func TestPingToUserWithoutTokens(t *testing.T) {
	t.Parallel()

	f := newPingFixture(t)
	f.seedUser(t, "alice", "Alice", "tok-1")
	f.seedUser(t, "bob", "Bob")

	result, err := f.svc.Send(context.Background(), PingInput{
		FromUID: "alice", ToUID: "bob",
		SpaceID: "sp-1", ItemID: "item-1", ItemTitle: "buy milk",
	})
	require.NoError(t, err)

	assert.False(t, result.Sent)
	assert.Equal(t, "No FCM tokens", result.Reason)
	assert.Empty(t, f.sender.calls)
}

func TestPingToMissingUser(t *testing.T) {
	t.Parallel()

	f := newPingFixture(t)
	f.seedUser(t, "alice", "Alice", "tok-1")

	result, err := f.svc.Send(context.Background(), PingInput{
		FromUID: "alice", ToUID: "nobody",
		SpaceID: "sp-1", ItemID: "item-1", ItemTitle: "buy milk",
	})
	require.NoError(t, err)

	assert.False(t, result.Sent)
	assert.Equal(t, "User not found", result.Reason)
	assert.Empty(t, f.sender.calls)
}

func TestPingFallsBackToGenericSenderName(t *testing.T) {
	t.Parallel()

	f := newPingFixture(t)
	f.seedUser(t, "bob", "Bob", "tok-2")

	result, err := f.svc.Send(context.Background(), PingInput{
		FromUID: "stranger", ToUID: "bob",
		SpaceID: "sp-1", ItemID: "item-1", ItemTitle: "buy milk",
	})
	require.NoError(t, err)

	assert.True(t, result.Sent)
	assert.Equal(t, "Someone nudged you!", f.sender.messages[0].Title)
	// Missing space name falls back to a generic label too.
	assert.Equal(t, `About "buy milk" in a space`, f.sender.messages[0].Body)
}

func TestPingPrunesInvalidTargetTokens(t *testing.T) {
	t.Parallel()

	f := newPingFixture(t)
	f.seedUser(t, "alice", "Alice")
	f.seedUser(t, "bob", "Bob", "tok-dead", "tok-live")
	f.sender.results["tok-dead"] = push.Result{Invalid: true, Err: errors.New("unregistered")}

	result, err := f.svc.Send(context.Background(), PingInput{
		FromUID: "alice", ToUID: "bob",
		SpaceID: "sp-1", ItemID: "item-1", ItemTitle: "buy milk",
	})
	require.NoError(t, err)

	assert.True(t, result.Sent)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)

	var tokens []string
	require.NoError(t, f.db.Model(&model.DeviceToken{}).Where("user_uid = ?", "bob").Pluck("token", &tokens).Error)
	assert.Equal(t, []string{"tok-live"}, tokens)
}
