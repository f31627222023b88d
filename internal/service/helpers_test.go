package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nudge-notify/internal/model"
	"nudge-notify/internal/push"
)

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled second connection would see its own empty :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Item{},
		&model.Space{},
		&model.SpaceMember{},
		&model.User{},
		&model.DeviceToken{},
	))
	return db
}

// fakeSender records batched sends and answers with configurable per-token
// results; unconfigured tokens succeed.
type fakeSender struct {
	calls    [][]string
	messages []push.Message
	results  map[string]push.Result
	err      error
}

func (f *fakeSender) Send(_ context.Context, tokens []string, msg push.Message) ([]push.Result, error) {
	f.calls = append(f.calls, tokens)
	f.messages = append(f.messages, msg)
	if f.err != nil {
		return nil, f.err
	}
	results := make([]push.Result, len(tokens))
	for i, token := range tokens {
		if r, ok := f.results[token]; ok {
			results[i] = r
		} else {
			results[i] = push.Result{OK: true}
		}
	}
	return results, nil
}
