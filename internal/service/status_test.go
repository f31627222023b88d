package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nudge-notify/internal/model"
)

func TestDeriveStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(30 * time.Second)
	past := now.Add(-10 * time.Second)

	tests := []struct {
		name       string
		before     *model.Item
		after      *model.Item
		wantStatus model.NotifyStatus
		wantOK     bool
	}{
		{
			name:       "future reminder on new item becomes scheduled",
			before:     nil,
			after:      &model.Item{RemindAt: &future, NotifyStatus: model.NotifyNone},
			wantStatus: model.NotifyScheduled,
			wantOK:     true,
		},
		{
			name:       "future reminder already scheduled stays put",
			before:     &model.Item{RemindAt: &future, NotifyStatus: model.NotifyScheduled},
			after:      &model.Item{RemindAt: &future, NotifyStatus: model.NotifyScheduled},
			wantOK:     false,
		},
		{
			name:   "past reminder is left for the dispatcher",
			before: &model.Item{NotifyStatus: model.NotifyNone},
			after:  &model.Item{RemindAt: &past, NotifyStatus: model.NotifyNone},
			wantOK: false,
		},
		{
			name:       "removing the reminder cancels a scheduled item",
			before:     &model.Item{RemindAt: &future, NotifyStatus: model.NotifyScheduled},
			after:      &model.Item{NotifyStatus: model.NotifyScheduled},
			wantStatus: model.NotifyCancelled,
			wantOK:     true,
		},
		{
			name:       "never had a reminder derives none",
			before:     &model.Item{NotifyStatus: model.NotifyNone},
			after:      &model.Item{NotifyStatus: model.NotifyNone},
			wantStatus: model.NotifyNone,
			wantOK:     true,
		},
		{
			name:       "item created without a reminder derives none",
			before:     nil,
			after:      &model.Item{NotifyStatus: model.NotifyNone},
			wantStatus: model.NotifyNone,
			wantOK:     true,
		},
		{
			name:   "reminder removed after send leaves sent alone",
			before: &model.Item{RemindAt: &past, NotifyStatus: model.NotifySent},
			after:  &model.Item{NotifyStatus: model.NotifySent},
			wantOK: false,
		},
		{
			name:   "deleted item derives nothing",
			before: &model.Item{RemindAt: &future, NotifyStatus: model.NotifyScheduled},
			after:  nil,
			wantOK: false,
		},
		{
			name:       "reminder exactly at evaluation time is not future",
			before:     nil,
			after:      &model.Item{RemindAt: &now, NotifyStatus: model.NotifyNone},
			wantOK:     false,
			wantStatus: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, ok := DeriveStatus(tt.before, tt.after, now)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantStatus, status)
			}
		})
	}
}

func TestDeriveStatusIdempotent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Minute)
	before := &model.Item{NotifyStatus: model.NotifyNone}
	after := &model.Item{RemindAt: &future, NotifyStatus: model.NotifyNone}

	first, firstOK := DeriveStatus(before, after, now)
	second, secondOK := DeriveStatus(before, after, now)

	assert.Equal(t, first, second)
	assert.Equal(t, firstOK, secondOK)
}
