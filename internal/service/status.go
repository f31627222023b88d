package service

import (
	"time"

	"nudge-notify/internal/model"
)

// DeriveStatus recomputes an item's notification status from its before/after
// states. It returns the computed status and whether one was computed at all;
// callers persist it only when it differs from the current status.
//
// The rules, evaluated in order:
//  1. future reminder, not yet scheduled      -> scheduled
//  2. past reminder                           -> nothing (the dispatcher owns it)
//  3. reminder removed while scheduled        -> cancelled
//  4. never had a reminder                    -> none
//
// Pure function of its inputs, so redelivery of the same write is harmless.
func DeriveStatus(before, after *model.Item, now time.Time) (model.NotifyStatus, bool) {
	if after == nil {
		// Deletion, nothing to derive.
		return "", false
	}

	if after.RemindAt != nil {
		if after.RemindAt.After(now) {
			if after.NotifyStatus != model.NotifyScheduled {
				return model.NotifyScheduled, true
			}
			return "", false
		}
		// Reminder time already passed; leave the transition to the scan.
		return "", false
	}

	if before.HasReminder() {
		if after.NotifyStatus == model.NotifyScheduled {
			return model.NotifyCancelled, true
		}
		return "", false
	}
	return model.NotifyNone, true
}
