package model

import "time"

// NotifyStatus tracks whether a push was sent for an item's reminder.
type NotifyStatus string

const (
	NotifyNone      NotifyStatus = "none"
	NotifyScheduled NotifyStatus = "scheduled"
	NotifySent      NotifyStatus = "sent"
	NotifyCancelled NotifyStatus = "cancelled"
)

// ItemType distinguishes personal reminders from ones shared in a space.
type ItemType string

const (
	ItemPersonal ItemType = "personal"
	ItemSpace    ItemType = "space"
)

// Item represents a single reminder, personal or shared.
type Item struct {
	ID           string   `gorm:"primaryKey"`
	Type         ItemType `gorm:"index"`
	OwnerUID     string   `gorm:"index"`
	SpaceID      string   `gorm:"index"`
	Title        string
	Details      string
	IsCompleted  bool `gorm:"default:false"`
	CompletedAt  *time.Time
	RemindAt     *time.Time `gorm:"index"`
	Timezone     string
	NotifyStatus NotifyStatus `gorm:"index;default:'none'"`
	NotifyJobID  string
	CreatedByUID string
	UpdatedByUID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasReminder reports whether the item carries a reminder time.
func (i *Item) HasReminder() bool {
	return i != nil && i.RemindAt != nil
}
