package model

import "time"

// User stores profile metadata and the set of registered push tokens.
type User struct {
	UID         string `gorm:"primaryKey"`
	Handle      string `gorm:"index"`
	DisplayName string
	Tokens      []DeviceToken `gorm:"foreignKey:UserUID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DeviceToken is one registered FCM token, one row per device/app-install.
type DeviceToken struct {
	ID        uint   `gorm:"primaryKey"`
	UserUID   string `gorm:"index"`
	Token     string `gorm:"uniqueIndex"`
	CreatedAt time.Time
}
