package model

import "time"

// Space is a named group of users sharing items.
type Space struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Emoji     string
	OwnerUID  string        `gorm:"index"`
	Members   []SpaceMember `gorm:"foreignKey:SpaceID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SpaceMember is one entry of a space's member map.
type SpaceMember struct {
	ID       uint   `gorm:"primaryKey"`
	SpaceID  string `gorm:"index:idx_space_member,unique"`
	UserUID  string `gorm:"index:idx_space_member,unique"`
	Role     string
	JoinedAt time.Time
}

// Title renders the notification title for the space, "<emoji> <name>" trimmed.
func (s *Space) Title() string {
	if s.Emoji == "" {
		return s.Name
	}
	return s.Emoji + " " + s.Name
}
