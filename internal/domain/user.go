package domain

import "time"

// User is owned by the identity/profile subsystem. The messaging core
// reads it for counterpart display only.
type User struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"column:username;size:100;uniqueIndex" json:"username"`
	AvatarURL string    `gorm:"column:avatar_url;size:500" json:"avatar_url"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name
func (User) TableName() string {
	return "users"
}

// UserRef is the denormalized counterpart projection in summaries
type UserRef struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// PlaceholderUser stands in for a deleted account
func PlaceholderUser(id uint64) *UserRef {
	return &UserRef{ID: id, Username: "Deleted user"}
}

// Ref projects a User for summary rendering
func (u *User) Ref() *UserRef {
	return &UserRef{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}
