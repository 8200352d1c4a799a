package models

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Role = string

type User struct {
	ID   string `gorm:"primaryKey"`
	Name string
	Role Role `gorm:"default:member"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
