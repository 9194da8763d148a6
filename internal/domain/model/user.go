package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// 認証は外部IdP。IDはIdPのsubをそのまま使う。
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	FirstName string    `gorm:"type:varchar(255)" json:"firstName"`
	LastName  string    `gorm:"type:varchar(255)" json:"lastName"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
