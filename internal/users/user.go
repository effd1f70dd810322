// Package users persists registered accounts.
package users

import "github.com/kbukum/miroapi/internal/database"

// User is a registered account. Password holds the hash and never leaves
// the process.
type User struct {
	database.BaseModel
	Username    string `gorm:"size:20;uniqueIndex;not null" json:"username"`
	Password    string `gorm:"not null" json:"-"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	FirstName   string `gorm:"not null" json:"first_name"`
	LastName    string `gorm:"not null" json:"last_name"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser bool   `gorm:"not null;default:false" json:"is_superuser"`
	IsStaff     bool   `gorm:"not null;default:false" json:"is_staff"`
}

func (User) TableName() string { return "users" }
