package models

import "time"

// User roles. A registration always starts as RoleUser; only an admin
// action can promote an account.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents the user model in the database. Rows are never
// hard-deleted so prediction log ownership stays referentially intact.
type User struct {
	Base
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"not null" json:"-"`
	Role             string     `gorm:"not null;default:user" json:"role"`
	CanDeleteOwnLogs bool       `gorm:"not null;default:false" json:"can_delete_own_logs"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP      string     `gorm:"size:64" json:"last_login_ip,omitempty"`
	LastLoginDevice  string     `gorm:"size:255" json:"last_login_device,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
