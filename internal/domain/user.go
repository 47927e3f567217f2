package domain

import "time"

// Roles known to the storefront
const (
	RoleAdmin    = "admin"    // Back-office operator
	RoleKonsumen = "konsumen" // Customer
)

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                           // Primary key
	Username  string    `gorm:"size:100;not null" json:"username"`              // Display name
	Email     string    `gorm:"size:191;uniqueIndex;not null" json:"email"`     // Unique login email
	Password  string    `gorm:"not null" json:"-"`                              // Hashed password
	Role      string    `gorm:"size:20;not null;default:konsumen" json:"role"`  // Role: admin or konsumen
	GoogleID  *string   `gorm:"size:191;uniqueIndex" json:"googleId,omitempty"` // Set for Google sign-in accounts
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joinedAt"`                 // Registration time
	UpdatedAt time.Time `json:"updatedAt"`                                      // Last profile change
}

// IsAdmin reports whether the user may use the back-office
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
