package domain

import "time"

// Category Model
type Category struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                      // Primary key
	Name         string    `gorm:"size:100;uniqueIndex;not null" json:"name"` // Unique category name
	ProductCount int64     `gorm:"-" json:"productCount"`                     // Derived from products on read
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
