package domain

import (
	"math" // Rounding of discounted prices
	"time"

	"gorm.io/datatypes" // JSON columns
)

// Product Model
type Product struct {
	ID             uint                        `gorm:"primaryKey" json:"id"`               // Primary key
	Name           string                      `gorm:"size:191;not null" json:"name"`      // Product name
	Description    string                      `gorm:"type:text" json:"description"`       // Long description
	Price          float64                     `gorm:"not null" json:"price"`              // Customer price before discount
	OriginalPrice  *float64                    `json:"originalPrice"`                      // Cost basis, nil when unknown
	Discount       float64                     `gorm:"not null;default:0" json:"discount"` // Discount in percent
	Stock          int                         `gorm:"not null;default:0" json:"stock"`    // Units on hand
	CategoryID     uint                        `gorm:"index" json:"categoryId"`            // Loose reference to Category
	Images         datatypes.JSONSlice[string] `json:"images"`                             // Image URLs
	Specifications datatypes.JSONMap           `json:"specifications"`                     // Free-form key/value specs
	Features       datatypes.JSONSlice[string] `json:"features"`                           // Bullet features
	Rating         float64                     `gorm:"not null;default:0" json:"rating"`   // Average rating
	Reviews        int                         `gorm:"not null;default:0" json:"reviews"`  // Number of reviews
	CreatedAt      time.Time                   `json:"createdAt"`
	UpdatedAt      time.Time                   `json:"updatedAt"`
}

// FinalPrice is the price a customer pays for one unit after the discount
func (p Product) FinalPrice() float64 {
	if p.Discount <= 0 {
		return p.Price
	}
	discount := math.Min(p.Discount, 100)
	return math.Round(p.Price * (100 - discount) / 100)
}
