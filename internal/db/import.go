package db

import (
	"blangkis/internal/domain" // Importing domain models
	"bytes"                    // Raw JSON inspection
	"encoding/json"            // Legacy file decoding
	"errors"                   // Error inspection
	"fmt"                      // Error wrapping
	"io/fs"                    // Missing file detection
	"os"                       // File access
	"path/filepath"            // Path joining
	"strconv"                  // Loose number parsing
	"strings"                  // String helpers
	"time"                     // Timestamps

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/datatypes"          // JSON columns
	"gorm.io/gorm"               // GORM ORM library
)

// Legacy file names inside the data directory
const (
	UsersFile      = "users.json"
	CategoriesFile = "categories.json"
	ProductsFile   = "products_clean.json"
	OrdersFile     = "orders.json"
)

// ImportResult counts what an import inserted
type ImportResult struct {
	Users      int `json:"users"`
	Categories int `json:"categories"`
	Products   int `json:"products"`
	Orders     int `json:"orders"`
	Skipped    int `json:"skipped"` // Records whose id already exists
}

// looseNumber accepts both JSON numbers and numeric strings
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", b)
	}
	*n = looseNumber(v)
	return nil
}

type legacyUser struct {
	ID       looseNumber `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     string      `json:"role"`
	GoogleID string      `json:"googleId"`
	JoinedAt string      `json:"joinedAt"`
}

type legacyCategory struct {
	ID   looseNumber `json:"id"`
	Name string      `json:"name"`
}

type legacyProduct struct {
	ID             looseNumber     `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          looseNumber     `json:"price"`
	OriginalPrice  *looseNumber    `json:"originalPrice"`
	Discount       looseNumber     `json:"discount"`
	Stock          looseNumber     `json:"stock"`
	CategoryID     looseNumber     `json:"categoryId"`
	Images         []string        `json:"images"`
	Specifications json.RawMessage `json:"specifications"`
	Features       []string        `json:"features"`
	Rating         looseNumber     `json:"rating"`
	Reviews        looseNumber     `json:"reviews"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
}

type legacyOrderItem struct {
	ProductID looseNumber `json:"productId"`
	Quantity  looseNumber `json:"quantity"`
	Price     looseNumber `json:"price"`
}

type legacyOrder struct {
	ID           looseNumber       `json:"id"`
	OrderNumber  string            `json:"orderNumber"`
	UserID       looseNumber       `json:"userId"`
	Items        []legacyOrderItem `json:"items"`
	Shipping     domain.Shipping   `json:"shipping"`
	Payment      domain.Payment    `json:"payment"`
	Status       string            `json:"status"`
	Subtotal     looseNumber       `json:"subtotal"`
	ShippingCost looseNumber       `json:"shippingCost"`
	Total        looseNumber       `json:"total"`
	PaymentProof string            `json:"paymentProof"`
	CreatedAt    string            `json:"createdAt"`
	UpdatedAt    string            `json:"updatedAt"`
}

// readLegacy decodes one legacy file. A missing file yields found=false.
func readLegacy(dir, name string, dest any) (bool, error) {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return true, nil
}

func parseLegacyTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(time.DateTime, s, time.UTC); err == nil {
		return t
	}
	return time.Now()
}

func hashLegacyPassword(pw string) (string, error) {
	if strings.HasPrefix(pw, "$2a$") || strings.HasPrefix(pw, "$2b$") {
		return pw, nil // Already a bcrypt hash
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(hash), err
}

// existingIDs returns the primary keys already present for model
func existingIDs(tx *gorm.DB, model any) (map[uint]bool, error) {
	var ids []uint
	if err := tx.Model(model).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	return seen, nil
}

// ImportJSON copies the legacy flat JSON files in dir into the database.
// Everything runs in one transaction; records whose id already exists are skipped.
func ImportJSON(db *gorm.DB, dir string) (ImportResult, error) {
	var (
		res        ImportResult
		users      []legacyUser
		categories []legacyCategory
		products   []legacyProduct
		orders     []legacyOrder
	)
	// Decode every file before touching the database
	for _, f := range []struct {
		name string
		dest any
	}{
		{UsersFile, &users},
		{CategoriesFile, &categories},
		{ProductsFile, &products},
		{OrdersFile, &orders},
	} {
		found, err := readLegacy(dir, f.name, f.dest)
		if err != nil {
			return res, err // Malformed file aborts the whole import
		}
		if !found {
			logrus.WithField("file", f.name).Warn("Legacy file not found, skipping")
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		seen, err := existingIDs(tx, &domain.User{})
		if err != nil {
			return err
		}
		for _, u := range users {
			if seen[uint(u.ID)] {
				res.Skipped++
				continue
			}
			hash, err := hashLegacyPassword(u.Password)
			if err != nil {
				return err
			}
			role := u.Role
			if role != domain.RoleAdmin {
				role = domain.RoleKonsumen
			}
			user := domain.User{
				ID:       uint(u.ID),
				Username: u.Username,
				Email:    strings.ToLower(strings.TrimSpace(u.Email)),
				Password: hash,
				Role:     role,
				JoinedAt: parseLegacyTime(u.JoinedAt),
			}
			if u.GoogleID != "" {
				user.GoogleID = &u.GoogleID
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("user %d: %w", user.ID, err)
			}
			res.Users++
		}

		if seen, err = existingIDs(tx, &domain.Category{}); err != nil {
			return err
		}
		for _, c := range categories {
			if seen[uint(c.ID)] {
				res.Skipped++
				continue
			}
			if err := tx.Create(&domain.Category{ID: uint(c.ID), Name: c.Name}).Error; err != nil {
				return fmt.Errorf("category %d: %w", uint(c.ID), err)
			}
			res.Categories++
		}

		if seen, err = existingIDs(tx, &domain.Product{}); err != nil {
			return err
		}
		for _, p := range products {
			if seen[uint(p.ID)] {
				res.Skipped++
				continue
			}
			product := domain.Product{
				ID:          uint(p.ID),
				Name:        p.Name,
				Description: p.Description,
				Price:       float64(p.Price),
				Discount:    float64(p.Discount),
				Stock:       int(p.Stock),
				CategoryID:  uint(p.CategoryID),
				Images:      datatypes.NewJSONSlice(p.Images),
				Features:    datatypes.NewJSONSlice(p.Features),
				Rating:      float64(p.Rating),
				Reviews:     int(p.Reviews),
				CreatedAt:   parseLegacyTime(p.CreatedAt),
				UpdatedAt:   parseLegacyTime(p.UpdatedAt),
			}
			if p.OriginalPrice != nil {
				cost := float64(*p.OriginalPrice)
				product.OriginalPrice = &cost
			}
			var specs map[string]any
			if len(p.Specifications) > 0 && json.Unmarshal(p.Specifications, &specs) == nil {
				product.Specifications = datatypes.JSONMap(specs)
			}
			if err := tx.Create(&product).Error; err != nil {
				return fmt.Errorf("product %d: %w", product.ID, err)
			}
			res.Products++
		}

		if seen, err = existingIDs(tx, &domain.Order{}); err != nil {
			return err
		}
		for _, o := range orders {
			if seen[uint(o.ID)] {
				res.Skipped++
				continue
			}
			order := domain.Order{
				ID:           uint(o.ID),
				OrderNumber:  o.OrderNumber,
				UserID:       uint(o.UserID),
				Shipping:     o.Shipping,
				Payment:      o.Payment,
				Status:       o.Status,
				Subtotal:     float64(o.Subtotal),
				ShippingCost: float64(o.ShippingCost),
				Total:        float64(o.Total),
				PaymentProof: o.PaymentProof,
				CreatedAt:    parseLegacyTime(o.CreatedAt),
				UpdatedAt:    parseLegacyTime(o.UpdatedAt),
			}
			if order.OrderNumber == "" {
				order.OrderNumber = "LEGACY-" + strconv.FormatUint(uint64(order.ID), 10)
			}
			if order.Status == "" {
				order.Status = domain.StatusMenungguPembayaran
			}
			for _, it := range o.Items {
				order.Items = append(order.Items, domain.OrderItem{
					ProductID: uint(it.ProductID),
					Quantity:  int(it.Quantity),
					Price:     float64(it.Price),
				})
			}
			if err := tx.Create(&order).Error; err != nil {
				return fmt.Errorf("order %d: %w", order.ID, err)
			}
			res.Orders++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}
