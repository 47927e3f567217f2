package api

import (
	"blangkis/internal/domain" // Importing domain models
	"net/http"                 // HTTP status codes
	"strconv"                  // String conversion
	"strings"                  // String manipulation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/datatypes"            // JSON columns
	"gorm.io/gorm"                 // GORM ORM library
)

// ProductRequest is the body of product create and update; nil fields keep their value
type ProductRequest struct {
	Name           *string        `json:"name"`           // Product name
	Description    *string        `json:"description"`    // Long description
	Price          *float64       `json:"price"`          // Price before discount
	OriginalPrice  *float64       `json:"originalPrice"`  // Cost basis
	Discount       *float64       `json:"discount"`       // Discount percent
	Stock          *int           `json:"stock"`          // Units on hand
	CategoryID     *uint          `json:"categoryId"`     // Category reference
	Images         *[]string      `json:"images"`         // Image URLs
	Specifications map[string]any `json:"specifications"` // Free-form specs
	Features       *[]string      `json:"features"`       // Bullet features
	Rating         *float64       `json:"rating"`         // Average rating
	Reviews        *int           `json:"reviews"`        // Number of reviews
}

// validate returns a validation message, or "" when the values present are acceptable
func (r ProductRequest) validate() string {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return "Nama produk tidak boleh kosong"
	}
	if r.Price != nil && *r.Price < 0 {
		return "Harga tidak boleh negatif"
	}
	if r.OriginalPrice != nil && *r.OriginalPrice < 0 {
		return "Harga modal tidak boleh negatif"
	}
	if r.Discount != nil && (*r.Discount < 0 || *r.Discount > 100) {
		return "Diskon harus antara 0 dan 100"
	}
	if r.Stock != nil && *r.Stock < 0 {
		return "Stok tidak boleh negatif"
	}
	if r.Rating != nil && (*r.Rating < 0 || *r.Rating > 5) {
		return "Rating harus antara 0 dan 5"
	}
	return ""
}

// apply merges the present fields into p and returns the columns it touched
func (r ProductRequest) apply(p *domain.Product) []string {
	var cols []string
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
		cols = append(cols, "name")
	}
	if r.Description != nil {
		p.Description = *r.Description
		cols = append(cols, "description")
	}
	if r.Price != nil {
		p.Price = *r.Price
		cols = append(cols, "price")
	}
	if r.OriginalPrice != nil {
		cost := *r.OriginalPrice
		p.OriginalPrice = &cost
		cols = append(cols, "original_price")
	}
	if r.Discount != nil {
		p.Discount = *r.Discount
		cols = append(cols, "discount")
	}
	if r.Stock != nil {
		p.Stock = *r.Stock
		cols = append(cols, "stock")
	}
	if r.CategoryID != nil {
		p.CategoryID = *r.CategoryID
		cols = append(cols, "category_id")
	}
	if r.Images != nil {
		p.Images = datatypes.NewJSONSlice(*r.Images)
		cols = append(cols, "images")
	}
	if r.Specifications != nil {
		p.Specifications = datatypes.JSONMap(r.Specifications)
		cols = append(cols, "specifications")
	}
	if r.Features != nil {
		p.Features = datatypes.NewJSONSlice(*r.Features)
		cols = append(cols, "features")
	}
	if r.Rating != nil {
		p.Rating = *r.Rating
		cols = append(cols, "rating")
	}
	if r.Reviews != nil {
		p.Reviews = *r.Reviews
		cols = append(cols, "reviews")
	}
	return cols
}

// categoryExists reports whether id names a category
func categoryExists(db *gorm.DB, id uint) (bool, error) {
	var count int64
	err := db.Model(&domain.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ListProductsHandler returns products, optionally filtered by category and name
func ListProductsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&domain.Product{}) // Start building the query
		if cat := c.Query("category"); cat != "" {
			id, err := strconv.ParseUint(cat, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "ID kategori tidak valid"})
				return
			}
			query = query.Where("category_id = ?", id) // Filter by category
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%") // Filter by name
		}
		var products []domain.Product
		if err := query.Order("id asc").Find(&products).Error; err != nil {
			serverError(c, "Gagal mengambil produk", err, nil)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GetProductHandler returns one product
func GetProductHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var product domain.Product
		if err := db.First(&product, id).Error; err != nil {
			respondNotFoundOr500(c, err, "Produk tidak ditemukan")
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// CreateProductHandler adds a product
func CreateProductHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Data produk tidak valid"})
			return
		}
		if req.Name == nil || req.Price == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nama dan harga produk wajib diisi"})
			return
		}
		if msg := req.validate(); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		if req.CategoryID != nil {
			exists, err := categoryExists(db, *req.CategoryID)
			if err != nil {
				serverError(c, "Gagal memeriksa kategori", err, nil)
				return
			}
			if !exists {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Kategori tidak ditemukan"})
				return
			}
		}
		var product domain.Product
		req.apply(&product)
		if err := db.Create(&product).Error; err != nil {
			serverError(c, "Gagal membuat produk", err, logrus.Fields{"name": product.Name})
			return
		}
		logrus.WithFields(logrus.Fields{
			"product_id": product.ID,    // Product ID
			"name":       product.Name,  // Product name
			"stock":      product.Stock, // Initial stock
		}).Info("Product created")
		c.JSON(http.StatusCreated, product)
	}
}

// UpdateProductHandler merges the given fields into a product
func UpdateProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var req ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Data produk tidak valid"})
			return
		}
		if msg := req.validate(); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		var product domain.Product
		if err := db.First(&product, id).Error; err != nil {
			respondNotFoundOr500(c, err, "Produk tidak ditemukan")
			return
		}
		if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
			exists, err := categoryExists(db, *req.CategoryID)
			if err != nil {
				serverError(c, "Gagal memeriksa kategori", err, nil)
				return
			}
			if !exists {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Kategori tidak ditemukan"})
				return
			}
		}
		// Write only the requested columns, stock may be moving under concurrent checkouts
		if cols := req.apply(&product); len(cols) > 0 {
			if err := db.Model(&product).Select(cols).Updates(&product).Error; err != nil {
				serverError(c, "Gagal memperbarui produk", err, logrus.Fields{"product_id": id})
				return
			}
		}
		if err := db.First(&product, id).Error; err != nil {
			serverError(c, "Gagal memuat produk", err, logrus.Fields{"product_id": id})
			return
		}
		invalidateCache(c.Request.Context(), rdb, reportCachePrefix) // Names and cost basis feed the reports
		logrus.WithField("product_id", id).Info("Product updated")
		c.JSON(http.StatusOK, product)
	}
}

// DeleteProductHandler removes a product and returns it
func DeleteProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var product domain.Product
		if err := db.First(&product, id).Error; err != nil {
			respondNotFoundOr500(c, err, "Produk tidak ditemukan")
			return
		}
		if err := db.Delete(&product).Error; err != nil {
			serverError(c, "Gagal menghapus produk", err, logrus.Fields{"product_id": id})
			return
		}
		invalidateCache(c.Request.Context(), rdb, reportCachePrefix)
		logrus.WithField("product_id", id).Info("Product deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Produk berhasil dihapus", "product": product})
	}
}
