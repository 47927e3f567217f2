package api

import (
	"blangkis/internal/domain" // Importing domain models
	"net/http"                 // HTTP status codes
	"strings"                  // String manipulation

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// CategoryRequest is the body of category create and update; nil fields keep their value
type CategoryRequest struct {
	Name *string `json:"name"` // Category name
}

// productCounts counts products per category with a single grouped query
func productCounts(db *gorm.DB) (map[uint]int64, error) {
	var rows []struct {
		CategoryID uint  // Category
		Count      int64 // Products in it
	}
	err := db.Model(&domain.Product{}).
		Select("category_id, COUNT(*) AS count").
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.CategoryID] = r.Count
	}
	return counts, nil
}

// categoryNameTaken reports whether another category already uses name
func categoryNameTaken(db *gorm.DB, name string, exceptID uint) (bool, error) {
	var count int64
	q := db.Model(&domain.Category{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// ListCategoriesHandler returns every category with its product count
func ListCategoriesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var categories []domain.Category
		if err := db.Order("name asc").Find(&categories).Error; err != nil {
			serverError(c, "Gagal mengambil kategori", err, nil)
			return
		}
		counts, err := productCounts(db)
		if err != nil {
			serverError(c, "Gagal menghitung produk", err, nil)
			return
		}
		for i := range categories {
			categories[i].ProductCount = counts[categories[i].ID] // Zero when empty
		}
		c.JSON(http.StatusOK, categories)
	}
}

// GetCategoryHandler returns one category
func GetCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var category domain.Category
		if err := db.First(&category, id).Error; err != nil {
			respondNotFoundOr500(c, err, "Kategori tidak ditemukan")
			return
		}
		if err := db.Model(&domain.Product{}).Where("category_id = ?", id).Count(&category.ProductCount).Error; err != nil {
			serverError(c, "Gagal menghitung produk", err, nil)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

// CreateCategoryHandler adds a category
func CreateCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == nil || strings.TrimSpace(*req.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nama kategori wajib diisi"})
			return
		}
		name := strings.TrimSpace(*req.Name)
		taken, err := categoryNameTaken(db, name, 0)
		if err != nil {
			serverError(c, "Gagal memeriksa kategori", err, nil)
			return
		}
		if taken {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Kategori sudah ada"})
			return
		}
		category := domain.Category{Name: name}
		if err := db.Create(&category).Error; err != nil {
			serverError(c, "Gagal membuat kategori", err, logrus.Fields{"name": name})
			return
		}
		logrus.WithFields(logrus.Fields{
			"category_id": category.ID, // Category ID
			"name":        name,        // Category name
		}).Info("Category created")
		c.JSON(http.StatusCreated, category)
	}
}

// UpdateCategoryHandler renames a category
func UpdateCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Data kategori tidak valid"})
			return
		}
		var category domain.Category
		if err := db.First(&category, id).Error; err != nil {
			respondNotFoundOr500(c, err, "Kategori tidak ditemukan")
			return
		}
		// Missing or blank name keeps the previous one
		if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
			name := strings.TrimSpace(*req.Name)
			taken, err := categoryNameTaken(db, name, id)
			if err != nil {
				serverError(c, "Gagal memeriksa kategori", err, nil)
				return
			}
			if taken {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Kategori sudah ada"})
				return
			}
			category.Name = name
		}
		if err := db.Save(&category).Error; err != nil {
			serverError(c, "Gagal memperbarui kategori", err, logrus.Fields{"category_id": id})
			return
		}
		if err := db.Model(&domain.Product{}).Where("category_id = ?", id).Count(&category.ProductCount).Error; err != nil {
			serverError(c, "Gagal menghitung produk", err, nil)
			return
		}
		logrus.WithField("category_id", id).Info("Category updated")
		c.JSON(http.StatusOK, category)
	}
}

// DeleteCategoryHandler removes a category and returns it. Products keep their loose reference.
func DeleteCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var category domain.Category
		if err := db.First(&category, id).Error; err != nil {
			respondNotFoundOr500(c, err, "Kategori tidak ditemukan")
			return
		}
		if err := db.Delete(&category).Error; err != nil {
			serverError(c, "Gagal menghapus kategori", err, logrus.Fields{"category_id": id})
			return
		}
		logrus.WithField("category_id", id).Info("Category deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Kategori berhasil dihapus", "category": category})
	}
}
