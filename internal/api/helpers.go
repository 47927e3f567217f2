package api

import (
	"blangkis/internal/domain" // Importing domain models
	"blangkis/internal/utils"  // Utility functions
	"context"                  // Context for Redis operations
	"errors"                   // Error inspection
	"net/http"                 // HTTP status codes
	"strconv"                  // String conversion

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Cache key prefixes
const (
	reportCachePrefix = "report:"      // Every cached report
	usersCachePrefix  = "admin:users:" // Paginated admin user lists
)

// Sentinel errors of the order workflow
var (
	ErrInsufficientStock = errors.New("stok tidak mencukupi")
	ErrProductNotFound   = errors.New("produk tidak ditemukan")
	ErrStatusConflict    = errors.New("status pesanan berubah, silakan coba lagi")
)

// parseIDParam reads the :id path parameter, answering 400 when it is not a positive integer
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID tidak valid"})
		return 0, false
	}
	return uint(id), true
}

// pagination reads page and page_size query parameters
func pagination(c *gin.Context) (page, pageSize int) {
	page = 1      // Default page number
	pageSize = 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	return page, pageSize
}

// currentUser loads the authenticated user, answering 401 when there is none
func currentUser(c *gin.Context, db *gorm.DB) (domain.User, bool) {
	var user domain.User
	userID, exists := c.Get("userID") // Get userID from context
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return user, false
	}
	if err := db.First(&user, userID).Error; err != nil {
		// Token outlived its user
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Pengguna tidak ditemukan"})
		return user, false
	}
	return user, true
}

// respondNotFoundOr500 maps a lookup error to 404 or 500
func respondNotFoundOr500(c *gin.Context, err error, notFound string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return
	}
	logrus.WithFields(logrus.Fields{
		"path":  c.FullPath(), // Route
		"error": err.Error(),  // Error message
	}).Error("Database lookup failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Terjadi kesalahan pada server"})
}

// serverError logs err and answers 500 without leaking it
func serverError(c *gin.Context, msg string, err error, fields logrus.Fields) {
	entry := logrus.WithField("error", err.Error())
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// invalidateCache drops cached entries under prefix. Failures only cost freshness until TTL.
func invalidateCache(ctx context.Context, rdb *redis.Client, prefix string) {
	if rdb == nil {
		return
	}
	if err := utils.DeleteCachePrefix(ctx, rdb, prefix); err != nil {
		logrus.WithFields(logrus.Fields{
			"prefix": prefix,      // Cache prefix
			"error":  err.Error(), // Error message
		}).Warn("Cache invalidation failed")
	}
}
