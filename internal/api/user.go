package api

import (
	"blangkis/internal/domain" // Importing domain models
	"blangkis/internal/utils"  // Utility functions
	"net/http"                 // HTTP status codes
	"strconv"                  // String conversion
	"time"                     // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// UserRequest is the admin body for user create and update; nil fields keep their value
type UserRequest struct {
	Username *string `json:"username"` // Display name
	Email    *string `json:"email"`    // Login email
	Password *string `json:"password"` // Plain password, hashed before storing
	Role     *string `json:"role"`     // admin or konsumen
}

// userListPage is the cached shape of one page of users
type userListPage struct {
	Users      []domain.User `json:"users"`       // List of users
	Page       int           `json:"page"`        // Current page
	PageSize   int           `json:"page_size"`   // Page size
	Total      int64         `json:"total"`       // Total number of users
	TotalPages int           `json:"total_pages"` // Total pages
}

func validRole(role string) bool {
	return role == domain.RoleAdmin || role == domain.RoleKonsumen
}

// ListUsersHandler returns users page by page, optionally filtered by role
func ListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pagination(c)
		role := c.Query("role")
		// Create a cache key based on pagination parameters
		cacheKey := usersCachePrefix + "role=" + role + ":page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached userListPage
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"users":       cached.Users,      // List of users
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total number of users
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,              // Indicate response is from cache
			})
			return
		}
		offset := (page - 1) * pageSize   // Calculate offset for pagination
		query := db.Model(&domain.User{}) // Start building the query
		if role != "" {
			query = query.Where("role = ?", role) // Filter by role
		}
		var total int64 // Total user count
		if err := query.Count(&total).Error; err != nil {
			serverError(c, "Gagal menghitung pengguna", err, nil)
			return
		}
		users := []domain.User{} // Slice to hold users
		if err := query.Order("id asc").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
			serverError(c, "Gagal mengambil pengguna", err, nil)
			return
		}
		// The total number of pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, userListPage{
			Users: users, Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages,
		}, 60*time.Second)
		c.JSON(http.StatusOK, gin.H{
			"users":       users,      // List of users
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of users
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Indicate response is not from cache
		})
	}
}

// GetUserHandler returns one user
func GetUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var user domain.User
		if err := db.First(&user, id).Error; err != nil {
			respondNotFoundOr500(c, err, "Pengguna tidak ditemukan")
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// CreateUserHandler lets an admin add an account with any role
func CreateUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Data pengguna tidak valid"})
			return
		}
		if req.Username == nil || req.Email == nil || req.Password == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username, email, dan password wajib diisi"})
			return
		}
		user := domain.User{Role: domain.RoleKonsumen}
		if req.Role != nil {
			if !validRole(*req.Role) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Role tidak valid"})
				return
			}
			user.Role = *req.Role
		}
		_, msg, err := applyAccountChanges(db, &user, req.Username, req.Email, req.Password)
		if err != nil {
			serverError(c, "Gagal membuat pengguna", err, nil)
			return
		}
		if msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		if err := db.Create(&user).Error; err != nil {
			serverError(c, "Gagal membuat pengguna", err, logrus.Fields{"email": user.Email})
			return
		}
		invalidateCache(c.Request.Context(), rdb, usersCachePrefix)
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,   // User ID
			"role":    user.Role, // Role
		}).Info("User created by admin")
		c.JSON(http.StatusCreated, user)
	}
}

// UpdateUserHandler merges the given fields into a user
func UpdateUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var req UserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Data pengguna tidak valid"})
			return
		}
		var user domain.User
		if err := db.First(&user, id).Error; err != nil {
			respondNotFoundOr500(c, err, "Pengguna tidak ditemukan")
			return
		}
		var roleCols []string
		if req.Role != nil {
			if !validRole(*req.Role) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Role tidak valid"})
				return
			}
			user.Role = *req.Role
			roleCols = []string{"role"}
		}
		cols, msg, err := applyAccountChanges(db, &user, req.Username, req.Email, req.Password)
		if err != nil {
			serverError(c, "Gagal memperbarui pengguna", err, logrus.Fields{"user_id": id})
			return
		}
		if msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		if cols = append(cols, roleCols...); len(cols) > 0 {
			if err := db.Model(&user).Select(cols).Updates(&user).Error; err != nil {
				serverError(c, "Gagal memperbarui pengguna", err, logrus.Fields{"user_id": id})
				return
			}
			invalidateCache(c.Request.Context(), rdb, usersCachePrefix)
			invalidateCache(c.Request.Context(), rdb, reportCachePrefix) // Usernames appear in reports
		}
		logrus.WithField("user_id", id).Info("User updated by admin")
		c.JSON(http.StatusOK, user)
	}
}

// DeleteUserHandler removes a user and returns it. Admins cannot delete themselves.
func DeleteUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		if id == c.GetUint("userID") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tidak dapat menghapus akun sendiri"})
			return
		}
		var user domain.User
		if err := db.First(&user, id).Error; err != nil {
			respondNotFoundOr500(c, err, "Pengguna tidak ditemukan")
			return
		}
		if err := db.Delete(&user).Error; err != nil {
			serverError(c, "Gagal menghapus pengguna", err, logrus.Fields{"user_id": id})
			return
		}
		invalidateCache(c.Request.Context(), rdb, usersCachePrefix)
		invalidateCache(c.Request.Context(), rdb, reportCachePrefix)
		logrus.WithField("user_id", id).Info("User deleted by admin")
		c.JSON(http.StatusOK, gin.H{"message": "Pengguna berhasil dihapus", "user": user})
	}
}

