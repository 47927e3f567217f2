package api

import (
	"blangkis/internal/domain" // Importing domain models
	"blangkis/internal/utils"  // Utility functions
	"errors"                   // Error inspection
	"net/http"                 // HTTP status codes
	"net/mail"                 // Email address validation
	"strings"                  // String manipulation
	"time"                     // Token lifetimes

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // Random passwords for Google accounts
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"golang.org/x/crypto/bcrypt"   // Password hashing
	"gorm.io/gorm"                 // GORM ORM library
)

// Request and Response structs
type RegisterRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for Google sign-in, filled from the frontend sign-in widget
type GoogleLoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Google account email
	Name     string `json:"name"`                        // Display name
	GoogleID string `json:"googleId" binding:"required"` // Google subject id
}

// Request struct for profile updates; nil fields keep their value
type ProfileRequest struct {
	Username *string `json:"username"` // New display name
	Email    *string `json:"email"`    // New email
	Password *string `json:"password"` // New password
}

// Response struct for authentication
type AuthResponse struct {
	Message string      `json:"message"` // Human readable result
	Token   string      `json:"token"`   // JWT token
	User    domain.User `json:"user"`    // Signed-in user
}

// normalizeEmail lowercases and validates an email address
func normalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", false
	}
	return email, true
}

// isValidPassword checks the minimum password length
func isValidPassword(password string) bool {
	return len(password) >= 6
}

// emailTaken reports whether another user already owns email
func emailTaken(db *gorm.DB, email string, exceptID uint) (bool, error) {
	var count int64
	q := db.Model(&domain.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// RegisterHandler creates a konsumen account
func RegisterHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username, email, dan password wajib diisi"})
			return
		}
		email, ok := normalizeEmail(req.Email)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Format email tidak valid"})
			return
		}
		// Validate password length
		if !isValidPassword(req.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password minimal 6 karakter"})
			return
		}
		taken, err := emailTaken(db, email, 0)
		if err != nil {
			serverError(c, "Gagal memeriksa email", err, nil)
			return
		}
		if taken {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email sudah terdaftar"})
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			serverError(c, "Gagal memproses password", err, nil)
			return
		}
		user := domain.User{
			Username: strings.TrimSpace(req.Username), // Display name
			Email:    email,                           // Normalized email
			Password: string(hash),                    // Hashed password
			Role:     domain.RoleKonsumen,             // Self-registration never grants admin
		}
		if err := db.Create(&user).Error; err != nil {
			serverError(c, "Gagal mendaftarkan pengguna", err, logrus.Fields{"email": email})
			return
		}
		invalidateCache(c.Request.Context(), rdb, usersCachePrefix) // Admin user list pages
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID, // User ID
			"email":   email,   // Email
		}).Info("User registered")
		c.JSON(http.StatusCreated, gin.H{"message": "Registrasi berhasil", "user": user})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email dan password wajib diisi"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
			// If user not found, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Email atau password salah"})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Email atau password salah"})
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, user.Role, jwtSecret)
		if err != nil {
			serverError(c, "Gagal membuat token", err, logrus.Fields{"user_id": user.ID})
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Message: "Login berhasil", Token: token, User: user})
	}
}

// GoogleLoginHandler signs in with a Google account, creating a konsumen on first use
func GoogleLoginHandler(db *gorm.DB, rdb *redis.Client, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GoogleLoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Data akun Google tidak lengkap"})
			return
		}
		email, ok := normalizeEmail(req.Email)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Format email tidak valid"})
			return
		}
		var user domain.User
		err := db.Where("google_id = ?", req.GoogleID).Or("email = ?", email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// First sign-in: the account gets an unusable random password
			hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
			if err != nil {
				serverError(c, "Gagal memproses password", err, nil)
				return
			}
			name := strings.TrimSpace(req.Name)
			if name == "" {
				name = strings.Split(email, "@")[0]
			}
			googleID := req.GoogleID
			user = domain.User{Username: name, Email: email, Password: string(hash), Role: domain.RoleKonsumen, GoogleID: &googleID}
			if err := db.Create(&user).Error; err != nil {
				serverError(c, "Gagal membuat akun Google", err, logrus.Fields{"email": email})
				return
			}
			logrus.WithFields(logrus.Fields{"user_id": user.ID, "email": email}).Info("Google account created")
			invalidateCache(c.Request.Context(), rdb, usersCachePrefix)
		case err != nil:
			serverError(c, "Gagal login dengan Google", err, nil)
			return
		case user.GoogleID == nil:
			// Existing email account gets linked
			googleID := req.GoogleID
			if err := db.Model(&user).Update("google_id", googleID).Error; err != nil {
				serverError(c, "Gagal menautkan akun Google", err, logrus.Fields{"user_id": user.ID})
				return
			}
			user.GoogleID = &googleID
			invalidateCache(c.Request.Context(), rdb, usersCachePrefix)
		}
		token, err := utils.GenerateJWT(user.ID, user.Role, jwtSecret)
		if err != nil {
			serverError(c, "Gagal membuat token", err, logrus.Fields{"user_id": user.ID})
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Message: "Login Google berhasil", Token: token, User: user})
	}
}

// LogoutHandler revokes the presented token until it expires
func LogoutHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenID := c.GetString("tokenID") // Set by the JWT middleware
		expiry := c.GetTime("tokenExpiry")
		if tokenID != "" {
			if err := utils.RevokeToken(c.Request.Context(), rdb, tokenID, time.Until(expiry)); err != nil {
				serverError(c, "Gagal logout", err, logrus.Fields{"user_id": c.GetUint("userID")})
				return
			}
		}
		logrus.WithField("user_id", c.GetUint("userID")).Info("User logged out")
		c.JSON(http.StatusOK, gin.H{"message": "Logout berhasil"})
	}
}

// GetProfileHandler returns the authenticated user
func GetProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// UpdateProfileHandler changes the authenticated user's own username, email or password
func UpdateProfileHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		var req ProfileRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Data profil tidak valid"})
			return
		}
		cols, msg, err := applyAccountChanges(db, &user, req.Username, req.Email, req.Password)
		if err != nil {
			serverError(c, "Gagal memperbarui profil", err, logrus.Fields{"user_id": user.ID})
			return
		}
		if msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		if len(cols) > 0 {
			if err := db.Model(&user).Select(cols).Updates(&user).Error; err != nil {
				serverError(c, "Gagal memperbarui profil", err, logrus.Fields{"user_id": user.ID})
				return
			}
			invalidateCache(c.Request.Context(), rdb, usersCachePrefix)
			invalidateCache(c.Request.Context(), rdb, reportCachePrefix) // Usernames appear in reports
		}
		logrus.WithField("user_id", user.ID).Info("Profile updated")
		c.JSON(http.StatusOK, gin.H{"message": "Profil berhasil diperbarui", "user": user})
	}
}

// applyAccountChanges merges optional account fields into user and returns the columns it touched.
// msg is a validation message for the client; err is an infrastructure failure.
func applyAccountChanges(db *gorm.DB, user *domain.User, username, email, password *string) (cols []string, msg string, err error) {
	if username != nil {
		if strings.TrimSpace(*username) == "" {
			return nil, "Username tidak boleh kosong", nil
		}
		user.Username = strings.TrimSpace(*username)
		cols = append(cols, "username")
	}
	if email != nil {
		normalized, ok := normalizeEmail(*email)
		if !ok {
			return nil, "Format email tidak valid", nil
		}
		taken, err := emailTaken(db, normalized, user.ID)
		if err != nil {
			return nil, "", err
		}
		if taken {
			return nil, "Email sudah terdaftar", nil
		}
		user.Email = normalized
		cols = append(cols, "email")
	}
	if password != nil {
		if !isValidPassword(*password) {
			return nil, "Password minimal 6 karakter", nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			return nil, "", err
		}
		user.Password = string(hash)
		cols = append(cols, "password")
	}
	return cols, "", nil
}
