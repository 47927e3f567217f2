package api

import (
	"blangkis/internal/middleware" // Custom package for middleware
	"net/http"                     // HTTP status codes
	"time"                         // Cache lifetime

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// RouterConfig holds what the routes need besides the stores
type RouterConfig struct {
	JWTSecret      string        // JWT secret key
	CacheTTL       time.Duration // Report cache lifetime
	TrustedProxies []string      // Proxies allowed to set client IP headers
}

// NewRouter wires every endpoint onto a gin engine
func NewRouter(db *gorm.DB, rdb *redis.Client, cfg RouterConfig) (*gin.Engine, error) {
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	authMW := middleware.JWTAuthMiddleware(cfg.JWTSecret, rdb) // Any signed-in user
	adminMW := middleware.AdminOnlyMiddleware(db)              // Admins only, checked against the DB

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	api := r.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.POST("/register", RegisterHandler(db, rdb))                 // Registration endpoint
	auth.POST("/login", LoginHandler(db, cfg.JWTSecret))             // Login endpoint
	auth.POST("/google", GoogleLoginHandler(db, rdb, cfg.JWTSecret)) // Google sign-in endpoint
	auth.POST("/logout", authMW, LogoutHandler(rdb))                 // Logout endpoint
	auth.GET("/profile", authMW, GetProfileHandler(db))              // Profile endpoint
	auth.PUT("/profile", authMW, UpdateProfileHandler(db, rdb))      // Profile update endpoint

	// Category routes, writes are admin only
	categories := api.Group("/categories")
	categories.GET("", ListCategoriesHandler(db))
	categories.GET("/:id", GetCategoryHandler(db))
	categories.POST("", authMW, adminMW, CreateCategoryHandler(db))
	categories.PUT("/:id", authMW, adminMW, UpdateCategoryHandler(db))
	categories.DELETE("/:id", authMW, adminMW, DeleteCategoryHandler(db))

	// Product routes, writes are admin only
	products := api.Group("/products")
	products.GET("", ListProductsHandler(db))
	products.GET("/:id", GetProductHandler(db))
	products.POST("", authMW, adminMW, CreateProductHandler(db))
	products.PUT("/:id", authMW, adminMW, UpdateProductHandler(db, rdb))
	products.DELETE("/:id", authMW, adminMW, DeleteProductHandler(db, rdb))

	// User routes (admin only)
	users := api.Group("/users")
	users.Use(authMW, adminMW)
	users.GET("", ListUsersHandler(db, rdb))
	users.GET("/:id", GetUserHandler(db))
	users.POST("", CreateUserHandler(db, rdb))
	users.PUT("/:id", UpdateUserHandler(db, rdb))
	users.DELETE("/:id", DeleteUserHandler(db, rdb))

	// Order routes (signed-in users, fulfilment is admin only)
	orders := api.Group("/orders")
	orders.Use(authMW)
	orders.GET("", ListOrdersHandler(db))
	orders.GET("/:id", GetOrderHandler(db))
	orders.POST("", CreateOrderHandler(db, rdb))
	orders.PUT("/:id/payment-proof", UploadPaymentProofHandler(db, rdb))
	orders.PUT("/:id/status", adminMW, UpdateOrderStatusHandler(db, rdb))
	orders.DELETE("/:id", adminMW, DeleteOrderHandler(db, rdb))

	// Report routes (admin only, read-only)
	reports := NewReportService(db, rdb, cfg.CacheTTL)
	reportGroup := api.Group("/reports")
	reportGroup.Use(authMW, adminMW)
	reportGroup.GET("/global", reports.GlobalSalesHandler())
	reportGroup.GET("/periodic", reports.PeriodicSalesHandler())
	reportGroup.GET("/income", reports.PeriodicIncomeHandler())
	reportGroup.GET("/complex", reports.ComplexReportHandler())
	reportGroup.GET("/complex/export", reports.ExportReportHandler())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint tidak ditemukan"})
	})
	return r, nil
}
