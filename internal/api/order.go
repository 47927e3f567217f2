package api

import (
	"blangkis/internal/domain" // Importing domain models
	"errors"                   // Error inspection
	"fmt"                      // Error wrapping
	"net/http"                 // HTTP status codes
	"strings"                  // String manipulation
	"time"                     // Order numbers and timestamps

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // Order number suffixes
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// OrderItemRequest is one line of a new order
type OrderItemRequest struct {
	ProductID uint `json:"productId" binding:"required"`      // Product to buy
	Quantity  int  `json:"quantity" binding:"required,gt=0"` // Units, must be positive
}

// CreateOrderRequest is the checkout body
type CreateOrderRequest struct {
	Items        []OrderItemRequest `json:"items" binding:"required,min=1,dive"` // Cart content
	Shipping     domain.Shipping    `json:"shipping"`                            // Delivery details
	Payment      domain.Payment     `json:"payment"`                             // Payment details
	ShippingCost float64            `json:"shippingCost" binding:"gte=0"`        // Delivery fee
	UserID       uint               `json:"userId"`                              // Admin only: order on behalf of a customer
}

// StatusRequest changes an order's status
type StatusRequest struct {
	Status string `json:"status" binding:"required"` // New status
}

// PaymentProofRequest attaches a transfer receipt
type PaymentProofRequest struct {
	PaymentProof string `json:"paymentProof" binding:"required"` // Receipt URL or file name
}

// newOrderNumber returns a number like BLK-20240105-1A2B3C4D
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "BLK-" + now.Format("20060102") + "-" + suffix
}

// reserveStock decrements stock only when enough is left.
// The check and the write are a single statement so concurrent orders cannot oversell.
func reserveStock(tx *gorm.DB, product domain.Product, quantity int) error {
	res := tx.Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", product.ID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w untuk produk %s", ErrInsufficientStock, product.Name)
	}
	return nil
}

// releaseStock puts the items of an order back on the shelf
func releaseStock(tx *gorm.DB, items []domain.OrderItem) error {
	for _, it := range items {
		err := tx.Model(&domain.Product{}).
			Where("id = ?", it.ProductID).
			Update("stock", gorm.Expr("stock + ?", it.Quantity)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// PlaceOrder prices the items, reserves stock and stores the order in one transaction.
// On any failure nothing is written.
func PlaceOrder(db *gorm.DB, order *domain.Order, items []OrderItemRequest) error {
	return db.Transaction(func(tx *gorm.DB) error {
		order.Items = order.Items[:0]
		var subtotal float64
		for _, it := range items {
			var product domain.Product
			if err := tx.First(&product, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w (id %d)", ErrProductNotFound, it.ProductID)
				}
				return err
			}
			if err := reserveStock(tx, product, it.Quantity); err != nil {
				return err // Return error to rollback
			}
			price := product.FinalPrice() // Snapshot the price paid
			order.Items = append(order.Items, domain.OrderItem{
				ProductID: product.ID,  // Product
				Quantity:  it.Quantity, // Units
				Price:     price,       // Unit price at purchase time
			})
			subtotal += price * float64(it.Quantity)
		}
		order.Subtotal = subtotal
		order.Total = subtotal + order.ShippingCost
		if order.Status == "" {
			order.Status = domain.StatusMenungguPembayaran
		}
		if order.OrderNumber == "" {
			order.OrderNumber = newOrderNumber(time.Now())
		}
		return tx.Create(order).Error // Commit transaction
	})
}

// ChangeOrderStatus moves an order to status. Cancelling returns the stock,
// reviving a cancelled order reserves it again.
func ChangeOrderStatus(db *gorm.DB, id uint, status string) (domain.Order, error) {
	var order domain.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, id).Error; err != nil {
			return err
		}
		previous := order.Status
		if previous == status {
			return nil // Nothing to do
		}
		// Only the writer that still sees the previous status wins
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND status = ?", id, previous).
			Updates(map[string]any{"status": status, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStatusConflict
		}
		switch {
		case status == domain.StatusDibatalkan:
			if err := releaseStock(tx, order.Items); err != nil {
				return err
			}
		case previous == domain.StatusDibatalkan:
			for _, it := range order.Items {
				var product domain.Product
				if err := tx.First(&product, it.ProductID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return fmt.Errorf("%w (id %d)", ErrProductNotFound, it.ProductID)
					}
					return err
				}
				if err := reserveStock(tx, product, it.Quantity); err != nil {
					return err
				}
			}
		}
		order.Status = status
		return nil
	})
	return order, err
}

// respondOrderError maps order workflow errors to status codes
func respondOrderError(c *gin.Context, err error, fields logrus.Fields) {
	switch {
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrProductNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Pesanan tidak ditemukan"})
	default:
		serverError(c, "Gagal memproses pesanan", err, fields)
	}
}

// ListOrdersHandler returns orders page by page. Customers only see their own.
func ListOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		page, pageSize := pagination(c)
		offset := (page - 1) * pageSize    // Calculate offset for pagination
		query := db.Model(&domain.Order{}) // Start building the query
		if !user.IsAdmin() {
			query = query.Where("user_id = ?", user.ID) // Own orders only
		} else if userID := c.Query("user_id"); userID != "" {
			query = query.Where("user_id = ?", userID) // Filter by user ID
		}
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status) // Filter by status
		}
		if from := c.Query("from"); from != "" {
			query = query.Where("created_at >= ?", from) // Filter by start date
		}
		if to := c.Query("to"); to != "" {
			query = query.Where("created_at <= ?", to) // Filter by end date
		}
		var total int64 // Total order count
		if err := query.Count(&total).Error; err != nil {
			serverError(c, "Gagal menghitung pesanan", err, nil)
			return
		}
		orders := []domain.Order{} // Slice to hold orders
		if err := query.Preload("Items").Order("created_at desc, id desc").Offset(offset).Limit(pageSize).Find(&orders).Error; err != nil {
			serverError(c, "Gagal mengambil pesanan", err, nil)
			return
		}
		// The total number of pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		c.JSON(http.StatusOK, gin.H{
			"orders":      orders,     // List of orders
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of orders
			"total_pages": totalPages, // Total pages
		})
	}
}

// GetOrderHandler returns one order to its owner or an admin
func GetOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var order domain.Order
		if err := db.Preload("Items").First(&order, id).Error; err != nil {
			respondNotFoundOr500(c, err, "Pesanan tidak ditemukan")
			return
		}
		if !user.IsAdmin() && order.UserID != user.ID {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pesanan tidak ditemukan"})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// CreateOrderHandler checks out a cart
func CreateOrderHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		var req CreateOrderRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Data pesanan tidak valid: item dan jumlah wajib diisi"})
			return
		}
		buyer := user.ID
		if req.UserID != 0 && req.UserID != user.ID {
			if !user.IsAdmin() {
				c.JSON(http.StatusForbidden, gin.H{"error": "Tidak dapat membuat pesanan untuk pengguna lain"})
				return
			}
			var count int64
			if err := db.Model(&domain.User{}).Where("id = ?", req.UserID).Count(&count).Error; err != nil {
				serverError(c, "Gagal memeriksa pengguna", err, nil)
				return
			}
			if count == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Pengguna tidak ditemukan"})
				return
			}
			buyer = req.UserID
		}
		order := domain.Order{
			UserID:       buyer,            // Buyer
			Shipping:     req.Shipping,     // Delivery details
			Payment:      req.Payment,      // Payment details
			ShippingCost: req.ShippingCost, // Delivery fee
		}
		if err := PlaceOrder(db, &order, req.Items); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": buyer,       // Buyer
				"error":   err.Error(), // Error message
			}).Warn("Order rejected")
			respondOrderError(c, err, logrus.Fields{"user_id": buyer})
			return
		}
		invalidateCache(c.Request.Context(), rdb, reportCachePrefix)
		logrus.WithFields(logrus.Fields{
			"order_id":     order.ID,                        // Order ID
			"order_number": order.OrderNumber,               // Order number
			"user_id":      buyer,                           // Buyer
			"total":        order.Total,                     // Order total
			"timestamp":    time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Order created")
		c.JSON(http.StatusCreated, gin.H{"message": "Pesanan berhasil dibuat", "order": order})
	}
}

// UpdateOrderStatusHandler lets an admin move an order through fulfilment
func UpdateOrderStatusHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Status) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Status wajib diisi"})
			return
		}
		status := strings.TrimSpace(req.Status)
		order, err := ChangeOrderStatus(db, id, status)
		if err != nil {
			respondOrderError(c, err, logrus.Fields{"order_id": id, "status": status})
			return
		}
		invalidateCache(c.Request.Context(), rdb, reportCachePrefix)
		logrus.WithFields(logrus.Fields{
			"order_id": id,     // Order ID
			"status":   status, // New status
		}).Info("Order status changed")
		c.JSON(http.StatusOK, gin.H{"message": "Status pesanan diperbarui", "order": order})
	}
}

// UploadPaymentProofHandler attaches a payment receipt to the buyer's own order
func UploadPaymentProofHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c, db)
		if !ok {
			return
		}
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var req PaymentProofRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.PaymentProof) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Bukti pembayaran wajib diisi"})
			return
		}
		var order domain.Order
		if err := db.Preload("Items").First(&order, id).Error; err != nil {
			respondNotFoundOr500(c, err, "Pesanan tidak ditemukan")
			return
		}
		if order.UserID != user.ID && !user.IsAdmin() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pesanan tidak ditemukan"})
			return
		}
		updates := map[string]any{"payment_proof": strings.TrimSpace(req.PaymentProof)}
		if order.Status == domain.StatusMenungguPembayaran {
			updates["status"] = domain.StatusMenungguVerifikasi // Admin verifies the transfer next
		}
		if err := db.Model(&order).Updates(updates).Error; err != nil {
			serverError(c, "Gagal menyimpan bukti pembayaran", err, logrus.Fields{"order_id": id})
			return
		}
		order.PaymentProof = updates["payment_proof"].(string)
		if status, ok := updates["status"].(string); ok {
			order.Status = status
		}
		invalidateCache(c.Request.Context(), rdb, reportCachePrefix)
		logrus.WithField("order_id", id).Info("Payment proof uploaded")
		c.JSON(http.StatusOK, gin.H{"message": "Bukti pembayaran tersimpan", "order": order})
	}
}

// DeleteOrderHandler removes an order and returns it
func DeleteOrderHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}
		var order domain.Order
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Preload("Items").First(&order, id).Error; err != nil {
				return err
			}
			if err := tx.Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&domain.Order{}, id).Error
		})
		if err != nil {
			respondOrderError(c, err, logrus.Fields{"order_id": id})
			return
		}
		invalidateCache(c.Request.Context(), rdb, reportCachePrefix)
		logrus.WithField("order_id", id).Info("Order deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Pesanan berhasil dihapus", "order": order})
	}
}
