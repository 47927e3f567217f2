package api

import (
	"blangkis/internal/domain" // Importing domain models
	"blangkis/internal/report" // Report aggregation
	"blangkis/internal/utils"  // Utility functions
	"bytes"                    // CSV buffer
	"context"                  // Context for Redis operations
	"net/http"                 // HTTP status codes
	"time"                     // Cache lifetime

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// ReportService loads order history and builds cached reports
type ReportService struct {
	db  *gorm.DB      // Database
	rdb *redis.Client // Cache
	ttl time.Duration // Cache lifetime
}

// NewReportService creates a ReportService
func NewReportService(db *gorm.DB, rdb *redis.Client, ttl time.Duration) *ReportService {
	return &ReportService{db: db, rdb: rdb, ttl: ttl}
}

// filterFromQuery reads start, end, status, user and product query parameters
func filterFromQuery(c *gin.Context) report.Filter {
	return report.ParseFilter(c.Query("start"), c.Query("end"), c.Query("status"), c.Query("user"), c.Query("product"))
}

// Build returns the report for f, from cache when possible
func (s *ReportService) Build(ctx context.Context, f report.Filter) (report.Complex, bool, error) {
	cacheKey := reportCachePrefix + "complex:" + f.CacheKey()
	var cached report.Complex
	if s.rdb != nil {
		found, err := utils.GetCache(ctx, s.rdb, cacheKey, &cached)
		if err == nil && found {
			return cached, true, nil
		}
		if err != nil {
			logrus.WithField("error", err.Error()).Warn("Report cache read failed")
		}
	}

	// Push the paid gate and date range down to the database; Build re-checks them
	query := s.db.WithContext(ctx).Preload("Items").Where("status IN ?", report.PaidStatuses)
	if f.Start != nil {
		query = query.Where("created_at >= ?", *f.Start)
	}
	if f.End != nil {
		query = query.Where("created_at <= ?", *f.End)
	}
	var orders []domain.Order
	if err := query.Order("created_at asc, id asc").Find(&orders).Error; err != nil {
		return report.Complex{}, false, err
	}
	var products []domain.Product
	if err := s.db.WithContext(ctx).Select("id", "name", "price", "original_price").Find(&products).Error; err != nil {
		return report.Complex{}, false, err
	}
	var users []domain.User
	if err := s.db.WithContext(ctx).Select("id", "username").Find(&users).Error; err != nil {
		return report.Complex{}, false, err
	}

	result := report.Build(orders, report.ProductIndex(products), report.UserIndex(users), f)
	if s.rdb != nil {
		if err := utils.SetCache(ctx, s.rdb, cacheKey, result, s.ttl); err != nil {
			logrus.WithField("error", err.Error()).Warn("Report cache write failed")
		}
	}
	return result, false, nil
}

// handler wraps a view of the complex report into a gin handler
func (s *ReportService) handler(key string, view func(report.Complex) any) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := filterFromQuery(c)
		result, cached, err := s.Build(c.Request.Context(), f)
		if err != nil {
			serverError(c, "Gagal membuat laporan", err, logrus.Fields{"report": key})
			return
		}
		c.JSON(http.StatusOK, gin.H{key: view(result), "cached": cached})
	}
}

// GlobalSalesHandler returns the totals over the filtered orders
func (s *ReportService) GlobalSalesHandler() gin.HandlerFunc {
	return s.handler("globalSales", func(r report.Complex) any { return r.Global })
}

// PeriodicSalesHandler returns the per-month buckets
func (s *ReportService) PeriodicSalesHandler() gin.HandlerFunc {
	return s.handler("periodicSales", func(r report.Complex) any { return r.Periodic })
}

// PeriodicIncomeHandler returns the per-month income
func (s *ReportService) PeriodicIncomeHandler() gin.HandlerFunc {
	return s.handler("periodicIncome", func(r report.Complex) any { return r.Income() })
}

// ComplexReportHandler returns every report section
func (s *ReportService) ComplexReportHandler() gin.HandlerFunc {
	return s.handler("report", func(r report.Complex) any { return r })
}

// ExportReportHandler downloads the detail rows as CSV
func (s *ReportService) ExportReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, _, err := s.Build(c.Request.Context(), filterFromQuery(c))
		if err != nil {
			serverError(c, "Gagal membuat laporan", err, logrus.Fields{"report": "export"})
			return
		}
		var buf bytes.Buffer
		if err := report.WriteDetailCSV(&buf, result.Detail); err != nil {
			serverError(c, "Gagal mengekspor laporan", err, nil)
			return
		}
		filename := "laporan-penjualan-" + time.Now().Format("20060102") + ".csv"
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	}
}
