package db

import (
	"os"
	"path/filepath"
	"testing"

	"blangkis/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // Every connection to :memory: is a separate database
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

const legacyUsers = `[
  {"id": 1718000000001, "username": "admin", "email": "Admin@Blangkis.id", "password": "admin123", "role": "admin", "joinedAt": "2024-06-10T08:00:00.000Z"},
  {"id": 1718000000002, "username": "sari", "email": "sari@mail.com", "password": "rahasia", "role": "konsumen", "joinedAt": "2024-06-11T08:00:00.000Z"}
]`

const legacyCategories = `[{"id": 1, "name": "Blangkon Solo", "productCount": 1}]`

const legacyProducts = `[
  {"id": 1, "name": "Blangkon Solo Premium", "price": "100000", "originalPrice": 60000, "discount": 0, "stock": 5,
   "categoryId": 1, "images": ["a.jpg"], "specifications": {"bahan": "batik"}, "features": ["handmade"], "rating": 4.5, "reviews": 3},
  {"id": 2, "name": "Udeng", "price": 80000, "stock": 2, "categoryId": 1, "specifications": []}
]`

const legacyOrders = `[
  {"id": 1718000000100, "orderNumber": "ORD-1", "userId": 1718000000002, "status": "dibayar",
   "items": [{"productId": 1, "quantity": 1, "price": 100000}], "subtotal": 100000, "shippingCost": 0, "total": 100000,
   "shipping": {"name": "Sari", "city": "Solo"}, "payment": {"method": "transfer"}, "createdAt": "2024-07-01T10:00:00.000Z"}
]`

func TestImportJSON(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	writeFile(t, dir, UsersFile, legacyUsers)
	writeFile(t, dir, CategoriesFile, legacyCategories)
	writeFile(t, dir, ProductsFile, legacyProducts)
	writeFile(t, dir, OrdersFile, legacyOrders)

	res, err := ImportJSON(db, dir)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Users: 2, Categories: 1, Products: 2, Orders: 1}, res)

	var admin domain.User
	require.NoError(t, db.First(&admin, uint(1718000000001)).Error)
	assert.Equal(t, "admin@blangkis.id", admin.Email)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("admin123")))

	var p domain.Product
	require.NoError(t, db.First(&p, 1).Error)
	assert.Equal(t, 100000.0, p.Price)
	require.NotNil(t, p.OriginalPrice)
	assert.Equal(t, 60000.0, *p.OriginalPrice)
	assert.Equal(t, []string{"a.jpg"}, []string(p.Images))
	assert.Equal(t, "batik", p.Specifications["bahan"])

	var udeng domain.Product
	require.NoError(t, db.First(&udeng, 2).Error)
	assert.Nil(t, udeng.OriginalPrice)

	var order domain.Order
	require.NoError(t, db.Preload("Items").First(&order, uint(1718000000100)).Error)
	assert.Equal(t, "Solo", order.Shipping.City)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1, order.Items[0].Quantity)

	// Running the import again inserts nothing
	res, err = ImportJSON(db, dir)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Skipped: 6}, res)
}

func TestImportJSONMissingFilesAreSkipped(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	writeFile(t, dir, CategoriesFile, legacyCategories)

	res, err := ImportJSON(db, dir)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Categories: 1}, res)
}

func TestImportJSONMalformedFileAbortsEverything(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	writeFile(t, dir, CategoriesFile, legacyCategories)
	writeFile(t, dir, OrdersFile, `[{"id": 1, "items": [`) // truncated by a crash mid-write

	_, err := ImportJSON(db, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), OrdersFile)

	var count int64
	require.NoError(t, db.Model(&domain.Category{}).Count(&count).Error)
	assert.Zero(t, count)
}
