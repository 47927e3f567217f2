package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For cache durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort         string // Application port
	DBUser          string // Database user
	DBPassword      string // Database password
	DBHost          string // Database host
	DBPort          string // Database port
	DBName          string // Database name
	JWTSecret       string // JWT secret key
	RedisAddr       string // Redis server address
	RedisPass       string // Redis password
	RedisDB         int    // Redis database number
	IsProd          bool   // Is production environment
	CacheTTLSeconds int    // Lifetime of cached report responses
	DataDir         string // Directory holding the legacy JSON files
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	cacheTTL, err := strconv.Atoi(os.Getenv("CACHE_TTL_SECONDS"))
	if err != nil || cacheTTL <= 0 {
		cacheTTL = 60 // Same lifetime the list caches have always used
	}
	return &Config{
		AppPort:         getEnv("APP_PORT", "8080"),             // Application port
		DBUser:          os.Getenv("DB_USER"),                   // Database user
		DBPassword:      os.Getenv("DB_PASSWORD"),               // Database password
		DBHost:          getEnv("DB_HOST", "127.0.0.1"),         // Database host
		DBPort:          getEnv("DB_PORT", "3306"),              // Database port
		DBName:          os.Getenv("DB_NAME"),                   // Database name
		JWTSecret:       os.Getenv("JWT_SECRET"),                // JWT secret key
		RedisAddr:       getEnv("REDIS_ADDR", "127.0.0.1:6379"), // Redis server address
		RedisPass:       os.Getenv("REDIS_PASS"),                // Redis password
		RedisDB:         redisDB,                                // Redis database number
		IsProd:          os.Getenv("IS_PROD") == "true",         // Is production environment
		CacheTTLSeconds: cacheTTL,                               // Report cache lifetime
		DataDir:         getEnv("DATA_DIR", "./data"),           // Legacy JSON directory
	}
}

// DSN returns the MySQL data source name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=true&loc=Local"
}

// CacheTTL returns the report cache lifetime
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
