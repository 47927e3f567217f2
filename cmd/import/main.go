package main

import (
	"blangkis/internal/config" // Custom import path (Config)
	"blangkis/internal/db"     // Custom import path (Database)
	"flag"                     // Command line flags

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Imports the legacy JSON files into the database
func main() {
	cfg := config.LoadConfig() // Load configuration
	dir := flag.String("dir", cfg.DataDir, "directory holding users.json, categories.json, products_clean.json and orders.json")
	flag.Parse()
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	database, err := db.Open(cfg.DSN(), false)
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	// Tables must exist before rows can be copied
	if err := db.Migrate(database); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	res, err := db.ImportJSON(database, *dir)
	if err != nil {
		logrus.Fatalf("import failed: %v", err)
	}
	logrus.WithFields(logrus.Fields{
		"dir":        *dir,           // Source directory
		"users":      res.Users,      // Imported users
		"categories": res.Categories, // Imported categories
		"products":   res.Products,   // Imported products
		"orders":     res.Orders,     // Imported orders
		"skipped":    res.Skipped,    // Already present
	}).Info("Import completed.")
}
