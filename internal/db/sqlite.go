package db

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/pysugar/claude-nexus/internal/db/models"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

// InitDB opens the SQLite database at dbPath and runs migrations.
// An unreadable or corrupt database is not fatal: the file is moved aside and
// a fresh store is created, so callers always start from a usable (possibly
// empty) account set.
func InitDB(dbPath string) (*gorm.DB, error) {
	database, err := open(dbPath)
	if err != nil {
		log.Printf("⚠️ Account store at %s is unreadable (%v), starting with an empty store", dbPath, err)
		if renameErr := os.Rename(dbPath, dbPath+".corrupt"); renameErr != nil && !os.IsNotExist(renameErr) {
			return nil, renameErr
		}
		database, err = open(dbPath)
		if err != nil {
			return nil, err
		}
	}

	// Ensure API key exists (generate on first run)
	ensureAPIKey(database)

	return database, nil
}

func open(dbPath string) (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(&models.Account{}, &models.Config{}, &models.TierRoute{}); err != nil {
		return nil, err
	}
	return database, nil
}

// ensureAPIKey generates the proxy API key if not exists
func ensureAPIKey(database *gorm.DB) {
	var config models.Config
	result := database.Where("key = ?", "api_key").First(&config)

	if result.Error != nil {
		// Generate new API key: sk-<32 hex chars>
		keyBytes := make([]byte, 16)
		rand.Read(keyBytes)
		apiKey := "sk-" + hex.EncodeToString(keyBytes)

		database.Create(&models.Config{
			Key:   "api_key",
			Value: apiKey,
		})
		log.Printf("🔑 Generated new API key: %s", apiKey)
	}
}

// GetAPIKey retrieves the proxy API key from the database
func GetAPIKey(database *gorm.DB) string {
	var config models.Config
	database.Where("key = ?", "api_key").First(&config)
	return config.Value
}

// RegenerateAPIKey creates a new API key
func RegenerateAPIKey(database *gorm.DB) string {
	keyBytes := make([]byte, 16)
	rand.Read(keyBytes)
	apiKey := "sk-" + hex.EncodeToString(keyBytes)

	database.Model(&models.Config{}).Where("key = ?", "api_key").Update("value", apiKey)
	log.Printf("🔑 Regenerated API key: %s", apiKey)
	return apiKey
}

// GetTierRoutes returns active tier pins as a tier -> model map.
func GetTierRoutes(database *gorm.DB) map[string]string {
	var routes []models.TierRoute
	database.Where("is_active = ?", true).Find(&routes)

	pins := make(map[string]string, len(routes))
	for _, route := range routes {
		pins[route.Tier] = route.TargetModel
	}
	return pins
}
