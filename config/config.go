package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config contains application configuration.
type Config struct {
	MongoURI    string
	MongoDB     string
	Port        string
	SecretKey   string
	AdminPWHash string // bcrypt hash of the admin password
	UploadDir   string
}

// Load reads configuration from environment variables and .env.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		MongoURI:    getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getenv("MONGO_DB", "trail_inspect"),
		Port:        getenv("PORT", "8080"),
		SecretKey:   os.Getenv("SECRET_KEY"),
		AdminPWHash: os.Getenv("ADMIN_PW_HASH"),
		UploadDir:   getenv("UPLOAD_DIR", "./.uploads"),
	}
	if cfg.SecretKey == "" {
		return Config{}, fmt.Errorf("SECRET_KEY is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
