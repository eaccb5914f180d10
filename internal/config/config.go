package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Seed     SeedConfig
	Firebase FirebaseConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	JWT      JWTConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// SeedConfig controls the clean-and-seed routine.
type SeedConfig struct {
	Driver      string // firestore, postgres, mongo or memory
	BatchSize   int
	CatalogFile string // empty means the embedded catalog
	Verify      bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

// Load reads configuration from the environment and an optional .env file
// in the working directory.
func Load() *Config {
	// godotenv puts .env values into the process environment, which the
	// Google client libraries read directly (FIRESTORE_EMULATOR_HOST).
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("SEED_DRIVER", "firestore")
	v.SetDefault("SEED_BATCH_SIZE", 10)
	v.SetDefault("SEED_VERIFY", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "catalog")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Seed: SeedConfig{
			Driver:      strings.ToLower(v.GetString("SEED_DRIVER")),
			BatchSize:   v.GetInt("SEED_BATCH_SIZE"),
			CatalogFile: v.GetString("SEED_CATALOG_FILE"),
			Verify:      v.GetBool("SEED_VERIFY"),
		},
		Firebase: FirebaseConfig{
			ProjectID:    v.GetString("FIREBASE_PROJECT_ID"),
			ClientEmail:  v.GetString("FIREBASE_CLIENT_EMAIL"),
			PrivateKey:   UnescapePrivateKey(v.GetString("FIREBASE_PRIVATE_KEY")),
			PrivateKeyID: v.GetString("FIREBASE_PRIVATE_KEY_ID"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_DATABASE"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DATABASE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
