package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env  string
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Bootstrap admin account, seeded at startup when set.
	AdminEmail    string
	AdminPassword string

	// Operator secret accepted by the training endpoint via X-Admin-Token.
	// Empty disables the header path; training then requires an admin JWT.
	AdminToken string

	// Prediction
	MaxURLLength      int
	LogFullURLs       bool
	SuspiciousTokens  []string
	ModelPath         string
	DefaultDataPath   string
	AuditWriteTimeout time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "phishguard"),
		DBPassword: getEnv("DB_PASSWORD", "phishguard"),
		DBName:     getEnv("DB_NAME", "phishguard"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminToken:    getEnv("ADMIN_TOKEN", ""),

		MaxURLLength:    getEnvInt("MAX_URL_LENGTH", 2000),
		LogFullURLs:     getEnvBool("LOG_FULL_URLS", false),
		ModelPath:       getEnv("MODEL_PATH", "model/model.json"),
		DefaultDataPath: getEnv("DEFAULT_DATA_PATH", "data/sample_phishing.csv"),
	}

	// Signing secret. A production deployment must configure its own;
	// the fallback exists only so development works out of the box.
	config.JWTSecret = getEnv("JWT_SECRET", "")
	if config.JWTSecret == "" {
		if config.Env == "production" {
			return nil, fmt.Errorf("JWT_SECRET must be set when ENV=production")
		}
		config.JWTSecret = "fallback-secret-key-for-dev-only"
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	auditStr := getEnv("AUDIT_WRITE_TIMEOUT", "2s")
	auditDur, err := time.ParseDuration(auditStr)
	if err != nil || auditDur <= 0 {
		auditDur = 2 * time.Second
	}
	config.AuditWriteTimeout = auditDur

	tokens := getEnv("SUSPICIOUS_TOKENS", "login,secure,bank,verify,update,account")
	for _, t := range strings.Split(tokens, ",") {
		if t = strings.TrimSpace(t); t != "" {
			config.SuspiciousTokens = append(config.SuspiciousTokens, t)
		}
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// SetForTests replaces the cached configuration. Only intended for test use.
func SetForTests(c *Config) {
	appConfig = c
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Warning: invalid %s value '%s', using %d\n", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "1", "true", "yes":
			return true
		case "0", "false", "no":
			return false
		}
	}
	return defaultValue
}
