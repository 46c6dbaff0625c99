package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// StoreConfig holds the credentials for one Shopify store.
// The registry is built once at startup and injected explicitly;
// nothing reads store credentials from ambient state.
type StoreConfig struct {
	Key   string
	Name  string
	URL   string
	Token string
}

type Config struct {
	Port     string
	Env      string
	LogLevel string
	DBUrl    string

	AllowedOrigin string

	// Shopify
	ShopifyAPIVersion string
	Stores            map[string]StoreConfig
	// Admin API throttle, per store
	ShopifyRateLimit float64
	ShopifyRateBurst int
	ShopifyTimeout   time.Duration
	SweepPageSize    int

	// DB Config
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration

	// R2 image mirror (disabled when account id is empty)
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2PublicURL       string
	R2UploadTimeout   time.Duration

	// Webhook debounce window per product
	WebhookDebounceTTL time.Duration
}

// maxStores caps how many SHOP<n>_* blocks we scan for.
const maxStores = 10

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: Try loading .env (standard local dev)
		// We don't error here because in pure docker/prod envs, .env might not exist,
		// and we rely on system env vars.
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBUrl:         getEnv("DB_DSN", ""),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		ShopifyAPIVersion: getEnv("SHOPIFY_API_VERSION", "2024-10"),
		Stores:            loadStores(),
		ShopifyRateLimit:  getFloatEnv("SHOPIFY_RATE_LIMIT", 2),
		ShopifyRateBurst:  getIntEnv("SHOPIFY_RATE_BURST", 4),
		ShopifyTimeout:    getDurationEnv("SHOPIFY_TIMEOUT", 30*time.Second),
		SweepPageSize:     getIntEnv("SWEEP_PAGE_SIZE", 250),

		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 50),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 10),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		// R2 Mirror
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),
		R2UploadTimeout:   getDurationEnv("R2_UPLOAD_TIMEOUT", 30*time.Second),

		WebhookDebounceTTL: getDurationEnv("WEBHOOK_DEBOUNCE_TTL", 30*time.Second),
	}

	cfg.Validate()
	return cfg
}

// loadStores reads SHOP1_NAME / SHOP1_URL / SHOP1_TOKEN ... blocks.
// A store is only registered when all three values are present.
func loadStores() map[string]StoreConfig {
	stores := make(map[string]StoreConfig)
	for i := 1; i <= maxStores; i++ {
		key := fmt.Sprintf("shop%d", i)
		prefix := fmt.Sprintf("SHOP%d_", i)
		name := os.Getenv(prefix + "NAME")
		url := os.Getenv(prefix + "URL")
		token := os.Getenv(prefix + "TOKEN")
		if name == "" && url == "" && token == "" {
			continue
		}
		if name == "" || url == "" || token == "" {
			log.Printf("WARNING: store %s is partially configured, skipping", key)
			continue
		}
		stores[key] = StoreConfig{Key: key, Name: name, URL: url, Token: token}
	}
	return stores
}

func (c *Config) Validate() {
	if c.DBUrl == "" {
		log.Fatal("CRITICAL: DB_DSN environment variable is required")
	}
	if len(c.Stores) == 0 {
		log.Println("WARNING: no stores configured, sync endpoints will reject every request")
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getInt32Env(key string, fallback int32) int32 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
		log.Printf("Invalid int32 for %s, using fallback", key)
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid float for %s, using fallback", key)
	}
	return fallback
}
