package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/soaringjerry/obe-survey/internal/utils"
)

// Store backends accepted by OBE_STORE.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Config holds the runtime settings of the server and seed commands.
type Config struct {
	Addr           string
	Store          string
	SQLitePath     string
	MigrationsDir  string
	MongoURI       string
	MongoDatabase  string
	MongoTimeout   time.Duration
	JWTSecret      []byte
	TokenTTL       time.Duration
	AllowedOrigins []string
	ExportInterval time.Duration
	Commit         string
	BuildTime      string
	Logger         *log.Logger
}

// Load reads the OBE_* environment variables once and applies defaults.
func Load() Config {
	logger := log.New(os.Stdout, "[obe-survey] ", log.LstdFlags|log.Lshortfile)

	store := strings.ToLower(strings.TrimSpace(utils.SafeEnv("OBE_STORE", StoreMemory)))
	switch store {
	case StoreMemory, StoreSQLite, StoreMongo:
	default:
		logger.Printf("unknown OBE_STORE=%q, using %s", store, StoreMemory)
		store = StoreMemory
	}

	secret := strings.TrimSpace(os.Getenv("OBE_JWT_SECRET"))
	if secret == "" {
		secret = "obe-dev-secret"
		logger.Printf("OBE_JWT_SECRET not set, using development secret")
	}

	cfg := Config{
		Addr:           utils.SafeEnv("OBE_ADDR", ":8080"),
		Store:          store,
		SQLitePath:     utils.SafeEnv("OBE_SQLITE_PATH", "data/obe.db"),
		MigrationsDir:  strings.TrimSpace(os.Getenv("OBE_MIGRATIONS_DIR")),
		MongoURI:       utils.SafeEnv("OBE_MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  utils.SafeEnv("OBE_MONGO_DB", "obe_survey"),
		MongoTimeout:   parseDuration(logger, "OBE_MONGO_TIMEOUT", 10*time.Second),
		JWTSecret:      []byte(secret),
		TokenTTL:       parseDuration(logger, "OBE_TOKEN_TTL", 30*24*time.Hour),
		AllowedOrigins: utils.SafeEnvList("OBE_ALLOWED_ORIGINS", []string{"*"}),
		ExportInterval: parseDuration(logger, "OBE_EXPORT_INTERVAL", 5*time.Second),
		Commit:         os.Getenv("OBE_COMMIT"),
		BuildTime:      os.Getenv("OBE_BUILD_TIME"),
		Logger:         logger,
	}
	logger.Printf("loaded config: addr=%q store=%q origins=%v", cfg.Addr, cfg.Store, cfg.AllowedOrigins)
	return cfg
}

func parseDuration(logger *log.Logger, key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Printf("invalid %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}
