package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string
	LogMode   string

	DBDriver string
	DBDSN    string

	SessionDriver string // memory|redis
	SessionSecret string
	SessionCookie string
	SessionTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	EnableLocalAuth bool
	AuthHMACSecret  string
	AdminUser       string
	AdminPassHash   string // bcrypt

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	PageSize int
}

// Load reads an optional .env file (existing environment wins) and then the environment.
func Load(files ...string) Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
	return FromEnv()
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	logMode := "development"
	if mode == ModeOnline {
		logMode = "production"
	}
	return Config{
		Mode:      mode,
		HTTPAddr:  envOr("HTTP_ADDR", ":8080"),
		PublicURL: os.Getenv("PUBLIC_URL"),
		LogMode:   envOr("LOG_MODE", logMode),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		SessionDriver: envOr("SESSION_DRIVER", "memory"),
		SessionSecret: envOr("SESSION_SECRET", "quiz-session-dev-key"),
		SessionCookie: envOr("SESSION_COOKIE", "quiz_sid"),
		SessionTTL:    time.Duration(envInt("SESSION_TTL_SEC", 24*60*60)) * time.Second,

		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		EnableLocalAuth: envBool("ENABLE_LOCAL_AUTH", false),
		AuthHMACSecret:  envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:       envOr("ADMIN_USER", "admin"),
		AdminPassHash:   envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://quiz.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:8080"),

		PageSize: envInt("PAGE_SIZE", 10),
	}
}

// CORSOrigins returns the origin list for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
