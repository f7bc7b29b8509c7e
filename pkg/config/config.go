package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	AppEnv      string
	BaseURL     string
	LogLevel    string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	JWTSecret          string
	JWTTTL             time.Duration
	FrontendURL        string
	AdminEmails        []string

	// Anonymous hash-link quota per document.
	HashMaxViews int
	Salt         string
	DocDomain    string

	AuthHost string
	AuthEnv  string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	PandocBin     string
	PDFLatexBin   string
	RenderTimeout time.Duration
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	baseURL := getEnv("BASE_URL", "http://localhost:8080")

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", "file:ecli.sqlite"),
		AppEnv:             getEnv("APP_ENV", "local"),
		BaseURL:            baseURL,
		LogLevel:           getEnv("LOG_LEVEL", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTTTL:             getEnvDuration("JWT_TTL", 24*time.Hour),
		FrontendURL:        getEnv("FRONTEND_URL", baseURL),
		AdminEmails:        getEnvList("ADMIN_EMAILS"),
		HashMaxViews:       getEnvInt("HASH_MAX_VIEWS", 1000),
		Salt:               getEnv("SALT", "OpenJusticePirates"),
		DocDomain:          getEnv("DOC_DOMAIN", baseURL),
		AuthHost:           strings.TrimRight(getEnv("AUTH_HOST", ""), "/"),
		AuthEnv:            getEnv("AUTH_ENV", "dev"),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           getEnvInt("SMTP_PORT", 587),
		SMTPUser:           getEnv("SMTP_USER", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:           getEnv("SMTP_FROM", "no-reply@localhost"),
		PandocBin:          getEnv("PANDOC_BIN", "pandoc"),
		PDFLatexBin:        getEnv("PDFLATEX_BIN", "pdflatex"),
		RenderTimeout:      getEnvDuration("RENDER_TIMEOUT", 30*time.Second),
	}
}

// IsProduction reports whether cookies and logs should use production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsAdminEmail reports whether email belongs to the moderator allowlist.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
