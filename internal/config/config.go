// Package config reads the service settings from the environment (.env first)
// into an explicit Config value that is handed to every constructor.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SourceDB  = "db"
	SourceCSV = "csv"
)

// Config holds every setting the API and the importer need.
type Config struct {
	Port    string
	AppEnv  string
	LogMode string

	DBDriver string
	DBDSN    string

	JWTSecret string
	JWTTTL    time.Duration

	DataSource string
	CSVPath    string
	DocsDir    string
	UploadDir  string
	BaseURL    string

	CORSOrigins []string

	GeminiAPIKey string
	GeminiModel  string
}

// Load reads .env (if present) and then the process environment.
// It reports whether a .env file was found so the caller can log it.
func Load() (*Config, bool, error) {
	envLoaded := godotenv.Load() == nil

	cfg := &Config{
		Port:         str("PORT", "8080"),
		AppEnv:       str("APP_ENV", "dev"),
		DBDriver:     str("DB_DRIVER", "mysql"),
		DBDSN:        str("DB_DSN", ""),
		JWTSecret:    str("JWT_SECRET", ""),
		JWTTTL:       time.Duration(intVal("JWT_TTL_HOURS", 72)) * time.Hour,
		DataSource:   strings.ToLower(str("DATA_SOURCE", SourceDB)),
		CSVPath:      str("CSV_PATH", "./public/backend_data/nodes_details_data.csv"),
		DocsDir:      str("DOCS_DIR", "./public/resources"),
		UploadDir:    str("UPLOAD_DIR", "./uploads"),
		BaseURL:      strings.TrimRight(str("BASE_URL", "http://localhost:8080"), "/"),
		CORSOrigins:  list("CORS_ORIGINS", []string{"http://localhost:5173"}),
		GeminiAPIKey: str("GEMINI_API_KEY", ""),
		GeminiModel:  str("GEMINI_MODEL", "gemini-1.5-flash"),
	}
	cfg.LogMode = str("LOG_MODE", cfg.AppEnv)

	if err := cfg.Validate(); err != nil {
		return nil, envLoaded, err
	}
	return cfg, envLoaded, nil
}

// Validate checks the combinations Load cannot default away.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "sqlite3":
	default:
		return errors.New("DB_DRIVER must be mysql or sqlite3")
	}
	switch c.DataSource {
	case SourceDB, SourceCSV:
	default:
		return errors.New("DATA_SOURCE must be db or csv")
	}
	if c.DataSource == SourceDB && c.DBDSN == "" {
		return errors.New("DB_DSN is required when DATA_SOURCE=db")
	}
	if c.JWTSecret == "" {
		if !c.IsDev() {
			return errors.New("JWT_SECRET is required outside dev")
		}
		c.JWTSecret = "dev-only-secret-change-me"
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

// AIEnabled reports whether the Gemini explain endpoint can be served.
func (c *Config) AIEnabled() bool {
	return c.GeminiAPIKey != ""
}

func str(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func intVal(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return def
	}
	return i
}

func list(name string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
