package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/ilyakaznacheev/cleanenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime configuration shared across the application.
type Config struct {
	HTTP     HTTPConfig   `yaml:"http"`
	Mongo    MongoConfig  `yaml:"mongo"`
	Redis    RedisConfig  `yaml:"redis"`
	Auth     AuthConfig   `yaml:"auth"`
	Report   ReportConfig `yaml:"report"`
	Log      LogConfig    `yaml:"log"`
	Timezone string       `yaml:"timezone" env:"TIMEZONE" env-default:"Asia/Taipei"`

	// Location is resolved from Timezone during validation.
	Location *time.Location `yaml:"-" env:"-"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Addr              string        `yaml:"addr"                env:"HTTP_ADDR"                env-default:":8080"`
	AllowedOriginsRaw string        `yaml:"allowed_origins"     env:"API_ALLOWED_ORIGINS"      env-default:"*"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"HTTP_READ_HEADER_TIMEOUT" env-default:"5s"`
	RequestTimeout    time.Duration `yaml:"request_timeout"     env:"HTTP_REQUEST_TIMEOUT"     env-default:"5s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"    env:"HTTP_SHUTDOWN_TIMEOUT"    env-default:"10s"`

	// AllowedOrigins is parsed from AllowedOriginsRaw during validation.
	AllowedOrigins []string `yaml:"-" env:"-"`
}

// MongoConfig holds the project store connection.
type MongoConfig struct {
	URI               string        `yaml:"uri"                env:"MONGO_URI"             env-default:"mongodb://mongo:27017"`
	Database          string        `yaml:"database"           env:"MONGO_DB"              env-default:"anzeguard"`
	ProjectCollection string        `yaml:"project_collection" env:"PROJECT_COLLECTION"    env-default:"projects"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout"    env:"MONGO_CONNECT_TIMEOUT" env-default:"10s"`
}

// RedisConfig holds the submission lock backend. An empty Addr disables locking.
type RedisConfig struct {
	Addr       string        `yaml:"addr"        env:"REDIS_ADDR"`
	Password   string        `yaml:"password"    env:"REDIS_PASSWORD"`
	DB         int           `yaml:"db"          env:"REDIS_DB"          env-default:"0"`
	LockPrefix string        `yaml:"lock_prefix" env:"REDIS_LOCK_PREFIX" env-default:"checklist:save:"`
	LockTTL    time.Duration `yaml:"lock_ttl"    env:"REDIS_LOCK_TTL"    env-default:"30s"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

// AuthConfig holds the consultant login settings.
type AuthConfig struct {
	PassphraseHash string        `yaml:"passphrase_hash" env:"AUTH_PASSPHRASE_HASH" env-required:"true"`
	JWTSecret      string        `yaml:"jwt_secret"      env:"AUTH_JWT_SECRET"      env-required:"true"`
	JWTIssuer      string        `yaml:"jwt_issuer"      env:"AUTH_JWT_ISSUER"      env-default:"anzeguard"`
	TokenTTL       time.Duration `yaml:"token_ttl"       env:"AUTH_TOKEN_TTL"       env-default:"12h"`
}

// ReportConfig locates the CJK font for PDF reports. FontPath wins over FontURL.
type ReportConfig struct {
	FontPath    string        `yaml:"font_path"    env:"REPORT_FONT_PATH"`
	FontURL     string        `yaml:"font_url"     env:"REPORT_FONT_URL"`
	FontTimeout time.Duration `yaml:"font_timeout" env:"REPORT_FONT_TIMEOUT" env-default:"30s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults. The file path comes from CONFIG_PATH (fallback
// ./config.yaml); without a file the configuration is read from ENV only.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks the loaded values and fills the derived fields.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if _, err := bcrypt.Cost([]byte(c.Auth.PassphraseHash)); err != nil {
		return fmt.Errorf("auth.passphrase_hash must be a bcrypt hash: %w", err)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be > 0 (got %s)", c.Auth.TokenTTL)
	}
	if strings.TrimSpace(c.Mongo.URI) == "" || strings.TrimSpace(c.Mongo.Database) == "" {
		return fmt.Errorf("mongo.uri and mongo.database are required")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console (got %q)", c.Log.Format)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	c.Location = loc
	c.HTTP.AllowedOrigins = parseList(c.HTTP.AllowedOriginsRaw, []string{"*"})
	return nil
}

func parseList(raw string, fallback []string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
