package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded by LoadEnvFile when no file is named
const DefaultEnvFile = ".env"

// LoadEnvFile adds the variables in an env file to the process environment. Variables that are already set win.
// When path is empty DefaultEnvFile is loaded if it exists.
func LoadEnvFile(path string) error {
	if path == "" {
		err := godotenv.Load(DefaultEnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", DefaultEnvFile, err)
		}
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// GatewayEnvironment is the eudr-gateway configuration (environment variables with defaults)
type GatewayEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=60s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	AllowedOrigins        []string      `env:"ALLOWED_ORIGINS,separator=|"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestBytes       int64         `env:"MAX_REQUEST_BYTES,default=10485760"`

	// backend routing
	PrimaryAPIURL      string        `env:"PRIMARY_API_URL"`
	SecondaryAPIURL    string        `env:"SECONDARY_API_URL"`
	BackendMode        string        `env:"BACKEND_MODE,default=auto"`
	FallbackEnabled    bool          `env:"FALLBACK_ENABLED,default=true"`
	BackendTimeout     time.Duration `env:"BACKEND_TIMEOUT,default=30s"`
	FailureThreshold   int           `env:"PRIMARY_FAILURE_THRESHOLD,default=5"`
	FailureCooldown    time.Duration `env:"PRIMARY_FAILURE_COOLDOWN,default=30s"`
	ReadyProbeTimeout  time.Duration `env:"READY_PROBE_TIMEOUT,default=3s"`
	ReadyProbeEndpoint string        `env:"READY_PROBE_PATH,default=/api/health"`

	// auth settings
	AuthDisabled        bool          `env:"AUTH_DISABLED,default=false"`
	JWKSURL             string        `env:"JWKS_URL"`
	JWKSFile            string        `env:"JWKS_FILE"`
	JWTIssuer           string        `env:"JWT_ISSUER"`
	JWTAudience         string        `env:"JWT_AUDIENCE"`
	JWKCacheMinRefresh  time.Duration `env:"JWK_CACHE_MIN_REFRESH,default=10m"`
	JWKCacheMaxRefresh  time.Duration `env:"JWK_CACHE_MAX_REFRESH,default=12h"`
	JWKCacheHTTPTimeout time.Duration `env:"JWK_CACHE_HTTP_TIMEOUT,default=30s"`

	// tenant directory
	TenantServiceName string `env:"TENANT_SERVICE_NAME,default=static"`
	TenantsFile       string `env:"TENANTS_FILE"`

	// database settings (TENANT_SERVICE_NAME=database)
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS,default=4"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS,default=0"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME,default=60m"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME,default=30m"`
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`
	DBMigrateOnStart    bool          `env:"DB_MIGRATE_ON_START,default=true"`
}

// ClientEnvironment configures eudrctl and other programs that call the API through apiclient
type ClientEnvironment struct {
	PrimaryAPIURL    string        `env:"PRIMARY_API_URL"`
	SecondaryAPIURL  string        `env:"SECONDARY_API_URL"`
	BackendMode      string        `env:"BACKEND_MODE,default=auto"`
	FallbackEnabled  bool          `env:"FALLBACK_ENABLED,default=true"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT,default=30s"`
	TenantID         string        `env:"TENANT_ID"`
	APIToken         string        `env:"API_TOKEN"`
	SigningKeyPath   string        `env:"SIGNING_KEY_PATH"`
	TokenSubject     string        `env:"TOKEN_SUBJECT,default=eudrctl"`
	TokenTTL         time.Duration `env:"TOKEN_TTL,default=15m"`
	JWTIssuer        string        `env:"JWT_ISSUER"`
	JWTAudience      string        `env:"JWT_AUDIENCE"`
	LogLevel         string        `env:"LOG_LEVEL,default=warn"`
	FailureThreshold int           `env:"PRIMARY_FAILURE_THRESHOLD,default=0"`
}

// LauncherEnvironment configures eudr-launcher
type LauncherEnvironment struct {
	Environment  string        `env:"ENVIRONMENT,default=dev"`
	LogLevel     string        `env:"LOG_LEVEL,default=info"`
	ServerBinary string        `env:"SERVER_BINARY,required=true"`
	ServerDir    string        `env:"SERVER_DIR"`
	StopTimeout  time.Duration `env:"STOP_TIMEOUT,default=10s"`
	ReadyURL     string        `env:"READY_URL"`
	ReadyTimeout time.Duration `env:"READY_TIMEOUT,default=30s"`
}

// AdminEnvironment configures the eudrctl tenants commands, which work directly on the gateway database
type AdminEnvironment struct {
	Environment         string        `env:"ENVIRONMENT,default=dev"`
	DatabaseURL         string        `env:"DATABASE_URL,required=true"`
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`
}

// DatabaseSettings are the connection pool settings used by database.NewPool
type DatabaseSettings struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
	PingTimeout     time.Duration
}

// DatabaseSettings returns the gateway's connection pool settings
func (cfg *GatewayEnvironment) DatabaseSettings() DatabaseSettings {
	return DatabaseSettings{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.DBMaxConnections,
		MinConns:        cfg.DBMinConnections,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		ConnectTimeout:  cfg.DBConnectTimeout,
		PingTimeout:     cfg.DatabasePingTimeout,
	}
}

// DatabaseSettings returns a single connection pool for the admin commands
func (cfg *AdminEnvironment) DatabaseSettings() DatabaseSettings {
	return DatabaseSettings{
		URL:            cfg.DatabaseURL,
		MaxConns:       1,
		ConnectTimeout: cfg.DBConnectTimeout,
		PingTimeout:    cfg.DatabasePingTimeout,
	}
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

var validModes = map[string]bool{
	"auto":      true,
	"primary":   true,
	"secondary": true,
}

var validTenantServices = map[string]bool{
	"static":   true,
	"database": true,
}

// NewGatewayConfig loads environment variables and returns a GatewayEnvironment struct that contains the values
func NewGatewayConfig() (*GatewayEnvironment, error) {
	var cfg GatewayEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewClientConfig loads the API client configuration from the environment
func NewClientConfig() (*ClientEnvironment, error) {
	var cfg ClientEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateClientConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewLauncherConfig loads the launcher configuration from the environment
func NewLauncherConfig() (*LauncherEnvironment, error) {
	var cfg LauncherEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if !validEnvs[cfg.Environment] {
		return nil, fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}
	if cfg.ServerBinary == "" {
		return nil, fmt.Errorf("SERVER_BINARY must not be empty")
	}
	if cfg.StopTimeout <= 0 {
		return nil, fmt.Errorf("STOP_TIMEOUT must be greater than 0")
	}
	if cfg.ReadyURL != "" {
		if err := validateURL("READY_URL", cfg.ReadyURL); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// NewAdminConfig loads the eudrctl database settings from the environment
func NewAdminConfig() (*AdminEnvironment, error) {
	var cfg AdminEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if cfg.DatabasePingTimeout <= 0 {
		return nil, fmt.Errorf("DATABASE_PING_TIMEOUT must be greater than 0")
	}
	return &cfg, nil
}

// validateConfig checks ranges and combinations of gateway settings
func validateConfig(cfg *GatewayEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	if err := validateBackends(cfg.PrimaryAPIURL, cfg.SecondaryAPIURL, cfg.BackendMode); err != nil {
		return err
	}
	if cfg.FailureThreshold < 0 {
		return fmt.Errorf("PRIMARY_FAILURE_THRESHOLD must be 0 or greater")
	}
	if cfg.MaxRequestBytes < 1 {
		return fmt.Errorf("MAX_REQUEST_BYTES must be at least 1")
	}
	if cfg.RateLimitRPS < 0 || cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be 0 or greater")
	}
	if !strings.HasPrefix(cfg.ReadyProbeEndpoint, "/") {
		return fmt.Errorf("READY_PROBE_PATH must start with /")
	}

	// auth
	if cfg.AuthDisabled {
		if cfg.Environment == "prod" || cfg.Environment == "staging" {
			return fmt.Errorf("AUTH_DISABLED is not allowed in %s", cfg.Environment)
		}
	} else {
		if cfg.JWKSURL == "" && cfg.JWKSFile == "" {
			return fmt.Errorf("one of JWKS_URL or JWKS_FILE must be set unless AUTH_DISABLED=true")
		}
		if cfg.JWKSURL != "" && cfg.JWKSFile != "" {
			return fmt.Errorf("JWKS_URL and JWKS_FILE are mutually exclusive")
		}
		if cfg.JWKSURL != "" {
			if err := validateURL("JWKS_URL", cfg.JWKSURL); err != nil {
				return err
			}
		}
	}

	// tenant directory
	if !validTenantServices[cfg.TenantServiceName] {
		return fmt.Errorf("invalid TENANT_SERVICE_NAME: %s (expected static or database)", cfg.TenantServiceName)
	}
	switch cfg.TenantServiceName {
	case "static":
		if cfg.TenantsFile == "" {
			return fmt.Errorf("TENANTS_FILE is required when TENANT_SERVICE_NAME=static")
		}
	case "database":
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when TENANT_SERVICE_NAME=database")
		}
	}

	// Validate database pool configuration
	if cfg.DBMaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.DBMinConnections < 0 {
		return fmt.Errorf("DB_MIN_CONNECTIONS must be 0 or greater")
	}
	if cfg.DBMinConnections > cfg.DBMaxConnections {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) cannot be greater than DB_MAX_CONNECTIONS (%d)",
			cfg.DBMinConnections, cfg.DBMaxConnections)
	}

	return nil
}

func validateClientConfig(cfg *ClientEnvironment) error {
	if err := validateBackends(cfg.PrimaryAPIURL, cfg.SecondaryAPIURL, cfg.BackendMode); err != nil {
		return err
	}
	if cfg.APIToken != "" && cfg.SigningKeyPath != "" {
		return fmt.Errorf("API_TOKEN and SIGNING_KEY_PATH are mutually exclusive")
	}
	if cfg.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be greater than 0")
	}
	if cfg.FailureThreshold < 0 {
		return fmt.Errorf("PRIMARY_FAILURE_THRESHOLD must be 0 or greater")
	}
	return nil
}

func validateBackends(primary, secondary, mode string) error {
	if primary == "" && secondary == "" {
		return fmt.Errorf("at least one of PRIMARY_API_URL or SECONDARY_API_URL must be set")
	}
	if primary != "" {
		if err := validateURL("PRIMARY_API_URL", primary); err != nil {
			return err
		}
	}
	if secondary != "" {
		if err := validateURL("SECONDARY_API_URL", secondary); err != nil {
			return err
		}
	}
	if !validModes[mode] {
		return fmt.Errorf("invalid BACKEND_MODE: %s (expected auto, primary or secondary)", mode)
	}
	if mode == "primary" && primary == "" {
		return fmt.Errorf("BACKEND_MODE=primary requires PRIMARY_API_URL")
	}
	if mode == "secondary" && secondary == "" {
		return fmt.Errorf("BACKEND_MODE=secondary requires SECONDARY_API_URL")
	}
	return nil
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
	}
	return nil
}
