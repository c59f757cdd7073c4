// Package config loads the aisearch configuration from config.yml, .env files
// and the environment.
package config

import (
	"time"

	infraconfig "github.com/jonesrussell/north-cloud/aisearch/infrastructure/config"
	"github.com/jonesrussell/north-cloud/aisearch/internal/searchapi"
)

// Default configuration values.
const (
	defaultConfigPath          = "config.yml"
	defaultServiceName         = "aisearch"
	defaultServiceVersion      = "1.0.0"
	defaultServicePort         = 8095
	defaultAuthMode            = AuthModeAPIKey
	defaultRetryMaxAttempts    = 3
	defaultRetryInitialDelay   = 500 * time.Millisecond
	defaultRetryMaxDelay       = 10 * time.Second
	defaultBreakerThreshold    = 5
	defaultBreakerTimeout      = 30 * time.Second
	defaultStorageSampleBlobs  = 5
	defaultHistoryLimit        = 50
	defaultDBHost              = "localhost"
	defaultDBPort              = 5432
	defaultDBUser              = "postgres"
	defaultDBName              = "aisearch"
	defaultDBSSLMode           = "disable"
	defaultDBMaxConns          = 10
	defaultDBMaxIdleConns      = 2
	defaultDBConnLifetimeM     = 5
	defaultLogLevel            = "info"
	defaultLogFormat           = "console"
	defaultShutdownGracePeriod = 10 * time.Second
)

// Authentication modes for the search service.
const (
	AuthModeAPIKey = "api-key"
	AuthModeEntra  = "entra"
)

// Config holds the application configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Retry    RetryConfig    `yaml:"retry"`
	Breaker  BreakerConfig  `yaml:"circuit_breaker"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServiceConfig configures httpd mode.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Port      int    `env:"AISEARCH_PORT"       yaml:"port"`
	Debug     bool   `env:"APP_DEBUG"           yaml:"debug"`
	JWTSecret string `env:"AISEARCH_JWT_SECRET" yaml:"jwt_secret"` //nolint:gosec // G117: signing secret config
}

// SearchConfig locates the search service.
type SearchConfig struct {
	Endpoint            string        `env:"AZURE_SEARCH_ENDPOINT"    yaml:"endpoint"`
	APIVersion          string        `env:"AZURE_SEARCH_API_VERSION" yaml:"api_version"`
	Timeout             time.Duration `env:"AZURE_SEARCH_TIMEOUT"     yaml:"timeout"`
	ReachabilityTimeout time.Duration `yaml:"reachability_timeout"`
}

// AuthConfig selects and configures the authentication strategy.
type AuthConfig struct {
	Mode         string `env:"AZURE_SEARCH_AUTH_MODE" yaml:"mode"`
	APIKey       string `env:"AZURE_SEARCH_API_KEY"   yaml:"api_key"` //nolint:gosec // G117: admin key config
	TenantID     string `env:"AZURE_TENANT_ID"        yaml:"tenant_id"`
	ClientID     string `env:"AZURE_CLIENT_ID"        yaml:"client_id"`
	ClientSecret string `env:"AZURE_CLIENT_SECRET"    yaml:"client_secret"` //nolint:gosec // G117: credential config
}

// RetryConfig tunes the shared retry policy.
type RetryConfig struct {
	MaxAttempts  int           `env:"AZURE_SEARCH_MAX_ATTEMPTS" yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// BreakerConfig tunes the circuit breaker guarding the endpoint.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	Timeout          time.Duration `yaml:"timeout"`
}

// IndexerConfig holds defaults for indexer creation.
type IndexerConfig struct {
	DataSource  string `env:"AZURE_SEARCH_DATASOURCE" yaml:"datasource"`
	TargetIndex string `env:"AZURE_SEARCH_INDEX"      yaml:"target_index"`
	// Replace deletes an existing indexer before creating it.
	Replace   bool `yaml:"replace"`
	Minimal   bool `yaml:"minimal"`
	Preflight bool `yaml:"preflight"`
}

// StorageConfig enables the blob container probe used by datasource diagnostics.
type StorageConfig struct {
	ConnectionString string `env:"AZURE_STORAGE_CONNECTION_STRING" yaml:"connection_string"` //nolint:gosec // G117: storage credential config
	AccountURL       string `env:"AZURE_STORAGE_ACCOUNT_URL"       yaml:"account_url"`
	SampleBlobs      int    `yaml:"sample_blobs"`
}

// Enabled reports whether any storage credential is configured.
func (s StorageConfig) Enabled() bool {
	return s.ConnectionString != "" || s.AccountURL != ""
}

// DatabaseConfig configures the optional operation journal.
type DatabaseConfig struct {
	Enabled               bool          `env:"POSTGRES_AISEARCH_ENABLED"  yaml:"enabled"`
	Host                  string        `env:"POSTGRES_AISEARCH_HOST"     yaml:"host"`
	Port                  int           `env:"POSTGRES_AISEARCH_PORT"     yaml:"port"`
	User                  string        `env:"POSTGRES_AISEARCH_USER"     yaml:"user"`
	Password              string        `env:"POSTGRES_AISEARCH_PASSWORD" yaml:"password"` //nolint:gosec // G117: DB connection config
	Database              string        `env:"POSTGRES_AISEARCH_DB"       yaml:"database"`
	SSLMode               string        `yaml:"sslmode"`
	MaxConnections        int           `yaml:"max_connections"`
	MaxIdleConns          int           `yaml:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
	HistoryLimit          int           `yaml:"history_limit"`
}

// Infra converts to the shared database config.
func (d DatabaseConfig) Infra() infraconfig.DatabaseConfig {
	return infraconfig.DatabaseConfig{
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		MaxConnections:  d.MaxConnections,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnectionMaxLifetime,
	}
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// DefaultPath returns CONFIG_PATH or config.yml.
func DefaultPath() string {
	return infraconfig.GetConfigPath(defaultConfigPath)
}

// Load loads configuration from a YAML file. A missing file is not an error,
// so the tool can run from environment variables alone.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, setDefaults, infraconfig.AllowMissing())
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setSearchDefaults(&cfg.Search)
	setAuthDefaults(&cfg.Auth)
	setRetryDefaults(&cfg.Retry)
	setBreakerDefaults(&cfg.Breaker)
	setStorageDefaults(&cfg.Storage)
	setDatabaseDefaults(&cfg.Database)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
}

func setSearchDefaults(s *SearchConfig) {
	if s.APIVersion == "" {
		s.APIVersion = searchapi.DefaultAPIVersion
	}
	if s.Timeout == 0 {
		s.Timeout = searchapi.DefaultTimeout
	}
	if s.ReachabilityTimeout == 0 {
		s.ReachabilityTimeout = searchapi.DefaultReachabilityTimeout
	}
}

func setAuthDefaults(a *AuthConfig) {
	if a.Mode == "" {
		a.Mode = defaultAuthMode
	}
}

func setRetryDefaults(r *RetryConfig) {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = defaultRetryMaxAttempts
	}
	if r.InitialDelay == 0 {
		r.InitialDelay = defaultRetryInitialDelay
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = defaultRetryMaxDelay
	}
}

func setBreakerDefaults(b *BreakerConfig) {
	if b.FailureThreshold == 0 {
		b.FailureThreshold = defaultBreakerThreshold
	}
	if b.Timeout == 0 {
		b.Timeout = defaultBreakerTimeout
	}
}

func setStorageDefaults(s *StorageConfig) {
	if s.SampleBlobs == 0 {
		s.SampleBlobs = defaultStorageSampleBlobs
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnectionMaxLifetime == 0 {
		d.ConnectionMaxLifetime = defaultDBConnLifetimeM * time.Minute
	}
	if d.HistoryLimit == 0 {
		d.HistoryLimit = defaultHistoryLimit
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}

// ShutdownGracePeriod bounds httpd shutdown.
func (c *Config) ShutdownGracePeriod() time.Duration {
	return defaultShutdownGracePeriod
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := infraconfig.ValidateHTTPURL("search.endpoint", c.Search.Endpoint); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("search.api_version", c.Search.APIVersion); err != nil {
		return err
	}

	switch c.Auth.Mode {
	case AuthModeAPIKey:
		if c.Auth.APIKey == "" {
			return &infraconfig.ValidationError{Field: "auth.api_key", Message: "is required when auth.mode is api-key"}
		}
	case AuthModeEntra:
	default:
		return &infraconfig.ValidationError{Field: "auth.mode", Message: "must be one of: api-key, entra"}
	}

	if c.Retry.MaxAttempts < 1 {
		return &infraconfig.ValidationError{Field: "retry.max_attempts", Message: "must be at least 1"}
	}

	if c.Database.Enabled {
		db := c.Database.Infra()
		if err := db.Validate(); err != nil {
			return err
		}
	}

	logging := infraconfig.LoggingConfig{Level: c.Logging.Level, Format: c.Logging.Format}
	return logging.Validate()
}

// ValidateServer additionally checks the settings httpd needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return infraconfig.ValidatePort("service.port", c.Service.Port)
}
