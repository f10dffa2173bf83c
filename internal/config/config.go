package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool          `mapstructure:"debug"`
	SentryDSN string        `mapstructure:"sentry_dsn"`
	LogFile   LogFileConfig `mapstructure:"log_file"`
}

// LogFileConfig holds the optional rotated log file settings
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or sqlite
	Path            string        `mapstructure:"path"`   // sqlite file path or ":memory:"
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// ChainConfig holds the chain endpoints and the marketplace contract
type ChainConfig struct {
	RPCURL               string        `mapstructure:"rpc_url"`
	WebSocketURL         string        `mapstructure:"websocket_url"`
	RESTURL              string        `mapstructure:"rest_url"`
	APIKey               string        `mapstructure:"api_key"`
	MarketplaceContract  string        `mapstructure:"marketplace_contract"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
	BlockHeadTTL         time.Duration `mapstructure:"block_head_ttl"`
	BlockHeadStaleWindow time.Duration `mapstructure:"block_head_stale_window"`
}

// ScannerConfig holds the block scanner settings
type ScannerConfig struct {
	StartHeight        uint64        `mapstructure:"start_height"`
	SafetyLag          uint64        `mapstructure:"safety_lag"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	BatchSize          int           `mapstructure:"batch_size"`
	PrefetchWorkers    int           `mapstructure:"prefetch_workers"`
	IncludeMarketplace bool          `mapstructure:"include_marketplace"`
}

// StreamConfig holds the websocket stream settings
type StreamConfig struct {
	ReconnectInitial time.Duration `mapstructure:"reconnect_initial"`
	ReconnectMax     time.Duration `mapstructure:"reconnect_max"`
	PingInterval     time.Duration `mapstructure:"ping_interval"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
}

// MetadataConfig holds the off-chain metadata fetch settings
type MetadataConfig struct {
	IPFSGateway       string        `mapstructure:"ipfs_gateway"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

// RegistryConfig holds the collection allow-list settings
type RegistryConfig struct {
	SeedPath        string        `mapstructure:"seed_path"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// ServerConfig holds the ops HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// StreamDriverConfig holds configuration for stream-driver
type StreamDriverConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Chain      ChainConfig    `mapstructure:"chain"`
	Stream     StreamConfig   `mapstructure:"stream"`
	Metadata   MetadataConfig `mapstructure:"metadata"`
	Registry   RegistryConfig `mapstructure:"registry"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Server     ServerConfig   `mapstructure:"server"`
}

// BlockScannerConfig holds configuration for block-scanner
type BlockScannerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Chain      ChainConfig    `mapstructure:"chain"`
	Scanner    ScannerConfig  `mapstructure:"scanner"`
	Metadata   MetadataConfig `mapstructure:"metadata"`
	Registry   RegistryConfig `mapstructure:"registry"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Server     ServerConfig   `mapstructure:"server"`
}

// IndexerCtlConfig holds configuration for the indexerctl admin tool
type IndexerCtlConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Chain      ChainConfig    `mapstructure:"chain"`
	Scanner    ScannerConfig  `mapstructure:"scanner"`
	Metadata   MetadataConfig `mapstructure:"metadata"`
	Registry   RegistryConfig `mapstructure:"registry"`
}

// LoadStreamDriverConfig loads configuration for stream-driver
func LoadStreamDriverConfig(configFile string, envPath string) (*StreamDriverConfig, error) {
	v := configureViper("stream-driver", configFile, envPath)

	setCommonDefaults(v)
	v.SetDefault("stream.reconnect_initial", "1s")
	v.SetDefault("stream.reconnect_max", "30s")
	v.SetDefault("stream.ping_interval", "30s")
	v.SetDefault("stream.read_timeout", "90s")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "MRKT_EVENTS")
	v.SetDefault("server.port", 8081)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config StreamDriverConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Chain.WebSocketURL == "" {
		return nil, errors.New("chain.websocket_url is required")
	}
	if config.Chain.MarketplaceContract == "" {
		return nil, errors.New("chain.marketplace_contract is required")
	}

	return &config, nil
}

// LoadBlockScannerConfig loads configuration for block-scanner
func LoadBlockScannerConfig(configFile string, envPath string) (*BlockScannerConfig, error) {
	v := configureViper("block-scanner", configFile, envPath)

	setCommonDefaults(v)
	setScannerDefaults(v)
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "MRKT_EVENTS")
	v.SetDefault("server.port", 8082)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config BlockScannerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Chain.RPCURL == "" {
		return nil, errors.New("chain.rpc_url is required")
	}

	return &config, nil
}

// LoadIndexerCtlConfig loads configuration for indexerctl
func LoadIndexerCtlConfig(configFile string, envPath string) (*IndexerCtlConfig, error) {
	v := configureViper("indexerctl", configFile, envPath)

	setCommonDefaults(v)
	setScannerDefaults(v)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config IndexerCtlConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setCommonDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("chain.request_timeout", "15s")
	v.SetDefault("chain.block_head_ttl", "2s")
	v.SetDefault("chain.block_head_stale_window", "30s")
	v.SetDefault("metadata.ipfs_gateway", "https://ipfs.io")
	v.SetDefault("metadata.timeout", "10s")
	v.SetDefault("metadata.requests_per_second", 5)
	v.SetDefault("metadata.burst", 10)
	v.SetDefault("registry.refresh_interval", "1m")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("log_file.max_size_mb", 100)
	v.SetDefault("log_file.max_backups", 5)
	v.SetDefault("log_file.max_age_days", 14)
}

func setScannerDefaults(v *viper.Viper) {
	v.SetDefault("scanner.safety_lag", 10)
	v.SetDefault("scanner.poll_interval", "100ms")
	v.SetDefault("scanner.batch_size", 20)
	v.SetDefault("scanner.prefetch_workers", 4)
	v.SetDefault("scanner.include_marketplace", true)
}

// readConfig reads the config file, falling back to environment variables when none exists
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			// Config file not found, use environment variables
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/block-scanner/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("MRKT_INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// legacyEnvAliases maps config keys to the unprefixed variable names older deployments export
var legacyEnvAliases = map[string]string{
	"chain.rpc_url":              "RPC_URL",
	"chain.websocket_url":        "RPC_WSS_URL",
	"chain.rest_url":             "REST_API_URL",
	"chain.api_key":              "X_API_KEY",
	"chain.marketplace_contract": "MRKT_CONTRACT_ADDRESS",
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"log_file.path",
		"log_file.max_size_mb",
		"log_file.max_backups",
		"log_file.max_age_days",
		"log_file.compress",
		// Database
		"database.driver",
		"database.path",
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.auto_migrate",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Chain
		"chain.rpc_url",
		"chain.websocket_url",
		"chain.rest_url",
		"chain.api_key",
		"chain.marketplace_contract",
		"chain.request_timeout",
		"chain.block_head_ttl",
		"chain.block_head_stale_window",
		// Scanner
		"scanner.start_height",
		"scanner.safety_lag",
		"scanner.poll_interval",
		"scanner.batch_size",
		"scanner.prefetch_workers",
		"scanner.include_marketplace",
		// Stream
		"stream.reconnect_initial",
		"stream.reconnect_max",
		"stream.ping_interval",
		"stream.read_timeout",
		// Metadata
		"metadata.ipfs_gateway",
		"metadata.timeout",
		"metadata.requests_per_second",
		"metadata.burst",
		// Registry
		"registry.seed_path",
		"registry.refresh_interval",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
	}

	for _, key := range keys {
		if alias, ok := legacyEnvAliases[key]; ok {
			prefixed := "MRKT_INDEXER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
			_ = v.BindEnv(key, prefixed, alias)
			continue
		}
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		if c.Path == "" {
			return ":memory:"
		}
		return c.Path
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// LoggerFile returns the log file settings, or nil when file logging is off
func (c *BaseConfig) LoggerFile() *LogFileConfig {
	if c.LogFile.Path == "" {
		return nil
	}
	return &c.LogFile
}
