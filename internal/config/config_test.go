package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadBlockScannerConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *BlockScannerConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
database:
  host: localhost
  port: 5433
  user: testuser
  password: testpass
  dbname: testdb
  sslmode: require
chain:
  rpc_url: "http://localhost:26657"
  rest_url: "http://localhost:1317"
  api_key: "secret"
  marketplace_contract: "sei1market"
scanner:
  start_height: 1000
  safety_lag: 20
  poll_interval: "250ms"
  batch_size: 50
  prefetch_workers: 8
  include_marketplace: false
`,
			validate: func(t *testing.T, cfg *BlockScannerConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5433, cfg.Database.Port)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, "http://localhost:26657", cfg.Chain.RPCURL)
				assert.Equal(t, "http://localhost:1317", cfg.Chain.RESTURL)
				assert.Equal(t, "secret", cfg.Chain.APIKey)
				assert.Equal(t, "sei1market", cfg.Chain.MarketplaceContract)
				assert.Equal(t, uint64(1000), cfg.Scanner.StartHeight)
				assert.Equal(t, uint64(20), cfg.Scanner.SafetyLag)
				assert.Equal(t, 250*time.Millisecond, cfg.Scanner.PollInterval)
				assert.Equal(t, 50, cfg.Scanner.BatchSize)
				assert.Equal(t, 8, cfg.Scanner.PrefetchWorkers)
				assert.False(t, cfg.Scanner.IncludeMarketplace)
			},
		},
		{
			name: "config with defaults",
			configFile: `
chain:
  rpc_url: "http://localhost:26657"
`,
			validate: func(t *testing.T, cfg *BlockScannerConfig) {
				assert.Equal(t, "postgres", cfg.Database.Driver)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, uint64(10), cfg.Scanner.SafetyLag)
				assert.Equal(t, 100*time.Millisecond, cfg.Scanner.PollInterval)
				assert.Equal(t, 20, cfg.Scanner.BatchSize)
				assert.Equal(t, 4, cfg.Scanner.PrefetchWorkers)
				assert.True(t, cfg.Scanner.IncludeMarketplace)
				assert.Equal(t, 15*time.Second, cfg.Chain.RequestTimeout)
				assert.Equal(t, "https://ipfs.io", cfg.Metadata.IPFSGateway)
				assert.Equal(t, "MRKT_EVENTS", cfg.NATS.StreamName)
				assert.Equal(t, 8082, cfg.Server.Port)
				assert.Nil(t, cfg.LoggerFile())
			},
		},
		{
			name: "missing rpc url",
			configFile: `
database:
  host: localhost
`,
			expectError: true,
		},
		{
			name: "invalid value",
			configFile: `
chain:
  rpc_url: "http://localhost:26657"
database:
  port: invalid
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadBlockScannerConfig(writeConfig(t, tt.configFile), t.TempDir())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadStreamDriverConfig(t *testing.T) {
	t.Run("valid config file", func(t *testing.T) {
		path := writeConfig(t, `
chain:
  websocket_url: "ws://localhost:26657/websocket"
  marketplace_contract: "sei1market"
stream:
  reconnect_initial: "500ms"
nats:
  url: "nats://localhost:4222"
log_file:
  path: "/tmp/stream.log"
`)

		cfg, err := LoadStreamDriverConfig(path, t.TempDir())
		require.NoError(t, err)

		assert.Equal(t, "ws://localhost:26657/websocket", cfg.Chain.WebSocketURL)
		assert.Equal(t, 500*time.Millisecond, cfg.Stream.ReconnectInitial)
		assert.Equal(t, 30*time.Second, cfg.Stream.ReconnectMax)
		assert.Equal(t, 30*time.Second, cfg.Stream.PingInterval)
		assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
		assert.Equal(t, 10, cfg.NATS.MaxReconnects)
		require.NotNil(t, cfg.LoggerFile())
		assert.Equal(t, "/tmp/stream.log", cfg.LoggerFile().Path)
		assert.Equal(t, 100, cfg.LoggerFile().MaxSizeMB)
	})

	t.Run("missing marketplace contract", func(t *testing.T) {
		path := writeConfig(t, `
chain:
  websocket_url: "ws://localhost:26657/websocket"
`)

		cfg, err := LoadStreamDriverConfig(path, t.TempDir())
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})
}

func TestLoadIndexerCtlConfig_MissingFile(t *testing.T) {
	cfg, err := LoadIndexerCtlConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, uint64(10), cfg.Scanner.SafetyLag)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "postgres",
			config: DatabaseConfig{
				Driver:   "postgres",
				Host:     "localhost",
				Port:     5432,
				User:     "user",
				Password: "pass",
				DBName:   "mrkt",
				SSLMode:  "disable",
			},
			expected: "host=localhost port=5432 user=user password=pass dbname=mrkt sslmode=disable",
		},
		{
			name:     "sqlite file",
			config:   DatabaseConfig{Driver: "sqlite", Path: "/var/lib/mrkt.db"},
			expected: "/var/lib/mrkt.db",
		},
		{
			name:     "sqlite memory",
			config:   DatabaseConfig{Driver: "sqlite"},
			expected: ":memory:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	envDir := t.TempDir()

	// Note: Viper uses the MRKT_INDEXER_ prefix; legacy names are bound as aliases
	envContent := `MRKT_INDEXER_DEBUG=true
MRKT_INDEXER_DATABASE_HOST=env-host
MRKT_INDEXER_SCANNER_SAFETY_LAG=3
RPC_URL=http://env-rpc:26657
MRKT_CONTRACT_ADDRESS=sei1envmarket
`
	require.NoError(t, os.WriteFile(filepath.Join(envDir, ".env"), []byte(envContent), 0600))
	t.Cleanup(func() {
		for _, key := range []string{
			"MRKT_INDEXER_DEBUG",
			"MRKT_INDEXER_DATABASE_HOST",
			"MRKT_INDEXER_SCANNER_SAFETY_LAG",
			"RPC_URL",
			"MRKT_CONTRACT_ADDRESS",
		} {
			_ = os.Unsetenv(key)
		}
	})

	path := writeConfig(t, `
debug: false
database:
  host: file-host
chain:
  rpc_url: "http://file-rpc:26657"
`)

	cfg, err := LoadBlockScannerConfig(path, envDir)
	require.NoError(t, err)

	// The .env file is loaded via godotenv.Overload and wins over the config file
	assert.True(t, cfg.Debug)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, uint64(3), cfg.Scanner.SafetyLag)
	assert.Equal(t, "http://env-rpc:26657", cfg.Chain.RPCURL)
	assert.Equal(t, "sei1envmarket", cfg.Chain.MarketplaceContract)
}
