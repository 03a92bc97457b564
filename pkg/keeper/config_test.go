package keeper

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/trade-tools/webkeeper/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOptionsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "webkeeper.yaml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)

	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	tests := []struct {
		name        string
		optionsYAML string
		expectError bool
		validate    func(*testing.T, *KeeperConfig)
	}{
		{
			name: "full options",
			optionsYAML: `
server:
  command: "python3"
  app: "web_interface:app"
  host: "127.0.0.1"
  args: ["--workers", "1"]
restart:
  delay: "250ms"
`,
			validate: func(t *testing.T, config *KeeperConfig) {
				assert.Equal(t, "python3", config.Server.Command)
				assert.Equal(t, "web_interface:app", config.Server.App)
				assert.Equal(t, "127.0.0.1", config.Server.Host)
				assert.Equal(t, []string{"--workers", "1"}, config.Server.Args)
				assert.Equal(t, 250*time.Millisecond, config.Restart.Delay)
			},
		},
		{
			name: "partial options get defaults",
			optionsYAML: `
server:
  command: "uvicorn"
`,
			validate: func(t *testing.T, config *KeeperConfig) {
				assert.Equal(t, DefaultServerCommand, config.Server.Command)
				assert.Equal(t, DefaultServerApp, config.Server.App)
				assert.Equal(t, DefaultServerHost, config.Server.Host)
				assert.Equal(t, DefaultRestartDelay, config.Restart.Delay)
			},
		},
		{
			name:        "empty document gets all defaults",
			optionsYAML: ``,
			validate: func(t *testing.T, config *KeeperConfig) {
				assert.Equal(t, DefaultServerCommand, config.Server.Command)
				assert.Equal(t, DefaultRestartDelay, config.Restart.Delay)
			},
		},
		{
			name: "malformed YAML",
			optionsYAML: `
server: [unclosed
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeOptionsFile(t, tt.optionsYAML)

			config, err := LoadConfigFromFile(path)
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				assert.Nil(t, config)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, config)
			tt.validate(t, config)
		})
	}
}

func TestLoadConfigFromFileMissing(t *testing.T) {
	config, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "no-such-options.yaml"))

	require.Error(t, err)
	assert.True(t, errors.IsIOError(err))
	assert.Nil(t, config)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name        string
		config      *KeeperConfig
		expectError bool
	}{
		{
			name:   "defaults are valid",
			config: DefaultConfig(),
		},
		{
			name:        "nil config",
			config:      nil,
			expectError: true,
		},
		{
			name: "missing command",
			config: &KeeperConfig{
				Server:  ServerConfigOptions{App: DefaultServerApp},
				Restart: RestartConfigOptions{Delay: DefaultRestartDelay},
			},
			expectError: true,
		},
		{
			name: "missing app",
			config: &KeeperConfig{
				Server:  ServerConfigOptions{Command: DefaultServerCommand},
				Restart: RestartConfigOptions{Delay: DefaultRestartDelay},
			},
			expectError: true,
		},
		{
			name: "negative restart delay",
			config: &KeeperConfig{
				Server:  ServerConfigOptions{Command: DefaultServerCommand, App: DefaultServerApp},
				Restart: RestartConfigOptions{Delay: -1 * time.Second},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.config)
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServerExecution(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		execution := DefaultConfig().ServerExecution(9090)

		assert.Equal(t, DefaultServerCommand, execution.ExecutablePath)
		assert.Equal(t, []string{"web_interface:app", "--host", "0.0.0.0", "--port", "9090"}, execution.Args)
		assert.Empty(t, execution.WorkingDirectory)
	})

	t.Run("extra args appended after port", func(t *testing.T) {
		config := DefaultConfig()
		config.Server.Args = []string{"--workers", "2"}

		execution := config.ServerExecution(8000)

		assert.Equal(t, []string{"web_interface:app", "--host", "0.0.0.0", "--port", "8000", "--workers", "2"}, execution.Args)
	})
}
