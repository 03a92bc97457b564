package keeper

import (
	"fmt"
	"io/ioutil"
	"strconv"
	"time"

	"github.com/trade-tools/webkeeper/pkg/errors"
	"github.com/trade-tools/webkeeper/pkg/process"

	"gopkg.in/yaml.v3"
)

const (
	DefaultServerCommand = "uvicorn"
	DefaultServerApp     = "web_interface:app"
	DefaultServerHost    = "0.0.0.0"
	DefaultRestartDelay  = 5 * time.Second
)

// KeeperConfig represents the supervisor's own options file structure.
// The file is optional; defaults reproduce the stock server command line.
type KeeperConfig struct {
	Server  ServerConfigOptions  `yaml:"server"`
	Restart RestartConfigOptions `yaml:"restart"`
}

// ServerConfigOptions describes how to launch the supervised web server
type ServerConfigOptions struct {
	Command          string   `yaml:"command,omitempty"`
	App              string   `yaml:"app,omitempty"`
	Host             string   `yaml:"host,omitempty"`
	Args             []string `yaml:"args,omitempty"`
	WorkingDirectory string   `yaml:"working_directory,omitempty"`
}

// RestartConfigOptions describes restart behavior
type RestartConfigOptions struct {
	Delay time.Duration `yaml:"delay,omitempty"`
}

// DefaultConfig returns a configuration with all defaults applied
func DefaultConfig() *KeeperConfig {
	config := &KeeperConfig{}
	setConfigDefaults(config)
	return config
}

// LoadConfigFromFile loads keeper options from a YAML file
func LoadConfigFromFile(filename string) (*KeeperConfig, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read options file", err).WithContext("filename", filename)
	}

	var config KeeperConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.NewValidationError("failed to parse YAML options", err).WithContext("filename", filename)
	}

	setConfigDefaults(&config)

	return &config, nil
}

// ValidateConfig validates the keeper options
func ValidateConfig(config *KeeperConfig) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	if config.Server.Command == "" {
		return errors.NewValidationError("server command is required", nil)
	}

	if config.Server.App == "" {
		return errors.NewValidationError("server app is required", nil)
	}

	if config.Restart.Delay < 0 {
		return errors.NewValidationError(
			fmt.Sprintf("restart delay cannot be negative, got %v", config.Restart.Delay), nil)
	}

	return nil
}

// setConfigDefaults applies default values to configuration
func setConfigDefaults(config *KeeperConfig) {
	if config.Server.Command == "" {
		config.Server.Command = DefaultServerCommand
	}
	if config.Server.App == "" {
		config.Server.App = DefaultServerApp
	}
	if config.Server.Host == "" {
		config.Server.Host = DefaultServerHost
	}
	if config.Restart.Delay == 0 {
		config.Restart.Delay = DefaultRestartDelay
	}
}

// ServerExecution builds the child process execution config for a validated port
func (c *KeeperConfig) ServerExecution(port int) process.ExecutionConfig {
	args := []string{c.Server.App, "--host", c.Server.Host, "--port", strconv.Itoa(port)}
	args = append(args, c.Server.Args...)

	return process.ExecutionConfig{
		ExecutablePath:   c.Server.Command,
		Args:             args,
		WorkingDirectory: c.Server.WorkingDirectory,
	}
}
