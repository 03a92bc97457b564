package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/trade-tools/webkeeper/pkg/errors"
)

// DefaultPort is used when the service configuration omits the port field.
const DefaultPort = 8000

// ServiceConfig is the slice of the web service's config.json the supervisor
// cares about. The file is owned by the service itself and carries more
// fields (trading mode, coin list, log file); only the listening port is
// relevant here and the rest is ignored on purpose.
type ServiceConfig struct {
	Port int `json:"port"`
}

// LoadConfigFromFile loads the service configuration from a JSON file
func LoadConfigFromFile(filename string) (*ServiceConfig, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read service configuration file", err).WithContext("filename", filename)
	}

	var config ServiceConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, errors.NewValidationError("failed to parse JSON configuration", err).WithContext("filename", filename)
	}

	setConfigDefaults(&config)

	return &config, nil
}

// ValidateConfig validates the loaded service configuration
func ValidateConfig(config *ServiceConfig) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	if config.Port <= 0 || config.Port > 65535 {
		return errors.NewValidationError(
			fmt.Sprintf("port must be between 1 and 65535, got %d", config.Port), nil)
	}

	return nil
}

// setConfigDefaults applies default values to configuration
func setConfigDefaults(config *ServiceConfig) {
	// An absent port field decodes to zero
	if config.Port == 0 {
		config.Port = DefaultPort
	}
}
