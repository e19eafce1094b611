package serve

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/surimi/surimi/mock"
)

// Config represents the standalone server's configuration, generally
// read from surimi.yaml.
//
// Callers must call ValidateAndFillDefaults before using the config.
type Config struct {
	// Host and Port are passed straight to the mock server; port 0
	// (the default) lets the OS pick.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Mode is "websocket" (the default), "http", or "graphql-ws".
	Mode string `yaml:"mode"`

	// Responses is the replay queue, in order. Each entry may be any
	// YAML value; it is re-encoded as JSON when replayed.
	Responses []interface{} `yaml:"responses"`

	// Verbose switches the logger to debug output.
	Verbose bool `yaml:"verbose"`
}

// ValidateAndFillDefaults ensures that the configuration is valid, and
// fills in any options that were unspecified.
func (c *Config) ValidateAndFillDefaults() error {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Mode == "" {
		c.Mode = mock.WebSocket.String()
	}
	_, err := c.ConnectionType()
	if err != nil {
		return err
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %v", c.Port)
	}
	for i, response := range c.Responses {
		converted, err := toJSONValue(response)
		if err != nil {
			return fmt.Errorf("invalid response %v: %w", i+1, err)
		}
		c.Responses[i] = converted
	}
	return nil
}

// ConnectionType maps the config's mode string to the mock package's
// enum.
func (c *Config) ConnectionType() (mock.ConnectionType, error) {
	switch c.Mode {
	case "websocket":
		return mock.WebSocket, nil
	case "http":
		return mock.HTTP, nil
	case "graphql-ws":
		return mock.GraphQLWS, nil
	default:
		return 0, fmt.Errorf(
			"unknown mode %q (want websocket, http or graphql-ws)", c.Mode)
	}
}

// ReadAndValidateConfig reads the configuration from the given file,
// validates it, and returns it.
func ReadAndValidateConfig(filename string) (*Config, error) {
	text, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("unreadable config file %v: %w", filename, err)
	}

	var config Config
	err = yaml.UnmarshalStrict(text, &config)
	if err != nil {
		return nil, fmt.Errorf("invalid config file %v: %w", filename, err)
	}

	err = config.ValidateAndFillDefaults()
	if err != nil {
		return nil, fmt.Errorf("invalid config file %v: %w", filename, err)
	}

	return &config, nil
}

// yaml.v2 decodes mappings as map[interface{}]interface{}, which
// json.Marshal refuses; re-key them as strings so responses can be
// replayed as JSON.
func toJSONValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case map[interface{}]interface{}:
		converted := make(map[string]interface{}, len(v))
		for key, elem := range v {
			keyString, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("mapping keys must be strings, got %v (%T)", key, key)
			}
			elemValue, err := toJSONValue(elem)
			if err != nil {
				return nil, err
			}
			converted[keyString] = elemValue
		}
		return converted, nil
	case []interface{}:
		converted := make([]interface{}, len(v))
		for i, elem := range v {
			elemValue, err := toJSONValue(elem)
			if err != nil {
				return nil, err
			}
			converted[i] = elemValue
		}
		return converted, nil
	default:
		return value, nil
	}
}
