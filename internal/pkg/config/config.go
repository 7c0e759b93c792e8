package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang-switchport/internal/adapter/infrastructure/configdb"
	"golang-switchport/internal/adapter/infrastructure/ssh"
	"golang-switchport/internal/pkg/logging"
	"golang-switchport/internal/pkg/validation"
	"golang-switchport/internal/types"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	TransportSSH      = "ssh"
	TransportConfigDB = "configdb"

	DefaultServeInterval = 30 * time.Second
)

// InterfaceConfig represents the desired switchport configuration of one interface
type InterfaceConfig struct {
	State          types.Lifecycle `yaml:"state,omitempty" toml:"state,omitempty" validate:"omitempty,oneof=present absent"`
	types.Settings `yaml:",inline"`
}

// TransportConfig selects and configures the device management channel
type TransportConfig struct {
	Type     string           `yaml:"type" toml:"type" validate:"required,oneof=ssh configdb"`
	SSH      *ssh.Config      `yaml:"ssh,omitempty" toml:"ssh,omitempty" validate:"required_if=Type ssh"`
	ConfigDB *configdb.Config `yaml:"configdb,omitempty" toml:"configdb,omitempty" validate:"required_if=Type configdb"`
}

// ServeConfig configures the drift correction loop
type ServeConfig struct {
	Interval string `yaml:"interval,omitempty" toml:"interval,omitempty"`
}

// Config represents the main configuration structure
type Config struct {
	Logging    logging.LogConfig          `yaml:"logging" toml:"logging"`
	Transport  TransportConfig            `yaml:"transport" toml:"transport"`
	Serve      ServeConfig                `yaml:"serve,omitempty" toml:"serve,omitempty"`
	Interfaces map[string]InterfaceConfig `yaml:"interfaces" toml:"interfaces" validate:"dive"`
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load loads configuration from a YAML or TOML file, chosen by extension.
// ${VAR} references inside string values are expanded after parsing, from the process environment
// and then the optional env files, so expanded text never changes the document structure.
// In TOML only quoted strings are expanded; in YAML plain scalars are too and keep their resolved type.
func Load(configPath string, envFiles ...string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	env := map[string]string{}
	if len(envFiles) > 0 {
		env, err = godotenv.Read(envFiles...)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file: %w", err)
		}
	}

	var config Config
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".toml":
		err = decodeTOML(data, env, &config)
	default:
		err = decodeYAML(data, env, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return &config, nil
}

func decodeYAML(data []byte, env map[string]string, config *Config) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Kind == 0 {
		return nil
	}
	expandYAML(&doc, env)
	return doc.Decode(config)
}

// expandYAML expands scalar values in place. Mapping keys are left alone.
func expandYAML(node *yaml.Node, env map[string]string) {
	switch node.Kind {
	case yaml.ScalarNode:
		node.Value = expandEnv(node.Value, env)
	case yaml.MappingNode:
		for i := 1; i < len(node.Content); i += 2 {
			expandYAML(node.Content[i], env)
		}
	default:
		for _, child := range node.Content {
			expandYAML(child, env)
		}
	}
}

func decodeTOML(data []byte, env map[string]string, config *Config) error {
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("line %d, column %d: %w", row, col, err)
		}
		return err
	}

	expanded, err := toml.Marshal(expandTOML(doc, env))
	if err != nil {
		return err
	}
	return toml.Unmarshal(expanded, config)
}

func expandTOML(v interface{}, env map[string]string) interface{} {
	switch val := v.(type) {
	case string:
		return expandEnv(val, env)
	case map[string]interface{}:
		for k, item := range val {
			val[k] = expandTOML(item, env)
		}
	case []interface{}:
		for i, item := range val {
			val[i] = expandTOML(item, env)
		}
	}
	return v
}

// expandEnv replaces ${VAR} references. The process environment takes precedence over env files.
// Unset variables expand to an empty string.
func expandEnv(value string, fileEnv map[string]string) string {
	return envRef.ReplaceAllStringFunc(value, func(ref string) string {
		name := envRef.FindStringSubmatch(ref)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return fileEnv[name]
	})
}

// GetInterfaceConfig returns the configuration for a specific interface
func (c *Config) GetInterfaceConfig(interfaceName string) (InterfaceConfig, bool) {
	config, exists := c.Interfaces[interfaceName]
	return config, exists
}

// DesiredState returns the desired state of a configured interface
func (c *Config) DesiredState(interfaceName string) (types.DesiredState, bool) {
	iface, exists := c.Interfaces[interfaceName]
	if !exists {
		return types.DesiredState{}, false
	}
	return types.DesiredState{
		InterfaceID: interfaceName,
		Lifecycle:   iface.State,
		Settings:    iface.Settings.Normalized(),
	}, true
}

// DesiredStates returns the desired state of every configured interface, sorted by name
func (c *Config) DesiredStates() []types.DesiredState {
	names := make([]string, 0, len(c.Interfaces))
	for name := range c.Interfaces {
		names = append(names, name)
	}
	sort.Strings(names)

	states := make([]types.DesiredState, 0, len(names))
	for _, name := range names {
		state, _ := c.DesiredState(name)
		states = append(states, state)
	}
	return states
}

// ServeInterval returns the drift correction interval
func (c *Config) ServeInterval() (time.Duration, error) {
	if c.Serve.Interval == "" {
		return DefaultServeInterval, nil
	}
	d, err := time.ParseDuration(c.Serve.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid serve interval %q: %w", c.Serve.Interval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("serve interval must be positive, got %s", d)
	}
	return d, nil
}

// Validate validates the transport section. Interfaces are optional here; commands that need them check.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}

	for name := range c.Interfaces {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("interface name must not be empty")
		}
	}

	if _, err := c.ServeInterval(); err != nil {
		return err
	}

	switch c.Transport.Type {
	case TransportSSH:
		if _, err := c.Transport.SSH.DialTimeout(); err != nil {
			return err
		}
	case TransportConfigDB:
		if _, err := c.Transport.ConfigDB.Options(); err != nil {
			return err
		}
	}

	return nil
}

// ValidateInterfaces checks that at least one interface is configured
func (c *Config) ValidateInterfaces() error {
	if len(c.Interfaces) == 0 {
		return fmt.Errorf("no interfaces configured")
	}
	return nil
}
