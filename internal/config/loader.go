package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// configName is the base name searched for in the standard locations.
const configName = "iris-gate"

// dotEnvFile is read from the working directory before the environment is bound.
const dotEnvFile = ".env"

// InitViper initializes Viper with the configuration file and environment variables.
// If configFile is empty, it searches for iris-gate.yaml/.yml in standard locations.
// The search requires an explicit YAML extension to avoid matching the binary itself.
func InitViper(configFile string) {
	if err := loadDotEnv(dotEnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// Set name/type without search paths so ReadInConfig returns
		// ConfigFileNotFoundError (handled by callers).
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	// IRIS_GATE_SERVER_HTTP_ADDR overrides server.http_addr
	viper.SetEnvPrefix("IRIS_GATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// loadDotEnv exports the variables of path that are not already set.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigFile searches standard locations for an iris-gate config file.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".iris-gate"),
	}
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, filepath.Join(pd, configName))
		}
	} else {
		paths = append(paths, "/etc/iris-gate")
	}
	return findConfigFileInPaths(paths)
}

// findConfigFileInPaths searches the given directories for iris-gate.yaml or .yml.
// Returns the full path of the first match, or empty string if none found.
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, configName+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds every scalar key for environment overrides.
// The IRIS connection keys also accept their unprefixed names, which
// take precedence over the prefixed ones.
func bindNestedEnvKeys() {
	// Server config
	_ = viper.BindEnv("server.transport")
	_ = viper.BindEnv("server.http_addr")
	_ = viper.BindEnv("server.mcp_path")
	_ = viper.BindEnv("server.metrics_addr")
	_ = viper.BindEnv("server.log_level")
	_ = viper.BindEnv("server.tls_cert_file")
	_ = viper.BindEnv("server.tls_key_file")

	// IRIS connection
	_ = viper.BindEnv("iris.api_key", "IRIS_API_KEY", "IRIS_GATE_IRIS_API_KEY")
	_ = viper.BindEnv("iris.host", "IRIS_HOST", "IRIS_GATE_IRIS_HOST")
	_ = viper.BindEnv("iris.verify_ssl", "IRIS_VERIFY_SSL", "IRIS_GATE_IRIS_VERIFY_SSL")
	_ = viper.BindEnv("iris.timeout")
	_ = viper.BindEnv("iris.api_version")

	// Note: auth.api_key_hashes and server.allowed_origins are lists,
	// set them in the config file.

	_ = viper.BindEnv("rate_limit.enabled")
	_ = viper.BindEnv("rate_limit.rate")
	_ = viper.BindEnv("rate_limit.burst")
	_ = viper.BindEnv("rate_limit.period")
	_ = viper.BindEnv("rate_limit.cleanup_interval")
	_ = viper.BindEnv("rate_limit.max_ttl")

	_ = viper.BindEnv("tools.expose")

	_ = viper.BindEnv("telemetry.tracing")
	_ = viper.BindEnv("telemetry.metrics")
	_ = viper.BindEnv("telemetry.export_interval")

	_ = viper.BindEnv("dev_mode")
}

// LoadConfig reads the configuration file, applies environment overrides,
// sets defaults, and validates the result.
func LoadConfig() (*Config, error) {
	cfg, err := LoadConfigRaw()
	if err != nil {
		return nil, err
	}
	cfg.SetDevDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigRaw reads the configuration file and applies defaults,
// but does NOT apply dev defaults or validate.
// Use this when CLI flags may override DevMode before validation.
func LoadConfigRaw() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Environment-only configuration.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was loaded.
// Returns an empty string if no config file was found (env vars only mode).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
