// Package config loads process configuration with the precedence
// runtime overrides > environment > defaults.
//
// Environment variables use the WFRUN_ prefix; the standard
// DATABRICKS_* variables are honored as aliases for the backend
// settings so existing workspace tooling keeps working.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the full process configuration.
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Run     RunConfig     `mapstructure:"run"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`

	// ConfigDir is the directory holding job config manifests.
	ConfigDir string `mapstructure:"config_dir"`

	// DataDir is the local state directory (run log). Empty means
	// a .wfrun directory under the user's home.
	DataDir string `mapstructure:"data_dir"`
}

// BackendConfig configures the workspace Jobs API client.
type BackendConfig struct {
	Host      string        `mapstructure:"host"`
	Token     string        `mapstructure:"token"`
	Target    string        `mapstructure:"target"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	PageSize  int           `mapstructure:"page_size"`
}

// Validate checks that the settings needed to reach the backend are set.
func (b *BackendConfig) Validate() error {
	if b.Host == "" {
		return fmt.Errorf("backend host is not configured (set WFRUN_BACKEND_HOST or DATABRICKS_HOST)")
	}
	if b.Token == "" {
		return fmt.Errorf("backend token is not configured (set WFRUN_BACKEND_TOKEN or DATABRICKS_TOKEN)")
	}
	return nil
}

// RunConfig holds submit-and-wait behavior.
type RunConfig struct {
	// Timeout is the watch ceiling for a submitted run.
	Timeout time.Duration `mapstructure:"timeout"`

	// PollInterval is the sleep between status polls.
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// ServerConfig holds the HTTP service settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Profile string `mapstructure:"profile"`
}

// RunLogDir resolves the run log location under the data dir.
func (c *Config) RunLogDir() string {
	base := c.DataDir
	if base == "" {
		if home, err := os.UserHomeDir(); err == nil {
			base = filepath.Join(home, ".wfrun")
		} else {
			base = ".wfrun"
		}
	}
	return filepath.Join(base, "runs")
}

var (
	configMu  sync.Mutex
	appConfig *Config
)

// envSpec maps one environment variable to a config path.
type envSpec struct {
	Name string
	Path string
}

func getEnvSpecs() []envSpec {
	return []envSpec{
		{"WFRUN_BACKEND_HOST", "backend.host"},
		{"WFRUN_BACKEND_TOKEN", "backend.token"},
		{"WFRUN_TARGET", "backend.target"},
		{"WFRUN_BACKEND_TIMEOUT", "backend.timeout"},
		{"WFRUN_RATE_LIMIT", "backend.rate_limit"},
		{"WFRUN_RUN_TIMEOUT", "run.timeout"},
		{"WFRUN_POLL_INTERVAL", "run.poll_interval"},
		{"WFRUN_HOST", "server.host"},
		{"WFRUN_PORT", "server.port"},
		{"WFRUN_READ_TIMEOUT", "server.read_timeout"},
		{"WFRUN_WRITE_TIMEOUT", "server.write_timeout"},
		{"WFRUN_IDLE_TIMEOUT", "server.idle_timeout"},
		{"WFRUN_SHUTDOWN_TIMEOUT", "server.shutdown_timeout"},
		{"WFRUN_LOG_LEVEL", "logging.level"},
		{"WFRUN_LOG_PROFILE", "logging.profile"},
		{"WFRUN_CONFIG_DIR", "config_dir"},
		{"WFRUN_DATA_DIR", "data_dir"},
	}
}

// aliasSpecs are the conventional workspace variables honored alongside
// the WFRUN_ names. The WFRUN_ variable wins when both are set.
func aliasSpecs() []envSpec {
	return []envSpec{
		{"DATABRICKS_HOST", "backend.host"},
		{"DATABRICKS_TOKEN", "backend.token"},
		{"DATABRICKS_BUNDLE_TARGET", "backend.target"},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.target", "dev")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.rate_limit", 0.0)
	v.SetDefault("backend.page_size", 100)

	v.SetDefault("run.timeout", "1h")
	v.SetDefault("run.poll_interval", "5s")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	v.SetDefault("config_dir", "job_configs")
	v.SetDefault("data_dir", "")
}

// Load builds the configuration. Optional override maps (nested, keyed
// like the config structure) take precedence over environment variables,
// which take precedence over defaults. The loaded config is retained for
// GetConfig.
func Load(ctx context.Context, overrides ...map[string]any) (*Config, error) {
	_ = ctx

	v := viper.New()
	setDefaults(v)

	// WFRUN_ names bind before the aliases: viper consults bound
	// variables in bind order, so the WFRUN_ value wins when both are set.
	for _, spec := range getEnvSpecs() {
		if err := bindEnv(v, spec); err != nil {
			return nil, err
		}
	}
	for _, spec := range aliasSpecs() {
		if err := bindEnv(v, spec); err != nil {
			return nil, err
		}
	}

	for _, override := range overrides {
		applyOverrides(v, "", override)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	configMu.Lock()
	appConfig = &cfg
	configMu.Unlock()

	return &cfg, nil
}

// bindEnv attaches one environment variable to a config path only when
// the variable is actually set, so an empty binding cannot mask an
// earlier one.
func bindEnv(v *viper.Viper, spec envSpec) error {
	if _, ok := os.LookupEnv(spec.Name); !ok {
		return nil
	}
	if err := v.BindEnv(spec.Path, spec.Name); err != nil {
		return fmt.Errorf("bind env %s: %w", spec.Name, err)
	}
	return nil
}

// applyOverrides flattens a nested override map onto viper keys.
func applyOverrides(v *viper.Viper, prefix string, values map[string]any) {
	for key, value := range values {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			applyOverrides(v, path, nested)
			continue
		}
		v.Set(path, value)
	}
}

// GetConfig returns the most recently loaded configuration, or nil when
// Load has not run.
func GetConfig() *Config {
	configMu.Lock()
	defer configMu.Unlock()
	return appConfig
}
