package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Local HTTP surface (status, settings, metrics)
	Server ServerConfig `mapstructure:"server"`

	// Hospital backend REST API
	Backend BackendConfig `mapstructure:"backend"`

	// Dose alerting configuration
	Alerting AlertingConfig `mapstructure:"alerting"`

	// Audio playback configuration
	Audio AudioConfig `mapstructure:"audio"`

	// Monitoring configuration
	Monitoring MonitoringConfig `mapstructure:"monitoring"`

	// Preference store location
	PreferencesPath string `mapstructure:"preferences_path"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// BackendConfig holds hospital backend API configuration
type BackendConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	RequestTimeout int    `mapstructure:"request_timeout"`
}

// AlertingConfig holds dose alert scheduler configuration
type AlertingConfig struct {
	PollInterval int `mapstructure:"poll_interval"` // seconds between polls
	WindowSlack  int `mapstructure:"window_slack"`  // minutes of tolerance around each threshold
}

// AudioConfig holds alert sound configuration
type AudioConfig struct {
	SoundDir     string            `mapstructure:"sound_dir"`
	Sounds       map[string]string `mapstructure:"sounds"`
	DefaultSound string            `mapstructure:"default_sound"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
	HealthPath  string `mapstructure:"health_path"`
}

// PollIntervalDuration returns the poll interval as a duration
func (a *AlertingConfig) PollIntervalDuration() time.Duration {
	return time.Duration(a.PollInterval) * time.Second
}

// RequestTimeoutDuration returns the backend request timeout as a duration
func (b *BackendConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(b.RequestTimeout) * time.Second
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/medisync")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Override with environment variables
	overrideWithEnv(&config)

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.read_timeout", 15)
	viper.SetDefault("server.write_timeout", 15)
	viper.SetDefault("server.idle_timeout", 60)

	// Backend defaults
	viper.SetDefault("backend.base_url", "http://localhost:8000/api")
	viper.SetDefault("backend.request_timeout", 10)

	// Alerting defaults
	viper.SetDefault("alerting.poll_interval", 60)
	viper.SetDefault("alerting.window_slack", 1)

	// Audio defaults
	viper.SetDefault("audio.sound_dir", "./assets/sounds")
	viper.SetDefault("audio.sounds", map[string]string{
		"alarm 1": "alarm 1.wav",
		"alarm 2": "alarm 2.wav",
		"alarm 3": "alarm 3.wav",
		"alarm 4": "alarm 4.wav",
	})
	viper.SetDefault("audio.default_sound", "alarm 1")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
	viper.SetDefault("monitoring.health_path", "/health")

	// Preference store defaults
	viper.SetDefault("preferences_path", "./preferences.json")

	// Logging defaults
	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if baseURL := os.Getenv("BASE_API"); baseURL != "" {
		config.Backend.BaseURL = baseURL
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Alerting.PollInterval <= 0 {
		return fmt.Errorf("invalid poll interval: %d", config.Alerting.PollInterval)
	}

	if _, ok := config.Audio.Sounds[config.Audio.DefaultSound]; !ok {
		return fmt.Errorf("default sound %q has no file mapping", config.Audio.DefaultSound)
	}

	return nil
}
