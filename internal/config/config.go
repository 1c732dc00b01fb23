package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Rules     RulesConfig     `mapstructure:"rules"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// ExtractorConfig holds extraction pipeline configuration
type ExtractorConfig struct {
	Workers    int  `mapstructure:"workers"`
	AIFallback bool `mapstructure:"ai_fallback"`
}

// RulesConfig holds rule engine configuration
type RulesConfig struct {
	Tolerance float64 `mapstructure:"tolerance"`
}

// OpenAIConfig holds OpenAI API configuration, used only when the AI
// extraction fallback is enabled
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a configuration with default values only, for CLI runs
// where no config file is supplied.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxUploadMB:  32,
		},
		Database: DatabaseConfig{
			Path:            "data/invoice_qc.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			MigrationsDir:   "migrations",
		},
		Extractor: ExtractorConfig{Workers: 4},
		Rules:     RulesConfig{Tolerance: 0.02},
		OpenAI: OpenAIConfig{
			Model:   "gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		Logger: LoggerConfig{
			Level:      "info",
			OutputPath: "stdout",
			Format:     "console",
		},
	}
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.max_upload_mb", 32)

	// Database defaults
	viper.SetDefault("database.path", "data/invoice_qc.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// Extraction defaults
	viper.SetDefault("extractor.workers", 4)
	viper.SetDefault("extractor.ai_fallback", false)

	// Rule engine defaults
	viper.SetDefault("rules.tolerance", 0.02)

	// OpenAI defaults
	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("openai.timeout", 60*time.Second)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Rules.Tolerance < 0 {
		return fmt.Errorf("rules.tolerance must be non-negative, got %f", c.Rules.Tolerance)
	}
	if c.Extractor.Workers <= 0 {
		return fmt.Errorf("extractor.workers must be positive, got %d", c.Extractor.Workers)
	}
	if c.Extractor.AIFallback && c.OpenAI.APIKey == "" {
		return fmt.Errorf("extractor.ai_fallback requires openai.api_key")
	}
	return nil
}
