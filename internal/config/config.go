package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Provider    ProviderConfig  `mapstructure:"provider"`
	Telegram    TelegramConfig  `mapstructure:"telegram"`
	Collector   CollectorConfig `mapstructure:"collector"`
	Indicator   IndicatorConfig `mapstructure:"indicator"`
	Security    SecurityConfig  `mapstructure:"security"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ProviderConfig points at the external economic statistics provider the
// collector pulls series from.
type ProviderConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

type CollectorConfig struct {
	RefreshInterval string `mapstructure:"refresh_interval"`
	MaxErrors       int    `mapstructure:"max_errors"`
}

// IndicatorConfig enumerates every knob of the CLI engine and signal
// generator. Values are validated once at Load; the pipeline itself never
// re-checks them.
type IndicatorConfig struct {
	MinDataPoints            int          `mapstructure:"min_data_points"`
	HamiltonHorizon          int          `mapstructure:"hamilton_horizon"`
	SmoothingFactor          float64      `mapstructure:"smoothing_factor"`
	BuyThreshold             float64      `mapstructure:"buy_threshold"`
	SellThreshold            float64      `mapstructure:"sell_threshold"`
	MomentumThreshold        float64      `mapstructure:"momentum_threshold"`
	TrendThreshold           float64      `mapstructure:"trend_threshold"`
	MinSignalStrength        int          `mapstructure:"min_signal_strength"`
	MinConfidence            float64      `mapstructure:"min_confidence"`
	RegimeConfirmationMonths int          `mapstructure:"regime_confirmation_months"`
	Weights                  WeightConfig `mapstructure:"weights"`
	CacheTTL                 string       `mapstructure:"cache_ttl"`
}

// WeightConfig holds the combiner weights. They must be non-negative and are
// renormalized by their sum, so they need not sum to 1.
type WeightConfig struct {
	Level        float64 `mapstructure:"level"`
	Momentum     float64 `mapstructure:"momentum"`
	Trend        float64 `mapstructure:"trend"`
	Confirmation float64 `mapstructure:"confirmation"`
}

type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
	JWTExpiry string `mapstructure:"jwt_expiry"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("security.jwt_secret", "JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JWT_SECRET environment variable: %w", err)
	}
	if err := viper.BindEnv("provider.api_key", "PROVIDER_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind PROVIDER_API_KEY environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if config.Environment != "development" && config.Security.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required in non-development environments")
	}
	if config.Security.JWTExpiry != "" {
		if _, err := time.ParseDuration(config.Security.JWTExpiry); err != nil {
			return nil, fmt.Errorf("invalid JWT expiry duration: %w", err)
		}
	}
	if config.Collector.RefreshInterval != "" {
		if _, err := time.ParseDuration(config.Collector.RefreshInterval); err != nil {
			return nil, fmt.Errorf("invalid collector refresh interval: %w", err)
		}
	}
	if err := config.Indicator.Validate(); err != nil {
		return nil, fmt.Errorf("invalid indicator configuration: %w", err)
	}

	return &config, nil
}

// Validate checks the indicator knobs once so the pipeline can trust them.
func (c IndicatorConfig) Validate() error {
	if c.MinDataPoints < 12 {
		return fmt.Errorf("min_data_points must be at least 12, got %d", c.MinDataPoints)
	}
	if c.HamiltonHorizon < 1 {
		return fmt.Errorf("hamilton_horizon must be positive, got %d", c.HamiltonHorizon)
	}
	if c.SmoothingFactor <= 0 {
		return fmt.Errorf("smoothing_factor must be positive, got %v", c.SmoothingFactor)
	}
	if c.BuyThreshold <= 0 || c.SellThreshold <= 0 {
		return errors.New("buy_threshold and sell_threshold must be positive")
	}
	if c.BuyThreshold <= c.SellThreshold {
		return fmt.Errorf("buy_threshold (%v) must exceed sell_threshold (%v)", c.BuyThreshold, c.SellThreshold)
	}
	if c.MomentumThreshold <= 0 {
		return fmt.Errorf("momentum_threshold must be positive, got %v", c.MomentumThreshold)
	}
	if c.TrendThreshold <= 0 {
		return fmt.Errorf("trend_threshold must be positive, got %v", c.TrendThreshold)
	}
	if c.MinSignalStrength < 1 || c.MinSignalStrength > 5 {
		return fmt.Errorf("min_signal_strength must be in [1,5], got %d", c.MinSignalStrength)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %v", c.MinConfidence)
	}
	if c.RegimeConfirmationMonths < 0 {
		return fmt.Errorf("regime_confirmation_months must be non-negative, got %d", c.RegimeConfirmationMonths)
	}
	w := c.Weights
	if w.Level < 0 || w.Momentum < 0 || w.Trend < 0 || w.Confirmation < 0 {
		return errors.New("combiner weights must be non-negative")
	}
	if w.Level+w.Momentum+w.Trend+w.Confirmation == 0 {
		return errors.New("combiner weights must not all be zero")
	}
	if c.CacheTTL != "" {
		if _, err := time.ParseDuration(c.CacheTTL); err != nil {
			return fmt.Errorf("invalid cache_ttl: %w", err)
		}
	}
	return nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "quantum_x")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.conn_max_lifetime", "300s")

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Economic data provider
	viper.SetDefault("provider.base_url", "http://localhost:3001")
	viper.SetDefault("provider.api_key", "")
	viper.SetDefault("provider.timeout", 30)

	// Telegram
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", 0)

	// Collector
	viper.SetDefault("collector.refresh_interval", "24h")
	viper.SetDefault("collector.max_errors", 5)

	// Indicator pipeline
	viper.SetDefault("indicator.min_data_points", 60)
	viper.SetDefault("indicator.hamilton_horizon", 8)
	viper.SetDefault("indicator.smoothing_factor", 0.3)
	viper.SetDefault("indicator.buy_threshold", 102.0)
	viper.SetDefault("indicator.sell_threshold", 98.0)
	viper.SetDefault("indicator.momentum_threshold", 0.3)
	viper.SetDefault("indicator.trend_threshold", 0.2)
	viper.SetDefault("indicator.min_signal_strength", 1)
	viper.SetDefault("indicator.min_confidence", 0.6)
	viper.SetDefault("indicator.regime_confirmation_months", 1)
	viper.SetDefault("indicator.weights.level", 0.4)
	viper.SetDefault("indicator.weights.momentum", 0.3)
	viper.SetDefault("indicator.weights.trend", 0.2)
	viper.SetDefault("indicator.weights.confirmation", 0.1)
	viper.SetDefault("indicator.cache_ttl", "1h")

	// Security
	viper.SetDefault("security.jwt_secret", "")
	viper.SetDefault("security.jwt_expiry", "24h")
}

// DefaultIndicator returns the indicator configuration with all defaults
// applied, for callers constructing a pipeline outside viper.
func DefaultIndicator() IndicatorConfig {
	return IndicatorConfig{
		MinDataPoints:            60,
		HamiltonHorizon:          8,
		SmoothingFactor:          0.3,
		BuyThreshold:             102.0,
		SellThreshold:            98.0,
		MomentumThreshold:        0.3,
		TrendThreshold:           0.2,
		MinSignalStrength:        1,
		MinConfidence:            0.6,
		RegimeConfirmationMonths: 1,
		Weights: WeightConfig{
			Level:        0.4,
			Momentum:     0.3,
			Trend:        0.2,
			Confirmation: 0.1,
		},
		CacheTTL: "1h",
	}
}
