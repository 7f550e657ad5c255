package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	TextGenerator TextGeneratorConfig `mapstructure:"text_generator"`
	Analytics     AnalyticsConfig     `mapstructure:"analytics"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
	Security      SecurityConfig      `mapstructure:"security"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	ReadTimeout    string   `mapstructure:"read_timeout"`
	WriteTimeout   string   `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	DatabaseURL string `mapstructure:"database_url"`
	MaxConns    int    `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TextGeneratorConfig configures the external text-generation collaborator.
type TextGeneratorConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key" json:"-" yaml:"-"`
	Model       string  `mapstructure:"model"`
	Timeout     int     `mapstructure:"timeout"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	// BreakerFailures is the number of consecutive failures that opens the breaker.
	BreakerFailures int `mapstructure:"breaker_failures"`
	// BreakerCooldown is how long the breaker stays open, as a duration string.
	BreakerCooldown string `mapstructure:"breaker_cooldown"`
}

// AnalyticsConfig holds the calibration policy of the trend engine. None of these
// values are derived statistically; they are tuned for a 0-100 score range.
type AnalyticsConfig struct {
	TrendWindow           int     `mapstructure:"trend_window"`
	TrendThresholdPercent float64 `mapstructure:"trend_threshold_percent"`

	WMAWeights   []float64 `mapstructure:"wma_weights"`
	WMAMinPoints int       `mapstructure:"wma_min_points"`

	RegressionMinPoints int     `mapstructure:"regression_min_points"`
	CriticalValue       float64 `mapstructure:"critical_value"`
	ScoreMin            float64 `mapstructure:"score_min"`
	ScoreMax            float64 `mapstructure:"score_max"`
	DefaultHorizons     []int   `mapstructure:"default_horizons"`
	MaxHorizonDays      int     `mapstructure:"max_horizon_days"`
	MaxHorizons         int     `mapstructure:"max_horizons"`

	AnomalySigmaMultiplier float64 `mapstructure:"anomaly_sigma_multiplier"`

	ConfidenceMinPoints int     `mapstructure:"confidence_min_points"`
	ConfidenceFloor     float64 `mapstructure:"confidence_floor"`
	ConfidenceCeiling   float64 `mapstructure:"confidence_ceiling"`
	ConfidenceScale     float64 `mapstructure:"confidence_scale"`

	CorrelationPositive float64 `mapstructure:"correlation_positive"`
	CorrelationNegative float64 `mapstructure:"correlation_negative"`
	PearsonMinPoints    int     `mapstructure:"pearson_min_points"`

	SmoothingPeriod int `mapstructure:"smoothing_period"`

	DefaultLookbackDays int    `mapstructure:"default_lookback_days"`
	MinLookbackDays     int    `mapstructure:"min_lookback_days"`
	MaxLookbackDays     int    `mapstructure:"max_lookback_days"`
	SeriesCacheTTL      string `mapstructure:"series_cache_ttl"`

	InsightTimeout     string `mapstructure:"insight_timeout"`
	DiagnosisMaxLength int    `mapstructure:"diagnosis_max_length"`
	MaxInsightItems    int    `mapstructure:"max_insight_items"`
}

type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
	// AdminAPIKey enables the operational endpoints when set.
	AdminAPIKey string `mapstructure:"admin_api_key" json:"-" yaml:"-"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Bind specific environment variables
	if err := viper.BindEnv("security.jwt_secret", "JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JWT_SECRET environment variable: %w", err)
	}
	if err := viper.BindEnv("security.admin_api_key", "ADMIN_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind ADMIN_API_KEY environment variable: %w", err)
	}
	if err := viper.BindEnv("text_generator.api_key", "TEXT_GENERATOR_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind TEXT_GENERATOR_API_KEY environment variable: %w", err)
	}
	if err := viper.BindEnv("database.database_url", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_URL environment variable: %w", err)
	}

	// Read config file
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

	// Normalize environment to lowercase for consistent comparison
	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Config) Validate() error {
	if c.Environment != "development" && c.Environment != "test" && c.Security.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required in non-development environments")
	}
	if err := c.Analytics.Validate(); err != nil {
		return fmt.Errorf("invalid analytics configuration: %w", err)
	}
	for name, value := range map[string]string{
		"server.read_timeout":             c.Server.ReadTimeout,
		"server.write_timeout":            c.Server.WriteTimeout,
		"text_generator.breaker_cooldown": c.TextGenerator.BreakerCooldown,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s duration: %w", name, err)
		}
	}
	return nil
}

// Validate checks that the calibration policy is internally consistent.
func (a AnalyticsConfig) Validate() error {
	if a.TrendWindow < 1 {
		return fmt.Errorf("trend_window must be at least 1, got %d", a.TrendWindow)
	}
	if len(a.WMAWeights) == 0 {
		return errors.New("wma_weights must not be empty")
	}
	if a.RegressionMinPoints < 3 {
		return fmt.Errorf("regression_min_points must be at least 3, got %d", a.RegressionMinPoints)
	}
	if a.TrendThresholdPercent <= 0 {
		return fmt.Errorf("trend_threshold_percent must be positive, got %v", a.TrendThresholdPercent)
	}
	if a.CriticalValue <= 0 {
		return fmt.Errorf("critical_value must be positive, got %v", a.CriticalValue)
	}
	if a.ScoreMin >= a.ScoreMax {
		return fmt.Errorf("score_min (%v) must be below score_max (%v)", a.ScoreMin, a.ScoreMax)
	}
	if a.ConfidenceFloor > a.ConfidenceCeiling {
		return fmt.Errorf("confidence_floor (%v) must not exceed confidence_ceiling (%v)", a.ConfidenceFloor, a.ConfidenceCeiling)
	}
	if a.ConfidenceScale <= 0 {
		return fmt.Errorf("confidence_scale must be positive, got %v", a.ConfidenceScale)
	}
	if a.MinLookbackDays < 1 || a.MaxLookbackDays < a.MinLookbackDays {
		return fmt.Errorf("lookback bounds [%d, %d] are invalid", a.MinLookbackDays, a.MaxLookbackDays)
	}
	if a.DefaultLookbackDays < a.MinLookbackDays || a.DefaultLookbackDays > a.MaxLookbackDays {
		return fmt.Errorf("default_lookback_days %d is outside [%d, %d]", a.DefaultLookbackDays, a.MinLookbackDays, a.MaxLookbackDays)
	}
	for _, value := range []string{a.SeriesCacheTTL, a.InsightTimeout} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
	}
	if a.InsightTimeout != "" {
		if d, _ := time.ParseDuration(a.InsightTimeout); d <= 0 {
			return fmt.Errorf("insight_timeout must be positive, got %s", a.InsightTimeout)
		}
	}
	return nil
}

// InsightTimeoutDuration returns the generator deadline, defaulting to 30s.
func (a AnalyticsConfig) InsightTimeoutDuration() time.Duration {
	return parseDurationOr(a.InsightTimeout, 30*time.Second)
}

// SeriesCacheTTLDuration returns the series cache TTL; zero disables caching.
func (a AnalyticsConfig) SeriesCacheTTLDuration() time.Duration {
	return parseDurationOr(a.SeriesCacheTTL, 0)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// DefaultAnalyticsConfig returns the calibration used in production.
func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		TrendWindow:            7,
		TrendThresholdPercent:  5,
		WMAWeights:             []float64{1.0, 1.2, 1.4, 1.6, 1.8, 2.0, 2.2},
		WMAMinPoints:           3,
		RegressionMinPoints:    7,
		CriticalValue:          1.96,
		ScoreMin:               0,
		ScoreMax:               100,
		DefaultHorizons:        []int{7, 14, 30},
		MaxHorizonDays:         365,
		MaxHorizons:            5,
		AnomalySigmaMultiplier: 2,
		ConfidenceMinPoints:    5,
		ConfidenceFloor:        0.3,
		ConfidenceCeiling:      0.95,
		ConfidenceScale:        50,
		CorrelationPositive:    0.8,
		CorrelationNegative:    -0.3,
		PearsonMinPoints:       5,
		SmoothingPeriod:        7,
		DefaultLookbackDays:    90,
		MinLookbackDays:        7,
		MaxLookbackDays:        365,
		SeriesCacheTTL:         "5m",
		InsightTimeout:         "30s",
		DiagnosisMaxLength:     200,
		MaxInsightItems:        3,
	}
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "45s")

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "teia_geo")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_conns", 10)

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Text generator
	viper.SetDefault("text_generator.base_url", "https://api.openai.com/v1")
	viper.SetDefault("text_generator.api_key", "")
	viper.SetDefault("text_generator.model", "gpt-4o-mini")
	viper.SetDefault("text_generator.timeout", 30)
	viper.SetDefault("text_generator.temperature", 0.7)
	viper.SetDefault("text_generator.max_tokens", 1000)
	viper.SetDefault("text_generator.breaker_failures", 5)
	viper.SetDefault("text_generator.breaker_cooldown", "60s")

	// Analytics policy
	a := DefaultAnalyticsConfig()
	viper.SetDefault("analytics.trend_window", a.TrendWindow)
	viper.SetDefault("analytics.trend_threshold_percent", a.TrendThresholdPercent)
	viper.SetDefault("analytics.wma_weights", a.WMAWeights)
	viper.SetDefault("analytics.wma_min_points", a.WMAMinPoints)
	viper.SetDefault("analytics.regression_min_points", a.RegressionMinPoints)
	viper.SetDefault("analytics.critical_value", a.CriticalValue)
	viper.SetDefault("analytics.score_min", a.ScoreMin)
	viper.SetDefault("analytics.score_max", a.ScoreMax)
	viper.SetDefault("analytics.default_horizons", a.DefaultHorizons)
	viper.SetDefault("analytics.max_horizon_days", a.MaxHorizonDays)
	viper.SetDefault("analytics.max_horizons", a.MaxHorizons)
	viper.SetDefault("analytics.anomaly_sigma_multiplier", a.AnomalySigmaMultiplier)
	viper.SetDefault("analytics.confidence_min_points", a.ConfidenceMinPoints)
	viper.SetDefault("analytics.confidence_floor", a.ConfidenceFloor)
	viper.SetDefault("analytics.confidence_ceiling", a.ConfidenceCeiling)
	viper.SetDefault("analytics.confidence_scale", a.ConfidenceScale)
	viper.SetDefault("analytics.correlation_positive", a.CorrelationPositive)
	viper.SetDefault("analytics.correlation_negative", a.CorrelationNegative)
	viper.SetDefault("analytics.pearson_min_points", a.PearsonMinPoints)
	viper.SetDefault("analytics.smoothing_period", a.SmoothingPeriod)
	viper.SetDefault("analytics.default_lookback_days", a.DefaultLookbackDays)
	viper.SetDefault("analytics.min_lookback_days", a.MinLookbackDays)
	viper.SetDefault("analytics.max_lookback_days", a.MaxLookbackDays)
	viper.SetDefault("analytics.series_cache_ttl", a.SeriesCacheTTL)
	viper.SetDefault("analytics.insight_timeout", a.InsightTimeout)
	viper.SetDefault("analytics.diagnosis_max_length", a.DiagnosisMaxLength)
	viper.SetDefault("analytics.max_insight_items", a.MaxInsightItems)

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.exporter", "stdout")
	viper.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	viper.SetDefault("telemetry.service_name", "teia-geo")
	viper.SetDefault("telemetry.sample_rate", 0.2)

	// Security
	viper.SetDefault("security.jwt_secret", "")
	viper.SetDefault("security.admin_api_key", "")
}
