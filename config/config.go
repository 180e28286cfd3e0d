package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion   string `mapstructure:"GENERAL_VERSION"`
	Environment      string `mapstructure:"ENVIRONMENT"`
	ServerPort       int    `mapstructure:"SERVER_PORT"`
	CorsAllowOrigins string `mapstructure:"CORS_ALLOW_ORIGINS"`

	DatabaseDriver   string `mapstructure:"DATABASE_DRIVER"`
	DatabaseDbPath   string `mapstructure:"DATABASE_DB_PATH"`
	DatabaseHost     string `mapstructure:"DATABASE_HOST"`
	DatabasePort     int    `mapstructure:"DATABASE_PORT"`
	DatabaseUser     string `mapstructure:"DATABASE_USER"`
	DatabasePassword string `mapstructure:"DATABASE_PASSWORD"`
	DatabaseName     string `mapstructure:"DATABASE_NAME"`

	DatabaseCacheAddress string `mapstructure:"DATABASE_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DATABASE_CACHE_PORT"`

	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	LogFile       string `mapstructure:"LOG_FILE"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`

	IFCVerifyGap    bool    `mapstructure:"IFC_VERIFY_GAP"`
	IFCGapTolerance float64 `mapstructure:"IFC_GAP_TOLERANCE"`

	SessionCacheTTLMinutes int `mapstructure:"SESSION_CACHE_TTL_MINUTES"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var defaults = map[string]any{
	"GENERAL_VERSION":           "dev",
	"ENVIRONMENT":               "development",
	"SERVER_PORT":               8288,
	"CORS_ALLOW_ORIGINS":        "*",
	"DATABASE_DRIVER":           DriverSQLite,
	"DATABASE_DB_PATH":          "data/intake.db",
	"DATABASE_HOST":             "",
	"DATABASE_PORT":             5432,
	"DATABASE_USER":             "",
	"DATABASE_PASSWORD":         "",
	"DATABASE_NAME":             "",
	"DATABASE_CACHE_ADDRESS":    "",
	"DATABASE_CACHE_PORT":       6379,
	"LOG_LEVEL":                 "info",
	"LOG_FORMAT":                "text",
	"LOG_FILE":                  "",
	"LOG_MAX_SIZE_MB":           50,
	"LOG_MAX_BACKUPS":           5,
	"LOG_MAX_AGE_DAYS":          28,
	"IFC_VERIFY_GAP":            false,
	"IFC_GAP_TOLERANCE":         0.01,
	"SESSION_CACHE_TTL_MINUTES": 30,
}

// InitConfig loads configuration from an optional .env file in the working
// directory, overridden by environment variables.
func InitConfig() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseDbPath == "" {
			return errors.New("DATABASE_DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseHost == "" || c.DatabaseName == "" {
			return errors.New("DATABASE_HOST and DATABASE_NAME are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	if c.IFCGapTolerance < 0 {
		return errors.New("IFC_GAP_TOLERANCE must not be negative")
	}

	return nil
}

func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}
