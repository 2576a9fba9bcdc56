// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Refdata  RefdataConfig  `yaml:"refdata" mapstructure:"refdata"`
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the polling station database.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// RefdataConfig configures the reference geo-data backend (AddressBase,
// ONSUD, ONSPD). driver is "postgres" or "sqlite".
type RefdataConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// DataConfig configures where council data bundles live.
type DataConfig struct {
	PrivatePath string `yaml:"private_path" mapstructure:"private_path"`
	Definitions string `yaml:"definitions" mapstructure:"definitions"`
	TempDir     string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// GeocoderConfig configures the postcode geocoding waterfall.
type GeocoderConfig struct {
	// AttemptsPerSecond bounds how quickly the resolver moves on to the
	// next source after a miss, to avoid hammering shared backends.
	AttemptsPerSecond float64 `yaml:"attempts_per_second" mapstructure:"attempts_per_second"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("POLLINGSTATIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("refdata.driver", "postgres")
	v.SetDefault("data.private_path", "../polling_station_data")
	v.SetDefault("data.definitions", "councils.yaml")
	v.SetDefault("data.temp_dir", "/tmp/pollingstations")
	v.SetDefault("geocoder.attempts_per_second", 0.75)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
