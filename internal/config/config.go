package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Setmore   SetmoreConfig   `yaml:"setmore" mapstructure:"setmore"`
	Telephony TelephonyConfig `yaml:"telephony" mapstructure:"telephony"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Sync      SyncConfig      `yaml:"sync" mapstructure:"sync"`
	Repair    RepairConfig    `yaml:"repair" mapstructure:"repair"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the local system-of-record backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// SetmoreConfig holds booking platform API credentials and tuning.
type SetmoreConfig struct {
	Token    string  `yaml:"token" mapstructure:"token"`
	BaseURL  string  `yaml:"base_url" mapstructure:"base_url"`
	RateRPS  float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
	PageSize int     `yaml:"page_size" mapstructure:"page_size"`
}

// TelephonyConfig holds Twilio credentials for the call-event read path.
type TelephonyConfig struct {
	AccountSID string `yaml:"account_sid" mapstructure:"account_sid"`
	AuthToken  string `yaml:"auth_token" mapstructure:"auth_token"`
}

// GeocodeConfig holds geocoding provider settings. Key is required by every
// code path that constructs a geocoder; its absence fails that path at
// startup, not per call.
type GeocodeConfig struct {
	Key     string  `yaml:"key" mapstructure:"key"`
	RateRPS float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
}

// SyncConfig tunes the batch pager.
type SyncConfig struct {
	PageSize       int           `yaml:"page_size" mapstructure:"page_size"`
	RecordInterval time.Duration `yaml:"record_interval" mapstructure:"record_interval"`
	BadSyncDate    string        `yaml:"bad_sync_date" mapstructure:"bad_sync_date"`
}

// RepairConfig tunes backfill/repair jobs.
type RepairConfig struct {
	DefaultLimit int `yaml:"default_limit" mapstructure:"default_limit"`
}

// ServerConfig configures the operator HTTP surface.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("FIELDSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "fieldsync.db")
	v.SetDefault("setmore.base_url", "https://developer.setmore.com/api/v1")
	v.SetDefault("setmore.rate_rps", 10)
	v.SetDefault("setmore.page_size", 100)
	v.SetDefault("geocode.rate_rps", 25)
	v.SetDefault("sync.page_size", 100)
	v.SetDefault("sync.record_interval", 100*time.Millisecond)
	v.SetDefault("repair.default_limit", 100)
	v.SetDefault("server.port", 8080)
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
