package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Bible     BibleConfig     `mapstructure:"bible"`
	User      string          `mapstructure:"user"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Reading   ReadingConfig   `mapstructure:"reading"`
	Prayers   PrayersConfig   `mapstructure:"prayers"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Outputs   OutputsConfig   `mapstructure:"outputs"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Server    ServerConfig    `mapstructure:"server"`
}

type BibleConfig struct {
	DatasetFile string `mapstructure:"dataset_file" validate:"required"`
	CatalogFile string `mapstructure:"catalog_file"`
}

type StorageConfig struct {
	Driver           string         `mapstructure:"driver" validate:"oneof=memory file sqlite mysql postgres remote"`
	Directory        string         `mapstructure:"directory" validate:"required_if=Driver file,notfile"`
	FallbackToMemory bool           `mapstructure:"fallback_to_memory"`
	SQLite           SQLiteConfig   `mapstructure:"sqlite"`
	Database         DatabaseConfig `mapstructure:"database"`
	Postgres         PostgresConfig `mapstructure:"postgres"`
	Remote           RemoteConfig   `mapstructure:"remote"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type RemoteConfig struct {
	BaseURL       string        `mapstructure:"base_url" validate:"omitempty,url"`
	RetryAttempts uint          `mapstructure:"retry_attempts"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type ReadingConfig struct {
	MinDwell time.Duration `mapstructure:"min_dwell" validate:"gte=0"`
}

type PrayersConfig struct {
	// Bitrate in bits per second, used to estimate clip durations.
	Bitrate   int `mapstructure:"bitrate" validate:"gt=0"`
	ChunkSize int `mapstructure:"chunk_size" validate:"gt=0"`
}

type CatalogConfig struct {
	GenerateLimit int `mapstructure:"generate_limit" validate:"gte=0"`
}

type OutputsConfig struct {
	ReportDirectory string `mapstructure:"report_directory" validate:"notfile"`
}

type TemplatesConfig struct {
	ReportTemplate string `mapstructure:"report_template" validate:"omitempty,file"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"gte=0,lte=65535"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/biblia")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("bible.dataset_file", filepath.Join("data", "reina_valera.json"))
	v.SetDefault("bible.catalog_file", filepath.Join("data", "characters.json"))
	v.SetDefault("user", "")
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.directory", filepath.Join("data", "storage"))
	v.SetDefault("storage.fallback_to_memory", true)
	v.SetDefault("storage.sqlite.path", filepath.Join("data", "biblia.db"))
	v.SetDefault("storage.database.host", "localhost")
	v.SetDefault("storage.database.port", 3306)
	v.SetDefault("storage.database.database", "biblia")
	v.SetDefault("storage.database.username", "user")
	v.SetDefault("storage.remote.retry_attempts", 3)
	v.SetDefault("storage.remote.timeout", "10s")
	v.SetDefault("reading.min_dwell", "3s")
	v.SetDefault("prayers.bitrate", 128000)
	v.SetDefault("prayers.chunk_size", 4096)
	v.SetDefault("catalog.generate_limit", 1700)
	v.SetDefault("outputs.report_directory", filepath.Join("outputs", "reports"))
	// Template is optional - if not specified, the embedded template is used
	v.SetDefault("templates.report_template", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})

	// Bind secrets and per-user settings to environment variables only
	if err := v.BindEnv("user", "BIBLIA_USER"); err != nil {
		return nil, fmt.Errorf("failed to bind BIBLIA_USER environment variable: %w", err)
	}
	if err := v.BindEnv("storage.database.password", "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_PASSWORD environment variable: %w", err)
	}
	if err := v.BindEnv("storage.postgres.url", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_URL environment variable: %w", err)
	}
	if err := v.BindEnv("storage.remote.base_url", "BIBLIA_REMOTE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind BIBLIA_REMOTE_URL environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
