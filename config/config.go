package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	KeyStorageUploadDir  = "storage.upload_dir"
	KeyStorageDBPath     = "storage.db_path"
	KeyServerPort        = "server.port"
	KeyServerMaxUploadMB = "server.max_upload_mb"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
	EnvPrefix            = "PATCHIMPORT"
	DefaultUploadDir     = "storage/uploads"
	DefaultDBPath        = "storage/patchimport.db"
	DefaultServerPort    = 8080
	DefaultMaxUploadMB   = 32
	defaultLogLevel      = "info"
	defaultLogFormat     = "console"
)

type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
}

type StorageConfig struct {
	UploadDir string `mapstructure:"upload_dir" validate:"required"`
	DBPath    string `mapstructure:"db_path" validate:"required"`
}

type ServerConfig struct {
	Port        int `mapstructure:"port" validate:"min=1,max=65535"`
	MaxUploadMB int `mapstructure:"max_upload_mb" validate:"min=1,max=1024"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=console text json"`
}

// MaxUploadBytes is the request body limit derived from MaxUploadMB.
func (c ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// BindEnvironment loads a .env file from the working directory when present
// and lets PATCHIMPORT_* variables override file values.
func BindEnvironment() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	bindEnv(viper.GetViper())
	return nil
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# patchimport configuration
storage:
  upload_dir: "storage/uploads"
  db_path: "storage/patchimport.db"

server:
  port: 8080
  max_upload_mb: 32

log:
  level: "info"
  format: "console"
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.Storage.UploadDir = strings.TrimSpace(cfg.Storage.UploadDir)
	cfg.Storage.DBPath = strings.TrimSpace(cfg.Storage.DBPath)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyStorageUploadDir, DefaultUploadDir)
	v.SetDefault(KeyStorageDBPath, DefaultDBPath)
	v.SetDefault(KeyServerPort, DefaultServerPort)
	v.SetDefault(KeyServerMaxUploadMB, DefaultMaxUploadMB)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeyLogFormat, defaultLogFormat)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}
