package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Assets    AssetsConfig    `mapstructure:"assets"`
	Team      TeamConfig      `mapstructure:"team"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type AssetsConfig struct {
	Root    string `mapstructure:"root"`
	BaseURL string `mapstructure:"base_url"`
}

type TeamConfig struct {
	MaxAvatarSize int64         `mapstructure:"max_avatar_size"`
	MaxNameLength int           `mapstructure:"max_name_length"`
	LockTimeout   time.Duration `mapstructure:"lock_timeout"`
}

// ReconcileConfig - расписание сборщика файлов-сирот. Пустое расписание отключает его
type ReconcileConfig struct {
	Schedule string        `mapstructure:"schedule"`
	Grace    time.Duration `mapstructure:"grace"`
}

// DSN возвращает строку подключения для драйвера pgx
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		c.SSLMode,
	)
}

// Load читает .env (если есть) и переменные окружения. Переменные окружения важнее .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("log.level", "info")

	v.SetDefault("storage.driver", DriverPostgres)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "ctf")
	v.SetDefault("db.password", "ctf")
	v.SetDefault("db.name", "ctf_teams")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 10)

	v.SetDefault("assets.root", "./data/assets")
	v.SetDefault("assets.base_url", "http://localhost:8080")

	v.SetDefault("team.max_avatar_size", 5<<20)
	v.SetDefault("team.max_name_length", 20)
	v.SetDefault("team.lock_timeout", 3*time.Second)

	v.SetDefault("reconcile.schedule", "@every 1h")
	v.SetDefault("reconcile.grace", time.Hour)
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
			return errors.New("db host, user and name are required for postgres storage")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Server.Addr == "" {
		return errors.New("server addr is required")
	}
	if c.Assets.Root == "" {
		return errors.New("assets root is required")
	}
	if c.Team.MaxAvatarSize <= 0 {
		return errors.New("team max avatar size must be positive")
	}
	if c.Team.MaxNameLength <= 0 {
		return errors.New("team max name length must be positive")
	}
	if c.Team.LockTimeout <= 0 {
		return errors.New("team lock timeout must be positive")
	}
	if c.Reconcile.Grace < 0 {
		return errors.New("reconcile grace must not be negative")
	}
	return nil
}
