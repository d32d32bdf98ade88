// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	Timezone                string `yaml:"timezone" env-default:"UTC"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	JWTToken                `yaml:"jwttoken"`
	RateLimit               `yaml:"rate_limit"`
	Membership              `yaml:"membership"`
	Scheduler               `yaml:"scheduler"`
	BootstrapAdmin          `yaml:"bootstrap_admin"`
	Tracing                 `yaml:"tracing"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"address" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"address"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeout"`
	StatsTTL     time.Duration `yaml:"stats_ttl" env-default:"1m"`
}

// RabbitMQ настройки подключения к брокеру
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP настройки почтового сервера
type SMTP struct {
	SMTPHost string `yaml:"host"`
	SMTPPort string `yaml:"port" env-default:"587"`
	SMTPUser string `yaml:"user"`
	SMTPPass string `yaml:"password" env:"SMTP_PASSWORD"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"12h"`
}

// RateLimit ограничение частоты запросов к API
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"20"`
	Burst int     `yaml:"burst" env-default:"40"`
}

// Membership правила работы с абонементами
type Membership struct {
	ExpiryWarningDays int `yaml:"expiry_warning_days" env-default:"7"`
	MinClientAge      int `yaml:"min_client_age" env-default:"14"`
	MaxBonusDays      int `yaml:"max_bonus_days" env-default:"3"`
}

// Scheduler периодичность фоновых задач
type Scheduler struct {
	StatusInterval time.Duration `yaml:"status_interval" env-default:"1h"`
	ExpiryInterval time.Duration `yaml:"expiry_interval" env-default:"24h"`
}

// BootstrapAdmin администратор, создаваемый при пустой таблице сотрудников
type BootstrapAdmin struct {
	AdminEmail    string `yaml:"email"`
	AdminName     string `yaml:"name" env-default:"Administrator"`
	AdminPassword string `yaml:"password" env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// Tracing экспорт трассировок по OTLP/HTTP, пустой endpoint отключает экспорт
type Tracing struct {
	TracingEndpoint string `yaml:"endpoint"`
	ServiceName     string `yaml:"service_name" env-default:"membership-manager"`
}

// MustLoad функция для загрузки конфига. Путь берётся из CONFIG_PATH,
// переменные окружения могут быть заданы в файле .env.
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("cannot load .env file: %s", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла и проверяет его.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.ExpiryWarningDays < 0 {
		return nil, fmt.Errorf("%s: expiry_warning_days must not be negative", op)
	}
	return &cfg, nil
}

// Location возвращает часовой пояс, в котором считается "сегодня".
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Timezone: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Redis:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  StatsTTL: %s\n"+
			"RabbitMQ:\n"+
			"  MaxRetries: %d\n"+
			"  RetryDelay: %s\n"+
			"SMTP:\n"+
			"  Host: %s:%s\n"+
			"Membership:\n"+
			"  ExpiryWarningDays: %d\n"+
			"  MinClientAge: %d\n"+
			"  MaxBonusDays: %d\n"+
			"Scheduler:\n"+
			"  StatusInterval: %s\n"+
			"  ExpiryInterval: %s\n",
		c.Env,
		c.Timezone,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressRedis,
		c.DB,
		c.StatsTTL,
		c.RabbitMQMaxRetries,
		c.RabbitMQRetryDelay,
		c.SMTPHost,
		c.SMTPPort,
		c.ExpiryWarningDays,
		c.MinClientAge,
		c.MaxBonusDays,
		c.StatusInterval,
		c.ExpiryInterval,
	)
}
