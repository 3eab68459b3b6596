// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек приложения.
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer      `yaml:"http_server"`
	RedisConnection `yaml:"redis_connection"`
	AuthAPI         `yaml:"auth_api"`
	BillingAPI      `yaml:"billing_api"`
	CheckoutWidget  `yaml:"checkout_widget"`
	Session         `yaml:"session"`
	Guard           `yaml:"guard"`
	Rabbit          `yaml:"rabbitmq"`
	OAuthRelay      `yaml:"oauth_relay"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"localhost:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// AuthAPI описывает внешний сервис аутентификации, выдающий пары токенов.
type AuthAPI struct {
	URL     string        `yaml:"url" env:"AUTH_API_URL"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// BillingAPI описывает внешний биллинговый бэкенд.
type BillingAPI struct {
	URL     string        `yaml:"url" env:"BILLING_API_URL"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// CheckoutWidget структура для настройки внешнего виджета оплаты.
type CheckoutWidget struct {
	URL         string        `yaml:"url" env:"CHECKOUT_WIDGET_URL"`
	Environment string        `yaml:"environment" env-default:"sandbox"`
	ClientToken string        `yaml:"client_token" env:"CHECKOUT_CLIENT_TOKEN"`
	Theme       string        `yaml:"theme" env-default:"light"`
	SuccessURL  string        `yaml:"success_url"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
}

// Session задает сроки жизни записей с токенами в хранилище.
type Session struct {
	AccessTTL  time.Duration `yaml:"access_ttl" env-default:"1h"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env-default:"168h"`
}

// Guard задает задержки уведомления и редиректа для защищенных представлений.
type Guard struct {
	NotifyDelay   time.Duration `yaml:"notify_delay" env-default:"100ms"`
	RedirectDelay time.Duration `yaml:"redirect_delay" env-default:"3s"`
	RedirectTo    string        `yaml:"redirect_to" env-default:"/login"`
	RefreshDelay  time.Duration `yaml:"refresh_delay" env-default:"2s"`
}

// Rabbit структура для настройки подключения к RabbitMQ.
type Rabbit struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange   string        `yaml:"exchange"`
	RoutingKey string        `yaml:"routing_key" env-default:"user"`
	Retries    int           `yaml:"retries" env-default:"3"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// OAuthRelay настраивает прием сообщений из OAuth-попапа провайдера.
type OAuthRelay struct {
	AllowedOrigins []string      `yaml:"allowed_origins" env:"OAUTH_ALLOWED_ORIGINS" env-separator:","`
	WaitTimeout    time.Duration `yaml:"wait_timeout" env-default:"2m"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
