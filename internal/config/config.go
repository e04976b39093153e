package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"storyboard-server/internal/logger"
)

// Config - конфигурация HTTP-сервера.
type Config struct {
	AppEnv string `env:"APP_ENV" env-default:"development"`
	Logger logger.Config

	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Images   ImageStoreConfig

	AI AIConfig
}

// HTTPConfig - настройки HTTP-сервера и CORS.
type HTTPConfig struct {
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:5173"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"120s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig - подключение к PostgreSQL.
type DatabaseConfig struct {
	Host     string `env:"DATABASE_HOST" env-default:"localhost"`
	Port     string `env:"DATABASE_PORT" env-default:"5432"`
	User     string `env:"DATABASE_USER" env-required:"true"`
	Password string `env:"DATABASE_PASSWORD" env-required:"true"`
	Name     string `env:"DATABASE_NAME" env-default:"storyboard"`
	SSLMode  string `env:"DATABASE_SSLMODE" env-default:"disable"`
}

// DSN собирает строку подключения.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// RedisConfig - подключение к Redis (кэш отрисованных кадров).
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string        `env:"REDIS_PASSWORD" env-default:""`
	DB       int           `env:"REDIS_DB" env-default:"0"`
	CacheTTL time.Duration `env:"RENDER_CACHE_TTL" env-default:"168h"`
}

// RabbitMQConfig - очереди фоновой отрисовки.
type RabbitMQConfig struct {
	URL            string        `env:"RABBITMQ_URL" env-required:"true"`
	TaskQueue      string        `env:"RABBITMQ_RENDER_TASK_QUEUE" env-default:"frame_render_tasks"`
	ResultQueue    string        `env:"RABBITMQ_RENDER_RESULT_QUEUE" env-default:"frame_render_results"`
	ConsumerName   string        `env:"RABBITMQ_CONSUMER_NAME" env-default:"storyboard_server"`
	ReconnectDelay time.Duration `env:"RABBITMQ_RECONNECT_DELAY" env-default:"5s"`
}

// ImageStoreConfig - сохранение отрисованных кадров на диск.
type ImageStoreConfig struct {
	SavePath      string `env:"IMAGE_SAVE_PATH" env-default:"./data/images"`
	PublicBaseURL string `env:"IMAGE_PUBLIC_BASE_URL" env-default:"http://localhost:8080/images"`
}

// AIConfig - параметры повторов AI-ядра. Реквизиты подключения живут
// в настройках проекта (БД), а не в окружении.
type AIConfig struct {
	MaxRetries int           `env:"AI_MAX_RETRIES" env-default:"3"`
	BaseDelay  time.Duration `env:"AI_RETRY_BASE_DELAY" env-default:"2s"`
}

// Load читает .env (если есть) и переменные окружения.
func Load() *Config {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("ошибка загрузки конфигурации: %v", err)
	}
	return &cfg
}
