package config

import (
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
)

type Config struct {
	Env         string   `env:"APP_ENV"      default:"development"`
	Port        int      `env:"PORT"         default:"8000"`
	BaseURL     string   `env:"BASE_URL"`
	DatabaseURL string   `env:"DATABASE_URL" required:"true"`
	LogLevel    string   `env:"LOG_LEVEL"    default:"info"`
	UploadDir   string   `env:"UPLOAD_DIR"   default:"uploads"`
	BodyLimit   string   `env:"BODY_LIMIT"   default:"20K"`
	CORSOrigins []string `env:"CORS_ORIGINS" default:"*"`

	JWT       JWTConfig       `env:"JWT"`
	Mail      MailConfig      `env:"MAIL"`
	Stripe    StripeConfig    `env:"STRIPE"`
	Kafka     KafkaConfig     `env:"KAFKA"`
	Elastic   ElasticConfig   `env:"ELASTIC"`
	RateLimit RateLimitConfig `env:"RATE_LIMIT"`
}

type JWTConfig struct {
	Secret    string        `env:"SECRET_KEY" required:"true"`
	ExpiresIn time.Duration `env:"EXPIRES_IN" default:"2160h"`
}

type MailConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" default:"587"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" default:"E-shop <no-reply@eshop.local>"`
}

type StripeConfig struct {
	Secret        string `env:"SECRET"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	Currency      string `env:"CURRENCY" default:"egp"`
}

type KafkaConfig struct {
	Brokers []string `env:"BROKERS"`
}

type ElasticConfig struct {
	URL      string `env:"URL"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Index    string `env:"INDEX" default:"products"`
}

type RateLimitConfig struct {
	Max    int           `env:"MAX"    default:"100"`
	Window time.Duration `env:"WINDOW" default:"15m"`
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags:        true,
		SkipFiles:        true,
		AllowUnknownEnvs: true,
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET_KEY is required")
	}

	switch cfg.Env {
	case "development", "production", "test":
	default:
		return nil, errors.Errorf("APP_ENV must be development, production or test, got %q", cfg.Env)
	}
	return &cfg, nil
}
