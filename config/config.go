// config/config.go
package config

import (
	"errors"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds every setting the backend reads from the environment
type Config struct {
	Env      string `env:"ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Mongo MongoConfig
	Redis RedisConfig
	Auth  AuthConfig
	SMTP  SMTPConfig
	IPFS  IPFSConfig
	Kafka KafkaConfig

	FrontendURL        string   `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// MongoConfig selects the database
type MongoConfig struct {
	URI    string `env:"MONGO_URI"`
	AltURI string `env:"MONGODB_URI"`
	DBName string `env:"DB_NAME" envDefault:"scholarfund"`
}

// RedisConfig is used for OTP throttling and login nonces
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// AuthConfig signs JWTs and lists admin wallets
type AuthConfig struct {
	JWTSecret    string   `env:"JWT_SECRET"`
	AdminWallets []string `env:"ADMIN_WALLETS" envSeparator:","`
}

// SMTPConfig is the outgoing mail server
type SMTPConfig struct {
	Host      string `env:"SMTP_HOST"`
	Port      int    `env:"SMTP_PORT" envDefault:"2525"`
	User      string `env:"SMTP_USER"`
	Pass      string `env:"SMTP_PASS"`
	FromEmail string `env:"FROM_EMAIL"`
}

// IPFSConfig points at the Pinata pinning API
type IPFSConfig struct {
	PinataJWT string `env:"PINATA_JWT"`
	APIURL    string `env:"PINATA_API_URL" envDefault:"https://api.pinata.cloud"`
}

// KafkaConfig is where application events are published
type KafkaConfig struct {
	Broker   string `env:"KAFKA_BROKER"`
	Topic    string `env:"KAFKA_TOPIC" envDefault:"scholarship-applications"`
	Username string `env:"KAFKA_USERNAME"`
	Password string `env:"KAFKA_PASSWORD"`
}

// Load reads .env (if present) and parses the environment into a Config
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using process environment")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	for i, w := range cfg.Auth.AdminWallets {
		cfg.Auth.AdminWallets[i] = strings.ToLower(strings.TrimSpace(w))
	}

	return cfg, nil
}

// IsProduction reports whether the process runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// MongoURI returns MONGO_URI, then MONGODB_URI, then the development fallback
func (c *Config) MongoURI() string {
	if c.Mongo.URI != "" {
		return c.Mongo.URI
	}
	if c.Mongo.AltURI != "" {
		return c.Mongo.AltURI
	}
	if c.IsProduction() {
		return ""
	}
	return "mongodb://localhost:27017"
}

// SMTPConfigured reports whether a real SMTP transport can be built
func (c *Config) SMTPConfigured() bool {
	return c.SMTP.Host != "" && c.SMTP.User != "" && c.SMTP.Pass != ""
}

// IPFSConfigured reports whether uploads go to Pinata
func (c *Config) IPFSConfigured() bool {
	return c.IPFS.PinataJWT != ""
}

// IsAdminWallet reports whether the wallet is on the ADMIN_WALLETS list
func (c *Config) IsAdminWallet(wallet string) bool {
	wallet = strings.ToLower(wallet)
	for _, w := range c.Auth.AdminWallets {
		if w == wallet {
			return true
		}
	}
	return false
}
