package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	Store   Store   `envPrefix:"STORE_"`
	Catalog Catalog `envPrefix:"CATALOG_"`
	Orders  Orders  `envPrefix:"ORDERS_"`
	Admin   Admin   `envPrefix:"ADMIN_"`
	Paypal  Paypal  `envPrefix:"PAYPAL_"`
}

type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

// Configured reports whether both PayPal credentials are present.
func (p Paypal) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

func (e Environment) Production() bool {
	return e.Name == "production"
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

func (h HTTPServer) Addr() string {
	return h.Host + ":" + h.Port
}

type Store struct {
	Driver string `env:"DRIVER" envDefault:"memory"` // memory | sqlite | mysql | postgres
}

type Catalog struct {
	Path string `env:"PATH"`
}

type Orders struct {
	// Hold back API keys for non-PayPal orders until the payment is
	// confirmed through a status update.
	DeferKeyIssuance bool   `env:"DEFER_KEY_ISSUANCE" envDefault:"false"`
	DefaultCurrency  string `env:"DEFAULT_CURRENCY" envDefault:"USD"`
	MaxQuantity      int    `env:"MAX_QUANTITY" envDefault:"100"`
}

type Admin struct {
	Token string `env:"TOKEN"`
}

// Load reads an optional .env file, then parses and validates the process
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found (ok in prod)")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "sqlite", "mysql", "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}

	if (c.Paypal.ClientID == "") != (c.Paypal.ClientSecret == "") {
		return errors.New("PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET must be set together")
	}

	if c.Orders.DefaultCurrency == "" {
		return errors.New("ORDERS_DEFAULT_CURRENCY must not be empty")
	}
	if c.Orders.MaxQuantity < 1 {
		return errors.New("ORDERS_MAX_QUANTITY must be at least 1")
	}
	return nil
}
