// Package config loads the process configuration from environment
// variables, after applying an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration of rsvpd.
type Config struct {
	HTTPAddr            string        `env:"HTTP_ADDR"             envDefault:":8080"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	AWSRegion        string `env:"AWS_REGION"`
	DynamoDBTable    string `env:"DYNAMODB_TABLE_NAME"    envDefault:"event-rsvp-responses"`
	DynamoDBEndpoint string `env:"DYNAMODB_ENDPOINT"`

	PostgresHost        string `env:"PG_HOST"         envDefault:"localhost"`
	PostgresPort        int    `env:"PG_PORT"         envDefault:"5432"`
	PostgresUser        string `env:"PG_USER"         envDefault:"postgres"`
	PostgresPassword    string `env:"PG_PASSWORD"`
	PostgresDatabase    string `env:"PG_DATABASE"     envDefault:"events"`
	PostgresSSLMode     string `env:"PG_SSL_MODE"     envDefault:"prefer"`
	PostgresEventsTable string `env:"PG_EVENTS_TABLE" envDefault:"events"`

	SQSQueueName string `env:"SQS_QUEUE_NAME"`
	SQSEndpoint  string `env:"SQS_ENDPOINT"`

	Responses []string `env:"RSVP_RESPONSES" envDefault:"Yes,No" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	OTELEndpoint string `env:"OTEL_ENDPOINT"`

	SkipSchemaValidation bool `env:"SKIP_SCHEMA_VALIDATION" envDefault:"false"`
}

// Load reads the configuration from the environment. Variables from
// dotenvFiles (default ".env") are applied first without overriding
// variables that are already set; missing files are ignored.
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}

	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that the components cannot check themselves.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR cannot be empty")
	}

	if c.HTTPShutdownTimeout <= 0 {
		return errors.New("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.DynamoDBTable == "" {
		return errors.New("DYNAMODB_TABLE_NAME cannot be empty")
	}

	if len(c.Responses) == 0 {
		return errors.New("RSVP_RESPONSES cannot be empty")
	}

	return nil
}

// NotificationsEnabled reports whether RSVP notifications are published.
func (c *Config) NotificationsEnabled() bool {
	return c.SQSQueueName != ""
}
