// Package config loads the service configuration from the environment and an
// optional .env file into a single Config value that is built once at startup
// and passed to the components that need it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Security selects how the SMTP connection is protected.
type Security string

const (
	SecuritySTARTTLS Security = "starttls"
	SecurityTLS      Security = "tls"
	// SecurityNone talks plain SMTP to a relay that trusts the sender
	// without AUTH.
	SecurityNone Security = "none"
)

// Account holds the credentials of one SMTP mailbox.
type Account struct {
	Name     string
	Host     string   `env:"SMTP_HOST"`
	Port     int      `env:"SMTP_PORT" envDefault:"587"`
	User     string   `env:"SMTP_USER"`
	Password string   `env:"SMTP_PASS"`
	Security Security `env:"SMTP_SECURITY" envDefault:"starttls"`
	// InsecureSkipVerify disables certificate checks, for local relays only.
	InsecureSkipVerify bool `env:"SMTP_INSECURE_SKIP_VERIFY"`
}

// Missing lists the credential fields that are not set. Accounts are only
// checked when a send is attempted through them. User is always needed since
// it is the From address; a password only when the account authenticates.
func (a Account) Missing() []string {
	var missing []string
	if a.Host == "" {
		missing = append(missing, "host")
	}
	if a.Port <= 0 {
		missing = append(missing, "port")
	}
	if a.User == "" {
		missing = append(missing, "user")
	}
	if a.Password == "" && a.Security != SecurityNone {
		missing = append(missing, "password")
	}
	return missing
}

type Limits struct {
	MaxFileBytes  int64 `env:"MAX_FILE_BYTES" envDefault:"10485760"`
	MaxFieldBytes int64 `env:"MAX_FIELD_BYTES" envDefault:"65536"`
	MaxBodyBytes  int64 `env:"MAX_BODY_BYTES" envDefault:"26214400"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
	File   string `env:"LOG_FILE"`
}

type Config struct {
	Primary Account
	Backup  Account `envPrefix:"BACKUP_"`

	Recipient  string `env:"RECIPIENT_EMAIL,required,notEmpty"`
	SenderName string `env:"SENDER_NAME" envDefault:"企优咨下单系统"`

	SendTimeout time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`

	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	SubmitPath string `env:"SUBMIT_PATH" envDefault:"/api/send-mail"`

	AllowedOrigins     []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	RateLimitPerMinute float64  `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	// RateLimitIPLookups is the order in which the client IP is looked up.
	// Behind a proxy put X-Forwarded-For or X-Real-IP first.
	RateLimitIPLookups []string `env:"RATE_LIMIT_IP_LOOKUPS" envSeparator:"," envDefault:"RemoteAddr,X-Forwarded-For,X-Real-IP"`

	IdempotencyTTL           time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	IdempotencySweepInterval time.Duration `env:"IDEMPOTENCY_SWEEP_INTERVAL" envDefault:"1h"`

	Limits Limits
	Log    Log
}

// Load reads the given .env files (missing files are skipped) and then parses
// the process environment into a Config. Variables already present in the
// environment take precedence over .env values.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Parse(env.Options{})
}

// Parse builds a Config from the environment described by opts. Tests pass
// opts.Environment to avoid touching the process environment.
func Parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Primary.Name = "primary"
	cfg.Backup.Name = "backup"
	cfg.AllowedOrigins = trimList(cfg.AllowedOrigins)
	cfg.RateLimitIPLookups = trimList(cfg.RateLimitIPLookups)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	for _, a := range []Account{c.Primary, c.Backup} {
		switch a.Security {
		case SecuritySTARTTLS, SecurityTLS, SecurityNone:
		default:
			return fmt.Errorf("%s account: unknown smtp security %q", a.Name, a.Security)
		}
	}
	if len(c.RateLimitIPLookups) == 0 {
		return errors.New("RATE_LIMIT_IP_LOOKUPS must not be empty")
	}
	for _, l := range c.RateLimitIPLookups {
		switch l {
		case "RemoteAddr", "X-Forwarded-For", "X-Real-IP":
		default:
			return fmt.Errorf("RATE_LIMIT_IP_LOOKUPS: unknown lookup %q", l)
		}
	}
	if c.SendTimeout <= 0 {
		return errors.New("SEND_TIMEOUT must be positive")
	}
	if !strings.HasPrefix(c.SubmitPath, "/") {
		return fmt.Errorf("SUBMIT_PATH must start with /, got %q", c.SubmitPath)
	}
	if c.Limits.MaxFileBytes <= 0 || c.Limits.MaxFieldBytes <= 0 || c.Limits.MaxBodyBytes <= 0 {
		return errors.New("upload limits must be positive")
	}
	return nil
}

func trimList(items []string) []string {
	out := items[:0]
	for _, o := range items {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
