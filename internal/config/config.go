package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides: PORTFOLIO_SMTP_HOST -> smtp.host.
const EnvPrefix = "PORTFOLIO_"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Delivery DeliveryConfig `koanf:"delivery"`
	EmailJS  EmailJSConfig  `koanf:"emailjs"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	Contact  ContactConfig  `koanf:"contact"`
	Ledger   LedgerConfig   `koanf:"ledger"`
	Content  ContentConfig  `koanf:"content"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	Mode            string        `koanf:"mode"`
	StaticDir       string        `koanf:"static_dir"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type DeliveryConfig struct {
	Provider string        `koanf:"provider"`
	Timeout  time.Duration `koanf:"timeout"`
}

// EmailJSConfig identifies the hosted template the message is rendered with.
type EmailJSConfig struct {
	BaseURL     string `koanf:"base_url"`
	ServiceID   string `koanf:"service_id"`
	TemplateID  string `koanf:"template_id"`
	PublicKey   string `koanf:"public_key"`
	AccessToken string `koanf:"access_token"`
}

type SMTPConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
	User string `koanf:"user"`
	Pass string `koanf:"pass"`
	To   string `koanf:"to"`
}

type ContactConfig struct {
	MaxPerWindow int           `koanf:"max_per_window"`
	Window       time.Duration `koanf:"window"`
}

type LedgerConfig struct {
	DSN       string        `koanf:"dsn"`
	Retention time.Duration `koanf:"retention"`
}

type ContentConfig struct {
	Path string `koanf:"path"`
}

// Provider names accepted by delivery.provider.
const (
	ProviderEmailJS = "emailjs"
	ProviderSMTP    = "smtp"
	ProviderLog     = "log"
)

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Mode:            "release",
			StaticDir:       "./static",
			ShutdownTimeout: 10 * time.Second,
		},
		Log:      LogConfig{Level: "info"},
		Delivery: DeliveryConfig{Provider: ProviderLog, Timeout: 15 * time.Second},
		EmailJS:  EmailJSConfig{BaseURL: "https://api.emailjs.com"},
		SMTP:     SMTPConfig{Host: "smtp.gmail.com", Port: 587},
		Contact:  ContactConfig{MaxPerWindow: 5, Window: time.Hour},
		Ledger:   LedgerConfig{DSN: ":memory:", Retention: 24 * time.Hour},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// it exists), and PORTFOLIO_* environment variables, in that order.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	applyLegacyEnv(cfg)
	return cfg, nil
}

// envKey maps PORTFOLIO_EMAILJS_SERVICE_ID to emailjs.service_id: the first
// underscore separates the section.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// applyLegacyEnv honours the unprefixed variables older deployments set,
// for fields nothing else has changed from their default.
func applyLegacyEnv(cfg *Config) {
	def := DefaultConfig()
	fallbackInt(&cfg.Server.Port, def.Server.Port, "PORT")
	fallbackInt(&cfg.SMTP.Port, def.SMTP.Port, "SMTP_PORT")
	fallback(&cfg.SMTP.Host, def.SMTP.Host, "SMTP_HOST")
	fallback(&cfg.SMTP.User, def.SMTP.User, "SMTP_USER")
	fallback(&cfg.SMTP.Pass, def.SMTP.Pass, "SMTP_PASS")
	fallback(&cfg.SMTP.To, def.SMTP.To, "TO_EMAIL")
}

func fallback(dst *string, def, name string) {
	if *dst != def {
		return
	}
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func fallbackInt(dst *int, def int, name string) {
	if *dst != def {
		return
	}
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

var validProviders = map[string]bool{
	ProviderEmailJS: true,
	ProviderSMTP:    true,
	ProviderLog:     true,
}

var validModes = map[string]bool{
	"debug":   true,
	"release": true,
	"test":    true,
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if !validModes[c.Server.Mode] {
		return fmt.Errorf("invalid server.mode %q: must be one of debug, release, test", c.Server.Mode)
	}
	if !validProviders[c.Delivery.Provider] {
		return fmt.Errorf("invalid delivery.provider %q: must be one of emailjs, smtp, log", c.Delivery.Provider)
	}

	switch c.Delivery.Provider {
	case ProviderEmailJS:
		if c.EmailJS.ServiceID == "" || c.EmailJS.TemplateID == "" || c.EmailJS.PublicKey == "" {
			return fmt.Errorf("emailjs requires service_id, template_id and public_key")
		}
	case ProviderSMTP:
		if c.SMTP.User == "" || c.SMTP.Pass == "" {
			return fmt.Errorf("SMTP credentials not configured")
		}
		if c.SMTP.To == "" {
			return fmt.Errorf("smtp.to is required")
		}
	}

	if c.Contact.MaxPerWindow < 0 {
		return fmt.Errorf("contact.max_per_window must be non-negative")
	}
	if c.Contact.MaxPerWindow > 0 && c.Contact.Window <= 0 {
		return fmt.Errorf("contact.window must be positive when throttling")
	}
	if c.Ledger.DSN == "" {
		return fmt.Errorf("ledger.dsn is required")
	}
	return nil
}
