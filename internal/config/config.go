// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/postmaster/pkg/cache"
	"github.com/dmitrymomot/postmaster/pkg/db"
	"github.com/dmitrymomot/postmaster/pkg/history"
	"github.com/dmitrymomot/postmaster/pkg/job"
	"github.com/dmitrymomot/postmaster/pkg/logger"
	"github.com/dmitrymomot/postmaster/pkg/mailer"
	"github.com/dmitrymomot/postmaster/pkg/mailer/markdown"
	"github.com/dmitrymomot/postmaster/pkg/mailer/natshook"
	"github.com/dmitrymomot/postmaster/pkg/mailer/preview"
	"github.com/dmitrymomot/postmaster/pkg/mailer/resend"
	"github.com/dmitrymomot/postmaster/pkg/mailer/smtp"
	"github.com/dmitrymomot/postmaster/pkg/redis"
)

// Transport names accepted by EMAIL_TRANSPORT.
const (
	TransportResend = "resend"
	TransportSMTP   = "smtp"
)

// ErrUnknownTransport is returned for an unsupported EMAIL_TRANSPORT.
var ErrUnknownTransport = errors.New("config: unknown transport")

// HTTP configures the API listener.
type HTTP struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MaxBodyBytes    int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
}

// Email selects what happens to composed messages.
type Email struct {
	// Send false routes every message to the sandbox transport.
	Send      bool   `env:"EMAIL_SEND" envDefault:"true"`
	Preview   bool   `env:"EMAIL_PREVIEW" envDefault:"false"`
	Transport string `env:"EMAIL_TRANSPORT" envDefault:"resend"`

	// AssetsDir holds stylesheets referenced by rendered HTML. Empty keeps
	// only inline style blocks.
	AssetsDir string `env:"EMAIL_ASSETS_DIR"`
	InlineCSS bool   `env:"EMAIL_INLINE_CSS" envDefault:"true"`

	// Templates is the root of the markdown template tree. Empty disables
	// the local markdown hook.
	Templates string `env:"EMAIL_TEMPLATES"`

	// ServeRender answers NATS render requests with the local markdown hook
	// instead of forwarding renders to NATS.
	ServeRender bool   `env:"EMAIL_SERVE_RENDER" envDefault:"false"`
	RenderQueue string `env:"EMAIL_RENDER_QUEUE" envDefault:"postmaster"`
}

// Config is the full service configuration.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Test bool   `env:"APP_TEST" envDefault:"false"`

	HTTP     HTTP
	Email    Email
	Mailer   mailer.Config
	Markdown markdown.Config
	NATS     natshook.Config
	Resend   resend.Config
	SMTP     smtp.Config
	Preview  preview.Config
	Cache    cache.Config
	DB       db.Config
	Redis    redis.Config
	Stream   history.RedisConfig
	Jobs     job.Config
	Log      logger.Config
	Sentry   logger.SentryConfig
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Email.Transport = strings.ToLower(strings.TrimSpace(c.Email.Transport))
	if !c.Sandboxed() {
		switch c.Email.Transport {
		case TransportResend, TransportSMTP:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownTransport, c.Email.Transport)
		}
	}
	if c.Email.ServeRender && (c.NATS.URL == "" || c.Email.Templates == "") {
		return errors.New("config: EMAIL_SERVE_RENDER requires NATS_URL and EMAIL_TEMPLATES")
	}
	if c.Jobs.Enabled && !c.DB.Enabled() {
		return errors.New("config: JOBS_ENABLED requires DATABASE_URL")
	}
	return nil
}

// Sandboxed reports whether mail must stay in process.
func (c *Config) Sandboxed() bool {
	return c.Test || !c.Email.Send
}
