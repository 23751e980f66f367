package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout)
	require.True(t, cfg.Email.Send)
	require.Equal(t, TransportResend, cfg.Email.Transport)
	require.Equal(t, []string{"html", "text"}, cfg.Mailer.Parts)
	require.True(t, cfg.Mailer.History)
	require.Equal(t, "postmaster.render", cfg.NATS.Subject)
	require.Equal(t, 587, cfg.SMTP.Port)
	require.Equal(t, "postmaster:history", cfg.Stream.Stream)
	require.False(t, cfg.DB.Enabled())
	require.False(t, cfg.Sandboxed())
}

func TestLoadFrom_Overrides(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(map[string]string{
		"APP_TEST":             "true",
		"EMAIL_TRANSPORT":      "SMTP",
		"MAILER_PARTS":         "html,text,subject",
		"MAILER_HISTORY":       "false",
		"SMTP_HOST":            "mail.example.com",
		"DATABASE_URL":         "postgres://localhost/postmaster",
		"HISTORY_RETENTION":    "24h",
		"JOBS_ENABLED":         "true",
		"HTTP_REQUEST_TIMEOUT": "5s",
	})
	require.NoError(t, err)

	require.True(t, cfg.Sandboxed())
	require.Equal(t, TransportSMTP, cfg.Email.Transport)
	require.Equal(t, []string{"html", "text", "subject"}, cfg.Mailer.Parts)
	require.False(t, cfg.Mailer.History)
	require.Equal(t, "mail.example.com", cfg.SMTP.Host)
	require.True(t, cfg.DB.Enabled())
	require.Equal(t, 24*time.Hour, cfg.Jobs.Retention)
	require.Equal(t, 5*time.Second, cfg.HTTP.RequestTimeout)
}

func TestLoadFrom_UnknownTransport(t *testing.T) {
	t.Parallel()

	_, err := LoadFrom(map[string]string{"EMAIL_TRANSPORT": "carrier-pigeon"})
	require.ErrorIs(t, err, ErrUnknownTransport)

	// The sandbox never touches a transport.
	_, err = LoadFrom(map[string]string{"EMAIL_TRANSPORT": "carrier-pigeon", "EMAIL_SEND": "false"})
	require.NoError(t, err)
}

func TestLoadFrom_JobsNeedDatabase(t *testing.T) {
	t.Parallel()

	_, err := LoadFrom(map[string]string{"JOBS_ENABLED": "true"})
	require.Error(t, err)
}

func TestLoadFrom_ParseError(t *testing.T) {
	t.Parallel()

	_, err := LoadFrom(map[string]string{"HTTP_REQUEST_TIMEOUT": "soon"})
	require.Error(t, err)
}

func TestLoadFrom_ServeRenderNeedsTemplates(t *testing.T) {
	t.Parallel()

	_, err := LoadFrom(map[string]string{"EMAIL_SERVE_RENDER": "true", "NATS_URL": "nats://localhost:4222"})
	require.Error(t, err)

	cfg, err := LoadFrom(map[string]string{
		"EMAIL_SERVE_RENDER": "true",
		"NATS_URL":           "nats://localhost:4222",
		"EMAIL_TEMPLATES":    "./templates",
	})
	require.NoError(t, err)
	require.Equal(t, "postmaster", cfg.Email.RenderQueue)
}
