package mailer

// Config holds mailer configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	FallbackSubject string   `env:"MAILER_FALLBACK_SUBJECT" envDefault:"Notification"`
	DefaultFrom     string   `env:"MAILER_DEFAULT_FROM"`
	Parts           []string `env:"MAILER_PARTS" envDefault:"html,text" envSeparator:","`

	// TextFromHTML derives the text body from the HTML body when the hook
	// renders no text part.
	TextFromHTML bool `env:"MAILER_TEXT_FROM_HTML" envDefault:"true"`

	// History is the global default for recording sends; requests may override it.
	History bool `env:"MAILER_HISTORY" envDefault:"true"`

	// LogMail adds rendered bodies to the per-send log entry.
	LogMail bool `env:"MAILER_LOG_MAIL" envDefault:"false"`
}
