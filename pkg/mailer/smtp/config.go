package smtp

// Config configures the SMTP sender.
type Config struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	// From is used when the message carries no sender.
	From string `env:"SMTP_FROM"`
}
