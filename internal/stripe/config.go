package stripe

// Config carries Stripe credentials resolved once at startup.
type Config struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
	// MaxRetries bounds retry attempts on outbound API calls. Webhook
	// verification is local and never retried.
	MaxRetries uint64 `env:"STRIPE_MAX_RETRIES" envDefault:"3"`
}
