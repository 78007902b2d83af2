package tryupdate

// Option configures a single TryUpdate call.
type Option func(*config)

type config struct {
	budget  int
	backoff bool
}

// WithRetryBudget caps the number of failed compare-and-swap attempts before
// TryUpdate gives up with ContentionExhausted. Zero or negative means no cap,
// which is the default.
func WithRetryBudget(n int) Option {
	return func(c *config) {
		c.budget = n
	}
}

// WithBackoff pauses briefly between retries. Useful when many writers are
// expected to collide on one cell; retrying immediately is usually the right
// default because cells are meant to be low contention.
func WithBackoff() Option {
	return func(c *config) {
		c.backoff = true
	}
}

func applyOptions(opts []Option) config {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
