package log

// Option applies a configuration option to config.
type Option func(config) config

// apply applies multiple options to a config in order, so later options
// override earlier ones.
func apply(cfg config, opts ...Option) config {
	for _, opt := range opts {
		if opt != nil {
			cfg = opt(cfg)
		}
	}

	return cfg
}
