package config

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	if cfg.Simulation.Arbitration == "" {
		cfg.Simulation.Arbitration = "first-come"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "clem"
	}
}
