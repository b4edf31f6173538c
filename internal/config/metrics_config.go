package config

// MetricsConfig controls the Prometheus textfile dump written when a command exits.
type MetricsConfig struct {
	Enabled      bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	TextfilePath string `json:"textfile_path,omitempty" yaml:"textfile_path,omitempty"`
	Namespace    string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// NewDefaultMetricsConfig creates default metrics configuration
func NewDefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Namespace: "mediascout",
	}
}
