package pipeline

import "github.com/DeafMist/intel-radar/backend/internal/config"

// Settings are the pipeline tunables; they share the config layer's shape so
// env and YAML overrides flow through unchanged.
type Settings = config.Pipeline

// DefaultSettings returns the built-in tunables.
func DefaultSettings() Settings {
	return config.DefaultPipeline()
}
