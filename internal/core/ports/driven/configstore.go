package driven

import "github.com/custodia-labs/ragguard/internal/core/domain"

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files), environment
// overrides and validation.
type ConfigStore interface {
	// Load reads configuration from storage and the environment, then
	// validates it. A missing file yields the defaults.
	Load() (domain.Settings, error)

	// Save persists settings to storage.
	Save(settings domain.Settings) error

	// Path returns the configuration file path.
	Path() string
}
