// Package file provides file-based implementations of driven port interfaces.
// These adapters read configuration from the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML configuration with .env and environment overrides
//   - PromptStore: answer prompt template with an embedded default
package file
