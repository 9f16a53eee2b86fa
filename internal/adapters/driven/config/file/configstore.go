package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragguard/internal/core/domain"
	"github.com/custodia-labs/ragguard/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// DefaultConfigFile is the configuration file used when none is given.
const DefaultConfigFile = "ragguard.toml"

// EnvPrefix prefixes every environment override: RAGGUARD_<SECTION>_<KEY>.
const EnvPrefix = "RAGGUARD_"

// shortEnv maps the short variable names of earlier deployments to their
// section.key. The prefixed form wins when both are set.
var shortEnv = map[string]string{
	"EMBED_MODEL":         "embedding.model",
	"CHUNK_SIZE":          "index.chunk_size",
	"CHUNK_OVERLAP":       "index.chunk_overlap",
	"COLLECTION_NAME":     "index.collection",
	"INJECTION_THRESHOLD": "defense.threshold",
	"N_RESULTS":           "retrieval.top_k",
	"RUN_LLM":             "llm.live_generation",
	"LLM_BASE_URL":        "llm.base_url",
	"LLM_API_KEY":         "llm.api_key",
	"LLM_MODEL":           "llm.model",
}

// ConfigStore loads settings from a TOML file layered over the defaults,
// then applies .env and environment overrides and validates the result.
type ConfigStore struct {
	path     string
	envFile  string
	lookup   func(string) (string, bool)
	validate *validator.Validate
}

// ConfigOption configures a ConfigStore.
type ConfigOption func(*ConfigStore)

// WithEnvFile sets the dotenv file loaded before overrides (default .env).
// An empty name disables it.
func WithEnvFile(name string) ConfigOption {
	return func(s *ConfigStore) {
		s.envFile = name
	}
}

// WithLookup replaces os.LookupEnv as the source of overrides.
func WithLookup(lookup func(string) (string, bool)) ConfigOption {
	return func(s *ConfigStore) {
		s.lookup = lookup
	}
}

// NewConfigStore creates a TOML-based config store.
// If path is empty, defaults to ./ragguard.toml.
func NewConfigStore(path string, opts ...ConfigOption) *ConfigStore {
	if path == "" {
		path = DefaultConfigFile
	}
	s := &ConfigStore{
		path:     path,
		envFile:  ".env",
		lookup:   os.LookupEnv,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.path
}

// Load reads configuration from the TOML file and the environment.
// A missing file yields the defaults.
func (s *ConfigStore) Load() (domain.Settings, error) {
	settings := domain.DefaultSettings()

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No config file yet - defaults plus environment
	case err != nil:
		return settings, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return settings, fmt.Errorf("%w: %s: %w", domain.ErrConfigInvalid, s.path, err)
		}
	}

	if s.envFile != "" {
		// Existing environment variables take precedence over the file.
		if err := godotenv.Load(s.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return settings, fmt.Errorf("loading %s: %w", s.envFile, err)
		}
	}

	if err := s.applyEnv(&settings); err != nil {
		return settings, err
	}

	if err := s.validate.Struct(settings); err != nil {
		return settings, fmt.Errorf("%w: %w", domain.ErrConfigInvalid, err)
	}
	return settings, nil
}

// Save persists settings to the TOML file.
func (s *ConfigStore) Save(settings domain.Settings) error {
	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	// Write with restricted permissions, the file may hold API keys
	return os.WriteFile(s.path, data, 0600)
}

// applyEnv overrides every section.key that has an environment value.
func (s *ConfigStore) applyEnv(settings *domain.Settings) error {
	fields := settingsFields(settings)

	for short, key := range shortEnv {
		if _, prefixed := s.lookup(envName(key)); prefixed {
			continue
		}
		if value, ok := s.lookup(short); ok {
			if err := setField(fields[key], value); err != nil {
				return fmt.Errorf("%w: %s: %w", domain.ErrConfigInvalid, short, err)
			}
		}
	}

	for key, field := range fields {
		name := envName(key)
		if value, ok := s.lookup(name); ok {
			if err := setField(field, value); err != nil {
				return fmt.Errorf("%w: %s: %w", domain.ErrConfigInvalid, name, err)
			}
		}
	}
	return nil
}

// envName converts "llm.base_url" to "RAGGUARD_LLM_BASE_URL".
func envName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// settingsFields indexes every leaf field of settings by "section.key",
// using the toml tags.
func settingsFields(settings *domain.Settings) map[string]reflect.Value {
	fields := make(map[string]reflect.Value)
	root := reflect.ValueOf(settings).Elem()
	for i := 0; i < root.NumField(); i++ {
		section := tomlName(root.Type().Field(i))
		sv := root.Field(i)
		for j := 0; j < sv.NumField(); j++ {
			fields[section+"."+tomlName(sv.Type().Field(j))] = sv.Field(j)
		}
	}
	return fields
}

func tomlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

// setField parses value into the field's kind. Lists are comma separated.
func setField(field reflect.Value, value string) error {
	value = strings.TrimSpace(value)
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}
