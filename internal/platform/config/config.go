package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultEnvFile           = ".env"
	defaultPort              = "5000"
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultLogLevel          = "info"
	defaultStorageBackend    = "postgres"
	defaultPublicBaseURL     = "http://localhost:5000"
	defaultMyFatoorahBaseURL = "https://apitest.myfatoorah.com"
	defaultDeemaBaseURL      = "https://sandbox-api.deema.me"
	defaultDeemaAuthMode     = "basic"
	defaultWebhookHeader     = "x-webhook-secret"
	defaultGatewayTimeout    = 30 * time.Second
	defaultTranslateBaseURL  = "https://libretranslate.com"
	defaultTranslateSource   = "ar"
	defaultTranslateTarget   = "en"
)

// Storage backend selector values accepted by STORAGE_BACKEND.
const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Storage   StorageConfig
	Gateways  GatewayConfig
	Translate TranslateConfig
	WhatsApp  WhatsAppConfig
	Admin     AdminConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	PublicBaseURL string
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string
}

// StorageConfig selects and parameterises the persistence backend.
type StorageConfig struct {
	Backend           string
	DatabaseURL       string
	FirebaseProjectID string
	EmulatorHost      string
}

// GatewayConfig collects payment gateway settings.
type GatewayConfig struct {
	Timeout    time.Duration
	MyFatoorah MyFatoorahConfig
	Deema      DeemaConfig
}

// MyFatoorahConfig holds MyFatoorah (KNET/card) gateway credentials.
type MyFatoorahConfig struct {
	BaseURL string
	APIKey  string
}

// DeemaConfig holds Deema (BNPL) gateway credentials. AuthMode selects how the
// API key is presented: basic, basic64, or bearer.
type DeemaConfig struct {
	BaseURL       string
	APIKey        string
	AuthMode      string
	WebhookHeader string
	WebhookSecret string
}

// TranslateConfig points at the LibreTranslate-compatible endpoint.
// SourceLang and TargetLang are BCP 47 tags, parsed at wiring time.
type TranslateConfig struct {
	BaseURL    string
	SourceLang string
	TargetLang string
}

// WhatsAppConfig holds WhatsApp Cloud API credentials for order notifications.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
}

// AdminConfig controls admin route authentication. Admin routes are open when
// JWTSecret is empty.
type AdminConfig struct {
	JWTSecret string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:          stringWithDefault(lookup, "SERVER_PORT", defaultPort),
			ReadTimeout:   durationWithDefault(lookup, "SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:  durationWithDefault(lookup, "SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:   durationWithDefault(lookup, "SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			PublicBaseURL: strings.TrimRight(stringWithDefault(lookup, "PUBLIC_BASE_URL", defaultPublicBaseURL), "/"),
		},
		Logging: LoggingConfig{
			Level: stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel),
		},
		Storage: storageConfig(lookup),
		Gateways: GatewayConfig{
			Timeout: durationWithDefault(lookup, "GATEWAY_TIMEOUT", defaultGatewayTimeout),
			MyFatoorah: MyFatoorahConfig{
				BaseURL: strings.TrimRight(stringWithDefault(lookup, "MYFATOORAH_BASE_URL", defaultMyFatoorahBaseURL), "/"),
				APIKey:  stringWithDefault(lookup, "MYFATOORAH_API_KEY", ""),
			},
			Deema: DeemaConfig{
				BaseURL:       strings.TrimRight(stringWithDefault(lookup, "DEEMA_BASE_URL", defaultDeemaBaseURL), "/"),
				APIKey:        stringWithDefault(lookup, "DEEMA_API_KEY", ""),
				AuthMode:      strings.ToLower(stringWithDefault(lookup, "DEEMA_AUTH", defaultDeemaAuthMode)),
				WebhookHeader: strings.ToLower(stringWithDefault(lookup, "DEEMA_WEBHOOK_HEADER", defaultWebhookHeader)),
				WebhookSecret: stringWithDefault(lookup, "DEEMA_WEBHOOK_SECRET", ""),
			},
		},
		Translate: TranslateConfig{
			BaseURL:    strings.TrimRight(stringWithDefault(lookup, "TRANSLATE_BASE_URL", defaultTranslateBaseURL), "/"),
			SourceLang: stringWithDefault(lookup, "TRANSLATE_SOURCE_LANG", defaultTranslateSource),
			TargetLang: stringWithDefault(lookup, "TRANSLATE_TARGET_LANG", defaultTranslateTarget),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   stringWithDefault(lookup, "WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID: stringWithDefault(lookup, "WHATSAPP_PHONE_NUMBER_ID", ""),
		},
		Admin: AdminConfig{
			JWTSecret: stringWithDefault(lookup, "ADMIN_JWT_SECRET", ""),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// storageConfig resolves the backend selector. When STORAGE_BACKEND is not
// set explicitly, a configured Firestore project id selects firestore,
// otherwise postgres.
func storageConfig(lookup func(string) (string, bool)) StorageConfig {
	cfg := StorageConfig{
		DatabaseURL:       stringWithDefault(lookup, "DATABASE_URL", ""),
		FirebaseProjectID: stringWithDefault(lookup, "FIREBASE_PROJECT_ID", ""),
		EmulatorHost:      stringWithDefault(lookup, "FIRESTORE_EMULATOR_HOST", ""),
	}

	backend := ""
	if value, ok := lookup("STORAGE_BACKEND"); ok {
		backend = strings.ToLower(strings.TrimSpace(value))
	}
	if backend == "" {
		backend = defaultStorageBackend
		if cfg.FirebaseProjectID != "" {
			backend = BackendFirestore
		}
	}
	cfg.Backend = backend
	return cfg
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	switch cfg.Storage.Backend {
	case BackendPostgres:
		if cfg.Storage.DatabaseURL == "" {
			missing = append(missing, "Storage.DatabaseURL")
		}
	case BackendFirestore:
		if cfg.Storage.FirebaseProjectID == "" {
			missing = append(missing, "Storage.FirebaseProjectID")
		}
	default:
		missing = append(missing, "Storage.Backend")
	}
	switch cfg.Gateways.Deema.AuthMode {
	case "basic", "basic64", "bearer":
	default:
		missing = append(missing, "Gateways.Deema.AuthMode")
	}
	if cfg.Gateways.Timeout <= 0 {
		missing = append(missing, "Gateways.Timeout")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}


