package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DatabaseConfig locates the metadata store.
type DatabaseConfig struct {
	// URL is a postgres DSN (postgres://...) or a sqlite file path.
	URL string `mapstructure:"url"`

	MaxOpenConns int `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// StorageConfig configures the S3-compatible object store that holds raw
// message bodies. Endpoint is set for R2 or any non-AWS provider.
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
}

// RelayConfig configures the outbound SMTP relay.
type RelayConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,gte=1,lte=65535"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// StartTLS upgrades a plain connection; when false the relay is dialed
	// over implicit TLS.
	StartTLS bool `mapstructure:"starttls"`

	// From is the default submit address when a message names none.
	From string `mapstructure:"from"`
}

// SyncConfig tunes the polling loop.
type SyncConfig struct {
	// Interval is the fixed wait between sync passes.
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`

	// WindowDays bounds how far back each pass searches a folder.
	WindowDays int `mapstructure:"window_days" validate:"gte=1"`

	// BatchLimit caps messages fetched per folder per pass, newest first.
	BatchLimit int `mapstructure:"batch_limit" validate:"gte=1"`

	// PassTimeout bounds a whole pass; a pass past the deadline is abandoned
	// and logged.
	PassTimeout time.Duration `mapstructure:"pass_timeout" validate:"gt=0"`

	// SnippetLength is the maximum rune length of stored body previews.
	SnippetLength int `mapstructure:"snippet_length" validate:"gte=0"`
}

// AdminConfig configures the operational HTTP endpoint.
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`
}

// SecurityConfig holds the data key that seals mailbox credentials at rest.
type SecurityConfig struct {
	// DataKey is a base64-encoded 32-byte AES key, normally supplied via
	// NUBO_SECURITY_DATA_KEY.
	DataKey string `mapstructure:"data_key"`
}

// DomainsConfig holds the DNS records customer domains are checked against.
type DomainsConfig struct {
	MXHost       string `mapstructure:"mx_host"`
	SPFInclude   string `mapstructure:"spf_include"`
	DKIMSelector string `mapstructure:"dkim_selector"`
}

// Config is the top-level service configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Log      LogConfig      `mapstructure:"log"`
	Security SecurityConfig `mapstructure:"security"`
	Domains  DomainsConfig  `mapstructure:"domains"`
}

// setDefaults registers every known key so environment-only configuration
// resolves without a file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.force_path_style", false)

	v.SetDefault("relay.host", "")
	v.SetDefault("relay.port", 465)
	v.SetDefault("relay.username", "")
	v.SetDefault("relay.password", "")
	v.SetDefault("relay.starttls", false)
	v.SetDefault("relay.from", "")

	v.SetDefault("sync.interval", "2m")
	v.SetDefault("sync.window_days", 7)
	v.SetDefault("sync.batch_limit", 100)
	v.SetDefault("sync.pass_timeout", "10m")
	v.SetDefault("sync.snippet_length", 280)

	v.SetDefault("admin.enabled", true)
	v.SetDefault("admin.addr", ":9100")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("security.data_key", "")

	v.SetDefault("domains.mx_host", "mx.nubomail.com")
	v.SetDefault("domains.spf_include", "include:_spf.nubomail.com")
	v.SetDefault("domains.dkim_selector", "nubo")
}

// Load reads configuration from the given YAML file path using Viper,
// overlaying NUBO_-prefixed environment variables (NUBO_DATABASE_URL sets
// database.url, and so on). A missing file is not an error: the service can
// run on environment alone.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("nubomail")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/nubomail")
	}

	setDefaults(v)

	v.SetEnvPrefix("NUBO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		_, pathErr := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !pathErr && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks field formats and ranges. Presence of the settings a
// particular command needs (relay host, storage bucket, data key) is checked
// by the command itself so one-shot commands can run with partial
// configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
