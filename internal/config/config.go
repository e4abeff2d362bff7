package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// DefaultProjectID is used when no identity project id is configured
const DefaultProjectID = "volunteer-platform-87cd0"

// ErrMissingAPIKey is returned when the remote identity platform has no API key
var ErrMissingAPIKey = errors.New("identity.api_key is required in remote mode")

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("volunteer-auth version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Identity  IdentityConfig  `mapstructure:"identity"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Callback  CallbackConfig  `mapstructure:"callback"`
	Store     StoreConfig     `mapstructure:"store"`
	Session   SessionConfig   `mapstructure:"session"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// IdentityMode selects which identity platform client is used
type IdentityMode string

const (
	IdentityModeRemote IdentityMode = "remote"
	IdentityModeLocal  IdentityMode = "local"
)

// IdentityConfig holds the identity platform connection parameters
type IdentityConfig struct {
	APIKey            string       `mapstructure:"api_key"`
	AuthDomain        string       `mapstructure:"auth_domain"`
	DatabaseURL       string       `mapstructure:"database_url"`
	ProjectID         string       `mapstructure:"project_id"`
	StorageBucket     string       `mapstructure:"storage_bucket"`
	MessagingSenderID string       `mapstructure:"messaging_sender_id"`
	AppID             string       `mapstructure:"app_id"`
	Endpoint          string       `mapstructure:"endpoint"`
	Mode              IdentityMode `mapstructure:"mode"`
}

type OAuthConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Scopes       []string `mapstructure:"scopes"`
}

type ProvidersConfig struct {
	Google   OAuthConfig `mapstructure:"google"`
	Facebook OAuthConfig `mapstructure:"facebook"`
	Twitter  OAuthConfig `mapstructure:"twitter"`
}

// CallbackConfig is the loopback address popup sign-in flows redirect to
type CallbackConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Address returns host:port for the loopback listener
func (c CallbackConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedirectURL returns the redirect URI registered with OAuth providers
func (c CallbackConfig) RedirectURL() string {
	return fmt.Sprintf("http://%s/callback", c.Address())
}

type StoreDriver string

const (
	StoreDriverMemory StoreDriver = "memory"
	StoreDriverRedis  StoreDriver = "redis"
	StoreDriverSQLite StoreDriver = "sqlite"
)

type StoreConfig struct {
	Driver        StoreDriver `mapstructure:"driver"`
	RedisAddr     string      `mapstructure:"redis_addr"`
	RedisPassword string      `mapstructure:"redis_password"`
	RedisDB       int         `mapstructure:"redis_db"`
	SQLitePath    string      `mapstructure:"sqlite_path"`
}

type SessionConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// InitFlags initializes command line flags (without parsing)
func InitFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to a config file")
	flags.String("identity-mode", "", "Identity platform mode (remote|local)")
	flags.String("store-driver", "", "Document store driver (memory|redis|sqlite)")
	// Note: parsing is left to cobra
}

// envOnlyKeys have no default but must still be visible to Unmarshal when
// they only come from the environment
var envOnlyKeys = []string{
	"identity.api_key",
	"identity.auth_domain",
	"identity.database_url",
	"identity.storage_bucket",
	"identity.messaging_sender_id",
	"identity.app_id",
	"providers.google.client_id",
	"providers.google.client_secret",
	"providers.google.scopes",
	"providers.facebook.client_id",
	"providers.facebook.client_secret",
	"providers.facebook.scopes",
	"providers.twitter.client_id",
	"providers.twitter.client_secret",
	"providers.twitter.scopes",
	"store.redis_password",
	"store.redis_db",
}

func setDefaults(v *viper.Viper) {
	for _, key := range envOnlyKeys {
		_ = v.BindEnv(key)
	}
	v.SetDefault("identity.project_id", DefaultProjectID)
	v.SetDefault("identity.endpoint", "https://identitytoolkit.googleapis.com/v1")
	v.SetDefault("identity.mode", string(IdentityModeRemote))
	v.SetDefault("callback.host", "127.0.0.1")
	v.SetDefault("callback.port", 9005)
	v.SetDefault("store.driver", string(StoreDriverMemory))
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.sqlite_path", "volunteer.db")
	v.SetDefault("session.path", ".volunteer-session.yaml")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.disable_console", true)
	v.SetDefault("logging.output_path", "volunteer-auth.log")
	v.SetDefault("logging.append_to_file", true)
}

// Load reads the configuration from defaults, an optional config file, the
// environment (VOLUNTEER_ prefix) and the given flags, in increasing priority.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VOLUNTEER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/volunteer-auth")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, everything has a default or an env var
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if mode := v.GetString("identity-mode"); mode != "" {
		config.Identity.Mode = IdentityMode(mode)
	}
	if driver := v.GetString("store-driver"); driver != "" {
		config.Store.Driver = StoreDriver(driver)
	}
	if config.Identity.ProjectID == "" {
		config.Identity.ProjectID = DefaultProjectID
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	switch c.Identity.Mode {
	case IdentityModeRemote:
		if c.Identity.APIKey == "" {
			return fmt.Errorf("%w, set VOLUNTEER_IDENTITY_API_KEY or use --identity-mode=local", ErrMissingAPIKey)
		}
	case IdentityModeLocal:
	default:
		return fmt.Errorf("unsupported identity mode: %s", c.Identity.Mode)
	}
	return nil
}
