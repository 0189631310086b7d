package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
)

// Config holds the configuration for the humanorai server.
type Config struct {
	// Listen is the address the server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the public base URL of the server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// SessionKey is the key used to sign session cookies and to hash anonymous voter addresses.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a session in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// SecureCookies marks the session cookie as secure (HTTPS only).
	SecureCookies bool `yaml:"secure_cookies" mapstructure:"secure_cookies"`
	// TrustedProxies lists the proxy addresses or CIDRs whose X-Forwarded-For header is
	// used for the client address. Empty means the header is ignored.
	TrustedProxies []string `yaml:"trusted_proxies" mapstructure:"trusted_proxies"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Cache holds the cache engine configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Auth holds the authentication configuration.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`
	// Votes holds the voting configuration.
	Votes *VotesConfig `yaml:"votes" mapstructure:"votes"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
	// Admin is the administrator account that is seeded on startup.
	Admin *AdminConfig `yaml:"admin" mapstructure:"admin"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Driver is the database driver to use ("sqlite" or "postgres").
	Driver DatabaseDriver `yaml:"driver" mapstructure:"driver"`
	// Path is the path to the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
	// DSN is the postgres connection string.
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// CacheConfig holds the configuration for the cache engine.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the URL for the Redis cache if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// TallyTTL is how long a computed vote tally is cached. Zero disables caching.
	TallyTTL time.Duration `yaml:"tally_ttl" mapstructure:"tally_ttl"`
}

// AuthConfig holds the authentication configuration.
type AuthConfig struct {
	// Credentials enables email and password login.
	Credentials *CredentialsConfig `yaml:"credentials" mapstructure:"credentials"`
	// OIDC holds the OIDC authentication configuration.
	OIDC *OIDCConfig `yaml:"oidc" mapstructure:"oidc"`
	// Token holds the bearer token configuration for API clients.
	Token *TokenConfig `yaml:"token" mapstructure:"token"`
}

// CredentialsConfig holds the email and password authentication configuration.
type CredentialsConfig struct {
	// Enabled indicates whether credentials login is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// AllowRegistration indicates whether new users may sign up.
	AllowRegistration bool `yaml:"allow_registration" mapstructure:"allow_registration"`
}

// OIDCConfig holds the OIDC authentication configuration.
type OIDCConfig struct {
	// Enabled indicates whether OIDC authentication is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Name is the display name of the OIDC provider.
	Name string `yaml:"name" mapstructure:"name"`
	// Issuer is the OIDC issuer URL.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// ClientID is the OIDC client ID.
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	// ClientSecret is the OIDC client secret.
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	// RedirectURL is the redirect URL for the oidc flow.
	RedirectURL string `yaml:"redirect_url" mapstructure:"redirect_url"`
	// AdminGroup is the group that has admin privileges.
	AdminGroup string `yaml:"admin_group" mapstructure:"admin_group"`
}

// TokenConfig holds the bearer token configuration.
type TokenConfig struct {
	// Enabled indicates whether bearer tokens are issued and accepted.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Secret is the HMAC secret used to sign tokens.
	Secret string `yaml:"secret" mapstructure:"secret"`
	// TTL is the lifetime of an issued token.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// VotesConfig holds the voting configuration.
type VotesConfig struct {
	// AllowAnonymous permits votes from callers without a session.
	AllowAnonymous bool `yaml:"allow_anonymous" mapstructure:"allow_anonymous"`
	// AnonymousRateLimit is the number of anonymous votes a single client may cast per window.
	// Zero disables the limit.
	AnonymousRateLimit int `yaml:"anonymous_rate_limit" mapstructure:"anonymous_rate_limit"`
	// AnonymousRateWindow is the window for AnonymousRateLimit.
	AnonymousRateWindow time.Duration `yaml:"anonymous_rate_window" mapstructure:"anonymous_rate_window"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// AdminConfig holds the seeded administrator account.
type AdminConfig struct {
	// Name is the display name of the administrator.
	Name string `yaml:"name" mapstructure:"name"`
	// Email is the login email of the administrator. Seeding is skipped when empty.
	Email string `yaml:"email" mapstructure:"email"`
	// Password is the initial password of the administrator.
	Password string `yaml:"password" mapstructure:"password"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
// If no config file is found, defaults and environment variables are used.
func Load(path string) (*Config, error) {
	v := viper.New()

	bindNestedEnv(v)
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("HUMANORAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.humanorai")
		v.AddConfigPath("/etc/humanorai")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with the HUMANORAI_ prefix override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3000")
	v.SetDefault("server_url", "http://localhost:3000")
	v.SetDefault("session_key", "")
	v.SetDefault("session_max_age", 2592000) // 30 days
	v.SetDefault("secure_cookies", false)
	v.SetDefault("trusted_proxies", []string{})

	// Database
	v.SetDefault("database.driver", DatabaseDriverSQLite)
	v.SetDefault("database.path", "./data/humanorai.db")
	v.SetDefault("database.dsn", "")

	// Cache
	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.tally_ttl", 30*time.Second)

	// Auth
	v.SetDefault("auth.credentials.enabled", true)
	v.SetDefault("auth.credentials.allow_registration", true)
	v.SetDefault("auth.oidc.enabled", false)
	v.SetDefault("auth.oidc.name", "OIDC")
	v.SetDefault("auth.oidc.issuer", "")
	v.SetDefault("auth.oidc.client_id", "")
	v.SetDefault("auth.oidc.client_secret", "")
	v.SetDefault("auth.oidc.redirect_url", "")
	v.SetDefault("auth.oidc.admin_group", "")
	v.SetDefault("auth.token.enabled", false)
	v.SetDefault("auth.token.secret", "")
	v.SetDefault("auth.token.ttl", 24*time.Hour)

	// Votes
	v.SetDefault("votes.allow_anonymous", true)
	v.SetDefault("votes.anonymous_rate_limit", 0)
	v.SetDefault("votes.anonymous_rate_window", time.Minute)

	// Gravatar
	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "identicon")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 80)
}

// bindNestedEnv binds env vars for keys without a default value.
// The auto env function from viper only works for nested keys viper already knows about.
func bindNestedEnv(v *viper.Viper) {
	v.MustBindEnv("admin.name", "HUMANORAI_ADMIN_NAME")
	v.MustBindEnv("admin.email", "HUMANORAI_ADMIN_EMAIL")
	v.MustBindEnv("admin.password", "HUMANORAI_ADMIN_PASSWORD")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing humanorai config")
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}

	if c.Database == nil {
		return fmt.Errorf("missing database config")
	}
	switch c.Database.Driver {
	case DatabaseDriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required when using sqlite")
		}
	case DatabaseDriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required when using postgres")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is enabled")
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
		if c.Cache.TallyTTL < 0 {
			return fmt.Errorf("cache tally TTL must not be negative")
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory,
		}
	}

	if c.Auth == nil {
		return fmt.Errorf("missing auth config")
	}

	authEnabled := false
	if c.Auth.Credentials != nil && c.Auth.Credentials.Enabled {
		authEnabled = true
	}
	if c.Auth.OIDC != nil && c.Auth.OIDC.Enabled {
		authEnabled = true
		if c.Auth.OIDC.Issuer == "" {
			return fmt.Errorf("OIDC issuer is required when OIDC is enabled")
		}
		if c.Auth.OIDC.ClientID == "" {
			return fmt.Errorf("OIDC client ID is required when OIDC is enabled")
		}
		if c.Auth.OIDC.ClientSecret == "" {
			return fmt.Errorf("OIDC client secret is required when OIDC is enabled")
		}
		if c.Auth.OIDC.RedirectURL == "" {
			return fmt.Errorf("OIDC redirect URL is required when OIDC is enabled")
		}
		if c.Auth.OIDC.AdminGroup == "" {
			return fmt.Errorf("OIDC admin group is required when OIDC is enabled")
		}
	}
	if !authEnabled {
		return fmt.Errorf("at least one authentication method must be enabled")
	}

	if c.Auth.Token != nil && c.Auth.Token.Enabled {
		if len(c.Auth.Token.Secret) < 32 {
			return fmt.Errorf("token secret must be at least 32 characters when tokens are enabled")
		}
		if c.Auth.Token.TTL <= 0 {
			return fmt.Errorf("token TTL must be positive when tokens are enabled")
		}
	}

	if c.Votes == nil {
		c.Votes = &VotesConfig{AllowAnonymous: true}
	}
	if c.Votes.AnonymousRateLimit < 0 {
		return fmt.Errorf("anonymous rate limit must not be negative")
	}
	if c.Votes.AnonymousRateLimit > 0 && c.Votes.AnonymousRateWindow <= 0 {
		return fmt.Errorf("anonymous rate window must be positive when a rate limit is set")
	}

	if c.Gravatar != nil && c.Gravatar.Enabled {
		if c.Gravatar.Size != 0 && (c.Gravatar.Size < 1 || c.Gravatar.Size > 2048) {
			return fmt.Errorf("gravatar size must be between 1 and 2048")
		}
	}

	if c.Admin != nil && c.Admin.Email != "" {
		if err := validator.New().Var(c.Admin.Email, "email"); err != nil {
			return fmt.Errorf("admin email is invalid: %w", err)
		}
		if len(c.Admin.Password) < 8 {
			return fmt.Errorf("admin password must be at least 8 characters")
		}
		if len(c.Admin.Password) > 72 {
			return fmt.Errorf("admin password must be at most 72 bytes")
		}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)

	if c.ServerURL != "" {
		c.ServerURL = urlSanitize(c.ServerURL)
	}

	if c.Auth != nil && c.Auth.OIDC != nil {
		c.Auth.OIDC.Issuer = urlSanitize(c.Auth.OIDC.Issuer)
	}

	if c.Admin != nil {
		c.Admin.Email = strings.ToLower(strings.TrimSpace(c.Admin.Email))
		c.Admin.Name = strings.TrimSpace(c.Admin.Name)
		if c.Admin.Name == "" {
			c.Admin.Name = "Administrator"
		}
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}

// AnonymousVotingEnabled reports whether votes without a principal are accepted.
func (c *Config) AnonymousVotingEnabled() bool {
	return c.Votes == nil || c.Votes.AllowAnonymous
}

// TokensEnabled reports whether bearer tokens are issued and accepted.
func (c *Config) TokensEnabled() bool {
	return c.Auth != nil && c.Auth.Token != nil && c.Auth.Token.Enabled
}
