package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Discord  DiscordConfig  `mapstructure:"discord"`
	Security SecurityConfig `mapstructure:"security"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	Debug     bool   `mapstructure:"debug"`
	AdminKey  string `mapstructure:"admin_key"`
	PublicURL string `mapstructure:"public_url"` // canonical base URL of the portal
}

type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DiscordConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	// AllowedOrigins lists the browser origins permitted by CORS.
	// An empty slice allows all origins (useful for local development only).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	SecureCookies  bool     `mapstructure:"secure_cookies"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
	// ResourceTTL is the revalidation window for slow-changing upstream
	// resources (profiles, rounds); StatusTTL covers the live server status.
	ResourceTTL time.Duration `mapstructure:"resource_ttl"`
	StatusTTL   time.Duration `mapstructure:"status_ttl"`
}

// Load reads config from the given YAML file path. Environment variables
// prefixed with PORTAL_ override file values (e.g. PORTAL_UPSTREAM_API_KEY).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("security.session_ttl", "72h")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
	v.SetDefault("security.secure_cookies", true)
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("cache.resource_ttl", "1h")
	v.SetDefault("cache.status_ttl", "30s")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the portal cannot start with. Every
// upstream call carries the API key and every session needs a signing
// secret, so their absence is a startup error rather than a per-request
// surprise.
func (c *Config) Validate() error {
	var missing []string
	if c.Upstream.BaseURL == "" {
		missing = append(missing, "upstream.base_url")
	}
	if c.Upstream.APIKey == "" {
		missing = append(missing, "upstream.api_key")
	}
	if c.Security.JWTSecret == "" {
		missing = append(missing, "security.jwt_secret")
	}
	if c.Discord.ClientID == "" {
		missing = append(missing, "discord.client_id")
	}
	if c.Discord.ClientSecret == "" {
		missing = append(missing, "discord.client_secret")
	}
	if len(missing) > 0 {
		return errors.New("config: missing required keys: " + strings.Join(missing, ", "))
	}
	return nil
}
