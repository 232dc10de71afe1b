package emerald

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// SiteConfig holds all configuration for an emerald site.
type SiteConfig struct {
	Name string `yaml:"name"` // Site name (default "Emerald Counselling")
	URL  string `yaml:"url"`  // Canonical URL, used to build public media URLs
	Addr string `yaml:"addr"` // Listen address (default ":3000")

	DatabasePath string `yaml:"database_path"` // SQLite path (default "data/emerald.db")
	DatabaseURL  string `yaml:"database_url"`  // Postgres URL; when set, takes precedence over SQLite

	AdminEmail    string `yaml:"admin_email"`    // Account email that resolves to the admin role; empty means no admin
	SessionSecret string `yaml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	MediaDir       string `yaml:"media_dir"`       // Bucket directory for uploaded media (default "data/blog_media")
	MediaNamespace string `yaml:"media_namespace"` // Object key prefix inside the bucket (default "emerald-blogs")

	PostCacheTTL time.Duration `yaml:"post_cache_ttl"` // Post cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Emerald Counselling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/emerald.db"
	}
	if c.MediaDir == "" {
		c.MediaDir = "data/blog_media"
	}
	if c.MediaNamespace == "" {
		c.MediaNamespace = "emerald-blogs"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

// LoadConfigFile reads a SiteConfig from a YAML file.
func LoadConfigFile(path string) (SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SiteConfig{}, fmt.Errorf("read config: %w", err)
	}
	var cfg SiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithViews supplies templ components for the HTML pages. Page routes are
// only registered for the components provided.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}

// WithStore substitutes the persistence backend. Intended for tests and
// alternative deployments; the default is chosen from SiteConfig.
func WithStore(s Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithBucket substitutes the media bucket backing the upload gateway.
func WithBucket(b Bucket) Option {
	return func(a *App) {
		a.bucket = b
	}
}

// WithStaticDir sets the directory for static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}
