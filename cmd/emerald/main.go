package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/emeraldpractice/emerald"
)

func main() {
	loadDotenv()

	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	var cfg emerald.SiteConfig
	if *configPath != "" {
		loaded, err := emerald.LoadConfigFile(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	applyEnv(&cfg)

	app := emerald.New(cfg)
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

func loadDotenv() {
	for _, p := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Overload(p)
			log.Println("[env] loaded", p)
			return
		}
	}
}

// applyEnv overrides file-based config with environment variables. The
// session secret must come from somewhere; everything else has defaults.
func applyEnv(cfg *emerald.SiteConfig) {
	cfg.Name = emerald.EnvOr("SITE_NAME", cfg.Name)
	cfg.URL = emerald.EnvOr("SITE_URL", cfg.URL)
	cfg.Addr = emerald.EnvOr("ADDR", cfg.Addr)
	cfg.DatabasePath = emerald.EnvOr("DATABASE_PATH", cfg.DatabasePath)
	cfg.DatabaseURL = emerald.EnvOr("DATABASE_URL", cfg.DatabaseURL)
	cfg.AdminEmail = emerald.EnvOr("ADMIN_EMAIL", cfg.AdminEmail)
	cfg.MediaDir = emerald.EnvOr("MEDIA_DIR", cfg.MediaDir)
	cfg.MediaNamespace = emerald.EnvOr("MEDIA_NAMESPACE", cfg.MediaNamespace)
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = emerald.MustEnv("SESSION_SECRET")
	}
	cfg.CookieSecure = cfg.CookieSecure || strings.EqualFold(os.Getenv("COOKIE_SECURE"), "true")
}
