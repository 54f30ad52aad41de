// Package config loads application configuration from environment
// variables into annotated structs.
//
// It combines github.com/joho/godotenv for .env file loading with
// github.com/caarlos0/env/v11 for struct parsing, and caches each parsed
// configuration type so it is resolved at most once per process.
//
// Usage:
//
//	type LinksConfig struct {
//	    Secret  string `env:"LINK_SIGNING_SECRET,required"`
//	    BaseURL string `env:"LINK_BASE_URL" envDefault:"http://localhost:8080"`
//	}
//
//	var cfg LinksConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatalf("config: %v", err)
//	}
//
// Tests that mutate the process environment should call ResetCache or
// ForceReload to bypass the per-type cache.
package config
