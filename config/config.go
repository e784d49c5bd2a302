// Package config loads server settings with the priority
// defaults < YAML file < environment < flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joeecarter/respondr-server/healthapi"
	"gopkg.in/yaml.v3"
)

type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
	Audience  string `yaml:"audience"`
}

type Config struct {
	Addr        string           `yaml:"addr"`
	DaysBack    int              `yaml:"days_back"`
	StoresFile  string           `yaml:"stores_file"`
	CORSOrigins []string         `yaml:"cors_origins"`
	MaxBodyMB   int64            `yaml:"max_body_mb"`
	Debug       bool             `yaml:"debug"`
	HealthAPI   healthapi.Config `yaml:"health_api"`
	Auth        Auth             `yaml:"auth"`

	ConfigPath string `yaml:"-"`
}

func Default() *Config {
	return &Config{
		Addr:        ":8080",
		DaysBack:    7,
		StoresFile:  "stores.json",
		CORSOrigins: []string{"*"},
		MaxBodyMB:   32,
		HealthAPI:   healthapi.Config{Timeout: healthapi.DefaultTimeout},
		Auth:        Auth{Audience: "authenticated"},
		ConfigPath:  "config.yaml",
	}
}

// Load builds the configuration for args (normally os.Args[1:]). A missing
// config file is not an error.
func Load(args []string) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("respondr-server", flag.ContinueOnError)
	configPath := fs.String("config", cfg.ConfigPath, "Path to config.yaml")
	addr := fs.String("addr", "", "The address to start the server on e.g. ':8080'")
	daysBack := fs.Int("days-back", 0, "Lookback window in days for the health API ingest")
	storesFile := fs.String("stores", "", "Path to the metric store config file")
	maxBodyMB := fs.Int64("max-body-mb", 0, "Largest accepted /api/data body in MiB")
	debug := fs.Bool("debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.ConfigPath = *configPath

	if err := cfg.loadFile(cfg.ConfigPath); err != nil {
		return nil, err
	}
	if err := cfg.loadEnvironment(os.LookupEnv); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "days-back":
			cfg.DaysBack = *daysBack
		case "stores":
			cfg.StoresFile = *storesFile
		case "max-body-mb":
			cfg.MaxBodyMB = *maxBodyMB
		case "debug":
			cfg.Debug = *debug
		}
	})

	return cfg, cfg.Validate()
}

func (cfg *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (cfg *Config) loadEnvironment(lookup lookupFunc) error {
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	setString("ADDR", &cfg.Addr)
	setString("STORES_FILE", &cfg.StoresFile)
	setString("HEALTH_API_URL", &cfg.HealthAPI.BaseURL)
	setString("HEALTH_API_KEY", &cfg.HealthAPI.APIKey)
	setString("SUPABASE_JWT_SECRET", &cfg.Auth.JWTSecret)
	setString("SUPABASE_JWT_AUDIENCE", &cfg.Auth.Audience)

	if v, ok := lookup("DAYS_BACK"); ok && v != "" {
		days, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid DAYS_BACK %q: %w", v, err)
		}
		cfg.DaysBack = days
	}

	if v, ok := lookup("MAX_BODY_MB"); ok && v != "" {
		mb, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_BODY_MB %q: %w", v, err)
		}
		cfg.MaxBodyMB = mb
	}

	if v, ok := lookup("HEALTH_API_TIMEOUT"); ok && v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid HEALTH_API_TIMEOUT %q: %w", v, err)
		}
		cfg.HealthAPI.Timeout = timeout
	}

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		var origins []string
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		cfg.CORSOrigins = origins
	}

	if v, ok := lookup("DEBUG"); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG %q: %w", v, err)
		}
		cfg.Debug = debug
	}

	return nil
}

// MaxBodyBytes converts the configured body limit to bytes.
func (cfg *Config) MaxBodyBytes() int64 {
	return cfg.MaxBodyMB << 20
}

func (cfg *Config) Validate() error {
	if cfg.DaysBack < 1 {
		return fmt.Errorf("days_back must be at least 1, got %d", cfg.DaysBack)
	}
	if cfg.MaxBodyMB < 1 {
		return fmt.Errorf("max_body_mb must be at least 1, got %d", cfg.MaxBodyMB)
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return errors.New("addr must not be empty")
	}
	return nil
}
