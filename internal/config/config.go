package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// GamePreset carries per-game-type board defaults. Entries loaded from the
// optional YAML preset file override the built-in defaults.
type GamePreset struct {
	Width       int `yaml:"width"`
	Height      int `yaml:"height"`
	TurnSeconds int `yaml:"turn_seconds"`
	StartHealth int `yaml:"start_health"`
	FoodCount   int `yaml:"food_count"`
	WallCount   int `yaml:"wall_count"`
	HazardCount int `yaml:"hazard_count"`
}

type AppConfig struct {
	RedisURL    string
	DatabaseURL string

	GatewayAddr string

	BotTimeout  time.Duration
	BotRetryMax int

	MaxConcurrentMatches int

	Presets map[string]GamePreset
}

func defaultPresets() map[string]GamePreset {
	return map[string]GamePreset{
		"connect_four": {Width: 7, Height: 6, TurnSeconds: 30},
		"free_line":    {Width: 10, Height: 10, TurnSeconds: 30},
		"longest_path": {Width: 8, Height: 8, TurnSeconds: 30},
		"snake":        {Width: 11, Height: 11, TurnSeconds: 10, StartHealth: 100, FoodCount: 3, WallCount: 4},
		"reversi":      {Width: 8, Height: 8, TurnSeconds: 45},
		"territory":    {Width: 12, Height: 12, TurnSeconds: 20},
	}
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		GatewayAddr:          ":8080",
		BotTimeout:           3 * time.Second,
		BotRetryMax:          2,
		MaxConcurrentMatches: 200,
		Presets:              defaultPresets(),
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("GATEWAY_ADDR")); v != "" {
		cfg.GatewayAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("BOT_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BotTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("BOT_RETRY_MAX")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.BotRetryMax = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MAX_CONCURRENT_MATCHES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxConcurrentMatches = n
		}
	}

	if path := strings.TrimSpace(os.Getenv("GAME_PRESETS_FILE")); path != "" {
		if err := cfg.applyPresetFile(path); err != nil {
			return nil, err
		}
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

// applyPresetFile merges per-game overrides on top of the built-in presets.
// Zero-valued fields in the file leave the default untouched.
func (c *AppConfig) applyPresetFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read preset file: %w", err)
	}
	var overrides map[string]GamePreset
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return fmt.Errorf("parse preset file: %w", err)
	}
	for name, o := range overrides {
		p, ok := c.Presets[name]
		if !ok {
			return fmt.Errorf("unknown game type %q in preset file", name)
		}
		if o.Width > 0 {
			p.Width = o.Width
		}
		if o.Height > 0 {
			p.Height = o.Height
		}
		if o.TurnSeconds > 0 {
			p.TurnSeconds = o.TurnSeconds
		}
		if o.StartHealth > 0 {
			p.StartHealth = o.StartHealth
		}
		if o.FoodCount > 0 {
			p.FoodCount = o.FoodCount
		}
		if o.WallCount > 0 {
			p.WallCount = o.WallCount
		}
		if o.HazardCount > 0 {
			p.HazardCount = o.HazardCount
		}
		c.Presets[name] = p
	}
	return nil
}
