package config

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	// EnvProduction selects the hosted API endpoint.
	EnvProduction = "production"
	// EnvDevelopment selects a local API endpoint.
	EnvDevelopment = "development"

	productionProtocol  = "https"
	productionDomain    = "htbgzenw76.execute-api.us-east-1.amazonaws.com"
	developmentProtocol = "http"
	developmentDomain   = "localhost:3000"
)

// Config holds all client settings.
type Config struct {
	// Env is "production" or "development"; it picks Protocol and Domain when those are unset.
	Env          string `json:"env" env:"WORD_BATTLE_ENV"`
	Protocol     string `json:"protocol" env:"WORD_BATTLE_PROTOCOL"`
	Domain       string `json:"domain" env:"WORD_BATTLE_DOMAIN"`
	EndpointPath string `json:"endpoint_path" env:"WORD_BATTLE_ENDPOINT_PATH"`

	// TokenPath is the SQLite file holding the durable session slot.
	TokenPath string `json:"token_path" env:"WORD_BATTLE_TOKEN_PATH"`
	// LogPath receives logs while the terminal UI owns the screen.
	LogPath string `json:"log_path" env:"WORD_BATTLE_LOG_PATH"`
	LogLevel string `json:"log_level" env:"WORD_BATTLE_LOG_LEVEL"`

	// Leaderboard is the optional partition passed to LIST_TOP_USERS.
	Leaderboard string `json:"leaderboard" env:"WORD_BATTLE_LEADERBOARD"`
	// Partitions are the selectable leaderboard partitions in the terminal UI ("" = all players).
	Partitions []string `json:"partitions" env:"WORD_BATTLE_PARTITIONS" envSeparator:","`

	// WindowRadius is how many entries are shown before and after the current player.
	WindowRadius int `json:"window_radius" env:"WORD_BATTLE_WINDOW_RADIUS"`
	// TopN is the size of the listing shown to visitors without a session.
	TopN int `json:"top_n" env:"WORD_BATTLE_TOP_N"`

	// ShareBaseURL is the page that share links point to.
	ShareBaseURL string `json:"share_base_url" env:"WORD_BATTLE_SHARE_BASE_URL"`
}

// Defaults returns a Config with development defaults. Protocol, Domain and
// the file paths are filled in by Load from Env and the user config dir.
func Defaults() *Config {
	return &Config{
		Env:          EnvDevelopment,
		EndpointPath: "/dev/app",
		LogLevel:     "info",
		Partitions:   []string{""},
		WindowRadius: 5,
		TopN:         10,
		ShareBaseURL: "https://word-battle.com/",
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	return LoadFile("config.json")
}

// LoadFile is Load with an explicit JSON file path. A missing file is not an error.
func LoadFile(path string) *Config {
	cfg := Defaults()

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config file", "tag", "config", "path", path, "err", err)
		}
	}

	// Unset variables leave fields untouched; invalid ones are reported and skipped.
	if err := env.Parse(cfg); err != nil {
		slog.Warn("invalid environment override", "tag", "config", "err", err)
	}

	cfg.resolve()
	return cfg
}

func (c *Config) resolve() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env != EnvProduction {
		c.Env = EnvDevelopment
	}
	if c.Protocol == "" {
		c.Protocol = developmentProtocol
		if c.Env == EnvProduction {
			c.Protocol = productionProtocol
		}
	}
	if c.Domain == "" {
		c.Domain = developmentDomain
		if c.Env == EnvProduction {
			c.Domain = productionDomain
		}
	}
	if c.EndpointPath == "" {
		c.EndpointPath = "/dev/app"
	}
	if !strings.HasPrefix(c.EndpointPath, "/") {
		c.EndpointPath = "/" + c.EndpointPath
	}
	if c.WindowRadius < 0 {
		c.WindowRadius = 5
	}
	if c.TopN <= 0 {
		c.TopN = 10
	}
	if len(c.Partitions) == 0 {
		c.Partitions = []string{""}
	}
	if c.TokenPath == "" || c.LogPath == "" {
		dir := stateDir()
		if c.TokenPath == "" {
			c.TokenPath = filepath.Join(dir, "session.db")
		}
		if c.LogPath == "" {
			c.LogPath = filepath.Join(dir, "wordbattle.log")
		}
	}
}

func stateDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, "word-battle")
}

// Endpoint returns the RPC URL, e.g. http://localhost:3000/dev/app.
func (c *Config) Endpoint() string {
	u := url.URL{Scheme: c.Protocol, Host: c.Domain, Path: c.EndpointPath}
	return u.String()
}
