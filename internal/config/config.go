package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all server configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	JWT         JWTConfig         `yaml:"jwt"`
	Redis       RedisConfig       `yaml:"redis"`
	Session     SessionConfig     `yaml:"session"`
	World       WorldConfig       `yaml:"world"`
	Pathfinding PathfindingConfig `yaml:"pathfinding"`
	RouteCache  RouteCacheConfig  `yaml:"route_cache"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// ServerConfig holds server-specific settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TickRate int    `yaml:"tick_rate"` // Hz
}

// JWTConfig holds JWT authentication settings
type JWTConfig struct {
	Issuer              string `yaml:"issuer"`
	PublicKeyURL        string `yaml:"public_key_url"`
	PublicKeyRefreshHrs int    `yaml:"public_key_refresh_hours"`
	// Disabled accepts any player id without a token (local tools only).
	Disabled bool `yaml:"disabled"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address         string `yaml:"address"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	BlacklistPrefix string `yaml:"blacklist_prefix"`
}

// SessionConfig holds game session settings
type SessionConfig struct {
	MaxPlayers int `yaml:"max_players"`
	MaxAgents  int `yaml:"max_agents"`
}

// WorldConfig describes the hex map a session starts with.
type WorldConfig struct {
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	Wrap   bool `yaml:"wrap"`
	// Layout optionally seeds terrain and objects, one string per row.
	Layout []string `yaml:"layout"`
	Seed   int64    `yaml:"seed"`
}

// PathfindingConfig holds search bounds and engine switches.
type PathfindingConfig struct {
	HumanMaxLength int  `yaml:"human_max_length"`
	ShipMaxLength  int  `yaml:"ship_max_length"`
	RoadMaxLength  int  `yaml:"road_max_length"`
	StrictChecks   bool `yaml:"strict_checks"`
	DebugLevel     int  `yaml:"debug_level"`
	RetryFrames    int  `yaml:"retry_frames"` // idle frames after a failed search
	WanderSteps    int  `yaml:"wander_steps"` // idle steps an agent without goal takes
}

// RouteCacheConfig holds settings for the redis route cache.
type RouteCacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Prefix  string        `yaml:"prefix"`
	TTL     time.Duration `yaml:"ttl"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() {
	// Set defaults if not provided
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.TickRate == 0 {
		cfg.Server.TickRate = 20
	}
	if cfg.JWT.PublicKeyRefreshHrs == 0 {
		cfg.JWT.PublicKeyRefreshHrs = 24
	}
	if cfg.Redis.BlacklistPrefix == "" {
		cfg.Redis.BlacklistPrefix = "jwt:blacklist:"
	}
	if cfg.Session.MaxPlayers == 0 {
		cfg.Session.MaxPlayers = 100
	}
	if cfg.Session.MaxAgents == 0 {
		cfg.Session.MaxAgents = 500
	}
	if len(cfg.World.Layout) == 0 {
		if cfg.World.Width == 0 {
			cfg.World.Width = 64
		}
		if cfg.World.Height == 0 {
			cfg.World.Height = 64
		}
	}
	if cfg.Pathfinding.HumanMaxLength == 0 {
		cfg.Pathfinding.HumanMaxLength = 60
	}
	if cfg.Pathfinding.ShipMaxLength == 0 {
		cfg.Pathfinding.ShipMaxLength = 600
	}
	if cfg.Pathfinding.RoadMaxLength == 0 {
		cfg.Pathfinding.RoadMaxLength = 24
	}
	if cfg.Pathfinding.RetryFrames == 0 {
		cfg.Pathfinding.RetryFrames = 20
	}
	if cfg.Pathfinding.WanderSteps == 0 {
		cfg.Pathfinding.WanderSteps = 3
	}
	if cfg.RouteCache.Prefix == "" {
		cfg.RouteCache.Prefix = "route:"
	}
	if cfg.RouteCache.TTL == 0 {
		cfg.RouteCache.TTL = 10 * time.Minute
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// Validate rejects configurations the server cannot run with.
func (cfg *Config) Validate() error {
	if cfg.Server.TickRate < 0 || cfg.Server.TickRate > 1000 {
		return fmt.Errorf("invalid tick_rate %d", cfg.Server.TickRate)
	}
	if len(cfg.World.Layout) == 0 && (cfg.World.Width <= 0 || cfg.World.Height <= 0) {
		return fmt.Errorf("invalid world size %dx%d", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Pathfinding.HumanMaxLength < 0 || cfg.Pathfinding.ShipMaxLength < 0 || cfg.Pathfinding.RoadMaxLength < 0 {
		return fmt.Errorf("search bounds must not be negative")
	}
	return nil
}
