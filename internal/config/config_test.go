package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.TickRate)
	assert.Equal(t, 64, cfg.World.Width)
	assert.Equal(t, 60, cfg.Pathfinding.HumanMaxLength)
	assert.Equal(t, 600, cfg.Pathfinding.ShipMaxLength)
	assert.Equal(t, 24, cfg.Pathfinding.RoadMaxLength)
	assert.Equal(t, "route:", cfg.RouteCache.Prefix)
	assert.Equal(t, 10*time.Minute, cfg.RouteCache.TTL)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
world:
  wrap: true
  layout:
    - ". . ~ ~"
    - ". T ~ ~"
pathfinding:
  strict_checks: true
  debug_level: 2
route_cache:
  enabled: true
  ttl: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.World.Wrap)
	assert.Len(t, cfg.World.Layout, 2)
	assert.Zero(t, cfg.World.Width, "layout defines the size")
	assert.True(t, cfg.Pathfinding.StrictChecks)
	assert.Equal(t, 2, cfg.Pathfinding.DebugLevel)
	assert.Equal(t, 30*time.Second, cfg.RouteCache.TTL)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("server: ["))
	assert.Error(t, err)

	_, err = Parse([]byte("world:\n  width: -3\n"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.Session.MaxPlayers)
}
