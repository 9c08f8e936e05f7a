// Package config provides YAML-based configuration loading for the duel
// engine and server, with environment overrides for deployment settings.
package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/gravity-duel/internal/game"
	"github.com/vovakirdan/gravity-duel/internal/multiplayer"
)

// GameConfig contains the simulation and level generation constants. Every
// client of a match must run with the same values.
type GameConfig struct {
	Field   game.Field    `yaml:"field"`
	Physics PhysicsConfig `yaml:"physics"`
	Shot    ShotConfig    `yaml:"shot"`
	Level   LevelConfig   `yaml:"level"`
}

// PhysicsConfig defines the integrator constants.
type PhysicsConfig struct {
	G            float64 `yaml:"g"`
	MissileSpeed float64 `yaml:"missile_speed"`
	DT           float64 `yaml:"dt"`
	MinGravDist  float64 `yaml:"min_grav_dist"`
	HitMargin    float64 `yaml:"hit_margin"`
	Substeps     int     `yaml:"substeps"`
	MaxSteps     int     `yaml:"max_steps"`
	MaxTrail     int     `yaml:"max_trail"`
}

// ShotConfig defines how a shot leaves the cannon.
type ShotConfig struct {
	CannonOffset float64 `yaml:"cannon_offset"`
	MinPower     int     `yaml:"min_power"`
	MaxPower     int     `yaml:"max_power"`
}

// LevelConfig defines procedural level generation.
type LevelConfig struct {
	SeedStride     int32     `yaml:"seed_stride"`
	MinSpacing     float64   `yaml:"min_spacing"`
	PlayerRadius   game.Span `yaml:"player_radius"`
	PlayerMass     game.Span `yaml:"player_mass"`
	NeutralRadius  game.Span `yaml:"neutral_radius"`
	NeutralMass    game.Span `yaml:"neutral_mass"`
	PlayerInset    game.Span `yaml:"player_inset"`
	PlayerMarginY  float64   `yaml:"player_margin_y"`
	NeutralBase    int       `yaml:"neutral_base"`
	NeutralCap     int       `yaml:"neutral_cap"`
	P2Attempts     int       `yaml:"p2_attempts"`
	NeutralTries   int       `yaml:"neutral_tries"`
	CorridorChance float64   `yaml:"corridor_chance"` // roll below this places along the P1-P2 corridor
	EdgeChance     float64   `yaml:"edge_chance"`     // cumulative; roll below this hugs a field edge
}

// Params converts the configuration into physics parameters.
func (c GameConfig) Params() game.Params {
	return game.Params{
		Field:        c.Field,
		G:            c.Physics.G,
		MissileSpeed: c.Physics.MissileSpeed,
		DT:           c.Physics.DT,
		MinGravDist:  c.Physics.MinGravDist,
		HitMargin:    c.Physics.HitMargin,
		CannonOffset: c.Shot.CannonOffset,
		Substeps:     c.Physics.Substeps,
		MaxSteps:     c.Physics.MaxSteps,
		MaxTrail:     c.Physics.MaxTrail,
		MinPower:     c.Shot.MinPower,
		MaxPower:     c.Shot.MaxPower,
	}
}

// LevelParams converts the configuration into level generation parameters.
func (c GameConfig) LevelParams() game.LevelParams {
	l := c.Level
	return game.LevelParams{
		Field:          c.Field,
		SeedStride:     l.SeedStride,
		MinSpacing:     l.MinSpacing,
		PlayerRadius:   l.PlayerRadius,
		PlayerMass:     l.PlayerMass,
		NeutralRadius:  l.NeutralRadius,
		NeutralMass:    l.NeutralMass,
		PlayerInset:    l.PlayerInset,
		PlayerMarginY:  l.PlayerMarginY,
		NeutralBase:    l.NeutralBase,
		NeutralCap:     l.NeutralCap,
		P2Attempts:     l.P2Attempts,
		NeutralTries:   l.NeutralTries,
		CorridorChance: l.CorridorChance,
		EdgeChance:     l.EdgeChance,
	}
}

// Validate checks both parameter sets.
func (c GameConfig) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.LevelParams().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ServerConfig contains deployment settings for `duel serve`.
type ServerConfig struct {
	HTTP    HTTPConfig    `yaml:"http"`
	SSH     SSHConfig     `yaml:"ssh"`
	Storage StorageConfig `yaml:"storage"`
	Rooms   RoomsConfig   `yaml:"rooms"`
}

// HTTPConfig defines the WebSocket/HTTP listener.
type HTTPConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"` // "*" allows any origin
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
}

// SSHConfig defines the optional Wish listener.
type SSHConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Addr        string `yaml:"addr"`
	HostKeyPath string `yaml:"host_key_path"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// RoomsConfig tunes the room manager.
type RoomsConfig struct {
	EvictAfter     time.Duration `yaml:"evict_after"`
	HistoryWindow  int           `yaml:"history_window"`
	InboxSize      int           `yaml:"inbox_size"`
	SessionBuffer  int           `yaml:"session_buffer"`
	PersistTimeout time.Duration `yaml:"persist_timeout"`
}

// ManagerConfig builds the room manager configuration.
func (c ServerConfig) ManagerConfig(p game.Params) multiplayer.ManagerConfig {
	return multiplayer.ManagerConfig{
		EvictAfter:     c.Rooms.EvictAfter,
		HistoryWindow:  c.Rooms.HistoryWindow,
		InboxSize:      c.Rooms.InboxSize,
		PersistTimeout: c.Rooms.PersistTimeout,
		Params:         p,
	}
}

// Validate checks the server settings.
func (c ServerConfig) Validate() error {
	switch {
	case c.HTTP.Addr == "":
		return fmt.Errorf("config: http.addr is required")
	case c.SSH.Enabled && c.SSH.Addr == "":
		return fmt.Errorf("config: ssh.addr is required when ssh is enabled")
	case c.Storage.Path == "":
		return fmt.Errorf("config: storage.path is required")
	case c.Rooms.EvictAfter <= 0:
		return fmt.Errorf("config: rooms.evict_after must be positive, got %s", c.Rooms.EvictAfter)
	case c.Rooms.HistoryWindow < 1:
		return fmt.Errorf("config: rooms.history_window must be at least 1")
	}
	return nil
}
