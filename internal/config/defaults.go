package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/gravity-duel/internal/game"
)

//go:embed defaults/game.yaml
var defaultGameYAML []byte

//go:embed defaults/server.yaml
var defaultServerYAML []byte

// DefaultGameConfig returns the canonical game configuration.
func DefaultGameConfig() GameConfig {
	p := game.DefaultParams()
	l := game.DefaultLevelParams()
	return GameConfig{
		Field: p.Field,
		Physics: PhysicsConfig{
			G:            p.G,
			MissileSpeed: p.MissileSpeed,
			DT:           p.DT,
			MinGravDist:  p.MinGravDist,
			HitMargin:    p.HitMargin,
			Substeps:     p.Substeps,
			MaxSteps:     p.MaxSteps,
			MaxTrail:     p.MaxTrail,
		},
		Shot: ShotConfig{
			CannonOffset: p.CannonOffset,
			MinPower:     p.MinPower,
			MaxPower:     p.MaxPower,
		},
		Level: LevelConfig{
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
		},
	}
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTP: HTTPConfig{
			Addr:           ":8787",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    60 * time.Second,
			PingInterval:   25 * time.Second,
		},
		SSH: SSHConfig{
			Enabled:     false,
			Addr:        ":23234",
			HostKeyPath: "~/.duel/ssh_host_ed25519",
		},
		Storage: StorageConfig{
			Path: "~/.duel/duel.db",
		},
		Rooms: RoomsConfig{
			EvictAfter:     time.Hour,
			HistoryWindow:  8,
			InboxSize:      64,
			SessionBuffer:  64,
			PersistTimeout: 5 * time.Second,
		},
	}
}
