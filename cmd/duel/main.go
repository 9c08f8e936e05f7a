// duel is a two-player artillery duel on a toroidal field with gravity.
//
// Usage:
//
//	duel serve               - Start the room server (HTTP/WebSocket, optional SSH)
//	duel play                - Play a room on a remote server in the terminal
//	duel level               - Print the planet layout of a seed and level
//	duel sim                 - Simulate one shot, optionally animated
//	duel rooms               - List persisted rooms
//	duel history <room>      - Show the shot log of a room
//
// Global flags:
//
//	--game-config <path>  - Game constants YAML (default: embedded)
//	--db <path>           - Database path (default: ~/.duel/duel.db)
//	--log-level <level>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/gravity-duel/internal/config"
)

var (
	// Global flags
	flagGameConfig string
	flagDBPath     string
	flagLogLevel   string
	flagFPS        int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "duel",
	Short: "Gravity Duel - artillery across a wrapping field of planets",
	Long: `Gravity Duel is a two-player artillery game. Each player owns a planet
and takes turns firing a missile whose path bends around the gravity of every
planet on a field that wraps at its edges. Hitting the opponent scores a point
and moves both players to a freshly generated level.

Available commands:
  serve    - Start the room server
  play     - Play in the terminal against a remote server
  level    - Inspect a generated level
  sim      - Simulate a single shot
  rooms    - List persisted rooms
  history  - Show shot logs and archived matches

Examples:
  duel serve --ssh :23234
  duel play --server localhost:8787 --create
  duel level --seed 42424242 --level 1
  duel sim --seed 42424242 --angle 0 --power 50 --watch`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagGameConfig, "game-config", "", "Path to custom game config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the SQLite database (default from server config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Animation frames per second")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(levelCmd)
	rootCmd.AddCommand(simCmd)
	rootCmd.AddCommand(roomsCmd)
	rootCmd.AddCommand(historyCmd)
}

// newLogger builds the root logger. Components derive children from it.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "duel",
	})
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", flagLogLevel)
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// loadGame loads the game constants or exits.
func loadGame() config.GameConfig {
	cfg, err := config.LoadGame(flagGameConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading game config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// dbPath resolves the database path: --db, then the server config.
func dbPath() string {
	if flagDBPath != "" {
		return config.ExpandHome(flagDBPath)
	}
	cfg, err := config.LoadServer("")
	if err != nil {
		return config.ExpandHome(config.DefaultServerConfig().Storage.Path)
	}
	return config.ExpandHome(cfg.Storage.Path)
}
