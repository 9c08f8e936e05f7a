package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/gravity-duel/internal/core"
	"github.com/vovakirdan/gravity-duel/internal/multiplayer"
	"github.com/vovakirdan/gravity-duel/internal/platform/tui"
	"github.com/vovakirdan/gravity-duel/internal/platform/ws"
)

var (
	flagServer string
	flagCreate bool
	flagJoin   string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a room on a duel server",
	Long: `Play in the terminal against a duel server over WebSocket.

Without --create or --join a menu lets you pick. Shots animate locally with
the same engine as every other client; the firer's client reports the result.

Controls:
  Left/Right   - Aim (hold Shift for 10° steps)
  Up/Down      - Power (hold Shift for 5% steps)
  Space/Enter  - Fire
  ?            - Toggle full help
  Q/Ctrl+C     - Quit

Examples:
  duel play --server localhost:8787
  duel play --server localhost:8787 --create
  duel play --server https://duel.example.com --join K7QX2M`,
	Run: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagServer, "server", "localhost:8787", "Server address or URL")
	playCmd.Flags().BoolVar(&flagCreate, "create", false, "Create a room right away")
	playCmd.Flags().StringVar(&flagJoin, "join", "", "Join the room with this code")
}

func runPlay(_ *cobra.Command, _ []string) {
	if flagCreate && flagJoin != "" {
		fmt.Fprintln(os.Stderr, "Error: --create and --join are mutually exclusive")
		os.Exit(1)
	}

	// The alt screen owns the terminal; only errors are worth logging.
	logger := log.New(io.Discard)
	if flagLogLevel == "debug" {
		logger = newLogger()
	}

	client, err := ws.NewClient(flagServer, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	gameCfg := loadGame()
	model := tui.NewDuelModel(client, tui.DuelOptions{
		Runtime:     runtimeConfig(),
		Params:      gameCfg.Params(),
		LevelParams: gameCfg.LevelParams(),
		Create:      flagCreate,
		JoinCode:    multiplayer.RoomID(flagJoin),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running game: %v\n", err)
		os.Exit(1)
	}
}

// runtimeConfig sizes the screen from the controlling terminal.
func runtimeConfig() core.RuntimeConfig {
	cfg := core.DefaultConfig()
	cfg.TickRate = flagFPS
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		cfg.ScreenW, cfg.ScreenH = w, h
	}
	return cfg
}
