package main

import (
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/gravity-duel/internal/core"
	"github.com/vovakirdan/gravity-duel/internal/game"
	"github.com/vovakirdan/gravity-duel/internal/platform/tui"
)

var (
	flagAngle   float64
	flagPower   int
	flagShooter int
	flagWatch   bool
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Simulate one shot",
	Long: `Simulate a single shot on a generated level and print its outcome.

The result is what every client computes for the same seed, level and shot
parameters. With --watch the flight is animated in the terminal.

Examples:
  duel sim --seed 42424242 --level 1 --angle 0 --power 50
  duel sim --seed 7 --level 3 --angle -35.5 --power 80 --shooter 2 --watch
  duel sim --seed 42424242 --angle 0 --power 50 --json`,
	Run: runSim,
}

func init() {
	simCmd.Flags().Int32Var(&flagSeed, "seed", 42424242, "Room seed")
	simCmd.Flags().IntVar(&flagLevel, "level", 1, "Level number (>= 1)")
	simCmd.Flags().Float64Var(&flagAngle, "angle", 0, "Firing angle in degrees, [-180, 180]")
	simCmd.Flags().IntVar(&flagPower, "power", 50, "Firing power, [20, 100]")
	simCmd.Flags().IntVar(&flagShooter, "shooter", 1, "Firing player, 1 or 2")
	simCmd.Flags().BoolVar(&flagWatch, "watch", false, "Animate the flight")
	simCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the result, trail included, as JSON")
}

func runSim(_ *cobra.Command, _ []string) {
	gameCfg := loadGame()
	params := gameCfg.Params()

	lvl, err := game.GenerateLevel(flagSeed, flagLevel, gameCfg.LevelParams())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	req := game.ShotRequest{Angle: flagAngle, Power: flagPower, Shooter: core.PlayerID(flagShooter)}

	if flagWatch {
		model := tui.NewReplayModel(lvl, req, params, runtimeConfig())
		final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running replay: %v\n", err)
			os.Exit(1)
		}
		if replay, ok := final.(tui.ReplayModel); ok {
			if res, done := replay.Result(); done {
				printShot(lvl, req, res)
			}
		}
		return
	}

	res, err := game.SimulateShot(lvl.Planets, req, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	printShot(lvl, req, res)
}

func printShot(lvl game.Level, req game.ShotRequest, res game.ShotResult) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Seed %d, level %d: P%d fires at %g° with power %d",
		lvl.Seed, lvl.Number, req.Shooter, req.Angle, req.Power)))

	struck := "-"
	if idx, ok := res.HitPlanet(); ok {
		struck = fmt.Sprint(idx)
	}
	last := res.Trail[len(res.Trail)-1]
	fmt.Println(renderTable(
		[]string{"Result", "Hit", "Planet", "Steps", "Trail", "Final point"},
		[][]string{{
			string(res.HitWhat),
			fmt.Sprint(res.Hit),
			struck,
			fmt.Sprint(res.Steps),
			fmt.Sprint(len(res.Trail)),
			fmt.Sprintf("(%.4f, %.4f)", last.X, last.Y),
		}},
	))
}
