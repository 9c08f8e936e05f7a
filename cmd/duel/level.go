package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/gravity-duel/internal/core"
	"github.com/vovakirdan/gravity-duel/internal/game"
	"github.com/vovakirdan/gravity-duel/internal/platform/tui"
)

var (
	flagSeed  int32
	flagLevel int
	flagShow  bool
	flagJSON  bool
)

var levelCmd = &cobra.Command{
	Use:   "level",
	Short: "Print the planet layout of a seed and level",
	Long: `Generate a level exactly as every client does and print its planets.

The same seed and level always produce the same layout, on every machine.

Examples:
  duel level --seed 42424242 --level 1
  duel level --seed 42424242 --level 7 --show
  duel level --seed 42424242 --level 2 --json`,
	Run: runLevel,
}

func init() {
	levelCmd.Flags().Int32Var(&flagSeed, "seed", 42424242, "Room seed")
	levelCmd.Flags().IntVar(&flagLevel, "level", 1, "Level number (>= 1)")
	levelCmd.Flags().BoolVar(&flagShow, "show", false, "Also draw the field")
	levelCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the layout as JSON")
}

func runLevel(_ *cobra.Command, _ []string) {
	gameCfg := loadGame()
	lvl, err := game.GenerateLevel(flagSeed, flagLevel, gameCfg.LevelParams())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(lvl); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Seed %d, level %d: %d planets (%d neutral)",
		lvl.Seed, lvl.Number, len(lvl.Planets), len(lvl.Neutrals()))))
	fmt.Println(renderTable(
		[]string{"#", "Owner", "X", "Y", "Radius", "Mass", "Color"},
		planetRows(lvl.Planets),
	))

	if flagShow {
		cfg := runtimeConfig()
		view := tui.NewFieldView(gameCfg.Params(), cfg.ScreenW, cfg.ScreenH-2)
		fmt.Println(tui.RenderScreen(view.Draw(lvl, tui.Overlay{})))
	}
}

func planetRows(planets []game.Planet) [][]string {
	rows := make([][]string, 0, len(planets))
	for i, p := range planets {
		owner := "neutral"
		if p.Owner != core.NoPlayer {
			owner = fmt.Sprintf("P%d", p.Owner)
		}
		rows = append(rows, []string{
			fmt.Sprint(i),
			owner,
			fmt.Sprintf("%.2f", p.X),
			fmt.Sprintf("%.2f", p.Y),
			fmt.Sprintf("%.2f", p.Radius),
			fmt.Sprintf("%.2f", p.Mass),
			p.Color,
		})
	}
	return rows
}
