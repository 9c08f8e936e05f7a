package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/gravity-duel/internal/core"
	"github.com/vovakirdan/gravity-duel/internal/multiplayer"
	"github.com/vovakirdan/gravity-duel/internal/storage"
)

var (
	flagArchived bool
	flagLimit    int
)

var historyCmd = &cobra.Command{
	Use:   "history [room]",
	Short: "Show the shot log of a room or archived matches",
	Long: `Show every shot reported in a room, in order, or with --archived the
final score lines of evicted rooms.

Examples:
  duel history K7QX2M
  duel history --archived
  duel history --archived --limit 50`,
	Args: cobra.MaximumNArgs(1),
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&flagArchived, "archived", false, "List archived matches instead of a shot log")
	historyCmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum archived matches to show")
}

func runHistory(_ *cobra.Command, args []string) {
	if !flagArchived && len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: a room code is required unless --archived is given")
		os.Exit(1)
	}

	store, err := storage.Open(dbPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if flagArchived {
		err = printArchive(ctx, store)
	} else {
		err = printShotLog(ctx, store, multiplayer.NormalizeRoomID(args[0]))
	}
	if err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printShotLog(ctx context.Context, store *storage.Store, id multiplayer.RoomID) error {
	rec, err := store.LoadRoom(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("room %s not found", id)
	}
	shots, err := store.ShotLog(ctx, id)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Room %s (seed %d): level %d, score %d : %d",
		rec.ID, rec.Seed, rec.Level, rec.Scores[0], rec.Scores[1])))
	if len(shots) == 0 {
		fmt.Println("No shots reported yet.")
		return nil
	}

	rows := make([][]string, 0, len(shots))
	for _, s := range shots {
		rows = append(rows, []string{
			fmt.Sprint(s.Seq),
			fmt.Sprintf("P%d", s.Player),
			fmt.Sprint(s.Level),
			fmt.Sprintf("%g", s.Angle),
			fmt.Sprint(s.Power),
			string(s.HitWhat),
			s.At.Local().Format(dateLayout),
		})
	}
	fmt.Println(renderTable([]string{"#", "Player", "Level", "Angle", "Power", "Result", "At"}, rows))
	return nil
}

func printArchive(ctx context.Context, store *storage.Store) error {
	matches, err := store.RecentMatches(ctx, flagLimit)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Println("No archived matches.")
		return nil
	}

	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		winner := "draw"
		if m.Winner != core.NoPlayer {
			winner = fmt.Sprintf("P%d", m.Winner)
		}
		rows = append(rows, []string{
			string(m.RoomID),
			fmt.Sprint(m.Seed),
			fmt.Sprint(m.Level),
			fmt.Sprintf("%d : %d", m.Scores[0], m.Scores[1]),
			winner,
			fmt.Sprint(m.Shots),
			m.EndedAt.Local().Format(dateLayout),
		})
	}
	fmt.Println(renderTable([]string{"Room", "Seed", "Level", "Score", "Winner", "Shots", "Ended"}, rows))
	return nil
}
