package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/gravity-duel/internal/storage"
)

const dateLayout = "2006-01-02 15:04"

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List persisted rooms",
	Long: `List the rooms stored in the database, most recently active first.

Examples:
  duel rooms
  duel rooms --db ./duel.db`,
	Args: cobra.NoArgs,
	Run:  runRooms,
}

func runRooms(_ *cobra.Command, _ []string) {
	store, err := storage.Open(dbPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	rooms, err := store.ListRooms(context.Background())
	if err != nil {
		store.Close()
		fmt.Fprintf(os.Stderr, "Error listing rooms: %v\n", err)
		os.Exit(1)
	}

	if len(rooms) == 0 {
		fmt.Println("No rooms stored.")
		fmt.Println()
		fmt.Println("Start a server with 'duel serve' and create one.")
		return
	}

	rows := make([][]string, 0, len(rooms))
	for _, r := range rooms {
		pending := "-"
		if r.Pending != nil {
			pending = fmt.Sprintf("P%d %g°/%d", r.Pending.Player, r.Pending.Angle, r.Pending.Power)
		}
		rows = append(rows, []string{
			string(r.ID),
			string(r.Status),
			fmt.Sprint(r.Level),
			fmt.Sprintf("%d : %d", r.Scores[0], r.Scores[1]),
			fmt.Sprintf("P%d", r.Turn),
			fmt.Sprint(r.ShotCount),
			pending,
			r.UpdatedAt.Local().Format(dateLayout),
		})
	}
	fmt.Println(renderTable(
		[]string{"Room", "Status", "Level", "Score", "Turn", "Shots", "Pending", "Updated"},
		rows,
	))
}
