package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	relationship := &cobra.Command{
		Use:   "relationship",
		Short: "Inspect relationship state",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the relationship snapshot for a pair",
		Run:   runRelationshipShow,
	}

	state := &cobra.Command{
		Use:   "state",
		Short: "Show the character's mood state for a pair",
		Run:   runRelationshipState,
	}

	leaderboard := &cobra.Command{
		Use:   "leaderboard",
		Short: "Top relationships for a character",
		Run:   runLeaderboard,
	}
	leaderboard.Flags().IntP("limit", "l", 10, "Max entries")

	relationship.AddCommand(show, state, leaderboard)
	RootCmd.AddCommand(relationship)
}

func runRelationshipShow(cmd *cobra.Command, args []string) {
	requirePair()
	e, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeStore()

	snapshot, err := e.Relationship(cmd.Context(), pair())
	if err != nil {
		exitErr("get relationship", err)
	}
	printJSON(snapshot)
}

func runRelationshipState(cmd *cobra.Command, args []string) {
	requirePair()
	e, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeStore()

	state, err := e.CharacterState(cmd.Context(), pair())
	if err != nil {
		exitErr("get character state", err)
	}
	printJSON(state)
}

func runLeaderboard(cmd *cobra.Command, args []string) {
	if characterID == "" {
		fmt.Fprintln(os.Stderr, "error: --character is required")
		os.Exit(1)
	}
	limit, _ := cmd.Flags().GetInt("limit")

	e, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeStore()

	board, err := e.Leaderboard(cmd.Context(), characterID, limit)
	if err != nil {
		exitErr("leaderboard", err)
	}
	printJSON(board)
}
