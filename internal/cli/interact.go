package cli

import (
	"github.com/spf13/cobra"

	"github.com/easeaico/mnemosyne/internal/engine"
)

func init() {
	cmd := &cobra.Command{
		Use:   "interact <message>",
		Short: "Process one conversation turn",
		Args:  cobra.ExactArgs(1),
		Run:   runInteract,
	}
	cmd.Flags().StringP("response", "r", "", "Agent response for this turn")
	RootCmd.AddCommand(cmd)
}

func runInteract(cmd *cobra.Command, args []string) {
	requirePair()
	response, _ := cmd.Flags().GetString("response")

	e, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeStore()

	result, err := e.ProcessInteraction(cmd.Context(), engine.Input{
		CharacterID:   characterID,
		UserID:        userID,
		UserMessage:   args[0],
		AgentResponse: response,
	})
	if err != nil {
		exitErr("process interaction", err)
	}
	printJSON(result)
}
