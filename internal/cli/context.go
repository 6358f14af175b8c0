package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	contextCmd := &cobra.Command{
		Use:   "context <query>",
		Short: "Assemble the memory context for a query",
		Args:  cobra.MinimumNArgs(1),
		Run:   runContext,
	}
	contextCmd.Flags().Bool("json", false, "Print structured entries instead of rendered text")
	RootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) {
	requirePair()
	e, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeStore()

	query := strings.Join(args, " ")
	block, err := e.RetrieveContext(cmd.Context(), pair(), query)
	if err != nil {
		exitErr("retrieve context", err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		printJSON(block)
		return
	}
	fmt.Println(block.Text)
}
