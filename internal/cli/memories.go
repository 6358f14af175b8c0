package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/easeaico/mnemosyne/internal/repository"
	"github.com/easeaico/mnemosyne/internal/types"
)

func init() {
	memories := &cobra.Command{
		Use:   "memories",
		Short: "Inspect and manage stored memories",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List memories for a pair",
		Run:   runMemoriesList,
	}
	list.Flags().String("type", "", "Filter by memory type")
	list.Flags().String("category", "", "Filter by category")
	list.Flags().String("contains", "", "Filter by content substring")
	list.Flags().Bool("include-deleted", false, "Include soft-deleted records")
	list.Flags().IntP("limit", "l", 20, "Max results")
	list.Flags().Int("offset", 0, "Results offset")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Read one memory, deleted records included",
		Args:  cobra.ExactArgs(1),
		Run:   runMemoriesGet,
	}

	edit := &cobra.Command{
		Use:   "edit <id> <content>",
		Short: "Write a new version of a memory, keeping the old one",
		Args:  cobra.ExactArgs(2),
		Run:   runMemoriesEdit,
	}
	edit.Flags().Float64("importance", -1, "New importance, 0 to 1")
	edit.Flags().Float64("confidence", -1, "New confidence, 0 to 1")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft-delete a memory",
		Args:  cobra.ExactArgs(1),
		Run:   runMemoriesDelete,
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Memory counts for a pair",
		Run:   runMemoriesStats,
	}

	memories.AddCommand(list, get, edit, del, stats)
	RootCmd.AddCommand(memories)
}

func runMemoriesList(cmd *cobra.Command, args []string) {
	requirePair()
	memoryType, _ := cmd.Flags().GetString("type")
	category, _ := cmd.Flags().GetString("category")
	contains, _ := cmd.Flags().GetString("contains")
	includeDeleted, _ := cmd.Flags().GetBool("include-deleted")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	e, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeStore()

	memories, err := e.ListMemories(cmd.Context(), pair(), repository.MemoryFilter{
		Type:           types.MemoryType(memoryType),
		Category:       category,
		ContentLike:    contains,
		IncludeDeleted: includeDeleted,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		exitErr("list memories", err)
	}
	printJSON(memories)
}

func runMemoriesGet(cmd *cobra.Command, args []string) {
	requirePair()
	e, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeStore()

	mem, err := e.GetMemory(cmd.Context(), pair(), args[0])
	if err != nil {
		exitErr("get memory", err)
	}
	printJSON(mem)
}

func runMemoriesEdit(cmd *cobra.Command, args []string) {
	requirePair()
	e, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeStore()

	update := repository.EditUpdate{Content: args[1]}
	if importance, _ := cmd.Flags().GetFloat64("importance"); importance >= 0 {
		update.Importance = &importance
	}
	if confidence, _ := cmd.Flags().GetFloat64("confidence"); confidence >= 0 {
		update.Confidence = &confidence
	}

	mem, err := e.EditMemory(cmd.Context(), pair(), args[0], update)
	if err != nil {
		exitErr("edit memory", err)
	}
	printJSON(mem)
}

func runMemoriesDelete(cmd *cobra.Command, args []string) {
	requirePair()
	e, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeStore()

	if err := e.DeleteMemory(cmd.Context(), pair(), args[0]); err != nil {
		exitErr("delete memory", err)
	}
	fmt.Println("deleted", args[0])
}

func runMemoriesStats(cmd *cobra.Command, args []string) {
	requirePair()
	e, closeStore, err := openEngine(cmd.Context())
	if err != nil {
		exitErr("open engine", err)
	}
	defer closeStore()

	stats, err := e.MemoryStats(cmd.Context(), pair())
	if err != nil {
		exitErr("memory stats", err)
	}
	printJSON(stats)
}
