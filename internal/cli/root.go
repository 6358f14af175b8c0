// Package cli implements the mnemo CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/easeaico/mnemosyne/internal/config"
	"github.com/easeaico/mnemosyne/internal/embed"
	"github.com/easeaico/mnemosyne/internal/emotion"
	"github.com/easeaico/mnemosyne/internal/engine"
	"github.com/easeaico/mnemosyne/internal/repository"
	"github.com/easeaico/mnemosyne/internal/types"
)

var (
	configPath  string
	characterID string
	userID      string
	verbose     bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "mnemo",
	Short: "Memory and relationship engine for persona chat",
	Long:  "mnemo stores per-pair memories, tracks relationship state and assembles bounded context blocks for persona chat agents.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ./mnemo.yaml, env MNEMO_*)")
	RootCmd.PersistentFlags().StringVarP(&characterID, "character", "c", "", "Character id")
	RootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "User id")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func pair() types.Pair {
	return types.Pair{CharacterID: characterID, UserID: userID}
}

func requirePair() {
	if characterID == "" || userID == "" {
		fmt.Fprintln(os.Stderr, "error: --character and --user are required")
		os.Exit(1)
	}
}

// openEngine loads config and wires a full engine. The returned close
// function releases the store.
func openEngine(ctx context.Context) (*engine.Engine, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := repository.NewStore(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	embedder, err := embed.New(ctx, cfg.Embedding)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return engine.New(cfg, store, emotion.New(), embedder), store.Close, nil
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
