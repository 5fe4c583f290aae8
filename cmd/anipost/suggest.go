package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/otakuflix/anipost/internal/catalog"
	"github.com/otakuflix/anipost/internal/config"
	"github.com/otakuflix/anipost/internal/suggest"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <name>",
	Short: "Rank catalog suggestions for a name",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := catalog.NewClient(cfg.CatalogOwner, cfg.CatalogRepo, cfg.CatalogPath, cfg.CatalogTTL)
	cat, err := client.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetching catalog: %w", err)
	}

	if entry, ok := cat.Lookup(args[0]); ok {
		fmt.Printf("exact match: %s (aid %s)\n", entry.Name, entry.AID)
		return nil
	}

	names := suggest.Suggest(args[0], cat.Names(), suggest.DefaultLimit)
	if len(names) == 0 {
		fmt.Println("no suggestions above the similarity threshold")
		return nil
	}
	for i, name := range names {
		fmt.Printf("%d. %s\n", i+1, name)
	}
	return nil
}
