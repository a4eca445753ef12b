package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfedotov/wortschatz/internal/model"
	"github.com/mfedotov/wortschatz/internal/router"
)

var statsUsage bool

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsUsage, "usage", false, "include serialized storage sizes")
}

func runStats(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp := app.router.Handle(ctx, router.Message{Type: router.TypeGetStats})
	if !resp.Success {
		return fmt.Errorf("stats failed: %s", resp.Error)
	}

	stats := resp.Data.(model.Stats)
	fmt.Printf("Total words:   %d\n", stats.TotalWords)
	fmt.Printf("  direct:      %d\n", stats.DirectWords)
	fmt.Printf("  with context: %d\n", stats.ContextWords)
	if stats.LastSync != nil {
		fmt.Printf("Last sync:     %s\n", stats.LastSync.Format(time.RFC3339))
	} else {
		fmt.Printf("Last sync:     never\n")
	}
	fmt.Printf("Sync cycles:   %d\n", stats.SyncCount)

	if !statsUsage {
		return nil
	}

	usageResp := app.router.Handle(ctx, router.Message{Type: router.TypeGetUsage})
	if !usageResp.Success {
		return fmt.Errorf("usage failed: %s", usageResp.Error)
	}
	usage := usageResp.Data.(model.StorageUsage)
	fmt.Printf("\nStorage:       %d bytes (words %d, settings %d)\n",
		usage.TotalBytes, usage.WordsBytes, usage.SettingsBytes)
	return nil
}
