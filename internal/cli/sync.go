package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfedotov/wortschatz/internal/router"
	"github.com/mfedotov/wortschatz/internal/syncer"
)

var (
	testServerURL string
	testAPIKey    string
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push unsynced words to the configured server",
	Long: `Sync sends every unsynced word to the server's add-list endpoint in
one batch. Words are marked synced only after the server acknowledges the
batch; any failure leaves the collection untouched and the batch eligible
for retry.`,
	RunE: runSync,
}

// testConnectionCmd represents the test-connection command
var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Probe the server with the given or stored credentials",
	RunE:  runTestConnection,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(testConnectionCmd)

	testConnectionCmd.Flags().StringVar(&testServerURL, "server-url", "", "server URL to probe (default: stored settings)")
	testConnectionCmd.Flags().StringVar(&testAPIKey, "api-key", "", "API key to probe with (default: stored settings)")
}

func runSync(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	resp := app.router.Handle(ctx, router.Message{Type: router.TypeSyncToServer})
	if !resp.Success {
		return fmt.Errorf("sync failed: %s", resp.Error)
	}

	result := resp.Data.(*syncer.Result)
	fmt.Printf("✓ %s (%d words)\n", result.Message, result.SyncedCount)
	return nil
}

func runTestConnection(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	serverURL, apiKey := testServerURL, testAPIKey
	if serverURL == "" || apiKey == "" {
		settings, err := app.store.Settings(ctx)
		if err != nil {
			return err
		}
		if serverURL == "" {
			serverURL = settings.ServerURL
		}
		if apiKey == "" {
			apiKey = settings.APIKey
		}
	}

	payload, err := json.Marshal(router.TestConnectionPayload{ServerURL: serverURL, APIKey: apiKey})
	if err != nil {
		return err
	}

	resp := app.router.Handle(ctx, router.Message{Type: router.TypeTestConnection, Payload: payload})
	result := resp.Data.(*syncer.Result)
	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}
	fmt.Printf("✓ %s\n", result.Message)
	return nil
}
