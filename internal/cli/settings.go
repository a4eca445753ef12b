package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mfedotov/wortschatz/internal/model"
	"github.com/mfedotov/wortschatz/internal/router"
)

var (
	setServerURL string
	setAPIKey    string
	setAutoSync  string
	setInterval  int
	setMaxWords  int
)

// settingsCmd represents the settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change sync settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update settings fields",
	Long: `Set updates only the fields whose flags are given; everything else
keeps its current value. The API key is stored as-is and never printed.

Example:
  wortschatz settings set --server-url https://words.example.de --api-key SECRET
  wortschatz settings set --auto-sync on --interval-ms 300000`,
	RunE: runSettingsSet,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	settingsSetCmd.Flags().StringVar(&setServerURL, "server-url", "", "word server base URL (http or https)")
	settingsSetCmd.Flags().StringVar(&setAPIKey, "api-key", "", "API key for the word server")
	settingsSetCmd.Flags().StringVar(&setAutoSync, "auto-sync", "", "enable periodic sync: on or off")
	settingsSetCmd.Flags().IntVar(&setInterval, "interval-ms", 0, "autosync interval in milliseconds (min 60000)")
	settingsSetCmd.Flags().IntVar(&setMaxWords, "max-words", 0, "collection cap; oldest words are evicted beyond it")
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	settings, err := app.store.Settings(ctx)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(settings.Redacted())
	if err != nil {
		return fmt.Errorf("error marshaling settings: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var p router.SettingsPayload
	if cmd.Flags().Changed("server-url") {
		p.ServerURL = &setServerURL
	}
	if cmd.Flags().Changed("api-key") {
		p.APIKey = &setAPIKey
	}
	if cmd.Flags().Changed("auto-sync") {
		enabled := setAutoSync == "on" || setAutoSync == "true"
		p.AutoSyncEnabled = &enabled
	}
	if cmd.Flags().Changed("interval-ms") {
		p.SyncIntervalMs = &setInterval
	}
	if cmd.Flags().Changed("max-words") {
		p.MaxWords = &setMaxWords
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}

	resp := app.router.Handle(ctx, router.Message{Type: router.TypeUpdateSettings, Payload: payload})
	if !resp.Success {
		return fmt.Errorf("update failed: %s", resp.Error)
	}

	saved := resp.Data.(model.Settings)
	out, err := yaml.Marshal(saved)
	if err != nil {
		return err
	}
	fmt.Println("✓ Settings updated:")
	fmt.Print(string(out))
	return nil
}
