package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfedotov/wortschatz/internal/router"
)

var (
	collectContext string
	collectURL     string
	collectTitle   string
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect <text>",
	Short: "Capture a word or phrase into the collection",
	Long: `Collect captures a word or phrase the way the browser capture path
does: the selection is stored unsynced, and when surrounding text is
supplied via --context, the containing sentence is derived and attached.

Example:
  wortschatz collect "Hund"
  wortschatz collect "Hund" --context "Der große Hund rennt schnell. Tschüss." --url https://example.de`,
	Args: cobra.ExactArgs(1),
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectContext, "context", "", "surrounding page text for sentence extraction")
	collectCmd.Flags().StringVar(&collectURL, "url", "", "source page URL")
	collectCmd.Flags().StringVar(&collectTitle, "title", "", "source page title")
}

func runCollect(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msgType := router.TypeCollectWord
	if strings.TrimSpace(collectContext) != "" {
		msgType = router.TypeCollectWithContext
	}

	payload, err := json.Marshal(router.CollectPayload{
		Text:    args[0],
		Context: collectContext,
		URL:     collectURL,
		Title:   collectTitle,
	})
	if err != nil {
		return err
	}

	resp := app.router.Handle(ctx, router.Message{Type: msgType, Payload: payload})
	if !resp.Success {
		return fmt.Errorf("collect failed: %s", resp.Error)
	}

	collected := resp.Data.(router.CollectedWord)
	fmt.Printf("✓ Collected %q", collected.Word.Text)
	if collected.Word.Context != "" {
		fmt.Printf(" with context %q", collected.Word.Context)
	}
	fmt.Println()

	if app.cfg.Output.Verbose && len(collected.Tokens) > 0 {
		fmt.Fprintf(os.Stderr, "Learnable tokens: %s\n", strings.Join(collected.Tokens, ", "))
	}
	return nil
}
