package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mfedotov/wortschatz/internal/router"
	"github.com/mfedotov/wortschatz/internal/syncer"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background process: message loop plus autosync",
	Long: `Serve is the long-running host the capture UIs talk to. It reads one
JSON message per line on stdin and writes one JSON response per line on
stdout, while the autosync scheduler runs on the persisted interval in
the background. Mutation events are logged as they happen.

Message format: {"type":"collectWord","payload":{"text":"Hund"}}`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Autosync in the background, re-armed on settings changes.
	scheduler := syncer.NewScheduler(app.engine, app.store, app.log)
	go scheduler.Run(ctx)

	// Mutation notifications; stands in for badge/notification painting.
	events, cancelEvents := app.store.Subscribe(32)
	defer cancelEvents()
	go func() {
		for ev := range events {
			app.log.Info("store event",
				zap.String("kind", string(ev.Kind)),
				zap.Int("total_words", ev.Stats.TotalWords))
		}
	}()

	app.log.Info("serving", zap.String("data_dir", app.cfg.Storage.Dir))

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	encoder := json.NewEncoder(os.Stdout)
	for {
		select {
		case <-ctx.Done():
			app.log.Info("shutting down")
			return nil
		case line, ok := <-lines:
			if !ok {
				app.log.Info("stdin closed, shutting down")
				return nil
			}
			if line == "" {
				continue
			}

			var msg router.Message
			if err := json.Unmarshal([]byte(line), &msg); err != nil {
				_ = encoder.Encode(router.Response{Success: false, Error: "malformed message"})
				continue
			}

			resp := app.router.Handle(ctx, msg)
			if err := encoder.Encode(resp); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
		}
	}
}
