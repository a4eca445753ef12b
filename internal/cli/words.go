package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfedotov/wortschatz/internal/model"
	"github.com/mfedotov/wortschatz/internal/router"
)

var (
	wordsLimit  int
	wordsSearch string
	deleteID    string
	clearYes    bool
)

// wordsCmd represents the words command
var wordsCmd = &cobra.Command{
	Use:   "words",
	Short: "List collected words, newest first",
	RunE:  runWords,
}

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <word-id>",
	Short: "Delete one word by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every word in the collection",
	Long:  `Clear empties the collection. Settings and sync history survive.`,
	RunE:  runClear,
}

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove old synced words",
	Long: `Cleanup removes words that were confirmed synced and are older than
the retention window. Unsynced words are never removed, whatever their age.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(wordsCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(cleanupCmd)

	wordsCmd.Flags().IntVar(&wordsLimit, "limit", 0, "maximum number of words to list (0 = all)")
	wordsCmd.Flags().StringVar(&wordsSearch, "search", "", "case-insensitive substring filter on text and context")
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "skip the confirmation prompt")
}

func runWords(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	payload, err := json.Marshal(router.GetWordsPayload{Limit: wordsLimit, Search: wordsSearch})
	if err != nil {
		return err
	}

	resp := app.router.Handle(ctx, router.Message{Type: router.TypeGetWords, Payload: payload})
	if !resp.Success {
		return fmt.Errorf("list failed: %s", resp.Error)
	}

	words := resp.Data.([]model.Word)
	if len(words) == 0 {
		fmt.Println("No words collected yet.")
		return nil
	}

	for _, w := range words {
		marker := "○"
		if w.Synced {
			marker = "✓"
		}
		fmt.Printf("%s %s  %s  %s\n", marker, w.CreatedAt.Format("2006-01-02"), w.ID[:8], w.Text)
		if w.Context != "" {
			fmt.Printf("    %s\n", w.Context)
		}
	}
	fmt.Printf("\n%d words (✓ synced, ○ pending)\n", len(words))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	payload, err := json.Marshal(router.DeleteWordPayload{WordID: args[0]})
	if err != nil {
		return err
	}

	resp := app.router.Handle(ctx, router.Message{Type: router.TypeDeleteWord, Payload: payload})
	if !resp.Success {
		return fmt.Errorf("delete failed: %s", resp.Error)
	}
	fmt.Println(resp.Data.(router.StatusMessage).Message)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		fmt.Print("This deletes every collected word. Continue? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp := app.router.Handle(ctx, router.Message{Type: router.TypeClearAll})
	if !resp.Success {
		return fmt.Errorf("clear failed: %s", resp.Error)
	}
	fmt.Println(resp.Data.(router.StatusMessage).Message)
	return nil
}

func runCleanup(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp := app.router.Handle(ctx, router.Message{Type: router.TypeCleanup})
	if !resp.Success {
		return fmt.Errorf("cleanup failed: %s", resp.Error)
	}

	status := resp.Data.(router.StatusMessage)
	fmt.Printf("%s: removed %d words\n", status.Message, status.Removed)
	return nil
}
