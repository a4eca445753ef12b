package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mfedotov/wortschatz/internal/worker"
)

var (
	importWorkers int
	importURL     string
	importTitle   string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Bulk-collect words from a file",
	Long: `Import collects many words at once. Plain text files are read line by
line, one phrase per line; .html files have their visible text extracted
first and every learnable token collected. Duplicates, both inside the
batch and against the existing collection, are skipped.

Example:
  wortschatz import wordlist.txt
  wortschatz import saved-article.html --title "Der Artikel"`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().IntVar(&importWorkers, "workers", 4, "concurrent collect workers")
	importCmd.Flags().StringVar(&importURL, "url", "", "source URL recorded on every imported word")
	importCmd.Flags().StringVar(&importTitle, "title", "", "source title recorded on every imported word")
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	importer := worker.NewImporter(app.store, importWorkers, importURL, importTitle)

	var summary worker.Summary
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		summary = importer.ImportHTML(ctx, string(data))
	default:
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		summary, err = importer.ImportReader(ctx, f)
		if err != nil {
			return err
		}
	}

	fmt.Printf("✓ Imported %d words (%d skipped, %d failed)\n",
		summary.Imported, summary.Skipped, summary.Failed)

	if app.cfg.Output.Verbose {
		for _, e := range summary.Errors {
			fmt.Fprintln(os.Stderr, e)
		}
	}
	return nil
}
