package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mfedotov/wortschatz/internal/extract"
	"github.com/mfedotov/wortschatz/internal/model"
)

// Collector is the slice of the store the importer needs.
type Collector interface {
	SaveWord(ctx context.Context, draft model.WordDraft) (*model.Word, error)
	Words(ctx context.Context, limit int, search string) ([]model.Word, error)
}

// Summary aggregates a bulk import run.
type Summary struct {
	Imported int
	Skipped  int
	Failed   int
	Errors   []string
}

// Importer collects many phrases at once, deduplicating against the batch
// and the existing collection by exact text.
type Importer struct {
	store       Collector
	workers     int
	sourceURL   string
	sourceTitle string
}

// NewImporter creates an importer writing through the given store.
func NewImporter(store Collector, workers int, sourceURL, sourceTitle string) *Importer {
	if workers <= 0 {
		workers = 4
	}
	return &Importer{
		store:       store,
		workers:     workers,
		sourceURL:   sourceURL,
		sourceTitle: sourceTitle,
	}
}

// ImportReader reads newline-delimited phrases and collects each non-blank
// line as a direct word.
func (im *Importer) ImportReader(ctx context.Context, r io.Reader) (Summary, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return Summary{}, fmt.Errorf("read input: %w", err)
	}
	return im.ImportLines(ctx, lines), nil
}

// ImportHTML extracts the visible text of an HTML document and imports its
// learnable tokens.
func (im *Importer) ImportHTML(ctx context.Context, htmlContent string) Summary {
	return im.ImportLines(ctx, extract.Words(extract.VisibleText(htmlContent)))
}

// ImportLines collects the given phrases through the worker pool. Blank
// lines, in-batch duplicates, and phrases already in the collection are
// skipped, not failed.
func (im *Importer) ImportLines(ctx context.Context, lines []string) Summary {
	existing := im.existingTexts(ctx)

	var jobs []Job
	var summary Summary
	seen := make(map[string]struct{})
	for i, line := range lines {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			summary.Skipped++
			continue
		}
		seen[text] = struct{}{}
		if _, known := existing[text]; known {
			summary.Skipped++
			continue
		}
		jobs = append(jobs, Job{Line: i + 1, Text: text})
	}

	pool := NewPool(im.workers, im.collect)
	results := pool.Run(ctx, jobs)
	sort.Slice(results, func(a, b int) bool { return results[a].Line < results[b].Line })

	for _, res := range results {
		switch {
		case res.Err != nil:
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d (%s): %v", res.Line, res.Text, res.Err))
		case res.Skipped:
			summary.Skipped++
		default:
			summary.Imported++
		}
	}
	return summary
}

func (im *Importer) collect(ctx context.Context, job Job) Result {
	word, err := im.store.SaveWord(ctx, model.WordDraft{
		Text:        job.Text,
		Kind:        model.KindDirect,
		SourceURL:   im.sourceURL,
		SourceTitle: im.sourceTitle,
	})
	if err != nil {
		return Result{Line: job.Line, Text: job.Text, Err: err}
	}
	return Result{Line: job.Line, Text: job.Text, WordID: word.ID}
}

// existingTexts snapshots the collection for duplicate detection. A store
// failure here degrades to no dedup rather than failing the import.
func (im *Importer) existingTexts(ctx context.Context) map[string]struct{} {
	words, err := im.store.Words(ctx, 0, "")
	if err != nil {
		return map[string]struct{}{}
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w.Text] = struct{}{}
	}
	return out
}
