package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/pagestats"
)

func newPagesCmd(_ *globalOptions) *cobra.Command {
	var top int
	var format string

	cmd := &cobra.Command{
		Use:   "pages <file>",
		Short: "Summarize a crawl of web pages",
		Long: `Report statistics over a JSON array of crawled pages: average body
length in tokens, most mentioned email addresses, the share of pages with
an email address, and the most frequent words with and without stopwords.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := corpus.LoadPages(args[0])
			if err != nil {
				return err
			}
			report, err := pagestats.Compute(pages, top)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(out, report)
			return nil
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", 10, "Entries to keep in each ranking")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func printReport(w io.Writer, r *pagestats.Report) {
	fmt.Fprintf(w, "Pages:                       %d\n", r.Pages)
	fmt.Fprintf(w, "Average length (tokens):     %.2f\n", r.AverageLength)
	fmt.Fprintf(w, "Pages with an email:         %.2f%%\n", r.PercentWithEmail)
	printCounts(w, "Top emails", r.TopEmails)
	printCounts(w, "Top words", r.TopWords)
	printCounts(w, "Top words without stopwords", r.TopContentWords)
}

func printCounts(w io.Writer, title string, counts []pagestats.Count) {
	fmt.Fprintf(w, "\n%s:\n", title)
	if len(counts) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for i, c := range counts {
		fmt.Fprintf(w, "  %2d. %-40s %d\n", i+1, c.Value, c.Count)
	}
}
