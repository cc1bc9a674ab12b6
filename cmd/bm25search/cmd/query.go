package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/searcher/ranker"
)

type queryOptions struct {
	limit    int
	strategy string
	format   string
}

type queryHit struct {
	Rank  int     `json:"rank"`
	DocID int     `json:"doc_id"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

func newQueryCmd(g *globalOptions) *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Rank documents against a query",
		Long: `Open the index (restoring it, or building it from the dataset when none
is persisted yet) and print the top-ranked documents with their raw text.

Examples:
  bm25search query "hurricane florida" -n 3
  bm25search query "election results" --strategy postings --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, g, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 5, "Number of results to print")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "Ranking strategy: scan, postings (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func runQuery(cmd *cobra.Command, g *globalOptions, query string, opts queryOptions) error {
	if opts.limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", opts.limit)
	}
	name := opts.strategy
	if name == "" {
		name = g.cfg.Search.Strategy
	}
	strategy, err := ranker.ParseStrategy(name)
	if err != nil {
		return err
	}

	idx, err := indexOpener{cfg: g.cfg}.open(cmd.Context())
	if err != nil {
		return err
	}
	engine := ranker.New(idx,
		ranker.WithParams(g.cfg.Search.K1, g.cfg.Search.B),
		ranker.WithStrategy(strategy),
	)
	ranked, err := engine.SearchTop(query, opts.limit)
	if err != nil {
		return err
	}

	hits := make([]queryHit, 0, len(ranked))
	for i, r := range ranked {
		text, err := idx.RawText(r.DocID)
		if err != nil {
			return err
		}
		hits = append(hits, queryHit{Rank: i + 1, DocID: r.DocID, Score: r.Score, Text: text})
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}
	fmt.Fprintf(out, "Query: %q (terms: %s)\n\n", query, strings.Join(idx.QueryTerms(query), " "))
	for _, h := range hits {
		fmt.Fprintf(out, "%d. doc %d  score %.4f\n%s\n\n", h.Rank, h.DocID, h.Score, h.Text)
	}
	return nil
}
