package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/internal/indexer/index"
)

func newStatsCmd(g *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics of the persisted index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, st, err := newBuilder(g.cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			idx, err := b.Restore(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					index.Stats
					Fingerprint string `json:"fingerprint"`
					Location    string `json:"location"`
				}{idx.Stats(), idx.Fingerprint(), st.Location()})
			}
			fmt.Fprintf(out, "Location:      %s\n", st.Location())
			printStats(out, idx.Stats(), idx.Fingerprint())
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func printStats(w io.Writer, s index.Stats, fingerprint string) {
	fmt.Fprintf(w, "Documents:     %d\n", s.Documents)
	fmt.Fprintf(w, "Terms:         %d\n", s.Terms)
	fmt.Fprintf(w, "Total tokens:  %d\n", s.TotalTokens)
	fmt.Fprintf(w, "Avg doc len:   %.4f\n", s.AvgDL)
	fmt.Fprintf(w, "Stopwords:     %d\n", s.Stopwords)
	fmt.Fprintf(w, "Lemmatizer:    %s\n", s.Lemmatizer)
	fmt.Fprintf(w, "Fingerprint:   %s\n", fingerprint)
}
