package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

func newBuildCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the index from the configured dataset and persist it",
		Long: `Load the configured dataset, normalize and index every document, and
write the index to the configured location, replacing any existing one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, st, err := newBuilder(g.cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			start := time.Now()
			docs, err := loadDocuments(g.cfg)(ctx)
			if err != nil {
				return err
			}
			idx, err := b.Build(docs)
			if err != nil {
				return err
			}
			if err := b.Persist(ctx); err != nil {
				return err
			}
			slog.Info("index built", "location", st.Location(), "duration", time.Since(start).Round(time.Millisecond))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Index written to %s\n", st.Location())
			printStats(out, idx.Stats(), idx.Fingerprint())
			return nil
		},
	}
}
