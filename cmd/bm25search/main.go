// Command bm25search builds, queries and serves a BM25 index over a news or
// web-page corpus.
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/bm25-news-search/cmd/bm25search/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
