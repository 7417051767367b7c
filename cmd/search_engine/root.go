package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "position-search",
	Short: "Search engine with position-aware ranking",
	Long: `A small search engine whose ranking can favour documents where the query
terms appear early in a field, either per query (position_match) or per
index (position-similarity).`,
	SilenceUsage: true,
}
