package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchTopK int

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index and print the nearest chunks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStack(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		query := strings.Join(args, " ")
		matches, err := st.searchService(cfg.TopK).SearchChunks(cmd.Context(), query, searchTopK)
		if err != nil {
			return err
		}

		if len(matches) == 0 {
			fmt.Println("No results: the index is empty.")
			return nil
		}

		for i, m := range matches {
			fmt.Printf("%d. %s\n", i+1, m.Label)
			if m.Text != "" {
				fmt.Printf("   %s\n", snippet(m.Text, 200))
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (defaults to config top_k)")
}

// snippet trims text to at most n runes for terminal display.
func snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
