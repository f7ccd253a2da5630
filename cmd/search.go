package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/localbrain/brain/internal/vectorstore"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find the indexed chunks most similar to a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 5, "maximum number of results")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	embedder, err := createEmbedder(cfg)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, embedder)
	if err != nil {
		return err
	}
	defer store.Close()

	retriever := newRetriever(cfg, embedder, store, nil)
	results, err := retriever.Search(cmd.Context(), args[0], limit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if jsonOutput {
		return printSearchResultsJSON(results)
	}
	printSearchResultsTable(results)
	return nil
}

type searchResultJSON struct {
	Rank       int     `json:"rank"`
	Similarity float32 `json:"similarity"`
	Source     string  `json:"source"`
	FilePath   string  `json:"file_path"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
}

func printSearchResultsJSON(results []vectorstore.SearchResult) error {
	var out []searchResultJSON
	for i, r := range results {
		out = append(out, searchResultJSON{
			Rank:       i + 1,
			Similarity: r.Similarity,
			Source:     r.Record.Source,
			FilePath:   r.Record.FilePath,
			ChunkIndex: r.Record.ChunkIndex,
			Content:    r.Record.Content,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printSearchResultsTable(results []vectorstore.SearchResult) {
	fmt.Printf("Found %d results:\n\n", len(results))
	for i, r := range results {
		fmt.Printf("  %d. [%.1f%%] %s (%s, chunk %d)\n", i+1, r.Similarity*100,
			r.Record.FilePath, r.Record.Source, r.Record.ChunkIndex)
		fmt.Printf("     %s\n\n", truncate(r.Record.Content, 120))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
