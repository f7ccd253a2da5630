package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question answered from the indexed documents",
	Long: `Retrieves the chunks most relevant to the question, sends them with
the question to the generation backend, and prints the answer with
citations. Without any matching documents the question is answered from
the model's own knowledge.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().Int("limit", 5, "maximum number of retrieved chunks")
	queryCmd.Flags().Bool("json", false, "output the response as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
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

	client, err := createLLMClient(cfg)
	if err != nil {
		return err
	}

	retriever := newRetriever(cfg, embedder, store, client)
	resp, err := retriever.Query(cmd.Context(), args[0], limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, src := range resp.Sources {
			fmt.Printf("  %d. %s (%s, %.1f%%)\n", i+1, src.FilePath, src.Source, src.Similarity*100)
		}
	}
	return nil
}
