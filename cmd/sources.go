package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List indexed sources and their document counts",
	RunE:  runSources,
}

func init() {
	sourcesCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
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

	sources, err := store.ListSources(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sources)
	}

	if len(sources) == 0 {
		fmt.Println("No sources indexed. Run `brain index` first.")
		return nil
	}
	for _, s := range sources {
		fmt.Printf("  %-50s %d documents\n", s.Source, s.Documents)
	}
	return nil
}
