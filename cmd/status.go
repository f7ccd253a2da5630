package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge base and backend status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	count, err := store.Count(cmd.Context())
	if err != nil {
		return err
	}
	sources, err := store.ListSources(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Database:   %s\n", cfg.Storage.DatabasePath)
	fmt.Printf("Documents:  %d\n", count)
	fmt.Printf("Sources:    %d\n", len(sources))
	fmt.Printf("Embedding:  %s (%s, %d dimensions)\n",
		cfg.Embedding.Provider, embedder.Name(), store.Dimensions())

	client, err := createLLMClient(cfg)
	if err != nil {
		fmt.Printf("Generation: unavailable (%v)\n", err)
		return nil
	}
	if err := client.HealthCheck(cmd.Context()); err != nil {
		fmt.Printf("Generation: unavailable (%s %s)\n", cfg.LLM.Provider, cfg.LLM.Model)
	} else {
		fmt.Printf("Generation: ok (%s %s)\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	return nil
}
