package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [source]",
	Short: "Remove all documents for a source",
	Long: `Removes every indexed document belonging to the given source name,
for example github:acme/widgets or local:/home/me/notes. Deleting an
unknown source is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
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

	deleted, err := store.DeleteBySource(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d documents from %s\n", deleted, args[0])
	return nil
}
