package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/localbrain/brain/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "brain",
	Short: "Local retrieval-augmented knowledge base",
	Long: `Brain ingests source repositories and directory trees into a local
vector database and answers questions about them. Text is chunked,
embedded and stored for similarity search; answers are generated by a
local or hosted language model with citations back to the indexed
files.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// API keys are commonly kept in a .env next to the working directory.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
