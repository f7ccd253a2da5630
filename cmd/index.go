package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/localbrain/brain/internal/config"
	"github.com/localbrain/brain/internal/loader"
	"github.com/localbrain/brain/internal/pipeline"
	"github.com/localbrain/brain/internal/progress"
	"github.com/localbrain/brain/internal/vectorstore"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Ingest a source into the knowledge base",
}

var indexLocalCmd = &cobra.Command{
	Use:   "local [path]",
	Short: "Index a local directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexLocal,
}

var indexGitHubCmd = &cobra.Command{
	Use:   "github [owner/repo]",
	Short: "Clone (or update) and index a GitHub repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexGitHub,
}

func init() {
	indexGitHubCmd.Flags().String("branch", "", "branch to index (default: remote HEAD)")
	indexCmd.AddCommand(indexLocalCmd)
	indexCmd.AddCommand(indexGitHubCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexLocal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := loader.LoadDirectory(args[0], loaderOptions(cfg))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No ingestable files found.")
		return nil
	}

	return ingest(cmd.Context(), cfg, loader.LocalSource(args[0]), vectorstore.SourceLocal, files)
}

func runIndexGitHub(cmd *cobra.Command, args []string) error {
	owner, repo, ok := strings.Cut(args[0], "/")
	if !ok || owner == "" || repo == "" {
		return fmt.Errorf("repository must be in owner/repo form, got %q", args[0])
	}
	branch, _ := cmd.Flags().GetString("branch")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gh := loader.NewGitHubLoader(cfg.Storage.ReposDir, loaderOptions(cfg))
	fmt.Printf("Fetching %s/%s...\n", owner, repo)
	files, err := gh.Load(cmd.Context(), owner, repo, branch)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No ingestable files found.")
		return nil
	}

	return ingest(cmd.Context(), cfg, loader.GitHubSource(owner, repo), vectorstore.SourceGitHub, files)
}

func ingest(ctx context.Context, cfg *config.Config, source string, sourceType vectorstore.SourceType, files []pipeline.File) error {
	embedder, err := createEmbedder(cfg)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, embedder)
	if err != nil {
		return err
	}
	defer store.Close()

	ing := newIngestor(cfg, embedder, store)

	reporter := progress.NewReporter("Indexing")
	reporter.Start(len(files))
	ing.SetProgressFunc(func(processed, total int, path string) {
		reporter.Update(processed, path)
	})

	report, err := ing.IndexDocuments(ctx, source, sourceType, files)
	reporter.Finish()
	if report != nil {
		printReport(report)
	}
	return err
}
