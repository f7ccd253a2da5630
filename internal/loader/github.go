package loader

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/localbrain/brain/internal/pipeline"
)

// GitHubSource derives the source name for a repository.
func GitHubSource(owner, repo string) string {
	return fmt.Sprintf("github:%s/%s", owner, repo)
}

// GitHubLoader materializes GitHub repositories into a local directory
// using the git CLI, then loads them like any other directory.
type GitHubLoader struct {
	ReposDir string
	Options  Options
}

// NewGitHubLoader creates a loader that keeps clones under reposDir.
func NewGitHubLoader(reposDir string, opts Options) *GitHubLoader {
	return &GitHubLoader{ReposDir: reposDir, Options: opts}
}

// Load clones or updates the repository and reads its text files.
func (l *GitHubLoader) Load(ctx context.Context, owner, repo, branch string) ([]pipeline.File, error) {
	dir, err := l.CloneOrUpdate(ctx, owner, repo, branch)
	if err != nil {
		return nil, err
	}
	return LoadDirectory(dir, l.Options)
}

// CloneOrUpdate shallow-clones the repository on first use and resets it
// to the remote head on subsequent calls. It returns the checkout path.
func (l *GitHubLoader) CloneOrUpdate(ctx context.Context, owner, repo, branch string) (string, error) {
	if err := os.MkdirAll(l.ReposDir, 0o755); err != nil {
		return "", fmt.Errorf("loader: create repos dir: %w", err)
	}

	dir := filepath.Join(l.ReposDir, owner+"__"+repo)
	url := fmt.Sprintf("https://github.com/%s/%s.git", owner, repo)

	if _, err := os.Stat(filepath.Join(dir, ".git")); os.IsNotExist(err) {
		args := []string{"clone", "--depth", "1"}
		if branch != "" {
			args = append(args, "--branch", branch)
		}
		args = append(args, url, dir)
		if out, err := gitCommand(ctx, "", args...); err != nil {
			return "", fmt.Errorf("loader: clone %s/%s: %w: %s", owner, repo, err, out)
		}
		return dir, nil
	}

	ref := "origin/HEAD"
	fetchArgs := []string{"fetch", "--depth", "1", "origin"}
	if branch != "" {
		fetchArgs = append(fetchArgs, branch)
		ref = "origin/" + branch
	}
	if out, err := gitCommand(ctx, dir, fetchArgs...); err != nil {
		return "", fmt.Errorf("loader: fetch %s/%s: %w: %s", owner, repo, err, out)
	}
	if out, err := gitCommand(ctx, dir, "reset", "--hard", ref); err != nil {
		return "", fmt.Errorf("loader: reset %s/%s: %w: %s", owner, repo, err, out)
	}
	return dir, nil
}

func gitCommand(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	return string(out), err
}
