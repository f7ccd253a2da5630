package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/localbrain/brain/internal/chunker"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func loadedPaths(t *testing.T, root string, opts Options) map[string]chunker.Kind {
	t.Helper()
	files, err := LoadDirectory(root, opts)
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	got := make(map[string]chunker.Kind, len(files))
	for _, f := range files {
		got[f.Path] = f.Kind
	}
	return got
}

func TestLoadDirectoryResolvesKinds(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main")
	writeFile(t, root, "README.md", "# readme")
	writeFile(t, root, "notes", "plain notes without extension")

	got := loadedPaths(t, root, Options{})
	if len(got) != 3 {
		t.Fatalf("loaded %d files, want 3", len(got))
	}
	if got["main.go"] != chunker.KindCode {
		t.Error("main.go should load as code")
	}
	if got["README.md"] != chunker.KindProse {
		t.Error("README.md should load as prose")
	}
	if got["notes"] != chunker.KindProse {
		t.Error("extensionless files should load as prose")
	}
}

func TestLoadDirectorySkipsBinaryAndOversized(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.txt", "text content")
	writeFile(t, root, "blob.bin", "data\x00with nul")
	writeFile(t, root, "huge.txt", strings.Repeat("x", 100))

	got := loadedPaths(t, root, Options{MaxFileSize: 50})
	if _, ok := got["ok.txt"]; !ok {
		t.Error("ok.txt missing")
	}
	if _, ok := got["blob.bin"]; ok {
		t.Error("binary file was loaded")
	}
	if _, ok := got["huge.txt"]; ok {
		t.Error("oversized file was loaded")
	}
}

func TestLoadDirectorySkipsDefaultExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.go", "package app")
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {}")
	writeFile(t, root, ".git/config", "[core]")

	got := loadedPaths(t, root, Options{})
	if len(got) != 1 {
		t.Fatalf("loaded %d files, want 1: %v", len(got), got)
	}
	if _, ok := got["src/app.go"]; !ok {
		t.Error("src/app.go missing")
	}
}

func TestLoadDirectoryHonoursGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "*.log\nsecrets/\n")
	writeFile(t, root, "app.log", "log line")
	writeFile(t, root, "secrets/key.txt", "api key")
	writeFile(t, root, "nested/secrets/token.txt", "token")
	writeFile(t, root, "keep.txt", "kept")

	got := loadedPaths(t, root, Options{})
	if _, ok := got["app.log"]; ok {
		t.Error("gitignored file was loaded")
	}
	if _, ok := got["secrets/key.txt"]; ok {
		t.Error("file under gitignored directory was loaded")
	}
	if _, ok := got["nested/secrets/token.txt"]; ok {
		t.Error("file under nested gitignored directory was loaded")
	}
	if _, ok := got["keep.txt"]; !ok {
		t.Error("keep.txt missing")
	}
}

func TestMatchesGitignore(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"secrets/key.txt", []string{"secrets/"}, true},
		{"nested/secrets/key.txt", []string{"secrets/"}, true},
		{"secrets", []string{"secrets/"}, false}, // a plain file, not a directory
		{"secrets/key.txt", []string{"secrets"}, true},
		{"app.log", []string{"*.log"}, true},
		{"logs/app.log", []string{"*.log"}, true},
		{"build/out/a.txt", []string{"build/out/"}, true},
		{"build/output/a.txt", []string{"build/out/"}, false},
		{"docs/internal", []string{"docs/internal"}, true},
		{"docs/internal/notes.md", []string{"docs/internal"}, true},
		{"keep.txt", []string{"*.log", "secrets/"}, false},
		{"keep.txt", nil, false},
	}
	for _, tt := range tests {
		if got := matchesGitignore(tt.path, tt.patterns); got != tt.want {
			t.Errorf("matchesGitignore(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestLoadDirectoryIncludeExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/guide.md", "# guide")
	writeFile(t, root, "docs/internal/notes.md", "# notes")
	writeFile(t, root, "main.go", "package main")

	got := loadedPaths(t, root, Options{
		Include: []string{"**/*.md"},
		Exclude: []string{"docs/internal/**"},
	})
	if len(got) != 1 {
		t.Fatalf("loaded %d files, want 1: %v", len(got), got)
	}
	if _, ok := got["docs/guide.md"]; !ok {
		t.Error("docs/guide.md missing")
	}
}

func TestLoadDirectoryRejectsMissingRoot(t *testing.T) {
	if _, err := LoadDirectory(filepath.Join(t.TempDir(), "missing"), Options{}); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestSourceNames(t *testing.T) {
	if got := GitHubSource("acme", "widgets"); got != "github:acme/widgets" {
		t.Errorf("GitHubSource = %q", got)
	}
	if got := LocalSource("/tmp/notes"); got != "local:/tmp/notes" {
		t.Errorf("LocalSource = %q", got)
	}
}
