package loader

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/localbrain/brain/internal/chunker"
	"github.com/localbrain/brain/internal/pipeline"
)

// DefaultMaxFileSize is the maximum file size to ingest (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// Options controls directory loading.
type Options struct {
	Include     []string // Glob patterns — only matching files are included.
	Exclude     []string // Glob patterns — matching files are excluded.
	MaxFileSize int64    // Files larger than this are skipped (0 = use default).
}

// codeExtensions maps file extensions to the code chunking strategy.
// Everything else is treated as prose.
var codeExtensions = map[string]bool{
	".go": true, ".rs": true, ".py": true, ".js": true, ".jsx": true,
	".ts": true, ".tsx": true, ".java": true, ".kt": true, ".c": true,
	".h": true, ".cpp": true, ".hpp": true, ".cc": true, ".cs": true,
	".rb": true, ".php": true, ".swift": true, ".scala": true, ".sh": true,
	".bash": true, ".zsh": true, ".sql": true, ".proto": true, ".tf": true,
	".yaml": true, ".yml": true, ".toml": true, ".json": true, ".lua": true,
	".zig": true, ".ex": true, ".exs": true, ".erl": true, ".hs": true,
}

// KindForPath resolves the chunking strategy from the file extension.
func KindForPath(path string) chunker.Kind {
	if codeExtensions[strings.ToLower(filepath.Ext(path))] {
		return chunker.KindCode
	}
	return chunker.KindProse
}

// LocalSource derives the source name for a local directory.
func LocalSource(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return "local:" + filepath.ToSlash(root)
}

// LoadDirectory walks the tree rooted at root and reads every text file
// that passes filtering. It skips binary files, respects include/exclude
// patterns, and honours a root .gitignore. Paths in the returned files
// are relative to root.
func LoadDirectory(root string, opts Options) ([]pipeline.File, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("loader: resolve root: %w", err)
	}
	if info, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("loader: %s is not a directory", root)
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	gitignorePatterns := loadGitignore(filepath.Join(absRoot, ".gitignore"))

	var files []pipeline.File

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}

		if d.IsDir() {
			if shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}

		if matchesGitignore(relPath, gitignorePatterns) {
			return nil
		}
		if !MatchesInclude(relPath, opts.Include) {
			return nil
		}
		if MatchesExclude(relPath, opts.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxSize {
			return nil
		}

		if isBinary(path) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		files = append(files, pipeline.File{
			Path: filepath.ToSlash(relPath),
			Text: string(data),
			Kind: KindForPath(path),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loader: traversal: %w", err)
	}

	return files, nil
}

// isBinary reads the first 512 bytes of a file and checks for NUL bytes,
// which is a simple but effective heuristic for binary content.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true // treat unreadable files as binary
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return true
	}

	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}

// loadGitignore reads a .gitignore file and returns its non-empty,
// non-comment lines as patterns.
func loadGitignore(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// matchesGitignore checks if a relative file path matches any gitignore
// pattern. A trailing slash restricts a pattern to directories, which for
// a file path means matching any parent component; matching a directory
// ignores everything under it.
func matchesGitignore(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	parts := strings.Split(filepath.ToSlash(relPath), "/")

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)

		dirOnly := strings.HasSuffix(pattern, "/")
		pattern = strings.TrimSuffix(pattern, "/")

		if strings.Contains(pattern, "/") {
			if !dirOnly {
				if matched, _ := filepath.Match(pattern, strings.Join(parts, "/")); matched {
					return true
				}
			}
			for i := 1; i < len(parts); i++ {
				if matched, _ := filepath.Match(pattern, strings.Join(parts[:i], "/")); matched {
					return true
				}
			}
			continue
		}

		// No slash: the pattern matches any path component. The final
		// component is the file itself, so dir-only patterns skip it.
		limit := len(parts)
		if dirOnly {
			limit--
		}
		for i := 0; i < limit; i++ {
			if matched, _ := filepath.Match(pattern, parts[i]); matched {
				return true
			}
		}
	}
	return false
}
