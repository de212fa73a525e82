package project

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	gitignore "github.com/denormal/go-gitignore"
	"github.com/jakoblorz/airflowctl/internal/filesystem"
	"github.com/jakoblorz/airflowctl/internal/models"
)

// IsIgnored reports whether target, or one of its parents below the project
// root, is matched by the project's .gitignore. Paths outside the project
// and projects without a .gitignore are never ignored.
func IsIgnored(fs filesystem.FileSystem, p *models.Project, target string, isDir bool) (bool, error) {
	rel, err := filepath.Rel(p.RootPath, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false, nil
	}

	if !fs.Exists(p.GitignorePath()) {
		return false, nil
	}

	data, err := fs.ReadFile(p.GitignorePath())
	if err != nil {
		return false, fmt.Errorf("failed to read .gitignore: %w", err)
	}
	ignore := gitignore.New(bytes.NewReader(data), p.RootPath, nil)

	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i := range parts {
		candidate := filepath.Join(parts[:i+1]...)
		candidateIsDir := isDir || i < len(parts)-1
		if match := ignore.Relative(candidate, candidateIsDir); match != nil && match.Ignore() {
			return true, nil
		}
	}

	return false, nil
}
