package report

import (
	"log/slog"

	git "github.com/go-git/go-git/v5"
)

// ResolveCommit returns the HEAD commit hash of the repository containing
// dir, or the empty string when dir is not under version control. The
// report is useful without it, so every failure here is best-effort.
func ResolveCommit(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		slog.Debug("Test folder is not inside a git repository", "dir", dir, "error", err)
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		slog.Debug("Failed to resolve repository HEAD", "dir", dir, "error", err)
		return ""
	}
	return head.Hash().String()
}
