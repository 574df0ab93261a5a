package filesystem

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// RepoRoot returns the top of the git worktree containing start.
func RepoRoot(start string) (string, error) {
	repo, err := git.PlainOpenWithOptions(start, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("no git repository found from %s: %w", start, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}
	return wt.Filesystem.Root(), nil
}
