// Package workspace resolves workspace identifiers to on-disk directories
// and annotates them with the enclosing git repository, when one exists.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	git "github.com/go-git/go-git/v5"
)

// Info describes the directory a workspace's sessions run in.
type Info struct {
	ID  string
	Dir string
	// GitRoot and GitBranch are set when Dir sits inside a git worktree
	GitRoot   string
	GitBranch string
}

var idRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateID rejects workspace ids that are empty or could escape the
// workspace root when joined to it.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("workspace id is required")
	}
	if !idRe.MatchString(id) {
		return fmt.Errorf("invalid workspace id: %s", id)
	}
	return nil
}

// Resolve maps a workspace id to its directory under root, creating the
// directory if needed. An empty root means sessions run in the engine's own
// working directory. Git detection is best-effort; a workspace outside any
// repository simply has no git fields.
func Resolve(root, id string) (Info, error) {
	if err := ValidateID(id); err != nil {
		return Info{}, err
	}

	info := Info{ID: id}
	if root == "" {
		info.annotateGit(".")
		return info, nil
	}

	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Info{}, fmt.Errorf("failed to create workspace directory: %w", err)
	}
	info.Dir = dir
	info.annotateGit(dir)
	return info, nil
}

func (i *Info) annotateGit(dir string) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return
	}
	if wt, err := repo.Worktree(); err == nil {
		i.GitRoot = wt.Filesystem.Root()
	}
	if ref, err := repo.Head(); err == nil && ref.Name().IsBranch() {
		i.GitBranch = ref.Name().Short()
	}
}
