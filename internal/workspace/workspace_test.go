package workspace

import (
	"path/filepath"
	"testing"
)

func TestValidateID(t *testing.T) {
	valid := []string{"w1", "my-project", "a.b_c", "0abc"}
	for _, id := range valid {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v, want nil", id, err)
		}
	}

	invalid := []string{"", "../up", "a/b", ".dot", "-dash", "has space"}
	for _, id := range invalid {
		if err := ValidateID(id); err == nil {
			t.Errorf("ValidateID(%q) = nil, want error", id)
		}
	}
}

func TestResolveCreatesDirectory(t *testing.T) {
	root := t.TempDir()

	info, err := Resolve(root, "w1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if info.ID != "w1" {
		t.Errorf("ID = %q, want w1", info.ID)
	}
	want := filepath.Join(root, "w1")
	if info.Dir != want {
		t.Errorf("Dir = %q, want %q", info.Dir, want)
	}

	// Resolving again reuses the directory.
	again, err := Resolve(root, "w1")
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if again.Dir != want {
		t.Errorf("second Dir = %q, want %q", again.Dir, want)
	}
}

func TestResolveEmptyRoot(t *testing.T) {
	info, err := Resolve("", "w1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if info.Dir != "" {
		t.Errorf("Dir = %q, want empty for empty root", info.Dir)
	}
}

func TestResolveRejectsInvalidID(t *testing.T) {
	if _, err := Resolve(t.TempDir(), "../escape"); err == nil {
		t.Error("Resolve accepted a traversal id")
	}
}

func TestResolveWithoutGitRepo(t *testing.T) {
	info, err := Resolve(t.TempDir(), "w1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if info.GitRoot != "" || info.GitBranch != "" {
		t.Errorf("git fields set outside a repository: %+v", info)
	}
}
