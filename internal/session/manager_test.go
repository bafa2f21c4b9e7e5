package session

import (
	"context"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(Config{WorkspaceRoot: t.TempDir()}, nil, nil)
	t.Cleanup(func() {
		m.TerminateAll(context.Background())
	})
	return m
}

func TestManagerGetOrCreateReturnsSameSession(t *testing.T) {
	m := newTestManager(t)

	s1, err := m.GetOrCreate("w1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	s2, err := m.GetOrCreate("w1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if s1 != s2 {
		t.Error("GetOrCreate returned a new session for a live workspace")
	}
}

func TestManagerWorkspacesAreIsolated(t *testing.T) {
	m := newTestManager(t)

	s1, err := m.GetOrCreate("w1")
	if err != nil {
		t.Fatalf("GetOrCreate w1 failed: %v", err)
	}
	s2, err := m.GetOrCreate("w2")
	if err != nil {
		t.Fatalf("GetOrCreate w2 failed: %v", err)
	}
	if s1 == s2 {
		t.Fatal("distinct workspaces share a session")
	}
	if s1.Describe().WorkingDir == s2.Describe().WorkingDir {
		t.Error("distinct workspaces share a working directory")
	}
}

func TestManagerReplacesTerminatedSession(t *testing.T) {
	m := newTestManager(t)

	s1, err := m.GetOrCreate("w1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	s1.Terminate(context.Background())

	s2, err := m.GetOrCreate("w1")
	if err != nil {
		t.Fatalf("GetOrCreate after terminate failed: %v", err)
	}
	if s1 == s2 {
		t.Error("terminated session was handed out again")
	}
	if s2.Terminated() {
		t.Error("replacement session is already terminated")
	}
}

func TestManagerDropsEntryOnTermination(t *testing.T) {
	m := newTestManager(t)

	s, err := m.GetOrCreate("w1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	s.Terminate(context.Background())

	deadline := time.After(3 * time.Second)
	for {
		if _, ok := m.Get("w1"); !ok {
			return
		}
		select {
		case <-deadline:
			t.Fatal("registry still holds the terminated session")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestManagerRejectsInvalidWorkspaceID(t *testing.T) {
	m := newTestManager(t)

	for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
		if _, err := m.GetOrCreate(id); err == nil {
			t.Errorf("GetOrCreate(%q) succeeded, want error", id)
		}
	}
}

func TestManagerTerminateAll(t *testing.T) {
	m := newTestManager(t)

	s1, err := m.GetOrCreate("w1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	s2, err := m.GetOrCreate("w2")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	m.TerminateAll(context.Background())

	if !s1.Terminated() || !s2.Terminated() {
		t.Error("TerminateAll left a session live")
	}
}

func TestManagerList(t *testing.T) {
	m := newTestManager(t)

	for _, id := range []string{"zeta", "alpha"} {
		if _, err := m.GetOrCreate(id); err != nil {
			t.Fatalf("GetOrCreate(%q) failed: %v", id, err)
		}
	}
	ids := m.List()
	if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "zeta" {
		t.Errorf("List() = %v, want [alpha zeta]", ids)
	}
}
