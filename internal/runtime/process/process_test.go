package process

import (
	"strings"
	"testing"
)

func TestIndexSentinelLine(t *testing.T) {
	token := "__RUNPAD_abc_1_ffff__"

	tests := []struct {
		name string
		data string
		want int
	}{
		{
			name: "token as complete line",
			data: "hello\n" + token + "\n",
			want: 6,
		},
		{
			name: "token at buffer start",
			data: token + "\n",
			want: 0,
		},
		{
			name: "token without trailing newline is a partial chunk",
			data: "hello\n" + token,
			want: -1,
		},
		{
			name: "token embedded in a longer line does not match",
			data: "prefix" + token + "\n",
			want: -1,
		},
		{
			name: "embedded occurrence skipped, later complete line found",
			data: "x" + token + "y\n" + token + "\n",
			want: len("x" + token + "y\n"),
		},
		{
			name: "crlf terminated line",
			data: "out\r\n" + token + "\r\n",
			want: 5,
		},
		{
			name: "absent",
			data: "no sentinel here\n",
			want: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := indexSentinelLine(tt.data, token); got != tt.want {
				t.Errorf("indexSentinelLine() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExtractExitStatus(t *testing.T) {
	tag := "__RUNPAD_abc_1_ffff__RC="

	t.Run("parses and strips the exit line", func(t *testing.T) {
		stdout, code := extractExitStatus("hello\n"+tag+"3\n", tag)
		if stdout != "hello\n" {
			t.Errorf("stdout = %q, want %q", stdout, "hello\n")
		}
		if code == nil || *code != 3 {
			t.Errorf("exit code = %v, want 3", code)
		}
	})

	t.Run("zero exit code", func(t *testing.T) {
		_, code := extractExitStatus(tag+"0\n", tag)
		if code == nil || *code != 0 {
			t.Errorf("exit code = %v, want 0", code)
		}
	})

	t.Run("missing exit line leaves code nil", func(t *testing.T) {
		stdout, code := extractExitStatus("20\n", tag)
		if stdout != "20\n" {
			t.Errorf("stdout = %q, want %q", stdout, "20\n")
		}
		if code != nil {
			t.Errorf("exit code = %v, want nil", code)
		}
	})

	t.Run("output lines around the exit line survive", func(t *testing.T) {
		stdout, code := extractExitStatus("a\nb\n"+tag+"1\n", tag)
		if stdout != "a\nb\n" {
			t.Errorf("stdout = %q", stdout)
		}
		if code == nil || *code != 1 {
			t.Errorf("exit code = %v, want 1", code)
		}
	})
}

func TestShellPayload(t *testing.T) {
	sh := NewShell(Options{})
	payload := sh.payload("echo hi", "TOKEN", "TAG")

	if !strings.HasPrefix(payload, "echo hi\n") {
		t.Errorf("payload should start with the command, got %q", payload)
	}
	exitIdx := strings.Index(payload, "TAG")
	tokenIdx := strings.Index(payload, `"TOKEN"`)
	if exitIdx < 0 || tokenIdx < 0 {
		t.Fatalf("payload missing sentinel markers: %q", payload)
	}
	if exitIdx > tokenIdx {
		t.Error("exit-status echo must come before the completion sentinel")
	}
	if !strings.Contains(payload, `"$?"`) {
		t.Errorf("payload must capture $?: %q", payload)
	}
}

func TestInterpreterPayload(t *testing.T) {
	in := NewInterpreter(Options{})
	payload := in.payload("x = 1", "TOKEN", "")

	if !strings.HasPrefix(payload, "x = 1\n") {
		t.Errorf("payload should start with the code, got %q", payload)
	}
	if !strings.HasSuffix(payload, "print('TOKEN')\n") {
		t.Errorf("payload should end with the sentinel print, got %q", payload)
	}
	if !strings.Contains(payload, "\n\n") {
		t.Errorf("payload should contain a blank line to close open blocks: %q", payload)
	}
}

func TestValidateShellInput(t *testing.T) {
	tests := []struct {
		name    string
		command string
		wantErr bool
	}{
		{"simple command", "echo hello", false},
		{"pipeline", "ls | grep foo", false},
		{"multiline", "for i in 1 2 3; do\n  echo $i\ndone", false},
		{"unterminated quote", `echo "hello`, true},
		{"unterminated subshell", "(echo hi", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateShellInput(tt.command)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateShellInput(%q) error = %v, wantErr %v", tt.command, err, tt.wantErr)
			}
		})
	}
}

func TestScanShellAssignments(t *testing.T) {
	t.Run("plain and exported assignments", func(t *testing.T) {
		assigns := scanShellAssignments("X=5\nexport PATH=/usr/bin")
		if assigns["X"] != "5" {
			t.Errorf("X = %q, want 5", assigns["X"])
		}
		if assigns["PATH"] != "/usr/bin" {
			t.Errorf("PATH = %q, want /usr/bin", assigns["PATH"])
		}
	})

	t.Run("quoted value", func(t *testing.T) {
		assigns := scanShellAssignments(`NAME="value"`)
		if assigns["NAME"] != "value" {
			t.Errorf("NAME = %q, want value", assigns["NAME"])
		}
	})

	t.Run("non-assignment commands produce nothing", func(t *testing.T) {
		if assigns := scanShellAssignments("echo X=5ish | cat"); len(assigns) != 0 {
			t.Errorf("expected no assignments, got %v", assigns)
		}
	})
}

func TestScanPythonImports(t *testing.T) {
	t.Run("plain import", func(t *testing.T) {
		mods := scanPythonImports("import os")
		if len(mods) != 1 || mods[0] != "os" {
			t.Errorf("mods = %v, want [os]", mods)
		}
	})

	t.Run("from import records the package base", func(t *testing.T) {
		mods := scanPythonImports("from collections.abc import Mapping")
		if len(mods) != 1 || mods[0] != "collections" {
			t.Errorf("mods = %v, want [collections]", mods)
		}
	})

	t.Run("comma list and alias", func(t *testing.T) {
		mods := scanPythonImports("import json, math\nimport numpy as np")
		want := map[string]bool{"json": true, "math": true, "numpy": true}
		for _, m := range mods {
			if !want[m] {
				t.Errorf("unexpected module %q", m)
			}
			delete(want, m)
		}
		if len(want) != 0 {
			t.Errorf("missing modules: %v", want)
		}
	})

	t.Run("dotted import records the base", func(t *testing.T) {
		mods := scanPythonImports("import os.path")
		if len(mods) != 1 || mods[0] != "os" {
			t.Errorf("mods = %v, want [os]", mods)
		}
	})

	t.Run("no imports", func(t *testing.T) {
		if mods := scanPythonImports("x = 1 + 2"); mods != nil {
			t.Errorf("mods = %v, want nil", mods)
		}
	})
}
