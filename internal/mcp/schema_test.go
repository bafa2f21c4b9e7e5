package mcp

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestStructToToolOptions(t *testing.T) {
	tests := []struct {
		name       string
		structType interface{}
		wantFields int
	}{
		{name: "ExecParams", structType: ExecParams{}, wantFields: 4},
		{name: "EvalParams", structType: EvalParams{}, wantFields: 2},
		{name: "WorkspaceParams", structType: WorkspaceParams{}, wantFields: 1},
		{name: "HistoryParams", structType: HistoryParams{}, wantFields: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := StructToToolOptions(tt.structType)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(opts) != tt.wantFields {
				t.Errorf("got %d options, want %d", len(opts), tt.wantFields)
			}
		})
	}
}

func TestStructToToolOptionsRejectsNonStruct(t *testing.T) {
	if _, err := StructToToolOptions("not a struct"); err == nil {
		t.Error("non-struct input accepted")
	}
}

func TestUnmarshalArgs(t *testing.T) {
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "runtime_exec",
			Arguments: map[string]interface{}{
				"workspace_id":    "w1",
				"command":         "echo hi",
				"language":        "shell",
				"timeout_seconds": 2.5,
			},
		},
	}

	var params ExecParams
	if err := UnmarshalArgs(req, &params); err != nil {
		t.Fatalf("UnmarshalArgs failed: %v", err)
	}
	if params.WorkspaceID != "w1" || params.Command != "echo hi" {
		t.Errorf("params = %+v", params)
	}
	if params.TimeoutSeconds != 2.5 {
		t.Errorf("timeout = %v, want 2.5", params.TimeoutSeconds)
	}
}
