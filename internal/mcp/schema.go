// Package mcp exposes the runtime session engine over the Model Context
// Protocol. Tools map 1:1 onto session facade operations, keyed by
// workspace id.
package mcp

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StructToToolOptions converts a tagged parameter struct into mcp-go tool
// options. Fields use `json:"name"` for the parameter name, `mcp:"required"`
// to mark required parameters, `description:"..."` for the schema
// description, and `enum:"a,b"` for string enums.
func StructToToolOptions(params interface{}) ([]mcp.ToolOption, error) {
	t := reflect.TypeOf(params)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected struct type, got %v", t.Kind())
	}

	var toolOptions []mcp.ToolOption
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		jsonTag := field.Tag.Get("json")
		if jsonTag == "" || jsonTag == "-" {
			continue
		}
		name := strings.Split(jsonTag, ",")[0]

		description := field.Tag.Get("description")
		if description == "" {
			description = fmt.Sprintf("%s field", name)
		}

		opts := []mcp.PropertyOption{mcp.Description(description)}
		if field.Tag.Get("mcp") == "required" {
			opts = append(opts, mcp.Required())
		}

		switch field.Type.Kind() { //nolint:exhaustive // only parameter-shaped kinds
		case reflect.String:
			if enumTag := field.Tag.Get("enum"); enumTag != "" {
				opts = append(opts, mcp.Enum(strings.Split(enumTag, ",")...))
			}
			toolOptions = append(toolOptions, mcp.WithString(name, opts...))
		case reflect.Int, reflect.Int64, reflect.Float64:
			toolOptions = append(toolOptions, mcp.WithNumber(name, opts...))
		case reflect.Bool:
			toolOptions = append(toolOptions, mcp.WithBoolean(name, opts...))
		default:
			continue
		}
	}

	return toolOptions, nil
}

// WithStructOptions prepends a tool description to the struct-derived
// parameter options.
func WithStructOptions(description string, params interface{}) ([]mcp.ToolOption, error) {
	structOpts, err := StructToToolOptions(params)
	if err != nil {
		return nil, err
	}
	return append([]mcp.ToolOption{mcp.WithDescription(description)}, structOpts...), nil
}

// UnmarshalArgs decodes a tool call's arguments into a parameter struct.
func UnmarshalArgs[T any](request mcp.CallToolRequest, target *T) error {
	jsonBytes, err := json.Marshal(request.GetArguments())
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal arguments: %w", err)
	}
	return nil
}

// ExecParams defines parameters for runtime_exec.
type ExecParams struct {
	WorkspaceID string `json:"workspace_id" mcp:"required" description:"Workspace identifier owning the session"`

	Command string `json:"command" mcp:"required" description:"Command or code to execute"`

	Language string `json:"language,omitempty" enum:"shell,interpreter" description:"Execution language (default shell)"`

	TimeoutSeconds float64 `json:"timeout_seconds,omitempty" description:"Soft per-call timeout in seconds (default 30)"`
}

// EvalParams defines parameters for runtime_eval.
type EvalParams struct {
	WorkspaceID string `json:"workspace_id" mcp:"required" description:"Workspace identifier owning the session"`

	Code string `json:"code" mcp:"required" description:"Interpreter code to evaluate"`
}

// WorkspaceParams defines parameters for tools that only need a workspace.
type WorkspaceParams struct {
	WorkspaceID string `json:"workspace_id" mcp:"required" description:"Workspace identifier owning the session"`
}

// HistoryParams defines parameters for runtime_history.
type HistoryParams struct {
	WorkspaceID string `json:"workspace_id" mcp:"required" description:"Workspace identifier owning the session"`

	Limit float64 `json:"limit,omitempty" description:"Maximum entries to return, most recent last (0 = all)"`
}
