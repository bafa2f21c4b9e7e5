package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aki/runpad/internal/runtime"
)

// registerTools registers the runtime session tools.
func (s *Server) registerTools() error {
	specs := []struct {
		name        string
		description string
		params      interface{}
		handler     func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
	}{
		{
			name:        "runtime_exec",
			description: "Execute a command in the workspace's persistent runtime session. State (variables, working directory, imports) persists across calls.",
			params:      ExecParams{},
			handler:     s.handleExec,
		},
		{
			name:        "runtime_eval",
			description: "Evaluate interpreter code in the workspace's persistent runtime session.",
			params:      EvalParams{},
			handler:     s.handleEval,
		},
		{
			name:        "runtime_state",
			description: "Inspect the workspace session's tracked state: environment variables, working directory, imports, and recent history.",
			params:      WorkspaceParams{},
			handler:     s.handleState,
		},
		{
			name:        "runtime_reset",
			description: "Reset the workspace session to a clean slate without terminating it.",
			params:      WorkspaceParams{},
			handler:     s.handleReset,
		},
		{
			name:        "runtime_history",
			description: "Return the workspace session's command history, most recent last.",
			params:      HistoryParams{},
			handler:     s.handleHistory,
		},
		{
			name:        "runtime_terminate",
			description: "Terminate the workspace's runtime session and release its processes. A later call recreates the session fresh.",
			params:      WorkspaceParams{},
			handler:     s.handleTerminate,
		},
	}

	for _, spec := range specs {
		opts, err := WithStructOptions(spec.description, spec.params)
		if err != nil {
			return fmt.Errorf("invalid params for %s: %w", spec.name, err)
		}
		s.mcpServer.AddTool(mcp.NewTool(spec.name, opts...), spec.handler)
	}
	return nil
}

func (s *Server) handleExec(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ExecParams
	if err := UnmarshalArgs(request, &params); err != nil {
		return nil, err
	}
	if params.Command == "" {
		return nil, fmt.Errorf("command is required")
	}

	language := runtime.Language(params.Language)
	if params.Language == "" {
		language = runtime.LanguageShell
	}

	sess, err := s.manager.GetOrCreate(params.WorkspaceID)
	if err != nil {
		return nil, err
	}

	out, err := sess.Exec(ctx, runtime.Command{
		Command:  params.Command,
		Language: language,
		Timeout:  time.Duration(params.TimeoutSeconds * float64(time.Second)),
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(out)
}

func (s *Server) handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params EvalParams
	if err := UnmarshalArgs(request, &params); err != nil {
		return nil, err
	}
	if params.Code == "" {
		return nil, fmt.Errorf("code is required")
	}

	sess, err := s.manager.GetOrCreate(params.WorkspaceID)
	if err != nil {
		return nil, err
	}

	out, err := sess.Eval(ctx, params.Code)
	if err != nil {
		return nil, err
	}
	return jsonResult(out)
}

func (s *Server) handleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params WorkspaceParams
	if err := UnmarshalArgs(request, &params); err != nil {
		return nil, err
	}

	sess, err := s.manager.GetOrCreate(params.WorkspaceID)
	if err != nil {
		return nil, err
	}

	state, err := sess.State(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(state)
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params WorkspaceParams
	if err := UnmarshalArgs(request, &params); err != nil {
		return nil, err
	}

	sess, err := s.manager.GetOrCreate(params.WorkspaceID)
	if err != nil {
		return nil, err
	}

	if err := sess.Reset(ctx); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("session for workspace %s reset", params.WorkspaceID)), nil
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params HistoryParams
	if err := UnmarshalArgs(request, &params); err != nil {
		return nil, err
	}

	sess, err := s.manager.GetOrCreate(params.WorkspaceID)
	if err != nil {
		return nil, err
	}

	entries, err := sess.History(int(params.Limit))
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []runtime.HistoryEntry{}
	}
	return jsonResult(entries)
}

func (s *Server) handleTerminate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params WorkspaceParams
	if err := UnmarshalArgs(request, &params); err != nil {
		return nil, err
	}

	// Terminating a workspace with no session is a no-op, not an error.
	if sess, ok := s.manager.Get(params.WorkspaceID); ok {
		sess.Terminate(ctx)
	}
	return textResult(fmt.Sprintf("session for workspace %s terminated", params.WorkspaceID)), nil
}

// jsonResult wraps a value as an indented JSON text content block.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}
