package ui

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aki/runpad/internal/runtime"
	"github.com/aki/runpad/internal/session"
)

// Print functions for consistent output

func Error(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorIcon, ErrorStyle.Render(fmt.Sprintf(format, args...)))
}

func Success(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", SuccessIcon, SuccessStyle.Render(fmt.Sprintf(format, args...)))
}

func Info(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", InfoIcon, InfoStyle.Render(fmt.Sprintf(format, args...)))
}

func Warning(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", WarningIcon, WarningStyle.Render(fmt.Sprintf(format, args...)))
}

// FormatDuration formats a duration into a human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return "< 1m"
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

// PrintOutput displays one command's captured output.
func PrintOutput(out runtime.Output) {
	if out.Stdout != "" {
		fmt.Print(out.Stdout)
		if !strings.HasSuffix(out.Stdout, "\n") {
			fmt.Println()
		}
	}
	if out.Stderr != "" {
		fmt.Fprint(os.Stderr, StderrStyle.Render(out.Stderr))
		if !strings.HasSuffix(out.Stderr, "\n") {
			fmt.Fprintln(os.Stderr)
		}
	}
	if out.Err != "" {
		Error("%s", out.Err)
	} else if out.ExitCode != nil && *out.ExitCode != 0 {
		Warning("exit %d", *out.ExitCode)
	}
}

// PrintState displays a session's tracked state.
func PrintState(st runtime.State) {
	fmt.Printf("%s %s\n", DimStyle.Render("Working dir:"), st.WorkingDir)

	if len(st.EnvVars) > 0 {
		keys := make([]string, 0, len(st.EnvVars))
		for k := range st.EnvVars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Println(DimStyle.Render("Environment:"))
		for _, k := range keys {
			fmt.Printf("  %s=%s\n", k, st.EnvVars[k])
		}
	}
	if len(st.Imports) > 0 {
		fmt.Printf("%s %s\n", DimStyle.Render("Imports:"), strings.Join(st.Imports, ", "))
	}
}

// PrintHistory displays history entries, most recent last, using a table.
func PrintHistory(entries []runtime.HistoryEntry) {
	if len(entries) == 0 {
		Info("No history")
		return
	}

	tbl := NewTable("WHEN", "LANG", "COMMAND", "EXIT", "TOOK")
	for _, e := range entries {
		when := time.UnixMilli(e.Timestamp).Format("15:04:05")
		exit := "-"
		if e.ExitCode != nil {
			exit = fmt.Sprintf("%d", *e.ExitCode)
		}
		cmd := e.Command
		if len(cmd) > 60 {
			cmd = cmd[:57] + "..."
		}
		tbl.AddRow(when, e.Language, cmd, exit, fmt.Sprintf("%dms", e.DurationMS))
	}
	tbl.Print()
}

// PrintSessionList displays active sessions using a table.
func PrintSessionList(infos []session.Info) {
	if len(infos) == 0 {
		Info("No active sessions")
		return
	}

	tbl := NewTable("WORKSPACE", "DIR", "BRANCH", "IDLE")
	for _, info := range infos {
		branch := info.GitBranch
		if branch == "" {
			branch = "-"
		}
		dir := info.WorkingDir
		if dir == "" {
			dir = "."
		}
		tbl.AddRow(info.WorkspaceID, dir, branch, FormatDuration(time.Since(info.LastActivity)))
	}

	PrintSectionHeader(SessionIcon, "Sessions", len(infos))
	tbl.Print()
	fmt.Println()
}
