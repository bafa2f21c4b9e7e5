package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aki/runpad/internal/cli/ui"
	"github.com/aki/runpad/internal/config"
	"github.com/aki/runpad/internal/runtime"
	"github.com/aki/runpad/internal/session"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive local session",
	Long: `Drive a persistent runtime session from the terminal. Commands run in
the shell by default; switch languages with :lang. State persists across
commands exactly as it does for MCP callers.

Meta commands:
  :lang shell|interpreter   switch the execution language
  :state                    show tracked session state
  :history                  show command history
  :sessions                 list active sessions
  :reset                    reset the session to a clean slate
  :quit                     exit`,
	RunE: runRepl,
}

var replWorkspace string

func init() {
	replCmd.Flags().StringVarP(&replWorkspace, "workspace", "w", "default", "Workspace identifier for the session")
}

func runRepl(cmd *cobra.Command, args []string) error {
	root, err := config.FindProjectRoot()
	if err != nil {
		return err
	}
	cfg, err := config.NewManager(root).Load()
	if err != nil {
		return err
	}
	// The REPL runs sessions where the user stands instead of under the
	// managed workspace root.
	cfg.Runtime.WorkspaceRoot = ""

	log := CreateQuietLogger()
	manager := session.NewManager(cfg.SessionConfig(), log, nil)
	ctx := cmd.Context()
	defer manager.TerminateAll(context.Background())

	sess, err := manager.GetOrCreate(replWorkspace)
	if err != nil {
		return err
	}

	language := runtime.LanguageShell
	ui.Info("runpad repl, workspace %q. Type :quit to exit.", replWorkspace)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Printf("%s ", ui.BoldStyle.Render(string(language)+">"))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			done, err := runReplMeta(ctx, manager, sess, line, &language)
			if err != nil {
				ui.Error("%v", err)
			}
			if done {
				return nil
			}
			continue
		}

		out, err := sess.Exec(ctx, runtime.Command{Command: line, Language: language})
		if err != nil {
			ui.Error("%v", err)
			continue
		}
		ui.PrintOutput(out)
	}
}

// runReplMeta handles a ":"-prefixed meta command. It reports whether the
// loop should exit.
func runReplMeta(ctx context.Context, manager *session.Manager, sess *session.Session, line string, language *runtime.Language) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true, nil

	case ":lang":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: :lang shell|interpreter")
		}
		next := runtime.Language(fields[1])
		if !next.Valid() {
			return false, fmt.Errorf("unknown language: %s", fields[1])
		}
		*language = next
		ui.Info("language set to %s", next)
		return false, nil

	case ":state":
		st, err := sess.State(ctx)
		if err != nil {
			return false, err
		}
		ui.PrintState(st)
		return false, nil

	case ":history":
		entries, err := sess.History(0)
		if err != nil {
			return false, err
		}
		ui.PrintHistory(entries)
		return false, nil

	case ":sessions":
		ids := manager.List()
		infos := make([]session.Info, 0, len(ids))
		for _, id := range ids {
			if s, ok := manager.Get(id); ok {
				infos = append(infos, s.Describe())
			}
		}
		ui.PrintSessionList(infos)
		return false, nil

	case ":reset":
		if err := sess.Reset(ctx); err != nil {
			return false, err
		}
		ui.Success("session reset")
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s", fields[0])
	}
}
