package process

import (
	"regexp"
	"strings"
)

// Textual state tracking. These scanners are advisory: they look at what the
// caller submitted, not at what the child process actually did. A variable
// exported inside a sourced script or an import hidden behind exec() will
// not be seen.

var (
	shellAssignRe = regexp.MustCompile(`(?m)^\s*(?:export\s+)?([A-Za-z_][A-Za-z0-9_]*)=(\S*)`)
	shellUnsetRe  = regexp.MustCompile(`(?m)^\s*unset\s+([A-Za-z_][A-Za-z0-9_]*)`)

	pyImportRe     = regexp.MustCompile(`(?m)^\s*import\s+([A-Za-z_][\w.]*(?:\s*,\s*[A-Za-z_][\w.]*)*)`)
	pyFromImportRe = regexp.MustCompile(`(?m)^\s*from\s+([A-Za-z_][\w.]*)\s+import\b`)
)

// scanShellAssignments extracts KEY=VALUE and export KEY=VALUE assignments
// from a shell command. Values are taken up to the first whitespace with
// surrounding quotes stripped.
func scanShellAssignments(command string) map[string]string {
	matches := shellAssignRe.FindAllStringSubmatch(command, -1)
	if len(matches) == 0 && !shellUnsetRe.MatchString(command) {
		return nil
	}

	assigns := make(map[string]string, len(matches))
	for _, m := range matches {
		assigns[m[1]] = trimQuotes(m[2])
	}
	for _, m := range shellUnsetRe.FindAllStringSubmatch(command, -1) {
		// Recorded as empty rather than deleted; the tracking map is merged
		// into earlier state by the caller.
		assigns[m[1]] = ""
	}
	return assigns
}

// scanPythonImports extracts top-level module names from import statements.
// `import a.b.c` and `from a.b import c` both record "a"; comma lists and
// aliases are handled.
func scanPythonImports(code string) []string {
	seen := make(map[string]struct{})

	for _, m := range pyImportRe.FindAllStringSubmatch(code, -1) {
		for _, name := range strings.Split(m[1], ",") {
			name = strings.TrimSpace(name)
			if i := strings.IndexAny(name, " \t"); i >= 0 {
				// drop "as alias"
				name = name[:i]
			}
			if base := moduleBase(name); base != "" {
				seen[base] = struct{}{}
			}
		}
	}
	for _, m := range pyFromImportRe.FindAllStringSubmatch(code, -1) {
		if base := moduleBase(m[1]); base != "" {
			seen[base] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}
	return sortedKeys(seen)
}

func moduleBase(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
