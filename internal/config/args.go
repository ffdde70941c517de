package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Arguments supplies the uxplay command line from a plain text file the user
// edits. A missing or unparseable file yields no extra arguments; the
// supervisor must still be able to start.
type Arguments struct {
	Path string
}

// EnsureExists creates an empty arguments file (and its directory) if absent.
func (a Arguments) EnsureExists() error {
	if err := os.MkdirAll(filepath.Dir(a.Path), 0o750); err != nil {
		return err
	}
	if _, err := os.Stat(a.Path); os.IsNotExist(err) {
		if err := os.WriteFile(a.Path, nil, 0o600); err != nil {
			return err
		}
		slog.Info("created empty arguments file", "path", a.Path)
	}
	return nil
}

// Read returns the argument list. Errors are logged and degrade to an empty
// list so a broken file never blocks a start.
func (a Arguments) Read() []string {
	b, err := os.ReadFile(a.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to read arguments file", "path", a.Path, "error", err)
		} else {
			slog.Warn("arguments file missing, starting without custom args", "path", a.Path)
		}
		return nil
	}
	args, err := splitArgs(strings.TrimSpace(string(b)))
	if err != nil {
		slog.Error("could not parse arguments file", "path", a.Path, "error", err)
		return nil
	}
	return args
}

// splitArgs tokenizes a command-line fragment with shell-like quoting rules:
// whitespace separates tokens, single and double quotes group, a backslash
// escapes the next character outside single quotes.
func splitArgs(s string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inTok   bool
		quote   rune // 0, '\'' or '"'
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inTok = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inTok = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inTok {
				args = append(args, cur.String())
				cur.Reset()
				inTok = false
			}
		default:
			cur.WriteRune(r)
			inTok = true
		}
	}
	if escaped || quote != 0 {
		return nil, fmt.Errorf("unterminated quoting in %q", s)
	}
	if inTok {
		args = append(args, cur.String())
	}
	return args, nil
}
