package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corpeningc/kpatch/internal/patch"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive kpatch shell",
	Long:  "Launch an interactive shell for running kpatch commands without repeating the 'kpatch' prefix",
	Run: func(cmd *cobra.Command, args []string) {
		runInteractiveShell(cmd)
	},
}

func runInteractiveShell(cmd *cobra.Command) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	historyFile := getHistoryFilePath()
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	line.SetCompleter(completeLine)
	session := newShellSession(cmd.Context())

	fmt.Println("kpatch interactive shell. Type 'exit' or press Ctrl+D to quit.")
	fmt.Println("Type 'help' to see available commands.")

	for {
		input, err := line.Prompt(shellPrompt())
		if err != nil {
			// EOF (Ctrl+D) or Ctrl+C
			fmt.Println()
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if quit, handled := handleSpecialCommand(input); handled {
			if quit {
				break
			}
			continue
		}

		// Errors are reported but do not end the shell.
		if err := session.execute(input); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if f, err := os.Create(historyFile); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}

func shellPrompt() string {
	if targetDir == "" {
		return "kpatch> "
	}
	return fmt.Sprintf("[%s]> ", filepath.Base(filepath.Clean(targetDir)))
}

// handleSpecialCommand deals with shell builtins. quit asks the shell to exit.
func handleSpecialCommand(input string) (quit, handled bool) {
	switch strings.ToLower(input) {
	case "exit", "quit":
		fmt.Println("Goodbye!")
		return true, true
	case "clear", "cls":
		fmt.Print("\033[H\033[2J")
		return false, true
	case "help":
		_ = rootCmd.Help()
		return false, true
	}
	return false, false
}

type flagState struct {
	value   string
	changed bool
}

// shellSession runs commands typed into the shell. Cobra keeps flag values
// between executions, so every command starts from the root flags as they
// were when the shell started and from default command flags.
type shellSession struct {
	ctx   context.Context
	flags map[string]flagState
}

func newShellSession(ctx context.Context) *shellSession {
	if ctx == nil {
		ctx = context.Background()
	}
	flags := make(map[string]flagState)
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		flags[f.Name] = flagState{value: f.Value.String(), changed: f.Changed}
	})
	return &shellSession{ctx: ctx, flags: flags}
}

func (s *shellSession) execute(input string) error {
	parts := parseCommandLine(input)
	if len(parts) == 0 {
		return nil
	}
	if parts[0] == "shell" {
		fmt.Println("Already in the kpatch shell.")
		return nil
	}

	s.resetFlags()
	rootCmd.SetArgs(parts)
	defer rootCmd.SetArgs([]string{})
	return rootCmd.ExecuteContext(s.ctx)
}

func (s *shellSession) resetFlags() {
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if saved, ok := s.flags[f.Name]; ok {
			_ = f.Value.Set(saved.value)
			f.Changed = saved.changed
		}
	})
	resetLocalFlags(rootCmd)
}

func resetLocalFlags(c *cobra.Command) {
	c.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetLocalFlags(sub)
	}
}

// parseCommandLine splits on spaces, keeping quoted sections together.
func parseCommandLine(input string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, char := range input {
		switch {
		case (char == '"' || char == '\'') && !inQuotes:
			inQuotes = true
			quoteChar = char
		case char == quoteChar && inQuotes:
			inQuotes = false
			quoteChar = 0
		case char == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

func getCommandNames() []string {
	var names []string
	for _, c := range rootCmd.Commands() {
		if c.Name() == "shell" || c.Hidden {
			continue
		}
		names = append(names, c.Name())
	}
	return names
}

// completeLine completes command names for the first word. After that it
// completes paths: directories after --target or --patches-dir, and patch
// files or directories as apply arguments.
func completeLine(line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 || (len(fields) == 1 && !strings.HasSuffix(line, " ")) {
		prefix := strings.ToLower(strings.TrimSpace(line))
		var c []string
		for _, name := range getCommandNames() {
			if strings.HasPrefix(name, prefix) {
				c = append(c, name)
			}
		}
		return c
	}

	head, word := line, ""
	if !strings.HasSuffix(line, " ") {
		word = fields[len(fields)-1]
		head = strings.TrimSuffix(line, word)
		fields = fields[:len(fields)-1]
	}

	var candidates []string
	switch prev := fields[len(fields)-1]; {
	case prev == "-t" || prev == "--target":
		candidates = completePath(word, true)
		if word == "" && cfg != nil {
			trees, _ := listTrees(cfg.Paths.KernelsDir)
			candidates = append(trees, candidates...)
		}
	case prev == "-p" || prev == "--patches-dir":
		candidates = completePath(word, true)
	case fields[0] == "apply":
		candidates = completePath(word, false)
	}

	for i, c := range candidates {
		candidates[i] = head + c
	}
	return candidates
}

func completePath(word string, dirsOnly bool) []string {
	matches, err := filepath.Glob(word + "*")
	if err != nil {
		return nil
	}

	var out []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		switch {
		case info.IsDir():
			out = append(out, m+string(filepath.Separator))
		case !dirsOnly && strings.EqualFold(filepath.Ext(m), patch.Extension):
			out = append(out, m)
		}
	}
	return out
}

func getHistoryFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".kpatch_history"
	}
	return filepath.Join(homeDir, ".kpatch_history")
}
