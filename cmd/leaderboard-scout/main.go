package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ExitCoder lets a RunE error carry a specific process exit code
// (0 success is implicit; 1 fatal, 2 usage, per spec.md's CLI contract).
type ExitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, msg: fmt.Sprintf(format, args...)}
}

func fatalError(format string, args ...any) error {
	return &exitError{code: 1, msg: fmt.Sprintf(format, args...)}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if ex, ok := err.(ExitCoder); ok {
			os.Exit(ex.ExitCode())
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var keywordsPath string

	cmd := &cobra.Command{
		Use:           "leaderboard-scout",
		Short:         "Resilient, multi-strategy leaderboard extraction engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", ".env", "path to a .env-style config file (currently informational; real config comes from the environment)")
	cmd.PersistentFlags().StringVar(&keywordsPath, "keywords", "keywords.txt", "path to the leaderboard-keyword cache")

	cmd.AddCommand(newSingleCmd(&keywordsPath))
	cmd.AddCommand(newBatchCmd(&keywordsPath))
	cmd.AddCommand(newServeCmd(&keywordsPath))
	cmd.CompletionOptions.DisableDefaultCmd = true
	return cmd
}
