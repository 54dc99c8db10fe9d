package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/spf13/cobra"
)

func newSingleCmd(keywordsPath *string) *cobra.Command {
	var production bool

	cmd := &cobra.Command{
		Use:   "single <url>",
		Short: "Process one site through the extraction engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			u, err := url.Parse(target)
			if err != nil || u.Hostname() == "" {
				return usageError("single: %q is not a valid absolute URL", target)
			}

			rt, err := newRuntime(*keywordsPath, production)
			if err != nil {
				return err
			}
			defer rt.Close()

			slog.Info("single run starting", "domain", u.Hostname(), "url", target)
			run := rt.orch.RunSite(context.Background(), u.Hostname(), target, nil)
			rt.persist(run)

			out, _ := json.MarshalIndent(run, "", "  ")
			fmt.Println(string(out))

			if len(run.Results) == 0 {
				return fatalError("single: no leaderboard extracted for %s", u.Hostname())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&production, "production", false, "force headless production mode")
	return cmd
}
