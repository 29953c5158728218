package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelharvest/internal/deps"
	"reelharvest/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "check [manifest-root]",
		Short: "Check directories, binaries and Apify credentials",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := preflight.Options{Remote: !offline}
			if len(args) == 1 {
				root, err := expandArg(args[0])
				if err != nil {
					return err
				}
				opts.Roots = []string{root}
			}
			results := preflight.RunAll(cmd.Context(), cfg, opts)
			color := shouldColorize(cmd.OutOrStdout())
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := colorize(color, ansiGreen, "ok")
				if !r.Passed {
					status = colorize(color, ansiRed, "fail")
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			if missing := deps.Missing(preflight.CheckSystemDeps(cfg)); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, m := range missing {
					names = append(names, m.Command)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Missing tools: %s (install them or set media.ffmpeg_binary / media.ffprobe_binary)\n", strings.Join(names, ", "))
			}
			return preflight.FirstFailure(results)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the network call that validates the Apify token")
	return cmd
}
