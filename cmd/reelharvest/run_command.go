package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		reference   string
		column      string
		media       bool
		noMedia     bool
		topK        int
		maxComments int
		dryRun      bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "run <manifest-root>",
		Short: "Harvest every manifest entry under a directory tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			root, err := expandArg(args[0])
			if err != nil {
				return err
			}

			req := requestFromConfig(cfg, root)
			if cmd.Flags().Changed("reference") {
				req.ReferenceFile = strings.TrimSpace(reference)
			}
			if cmd.Flags().Changed("reference-column") {
				req.ReferenceColumn = strings.TrimSpace(column)
			}
			if media {
				req.Media = true
			}
			if noMedia {
				req.Media = false
			}
			req.TopK = topK
			req.MaxComments = maxComments
			req.DryRun = dryRun

			result, runErr := executeRun(cmd.Context(), cfg, req, logger)
			if dryRun && runErr == nil {
				if jsonOutput {
					return writeJSON(cmd, entryViews(result.Entries))
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderEntries(result.Entries, len(result.Dropped), len(result.Skipped)))
				return nil
			}
			if result.Ran {
				if jsonOutput {
					if err := writeJSON(cmd, summaryView(result.Summary)); err != nil {
						return err
					}
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), renderSummary(result.Summary, shouldColorize(cmd.OutOrStdout())))
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&reference, "reference", "", "Restrict the batch to unit IDs listed in this xlsx/json/yaml file")
	cmd.Flags().StringVar(&column, "reference-column", "", "Column holding unit IDs in the reference file")
	cmd.Flags().BoolVar(&media, "media", false, "Also cache video and cover and sample frames")
	cmd.Flags().BoolVar(&noMedia, "no-media", false, "Skip media harvesting even if enabled in config")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Override harvest.top_k")
	cmd.Flags().IntVar(&maxComments, "max-comments", 0, "Override harvest.max_comments")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the entries that would be harvested and exit")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	cmd.MarkFlagsMutuallyExclusive("media", "no-media")
	return cmd
}
