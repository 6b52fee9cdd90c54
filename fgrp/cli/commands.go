package cli

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/filegroup/fgrp/grouping"
	"github.com/ZanzyTHEbar/filegroup/fgrp/report"

	"github.com/spf13/cobra"
)

func (a *App) newSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search",
		Short: "List files whose path contains the pattern",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, bar := a.scanOptions(cmd)
			result, err := a.service.Search(cmd.Context(), opts)
			bar.Finish()
			if err != nil {
				return err
			}
			return a.render(report.FromSearch(result))
		},
	}
}

func (a *App) newCountCommand() *cobra.Command {
	var byDir bool
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count files whose path contains the pattern",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, bar := a.scanOptions(cmd)
			result, err := a.service.Count(cmd.Context(), opts, byDir)
			bar.Finish()
			if err != nil {
				return err
			}
			return a.render(report.FromCount(result))
		},
	}
	cmd.Flags().BoolVar(&byDir, "by-dir", false, "tally matching files per directory")
	return cmd
}

func (a *App) newDedupeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Group files with identical contents",
		Long: fmt.Sprintf(`Group files with identical contents by hashing every matching file.
Supported algorithms: %s. Files with equal digests are reported as
duplicates; nothing is deleted or moved.`, strings.Join(grouping.Algorithms(), ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, bar := a.scanOptions(cmd)
			result, err := a.service.Dedupe(cmd.Context(), opts)
			bar.Finish()
			if err != nil {
				return err
			}
			return a.render(report.FromDedupe(result))
		},
	}
	cmd.Flags().StringP("algorithm", "a", grouping.AlgorithmSHA256, "digest algorithm")
	a.bind("scan.algorithm", cmd.Flags().Lookup("algorithm"))
	return cmd
}

func (a *App) newSessionCommand() *cobra.Command {
	var minutes, weekday string
	cmd := &cobra.Command{
		Use:   "session",
		Short: "List files modified at or after a session boundary",
		Long: `List files modified at or after a session boundary. The boundary is
either N minutes before now (--minutes) or midnight UTC of the most recent
given weekday, today included (--weekday).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// flags replace the configured policy as a whole
			if !cmd.Flags().Changed("minutes") && !cmd.Flags().Changed("weekday") {
				minutes, weekday = a.cfg.Session.Minutes, a.cfg.Session.Weekday
			}
			boundary, err := a.resolver.Resolve(minutes, weekday)
			if err != nil {
				return err
			}
			a.logger.Debug().
				Time("boundary", boundary.At).
				Str("policy", string(boundary.Policy)).
				Msg("Session boundary resolved")

			opts, bar := a.scanOptions(cmd)
			result, err := a.service.Session(cmd.Context(), opts, boundary)
			bar.Finish()
			if err != nil {
				return err
			}
			return a.render(report.FromSession(result))
		},
	}
	cmd.Flags().StringVarP(&minutes, "minutes", "m", "", "session started this many minutes ago")
	cmd.Flags().StringVar(&weekday, "weekday", "", "session started at midnight UTC of the last such weekday")
	return cmd
}

func (a *App) newTimesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "times",
		Short: "Group files sharing an exact modification time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, bar := a.scanOptions(cmd)
			result, err := a.service.Times(cmd.Context(), opts)
			bar.Finish()
			if err != nil {
				return err
			}
			return a.render(report.FromTimes(result))
		},
	}
}
