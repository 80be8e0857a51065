package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/timeflip-logger/internal/config"
	"github.com/chaz8081/timeflip-logger/internal/store"
)

func newFacetsCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "facets",
		Short: "Print the facet to activity table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfigFile(f.configPath)
			if err != nil {
				return err
			}
			m, err := cfg.FacetMap()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for id, name := range m.Names() {
				if name == "" {
					name = "-"
				}
				_, _ = fmt.Fprintf(out, "%2d  %s\n", id, name)
			}
			return nil
		},
	}
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a default config file if none exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.WriteDefault()
			if err != nil {
				return err
			}
			if path == "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "config already exists at %s\n", config.DefaultConfigPath())
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}

func newReportCmd(f *flags) *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize time per activity from the SQLite database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfigFile(f.configPath)
			if err != nil {
				return err
			}
			if cfg.SQLite.Path == "" {
				return fmt.Errorf("sqlite.path is not configured")
			}
			db, err := store.OpenSQLite(cfg.SQLite.Path, cfg.Address)
			if err != nil {
				return err
			}
			defer db.Close()

			to := time.Now()
			totals, err := db.Totals(cmd.Context(), to.Add(-since), to)
			if err != nil {
				return err
			}
			writeReport(cmd, totals)
			return nil
		},
	}
	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "report intervals that started within this window")
	return cmd
}

func writeReport(cmd *cobra.Command, totals map[string]int64) {
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return totals[names[i]] > totals[names[j]] })

	out := cmd.OutOrStdout()
	for _, name := range names {
		label := name
		if label == "" {
			label = "(none)"
		}
		_, _ = fmt.Fprintf(out, "%-12s %s\n", label, (time.Duration(totals[name]) * time.Second).String())
	}
}
