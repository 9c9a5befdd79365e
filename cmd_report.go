package main

import (
	"io"
	"path/filepath"
	"strings"

	"clinicbench/report"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report FILE.json",
	Short: "Prints a saved report and rewrites its CSV and Markdown files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return rerender(args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func rerender(path string, out io.Writer) error {
	saved, err := report.LoadJSON(path)
	if err != nil {
		return err
	}

	reporter := report.FromReport(saved, filepath.Dir(path))
	reporter.Print(out)
	reporter.PrintRankings(out)

	prefix := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if cfg.Outputs.CSV {
		if _, err := reporter.SaveCSV(prefix + ".csv"); err != nil {
			return err
		}
	}
	if cfg.Outputs.Markdown {
		if _, err := reporter.SaveMarkdown(prefix + ".md"); err != nil {
			return err
		}
	}
	return nil
}
