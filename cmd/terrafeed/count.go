package main

import (
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Noofbiz/terraFeed/datasets"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count the samples in every dataset split",
	Long: `Count drains the training, testing and validation splits and reports
how many samples each contains. Training loops need these totals up
front to size their epochs.`,
	RunE: runCount,
}

func init() {
	rootCmd.AddCommand(countCmd)
}

func runCount(cmd *cobra.Command, args []string) error {
	splits := []struct {
		name    string
		pattern string
	}{
		{"training", cfg.TrainingPattern()},
		{"testing", cfg.TestingPattern()},
		{"validation", cfg.ValidationPattern()},
	}
	for _, split := range splits {
		ds, err := datasets.Counting(split.pattern, cfg)
		if err != nil {
			return fmt.Errorf("failed to open %s records: %w", split.name, err)
		}
		bar := progressbar.Default(-1, fmt.Sprintf("counting %s", split.name))
		n, err := datasets.Count(ds, func(int64) { bar.Add(1) })
		bar.Finish()
		ds.Close()
		if err != nil {
			return fmt.Errorf("failed to count %s records: %w", split.name, err)
		}
		slog.Info("split counted", "split", split.name, "samples", n)
	}
	return nil
}
