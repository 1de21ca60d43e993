package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

func indexCmd() *cobra.Command {
	var swapped bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Classify every conversation and report what was found",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(os.Stderr, "Classifying export...\n")
			fmt.Fprintf(os.Stderr, "  Messages: %s\n", a.layout.MessagesFile)
			fmt.Fprintf(os.Stderr, "  Media:    %s\n", orDash(a.layout.MediaDir))
			fmt.Fprintf(os.Stderr, "  Viewer:   %s\n", a.lib.ViewerID)

			start := time.Now()
			stats, err := a.lib.IndexAll(context.Background(), swapped)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Done in %s. %s\n", time.Since(start).Round(time.Millisecond), stats)

			counts, err := a.lib.DB.KindCounts(swapped)
			if err != nil {
				return err
			}
			printKindCounts(counts)
			return nil
		},
	}

	cmd.Flags().BoolVar(&swapped, "swap", false, "Classify from the other participant's side")

	return cmd
}

func printKindCounts(counts map[string]int) {
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("  %-7s %d\n", k, counts[k])
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
