package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/disclose/pkg/store"
)

var (
	mergeOutput string
)

var mergeCmd = &cobra.Command{
	Use:   "merge <source1.db> <source2.db> [source3.db...]",
	Short: "Merge multiple Disclose databases",
	Long: `Merge multiple Disclose databases into a single output database.

This is useful for combining plans built on different machines or from
different transcript sets.

Deduplication is automatic - duplicate transcripts, plans, and disclosures
are only stored once in the merged database.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.db", "Output database path")
}

func runMerge(cmd *cobra.Command, args []string) error {
	stats, err := store.Merge(store.MergeConfig{
		SourcePaths: args,
		DestPath:    mergeOutput,
	})
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merge complete:\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  Sources processed: %d\n", stats.SourcesProcessed)
	fmt.Fprintf(cmd.OutOrStdout(), "  Transcripts merged: %d\n", stats.TranscriptsMerged)
	fmt.Fprintf(cmd.OutOrStdout(), "  Plans merged: %d\n", stats.PlansMerged)
	fmt.Fprintf(cmd.OutOrStdout(), "  Disclosures merged: %d\n", stats.DisclosuresMerged)
	fmt.Fprintf(cmd.OutOrStdout(), "Output: %s\n", mergeOutput)

	return nil
}
