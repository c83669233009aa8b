package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/disclose/pkg/store"
)

// newMergeCmd creates a fresh merge command for testing
func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:  "merge <source1.db> <source2.db> [source3.db...]",
		Args: cobra.MinimumNArgs(2),
		RunE: runMerge,
	}
	cmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.db", "Output database path")
	return cmd
}

func TestMergeCmd_RequiresMinimumArgs(t *testing.T) {
	cmd := newMergeCmd()
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	assert.ErrorContains(t, err, "requires at least 2 arg")

	cmd = newMergeCmd()
	cmd.SetArgs([]string{"source1.db"})
	err = cmd.Execute()
	assert.ErrorContains(t, err, "requires at least 2 arg")
}

func TestMergeCmd_MergesTwoDatabases(t *testing.T) {
	dir := t.TempDir()
	transcripts := t.TempDir()

	// Each source holds a different transcript
	var sources []string
	for i, price := range []string{"3500.12", "3600.00"} {
		path := writeTranscript(t, transcripts, "t"+string(rune('a'+i))+".json", testSent,
			strings.Replace(testReceived, "3500.12", price, 1))

		resetExtractFlags()
		extractSave = true
		extractStorePath = filepath.Join(dir, "source"+string(rune('1'+i))+".db")
		_, _, err := runExtractCmd(t, path)
		require.NoError(t, err)
		sources = append(sources, extractStorePath)
	}

	outputPath := filepath.Join(dir, "merged.db")
	var stdout bytes.Buffer
	cmd := newMergeCmd()
	cmd.SetOut(&stdout)
	cmd.SetArgs(append(sources, "-o", outputPath))
	require.NoError(t, cmd.Execute())

	output := stdout.String()
	assert.Contains(t, output, "Merge complete:")
	assert.Contains(t, output, "Sources processed: 2")
	assert.Contains(t, output, "Transcripts merged: 2")
	assert.Contains(t, output, "Plans merged: 2")
	assert.Contains(t, output, "Disclosures merged: 12")
	assert.Contains(t, output, "Output: "+outputPath)

	merged, err := store.New(store.Config{Path: outputPath})
	require.NoError(t, err)
	defer merged.Close()

	plans, err := merged.GetPlans()
	require.NoError(t, err)
	assert.Len(t, plans, 2)
}

func TestMergeCmd_MissingSource(t *testing.T) {
	dir := t.TempDir()
	cmd := newMergeCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(dir, "a.db"), filepath.Join(dir, "b.db"), "-o", filepath.Join(dir, "out.db")})
	assert.ErrorContains(t, cmd.Execute(), "merge failed")
}
