package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/disclose/pkg/extract"
	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/profile"
	"github.com/praetorian-inc/disclose/pkg/sarif"
	"github.com/praetorian-inc/disclose/pkg/store"
	"github.com/praetorian-inc/disclose/pkg/types"
)

var (
	reportStorePath  string
	reportTranscript string
	reportFormat     string
	reportColor      string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from stored plans",
	Long:  "Read disclosure plans from a database and output them",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportStorePath, "store", "", "Database path (default: store.path from config)")
	reportCmd.Flags().StringVar(&reportTranscript, "transcript", "", "Only report plans for this transcript ID")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, sarif")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	storePath := firstNonEmpty(reportStorePath, cfg.Store.Path)

	// Check if it's :memory: (invalid for report)
	if storePath == ":memory:" {
		return fmt.Errorf("cannot report from in-memory store")
	}
	if _, err := os.Stat(storePath); err != nil {
		return fmt.Errorf("store not found: %s", storePath)
	}

	s, err := store.New(store.Config{Path: storePath})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	var plans []*plan.Plan
	if reportTranscript != "" {
		id, err := types.ParseTranscriptID(reportTranscript)
		if err != nil {
			return fmt.Errorf("--transcript: %w", err)
		}
		plans, err = s.GetPlansForTranscript(id)
		if err != nil {
			return fmt.Errorf("retrieving plans: %w", err)
		}
	} else {
		plans, err = s.GetPlans()
		if err != nil {
			return fmt.Errorf("retrieving plans: %w", err)
		}
	}

	switch reportFormat {
	case "json":
		return writeJSON(cmd, plans)
	case "human":
		return outputReportHuman(cmd, plans, storePath)
	case "sarif":
		return outputReportSARIF(cmd, plans)
	default:
		return fmt.Errorf("unknown output format: %s", reportFormat)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func outputReportHuman(cmd *cobra.Command, plans []*plan.Plan, storePath string) error {
	s, err := stylesFor(reportColor)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s\n", s.heading.Sprint("=== Disclose Report ==="))
	fmt.Fprintf(out, "Store: %s\n", storePath)
	fmt.Fprintf(out, "Total plans: %d\n", len(plans))

	for i, p := range plans {
		fmt.Fprintf(out, "\n%s (%s %s) %s\n",
			s.heading.Sprintf("Plan %d/%d", i+1, len(plans)),
			s.label.Sprint("transcript"),
			s.id.Sprint(p.TranscriptID.Hex()),
			s.metadata.Sprint(p.CreatedAt.Format("2006-01-02 15:04:05Z07:00")))
		printPlan(out, s, p, nil)
	}
	return nil
}

// outputReportSARIF outputs stored plans in SARIF 2.1.0 format. Profiles that are not
// builtin are described by their ID alone.
func outputReportSARIF(cmd *cobra.Command, plans []*plan.Plan) error {
	builtin, err := extract.BuiltinProfiles()
	if err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}

	report := sarif.NewReport()
	for _, p := range plans {
		prof, ok := profile.Find(builtin, p.ProfileID)
		if !ok {
			prof = &types.Profile{ID: p.ProfileID, Name: p.ProfileID}
		}
		report.AddRule(prof)
		report.AddPlan(p, nil)
	}

	jsonBytes, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("serializing SARIF: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(jsonBytes); err != nil {
		return fmt.Errorf("writing SARIF output: %w", err)
	}
	return nil
}
