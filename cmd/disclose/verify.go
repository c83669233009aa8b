package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/disclose/pkg/codec"
	"github.com/praetorian-inc/disclose/pkg/extract"
	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/profile"
	"github.com/praetorian-inc/disclose/pkg/store"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
	"github.com/praetorian-inc/disclose/pkg/verify"
)

var (
	verifyPlansPath    string
	verifyStorePath    string
	verifyPlanID       string
	verifyProfilesPath string
	verifyProfileIDs   []string
	verifyExtract      bool
	verifyWorkers      int
	verifyFormat       string
	verifyColor        string
)

var verifyCmd = &cobra.Command{
	Use:   "verify <transcript.json>",
	Short: "Check disclosure plans against a transcript",
	Long: `Re-check every disclosure of one or more plans against the transcript they were
built from: each span must lie inside the transcript, hash to its fingerprint and
still read as the field it is labelled with.

Plans come from --plans (a CBOR sequence written by 'extract --format cbor', or the
JSON written by 'extract --format json'), from a database (--store, optionally
--plan-id), or are built from the transcript when neither is given.

With --extract, each profile's extract patterns are applied to the redacted
transcript, where hidden bytes are zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyPlansPath, "plans", "", "Plans file (.cbor sequence or extract JSON)")
	verifyCmd.Flags().StringVar(&verifyStorePath, "store", "", "Database to read plans from")
	verifyCmd.Flags().StringVar(&verifyPlanID, "plan-id", "", "Verify a single stored plan")
	verifyCmd.Flags().StringVar(&verifyProfilesPath, "profiles", "", "Path to custom profiles file (YAML or JSONC)")
	verifyCmd.Flags().StringSliceVarP(&verifyProfileIDs, "profile", "p", nil, "Profile IDs to build plans with when no plans are given")
	verifyCmd.Flags().BoolVar(&verifyExtract, "extract", true, "Apply profile extract patterns to the redacted transcript")
	verifyCmd.Flags().IntVar(&verifyWorkers, "workers", 4, "Number of concurrent verification workers")
	verifyCmd.Flags().StringVar(&verifyFormat, "format", "human", "Output format: human, json")
	verifyCmd.Flags().StringVar(&verifyColor, "color", "auto", "Color output: auto, always, never")
}

// planVerification is the verify output for one plan.
type planVerification struct {
	PlanID       string                           `json:"plan_id"`
	ProfileID    string                           `json:"profile_id"`
	Results      []*types.VerificationResult      `json:"results"`
	Summary      map[types.VerificationStatus]int `json:"summary"`
	Fields       []verify.Field                   `json:"fields,omitempty"`
	ExtractError string                           `json:"extract_error,omitempty"`
}

func (v *planVerification) failed() bool {
	return v.Summary[types.StatusMismatch] > 0 || v.ExtractError != ""
}

func runVerify(cmd *cobra.Command, args []string) error {
	if verifyFormat != "human" && verifyFormat != "json" {
		return fmt.Errorf("unknown output format: %s", verifyFormat)
	}
	if verifyPlansPath != "" && verifyStorePath != "" {
		return fmt.Errorf("--plans and --store are mutually exclusive")
	}
	if verifyPlanID != "" && verifyStorePath == "" {
		return fmt.Errorf("--plan-id requires --store")
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	t, err := transcript.LoadFile(args[0])
	if err != nil {
		return err
	}

	profiles, err := loadProfiles(verifyProfilesPath, "", "")
	if err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}

	ctx := context.Background()
	plans, err := plansFor(ctx, t, profiles, limitsFrom(cfg))
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		return fmt.Errorf("no plans for transcript %s", t.ID)
	}
	logger.WithField("plans", len(plans)).Debug("verifying plans")

	engine := verify.NewEngine(verifyWorkers)
	out := make([]*planVerification, 0, len(plans))
	failures := 0
	for _, p := range plans {
		results, err := engine.Plan(ctx, t, p)
		if err != nil {
			return fmt.Errorf("plan %s: %w", p.ID, err)
		}

		v := &planVerification{
			PlanID:    p.ID,
			ProfileID: p.ProfileID,
			Results:   results,
			Summary:   verify.Summary(results),
		}

		if verifyExtract {
			if prof, ok := profile.Find(profiles, p.ProfileID); ok && len(prof.Extract) > 0 {
				sent := plan.Redact(t.Sent, p.Sent.Ranges, verify.Hidden)
				received := plan.Redact(t.Received, p.Received.Ranges, verify.Hidden)
				v.Fields, err = verify.Extract(sent, received, prof.Extract)
				if err != nil {
					v.ExtractError = err.Error()
				}
			}
		}

		if v.failed() {
			failures++
		}
		out = append(out, v)
	}

	if verifyFormat == "json" {
		if err := writeJSON(cmd, out); err != nil {
			return err
		}
	} else if err := outputVerifyHuman(cmd, t, out); err != nil {
		return err
	}

	if failures > 0 {
		return fmt.Errorf("verification failed for %d of %d plans", failures, len(out))
	}
	return nil
}

// plansFor loads the plans to verify for t, keeping only those built from t.
func plansFor(ctx context.Context, t *transcript.Transcript, profiles []*types.Profile, limits transcript.Limits) ([]*plan.Plan, error) {
	var plans []*plan.Plan
	var err error

	switch {
	case verifyPlansPath != "":
		plans, err = readPlans(verifyPlansPath)
	case verifyStorePath != "":
		plans, err = storedPlans(t)
	default:
		core, cerr := extract.NewCore(extract.Config{
			Profiles: profiles,
			Limits:   limits,
		})
		if cerr != nil {
			return nil, cerr
		}
		var result *extract.Result
		result, err = core.Extract(ctx, t, verifyProfileIDs...)
		if result != nil {
			plans = result.Plans
		}
	}
	if err != nil {
		return nil, err
	}

	matching := plans[:0]
	for _, p := range plans {
		if p.TranscriptID == t.ID {
			matching = append(matching, p)
		}
	}
	return matching, nil
}

func storedPlans(t *transcript.Transcript) ([]*plan.Plan, error) {
	s, err := store.New(store.Config{Path: verifyStorePath})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	if verifyPlanID != "" {
		p, err := s.GetPlan(verifyPlanID)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", verifyPlanID, err)
		}
		return []*plan.Plan{p}, nil
	}
	return s.GetPlansForTranscript(t.ID)
}

// readPlans reads a CBOR plan sequence (.cbor) or the JSON results of extract.
func readPlans(path string) ([]*plan.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening plans: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		var plans []*plan.Plan
		dec := codec.NewDecoder(f)
		for {
			var p plan.Plan
			if err := dec.Decode(&p); err != nil {
				if errors.Is(err, io.EOF) {
					return plans, nil
				}
				return nil, fmt.Errorf("decoding %s: %w", path, err)
			}
			plans = append(plans, &p)
		}
	}

	var results []*extract.Result
	if err := json.NewDecoder(f).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	var plans []*plan.Plan
	for _, r := range results {
		plans = append(plans, r.Plans...)
	}
	return plans, nil
}

func outputVerifyHuman(cmd *cobra.Command, t *transcript.Transcript, out []*planVerification) error {
	s, err := stylesFor(verifyColor)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "%s (%s %s) %s\n",
		s.heading.Sprint("Transcript"),
		s.label.Sprint("id"),
		s.id.Sprint(t.ID.Hex()),
		s.metadata.Sprint(t.Source))

	for _, v := range out {
		fmt.Fprintf(w, "\n%s %s (%s %s)\n",
			s.label.Sprint("Profile:"),
			s.profile.Sprint(v.ProfileID),
			s.label.Sprint("plan"),
			s.id.Sprint(v.PlanID))

		for _, r := range v.Results {
			status := s.success.Sprint(r.Status)
			if r.Status != types.StatusVerified {
				status = s.failure.Sprint(r.Status)
			}
			fmt.Fprintf(w, "  %-12s %-24s", status, r.Field)
			if r.Message != "" {
				fmt.Fprintf(w, " %s", r.Message)
			}
			fmt.Fprintln(w)
		}

		fmt.Fprintf(w, "  %s %d verified, %d mismatch, %d undetermined\n",
			s.label.Sprint("Summary:"),
			v.Summary[types.StatusVerified], v.Summary[types.StatusMismatch], v.Summary[types.StatusUndetermined])

		for _, f := range v.Fields {
			fmt.Fprintf(w, "  %s %s = %s\n", s.label.Sprintf("%s field", f.Direction), f.Name, s.revealed.Sprint(f.Value))
		}
		if v.ExtractError != "" {
			fmt.Fprintf(w, "  %s %s\n", s.failure.Sprint("Extract:"), v.ExtractError)
		}
	}
	return nil
}
