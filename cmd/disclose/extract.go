package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/praetorian-inc/disclose/pkg/codec"
	"github.com/praetorian-inc/disclose/pkg/enum"
	"github.com/praetorian-inc/disclose/pkg/extract"
	"github.com/praetorian-inc/disclose/pkg/sarif"
	"github.com/praetorian-inc/disclose/pkg/store"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
)

var (
	extractProfilesPath   string
	extractProfileInclude string
	extractProfileExclude string
	extractProfileIDs     []string
	extractSent           string
	extractReceived       string
	extractPattern        string
	extractIncludeHidden  bool
	extractMaxFileSize    int64
	extractStrict         bool
	extractFormat         string
	extractColor          string
	extractReveal         bool
	extractSave           bool
	extractStorePath      string
	extractWriteTrans     string
)

var extractCmd = &cobra.Command{
	Use:   "extract [transcript.json | directory]",
	Short: "Build disclosure plans for transcripts",
	Long: `Parse transcripts and compute the byte ranges each profile discloses.

The target is a JSON transcript file ({"sent": ..., "received": ...}) or a
directory, which is searched for transcript files in parallel. Raw transcripts can
be given with --sent and --received instead of a target.

Without --profile, every profile whose response keys occur in the transcript is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractProfilesPath, "profiles", "", "Path to custom profiles file (YAML or JSONC)")
	extractCmd.Flags().StringVar(&extractProfileInclude, "profiles-include", "", "Include profiles matching ID regex or sid:<prefix> (comma-separated)")
	extractCmd.Flags().StringVar(&extractProfileExclude, "profiles-exclude", "", "Exclude profiles matching ID regex or sid:<prefix> (comma-separated)")
	extractCmd.Flags().StringSliceVarP(&extractProfileIDs, "profile", "p", nil, "Profile IDs to apply (default: profiles whose keys occur in the response)")
	extractCmd.Flags().StringVar(&extractSent, "sent", "", "Raw sent transcript file")
	extractCmd.Flags().StringVar(&extractReceived, "received", "", "Raw received transcript file")
	extractCmd.Flags().StringVar(&extractPattern, "pattern", enum.DefaultPattern, "Transcript file name pattern when the target is a directory")
	extractCmd.Flags().BoolVar(&extractIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	extractCmd.Flags().Int64Var(&extractMaxFileSize, "max-file-size", 10*1024*1024, "Maximum transcript file size (bytes)")
	extractCmd.Flags().BoolVar(&extractStrict, "strict", false, "Fail on files that are not valid transcripts")
	extractCmd.Flags().StringVar(&extractFormat, "format", "human", "Output format: human, json, sarif, cbor, cbor-diag")
	extractCmd.Flags().StringVar(&extractColor, "color", "auto", "Color output: auto, always, never")
	extractCmd.Flags().BoolVar(&extractReveal, "reveal", false, "Print each transcript with hidden bytes masked (human format)")
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "Store transcripts and plans in the database")
	extractCmd.Flags().StringVar(&extractStorePath, "store", "", "Database path (default: store.path from config)")
	extractCmd.Flags().StringVar(&extractWriteTrans, "write-transcript", "", "Write --sent/--received as a JSON transcript file for later verify")
}

// extracted pairs a transcript with its result for output.
type extracted struct {
	transcript *transcript.Transcript
	result     *extract.Result
}

func runExtract(cmd *cobra.Command, args []string) error {
	switch extractFormat {
	case "human", "json", "sarif", "cbor", "cbor-diag":
	default:
		return fmt.Errorf("unknown output format: %s", extractFormat)
	}
	if extractWriteTrans != "" && extractSent == "" && extractReceived == "" {
		return fmt.Errorf("--write-transcript requires --sent/--received")
	}
	if len(args) == 0 && extractSent == "" && extractReceived == "" {
		return fmt.Errorf("a transcript target or --sent/--received is required")
	}
	if len(args) > 0 && (extractSent != "" || extractReceived != "") {
		return fmt.Errorf("a target cannot be combined with --sent/--received")
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	profiles, err := loadProfiles(extractProfilesPath, extractProfileInclude, extractProfileExclude)
	if err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}

	var s store.Store
	if extractSave {
		path := extractStorePath
		if path == "" {
			path = cfg.Store.Path
		}
		s, err = store.New(store.Config{Path: path})
		if err != nil {
			return fmt.Errorf("creating store: %w", err)
		}
	}

	core, err := extract.NewCore(extract.Config{
		Profiles: profiles,
		Store:    s,
		Logger:   logger,
		Limits:   limitsFrom(cfg),
	})
	if err != nil {
		if s != nil {
			s.Close()
		}
		return err
	}
	defer core.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	items, err := collect(ctx, core, logger, args)
	if err != nil {
		return err
	}

	planCount, failed := 0, 0
	for _, item := range items {
		planCount += len(item.result.Plans)
		if item.result.Error != "" {
			failed++
		}
	}

	// Summary to stderr for machine formats to keep stdout pure
	status := cmd.OutOrStdout()
	if extractFormat != "human" {
		status = cmd.ErrOrStderr()
	}
	if !quiet {
		fmt.Fprintf(status, "Extract complete: %d transcripts, %d plans", len(items), planCount)
		if failed > 0 {
			fmt.Fprintf(status, " (%d failed)", failed)
		}
		fmt.Fprintln(status)
		if extractSave {
			fmt.Fprintf(status, "Results stored in: %s\n", firstNonEmpty(extractStorePath, cfg.Store.Path))
		}
	}

	switch extractFormat {
	case "json":
		results := make([]*extract.Result, len(items))
		for i, item := range items {
			results[i] = item.result
		}
		return writeJSON(cmd, results)
	case "sarif":
		return outputExtractSARIF(cmd, profiles, items)
	case "cbor":
		return outputExtractCBOR(cmd, items)
	case "cbor-diag":
		return outputExtractCBORDiag(cmd, items)
	default:
		return outputExtractHuman(cmd, items, cfg.Redaction.Mask[0])
	}
}

// collect loads the transcripts named by the arguments and extracts each one.
func collect(ctx context.Context, core *extract.Core, logger logrus.FieldLogger, args []string) ([]extracted, error) {
	if len(args) == 0 {
		t, err := transcript.LoadRaw(extractSent, extractReceived)
		if err != nil {
			return nil, err
		}
		if extractWriteTrans != "" {
			if err := saveTranscript(t, extractWriteTrans); err != nil {
				return nil, err
			}
		}
		r, err := core.Extract(ctx, t, extractProfileIDs...)
		if err != nil {
			return nil, err
		}
		return []extracted{{transcript: t, result: r}}, nil
	}

	target := args[0]
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("target does not exist: %s", target)
	}

	if !info.IsDir() {
		t, err := transcript.LoadFile(target)
		if err != nil {
			return nil, err
		}
		r, err := core.Extract(ctx, t, extractProfileIDs...)
		if err != nil {
			return nil, err
		}
		return []extracted{{transcript: t, result: r}}, nil
	}

	enumerator := enum.NewFilesystemEnumerator(enum.Config{
		Root:          target,
		Pattern:       extractPattern,
		IncludeHidden: extractIncludeHidden,
		MaxFileSize:   extractMaxFileSize,
		Strict:        extractStrict,
		Logger:        logger,
	})

	var mu sync.Mutex
	var items []extracted
	err = enumerator.Enumerate(ctx, func(t *transcript.Transcript) error {
		r, err := core.Extract(ctx, t, extractProfileIDs...)
		if err != nil {
			logger.WithError(err).WithField("source", t.Source).Warn("extraction failed")
			r = &extract.Result{Source: t.Source, TranscriptID: t.ID, Error: err.Error()}
		}
		mu.Lock()
		items = append(items, extracted{transcript: t, result: r})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerating %s: %w", target, err)
	}

	// Enumeration is concurrent
	sort.Slice(items, func(i, j int) bool { return items[i].result.Source < items[j].result.Source })
	return items, nil
}

func outputExtractHuman(cmd *cobra.Command, items []extracted, mask byte) error {
	s, err := stylesFor(extractColor)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	for i, item := range items {
		fmt.Fprintf(out, "\n%s (%s %s) %s\n",
			s.heading.Sprintf("Transcript %d/%d", i+1, len(items)),
			s.label.Sprint("id"),
			s.id.Sprint(item.result.TranscriptID.Hex()),
			s.metadata.Sprint(item.result.Source))

		if item.result.Error != "" {
			fmt.Fprintf(out, "%s %s\n", s.failure.Sprint("Error:"), item.result.Error)
			continue
		}
		if len(item.result.Plans) == 0 {
			fmt.Fprintf(out, "No matching profiles.\n")
			continue
		}

		for _, p := range item.result.Plans {
			printPlan(out, s, p, item.transcript)
			if extractReveal {
				for _, dir := range []types.Direction{types.DirectionSent, types.DirectionReceived} {
					fmt.Fprintf(out, "\n  %s\n", s.label.Sprintf("%s (revealed):", dir))
					printRedacted(out, s, item.transcript.Data(dir), p.Side(dir).Ranges, mask)
				}
			}
		}
	}
	return nil
}

// outputExtractSARIF outputs disclosures in SARIF 2.1.0 format
func outputExtractSARIF(cmd *cobra.Command, profiles []*types.Profile, items []extracted) error {
	report := sarif.NewReport()
	for _, p := range profiles {
		report.AddRule(p)
	}
	for _, item := range items {
		for _, p := range item.result.Plans {
			report.AddPlan(p, item.transcript)
		}
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

// outputExtractCBOR writes every plan as one item of a CBOR sequence.
func outputExtractCBOR(cmd *cobra.Command, items []extracted) error {
	enc := codec.NewEncoder(cmd.OutOrStdout())
	for _, item := range items {
		for _, p := range item.result.Plans {
			if err := enc.Encode(p); err != nil {
				return fmt.Errorf("encoding plan %s: %w", p.ID, err)
			}
		}
	}
	return nil
}

// outputExtractCBORDiag prints each plan's CBOR encoding in diagnostic notation, one
// plan per line.
func outputExtractCBORDiag(cmd *cobra.Command, items []extracted) error {
	out := cmd.OutOrStdout()
	for _, item := range items {
		for _, p := range item.result.Plans {
			data, err := codec.EncodePlan(p)
			if err != nil {
				return fmt.Errorf("encoding plan %s: %w", p.ID, err)
			}
			diag, err := codec.Diagnose(data)
			if err != nil {
				return fmt.Errorf("diagnosing plan %s: %w", p.ID, err)
			}
			fmt.Fprintln(out, diag)
		}
	}
	return nil
}

func saveTranscript(t *transcript.Transcript, path string) error {
	data, err := transcript.Encode(t)
	if err != nil {
		return fmt.Errorf("encoding transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
