package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/disclose/pkg/profile"
	"github.com/praetorian-inc/disclose/pkg/types"
)

var (
	profilesPath   string
	profilesFormat string
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage disclosure profiles",
	Long:  "Commands for listing and checking disclosure profiles",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available profiles",
	Long:  "Display all available disclosure profiles with the fields they reveal",
	RunE:  runProfilesList,
}

var profilesValidateCmd = &cobra.Command{
	Use:   "validate <profiles.yml> [more...]",
	Short: "Validate profile files",
	Long:  "Load YAML or JSONC profile files and report the first problem in each",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProfilesValidate,
}

func init() {
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesValidateCmd)
	profilesListCmd.Flags().StringVar(&profilesPath, "profiles", "", "Path to custom profiles file (YAML or JSONC)")
	profilesListCmd.Flags().StringVar(&profilesFormat, "format", "table", "Output format: table, json")
}

func runProfilesList(cmd *cobra.Command, args []string) error {
	profiles, err := loadProfiles(profilesPath, "", "")
	if err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}

	switch profilesFormat {
	case "json":
		return writeJSON(cmd, profiles)
	case "table":
		return outputProfilesTable(cmd, profiles)
	default:
		return fmt.Errorf("unknown output format: %s", profilesFormat)
	}
}

func runProfilesValidate(cmd *cobra.Command, args []string) error {
	loader := profile.NewLoader()
	failed := 0
	for _, path := range args {
		profiles, err := loader.LoadProfileFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %v\n", err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%d profiles)\n", path, len(profiles))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files invalid", failed, len(args))
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func outputProfilesTable(cmd *cobra.Command, profiles []*types.Profile) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tName\tSent\tReceived\n")
	fmt.Fprintf(w, "--\t----\t----\t--------\n")

	for _, p := range profiles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, summarize(p.Sent), summarize(p.Received))
	}

	return nil
}

// summarize lists a selection compactly, e.g. "price, mins (+1)".
func summarize(sel types.Selection) string {
	var fields []string
	fields = append(fields, sel.Keypaths...)
	fields = append(fields, sel.Headers...)
	for _, q := range sel.Query {
		fields = append(fields, "?"+q)
	}

	switch {
	case len(fields) == 0:
		return "-"
	case len(fields) <= 2:
		return strings.Join(fields, ", ")
	default:
		return fmt.Sprintf("%s (+%d)", strings.Join(fields[:2], ", "), len(fields)-2)
	}
}
