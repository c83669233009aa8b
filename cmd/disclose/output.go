package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// maxSnippet caps the disclosed text printed per disclosure.
const maxSnippet = 120

// styles holds color formatters for human output
type styles struct {
	heading  *color.Color
	id       *color.Color
	profile  *color.Color
	label    *color.Color
	revealed *color.Color
	hidden   *color.Color
	metadata *color.Color
	failure  *color.Color
	success  *color.Color
}

// newStyles creates color formatters for human output
// enabled=false respects --color=never and NO_COLOR
func newStyles(enabled bool) *styles {
	s := &styles{
		heading:  color.New(color.Bold, color.FgHiWhite),
		id:       color.New(color.FgHiGreen),
		profile:  color.New(color.Bold, color.FgHiBlue),
		label:    color.New(color.Bold),
		revealed: color.New(color.FgYellow),
		hidden:   color.New(color.FgHiBlack),
		metadata: color.New(color.FgHiBlue),
		failure:  color.New(color.Bold, color.FgRed),
		success:  color.New(color.FgGreen),
	}

	if !enabled {
		for _, c := range []*color.Color{s.heading, s.id, s.profile, s.label, s.revealed, s.hidden, s.metadata, s.failure, s.success} {
			c.DisableColor()
		}
	}

	return s
}

// stylesFor resolves a --color mode (auto, always, never).
func stylesFor(mode string) (*styles, error) {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "auto", "":
		// Check if stdout is a TTY and NO_COLOR is not set
		color.NoColor = !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != ""
	default:
		return nil, fmt.Errorf("unknown color mode: %s", mode)
	}
	return newStyles(!color.NoColor), nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printPlan writes one plan. t supplies disclosed text and may be nil.
func printPlan(out io.Writer, s *styles, p *plan.Plan, t *transcript.Transcript) {
	fmt.Fprintf(out, "%s %s (%s %s)\n",
		s.label.Sprint("Profile:"),
		s.profile.Sprint(p.ProfileID),
		s.label.Sprint("plan"),
		s.id.Sprint(p.ID))

	for _, side := range []*plan.Side{&p.Sent, &p.Received} {
		fmt.Fprintf(out, "  %s %d disclosures, %d ranges\n",
			s.label.Sprintf("%s:", side.Direction), len(side.Disclosures), len(side.Ranges))
		if side.Error != "" {
			fmt.Fprintf(out, "    %s %s\n", s.failure.Sprint("parse error:"), side.Error)
		}
		if side.Fallback {
			fmt.Fprintf(out, "    %s\n", s.metadata.Sprint("located without the grammar (fallback)"))
		}

		for _, d := range side.Disclosures {
			loc := d.Location
			fmt.Fprintf(out, "    %-12s %-24s %s %s\n",
				d.Kind, d.Field,
				s.metadata.Sprintf("%d:%d-%d:%d", loc.Source.Start.Line, loc.Source.Start.Column, loc.Source.End.Line, loc.Source.End.Column),
				s.metadata.Sprint(loc.Offset))
			if t != nil {
				fmt.Fprintf(out, "        %s\n", s.revealed.Sprint(snippet(loc.Offset.Slice(t.Data(d.Direction)))))
			}
		}
	}
}

// printRedacted writes data with everything outside ranges replaced by mask.
func printRedacted(out io.Writer, s *styles, data []byte, ranges []types.OffsetSpan, mask byte) {
	var pos int64
	for _, r := range ranges {
		if r.Start > pos {
			fmt.Fprint(out, s.hidden.Sprint(strings.Repeat(string(mask), int(r.Start-pos))))
		}
		fmt.Fprint(out, s.revealed.Sprint(string(r.Slice(data))))
		pos = r.End
	}
	if rest := int64(len(data)) - pos; rest > 0 {
		fmt.Fprint(out, s.hidden.Sprint(strings.Repeat(string(mask), int(rest))))
	}
	fmt.Fprintln(out)
}

// snippet quotes control characters and truncates long text.
func snippet(b []byte) string {
	text := strings.NewReplacer("\r", `\r`, "\n", `\n`, "\t", `\t`).Replace(string(b))
	if len(text) <= maxSnippet {
		return text
	}
	return text[:maxSnippet-3] + "..."
}
