package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/praetorian-inc/disclose/pkg/config"
	"github.com/praetorian-inc/disclose/pkg/extract"
	"github.com/praetorian-inc/disclose/pkg/log"
	"github.com/praetorian-inc/disclose/pkg/profile"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
)

var (
	verbose    bool
	quiet      bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "disclose",
	Short: "Disclose - selective disclosure planner for HTTP transcripts",
	Long: `Disclose finds the exact byte ranges of an HTTP transcript that reveal chosen
fields, such as a JSON keypath in a response body or a request header, and hides
everything else.

Transcripts are parsed with range-preserving grammars, so every range points into
the original bytes. Profiles name the fields to reveal for a class of transcripts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (YAML)")

	// Add subcommands
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// =============================================================================
// HELPERS
// =============================================================================

// setup loads the configuration and builds a logger writing to the command's stderr.
// --verbose and --quiet override the configured level.
func setup(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case verbose:
		cfg.Log.Level = "debug"
	case quiet:
		cfg.Log.Level = "error"
	}

	logger, err := log.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, logger, nil
}

func limitsFrom(cfg *config.Config) transcript.Limits {
	return transcript.Limits{
		MaxSentData: cfg.Limits.MaxSentData,
		MaxRecvData: cfg.Limits.MaxRecvData,
	}
}

// loadProfiles loads profiles from path, or the builtin set, and applies the
// include/exclude patterns.
func loadProfiles(path, include, exclude string) ([]*types.Profile, error) {
	var profiles []*types.Profile
	var err error

	if path != "" {
		profiles, err = profile.NewLoader().LoadProfileFile(path)
	} else {
		profiles, err = extract.BuiltinProfiles()
	}
	if err != nil {
		return nil, err
	}

	// Apply filtering if patterns specified
	if include != "" || exclude != "" {
		profiles, err = profile.Filter(profiles, profile.FilterConfig{
			Include: profile.ParsePatterns(include),
			Exclude: profile.ParsePatterns(exclude),
		})
		if err != nil {
			return nil, fmt.Errorf("filtering profiles: %w", err)
		}
	}

	if len(profiles) == 0 {
		return nil, fmt.Errorf("no profiles selected")
	}
	return profiles, nil
}
