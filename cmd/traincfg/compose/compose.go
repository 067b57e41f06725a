package compose

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/robolearn/traincfg/internal/cli/logging"
	internalconfig "github.com/robolearn/traincfg/internal/config"
	"github.com/robolearn/traincfg/internal/pipeline"
	pkgcompose "github.com/robolearn/traincfg/pkg/compose"
	"github.com/robolearn/traincfg/pkg/telemetry"
)

type composeOptions struct {
	configRoot string
	format     string
	verbose    bool
}

// NewComposeCommand constructs the `traincfg compose` command.
func NewComposeCommand() *cobra.Command {
	opts := &composeOptions{}
	cmd := &cobra.Command{
		Use:   "compose [key=value ...]",
		Short: "Compose the effective configuration from defaults, fragments, and overrides",
		Long: `Compose assembles one configuration tree from the root document's
defaults list, the selected category fragments, and any key=value
overrides. A bare category=name argument swaps the fragment selected for
that category; a dotted key.path=value argument sets a single value in
the composed tree.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(cmd, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.configRoot, "config-root", "", "Configuration root directory (discovered when omitted)")
	cmd.Flags().StringVar(&opts.format, "format", pkgcompose.SummaryFormatText, "Summary output format (text or json)")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Emit structured log entries to stderr")
	return cmd
}

func runCompose(cmd *cobra.Command, opts *composeOptions, args []string) error {
	result, err := composeResult(cmd, opts, args)
	if err != nil {
		return err
	}

	summary, err := pkgcompose.FormatSummary(result, opts.format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary)
	return nil
}

// composeResult runs the shared locate → compose sequence for the compose
// and validate commands.
func composeResult(cmd *cobra.Command, opts *composeOptions, args []string) (*pkgcompose.Result, error) {
	location, err := internalconfig.LocateRoot(opts.configRoot)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	var logger telemetry.StructuredLogger
	if opts.verbose {
		structured, err := telemetry.NewLogger(cmd.ErrOrStderr(), runID)
		if err != nil {
			return nil, err
		}
		logger = structured
		_ = structured.Emit(telemetry.Entry{
			Category: telemetry.CategoryCompose,
			Message:  "composing configuration",
			Metadata: map[string]string{
				"configRoot": location.Path,
				"rootSource": string(location.Source),
				"overrides":  logging.SanitizeOverrides(args),
			},
		})
	}

	return pipeline.Compose(cmd.Context(), pipeline.Options{
		ConfigRoot: location.Path,
		Args:       args,
		RunID:      runID,
		Logger:     logger,
	})
}
