package compose

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robolearn/traincfg/internal/cli/logging"
	pkgcompose "github.com/robolearn/traincfg/pkg/compose"
	"github.com/robolearn/traincfg/pkg/telemetry"
)

// NewValidateCommand constructs the `traincfg validate` command, which
// runs the full pipeline including the validation gate but prints only
// the verdict.
func NewValidateCommand() *cobra.Command {
	opts := &composeOptions{}
	cmd := &cobra.Command{
		Use:   "validate [key=value ...]",
		Short: "Compose and validate the configuration without printing it",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result *pkgcompose.Result
			run := func() error {
				var err error
				result, err = composeResult(cmd, opts, args)
				return err
			}
			if opts.verbose {
				emitter := telemetry.NewEmitter(cmd.ErrOrStderr())
				if err := emitter.EmitStage(telemetry.StageValidate, map[string]string{"overrides": logging.SanitizeOverrides(args)}, run); err != nil {
					return err
				}
			} else if err := run(); err != nil {
				return err
			}
			steps := make([]string, len(result.Steps))
			for i, step := range result.Steps {
				steps[i] = step.String()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration valid (%s)\n", strings.Join(steps, ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.configRoot, "config-root", "", "Configuration root directory (discovered when omitted)")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Emit structured log entries to stderr")
	return cmd
}
