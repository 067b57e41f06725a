package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const envPrefix = "TRAINCFG"

// BindEnvFlags attaches environment-variable defaults to every command in
// the tree. A flag left unset on the command line takes its value from
// TRAINCFG_<NAME> (dashes mapped to underscores); explicit flags always
// win over the environment.
func BindEnvFlags(root *cobra.Command) {
	walkCommands(root, func(cmd *cobra.Command) {
		existing := cmd.PreRunE
		cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
			if err := applyEnvDefaults(cmd.Flags()); err != nil {
				return err
			}
			if existing != nil {
				return existing(cmd, args)
			}
			return nil
		}
	})
}

func applyEnvDefaults(flags *pflag.FlagSet) error {
	var firstErr error
	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Changed || firstErr != nil {
			return
		}
		name := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flag.Name, "-", "_"))
		value, ok := os.LookupEnv(name)
		if !ok || strings.TrimSpace(value) == "" {
			return
		}
		if err := flags.Set(flag.Name, value); err != nil {
			firstErr = fmt.Errorf("apply %s: %w", name, err)
		}
	})
	return firstErr
}

func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, child := range cmd.Commands() {
		walkCommands(child, fn)
	}
}
