package cli

import (
	"github.com/spf13/cobra"

	composecmd "github.com/robolearn/traincfg/cmd/traincfg/compose"
	fragmentscmd "github.com/robolearn/traincfg/cmd/traincfg/fragments"
)

// NewRootCommand constructs the root traincfg command.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traincfg",
		Short: "traincfg composes hierarchical training run configurations",
	}

	cmd.AddCommand(composecmd.NewComposeCommand())
	cmd.AddCommand(composecmd.NewValidateCommand())
	cmd.AddCommand(fragmentscmd.NewFragmentsCommand())

	BindEnvFlags(cmd)

	return cmd
}
