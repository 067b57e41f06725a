package fragments

import (
	"fmt"

	"github.com/spf13/cobra"

	internalconfig "github.com/robolearn/traincfg/internal/config"
)

// NewFragmentsCommand constructs the `traincfg fragments` command, which
// lists the categories and fragment names available under the
// configuration root.
func NewFragmentsCommand() *cobra.Command {
	var configRoot string
	cmd := &cobra.Command{
		Use:   "fragments [category]",
		Short: "List available configuration fragments by category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location, err := internalconfig.LocateRoot(configRoot)
			if err != nil {
				return err
			}
			loader := internalconfig.NewLoader(location.Path)

			categories, err := loader.Categories()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				categories = []string{args[0]}
			}

			for _, category := range categories {
				names, err := loader.Fragments(category)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", category)
				for _, name := range names {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configRoot, "config-root", "", "Configuration root directory (discovered when omitted)")
	return cmd
}
