package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the scenarios in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listScenarios(rootOpts, verbose, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the steps and expectations of each scenario")
	return cmd
}

func listScenarios(opts *RootOptions, verbose bool, w io.Writer) error {
	catalog, err := opts.Config.LoadCatalog()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}
	for _, sc := range catalog.Scenarios() {
		fmt.Fprintln(w, sc.Name)
		if !verbose {
			continue
		}
		for _, a := range sc.Actions {
			fmt.Fprintf(w, "  %s\n", a)
		}
		for _, e := range sc.Expect {
			fmt.Fprintf(w, "  expect %s\n", e)
		}
	}
	return nil
}
