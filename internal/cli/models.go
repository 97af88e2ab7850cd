package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// ModelsOptions holds flags for the models command.
type ModelsOptions struct {
	*RootOptions
	Domain string
	Model  string
	JSON   bool
}

// NewModelsCommand creates the models command.
func NewModelsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ModelsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List business models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if opts.JSON {
				data, err := rt.svc.ListBusinessModelsJSON(opts.Domain, opts.Model)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DOMAIN\tMODEL\tNAME")
			for _, m := range rt.svc.ListBusinessModels(opts.Domain, opts.Model) {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", m.DomainID, m.ModelID, m.Name)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&opts.Domain, "domain", "", "only models of this domain")
	cmd.Flags().StringVar(&opts.Model, "model", "", "only the model with this id")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print summaries as JSON")

	return cmd
}
