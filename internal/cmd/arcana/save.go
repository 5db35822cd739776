package arcana

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/louisbranch/arcana/internal/services/arcana/app"
)

func (c *cli) saveCommand() *cobra.Command {
	var (
		comp compositionFlags
		req  app.SaveRequest
	)
	cmd := &cobra.Command{
		Use:     "save",
		Short:   "Save a composition to the grimoire",
		Example: `  arcana save -p ENCENDER -n IGNIS -m FORMA_CONO --name "Abanico de Ceniza"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			composition, err := comp.composition()
			if err != nil {
				return err
			}
			req.Composition = composition
			return c.withService(func(svc *app.Service) error {
				result, err := svc.Save(cmd.Context(), req)
				if err != nil {
					return err
				}
				if c.jsonOut {
					return printJSON(cmd.OutOrStdout(), result)
				}
				o := result.Ordinance
				if result.Created {
					fmt.Fprintf(cmd.OutOrStdout(), "Saved %s %q (tier %d, complexity %d)\n", o.ID, o.Name, o.Tier, o.Cost.Complexity)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Already in the grimoire as %s %q\n", o.ID, o.Name)
				}
				return nil
			})
		},
	}
	comp.register(cmd.Flags())
	cmd.Flags().StringVar(&req.Name, "name", "", "ordinance name")
	cmd.Flags().StringVar(&req.Narrative, "narrative", "", "narrative text")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "mechanical notes (defaults to the summary)")
	cmd.Flags().StringVar(&req.CreatedBy, "by", "", "author")
	cmd.Flags().StringVar(&req.Source, "source", "", "where the ordinance came from")
	return cmd
}
