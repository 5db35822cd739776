package arcana

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/louisbranch/arcana/internal/services/arcana/app"
)

func (c *cli) rollCommand() *cobra.Command {
	var (
		comp         compositionFlags
		seed         int64
		saveModifier int
		bonus        string
	)
	cmd := &cobra.Command{
		Use:   "roll",
		Short: "Roll the suggested dice of a composition",
		Example: `  arcana roll -p CURAR -n VITALIS -m INTENSIDAD_MULTIPLICADO:x2 --seed 42
  arcana roll -p ENCENDER -n IGNIS -m FORMA_CONO --save-mod 3
  arcana roll -p APLASTAR -n IGNIS -m INTENCION_OFENSIVO --bonus 1d6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			composition, err := comp.composition()
			if err != nil {
				return err
			}
			req := app.RollRequest{Composition: composition, SaveModifier: saveModifier, Bonus: bonus}
			if cmd.Flags().Changed("seed") {
				req.Seed = &seed
			}
			return c.withService(func(svc *app.Service) error {
				result, err := svc.Roll(cmd.Context(), req)
				if err != nil {
					return err
				}
				if c.jsonOut {
					return printJSON(cmd.OutOrStdout(), result)
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Roll:  %s (seed %d)\n", result.Expression, result.Seed)
				if result.Check != nil {
					outcome := "affected"
					if result.Check.Success {
						outcome = "resisted"
					}
					fmt.Fprintf(w, "Save:  %d%+d vs DC %d, %s (margin %+d)\n",
						result.Dice.Total, saveModifier, result.DC, outcome, result.Check.Margin)
					return nil
				}
				fmt.Fprintf(w, "Total: %d %s\n", result.Dice.Total, result.Type)
				if len(result.Instances) > 1 {
					fmt.Fprintf(w, "Per instance: %v\n", result.Instances)
				}
				return nil
			})
		},
	}
	comp.register(cmd.Flags())
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for a deterministic roll")
	cmd.Flags().IntVar(&saveModifier, "save-mod", 0, "target's bonus when resisting control")
	cmd.Flags().StringVar(&bonus, "bonus", "", "extra dice rolled with each instance or save, e.g. 1d6+1d4")
	return cmd
}
