package arcana

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/louisbranch/arcana/internal/services/arcana/app"
	"github.com/louisbranch/arcana/internal/services/arcana/rules"
)

// compositionFlags binds the flags that describe one composition.
type compositionFlags struct {
	precept string
	numen   []string
	mods    []string
	long    bool
}

func (f *compositionFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&f.precept, "precept", "p", "", "precept id, e.g. ENCENDER")
	flags.StringSliceVarP(&f.numen, "numen", "n", nil, "numen ids, comma separated or repeated")
	flags.StringArrayVarP(&f.mods, "mod", "m", nil, "modifier selection ID[:rN][:xN], repeatable")
	flags.BoolVar(&f.long, "long", false, "long duration (needs DURACION_PERSISTENTE)")
}

func (f *compositionFlags) composition() (rules.Composition, error) {
	precept := strings.ToUpper(strings.TrimSpace(f.precept))
	if precept == "" {
		return rules.Composition{}, fmt.Errorf("--precept is required")
	}
	selections, err := rules.ParseSelectionTokens(f.mods)
	if err != nil {
		return rules.Composition{}, err
	}
	numen := make([]string, 0, len(f.numen))
	for _, id := range f.numen {
		if id = strings.ToUpper(strings.TrimSpace(id)); id != "" {
			numen = append(numen, id)
		}
	}
	return rules.Composition{
		PreceptID:    precept,
		NumenIDs:     numen,
		Modifiers:    selections,
		LongDuration: f.long,
	}, nil
}

func (c *cli) composeCommand() *cobra.Command {
	var (
		comp    compositionFlags
		explain bool
	)
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Evaluate a composition without saving it",
		Example: `  arcana compose -p ENCENDER -n IGNIS -m FORMA_CONO
  arcana compose -p CURAR -n VITALIS -m INTENSIDAD_MULTIPLICADO:x2 -m INTENSIDAD_POTENCIADO:r2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			composition, err := comp.composition()
			if err != nil {
				return err
			}
			return c.withService(func(svc *app.Service) error {
				composed, err := svc.Compose(cmd.Context(), composition)
				if err != nil {
					return err
				}
				if c.jsonOut {
					return printJSON(cmd.OutOrStdout(), composed)
				}
				printComposed(cmd.OutOrStdout(), composed, explain)
				return nil
			})
		},
	}
	comp.register(cmd.Flags())
	cmd.Flags().BoolVar(&explain, "explain", false, "print every complexity step")
	return cmd
}

func printComposed(w io.Writer, composed app.Composed, explain bool) {
	fmt.Fprintf(w, "Key:        %s\n", composed.CanonicalKey)
	fmt.Fprintf(w, "Complexity: %d\n", composed.Complexity)
	fmt.Fprintf(w, "Tier:       %d (%s)\n", composed.Tier, composed.TierTitle)
	fmt.Fprintf(w, "Type:       %s\n", composed.Suggestion.Type)
	fmt.Fprintf(w, "Summary:    %s\n", composed.Suggestion.Summary)
	if composed.Existing != nil {
		fmt.Fprintf(w, "Existing:   %s %q\n", composed.Existing.ID, composed.Existing.Name)
	}
	if explain {
		fmt.Fprintln(w, "Steps:")
		for _, step := range composed.Steps {
			fmt.Fprintf(w, "  %-26s %s (total %v)\n", step.Code, step.Message, step.Data["total"])
		}
	}
}
