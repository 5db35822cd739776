package arcana

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/louisbranch/arcana/internal/services/arcana/app"
	"github.com/louisbranch/arcana/internal/services/arcana/ordinance"
	"github.com/louisbranch/arcana/internal/services/arcana/rules"
)

func (c *cli) grimoireCommand() *cobra.Command {
	var (
		q          ordinance.Query
		effectType string
	)
	cmd := &cobra.Command{
		Use:   "grimoire",
		Short: "List saved ordinances",
		Example: `  arcana grimoire --numen IGNIS --tier 2
  arcana grimoire --filter 'effect_type = "heal" AND tier >= 2'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if value := strings.TrimSpace(effectType); value != "" {
				effect, ok := rules.ParseEffectType(value)
				if !ok {
					return fmt.Errorf("unknown effect type %q", value)
				}
				q.EffectType = effect
			}
			return c.withService(func(svc *app.Service) error {
				entries, err := svc.List(cmd.Context(), q)
				if err != nil {
					return err
				}
				if c.jsonOut {
					return printJSON(cmd.OutOrStdout(), entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No ordinances match.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTIER\tNAME\tTYPE\tSUMMARY")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", e.Ordinance.ID, e.Ordinance.Tier, e.Ordinance.Name, e.EffectType, e.Suggestion.Summary)
				}
				return tw.Flush()
			})
		},
	}
	flags := cmd.Flags()
	flags.StringSliceVar(&q.NumenIDs, "numen", nil, "keep ordinances using any of these numen")
	flags.StringSliceVar(&q.PreceptIDs, "precept", nil, "keep ordinances with one of these precepts")
	flags.IntSliceVar(&q.Tiers, "tier", nil, "keep ordinances with one of these tiers")
	flags.StringVar(&q.Search, "search", "", "case-insensitive name substring")
	flags.StringVar(&effectType, "type", "", "damage, heal, control or utility")
	flags.StringVar(&q.Filter, "filter", "", "AIP-160 filter expression")
	return cmd
}

func (c *cli) exportCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the grimoire as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(func(svc *app.Service) error {
				data, err := svc.Export(cmd.Context())
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				c.logger.Info("grimoire exported")
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
