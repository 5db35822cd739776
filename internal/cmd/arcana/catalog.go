package arcana

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/louisbranch/arcana/internal/services/arcana/catalog"
)

func (c *cli) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse precepts, numen and modifiers",
	}
	cmd.AddCommand(c.catalogPreceptsCommand(), c.catalogNumenCommand(), c.catalogModifiersCommand())
	return cmd
}

func (c *cli) catalogPreceptsCommand() *cobra.Command {
	var q catalog.PreceptQuery
	cmd := &cobra.Command{
		Use:   "precepts",
		Short: "List precepts sorted by verb",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(c.cfg)
			if err != nil {
				return err
			}
			precepts := cat.FindPrecepts(q)
			if c.jsonOut {
				return printJSON(cmd.OutOrStdout(), precepts)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tVERB\tCATEGORY\tMODE\tBASE")
			for _, p := range precepts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Verb, p.Category, p.Mode, p.BaseComplexity)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&q.Category, "category", "", "precept category")
	cmd.Flags().StringVar(&q.Search, "search", "", "verb or description substring")
	return cmd
}

func (c *cli) catalogNumenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "numen",
		Short: "List numen sorted by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(c.cfg)
			if err != nil {
				return err
			}
			numen := cat.NumenList()
			if c.jsonOut {
				return printJSON(cmd.OutOrStdout(), numen)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tTAGS")
			for _, n := range numen {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.ID, n.DisplayName, n.ColorHex, strings.Join(n.Tags, ","))
			}
			return tw.Flush()
		},
	}
}

func (c *cli) catalogModifiersCommand() *cobra.Command {
	var family string
	cmd := &cobra.Command{
		Use:   "modifiers",
		Short: "List modifiers and their costs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(c.cfg)
			if err != nil {
				return err
			}
			modifiers := cat.Modifiers()
			if f := strings.ToUpper(strings.TrimSpace(family)); f != "" {
				modifiers = cat.ModifiersByFamily(catalog.Family(f))
			}
			if c.jsonOut {
				return printJSON(cmd.OutOrStdout(), modifiers)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFAMILY\tNAME\tCOST")
			for _, m := range modifiers {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Family, m.Name, describeCost(m))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&family, "family", "", "modifier family, e.g. FORMA")
	return cmd
}

// describeCost renders a modifier's cost terms, e.g. "base +1, per_rank +2".
func describeCost(m catalog.Modifier) string {
	terms := m.CostTerms()
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		parts = append(parts, fmt.Sprintf("%s %+d", term.Kind, term.Value))
	}
	if maxRank, ok := m.Ranked(); ok {
		parts = append(parts, fmt.Sprintf("max rank %d", maxRank))
	}
	return strings.Join(parts, ", ")
}
