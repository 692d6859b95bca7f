package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/portal/pkg/taxonomy"
)

var termsCmd = &cobra.Command{
	Use:   "terms <ref>",
	Short: "Resolve a term reference and print its descendants",
	Long: `Resolve a term reference the way theme loops do. ref is a slug or a
numeric id; comma-separated lists are resolved in order.`,
	Args: cobra.ExactArgs(1),
	RunE: runTerms,
}

func init() {
	termsCmd.Flags().Int("depth", taxonomy.Unlimited, "Levels of children to include (0 = matches only, negative = unlimited)")
	termsCmd.Flags().String("taxonomy", taxonomy.DefaultTaxonomy, "Taxonomy to resolve in")
	termsCmd.Flags().String("fixtures", "", "Resolve against a fixture file instead of the configured store")
	rootCmd.AddCommand(termsCmd)
}

func runTerms(cmd *cobra.Command, args []string) error {
	depth, _ := cmd.Flags().GetInt("depth")
	tax, _ := cmd.Flags().GetString("taxonomy")
	fixtures, _ := cmd.Flags().GetString("fixtures")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if fixtures != "" {
		cfg.Backend = backendMemory
	}

	ctx := cmd.Context()
	b, err := openBackend(ctx, cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer b.close(ctx)

	if fixtures != "" {
		if _, err := seedFile(ctx, b.site, fixtures); err != nil {
			return err
		}
	}

	terms, err := taxonomy.NewResolver(b.site).Resolve(ctx, args[0],
		taxonomy.WithDepth(depth),
		taxonomy.WithTaxonomy(tax),
	)
	if err != nil {
		return err
	}
	if len(terms) == 0 {
		fmt.Printf("No %s matches %q\n", tax, args[0])
		return nil
	}

	level := make(map[int64]int, len(terms))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLUG\tNAME\tPARENT")
	for _, t := range terms {
		if l, ok := level[t.ParentID]; ok {
			level[t.ID] = l + 1
		}
		fmt.Fprintf(w, "%d\t%s%s\t%s\t%d\n", t.ID, strings.Repeat("  ", level[t.ID]), t.Slug, t.Name, t.ParentID)
	}
	return w.Flush()
}
