package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed <fixtures.yaml>",
	Short: "Load terms, items and capabilities from a YAML fixture",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Backend == backendMemory {
		return fmt.Errorf("seed needs a persistent store, PORTAL_STORE is %q", cfg.Backend)
	}

	ctx := cmd.Context()
	b, err := openBackend(ctx, cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer b.close(ctx)

	fx, err := seedFile(ctx, b.site, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d terms, %d items, %d capabilities\n", len(fx.Terms), len(fx.Items), len(fx.Capabilities))
	return nil
}
