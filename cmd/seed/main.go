package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"company_registry/internal/config"
	"company_registry/internal/logging"
	"company_registry/internal/services"
)

func main() {
	opts := services.DefaultSeedOptions()
	var migrate bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty registry database with sample data",
		Long: `Creates sample individuals, legal persons, companies and shareholdings.
Nothing is written when the database already contains a company.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, migrate)
		},
	}

	cmd.Flags().IntVar(&opts.Individuals, "individuals", opts.Individuals, "number of individual persons")
	cmd.Flags().IntVar(&opts.LegalEntities, "legal", opts.LegalEntities, "number of legal persons")
	cmd.Flags().IntVar(&opts.Companies, "companies", opts.Companies, "number of companies")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 = time based)")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "create missing tables before seeding")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts services.SeedOptions, migrate bool) error {
	if opts.Individuals < 0 || opts.LegalEntities < 0 || opts.Companies < 0 {
		return fmt.Errorf("counts must not be negative")
	}
	if opts.Companies > 0 && opts.Individuals+opts.LegalEntities < 2 {
		return fmt.Errorf("companies need at least two persons to pick shareholders from")
	}

	cfg, err := config.Load("5000")
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting database initialization")

	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if migrate {
		if err := services.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	result, err := services.Seed(ctx, db, opts, logger)
	if err != nil {
		return err
	}

	if !result.Skipped {
		fmt.Printf("Created %d persons, %d companies, %d shareholdings\n", result.Persons, result.Companies, result.Shareholdings)
	}
	return nil
}
