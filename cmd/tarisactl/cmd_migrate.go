package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/emmanuelfore/tarisa-sub001/internal/persistence"
	"github.com/emmanuelfore/tarisa-sub001/internal/refdata"
	"github.com/emmanuelfore/tarisa-sub001/internal/repository"
	"github.com/emmanuelfore/tarisa-sub001/internal/routing"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply embedded SQL migrations to POSTGRES_DSN",
	RunE:  runMigrate,
}

var seedFlags struct {
	path string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Validate a reference seed file and upsert it into Postgres",
	Long:  "seed loads jurisdictions and departments from a YAML file (the embedded\nsample when --file is empty), validates them as a snapshot and upserts them.",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFlags.path, "file", "", "Seed YAML path (default: embedded sample)")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		return errors.New("POSTGRES_DSN is required")
	}
	if err := persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), logger); err != nil {
		return err
	}
	names, err := persistence.MigrationNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
	}
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	data, err := refdata.FileSource{Path: seedFlags.path}.Load(ctx)
	if err != nil {
		return err
	}
	rules, err := routing.DefaultRules()
	if err != nil {
		return err
	}
	if _, err := refdata.Build(data, rules, time.Now().UTC()); err != nil {
		return fmt.Errorf("seed rejected: %w", err)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()
	pool := pg.PoolHandle()
	if pool == nil {
		return errors.New("POSTGRES_DSN is required")
	}

	// Parents before children so the parent_id foreign key holds.
	nodes := data.Jurisdictions
	sort.SliceStable(nodes, func(i, j int) bool {
		ri, _ := nodes[i].Level.Rank()
		rj, _ := nodes[j].Level.Rank()
		return ri < rj
	})
	jurisdictions := repository.NewJurisdictionRepository(pool)
	for i := range nodes {
		if err := jurisdictions.Upsert(ctx, &nodes[i]); err != nil {
			return fmt.Errorf("upsert jurisdiction %s: %w", nodes[i].ID, err)
		}
	}
	departments := repository.NewDepartmentRepository(pool)
	for i := range data.Departments {
		if err := departments.Upsert(ctx, &data.Departments[i]); err != nil {
			return fmt.Errorf("upsert department %s: %w", data.Departments[i].ID, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d jurisdictions, %d departments\n", len(nodes), len(data.Departments))
	return nil
}
