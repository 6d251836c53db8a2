package main

import (
	"cvrp-route-service/internal/adapters/tsplib"
	"cvrp-route-service/internal/services"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, catalog, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	f, in, err := tsplib.ParseFile(args[0])
	if err != nil {
		return err
	}

	planner := services.NewPlanner(cfg.EngineConfig())
	res, err := planner.Plan(cmd.Context(), in, cfg.Algorithm())
	if err != nil {
		return fmt.Errorf("solve %s: %w", args[0], err)
	}

	printReport(os.Stdout, report{
		File:     f,
		Instance: in,
		Result:   res,
		Catalog:  catalog,
		Options:  cfg.Output,
	})
	if !res.Valid() {
		return fmt.Errorf("solve %s: invalid solution: %w", args[0], res.Violation)
	}
	return nil
}
