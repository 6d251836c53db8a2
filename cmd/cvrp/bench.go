package main

import (
	"cmp"
	"cvrp-route-service/internal/adapters/optimal"
	"cvrp-route-service/internal/adapters/tsplib"
	"cvrp-route-service/internal/services"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type benchRow struct {
	Name      string
	Customers int
	Greedy    float64
	CG        float64
	Best      float64
	Vehicles  int
	Gap       float64
	HasGap    bool
	Duration  time.Duration
	Err       error
}

// runBench solves every instance in parallel. A failing instance is reported
// in its row and does not stop the others.
func runBench(cmd *cobra.Command, args []string) error {
	cfg, catalog, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	files, err := filepath.Glob(filepath.Join(args[0], "*.vrp"))
	if err != nil {
		return fmt.Errorf("bench: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("bench: no .vrp files in %s", args[0])
	}

	workers := parallel
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	// Instances already run in parallel; keep each pricing round sequential.
	ec := cfg.EngineConfig()
	ec.PricingWorkers = 1
	planner := services.NewPlanner(ec)

	rows := make([]benchRow, len(files))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			rows[i] = solveOne(cmd, planner, cfg.Algorithm(), catalog, path)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(rows, func(a, b benchRow) int { return cmp.Compare(a.Name, b.Name) })

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTANCE\tN\tGREEDY\tCG\tBEST\tVEHICLES\tGAP\tTIME")
	failed := 0
	for _, r := range rows {
		if r.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t%d\terror: %v\t\t\t\t\t\n", r.Name, r.Customers, r.Err)
			continue
		}
		gap := "-"
		if r.HasGap {
			gap = fmt.Sprintf("%.2f%%", r.Gap)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%.2f\t%d\t%s\t%.2fs\n",
			r.Name, r.Customers, costCell(r.Greedy), costCell(r.CG), r.Best, r.Vehicles, gap, r.Duration.Seconds())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("bench: %d of %d instances failed", failed, len(rows))
	}
	return nil
}

func solveOne(cmd *cobra.Command, planner *services.Planner, alg services.Algorithm, catalog *optimal.Catalog, path string) benchRow {
	f, in, err := tsplib.ParseFile(path)
	if err != nil {
		return benchRow{Name: filepath.Base(path), Err: err}
	}
	row := benchRow{Name: f.Name, Customers: in.NumCustomers()}

	res, err := planner.Plan(cmd.Context(), in, alg)
	if err != nil {
		row.Err = err
		return row
	}
	if res.Greedy != nil {
		row.Greedy = res.Greedy.TotalCost
	}
	if res.ColumnGeneration != nil {
		row.CG = res.ColumnGeneration.TotalCost
	}
	row.Best = res.Solution.TotalCost
	row.Vehicles = res.Solution.Vehicles()
	row.Duration = res.Run.Duration
	if !res.Valid() {
		row.Err = res.Violation
	}
	if opt, ok := bestKnown(catalog, f); ok {
		row.Gap, row.HasGap = optimal.Gap(row.Best, opt), true
	}
	return row
}

func costCell(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
