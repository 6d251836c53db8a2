package main

import (
	"cvrp-route-service/internal/adapters/optimal"
	"cvrp-route-service/internal/adapters/tsplib"
	"cvrp-route-service/internal/config"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/services"
	"fmt"
	"io"
	"strings"
)

type report struct {
	File     *tsplib.File
	Instance *domain.Instance
	Result   *services.PlanResult
	Catalog  *optimal.Catalog
	Options  config.Output
}

var rule = strings.Repeat("=", 50)

// bestKnown prefers the catalog over the file's COMMENT.
func bestKnown(c *optimal.Catalog, f *tsplib.File) (float64, bool) {
	if c != nil {
		if s, ok := c.Lookup(f.Name); ok {
			return s.Cost, true
		}
	}
	return tsplib.OptimalValue(f.Comment)
}

func printReport(w io.Writer, r report) {
	res, sol, f := r.Result, r.Result.Solution, r.File
	quiet := r.Options.Quiet

	if !quiet {
		fmt.Fprintf(w, "Problem name: %s\n", f.Name)
		fmt.Fprintf(w, "Customers: %d\n", len(f.Nodes)-1)
		fmt.Fprintf(w, "Vehicle capacity: %d\n", f.Capacity)
		if in := r.Instance; in != nil {
			total := in.TotalDemand()
			fmt.Fprintf(w, "Total demand: %d (at least %d vehicles)\n", total, (total+in.Capacity()-1)/in.Capacity())
		}
		fmt.Fprintf(w, "Comment: %s\n\n", f.Comment)
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "SOLUTION RESULTS (%s)\n", res.Run.Algorithm)
	}

	fmt.Fprintf(w, "Total cost: %.2f\n", sol.TotalCost)
	fmt.Fprintf(w, "Number of vehicles: %d\n", sol.Vehicles())
	fmt.Fprintf(w, "Computation time: %.2fs\n", res.Run.Duration.Seconds())

	if !quiet && res.Greedy != nil && res.ColumnGeneration != nil {
		fmt.Fprintf(w, "Greedy cost: %.2f\n", res.Greedy.TotalCost)
		fmt.Fprintf(w, "Column generation cost: %.2f\n", res.ColumnGeneration.TotalCost)
	}

	if !quiet && r.Options.RouteDetails {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Route details:")
		for i, rt := range sol.Routes {
			fmt.Fprintf(w, "  Vehicle %d: %s (load %d/%d, cost %.2f)\n", i+1, rt, rt.Load(), f.Capacity, rt.Cost())
		}
	}

	if r.Options.Verbose && res.Report != nil {
		rep := res.Report
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Column generation:")
		fmt.Fprintf(w, "  Outcome: %s (%s)\n", rep.Outcome, rep.StopReason)
		fmt.Fprintf(w, "  Iterations: %d\n", rep.Iterations)
		fmt.Fprintf(w, "  Columns: %d initial, %d final\n", rep.InitialColumns, rep.PoolSize)
		fmt.Fprintf(w, "  LP bound: %.2f\n", rep.MasterObjective)
		fmt.Fprintf(w, "  Strategies: master=%s pricing=%s finalize=%s\n", rep.MasterStrategy, rep.PricingStrategy, rep.FinalizeStrategy)
		fmt.Fprintf(w, "  Degradations: %d\n", rep.Degradations)
	}

	status := "PASS"
	if !res.Valid() {
		status = "FAIL (" + res.Violation.Error() + ")"
	}
	fmt.Fprintf(w, "Solution validation: %s\n", status)

	if opt, ok := bestKnown(r.Catalog, f); ok {
		fmt.Fprintf(w, "Optimal cost: %.0f\n", opt)
		fmt.Fprintf(w, "Gap from optimal: %.2f%%\n", optimal.Gap(sol.TotalCost, opt))
	}
}
