package main

import (
	"context"
	"cvrp-route-service/internal/adapters/optimal"
	"cvrp-route-service/internal/config"
	"cvrp-route-service/internal/platform/obs"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath     string
	algorithm      string
	maxIterations  int
	timeLimit      time.Duration
	quiet          bool
	verbose        bool
	noRouteDetails bool
	catalogPath    string
	parallel       int

	rootCmd = &cobra.Command{
		Use:           "cvrp",
		Short:         "Solve capacitated vehicle routing problems",
		Long:          "cvrp solves TSPLIB95 CVRP instances with a greedy heuristic and column generation.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	solveCmd = &cobra.Command{
		Use:   "solve <file.vrp>",
		Short: "Solve one instance and print the routes",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}

	benchCmd = &cobra.Command{
		Use:   "bench <dir>",
		Short: "Solve every .vrp file in a directory and print a summary table",
		Args:  cobra.ExactArgs(1),
		RunE:  runBench,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.StringVarP(&algorithm, "algorithm", "a", "", "greedy, column_generation or both")
	pf.IntVar(&maxIterations, "max-iterations", 0, "column generation iteration limit")
	pf.DurationVar(&timeLimit, "time-limit", 0, "column generation time limit, e.g. 5m")
	pf.BoolVarP(&quiet, "quiet", "q", false, "print only the summary")
	pf.BoolVarP(&verbose, "verbose", "v", false, "print the column generation report and debug logs")
	pf.StringVar(&catalogPath, "catalog", "", "YAML file of best known solutions")

	solveCmd.Flags().BoolVar(&noRouteDetails, "no-route-details", false, "omit per-vehicle route lines")
	benchCmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "instances solved at once (default GOMAXPROCS)")

	rootCmd.AddCommand(solveCmd, benchCmd)
}

func main() {
	_ = godotenv.Load()

	// Interrupting a run stops column generation early; the best solution
	// found so far is still printed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig merges the config file, environment and command-line flags,
// then installs the logger on stderr.
func loadConfig(cmd *cobra.Command) (config.Config, *optimal.Catalog, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("algorithm") {
		cfg.General.Algorithm = algorithm
	}
	if flags.Changed("max-iterations") {
		cfg.Algorithms.ColumnGeneration.MaxIterations = maxIterations
		cfg.Algorithms.ColumnGeneration.LargeMaxIterations = maxIterations
	}
	if flags.Changed("time-limit") {
		cfg.Algorithms.ColumnGeneration.TimeLimit = timeLimit
	}
	if flags.Changed("quiet") {
		cfg.Output.Quiet = quiet
	}
	if flags.Changed("verbose") {
		cfg.Output.Verbose = verbose
	}
	if flags.Changed("no-route-details") {
		cfg.Output.RouteDetails = !noRouteDetails
	}
	if flags.Changed("catalog") {
		cfg.General.OptimalCatalog = catalogPath
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	logCfg := cfg.Log()
	switch {
	case cfg.Output.Verbose:
		logCfg.Level = "debug"
	case cfg.Output.Quiet:
		logCfg.Level = "error"
	}
	obs.Setup(logCfg, os.Stderr)

	catalog := optimal.Default()
	if cfg.General.OptimalCatalog != "" {
		if catalog, err = optimal.Load(cfg.General.OptimalCatalog); err != nil {
			return config.Config{}, nil, err
		}
	}
	return cfg, catalog, nil
}
