// Package config loads the service configuration from YAML with
// environment overrides.
package config

import (
	"cvrp-route-service/internal/adapters/lpsolver"
	"cvrp-route-service/internal/platform/obs"
	"cvrp-route-service/internal/ports"
	"cvrp-route-service/internal/services"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	General    General    `yaml:"general"`
	Algorithms Algorithms `yaml:"algorithms"`
	Solver     Solver     `yaml:"solver"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Storage    Storage    `yaml:"storage"`
}

type General struct {
	// Algorithm is greedy, column_generation or both.
	Algorithm      string `yaml:"algorithm"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	OptimalCatalog string `yaml:"optimal_catalog"`
}

type Algorithms struct {
	ColumnGeneration ColumnGeneration `yaml:"column_generation"`
}

type ColumnGeneration struct {
	MaxIterations          int           `yaml:"max_iterations"`
	LargeMaxIterations     int           `yaml:"large_max_iterations"`
	LargeInstanceThreshold int           `yaml:"large_instance_threshold"`
	PoolSizeFactor         int           `yaml:"pool_size_factor"`
	Tolerance              float64       `yaml:"tolerance"`
	TimeLimit              time.Duration `yaml:"time_limit"`
	PricingMaxArcs         int           `yaml:"pricing_max_arcs"`
	PricingWorkers         int           `yaml:"pricing_workers"`
}

type Solver struct {
	// Backends in priority order: gonum, glpsol.
	Backends   []string      `yaml:"backends"`
	GlpsolPath string        `yaml:"glpsol_path"`
	Timeout    time.Duration `yaml:"timeout"`
	Breaker    Breaker       `yaml:"breaker"`
}

type Breaker struct {
	MinRequests  uint32        `yaml:"min_requests"`
	FailureRatio float64       `yaml:"failure_ratio"`
	OpenTimeout  time.Duration `yaml:"open_timeout"`
}

type Output struct {
	RouteDetails bool `yaml:"route_details"`
	Verbose      bool `yaml:"verbose"`
	Quiet        bool `yaml:"quiet"`
}

type Server struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// MaxBodyBytes bounds POST /solve bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

type Storage struct {
	DatabaseURL string        `yaml:"database_url"`
	RedisURL    string        `yaml:"redis_url"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// Default mirrors services.DefaultConfig plus the outer-surface settings.
func Default() Config {
	d := services.DefaultConfig()
	return Config{
		General: General{Algorithm: "both", LogLevel: "info", LogFormat: "text"},
		Algorithms: Algorithms{ColumnGeneration: ColumnGeneration{
			MaxIterations:          d.MaxIterations,
			LargeMaxIterations:     d.LargeMaxIterations,
			LargeInstanceThreshold: d.LargeInstanceThreshold,
			PoolSizeFactor:         d.PoolSizeFactor,
			Tolerance:              d.Tolerance,
			TimeLimit:              300 * time.Second,
			PricingMaxArcs:         d.PricingMaxArcs,
		}},
		Solver: Solver{
			Backends:   []string{"gonum", "glpsol"},
			GlpsolPath: "glpsol",
			Timeout:    d.SolverTimeout,
			Breaker:    Breaker{MinRequests: 3, FailureRatio: 0.5, OpenTimeout: 30 * time.Second},
		},
		Output: Output{RouteDetails: true},
		Server: Server{
			Port:         "8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Minute,
			MaxBodyBytes: 8 << 20,
		},
		Storage: Storage{CacheTTL: 24 * time.Hour},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config: decode %q: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (c *Config) applyEnv() error {
	c.Storage.DatabaseURL = Get("DATABASE_URL", c.Storage.DatabaseURL)
	c.Storage.RedisURL = Get("REDIS_URL", c.Storage.RedisURL)
	c.Server.Port = Get("PORT", c.Server.Port)
	c.Solver.GlpsolPath = Get("GLPSOL_PATH", c.Solver.GlpsolPath)
	c.General.LogLevel = Get("LOG_LEVEL", c.General.LogLevel)
	c.General.LogFormat = Get("LOG_FORMAT", c.General.LogFormat)
	c.General.Algorithm = Get("CVRP_ALGORITHM", c.General.Algorithm)
	c.General.OptimalCatalog = Get("CVRP_OPTIMAL_CATALOG", c.General.OptimalCatalog)

	if v := Get("CVRP_SOLVERS", ""); v != "" {
		c.Solver.Backends = strings.Split(v, ",")
	}
	if v := Get("CVRP_MAX_ITERATIONS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CVRP_MAX_ITERATIONS %q: %w", v, err)
		}
		c.Algorithms.ColumnGeneration.MaxIterations = n
		c.Algorithms.ColumnGeneration.LargeMaxIterations = n
	}
	if v := Get("CVRP_TIME_LIMIT", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CVRP_TIME_LIMIT %q: %w", v, err)
		}
		c.Algorithms.ColumnGeneration.TimeLimit = d
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := services.ParseAlgorithm(c.General.Algorithm); err != nil {
		errs = append(errs, err)
	}
	cg := c.Algorithms.ColumnGeneration
	if cg.MaxIterations < 0 || cg.LargeMaxIterations < 0 {
		errs = append(errs, errors.New("max_iterations must not be negative"))
	}
	if cg.Tolerance < 0 {
		errs = append(errs, errors.New("tolerance must not be negative"))
	}
	if cg.TimeLimit < 0 {
		errs = append(errs, errors.New("time_limit must not be negative"))
	}
	for _, b := range c.Solver.Backends {
		switch strings.TrimSpace(b) {
		case backendGonum, backendGlpsol:
		default:
			errs = append(errs, fmt.Errorf("unknown solver backend %q", b))
		}
	}
	if r := c.Solver.Breaker.FailureRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("breaker failure_ratio %v outside [0, 1]", r))
	}
	return errors.Join(errs...)
}

func (c *Config) Log() obs.LogConfig {
	return obs.LogConfig{Level: c.General.LogLevel, Format: c.General.LogFormat}
}

// Algorithm returns the parsed default algorithm.
func (c *Config) Algorithm() services.Algorithm {
	alg, err := services.ParseAlgorithm(c.General.Algorithm)
	if err != nil {
		return services.AlgorithmBoth
	}
	return alg
}

const (
	backendGonum  = "gonum"
	backendGlpsol = "glpsol"
)

// EngineConfig builds the engine settings and solver chains. A glpsol
// backend whose executable cannot be found is skipped with a log line;
// glpsol calls go through a circuit breaker.
func (c *Config) EngineConfig() services.Config {
	cg := c.Algorithms.ColumnGeneration
	ec := services.DefaultConfig()
	ec.MaxIterations = cg.MaxIterations
	ec.LargeMaxIterations = cg.LargeMaxIterations
	ec.LargeInstanceThreshold = cg.LargeInstanceThreshold
	ec.PoolSizeFactor = cg.PoolSizeFactor
	ec.Tolerance = cg.Tolerance
	ec.TimeLimit = cg.TimeLimit
	ec.PricingMaxArcs = cg.PricingMaxArcs
	if cg.PricingWorkers > 0 {
		ec.PricingWorkers = cg.PricingWorkers
	}
	ec.SolverTimeout = c.Solver.Timeout

	for _, b := range c.Solver.Backends {
		switch strings.TrimSpace(b) {
		case backendGonum:
			lp := lpsolver.NewSimplex()
			ec.MasterSolvers = append(ec.MasterSolvers, lp)
			ec.IntegerSolvers = append(ec.IntegerSolvers, lpsolver.NewBranchBound())
			setPricing(&ec, lp)
		case backendGlpsol:
			g := lpsolver.NewGlpsol(c.Solver.GlpsolPath)
			if !g.Available() {
				slog.Info("glpsol not found, backend skipped", "path", c.Solver.GlpsolPath)
				continue
			}
			br := lpsolver.NewBreaker(g, lpsolver.BreakerSettings{
				MinRequests:  c.Solver.Breaker.MinRequests,
				FailureRatio: c.Solver.Breaker.FailureRatio,
				OpenTimeout:  c.Solver.Breaker.OpenTimeout,
			})
			ec.MasterSolvers = append(ec.MasterSolvers, br)
			ec.IntegerSolvers = append(ec.IntegerSolvers, br)
			setPricing(&ec, br)
		}
	}
	return ec
}

func setPricing(ec *services.Config, s ports.LPSolver) {
	if ec.PricingSolver == nil {
		ec.PricingSolver = s
	}
}
