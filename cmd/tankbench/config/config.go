// Package config provides configuration parsing for tankbench.
//
// Settings come from command-line flags, then environment variables, then
// defaults. An optional YAML file replaces the generated case matrix:
//
//	iterations: 3
//	cases:
//	  - engine: sweep
//	    shape: random
//	    size: 1000
//	    minLevel: -100
//	    maxLevel: 100
//	  - engine: bisect
//	    shape: staircase
//	    size: 500      # limits omitted: unbounded
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HatiCode/tanklevels/pkg/bench"
	"github.com/HatiCode/tanklevels/pkg/tank"
	"github.com/HatiCode/tanklevels/pkg/workload"
)

type Config struct {
	Engines    []string
	Sizes      []int
	Iterations int
	Operations int
	Seed       uint64
	CasesFile  string

	// Target is "local", or a tankd address: http(s)://host:port for HTTP,
	// host:port for gRPC.
	Target string

	MetricsListen string
	LogFormat     string
	LogLevel      string
}

func ParseFlags() *Config {
	cfg := &Config{}

	var engines, sizes string
	var seed int

	flag.StringVar(&engines, "engines", getEnv("BENCH_ENGINES", strings.Join(tank.Names(), ",")), "Comma-separated engines")
	flag.StringVar(&sizes, "sizes", getEnv("BENCH_SIZES", joinInts(bench.DefaultSizes)), "Comma-separated history sizes")
	flag.IntVar(&cfg.Iterations, "iterations", getEnvInt("BENCH_ITERATIONS", 5), "Iterations per case")
	flag.IntVar(&cfg.Operations, "operations", getEnvInt("BENCH_OPERATIONS", bench.DefaultOperations), "Operations per iteration")
	flag.IntVar(&seed, "seed", getEnvInt("BENCH_SEED", 1), "Random seed")
	flag.StringVar(&cfg.CasesFile, "cases", getEnv("BENCH_CASES", ""), "YAML case file (overrides -engines and -sizes)")
	flag.StringVar(&cfg.Target, "target", getEnv("BENCH_TARGET", "local"), "local, http://host:port or host:port (gRPC)")
	flag.StringVar(&cfg.MetricsListen, "metrics-listen", getEnv("METRICS_LISTEN", ""), "Serve /metrics on this address while running")
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format (text|json)")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")

	flag.Parse()

	cfg.Seed = uint64(seed)
	cfg.Engines = splitList(engines)
	parsed, err := parseInts(sizes)
	if err == nil {
		cfg.Sizes = parsed
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		flag.Usage()
		os.Exit(1)
	}

	return cfg
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("-iterations must be positive, got %d", c.Iterations)
	}
	if c.Operations < 1 {
		return fmt.Errorf("-operations must be positive, got %d", c.Operations)
	}
	if c.CasesFile != "" {
		return nil
	}
	if len(c.Engines) == 0 {
		return errors.New("-engines is empty")
	}
	for _, e := range c.Engines {
		if !slices.Contains(tank.Names(), e) {
			return fmt.Errorf("unknown engine %q (want one of %v)", e, tank.Names())
		}
	}
	if len(c.Sizes) == 0 {
		return errors.New("-sizes is empty")
	}
	return nil
}

// Cases returns the cases to run: the YAML file when configured, otherwise the
// default matrix over Engines and Sizes. The second result is the iteration count,
// which the file may override.
func (c *Config) Cases() ([]bench.Case, int, error) {
	if c.CasesFile == "" {
		cases := bench.DefaultCases(c.Engines, c.Sizes)
		for i := range cases {
			cases[i].Operations = c.Operations
			cases[i].Seed = c.Seed
		}
		return cases, c.Iterations, nil
	}

	f, err := os.Open(c.CasesFile)
	if err != nil {
		return nil, 0, fmt.Errorf("open cases: %w", err)
	}
	defer f.Close()

	file, err := LoadCases(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", c.CasesFile, err)
	}

	iterations := c.Iterations
	if file.Iterations > 0 {
		iterations = file.Iterations
	}
	for i := range file.Cases {
		if file.Cases[i].Operations == 0 {
			file.Cases[i].Operations = c.Operations
		}
		if file.Cases[i].Seed == 0 {
			file.Cases[i].Seed = c.Seed
		}
	}
	return file.Cases, iterations, nil
}

// CasesFile is the parsed YAML case file.
type CasesFile struct {
	Iterations int
	Cases      []bench.Case
}

type caseEntry struct {
	Engine     string   `yaml:"engine"`
	Shape      string   `yaml:"shape"`
	Size       int      `yaml:"size"`
	MinLevel   *float64 `yaml:"minLevel"`
	MaxLevel   *float64 `yaml:"maxLevel"`
	Operations int      `yaml:"operations"`
	Seed       uint64   `yaml:"seed"`
}

// LoadCases parses a YAML case file. Missing limits are unbounded, a missing engine
// is the default engine and a missing shape is random.
func LoadCases(r io.Reader) (*CasesFile, error) {
	var doc struct {
		Iterations int        `yaml:"iterations"`
		Cases      []caseEntry `yaml:"cases"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse cases: %w", err)
	}
	if len(doc.Cases) == 0 {
		return nil, errors.New("no cases defined")
	}

	out := &CasesFile{Iterations: doc.Iterations, Cases: make([]bench.Case, 0, len(doc.Cases))}
	for i, entry := range doc.Cases {
		c := bench.Case{
			Engine:     entry.Engine,
			Shape:      workload.Random,
			Size:       entry.Size,
			MinLevel:   math.Inf(-1),
			MaxLevel:   math.Inf(1),
			Operations: entry.Operations,
			Seed:       entry.Seed,
		}
		if c.Engine == "" {
			c.Engine = tank.DefaultEngine
		}
		if !slices.Contains(tank.Names(), c.Engine) {
			return nil, fmt.Errorf("case %d: unknown engine %q", i, c.Engine)
		}
		if entry.Shape != "" {
			shape, err := workload.ParseShape(entry.Shape)
			if err != nil {
				return nil, fmt.Errorf("case %d: %w", i, err)
			}
			c.Shape = shape
		}
		if entry.Size < 0 {
			return nil, fmt.Errorf("case %d: negative size %d", i, entry.Size)
		}
		if entry.MinLevel != nil {
			c.MinLevel = *entry.MinLevel
		}
		if entry.MaxLevel != nil {
			c.MaxLevel = *entry.MaxLevel
		}
		if c.MinLevel > c.MaxLevel {
			return nil, fmt.Errorf("case %d: minLevel %g exceeds maxLevel %g", i, c.MinLevel, c.MaxLevel)
		}
		out.Cases = append(out.Cases, c)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid size %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
