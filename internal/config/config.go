package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/2767mr/tmam/internal/catalog"
	"github.com/2767mr/tmam/internal/search"
	"github.com/2767mr/tmam/internal/shape"
	"github.com/2767mr/tmam/internal/tmam"
)

// ErrInvalid wraps every configuration error.
var ErrInvalid = errors.New("config: invalid")

type CatalogConfig struct {
	// EmptyPolicy is "all" or "abort".
	EmptyPolicy string `mapstructure:"empty_policy"`
}

type SolverConfig struct {
	Strategies   []string `mapstructure:"strategies"`
	MaxLogoSize  int      `mapstructure:"max_logo_size"`
	IterationCap int      `mapstructure:"iteration_cap"`
}

type SearchConfig struct {
	Seeds        []string       `mapstructure:"seeds"`
	MaxCost      int            `mapstructure:"max_cost"`
	IterationCap int            `mapstructure:"iteration_cap"`
	StackCost    int            `mapstructure:"stack_cost"`
	OpCost       map[string]int `mapstructure:"op_cost"`
}

// OutputConfig names the files written after a run. An empty path skips
// that output.
type OutputConfig struct {
	BuildsPath string `mapstructure:"builds_path"`
	DBPath     string `mapstructure:"db_path"`
	ChartPath  string `mapstructure:"chart_path"`
	SQLitePath string `mapstructure:"sqlite_path"`
	ReportPath string `mapstructure:"report_path"`
}

// Config holds all runtime configuration.
// Values are populated from .tmam.yaml, TMAM_* env vars, and CLI flags.
type Config struct {
	CatalogPath string        `mapstructure:"catalog_path"`
	Catalog     CatalogConfig `mapstructure:"catalog"`
	Solver      SolverConfig  `mapstructure:"solver"`
	Search      SearchConfig  `mapstructure:"search"`
	Output      OutputConfig  `mapstructure:"output"`
	LogLevel    string        `mapstructure:"log_level"`
	Verbose     bool          `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetEnvPrefix("TMAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("catalog_path", "")
	viper.SetDefault("catalog.empty_policy", string(catalog.EmptyAll))
	viper.SetDefault("solver.strategies", []string{"fastmam", "greedy", "combo"})
	viper.SetDefault("solver.max_logo_size", 4)
	viper.SetDefault("solver.iteration_cap", 100_000)
	viper.SetDefault("search.seeds", []string{"1", "2", "4", "8"})
	viper.SetDefault("search.max_cost", 8)
	viper.SetDefault("search.iteration_cap", 0)
	viper.SetDefault("search.stack_cost", 1)
	viper.SetDefault("search.op_cost", map[string]int{})
	viper.SetDefault("output.builds_path", "builds.txt")
	viper.SetDefault("output.db_path", "builds.bin")
	viper.SetDefault("output.chart_path", "chart.txt")
	viper.SetDefault("output.sqlite_path", "")
	viper.SetDefault("output.report_path", "run.toml")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch catalog.EmptyPolicy(c.Catalog.EmptyPolicy) {
	case catalog.EmptyAll, catalog.EmptyAbort:
	default:
		return fmt.Errorf("%w: catalog.empty_policy %q", ErrInvalid, c.Catalog.EmptyPolicy)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.SolverConfig(); err != nil {
		return err
	}
	if _, err := c.SearchConfig(); err != nil {
		return err
	}
	return nil
}

// Level is the log level to run at. Verbose forces debug.
func (c Config) Level() (logrus.Level, error) {
	if c.Verbose {
		return logrus.DebugLevel, nil
	}
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("%w: log_level: %w", ErrInvalid, err)
	}
	return lvl, nil
}

func (c Config) EmptyPolicy() catalog.EmptyPolicy {
	return catalog.EmptyPolicy(c.Catalog.EmptyPolicy)
}

func (c Config) SolverConfig() (tmam.Config, error) {
	cfg := tmam.Config{
		MaxLogoSize:  c.Solver.MaxLogoSize,
		IterationCap: c.Solver.IterationCap,
	}
	for _, s := range c.Solver.Strategies {
		cfg.Strategies = append(cfg.Strategies, tmam.Strategy(strings.TrimSpace(s)))
	}
	if err := cfg.Validate(); err != nil {
		return tmam.Config{}, fmt.Errorf("%w: solver: %w", ErrInvalid, err)
	}
	return cfg, nil
}

func (c Config) SearchConfig() (search.Config, error) {
	cfg := search.Config{
		MaxCost:      c.Search.MaxCost,
		IterationCap: c.Search.IterationCap,
		StackCost:    c.Search.StackCost,
		OpCost:       make(map[search.Op]int, len(c.Search.OpCost)),
	}
	for _, s := range c.Search.Seeds {
		seed, err := shape.Parse(s)
		if err != nil {
			return search.Config{}, fmt.Errorf("%w: search.seeds: %w", ErrInvalid, err)
		}
		cfg.Seeds = append(cfg.Seeds, seed)
	}
	for name, cost := range c.Search.OpCost {
		op, err := search.ParseOp(name)
		if err != nil {
			return search.Config{}, fmt.Errorf("%w: search.op_cost: %w", ErrInvalid, err)
		}
		cfg.OpCost[op] = cost
	}
	if err := cfg.Validate(); err != nil {
		return search.Config{}, fmt.Errorf("%w: search: %w", ErrInvalid, err)
	}
	return cfg, nil
}
