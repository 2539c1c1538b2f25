// ABOUTME: Configuration management for the evolution driver's tunables
// ABOUTME: Handles loading/saving TOML config files with fallback to defaults

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the driver-level knobs spec.md §4.5 and §6 describe for the
// generational loop but never names a home for: population shape, the
// termination policy, the fitness scale constant, and worker sizing.
type Config struct {
	// PopulationSize is the number of chromosomes per generation.
	PopulationSize int `toml:"population_size"`
	// MaxGenerations caps how many generations Evolution.Run iterates
	// before stopping even if fitness is still improving.
	MaxGenerations int `toml:"max_generations"`
	// EliteSize is how many top chromosomes survive unchanged into the
	// next generation.
	EliteSize int `toml:"elite_size"`
	// TerminationThreshold is the number of consecutive generations
	// without strict fitness improvement after which Evolution.Run stops
	// early (spec.md §4.5's default is 10).
	TerminationThreshold int `toml:"termination_threshold"`
	// FitnessScale is K in fitness(c) = K / (1/K + sum of adjacent diss).
	FitnessScale float64 `toml:"fitness_scale"`
	// Workers bounds the worker-pool size used for both compatibility
	// analysis and per-generation fitness/crossover parallelism. 0 means
	// "use all available CPUs".
	Workers int `toml:"workers"`
}

// GetConfigPath returns the default config file path: the current
// directory first, falling back to ~/.config/jigsaw-ga/config.toml.
func GetConfigPath() string {
	if _, err := os.Stat("./jigsaw-ga.toml"); err == nil {
		return "./jigsaw-ga.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./jigsaw-ga.toml"
	}

	return filepath.Join(home, ".config", "jigsaw-ga", "config.toml")
}

// Load reads configuration from a TOML file. If the file doesn't exist, it
// returns Default without error; any other read or parse failure is
// reported with the defaults alongside it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to a TOML file, creating its parent directory
// if necessary.
func Save(path string, cfg Config) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", cerr)
		}
	}()

	if encErr := toml.NewEncoder(f).Encode(cfg); encErr != nil {
		return fmt.Errorf("failed to write config: %w", encErr)
	}

	return nil
}

// Default returns the reference genetic-algorithm parameters: population
// 200 and a 20-generation cap (original_source/gaps/cli.py's
// DEFAULT_POPULATION/DEFAULT_GENERATIONS), 4 elites
// (original_source/gaps/genetic_algorithm.py's ELITISM_FACTOR=0.02 applied
// to the default population), a 10-generation plateau threshold (spec.md
// §4.5's DEFAULT_TERMINATION_THRESHOLD), and K=1000
// (original_source/gaps/individual.py's FITNESS_FACTOR).
func Default() Config {
	return Config{
		PopulationSize:       200,
		MaxGenerations:       20,
		EliteSize:            4,
		TerminationThreshold: 10,
		FitnessScale:         1000,
		Workers:              0,
	}
}
