package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug               = "debug"
	ConfigTableBits           = "table-bits"
	ConfigTableMemoryFraction = "table-memory-fraction"
	ConfigWeak                = "weak"
	ConfigColor               = "color"
	ConfigBenchWorkers        = "bench-workers"
	ConfigCPUProfile          = "cpu-profile"
	ConfigMemProfile          = "mem-profile"
)

const (
	envPrefix      = "C4SOLVER"
	configFileName = "c4solver"
)

// Config is the solver's configuration: defaults, overridden by an
// optional c4solver.yaml file, then C4SOLVER_* environment variables,
// then command-line flags.
type Config struct {
	*viper.Viper
	// Args are the positional arguments left after flag parsing.
	Args []string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigTableBits, 0)
	v.SetDefault(ConfigTableMemoryFraction, 0.25)
	v.SetDefault(ConfigWeak, false)
	v.SetDefault(ConfigColor, true)
	v.SetDefault(ConfigBenchWorkers, 1)
	v.SetDefault(ConfigCPUProfile, "")
	v.SetDefault(ConfigMemProfile, "")
	return v
}

// DefaultConfig returns a config holding only the defaults.
func DefaultConfig() *Config {
	return &Config{Viper: newViper()}
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("c4solver", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.Int(ConfigTableBits, 0, "transposition table holds 2^bits+1 entries; 0 sizes it from system memory")
	fs.Float64(ConfigTableMemoryFraction, 0.25, "fraction of system memory for the transposition table when table-bits is 0")
	fs.Bool(ConfigWeak, false, "only tell wins, draws and losses apart")
	fs.Bool(ConfigColor, true, "colored board output")
	fs.Int(ConfigBenchWorkers, 1, "number of concurrent solvers for bench")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigMemProfile, "", "write a memory profile to this file")
	return fs
}

// Load reads the configuration for a command line (without the program
// name).
func (c *Config) Load(args []string) error {
	c.Viper = newViper()

	fs := flagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.Args = fs.Args()

	c.SetEnvPrefix(envPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	c.SetConfigName(configFileName)
	c.SetConfigType("yaml")
	c.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		c.AddConfigPath(filepath.Join(home, ".c4solver"))
	}
	if err := c.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	} else {
		log.Info().Str("file", c.ConfigFileUsed()).Msg("loaded-config-file")
	}
	return nil
}

// TableBits is the configured table size, 0 meaning size from memory.
func (c *Config) TableBits() int {
	return c.GetInt(ConfigTableBits)
}

// Settings returns every key and its value, for display.
func (c *Config) Settings() map[string]any {
	return c.AllSettings()
}
