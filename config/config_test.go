package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.GetBool(ConfigDebug), false)
	is.Equal(cfg.TableBits(), 0)
	is.Equal(cfg.GetFloat64(ConfigTableMemoryFraction), 0.25)
	is.Equal(cfg.GetInt(ConfigBenchWorkers), 1)
	is.Equal(cfg.GetBool(ConfigColor), true)
}

func TestLoadFlags(t *testing.T) {
	is := is.New(t)
	t.Chdir(t.TempDir())
	cfg := &Config{}
	err := cfg.Load([]string{"--debug", "--table-bits", "20", "solve", "4453"})
	is.NoErr(err)
	is.Equal(cfg.GetBool(ConfigDebug), true)
	is.Equal(cfg.TableBits(), 20)
	is.Equal(cfg.Args, []string{"solve", "4453"})
}

func TestLoadEnv(t *testing.T) {
	is := is.New(t)
	t.Chdir(t.TempDir())
	t.Setenv("C4SOLVER_BENCH_WORKERS", "4")
	cfg := &Config{}
	is.NoErr(cfg.Load(nil))
	is.Equal(cfg.GetInt(ConfigBenchWorkers), 4)
}

func TestLoadConfigFile(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	t.Chdir(dir)
	err := os.WriteFile(filepath.Join(dir, "c4solver.yaml"), []byte("weak: true\ntable-bits: 22\n"), 0o644)
	is.NoErr(err)
	cfg := &Config{}
	// flags win over the file
	is.NoErr(cfg.Load([]string{"--table-bits", "18"}))
	is.Equal(cfg.GetBool(ConfigWeak), true)
	is.Equal(cfg.TableBits(), 18)
}

func TestLoadBadFlag(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Load([]string{"--no-such-flag"}); err == nil {
		t.Fatal("expected an error")
	}
}

