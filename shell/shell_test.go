package shell

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"lukechampine.com/frand"

	"github.com/nicolandu/broken-connect-four/board"
	"github.com/nicolandu/broken-connect-four/config"
	"github.com/nicolandu/broken-connect-four/movegen"
	"github.com/nicolandu/broken-connect-four/solver"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testController() *ShellController {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigTableBits, solver.MinTableBits)
	cfg.Set(config.ConfigColor, false)
	return newShellController(cfg)
}

func run(t *testing.T, sc *ShellController, line string) string {
	t.Helper()
	resp, err := sc.handle(line)
	if err != nil {
		t.Fatalf("%s: %v", line, err)
	}
	return resp.message
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"bench -workers 4 /path/to/positions.yaml",
			&shellcmd{"bench", []string{"/path/to/positions.yaml"}, CmdOptions{"workers": {"4"}}},
			nil},
		{"play 4453",
			&shellcmd{"play", []string{"4453"}, CmdOptions{}},
			nil},
		{`load grid "......." "...x..." -weak true `,
			&shellcmd{"load",
				[]string{"grid", ".......", "...x..."},
				CmdOptions{"weak": {"true"}}},
			nil,
		},
		{"solve -weak",
			nil, errWrongOptionSyntax},
	}
	for _, tc := range cases {
		cmd, err := extractFields(tc.line)
		is.Equal(cmd, tc.expCmd)
		is.Equal(err, tc.expErr)
	}
}

func TestPlayAndUndo(t *testing.T) {
	is := is.New(t)
	sc := testController()
	out := run(t, sc, "play 4453")
	is.True(strings.Contains(out, "Moves: 4453"))
	is.True(strings.Contains(out, "first player (x) to move, 4 stones played"))

	out = run(t, sc, "undo 2")
	is.True(strings.Contains(out, "Moves: 44"))
	is.Equal(sc.pos, mustMoves(t, "44"))

	_, err := sc.handle("undo 3")
	is.True(err != nil)
	_, err = sc.handle("play 8")
	is.True(errors.Is(err, board.ErrBadFile))
}

func TestPlayUntilWin(t *testing.T) {
	is := is.New(t)
	sc := testController()
	out := run(t, sc, "play 1212121")
	is.True(strings.Contains(out, "Game over: first player wins"))
	_, err := sc.handle("play 3")
	is.True(errors.Is(err, errGameOver))
	_, err = sc.handle("solve")
	is.True(errors.Is(err, errGameOver))
}

func TestSolveBestAnalyze(t *testing.T) {
	is := is.New(t)
	sc := testController()
	run(t, sc, "load moves 121212")

	out := run(t, sc, "solve")
	is.True(strings.Contains(out, "Value: 36, win with stone #7 for the first player"))

	out = run(t, sc, "solve -weak true")
	is.True(strings.Contains(out, "Value: 1, win for the first player"))

	out = run(t, sc, "best")
	is.True(strings.Contains(out, "Best move: a4 (file 1), value 36"))

	out = run(t, sc, "analyze")
	is.True(strings.Contains(out, "win with stone #7 *"))

	is.Equal(run(t, sc, "clear"), "transposition table cleared")
}

func TestLoadGrid(t *testing.T) {
	is := is.New(t)
	sc := testController()
	out := run(t, sc, "load grid ......./......./......./......./...o.../..xxo..")
	is.True(strings.Contains(out, "first player (x) to move, 4 stones played"))
	is.True(!strings.Contains(out, "Moves:"))
	is.Equal(run(t, sc, "show -grid true"), sc.pos.String())

	_, err := sc.handle("load grid .......")
	is.True(errors.Is(err, board.ErrBadGrid))
	_, err = sc.handle("load cgp x")
	is.True(err != nil)
}

func TestSet(t *testing.T) {
	is := is.New(t)
	sc := testController()
	is.Equal(run(t, sc, "set weak true"), "set weak to true")
	is.True(sc.options.weak)
	is.Equal(run(t, sc, "set weak"), "true")
	is.True(strings.Contains(run(t, sc, "set"), "color: false"))
	_, err := sc.handle("set weak maybe")
	is.True(err != nil)
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc := testController()
	is.True(strings.Contains(run(t, sc, "help"), "Commands:"))
	is.True(strings.Contains(run(t, sc, "help scores"), "The empty board is worth 2"))
	is.Equal(run(t, sc, "help nope"), "There is no help text for the topic nope")
}

func TestBench(t *testing.T) {
	is := is.New(t)
	sc := testController()
	path := filepath.Join(t.TempDir(), "Test_L1")
	is.NoErr(os.WriteFile(path, []byte("121212 18\n5252627 18\n"), 0o644))
	out := run(t, sc, "bench "+path+" -workers 2")
	is.True(strings.Contains(out, "Positions: 2, wrong: 0"))
}

func TestRandom(t *testing.T) {
	is := is.New(t)
	sc := testController()
	out := run(t, sc, "random 10")
	is.True(strings.Contains(out, "10 stones played"))
	is.NoErr(sc.pos.Validate())
}

func TestUnknownAndQuit(t *testing.T) {
	sc := testController()
	_, err := sc.handle("frobnicate")
	assert.EqualError(t, err, `command "frobnicate" not found`)
	_, err = sc.handle("exit")
	assert.ErrorIs(t, err, errQuit)
}

func TestAutocomplete(t *testing.T) {
	c := NewShellCompleter(testController())
	complete := func(line string) []string {
		matches, _ := c.Do([]rune(line), len(line))
		out := make([]string, len(matches))
		for i, m := range matches {
			out[i] = string(m)
		}
		return out
	}
	assert.Equal(t, []string{"lve"}, complete("so"))
	assert.Equal(t, []string{"eak"}, complete("solve -w"))
	assert.Equal(t, []string{"true", "false"}, complete("solve -weak "))
	assert.Equal(t, []string{"oves"}, complete("load m"))
}

func mustMoves(t *testing.T, moves string) board.Position {
	t.Helper()
	p, err := board.FromMoves(moves)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSolveWithMoves(t *testing.T) {
	is := is.New(t)
	sc := testController()
	out := run(t, sc, "solve 121212")
	is.True(strings.Contains(out, "Value: 36"))
	is.Equal(sc.moves, "121212")
	is.True(sc.Execute("best 121212"))
}

func TestBenchSingleWorkerSharesTable(t *testing.T) {
	is := is.New(t)
	sc := testController()
	rng := frand.NewCustom([]byte("c4solver-shell-bench-seed-012345"), 1024, 12)
	var pos board.Position
	for {
		p, err := board.RandomPosition(rng, 33)
		is.NoErr(err)
		if !movegen.CanWinNext(p.Mine, p.Theirs) && movegen.NonLosingMoves(p.Mine, p.Theirs) != 0 {
			pos = p
			break
		}
	}
	var doc strings.Builder
	doc.WriteString("positions:\n  - name: searched\n    grid: |\n")
	for _, row := range strings.Split(strings.TrimRight(pos.String(), "\n"), "\n") {
		doc.WriteString("      " + row + "\n")
	}
	path := filepath.Join(t.TempDir(), "set.yaml")
	is.NoErr(os.WriteFile(path, []byte(doc.String()), 0o644))

	out := run(t, sc, "bench "+path+" -workers 1")
	is.True(strings.Contains(out, "Positions: 1, wrong: 0"))
	// the shell's solver did the search
	is.True(sc.solver.Nodes() > 0)
}
