package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	bb "github.com/nicolandu/broken-connect-four/bitboard"
	"github.com/nicolandu/broken-connect-four/board"
	"github.com/nicolandu/broken-connect-four/config"
	"github.com/nicolandu/broken-connect-four/movegen"
	"github.com/nicolandu/broken-connect-four/runner"
	"github.com/nicolandu/broken-connect-four/solver"
)

var errGameOver = errors.New("the game is over; use `new`, `undo` or `load`")

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

// BoolDefault is Bool with a fallback when the option is absent.
func (c CmdOptions) BoolDefault(key string, defaultB bool) bool {
	if _, ok := c[key]; !ok {
		return defaultB
	}
	return c.Bool(key)
}

func msg(message string) *Response {
	return &Response{message: message}
}

// sideToMove names the player on turn, counting from the first stone.
func sideToMove(pos board.Position) string {
	if pos.Stones()%2 == 0 {
		return "first player"
	}
	return "second player"
}

func otherSide(pos board.Position) string {
	if pos.Stones()%2 == 0 {
		return "second player"
	}
	return "first player"
}

// describeValue explains a value from the point of view of the side to
// move. A win worth v empty squares is completed by stone number 43-v.
func describeValue(v int, weak bool) string {
	if weak {
		switch {
		case v > 0:
			return "win"
		case v < 0:
			return "loss"
		}
		return "draw"
	}
	switch {
	case v > 0:
		return fmt.Sprintf("win with stone #%d", bb.NumSquares+1-v)
	case v < 0:
		return fmt.Sprintf("loss to stone #%d", bb.NumSquares+1+v)
	}
	return "draw"
}

func (sc *ShellController) boardText(highlight bb.Bitboard) string {
	var sb strings.Builder
	sb.WriteString(sc.pos.ToDisplayText(highlight, sc.options.color))
	if sc.movesKnown {
		moves := sc.moves
		if moves == "" {
			moves = "(none)"
		}
		fmt.Fprintf(&sb, "Moves: %s\n", moves)
	}
	switch {
	case movegen.IsWin(sc.pos.Theirs):
		fmt.Fprintf(&sb, "Game over: %s wins", otherSide(sc.pos))
	case sc.pos.Occupied() == bb.AllTilesBB:
		sb.WriteString("Game over: draw")
	default:
		fmt.Fprintf(&sb, "%s (x) to move, %d stones played", sideToMove(sc.pos), sc.pos.Stones())
	}
	return sb.String()
}

func (sc *ShellController) setPosition(pos board.Position, moves string, known bool) {
	sc.pos = pos
	sc.history = nil
	sc.moves = moves
	sc.movesKnown = known
	sc.lastMove = 0
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	sc.setPosition(board.Position{}, "", true)
	return msg(sc.boardText(0)), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: play <files>, e.g. play 4453")
	}
	digits := strings.Join(cmd.args, "")
	for _, c := range digits {
		if sc.pos.GameOver() {
			return nil, errGameOver
		}
		if c < '1' || c > '7' {
			return nil, fmt.Errorf("%q: %w", c, board.ErrBadFile)
		}
		next, err := sc.pos.PlayFile(bb.File(c - '1'))
		if err != nil {
			return nil, err
		}
		sc.history = append(sc.history, sc.pos)
		sc.lastMove = next.Theirs &^ sc.pos.Mine
		sc.pos = next
		sc.moves += string(c)
	}
	return msg(sc.boardText(sc.lastMove)), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	n := 1
	if len(cmd.args) > 0 {
		var err error
		n, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
	}
	if n < 1 || n > len(sc.history) {
		return nil, fmt.Errorf("can undo between 1 and %d moves", len(sc.history))
	}
	sc.pos = sc.history[len(sc.history)-n]
	sc.history = sc.history[:len(sc.history)-n]
	sc.moves = sc.moves[:len(sc.moves)-n]
	sc.lastMove = 0
	return msg(sc.boardText(0)), nil
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) < 2 {
		return nil, errors.New("usage: load moves <files> | load grid <rows>")
	}
	switch cmd.args[0] {
	case "moves":
		moves := strings.Join(cmd.args[1:], "")
		pos, err := board.FromMoves(moves)
		if err != nil {
			return nil, err
		}
		sc.setPosition(pos, moves, true)
	case "grid":
		// rows may be separated by / on one line
		grid := strings.ReplaceAll(strings.Join(cmd.args[1:], "\n"), "/", "\n")
		pos, err := board.FromGrid(grid)
		if err != nil {
			return nil, err
		}
		sc.setPosition(pos, "", false)
	default:
		return nil, fmt.Errorf("cannot load %q; use moves or grid", cmd.args[0])
	}
	return msg(sc.boardText(0)), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if cmd.options.Bool("grid") {
		return msg(sc.pos.String()), nil
	}
	return msg(sc.boardText(sc.lastMove)), nil
}

func (sc *ShellController) solveOptions(cmd *shellcmd) solver.Options {
	return solver.Options{Weak: cmd.options.BoolDefault("weak", sc.options.weak)}
}

// runSolve searches the current position, or the one reached by the moves
// given as arguments.
func (sc *ShellController) runSolve(cmd *shellcmd, opts solver.Options) (solver.Result, error) {
	if len(cmd.args) > 0 {
		moves := strings.Join(cmd.args, "")
		pos, err := board.FromMoves(moves)
		if err != nil {
			return solver.Result{}, err
		}
		sc.setPosition(pos, moves, true)
	}
	if sc.pos.GameOver() {
		return solver.Result{}, errGameOver
	}
	return sc.solver.Solve(context.Background(), sc.pos, opts)
}

func resultFooter(res solver.Result) string {
	return fmt.Sprintf("%d nodes in %.3fs", res.Nodes, res.Elapsed.Seconds())
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	opts := sc.solveOptions(cmd)
	res, err := sc.runSolve(cmd, opts)
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("Value: %d, %s for the %s\n%s",
		res.Value, describeValue(res.Value, opts.Weak), sideToMove(sc.pos), resultFooter(res))), nil
}

func (sc *ShellController) best(cmd *shellcmd) (*Response, error) {
	opts := sc.solveOptions(cmd)
	res, err := sc.runSolve(cmd, opts)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString(sc.pos.ToDisplayText(res.Move, sc.options.color))
	fmt.Fprintf(&sb, "Best move: %s (file %d), value %d, %s\n%s",
		bb.LowestSquare(res.Move), res.BestFile()+1, res.Value,
		describeValue(res.Value, opts.Weak), resultFooter(res))
	return msg(sb.String()), nil
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	opts := sc.solveOptions(cmd)
	opts.Analyze = true
	res, err := sc.runSolve(cmd, opts)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-6s%-8s%s\n", "File", "Value", "Outcome")
	for _, mv := range res.Analysis {
		if !mv.Legal() {
			fmt.Fprintf(&sb, "%-6d%-8s%s\n", mv.File+1, "-", "full")
			continue
		}
		mark := ""
		if mv.Move == res.Move {
			mark = " *"
		}
		fmt.Fprintf(&sb, "%-6d%-8d%s%s\n", mv.File+1, mv.Value, describeValue(mv.Value, opts.Weak), mark)
	}
	sb.WriteString(resultFooter(res))
	return msg(sb.String()), nil
}

func (sc *ShellController) clear(cmd *shellcmd) (*Response, error) {
	sc.solver.ClearTable()
	return msg("transposition table cleared"), nil
}

func (sc *ShellController) bench(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: bench <file> [-workers n] [-weak true]")
	}
	jobs, err := runner.LoadFile(cmd.args[0])
	if err != nil {
		return nil, err
	}
	workers, err := cmd.options.IntDefault("workers", sc.config.GetInt(config.ConfigBenchWorkers))
	if err != nil {
		return nil, err
	}
	opts := runner.Options{
		Workers:        workers,
		TableBits:      sc.config.TableBits(),
		MemoryFraction: sc.config.GetFloat64(config.ConfigTableMemoryFraction),
		Weak:           cmd.options.BoolDefault("weak", sc.options.weak),
	}
	if workers <= 1 {
		// a single worker searches with the shell's own table
		opts.Solver = sc.solver
	}
	summary, err := runner.Run(context.Background(), jobs, opts)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	if err := summary.Fprint(&sb); err != nil {
		return nil, err
	}
	if summary.Wrong > 0 {
		names := lo.Map(summary.Failures(), func(r runner.JobResult, _ int) string {
			return r.Job.Name
		})
		fmt.Fprintf(&sb, "Wrong: %s\n", strings.Join(names, ", "))
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) random(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: random <stones>")
	}
	stones, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, err
	}
	pos, err := board.RandomPosition(nil, stones)
	if err != nil {
		return nil, err
	}
	sc.setPosition(pos, "", false)
	return msg(sc.boardText(0)), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return msg(sc.options.ToDisplayText()), nil
	}
	opt := cmd.args[0]
	if len(cmd.args) == 1 {
		_, val := sc.options.Show(opt)
		return msg(val), nil
	}
	ret, err := sc.options.Set(opt, cmd.args[1])
	if err != nil {
		return nil, err
	}
	return msg("set " + opt + " to " + ret), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	topic := "usage"
	if len(cmd.args) > 0 {
		topic = cmd.args[0]
	}
	return msg(helpText(topic)), nil
}
