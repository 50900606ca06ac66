package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	bb "github.com/nicolandu/broken-connect-four/bitboard"
	"github.com/nicolandu/broken-connect-four/board"
	"github.com/nicolandu/broken-connect-four/config"
	"github.com/nicolandu/broken-connect-four/solver"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errQuit              = errors.New("quit")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

// ShellOptions are the settings changed with `set`.
type ShellOptions struct {
	weak  bool
	color bool
}

func (opts *ShellOptions) Show(key string) (bool, string) {
	switch key {
	case "weak":
		return true, fmt.Sprintf("%v", opts.weak)
	case "color":
		return true, fmt.Sprintf("%v", opts.color)
	default:
		return false, "No such option: " + key
	}
}

func (opts *ShellOptions) Set(key string, value string) (string, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return "", fmt.Errorf("%s needs true or false: %w", key, err)
	}
	switch key {
	case "weak":
		opts.weak = b
	case "color":
		opts.color = b
	default:
		return "", errors.New("No such option: " + key)
	}
	return fmt.Sprintf("%v", b), nil
}

func (opts *ShellOptions) ToDisplayText() string {
	keys := []string{"weak", "color"}
	out := strings.Builder{}
	out.WriteString("Settings:\n")
	for _, key := range keys {
		_, val := opts.Show(key)
		out.WriteString("  " + key + ": ")
		out.WriteString(val + "\n")
	}
	return out.String()
}

type ShellController struct {
	l       *readline.Instance
	config  *config.Config
	options *ShellOptions
	solver  *solver.Solver

	pos board.Position
	// positions before each move played, for undo
	history []board.Position
	// the moves that led to pos, as file digits; empty when unknown
	moves      string
	movesKnown bool
	lastMove   bb.Bitboard
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	if sc.l == nil {
		writeln(msg, os.Stdout)
		return
	}
	writeln(msg, sc.l.Stderr())
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func newShellController(cfg *config.Config) *ShellController {
	bits := cfg.TableBits()
	if bits == 0 {
		bits = solver.TableBitsForMemory(cfg.GetFloat64(config.ConfigTableMemoryFraction))
	}
	return &ShellController{
		config: cfg,
		options: &ShellOptions{
			weak:  cfg.GetBool(config.ConfigWeak),
			color: cfg.GetBool(config.ConfigColor),
		},
		solver:     solver.NewSolver(solver.NewTranspositionTable(bits)),
		movesKnown: true,
	}
}

// NewShellController builds the interactive shell. Its transposition table
// is allocated up front.
func NewShellController(cfg *config.Config) (*ShellController, error) {
	sc := newShellController(cfg)
	prompt := "c4solver> "
	if sc.options.color && board.ColorSupport {
		prompt = "\033[31mc4solver>\033[0m "
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     "/tmp/c4solver_readline.tmp",
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	sc.l = l
	return sc, nil
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for idx := 1; idx < len(fields); idx++ {
		if strings.HasPrefix(fields[idx], "-") {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			opt := fields[idx][1:]
			options[opt] = append(options[opt], fields[idx+1])
			idx++
			continue
		}
		args = append(args, fields[idx])
	}
	return &shellcmd{
		cmd:     cmd,
		args:    args,
		options: options,
	}, nil
}

func (sc *ShellController) handle(line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "new", "n":
		return sc.newGame(cmd)
	case "play", "p":
		return sc.play(cmd)
	case "undo", "u":
		return sc.undo(cmd)
	case "load":
		return sc.load(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "solve":
		return sc.solve(cmd)
	case "best", "b":
		return sc.best(cmd)
	case "analyze", "a":
		return sc.analyze(cmd)
	case "clear":
		return sc.clear(cmd)
	case "bench":
		return sc.bench(cmd)
	case "random":
		return sc.random(cmd)
	case "set":
		return sc.set(cmd)
	case "help", "h":
		return sc.help(cmd)
	case "exit", "quit", "bye":
		return nil, errQuit
	default:
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd.cmd))
		log.Info().Msg(msg)
		return nil, errors.New(msg)
	}
}

// Execute runs a single command line, as given on the command line of the
// program. It reports whether the command succeeded.
func (sc *ShellController) Execute(line string) bool {
	resp, err := sc.handle(line)
	switch {
	case errors.Is(err, errQuit), errors.Is(err, errNoData):
	case err != nil:
		sc.showError(err)
		return false
	case resp != nil:
		sc.showMessage(resp.message)
	}
	return true
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)

		resp, err := sc.handle(line)
		if errors.Is(err, errQuit) {
			sig <- syscall.SIGINT
			break
		} else if errors.Is(err, errNoData) {
			continue
		} else if err != nil {
			sc.showError(err)
		} else if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

func (sc *ShellController) Cleanup() {
	st := sc.solver.Table().Stats()
	log.Debug().Uint64("ttable-created", st.Created).
		Uint64("ttable-lookups", st.Lookups).
		Uint64("ttable-hits", st.Hits).
		Msg("shell-cleanup")
}
