package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nicolandu/broken-connect-four/board"
)

var (
	ErrNoPosition   = errors.New("entry needs exactly one of moves and grid")
	ErrBadPonsLine  = errors.New("expected <moves> [score]")
	ErrNoJobs       = errors.New("no positions to solve")
	ErrBadPonsScore = errors.New("score out of range")
)

// Job is one position to solve, with the value it should have if known.
type Job struct {
	Name     string
	Position board.Position
	Expected *int
}

type positionFile struct {
	Positions []positionEntry `yaml:"positions"`
}

type positionEntry struct {
	Name     string `yaml:"name"`
	Moves    string `yaml:"moves"`
	Grid     string `yaml:"grid"`
	Expected *int   `yaml:"expected"`
}

// LoadYAML reads a position file of the form
//
//	positions:
//	  - name: opening
//	    moves: "4453"
//	    expected: 2
//	  - grid: |
//	      .......
//	      ...
//
// Expected values use the solver's own score convention.
func LoadYAML(r io.Reader) ([]Job, error) {
	var f positionFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, err
	}
	jobs := make([]Job, 0, len(f.Positions))
	for i, e := range f.Positions {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("position-%d", i+1)
		}
		var pos board.Position
		var err error
		switch {
		case e.Moves != "" && e.Grid == "":
			pos, err = board.FromMoves(e.Moves)
		case e.Grid != "" && e.Moves == "":
			pos, err = board.FromGrid(e.Grid)
		default:
			err = ErrNoPosition
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		jobs = append(jobs, Job{Name: name, Position: pos, Expected: e.Expected})
	}
	return jobs, nil
}

// FromPonsScore converts a score in the half-move convention of the classic
// solver benchmark files, (43 - stones before the winning move) / 2, into
// the number of empty squares left when the winning stone drops.
func FromPonsScore(pos board.Position, score int) (int, error) {
	if score == 0 {
		return 0, nil
	}
	stones := pos.Stones()
	if score < 0 {
		// the opponent wins, on the other parity
		stones++
	}
	r := 2 * abs(score)
	if stones%2 == 1 {
		r--
	}
	if r > pos.EmptySquares() || r < 1 {
		return 0, fmt.Errorf("%w: %d at %d stones", ErrBadPonsScore, score, pos.Stones())
	}
	if score < 0 {
		return -r, nil
	}
	return r, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// LoadPons reads the classic benchmark format, one position per line as
// 1-based file digits followed by an optional score.
func LoadPons(r io.Reader) ([]Job, error) {
	var jobs []Job
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) > 2 {
			return nil, fmt.Errorf("line %d: %w", line, ErrBadPonsLine)
		}
		pos, err := board.FromMoves(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		job := Job{Name: fields[0], Position: pos}
		if len(fields) == 2 {
			score, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, ErrBadPonsLine)
			}
			v, err := FromPonsScore(pos, score)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			job.Expected = &v
		}
		jobs = append(jobs, job)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// LoadFile loads a .yaml/.yml position file, or a benchmark text file for
// any other extension.
func LoadFile(path string) ([]Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var jobs []Job
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		jobs, err = LoadYAML(f)
	default:
		jobs, err = LoadPons(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoJobs)
	}
	return jobs, nil
}
