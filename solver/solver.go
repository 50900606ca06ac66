// Package solver finds the exact game-theoretic value of Connect-4
// positions with a null-window alpha-beta search over a transposition
// table.
package solver

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	bb "github.com/nicolandu/broken-connect-four/bitboard"
	"github.com/nicolandu/broken-connect-four/board"
	"github.com/nicolandu/broken-connect-four/movegen"
)

// NoScore is the value reported for a full file in an analysis.
const NoScore = math.MinInt

var allFiles = []bb.File{bb.FileA, bb.FileB, bb.FileC, bb.FileD, bb.FileE, bb.FileF, bb.FileG}

// Solver runs searches against a transposition table owned by the caller.
// It is not safe for concurrent use; give every goroutine its own Solver
// and table.
type Solver struct {
	ttable *TranspositionTable
	nodes  atomic.Uint64

	lastRoot board.Position
	hasRoot  bool
}

func NewSolver(tt *TranspositionTable) *Solver {
	return &Solver{ttable: tt}
}

func (s *Solver) Table() *TranspositionTable {
	return s.ttable
}

// Nodes is the number of positions visited since the last Solve. Safe to
// read while a search runs.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

// ClearTable clears the transposition table and forgets the last root.
func (s *Solver) ClearTable() {
	s.ttable.Clear()
	s.hasRoot = false
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// RootValue returns the value of a position that is not already over. The
// weak search only tells wins, draws and losses apart and returns -1, 0 or
// 1.
func (s *Solver) RootValue(mine, theirs bb.Bitboard, weak bool) int {
	empties := bb.NumSquares - bb.PopCount(mine|theirs)
	if empties == 0 {
		return 0
	}
	if movegen.CanWinNext(mine, theirs) {
		if weak {
			return 1
		}
		return empties
	}

	depth := empties - 1
	minV, maxV := -depth, depth-1
	if weak {
		minV, maxV = -1, 1
	}
	for minV < maxV {
		mid := minV + (maxV-minV)/2
		// look closer to zero first
		if mid <= 0 && minV/2 < mid {
			mid = minV / 2
		} else if mid >= 0 && maxV/2 > mid {
			mid = maxV / 2
		}
		r := s.Negamax(mine, theirs, depth, mid, mid+1)
		if r <= mid {
			maxV = r
		} else {
			minV = r
		}
	}
	if weak {
		// a fail-high or fail-low can overshoot the [-1, 1] window
		return sign(minV)
	}
	return minV
}

func (s *Solver) moveValue(mine, theirs, move bb.Bitboard, weak bool) int {
	if movegen.IsWin(mine | move) {
		if weak {
			return 1
		}
		return bb.NumSquares - bb.PopCount(mine|theirs)
	}
	return -s.RootValue(theirs, mine|move, weak)
}

// BestMove returns the value of the position and the move achieving it.
// Files are tried center-out and ties keep the first file. A full board
// gives (0, Empty).
func (s *Solver) BestMove(mine, theirs bb.Bitboard, weak bool) (int, bb.Bitboard) {
	best, bestMove := math.MinInt, bb.Empty
	legal := movegen.LegalMoves(mine, theirs)
	for _, f := range movegen.MoveOrder {
		move := legal & bb.FileBB(f)
		if move == 0 {
			continue
		}
		if v := s.moveValue(mine, theirs, move, weak); v > best {
			best, bestMove = v, move
		}
	}
	if bestMove == bb.Empty {
		return 0, bb.Empty
	}
	return best, bestMove
}

// MoveValue is the value of playing in one file, from the point of view of
// the player making the move.
type MoveValue struct {
	File  bb.File
	Move  bb.Bitboard
	Value int
}

func (m MoveValue) Legal() bool {
	return m.Move != bb.Empty
}

func (m MoveValue) String() string {
	if !m.Legal() {
		return fmt.Sprintf("%v: full", m.File)
	}
	return fmt.Sprintf("%v: %d", m.File, m.Value)
}

// Analyze returns the value of every file, a to g. Full files get
// NoScore.
func (s *Solver) Analyze(mine, theirs bb.Bitboard, weak bool) []MoveValue {
	legal := movegen.LegalMoves(mine, theirs)
	return lo.Map(allFiles, func(f bb.File, _ int) MoveValue {
		move := legal & bb.FileBB(f)
		if move == 0 {
			return MoveValue{File: f, Value: NoScore}
		}
		return MoveValue{File: f, Move: move, Value: s.moveValue(mine, theirs, move, weak)}
	})
}

type Options struct {
	Weak    bool
	Analyze bool
}

type Result struct {
	Position board.Position
	Value    int
	Move     bb.Bitboard
	Analysis []MoveValue
	Nodes    uint64
	Elapsed  time.Duration
	Table    TableStats
}

// BestFile is the file of the best move. Only valid when Move is set.
func (r Result) BestFile() bb.File {
	return bb.LowestSquare(r.Move).File()
}

// Solve finds the value and best move of pos, reporting progress in the
// debug log. The table is cleared first unless pos descends from the
// position of the previous Solve. ctx is only checked before the search
// starts; a search runs to completion.
func (s *Solver) Solve(ctx context.Context, pos board.Position, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := pos.Validate(); err != nil {
		return Result{}, fmt.Errorf("cannot solve position: %w", err)
	}
	if pos.GameOver() {
		return Result{}, fmt.Errorf("cannot solve position: %w", board.ErrGameOver)
	}
	if !s.hasRoot || !pos.Descends(s.lastRoot) {
		s.ttable.Clear()
	}
	s.lastRoot, s.hasRoot = pos, true

	log.Debug().Int("stones", pos.Stones()).Bool("weak", opts.Weak).
		Bool("analyze", opts.Analyze).Msg("solve-config")

	tstart := time.Now()
	s.nodes.Store(0)
	res := Result{Position: pos}

	g := &errgroup.Group{}
	done := make(chan bool)

	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	g.Go(func() error {
		defer close(done)
		if opts.Analyze {
			res.Analysis = s.Analyze(pos.Mine, pos.Theirs, opts.Weak)
			// same tie-break as BestMove: the first file in MoveOrder
			centerOut := lo.Map(movegen.MoveOrder[:], func(f bb.File, _ int) MoveValue {
				return res.Analysis[f]
			})
			best := lo.MaxBy(lo.Filter(centerOut, func(m MoveValue, _ int) bool {
				return m.Legal()
			}), func(a, b MoveValue) bool {
				return a.Value > b.Value
			})
			res.Value, res.Move = best.Value, best.Move
			return nil
		}
		res.Value, res.Move = s.BestMove(pos.Mine, pos.Theirs, opts.Weak)
		return nil
	})

	err := g.Wait()
	res.Nodes = s.nodes.Load()
	res.Elapsed = time.Since(tstart)
	res.Table = s.ttable.Stats()

	log.Info().
		Int("value", res.Value).
		Uint64("nodes", res.Nodes).
		Uint64("ttable-created", res.Table.Created).
		Uint64("ttable-lookups", res.Table.Lookups).
		Uint64("ttable-hits", res.Table.Hits).
		Float64("time-elapsed-sec", res.Elapsed.Seconds()).
		Msg("solve-returning")

	return res, err
}
