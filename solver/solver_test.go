package solver

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"lukechampine.com/frand"

	bb "github.com/nicolandu/broken-connect-four/bitboard"
	"github.com/nicolandu/broken-connect-four/board"
	"github.com/nicolandu/broken-connect-four/movegen"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func newTestSolver() *Solver {
	return NewSolver(NewTranspositionTable(MinTableBits))
}

func testRNG() *frand.RNG {
	seed := []byte("c4solver-test-seed-0123456789abc")
	return frand.NewCustom(seed, 1024, 12)
}

// bruteForce is plain minimax over the whole remaining tree.
func bruteForce(mine, theirs bb.Bitboard) int {
	empties := bb.NumSquares - bb.PopCount(mine|theirs)
	if empties == 0 {
		return 0
	}
	best := math.MinInt
	legal := movegen.LegalMoves(mine, theirs)
	for legal != 0 {
		m := bb.LowestBit(legal)
		legal ^= m
		v := empties
		if !movegen.IsWin(mine | m) {
			v = -bruteForce(theirs, mine|m)
		}
		best = max(best, v)
	}
	return best
}

func nearFullPositions(t *testing.T, n, stones int) []board.Position {
	rng := testRNG()
	ps := make([]board.Position, n)
	for i := range ps {
		p, err := board.RandomPosition(rng, stones)
		if err != nil {
			t.Fatal(err)
		}
		ps[i] = p
	}
	return ps
}

func mirror(b bb.Bitboard) bb.Bitboard {
	var m bb.Bitboard
	for f := 0; f < bb.NumFiles; f++ {
		col := (b >> (f * bb.FileStride)) & bb.FileABB
		m |= col << ((bb.NumFiles - 1 - f) * bb.FileStride)
	}
	return m
}

func TestRootValueMatchesBruteForce(t *testing.T) {
	is := is.New(t)
	s := newTestSolver()
	for _, p := range nearFullPositions(t, 40, 35) {
		s.ClearTable()
		want := bruteForce(p.Mine, p.Theirs)
		got := s.RootValue(p.Mine, p.Theirs, false)
		is.Equal(got, want)
		is.True(abs(got)+p.Stones() <= bb.NumSquares)
	}
}

func TestWeakSearchAgreesOnSign(t *testing.T) {
	is := is.New(t)
	s := newTestSolver()
	for _, p := range nearFullPositions(t, 40, 34) {
		s.ClearTable()
		strong := s.RootValue(p.Mine, p.Theirs, false)
		s.ClearTable()
		weak := s.RootValue(p.Mine, p.Theirs, true)
		is.Equal(weak, sign(strong))
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestNegamaxWindowContract(t *testing.T) {
	is := is.New(t)
	s := newTestSolver()
	rng := testRNG()
	for _, p := range nearFullPositions(t, 60, 34) {
		if movegen.CanWinNext(p.Mine, p.Theirs) {
			continue
		}
		want := bruteForce(p.Mine, p.Theirs)
		depth := p.EmptySquares() - 1
		alpha := rng.Intn(2*depth+1) - depth
		beta := alpha + 1 + rng.Intn(4)
		s.ClearTable()
		got := s.Negamax(p.Mine, p.Theirs, depth, alpha, beta)
		switch {
		case got <= alpha:
			is.True(want <= got)
		case got >= beta:
			is.True(want >= got)
		default:
			is.Equal(got, want)
		}
	}
}

func TestBestMove(t *testing.T) {
	is := is.New(t)
	s := newTestSolver()
	for _, p := range nearFullPositions(t, 30, 35) {
		s.ClearTable()
		v, move := s.BestMove(p.Mine, p.Theirs, false)
		is.Equal(v, bruteForce(p.Mine, p.Theirs))
		is.Equal(bb.PopCount(move), 1)
		is.True(move&p.LegalMoves() != 0)
		if !p.IsWinningMove(move) {
			// zero-sum: the child is worth exactly the negated value
			child := p.Play(move)
			is.Equal(s.RootValue(child.Mine, child.Theirs, false), -v)
		}
	}
}

func TestMirrorSymmetry(t *testing.T) {
	is := is.New(t)
	s := newTestSolver()
	for _, p := range nearFullPositions(t, 20, 33) {
		s.ClearTable()
		v := s.RootValue(p.Mine, p.Theirs, false)
		s.ClearTable()
		is.Equal(s.RootValue(mirror(p.Mine), mirror(p.Theirs), false), v)
	}
}

func TestImmediateWin(t *testing.T) {
	is := is.New(t)
	s := newTestSolver()
	// x holds a1 a2 a3
	p, err := board.FromMoves("121212")
	is.NoErr(err)
	is.Equal(s.RootValue(p.Mine, p.Theirs, false), 36)
	is.Equal(s.RootValue(p.Mine, p.Theirs, true), 1)
	v, move := s.BestMove(p.Mine, p.Theirs, false)
	is.Equal(v, 36)
	is.Equal(move, bb.SquareBB(bb.SqA4))
}

func TestForcedLoss(t *testing.T) {
	is := is.New(t)
	s := newTestSolver()
	p, err := board.FromGrid(`
		.......
		.......
		.......
		.......
		x......
		x.ooo..
	`)
	is.NoErr(err)
	// o wins next move with b1 or f1 whatever x does
	is.Equal(movegen.NonLosingMoves(p.Mine, p.Theirs), bb.Empty)
	is.Equal(s.RootValue(p.Mine, p.Theirs, false), -(p.EmptySquares() - 1))
	is.Equal(s.RootValue(p.Mine, p.Theirs, true), -1)
}

func TestClearedTableIndependence(t *testing.T) {
	is := is.New(t)
	ps := nearFullPositions(t, 10, 30)
	shared := newTestSolver()
	for _, p := range ps {
		shared.ClearTable()
		got := shared.RootValue(p.Mine, p.Theirs, false)
		fresh := newTestSolver()
		is.Equal(got, fresh.RootValue(p.Mine, p.Theirs, false))
	}
}

func TestSolve(t *testing.T) {
	is := is.New(t)
	s := newTestSolver()
	p := nearFullPositions(t, 1, 32)[0]
	res, err := s.Solve(context.Background(), p, Options{})
	is.NoErr(err)
	is.Equal(res.Value, bruteForce(p.Mine, p.Theirs))
	is.True(res.Nodes > 0)
	is.True(res.Table.Lookups > 0)

	analyzed, err := s.Solve(context.Background(), p, Options{Analyze: true})
	is.NoErr(err)
	is.Equal(analyzed.Value, res.Value)
	is.Equal(analyzed.Move, res.Move)
	is.Equal(len(analyzed.Analysis), bb.NumFiles)
	for _, mv := range analyzed.Analysis {
		if !mv.Legal() {
			is.Equal(mv.Value, NoScore)
			continue
		}
		is.True(mv.Value <= res.Value)
	}
}

func TestSolveKeepsTableForDescendants(t *testing.T) {
	is := is.New(t)
	s := newTestSolver()
	p := nearFullPositions(t, 1, 30)[0]
	first, err := s.Solve(context.Background(), p, Options{})
	is.NoErr(err)
	if p.IsWinningMove(first.Move) {
		t.Skip("root has an immediate win")
	}
	second, err := s.Solve(context.Background(), p.Play(first.Move), Options{})
	is.NoErr(err)
	is.Equal(second.Value, -first.Value)
	// not cleared, so the counters keep growing
	is.True(second.Table.Lookups >= first.Table.Lookups)
}

func TestSolveClearsTableForUnrelatedRoots(t *testing.T) {
	is := is.New(t)
	ps := nearFullPositions(t, 2, 30)
	s := newTestSolver()
	_, err := s.Solve(context.Background(), ps[0], Options{})
	is.NoErr(err)
	if ps[1].Descends(ps[0]) {
		t.Skip("positions are related")
	}
	got, err := s.Solve(context.Background(), ps[1], Options{})
	is.NoErr(err)
	want, err := newTestSolver().Solve(context.Background(), ps[1], Options{})
	is.NoErr(err)
	is.Equal(got.Value, want.Value)
	is.Equal(got.Table, want.Table)
	is.Equal(got.Nodes, want.Nodes)
}

func TestSolveErrors(t *testing.T) {
	s := newTestSolver()
	_, err := s.Solve(context.Background(), board.Position{Mine: bb.FileABB &^ bb.SquareBB(bb.SqA5) &^ bb.SquareBB(bb.SqA6)}, Options{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Solve(ctx, board.Position{}, Options{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEmptyBoard(t *testing.T) {
	if os.Getenv("C4SOLVER_FULL_SOLVE") != "1" {
		t.Skip("set C4SOLVER_FULL_SOLVE=1 to solve the empty board")
	}
	is := is.New(t)
	s := NewSolver(NewTranspositionTable(24))
	// first player wins with the 41st stone, two squares left
	is.Equal(s.RootValue(0, 0, false), 2)
	v, move := s.BestMove(0, 0, true)
	is.Equal(v, 1)
	is.Equal(move, bb.SquareBB(bb.SqD1))
}
