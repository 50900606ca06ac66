package movegen

import (
	"testing"

	"github.com/matryer/is"

	bb "github.com/nicolandu/broken-connect-four/bitboard"
)

func TestSortedMovesEmptyBoardPrefersCenter(t *testing.T) {
	is := is.New(t)
	l := SortedMoves(0, 0)
	is.Equal(l.Len(), 7)
	// nobody has any threat yet, so ties resolve center-out from the end
	for i := 0; i < l.Len(); i++ {
		is.Equal(l.At(l.Len()-1-i).Move, bb.FileRankBB(MoveOrder[i], 0))
	}
}

func TestSortedMovesAscendingAndComplete(t *testing.T) {
	is := is.New(t)
	rng := testRNG()
	for i := 0; i < 500; i++ {
		mine, theirs, ok := randomPosition(rng, rng.Intn(36))
		if !ok {
			continue
		}
		l := SortedMoves(mine, theirs)
		var seen bb.Bitboard
		for j := 0; j < l.Len(); j++ {
			m := l.At(j)
			is.Equal(bb.PopCount(m.Move), 1)
			is.Equal(m.Score, bb.PopCount(WinningSquares(mine|m.Move, theirs)))
			if j > 0 {
				is.True(l.At(j-1).Score <= m.Score)
			}
			seen |= m.Move
		}
		is.Equal(seen, NonLosingMoves(mine, theirs))
	}
}

func TestSortedMovesBestLast(t *testing.T) {
	is := is.New(t)
	// c1 d1 for the mover: e1 makes two threats (b1 and f1), a1/g1 make none
	mine := bb.Squares(bb.SqC1, bb.SqD1)
	theirs := bb.Squares(bb.SqC2, bb.SqD2)
	l := SortedMoves(mine, theirs)
	best := l.At(l.Len() - 1)
	is.True(best.Move == bb.SquareBB(bb.SqB1) || best.Move == bb.SquareBB(bb.SqE1))
	is.Equal(best.Score, 2)
}
