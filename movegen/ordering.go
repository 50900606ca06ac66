package movegen

import (
	bb "github.com/nicolandu/broken-connect-four/bitboard"
)

// MoveOrder lists files from the center outward.
var MoveOrder = [bb.NumFiles]bb.File{bb.FileD, bb.FileC, bb.FileE, bb.FileF, bb.FileB, bb.FileA, bb.FileG}

// ScoredMove is a candidate move and the number of winning squares it
// leaves its player with.
type ScoredMove struct {
	Move  bb.Bitboard
	Score int
}

// MoveList holds at most one move per file, sorted by ascending score. The
// best move is last.
type MoveList struct {
	moves [bb.NumFiles]ScoredMove
	n     int
}

func (l *MoveList) Len() int {
	return l.n
}

// At returns the i-th move in ascending order; iterate from Len()-1 down to
// visit the strongest moves first.
func (l *MoveList) At(i int) ScoredMove {
	return l.moves[i]
}

func (l *MoveList) add(m ScoredMove) {
	i := l.n
	l.moves[i] = m
	l.n++
	// insertion sort; equal scores keep insertion order
	for ; i > 0 && l.moves[i-1].Score > l.moves[i].Score; i-- {
		l.moves[i-1], l.moves[i] = l.moves[i], l.moves[i-1]
	}
}

// SortedMoves scores every non-losing move of mine. Moves are inserted from
// the edge files inward, so among equal scores the more central file ends
// up later in the list and is tried first.
func SortedMoves(mine, theirs bb.Bitboard) MoveList {
	var l MoveList
	possible := NonLosingMoves(mine, theirs)
	for i := len(MoveOrder) - 1; i >= 0 && possible != 0; i-- {
		move := possible & bb.FileBB(MoveOrder[i])
		if move == 0 {
			continue
		}
		possible ^= move
		l.add(ScoredMove{
			Move:  move,
			Score: bb.PopCount(WinningSquares(mine|move, theirs)),
		})
	}
	return l
}
