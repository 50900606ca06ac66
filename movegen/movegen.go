// Package movegen generates moves and detects threats with bit-parallel
// operations over a bitboard.Bitboard.
package movegen

import (
	bb "github.com/nicolandu/broken-connect-four/bitboard"
)

// Shift strides for the four alignment directions.
const (
	strideVertical   = 1
	strideDiagDown   = bb.FileStride - 1 // '\'
	strideHorizontal = bb.FileStride
	strideDiagUp     = bb.FileStride + 1 // '/'
)

// LegalMoves returns one square per non-full file: the lowest empty one.
func LegalMoves(mine, theirs bb.Bitboard) bb.Bitboard {
	// Each file is a stack of ones from rank 1. Adding the rank-1 bit ripples
	// a carry up to the first empty cell and clears the stack below it. A
	// full file carries into its sentinel, which the mask drops.
	return ((mine | theirs) + bb.Rank1BB) & bb.AllTilesBB
}

// IsWin reports whether the stones hold four in a row in any direction.
func IsWin(stones bb.Bitboard) bool {
	for _, stride := range [...]uint{strideHorizontal, strideDiagDown, strideDiagUp, strideVertical} {
		// pairs of adjacent stones, then two pairs two strides apart
		m := stones & (stones >> stride)
		if m&(m>>(2*stride)) != 0 {
			return true
		}
	}
	return false
}

// WinningSquares returns the empty squares where mine would complete four
// in a row. Squares that are not yet reachable are included. Stones are
// assumed to obey gravity: a vertical four can only be completed on top.
func WinningSquares(mine, theirs bb.Bitboard) bb.Bitboard {
	// vertical: only the square on top of three can be missing
	r := (mine << 1) & (mine << 2) & (mine << 3)

	for _, s := range [...]uint{strideHorizontal, strideDiagDown, strideDiagUp} {
		p := (mine << s) & (mine << (2 * s))
		r |= p & (mine << (3 * s)) // gap at the far end
		r |= p & (mine >> s)       // gap second from the far end
		p >>= 3 * s
		r |= p & (mine << s)       // gap second from the near end
		r |= p & (mine >> (3 * s)) // gap at the near end
	}

	return r & (bb.AllTilesBB ^ (mine | theirs))
}

// CanWinNext reports whether mine has a legal move that wins at once.
func CanWinNext(mine, theirs bb.Bitboard) bool {
	return WinningSquares(mine, theirs)&LegalMoves(mine, theirs) != 0
}

// NonLosingMoves returns the legal moves after which the opponent cannot
// win with their next stone. An empty result means every move loses.
func NonLosingMoves(mine, theirs bb.Bitboard) bb.Bitboard {
	possible := LegalMoves(mine, theirs)
	opponentWins := WinningSquares(theirs, mine)

	forced := possible & opponentWins
	if forced != 0 {
		if forced&(forced-1) != 0 {
			// two threats, only one can be blocked
			return 0
		}
		possible = forced
	}
	// never play directly under an opponent winning square
	return possible &^ (opponentWins >> 1)
}
