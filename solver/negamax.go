package solver

import (
	bb "github.com/nicolandu/broken-connect-four/bitboard"
	"github.com/nicolandu/broken-connect-four/movegen"
)

/*
Scores count empty squares. A position where the side to move drops its
winning stone with k empty squares on the board (that stone included) is
worth k; a position where the opponent does so is worth -k; a draw is 0.
Faster wins therefore score higher and slower losses score less badly.

Negamax is called with depth = the number of empty squares left once the
side to move has played, and on positions where the side to move has no
immediate win. The parent guarantees this by only playing non-losing moves,
and the root checks it explicitly. Under that precondition the side to move
wins at best with its next-but-one stone, worth depth-1, and loses at worst
to the opponent's very next stone, worth -depth.
*/

// Negamax returns the value of the position bounded by the alpha-beta
// window: a result <= alpha is an upper bound, a result >= beta is a lower
// bound, and anything in between is exact.
func (s *Solver) Negamax(mine, theirs bb.Bitboard, depth, alpha, beta int) int {
	s.nodes.Add(1)
	if depth == 0 {
		// last stone on the board and it does not win
		return 0
	}

	moves := movegen.SortedMoves(mine, theirs)
	if moves.Len() == 0 {
		return -depth
	}

	upper := depth - 1
	if v := s.ttable.Probe(mine, theirs); v != NotFound {
		upper = min(upper, int(v))
	}
	if beta > upper {
		beta = upper
		if alpha >= beta {
			return beta
		}
	}

	for i := moves.Len() - 1; i >= 0; i-- {
		move := moves.At(i).Move
		score := -s.Negamax(theirs, mine|move, depth-1, -beta, -alpha)
		if score >= beta {
			return score
		}
		if score > alpha {
			alpha = score
		}
	}

	s.ttable.Save(mine, theirs, int8(alpha))
	return alpha
}
