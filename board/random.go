package board

import (
	"errors"

	"lukechampine.com/frand"

	bb "github.com/nicolandu/broken-connect-four/bitboard"
)

const randomPositionAttempts = 1000

var ErrNoRandomPosition = errors.New("could not build a random position")

// RandomPosition plays stones random moves from the empty board, never a
// move that ends the game. A nil rng uses the global frand generator.
func RandomPosition(rng *frand.RNG, stones int) (Position, error) {
	if stones < 0 || stones >= bb.NumSquares {
		return Position{}, ErrNoRandomPosition
	}
	intn := frand.Intn
	if rng != nil {
		intn = rng.Intn
	}
	var candidates [bb.NumFiles]bb.Bitboard
	for attempt := 0; attempt < randomPositionAttempts; attempt++ {
		var p Position
		ok := true
		for i := 0; i < stones; i++ {
			n := 0
			legal := p.LegalMoves()
			for legal != 0 {
				m := bb.LowestBit(legal)
				legal ^= m
				if !p.IsWinningMove(m) {
					candidates[n] = m
					n++
				}
			}
			if n == 0 {
				ok = false
				break
			}
			p = p.Play(candidates[intn(n)])
		}
		if ok {
			return p, nil
		}
	}
	return Position{}, ErrNoRandomPosition
}
