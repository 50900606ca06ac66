// Package board holds the Position value the solver works on, plus the
// ways to build, validate and display one.
package board

import (
	"errors"
	"fmt"

	bb "github.com/nicolandu/broken-connect-four/bitboard"
	"github.com/nicolandu/broken-connect-four/movegen"
)

var (
	ErrBadFile       = errors.New("file must be between 1 and 7")
	ErrFileFull      = errors.New("file is full")
	ErrGameOver      = errors.New("game is already over")
	ErrOverlap       = errors.New("a square is held by both players")
	ErrSentinel      = errors.New("a sentinel square is occupied")
	ErrFloatingStone = errors.New("stone with an empty square under it")
	ErrStoneCount    = errors.New("impossible stone count for the side to move")
)

// Position is a board from the point of view of the side to move: Mine
// are its stones, Theirs the opponent's. It is a value; Play returns a new
// one.
type Position struct {
	Mine   bb.Bitboard
	Theirs bb.Bitboard
}

func (p Position) Occupied() bb.Bitboard {
	return p.Mine | p.Theirs
}

func (p Position) Stones() int {
	return bb.PopCount(p.Occupied())
}

// EmptySquares is the number of stones still to be played.
func (p Position) EmptySquares() int {
	return bb.NumSquares - p.Stones()
}

func (p Position) LegalMoves() bb.Bitboard {
	return movegen.LegalMoves(p.Mine, p.Theirs)
}

// Play drops a stone on move, which must be a legal move, and hands the
// turn over.
func (p Position) Play(move bb.Bitboard) Position {
	return Position{Mine: p.Theirs, Theirs: p.Mine | move}
}

// MoveInFile returns the legal move of a file, or Empty if the file is full.
func (p Position) MoveInFile(f bb.File) bb.Bitboard {
	return p.LegalMoves() & bb.FileBB(f)
}

// PlayFile drops a stone in a file.
func (p Position) PlayFile(f bb.File) (Position, error) {
	if f < bb.FileA || f > bb.FileG {
		return p, ErrBadFile
	}
	move := p.MoveInFile(f)
	if move == 0 {
		return p, fmt.Errorf("%w: %v", ErrFileFull, f)
	}
	return p.Play(move), nil
}

// IsWinningMove reports whether move completes four for the side to move.
func (p Position) IsWinningMove(move bb.Bitboard) bool {
	return movegen.IsWin(p.Mine | move)
}

// GameOver reports whether the previous move won or the board is full.
func (p Position) GameOver() bool {
	return movegen.IsWin(p.Theirs) || movegen.IsWin(p.Mine) || p.Occupied() == bb.AllTilesBB
}

// Descends reports whether p can be reached from ancestor by playing
// stones, p itself included.
func (p Position) Descends(ancestor Position) bool {
	plies := p.Stones() - ancestor.Stones()
	if plies < 0 {
		return false
	}
	a := ancestor
	if plies%2 == 1 {
		a = Position{Mine: ancestor.Theirs, Theirs: ancestor.Mine}
	}
	return a.Mine&^p.Mine == 0 && a.Theirs&^p.Theirs == 0
}

// Validate checks the encoding invariants and that the position could
// have come from real play with the game still going.
func (p Position) Validate() error {
	if p.Mine&p.Theirs != 0 {
		return ErrOverlap
	}
	occ := p.Occupied()
	if occ&^bb.AllTilesBB != 0 {
		return ErrSentinel
	}
	// every occupied square above rank 1 needs a stone below it
	if (occ&^bb.Rank1BB)>>1&^occ != 0 {
		return ErrFloatingStone
	}
	nm, nt := bb.PopCount(p.Mine), bb.PopCount(p.Theirs)
	if nt != nm && nt != nm+1 {
		return fmt.Errorf("%w: %d vs %d", ErrStoneCount, nm, nt)
	}
	if movegen.IsWin(p.Mine) || movegen.IsWin(p.Theirs) {
		return ErrGameOver
	}
	return nil
}
