package board

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	bb "github.com/nicolandu/broken-connect-four/bitboard"
)

var ErrBadGrid = errors.New("grid must have 6 rows of 7 cells out of x, o and .")

// FromMoves plays a sequence of 1-based file digits from the empty board,
// e.g. "4453". Moves into full files and moves that end the game are
// rejected.
func FromMoves(moves string) (Position, error) {
	var p Position
	for i, c := range moves {
		if c < '1' || c > '7' {
			return Position{}, fmt.Errorf("move %d (%q): %w", i+1, c, ErrBadFile)
		}
		move := p.MoveInFile(bb.File(c - '1'))
		if move == 0 {
			return Position{}, fmt.Errorf("move %d (%c): %w", i+1, c, ErrFileFull)
		}
		if p.IsWinningMove(move) {
			return Position{}, fmt.Errorf("move %d (%c) wins: %w", i+1, c, ErrGameOver)
		}
		p = p.Play(move)
	}
	return p, nil
}

// FromGrid parses six rows of seven cells, top rank first. 'x' marks the
// side to move, 'o' the opponent and '.' an empty square. Blank lines and
// spaces are ignored.
func FromGrid(grid string) (Position, error) {
	var rows []string
	sc := bufio.NewScanner(strings.NewReader(grid))
	for sc.Scan() {
		row := strings.ToLower(strings.Join(strings.Fields(sc.Text()), ""))
		if row == "" {
			continue
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return Position{}, err
	}
	if len(rows) != bb.NumRanks {
		return Position{}, fmt.Errorf("%w: got %d rows", ErrBadGrid, len(rows))
	}
	var p Position
	for i, row := range rows {
		if len(row) != bb.NumFiles {
			return Position{}, fmt.Errorf("%w: row %d is %q", ErrBadGrid, i+1, row)
		}
		rank := bb.NumRanks - 1 - i
		for f := 0; f < bb.NumFiles; f++ {
			sq := bb.FileRankBB(bb.File(f), rank)
			switch row[f] {
			case 'x':
				p.Mine |= sq
			case 'o':
				p.Theirs |= sq
			case '.':
			default:
				return Position{}, fmt.Errorf("%w: bad cell %q", ErrBadGrid, row[f])
			}
		}
	}
	if err := p.Validate(); err != nil {
		return Position{}, err
	}
	return p, nil
}

// String renders p in the FromGrid format.
func (p Position) String() string {
	var sb strings.Builder
	for rank := bb.NumRanks - 1; rank >= 0; rank-- {
		for f := bb.FileA; f <= bb.FileG; f++ {
			sq := bb.FileRankBB(f, rank)
			switch {
			case p.Mine&sq != 0:
				sb.WriteByte('x')
			case p.Theirs&sq != 0:
				sb.WriteByte('o')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
