package bitboard

import (
	"errors"
	"fmt"
	"strings"
)

// Square indexes a bit of the board. Sentinel squares are included so that
// a Square is also a bit position.
type Square int

const (
	SqA1 Square = iota
	SqA2
	SqA3
	SqA4
	SqA5
	SqA6
	SqASentinel
	SqB1
	SqB2
	SqB3
	SqB4
	SqB5
	SqB6
	SqBSentinel
	SqC1
	SqC2
	SqC3
	SqC4
	SqC5
	SqC6
	SqCSentinel
	SqD1
	SqD2
	SqD3
	SqD4
	SqD5
	SqD6
	SqDSentinel
	SqE1
	SqE2
	SqE3
	SqE4
	SqE5
	SqE6
	SqESentinel
	SqF1
	SqF2
	SqF3
	SqF4
	SqF5
	SqF6
	SqFSentinel
	SqG1
	SqG2
	SqG3
	SqG4
	SqG5
	SqG6
	SqGSentinel
	NumSquareBits
)

var ErrBadSquare = errors.New("bad square")

// SquareBB returns the one-square set for sq.
func SquareBB(sq Square) Bitboard {
	return 1 << sq
}

// Squares returns the union of the given squares.
func Squares(sqs ...Square) Bitboard {
	var bb Bitboard
	for _, sq := range sqs {
		bb |= SquareBB(sq)
	}
	return bb
}

func (sq Square) File() File {
	return File(int(sq) / FileStride)
}

// Rank is 0-based; the sentinel rank is 6.
func (sq Square) Rank() int {
	return int(sq) % FileStride
}

func (sq Square) IsSentinel() bool {
	return sq.Rank() == NumRanks
}

func (sq Square) String() string {
	if sq < 0 || sq >= NumSquareBits {
		return "??"
	}
	if sq.IsSentinel() {
		return sq.File().String() + "*"
	}
	return fmt.Sprintf("%s%d", sq.File(), sq.Rank()+1)
}

// ParseSquare parses squares such as "a1" or "G6".
func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'g' || s[1] < '1' || s[1] > '6' {
		return 0, fmt.Errorf("%w: %q", ErrBadSquare, s)
	}
	return Square(int(s[0]-'a')*FileStride + int(s[1]-'1')), nil
}
