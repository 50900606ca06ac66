// Package bitboard encodes a 7x6 Connect-4 board as a 64-bit word.
//
// Files are named a-g and ranks 1-6. Every file takes 7 bits: its 6 playable
// ranks plus one sentinel rank that is always empty. a1 is bit 0, a6 is
// bit 5, the a sentinel is bit 6, b1 is bit 7 and so on:
//
//	6 13 20 27 34 41 48   <- sentinel
//	5 12 19 26 33 40 47
//	4 11 18 25 32 39 46
//	3 10 17 24 31 38 45
//	2  9 16 23 30 37 44
//	1  8 15 22 29 36 43
//	0  7 14 21 28 35 42
//
// The sentinel bit absorbs carries when ranks are added together, so
// arithmetic on one file never spills into the playable bits of the next.
package bitboard

import (
	"math/bits"
	"strings"
)

// Bitboard is a set of squares.
type Bitboard uint64

const (
	NumFiles = 7
	NumRanks = 6
	// FileStride is the number of bits per file, sentinel included.
	FileStride = NumRanks + 1
	// NumSquares is the number of playable squares.
	NumSquares = NumFiles * NumRanks
)

// File is a board column, FileA to FileG.
type File int

const (
	FileA File = iota
	FileB
	FileC
	FileD
	FileE
	FileF
	FileG
)

func (f File) String() string {
	return string(rune('a' + int(f)))
}

const Empty Bitboard = 0

// Files do not include the sentinel rank.
const (
	FileABB Bitboard = (1<<NumRanks - 1)
	FileBBB          = FileABB << (FileStride * 1)
	FileCBB          = FileABB << (FileStride * 2)
	FileDBB          = FileABB << (FileStride * 3)
	FileEBB          = FileABB << (FileStride * 4)
	FileFBB          = FileABB << (FileStride * 5)
	FileGBB          = FileABB << (FileStride * 6)
)

const (
	Rank1BB Bitboard = 1 | 1<<(FileStride*1) | 1<<(FileStride*2) |
		1<<(FileStride*3) | 1<<(FileStride*4) | 1<<(FileStride*5) |
		1<<(FileStride*6)
	Rank2BB        = Rank1BB << 1
	Rank3BB        = Rank1BB << 2
	Rank4BB        = Rank1BB << 3
	Rank5BB        = Rank1BB << 4
	Rank6BB        = Rank1BB << 5
	RankSentinelBB = Rank1BB << 6

	// AllTilesBB holds every playable square, sentinels excluded.
	AllTilesBB = Rank1BB | Rank2BB | Rank3BB | Rank4BB | Rank5BB | Rank6BB
)

var fileBBs = [NumFiles]Bitboard{FileABB, FileBBB, FileCBB, FileDBB, FileEBB, FileFBB, FileGBB}

// FileBB returns the playable squares of a file.
func FileBB(f File) Bitboard {
	return fileBBs[f]
}

// FileRankBB returns the one-square set at a file and a 0-based rank.
func FileRankBB(f File, rank int) Bitboard {
	return 1 << (FileStride*int(f) + rank)
}

// PopCount returns the number of squares in the set.
func PopCount(bb Bitboard) int {
	return bits.OnesCount64(uint64(bb))
}

// LowestBit isolates the least significant square of the set.
func LowestBit(bb Bitboard) Bitboard {
	return bb & -bb
}

// LowestSquare returns the least significant square of the set. The result
// is undefined for the empty set; callers check for emptiness first.
func LowestSquare(bb Bitboard) Square {
	return Square(bits.TrailingZeros64(uint64(bb)))
}

// Has reports whether the square is in the set.
func (bb Bitboard) Has(sq Square) bool {
	return bb&SquareBB(sq) != 0
}

// String renders the set as a 7x6 grid, rank 6 on top.
func (bb Bitboard) String() string {
	var sb strings.Builder
	for rank := NumRanks - 1; rank >= 0; rank-- {
		for f := FileA; f <= FileG; f++ {
			if bb&FileRankBB(f, rank) != 0 {
				sb.WriteByte('X')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
