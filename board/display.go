package board

import (
	"os"
	"strings"

	bb "github.com/nicolandu/broken-connect-four/bitboard"
)

var (
	ColorSupport = os.Getenv("C4SOLVER_DISABLE_COLOR") != "on"
)

const (
	colorReset     = "\033[0m"
	colorMine      = "\033[31m"
	colorTheirs    = "\033[33m"
	colorHighlight = "\033[30;41m"
)

func cell(p Position, sq, highlight bb.Bitboard, color bool) string {
	var c string
	switch {
	case p.Mine&sq != 0:
		c = "x"
	case p.Theirs&sq != 0:
		c = "o"
	default:
		c = "."
	}
	if !color {
		if highlight&sq != 0 {
			return "*"
		}
		return c
	}
	switch {
	case highlight&sq != 0:
		if c == "." {
			c = "*"
		}
		return colorHighlight + strings.ToUpper(c) + colorReset
	case c == "x":
		return colorMine + "X" + colorReset
	case c == "o":
		return colorTheirs + "O" + colorReset
	}
	return c
}

// ToDisplayText renders the board with file letters and rank numbers. The
// side to move is x (red), the opponent o (yellow); squares in highlight
// are marked.
func (p Position) ToDisplayText(highlight bb.Bitboard, color bool) string {
	color = color && ColorSupport
	var sb strings.Builder
	sb.WriteString("   a b c d e f g\n")
	sb.WriteString("  " + strings.Repeat("-", bb.NumFiles*2+1) + "\n")
	for rank := bb.NumRanks - 1; rank >= 0; rank-- {
		sb.WriteString(string(rune('1'+rank)) + " |")
		for f := bb.FileA; f <= bb.FileG; f++ {
			sb.WriteString(cell(p, bb.FileRankBB(f, rank), highlight, color))
			if f != bb.FileG {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("  " + strings.Repeat("-", bb.NumFiles*2+1) + "\n")
	return sb.String()
}
