package solver

import (
	"math"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	bb "github.com/nicolandu/broken-connect-four/bitboard"
)

const (
	// MinTableBits is the smallest size at which a 32-bit partial key plus
	// the slot index still identify a position exactly: keys are below
	// 2^49 and 2^32 * (2^17 + 1) > 2^49.
	MinTableBits = 17
	MaxTableBits = 28

	// NotFound is returned by Probe on a miss. Valid bounds lie in
	// [-41, 42].
	NotFound = math.MinInt8
)

// 8 bytes with padding.
type tableEntry struct {
	key   uint32
	bound int8
}

const entrySize = 8

// TableStats are the counters kept since the last Clear.
type TableStats struct {
	Created uint64
	Lookups uint64
	Hits    uint64
}

// TranspositionTable caches upper bounds on position values. It holds
// 2^bits + 1 slots; the odd size is coprime with 2^64, so the slot index
// and the low 32 bits of a key together recover the whole key.
//
// A table is not safe for concurrent use, and must be cleared before
// searching a position that does not descend from the last one searched.
type TranspositionTable struct {
	table []tableEntry
	bits  int
	stats TableStats
}

func clampBits(bits int) int {
	return min(max(bits, MinTableBits), MaxTableBits)
}

// NewTranspositionTable allocates a cleared table of 2^bits + 1 slots. bits
// is clamped to [MinTableBits, MaxTableBits].
func NewTranspositionTable(bits int) *TranspositionTable {
	t := &TranspositionTable{bits: clampBits(bits)}
	t.table = make([]tableEntry, (1<<t.bits)+1)
	t.Clear()
	log.Debug().Int("bits", t.bits).
		Int("num-elems", len(t.table)).
		Int("estimated-total-memory-bytes", len(t.table)*entrySize).
		Msg("transposition-table-created")
	return t
}

// TableBitsForMemory picks the biggest table that fits in the given
// fraction of system memory.
func TableBitsForMemory(fractionOfMemory float64) int {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	bits := MinTableBits
	if desiredNElems > 1 {
		// the extra slot is ignored; 2^bits+1 entries is close enough
		bits = clampBits(int(math.Log2(desiredNElems)))
	}
	log.Info().Int("bits", bits).
		Float64("desired-num-elems", desiredNElems).
		Int("estimated-total-memory-bytes", ((1<<bits)+1)*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("transposition-table-size")
	return bits
}

// Bits is the size exponent the table was built with.
func (t *TranspositionTable) Bits() int {
	return t.bits
}

func (t *TranspositionTable) Len() int {
	return len(t.table)
}

func key(mine, theirs bb.Bitboard) uint64 {
	return uint64(mine|theirs) + uint64(mine)
}

func (t *TranspositionTable) index(k uint64) uint64 {
	return k % uint64(len(t.table))
}

// Save overwrites the slot of a position with an upper bound on its value.
func (t *TranspositionTable) Save(mine, theirs bb.Bitboard, bound int8) {
	k := key(mine, theirs)
	t.table[t.index(k)] = tableEntry{key: uint32(k), bound: bound}
	t.stats.Created++
}

// Probe returns the stored upper bound of a position, or NotFound.
func (t *TranspositionTable) Probe(mine, theirs bb.Bitboard) int8 {
	k := key(mine, theirs)
	t.stats.Lookups++
	e := t.table[t.index(k)]
	if e.key != uint32(k) || e.bound == NotFound {
		return NotFound
	}
	t.stats.Hits++
	return e.bound
}

// Clear empties every slot and resets the counters.
func (t *TranspositionTable) Clear() {
	for i := range t.table {
		t.table[i] = tableEntry{bound: NotFound}
	}
	t.stats = TableStats{}
}

func (t *TranspositionTable) Stats() TableStats {
	return t.stats
}
