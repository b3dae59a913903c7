package board

import "math/bits"

// Slider attacks use fancy magic bitboards. The magics are searched for at
// start-up with a fixed-seed generator, so the tables are identical on
// every run and need no hardcoded constants.

type magicEntry struct {
	mask    Bitboard
	magic   uint64
	shift   uint8
	attacks []Bitboard
}

func (m *magicEntry) lookup(occupied Bitboard) Bitboard {
	return m.attacks[uint64(occupied&m.mask)*m.magic>>m.shift]
}

var (
	bishopMagics [64]magicEntry
	rookMagics   [64]magicEntry
)

const magicSeed = 0x5DEECE66D2F3A1B7

func initMagics() {
	rng := xorshift{state: magicSeed}
	rookTable := make([]Bitboard, 0x19000)
	bishopTable := make([]Bitboard, 0x1480)
	fillMagics(&rookMagics, rookTable, rookDirections, &rng)
	fillMagics(&bishopMagics, bishopTable, bishopDirections, &rng)
}

// relevantMask is the set of squares whose occupancy can change a slider's
// attacks from sq: every ray square except the last one before the edge.
func relevantMask(sq Square, dirs [4]direction) Bitboard {
	var mask Bitboard
	for _, d := range dirs {
		for s, ok := offset(sq, d); ok; s, ok = offset(s, d) {
			if _, more := offset(s, d); !more {
				break
			}
			mask |= SquareBB(s)
		}
	}
	return mask
}

func fillMagics(entries *[64]magicEntry, table []Bitboard, dirs [4]direction, rng *xorshift) {
	var (
		occupancy [4096]Bitboard
		reference [4096]Bitboard
		epoch     [4096]int
		attempt   int
	)
	for sq := A1; sq <= H8; sq++ {
		e := &entries[sq]
		e.mask = relevantMask(sq, dirs)
		n := e.mask.Count()
		e.shift = uint8(64 - n)
		size := 1 << n
		e.attacks, table = table[:size], table[size:]

		// Carry-Rippler enumeration of every subset of the mask.
		var occ Bitboard
		for i := 0; i < size; i++ {
			occupancy[i] = occ
			reference[i] = slideTargets(sq, occ, dirs)
			occ = (occ - e.mask) & e.mask
		}

		for found := false; !found; {
			e.magic = rng.sparse()
			if bits.OnesCount64(uint64(e.mask)*e.magic>>56) < 6 {
				continue
			}
			attempt++
			found = true
			for i := 0; i < size; i++ {
				idx := uint64(occupancy[i]) * e.magic >> e.shift
				if epoch[idx] < attempt {
					epoch[idx] = attempt
					e.attacks[idx] = reference[i]
				} else if e.attacks[idx] != reference[i] {
					found = false
					break
				}
			}
		}
	}
}
