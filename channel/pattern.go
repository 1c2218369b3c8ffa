package channel

import (
	"fmt"

	"periph.io/x/devices/v3/gsgrey/gs"
)

// Page geometry of the replication pass: one PSMCT32 page, seen as PSMT8.
const (
	PageWidth  = 64
	PageHeight = 32
	rowPair    = 2
)

// Offsets are the lane selection bits for a source channel, in PSMT8
// texels of the page view.
type Offsets struct {
	U, V  uint16
	Clamp gs.CLAMP
}

// ComputeOffsets returns the texel offsets that select lane c and the
// REGION_REPEAT clamp that forces them on every sample.
func ComputeOffsets(c Channel) Offsets {
	var o Offsets
	if c == Blue || c == Alpha {
		o.U = 8
	}
	if c == Green || c == Alpha {
		o.V = 2
	}
	o.Clamp = gs.CLAMP{
		WMS:  gs.WrapRegionRepeat,
		WMT:  gs.WrapRegionRepeat,
		MinU: 0xF7,
		MaxU: o.U,
		MinV: 0xFD,
		MaxV: o.V,
	}
	return o
}

// RowPattern is the quad arrangement used for one pair of pixel rows.
type RowPattern uint8

// Row patterns.
const (
	// Even covers the row pair with four 16 pixel wide quads.
	Even RowPattern = iota
	// Odd covers the row pair with eight 8 pixel wide quads.
	Odd
	// Paired covers the row pair with thirty-two 2 pixel wide quads. Lanes
	// 1 and 3 are stored with adjacent pixel pairs swapped in these rows, so
	// each pair is sampled on its own.
	Paired
)

func (p RowPattern) String() string {
	switch p {
	case Even:
		return "Even"
	case Odd:
		return "Odd"
	case Paired:
		return "Paired"
	default:
		return fmt.Sprintf("RowPattern(%d)", uint8(p))
	}
}

// Quad is a 2 pixel high sprite of the replication pass: pixels [X, X+W) of
// rows Y and Y+1 sample texels [U, U+W) of rows 2Y and 2Y+1.
type Quad struct {
	X, Y, W int
	U       int
}

// pairedU is the texel column of the first pixel of each 2 pixel pair in
// an 8 pixel group of a Paired row.
var pairedU = [4]int{2, 6, 0, 4}

// Quads returns the quads of pattern p for the row pair starting at y.
func (p RowPattern) Quads(y int) []Quad {
	switch p {
	case Odd:
		q := make([]Quad, 0, PageWidth/8)
		for x := 0; x < PageWidth; x += 8 {
			q = append(q, Quad{X: x, Y: y, W: 8, U: 4 + 2*x})
		}
		return q
	case Paired:
		q := make([]Quad, 0, PageWidth/2)
		for x := 0; x < PageWidth; x += 2 {
			k := x % 8
			q = append(q, Quad{X: x, Y: y, W: 2, U: 2*(x-k) + pairedU[k/2]})
		}
		return q
	default:
		q := make([]Quad, 0, PageWidth/16)
		for x := 0; x < PageWidth; x += 16 {
			q = append(q, Quad{X: x, Y: y, W: 16, U: 8 + 2*x})
		}
		return q
	}
}

// PatternFor returns the pattern that copies channel c for the row pair
// starting at y.
func PatternFor(c Channel, y int) RowPattern {
	aligned := y%4 == 0
	if ComputeOffsets(c).V == 0 {
		if aligned {
			return Even
		}
		return Odd
	}
	if aligned {
		return Paired
	}
	return Even
}

// PageQuads returns every quad of a page for channel c, in drawing order.
func PageQuads(c Channel) []Quad {
	var q []Quad
	for y := 0; y < PageHeight; y += rowPair {
		q = append(q, PatternFor(c, y).Quads(y)...)
	}
	return q
}
