// Package gs describes the Graphics Synthesizer programming model: pixel
// storage formats, local memory geometry, register addresses and the bit
// layout of the registers the greyscale pipeline writes.
//
// Local memory addresses are expressed in 32-bit words, the unit returned by
// the allocator. Frame pointers count pages (2048 words) and texture/CLUT
// pointers count blocks (64 words).
package gs

import "fmt"

// Local memory geometry.
const (
	MemoryWords   = 1 << 20 // 4 MiB
	WordsPerPage  = 2048    // 8 KiB
	WordsPerBlock = 64      // 256 bytes
	BlocksPerPage = WordsPerPage / WordsPerBlock
)

// PSM is a pixel storage mode.
type PSM uint8

// Pixel storage modes used by the pipeline.
const (
	PSMCT32 PSM = 0x00 // 32-bit RGBA
	PSMCT16 PSM = 0x02 // 16-bit RGBA5551
	PSMT8   PSM = 0x13 // 8-bit CLUT index
)

// String returns the mnemonic used in the GS manual.
func (p PSM) String() string {
	switch p {
	case PSMCT32:
		return "PSMCT32"
	case PSMCT16:
		return "PSMCT16"
	case PSMT8:
		return "PSMT8"
	default:
		return fmt.Sprintf("PSM(0x%02X)", uint8(p))
	}
}

// Valid reports whether p is one of the supported formats.
func (p PSM) Valid() bool {
	return p == PSMCT32 || p == PSMCT16 || p == PSMT8
}

// BitsPerPixel returns the storage size of one pixel.
func (p PSM) BitsPerPixel() int {
	switch p {
	case PSMCT16:
		return 16
	case PSMT8:
		return 8
	default:
		return 32
	}
}

// PageSize returns the width and height in pixels of one page.
func (p PSM) PageSize() (w, h int) {
	switch p {
	case PSMCT16:
		return 64, 64
	case PSMT8:
		return 128, 64
	default:
		return 64, 32
	}
}

// BlockSize returns the width and height in pixels of one block.
func (p PSM) BlockSize() (w, h int) {
	switch p {
	case PSMCT16:
		return 16, 8
	case PSMT8:
		return 16, 16
	default:
		return 8, 8
	}
}

// Log2 returns the texture size exponent for n, as written to TEX0.TW/TH.
// n must be a power of two.
func Log2(n int) uint8 {
	var l uint8
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}
