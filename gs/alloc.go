package gs

import (
	"errors"
	"fmt"
)

// ErrOutOfMemory is returned when local memory is exhausted.
var ErrOutOfMemory = errors.New("gs: out of local memory")

// Align is the alignment class of an allocation.
type Align int

// Alignment classes.
const (
	AlignPage  Align = iota // frame buffers and textures bound as pages
	AlignBlock              // CLUTs and small textures
)

func (a Align) words() uint32 {
	if a == AlignBlock {
		return WordsPerBlock
	}
	return WordsPerPage
}

// Allocator hands out local memory from the bottom up. Allocations live for
// the lifetime of the allocator; there is no free.
type Allocator struct {
	next uint32
}

// Allocate reserves room for a w x h image in format psm and returns its
// word address.
func (a *Allocator) Allocate(w, h int, psm PSM, align Align) (uint32, error) {
	if w <= 0 || h <= 0 {
		return 0, fmt.Errorf("gs: invalid allocation size %dx%d", w, h)
	}
	if !psm.Valid() {
		return 0, fmt.Errorf("gs: unsupported pixel format %s", psm)
	}
	step := align.words()
	base := (a.next + step - 1) / step * step
	size := Size(w, h, psm, align)
	if uint64(base)+uint64(size) > MemoryWords {
		return 0, fmt.Errorf("%w: %dx%d %s needs %d words at 0x%05X", ErrOutOfMemory, w, h, psm, size, base)
	}
	a.next = base + size
	return base, nil
}

// Used returns the number of words handed out so far, including padding.
func (a *Allocator) Used() uint32 {
	return a.next
}

// Size returns the number of words a w x h image occupies. Page aligned
// images cover whole pages; block aligned ones whole blocks.
func Size(w, h int, psm PSM, align Align) uint32 {
	if align == AlignPage {
		pw, ph := psm.PageSize()
		across := (w + pw - 1) / pw
		down := (h + ph - 1) / ph
		return uint32(across*down) * WordsPerPage
	}
	bytes := w * h * psm.BitsPerPixel() / 8
	blocks := (bytes + WordsPerBlock*4 - 1) / (WordsPerBlock * 4)
	return uint32(blocks) * WordsPerBlock
}
