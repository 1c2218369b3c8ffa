package gs

import (
	"errors"
	"fmt"
	"image"
)

// ErrUnaligned is returned when an address or coordinate does not satisfy the
// alignment the GS requires for it.
var ErrUnaligned = errors.New("gs: unaligned")

// Surface is a view over a rectangular region of local memory. It does not
// own the memory.
type Surface struct {
	Base  uint32 // word address
	Width uint32 // buffer width, in 64 pixel units
	PSM   PSM
}

// FBP returns the frame base pointer (pages).
func (s Surface) FBP() uint32 { return s.Base / WordsPerPage }

// TBP returns the texture base pointer (blocks).
func (s Surface) TBP() uint32 { return s.Base / WordsPerBlock }

// Pixels returns the buffer width in pixels.
func (s Surface) Pixels() int { return int(s.Width) * 64 }

// String implements fmt.Stringer.
func (s Surface) String() string {
	return fmt.Sprintf("%s@0x%05X/%d", s.PSM, s.Base, s.Pixels())
}

// Validate checks that s can be used as a render target.
func (s Surface) Validate() error {
	if !s.PSM.Valid() {
		return fmt.Errorf("gs: unsupported pixel format %s", s.PSM)
	}
	if s.Width == 0 || s.Width > 0x3F {
		return fmt.Errorf("gs: surface width %d out of range", s.Width)
	}
	if s.Base%WordsPerPage != 0 {
		return fmt.Errorf("%w: surface base 0x%05X is not page aligned", ErrUnaligned, s.Base)
	}
	if s.Base >= MemoryWords {
		return fmt.Errorf("gs: surface base 0x%05X outside local memory", s.Base)
	}
	return nil
}

// pagesPerRow returns how many pages one row of pages spans.
func (s Surface) pagesPerRow() uint32 {
	pw, _ := s.PSM.PageSize()
	n := uint32(s.Pixels() / pw)
	if n == 0 {
		n = 1
	}
	return n
}

// Page returns a view of s whose base is the page holding pixel (x, y). The
// point must be page aligned.
func (s Surface) Page(x, y int) (Surface, error) {
	pw, ph := s.PSM.PageSize()
	if x < 0 || y < 0 || x%pw != 0 || y%ph != 0 {
		return Surface{}, fmt.Errorf("%w: (%d,%d) is not on a %s page boundary", ErrUnaligned, x, y, s.PSM)
	}
	s.Base += (uint32(y/ph)*s.pagesPerRow() + uint32(x/pw)) * WordsPerPage
	return s, nil
}

// Context carries the base addresses the pipeline works with. It is passed
// explicitly to every packet builder.
type Context struct {
	Frame   Surface         // PSMCT16 image being converted
	Bounds  image.Rectangle // visible part of Frame
	Staging Surface         // PSMCT32 scratch area for one tile
	CLUT    uint32          // word address of the broadcast lookup table
}

// Validate checks the surfaces and the CLUT alignment.
func (c Context) Validate() error {
	if err := c.Frame.Validate(); err != nil {
		return fmt.Errorf("frame: %w", err)
	}
	if err := c.Staging.Validate(); err != nil {
		return fmt.Errorf("staging: %w", err)
	}
	if c.Frame.PSM != PSMCT16 {
		return fmt.Errorf("gs: frame must be PSMCT16, got %s", c.Frame.PSM)
	}
	if c.Staging.PSM != PSMCT32 {
		return fmt.Errorf("gs: staging must be PSMCT32, got %s", c.Staging.PSM)
	}
	if c.CLUT%WordsPerBlock != 0 {
		return fmt.Errorf("%w: CLUT base 0x%05X is not block aligned", ErrUnaligned, c.CLUT)
	}
	return nil
}
