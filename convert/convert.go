// Package convert moves 64x64 tiles between PSMCT16 and PSMCT32 surfaces
// by letting the GS sample one as a texture while rendering into the other.
//
// A texture read of a PSMCT16 texel shifts each 5-bit channel left by 3 and
// expands the alpha bit through TEXA; the frame write of a PSMCT32 color into
// a PSMCT16 buffer drops the low 3 bits of each channel and keeps the top
// alpha bit. With TEXA at 0x00/0x80 the round trip is lossless.
package convert

import (
	"errors"
	"fmt"
	"image"

	"periph.io/x/devices/v3/gsgrey/gs"
	"periph.io/x/devices/v3/gsgrey/packet"
)

// TileSize is the width and height of a tile in pixels.
const TileSize = 64

// ErrUnaligned is returned for tile origins that are not multiples of
// TileSize.
var ErrUnaligned = errors.New("convert: tile origin not 64 pixel aligned")

// Tile returns a packet that renders the 64x64 tile of src at sp into dst
// at dp, converting between the formats of the two surfaces.
func Tile(src gs.Surface, sp image.Point, dst gs.Surface, dp image.Point) ([]byte, error) {
	b := packet.New(2 * 12)
	if err := AppendTile(b, src, sp, dst, dp); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// AppendTile appends the packet built by Tile to b. On error b is left
// unchanged.
//
// The FRAME register is left pointing at dst.
func AppendTile(b *packet.Builder, src gs.Surface, sp image.Point, dst gs.Surface, dp image.Point) error {
	if err := check(src, sp); err != nil {
		return fmt.Errorf("convert: source: %w", err)
	}
	if err := check(dst, dp); err != nil {
		return fmt.Errorf("convert: destination: %w", err)
	}

	// One sprite per source page: a PSMCT16 tile is a single page, a PSMCT32
	// tile is two pages stacked vertically.
	pw, ph := src.PSM.PageSize()
	frame := gs.FRAME{FBP: dst.FBP(), FBW: dst.Width, PSM: dst.PSM}
	for oy := 0; oy < TileSize; oy += ph {
		for ox := 0; ox < TileSize; ox += pw {
			page, err := src.Page(sp.X+ox, sp.Y+oy)
			if err != nil {
				return err
			}
			b.ADGroup(func(b *packet.Builder) {
				b.AD(gs.RegFRAME, frame.Pack())
				b.AD(gs.RegTEX0, gs.TEX0{
					TBP0: page.TBP(),
					TBW:  src.Width,
					PSM:  src.PSM,
					TW:   gs.Log2(pw),
					TH:   gs.Log2(ph),
					TCC:  1,
					TFX:  gs.TFXDecal,
				}.Pack())
				b.AD(gs.RegTEX1, gs.TEX1Nearest)
				b.AD(gs.RegTEXFLUSH, 0)
				b.AD(gs.RegRGBAQ, gs.RGBAQ(0x80, 0x80, 0x80, 0x80, 1))
			})

			x0, y0 := dp.X+ox, dp.Y+oy
			b.Begin(packet.Tag{
				NLoop: 2,
				EOP:   true,
				PRE:   true,
				Prim:  gs.Prim(gs.PrimSprite, gs.PrimTME),
				Regs:  []packet.Desc{packet.DescST, packet.DescXYZ2},
			})
			b.ST(0, 0, 1)
			b.XYZ(gs.XYZ{X: gs.Fixed(x0), Y: gs.Fixed(y0)}, false)
			b.ST(1, 1, 1)
			b.XYZ(gs.XYZ{X: gs.Fixed(x0 + pw), Y: gs.Fixed(y0 + ph)}, true)
			b.End()
		}
	}
	return nil
}

func check(s gs.Surface, p image.Point) error {
	if s.PSM != gs.PSMCT16 && s.PSM != gs.PSMCT32 {
		return fmt.Errorf("unsupported pixel format %s", s.PSM)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if p.X < 0 || p.Y < 0 || p.X%TileSize != 0 || p.Y%TileSize != 0 {
		return fmt.Errorf("%w: %v", ErrUnaligned, p)
	}
	if p.X+TileSize > s.Pixels() {
		return fmt.Errorf("%w: tile at %v exceeds a buffer %d pixels wide", ErrUnaligned, p, s.Pixels())
	}
	return nil
}

// Widen appends the copy of the frame tile at tile into the staging
// surface, then points FRAME back at the frame buffer.
func Widen(b *packet.Builder, ctx gs.Context, tile image.Point) error {
	if err := AppendTile(b, ctx.Frame, tile, ctx.Staging, image.Point{}); err != nil {
		return err
	}
	b.ADGroup(func(b *packet.Builder) {
		b.AD(gs.RegFRAME, gs.FRAME{FBP: ctx.Frame.FBP(), FBW: ctx.Frame.Width, PSM: ctx.Frame.PSM}.Pack())
	})
	return nil
}

// Narrow appends the copy of the staging surface back into the frame tile
// at tile.
func Narrow(b *packet.Builder, ctx gs.Context, tile image.Point) error {
	return AppendTile(b, ctx.Staging, image.Point{}, ctx.Frame, tile)
}
