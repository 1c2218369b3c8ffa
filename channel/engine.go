package channel

import (
	"errors"
	"fmt"

	"periph.io/x/devices/v3/gsgrey/gs"
	"periph.io/x/devices/v3/gsgrey/packet"
)

// Engine copies Source into every channel of Targets.
type Engine struct {
	Source  Channel
	Targets Mask
}

// Validate checks the channel selection.
func (e Engine) Validate() error {
	if !e.Source.Valid() {
		return fmt.Errorf("channel: invalid source %s", e.Source)
	}
	if e.Targets == 0 || e.Targets&^RGBA != 0 {
		return fmt.Errorf("channel: invalid destination mask %#x", uint8(e.Targets))
	}
	return nil
}

// Page appends the replication of the PSMCT32 page at word address base.
// The page must be the only page of a 64 pixel wide buffer row, as the
// staging surface is.
func (e Engine) Page(b *packet.Builder, ctx gs.Context, base uint32) {
	o := ComputeOffsets(e.Source)
	b.ADGroup(func(b *packet.Builder) {
		b.AD(gs.RegTEX0, gs.TEX0{
			TBP0: base / gs.WordsPerBlock,
			TBW:  2, // one PSMT8 page across
			PSM:  gs.PSMT8,
			TW:   10,
			TH:   10,
			TCC:  1,
			TFX:  gs.TFXDecal,
			CBP:  ctx.CLUT / gs.WordsPerBlock,
			CPSM: gs.PSMCT32,
			CLD:  1,
		}.Pack())
		b.AD(gs.RegCLAMP, o.Clamp.Pack())
		b.AD(gs.RegTEX1, gs.TEX1Nearest)
		b.AD(gs.RegTEXFLUSH, 0)
		b.AD(gs.RegFRAME, gs.FRAME{
			FBP:   base / gs.WordsPerPage,
			FBW:   1,
			PSM:   gs.PSMCT32,
			FBMSK: e.Targets.FrameMask(),
		}.Pack())
	})

	quads := PageQuads(e.Source)
	b.Begin(packet.Tag{
		NLoop: len(quads),
		EOP:   true,
		PRE:   true,
		Prim:  gs.Prim(gs.PrimSprite, gs.PrimTME|gs.PrimFST),
		Regs:  []packet.Desc{packet.DescUV, packet.DescXYZ2, packet.DescUV, packet.DescXYZ2},
	})
	for _, q := range quads {
		v := 2 * q.Y
		b.Vertex(
			gs.UV{U: gs.TexelCenter(q.U), V: gs.TexelCenter(v)},
			gs.XYZ{X: gs.Fixed(q.X), Y: gs.Fixed(q.Y)},
			false)
		b.Vertex(
			gs.UV{U: gs.TexelCenter(q.U + q.W), V: gs.TexelCenter(v + rowPair)},
			gs.XYZ{X: gs.Fixed(q.X + q.W), Y: gs.Fixed(q.Y + rowPair)},
			true)
	}
	b.End()
}

// AppendTile appends the replication of both pages of the staging surface
// followed by Restore.
func (e Engine) AppendTile(b *packet.Builder, ctx gs.Context) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if ctx.Staging.PSM != gs.PSMCT32 || ctx.Staging.Width != 1 {
		return errors.New("channel: staging must be a PSMCT32 surface one page wide")
	}
	if ctx.CLUT%gs.WordsPerBlock != 0 {
		return fmt.Errorf("channel: %w: CLUT at 0x%05X", gs.ErrUnaligned, ctx.CLUT)
	}
	for y := 0; y < 64; y += PageHeight {
		page, err := ctx.Staging.Page(0, y)
		if err != nil {
			return fmt.Errorf("channel: %w", err)
		}
		e.Page(b, ctx, page.Base)
	}
	Restore(b, ctx)
	return nil
}

// Tile returns the packet built by AppendTile.
func (e Engine) Tile(ctx gs.Context) ([]byte, error) {
	b := packet.New(2 * (7 + 1 + 4*len(PageQuads(e.Source))))
	if err := e.AppendTile(b, ctx); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Restore appends the writes that undo the replication state: wrapping back
// to REPEAT and FRAME back to the frame buffer with every channel writable.
func Restore(b *packet.Builder, ctx gs.Context) {
	b.ADGroup(func(b *packet.Builder) {
		b.AD(gs.RegCLAMP, gs.DefaultCLAMP.Pack())
		b.AD(gs.RegFRAME, gs.FRAME{
			FBP: ctx.Frame.FBP(),
			FBW: ctx.Frame.Width,
			PSM: ctx.Frame.PSM,
		}.Pack())
	})
}
