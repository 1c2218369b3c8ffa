package gssim

import (
	"math"

	"periph.io/x/devices/v3/gsgrey/gs"
)

// vertex is a queued vertex with the attributes current when it was
// written. Positions and texture coordinates are in 1/16 units.
type vertex struct {
	x, y  int
	u, v  int     // UV mode
	s, t  float32 // STQ mode
	q     float32
	color uint32
}

// vertex queues a vertex and draws when a kick completes a primitive.
func (s *Sim) vertex(xyz uint64, kick bool) {
	ofx, ofy := gs.UnpackXYOFFSET(s.reg[gs.RegXYOFFSET])
	uv := s.reg[gs.RegUV]
	st := s.reg[gs.RegST]
	v := vertex{
		x:     int(xyz&0xFFFF) - int(ofx),
		y:     int(xyz>>16&0xFFFF) - int(ofy),
		u:     int(uv & 0x3FFF),
		v:     int(uv >> 16 & 0x3FFF),
		s:     math.Float32frombits(uint32(st)),
		t:     math.Float32frombits(uint32(st >> 32)),
		q:     s.q,
		color: uint32(s.reg[gs.RegRGBAQ]),
	}
	s.verts = append(s.verts, v)
	if len(s.verts) > 2 {
		s.verts = s.verts[1:]
	}
	if !kick || len(s.verts) < 2 {
		return
	}
	prim := s.reg[gs.RegPRIM]
	if gs.PrimType(prim&7) != gs.PrimSprite {
		s.logger().Warn("gssim: only sprites are drawn", "prim", prim&7)
		s.verts = s.verts[:0]
		return
	}
	s.sprite(s.verts[0], s.verts[1], prim)
	s.verts = s.verts[:0]
}

// ceil16 returns the first whole pixel at or after the 1/16 position p.
func ceil16(p int) int {
	return (p + 15) >> 4
}

// sprite draws the axis aligned rectangle spanned by a and b. A pixel is
// covered when its top left corner lies inside the rectangle, left and top
// edges inclusive.
func (s *Sim) sprite(a, b vertex, prim uint64) {
	if b.x < a.x {
		a.x, b.x = b.x, a.x
		a.u, b.u = b.u, a.u
		a.s, b.s = b.s, a.s
	}
	if b.y < a.y {
		a.y, b.y = b.y, a.y
		a.v, b.v = b.v, a.v
		a.t, b.t = b.t, a.t
	}
	frame := gs.UnpackFRAME(s.reg[gs.RegFRAME])
	sc := gs.UnpackSCISSOR(s.reg[gs.RegSCISSOR])
	x0, x1 := max(ceil16(a.x), int(sc.X0)), min(ceil16(b.x), int(sc.X1)+1)
	y0, y1 := max(ceil16(a.y), int(sc.Y0)), min(ceil16(b.y), int(sc.Y1)+1)
	if x0 >= x1 || y0 >= y1 {
		return
	}

	textured := prim&gs.PrimTME != 0
	var tex texture
	if textured {
		tex = s.bindTexture()
		if prim&gs.PrimFST == 0 {
			// Project STQ to texel units once per vertex.
			a.u, a.v = tex.project(a)
			b.u, b.v = tex.project(b)
		}
	}

	fbp := frame.FBP * gs.BlocksPerPage
	for py := y0; py < y1; py++ {
		tv := lerp(a.v, b.v, a.y, b.y, py)
		for px := x0; px < x1; px++ {
			c := b.color
			if textured {
				c = tex.shade(s, lerp(a.u, b.u, a.x, b.x, px)>>4, tv>>4, b.color)
			}
			s.plot(fbp, frame, px, py, c)
		}
	}
}

// lerp interpolates attribute c0..c1 across positions p0..p1 (1/16 units)
// at the top left corner of pixel px.
func lerp(c0, c1, p0, p1, px int) int {
	if p1 == p0 {
		return c0
	}
	return c0 + (px*16-p0)*(c1-c0)/(p1-p0)
}

// plot writes color c to the frame, honouring FBMSK.
func (s *Sim) plot(fbp uint32, f gs.FRAME, x, y int, c uint32) {
	switch f.PSM {
	case gs.PSMCT16:
		s.write16(fbp, f.FBW, x, y, narrow(c), narrow(f.FBMSK))
	default:
		s.write32(fbp, f.FBW, x, y, c, f.FBMSK)
	}
}

// narrow truncates a PSMCT32 color, or write mask, to PSMCT16.
func narrow(c uint32) uint16 {
	return uint16(c>>3&0x1F | c>>11&0x1F<<5 | c>>19&0x1F<<10 | c>>31<<15)
}

// widen expands a PSMCT16 texel the way texture reads do: colors shifted
// left by 3 and alpha taken from TEXA.
func widen(c uint16, texa gs.TEXA) uint32 {
	r := uint32(c&0x1F) << 3
	g := uint32(c>>5&0x1F) << 3
	b := uint32(c>>10&0x1F) << 3
	a := uint32(texa.TA0)
	if c&0x8000 != 0 {
		a = uint32(texa.TA1)
	} else if texa.AEM == 1 && c&0x7FFF == 0 {
		a = 0
	}
	return r | g<<8 | b<<16 | a<<24
}

// texture is the texture state bound when a sprite starts.
type texture struct {
	tex0  gs.TEX0
	clamp gs.CLAMP
	texa  gs.TEXA
	w, h  int
}

func (s *Sim) bindTexture() texture {
	t := gs.UnpackTEX0(s.reg[gs.RegTEX0])
	return texture{
		tex0:  t,
		clamp: gs.UnpackCLAMP(s.reg[gs.RegCLAMP]),
		texa:  gs.UnpackTEXA(s.reg[gs.RegTEXA]),
		w:     1 << t.TW,
		h:     1 << t.TH,
	}
}

// project converts STQ to UV in 1/16 texels.
func (t texture) project(v vertex) (u, w int) {
	q := v.q
	if q == 0 {
		q = 1
	}
	u = int(math.Floor(float64(v.s / q * float32(t.w) * 16)))
	w = int(math.Floor(float64(v.t / q * float32(t.h) * 16)))
	return u, w
}

// wrap applies a CLAMP wrap mode to texel coordinate c.
func wrap(c, size int, mode uint8, lo, hi uint16) int {
	switch mode {
	case gs.WrapClamp:
		return min(max(c, 0), size-1)
	case gs.WrapRegionClamp:
		return min(max(c, int(lo)), int(hi))
	case gs.WrapRegionRepeat:
		return c&int(lo) | int(hi)
	default:
		return c & (size - 1)
	}
}

// fetch returns the PSMCT32 color of texel (u, v).
func (t texture) fetch(s *Sim, u, v int) uint32 {
	u = wrap(u, t.w, t.clamp.WMS, t.clamp.MinU, t.clamp.MaxU)
	v = wrap(v, t.h, t.clamp.WMT, t.clamp.MinV, t.clamp.MaxV)
	switch t.tex0.PSM {
	case gs.PSMCT16:
		return widen(s.read16(t.tex0.TBP0, t.tex0.TBW, u, v), t.texa)
	case gs.PSMT8:
		return s.clut[s.read8(t.tex0.TBP0, t.tex0.TBW, u, v)]
	default:
		return s.read32(t.tex0.TBP0, t.tex0.TBW, u, v)
	}
}

// shade combines the texel at (u, v) with the vertex color f.
func (t texture) shade(s *Sim, u, v int, f uint32) uint32 {
	tc := t.fetch(s, u, v)
	fa := f >> 24
	switch t.tex0.TFX {
	case gs.TFXDecal:
		if t.tex0.TCC == 0 {
			return tc&0xFFFFFF | fa<<24
		}
		return tc
	default:
		var out uint32
		for lane := uint(0); lane < 24; lane += 8 {
			c := (tc >> lane & 0xFF) * (f >> lane & 0xFF) >> 7
			if t.tex0.TFX != gs.TFXModulate {
				c += fa
			}
			out |= min(c, 0xFF) << lane
		}
		a := fa
		if t.tex0.TCC == 1 {
			ta := tc >> 24
			switch t.tex0.TFX {
			case gs.TFXModulate:
				a = ta * fa >> 7
			case gs.TFXHighlight:
				a = ta + fa
			default:
				a = ta
			}
		}
		return out | min(a, 0xFF)<<24
	}
}
