package gssim

import (
	"errors"
	"image"
	"testing"

	"periph.io/x/devices/v3/gsgrey/clut"
	"periph.io/x/devices/v3/gsgrey/gs"
	"periph.io/x/devices/v3/gsgrey/packet"
	"periph.io/x/devices/v3/gsgrey/rgba5551"
)

func checkPermutation(t *testing.T, name string, vals []uint32) {
	t.Helper()
	seen := make([]bool, len(vals))
	for _, v := range vals {
		if int(v) >= len(vals) || seen[v] {
			t.Errorf("%s: %d repeated or out of range", name, v)
			return
		}
		seen[v] = true
	}
}

func TestSwizzleTables(t *testing.T) {
	var vals []uint32
	for _, row := range blockTable32 {
		vals = append(vals, row[:]...)
	}
	checkPermutation(t, "blockTable32", vals)

	vals = vals[:0]
	for _, row := range columnTable32 {
		vals = append(vals, row[:]...)
	}
	checkPermutation(t, "columnTable32", vals)

	vals = vals[:0]
	for _, row := range blockTable16 {
		vals = append(vals, row[:]...)
	}
	checkPermutation(t, "blockTable16", vals)

	vals = vals[:0]
	for _, row := range columnTable16 {
		vals = append(vals, row[:]...)
	}
	checkPermutation(t, "columnTable16", vals)

	vals = vals[:0]
	for _, row := range columnTable8 {
		vals = append(vals, row[:]...)
	}
	checkPermutation(t, "columnTable8", vals)
}

// Every format packs one page into the same 8 KiB without overlap.
func TestPageCoverage(t *testing.T) {
	tests := []struct {
		psm  gs.PSM
		bw   uint32
		addr func(bp, bw uint32, x, y int) uint32
	}{
		{gs.PSMCT32, 1, addr32},
		{gs.PSMCT16, 1, addr16},
		{gs.PSMT8, 2, addr8},
	}
	for _, tt := range tests {
		t.Run(tt.psm.String(), func(t *testing.T) {
			w, h := tt.psm.PageSize()
			size := uint32(tt.psm.BitsPerPixel() / 8)
			seen := make(map[uint32]bool)
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					a := tt.addr(gs.BlocksPerPage, tt.bw, x, y)
					if a < gs.WordsPerPage*4 || a >= 2*gs.WordsPerPage*4 || a%size != 0 {
						t.Fatalf("(%d,%d) maps to %#x outside page 1", x, y, a)
					}
					if seen[a] {
						t.Fatalf("(%d,%d) maps to %#x twice", x, y, a)
					}
					seen[a] = true
				}
			}
		})
	}
}

func TestAddressWraps(t *testing.T) {
	if a := addr32(gs.MemoryWords/gs.WordsPerBlock, 1, 0, 0); a != 0 {
		t.Errorf("addr32 past the end = %#x, want 0", a)
	}
}

func TestTransfer(t *testing.T) {
	s := New(nil)
	dst := gs.Surface{Base: 4 * gs.WordsPerPage, Width: 1, PSM: gs.PSMCT32}

	b := packet.New(0)
	clut.Upload(b, dst.Base)
	if err := s.Tx(b.Bytes(), nil); err != nil {
		t.Fatal(err)
	}

	table := clut.Table()
	for slot, want := range table {
		if got := s.Pixel(dst, slot%16, slot/16); got != want {
			t.Fatalf("slot %d = %#08x, want %#08x", slot, got, want)
		}
	}
}

func TestImageWithoutTransfer(t *testing.T) {
	s := New(nil)
	b := packet.New(0)
	b.Image(make([]byte, 16))
	if err := s.Tx(b.Bytes(), nil); !errors.Is(err, ErrMalformed) {
		t.Errorf("Tx() = %v, want ErrMalformed", err)
	}
}

func TestTruncatedPacket(t *testing.T) {
	s := New(nil)
	b := packet.New(0)
	packet.TexFlush(b)
	p := b.Bytes()
	if err := s.Tx(p[:packet.QwordSize], nil); !errors.Is(err, ErrMalformed) {
		t.Errorf("Tx(truncated) = %v, want ErrMalformed", err)
	}
	if err := s.Tx(p[:7], nil); !errors.Is(err, ErrMalformed) {
		t.Errorf("Tx(7 bytes) = %v, want ErrMalformed", err)
	}
	if err := s.Tx(p, make([]byte, 4)); err == nil {
		t.Error("Tx with a read buffer should fail")
	}
}

func flatSprite(b *packet.Builder, f gs.FRAME, r image.Rectangle, c uint64) {
	b.ADGroup(func(b *packet.Builder) {
		b.AD(gs.RegFRAME, f.Pack())
		b.AD(gs.RegPRIM, gs.Prim(gs.PrimSprite, 0))
		b.AD(gs.RegRGBAQ, c)
		b.AD(gs.RegXYZ2, gs.XYZ{X: gs.Fixed(r.Min.X), Y: gs.Fixed(r.Min.Y)}.Pack())
		b.AD(gs.RegXYZ2, gs.XYZ{X: gs.Fixed(r.Max.X), Y: gs.Fixed(r.Max.Y)}.Pack())
	})
}

func TestFlatSprite(t *testing.T) {
	s := New(nil)
	fb := gs.Surface{Width: 2, PSM: gs.PSMCT32}
	f := gs.FRAME{FBW: 2, PSM: gs.PSMCT32}

	b := packet.New(0)
	flatSprite(b, f, image.Rect(10, 5, 70, 40), gs.RGBAQ(1, 2, 3, 4, 1))
	f.FBMSK = 0x0000FF00
	flatSprite(b, f, image.Rect(0, 0, 128, 64), gs.RGBAQ(0xAA, 0xBB, 0xCC, 0xDD, 1))
	if err := s.Tx(b.Bytes(), nil); err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		x, y int
		want uint32
	}{
		{10, 5, 0xDDCC02AA},
		{69, 39, 0xDDCC02AA},
		{70, 39, 0xDDCC00AA},
		{9, 5, 0xDDCC00AA},
		{127, 63, 0xDDCC00AA},
	} {
		if got := s.Pixel(fb, tt.x, tt.y); got != tt.want {
			t.Errorf("(%d,%d) = %#08x, want %#08x", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestScissor(t *testing.T) {
	s := New(nil)
	fb := gs.Surface{Width: 1, PSM: gs.PSMCT32}
	b := packet.New(0)
	b.ADGroup(func(b *packet.Builder) {
		b.AD(gs.RegSCISSOR, gs.SCISSOR{X0: 4, X1: 7, Y0: 0, Y1: 0}.Pack())
	})
	flatSprite(b, gs.FRAME{FBW: 1}, image.Rect(0, 0, 64, 32), gs.RGBAQ(0xFF, 0, 0, 0, 1))
	if err := s.Tx(b.Bytes(), nil); err != nil {
		t.Fatal(err)
	}
	for x := 0; x < 10; x++ {
		want := uint32(0)
		if x >= 4 && x <= 7 {
			want = 0xFF
		}
		if got := s.Pixel(fb, x, 0); got != want {
			t.Errorf("(%d,0) = %#x, want %#x", x, got, want)
		}
	}
	if got := s.Pixel(fb, 5, 1); got != 0 {
		t.Errorf("(5,1) = %#x outside the scissor", got)
	}
}

// A PSMCT16 texture drawn into a PSMCT32 frame and back reproduces the
// 16-bit pixels.
func TestTexturedCopy(t *testing.T) {
	s := New(nil)
	src := gs.Surface{Width: 1, PSM: gs.PSMCT16}
	dst := gs.Surface{Base: 2 * gs.WordsPerPage, Width: 1, PSM: gs.PSMCT32}

	img := rgba5551.NewImage(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetColor16(x, y, rgba5551.Color(x*64+y*1021))
		}
	}
	b := packet.New(0)
	packet.Transfer(b, src, img.Rect, img.Pix)
	packet.TexFlush(b)
	copyPage(b, src, 0, dst.Base)
	copyPage(b, src, 32, dst.Base+gs.WordsPerPage)
	if err := s.Tx(b.Bytes(), nil); err != nil {
		t.Fatal(err)
	}

	c := img.Color16At(3, 40)
	want := uint32(c.R())<<3 | uint32(c.G())<<11 | uint32(c.B())<<19
	if c.A() {
		want |= 0x80 << 24
	}
	if got := s.Pixel(dst, 3, 40); got != want {
		t.Errorf("(3,40) = %#08x, want %#08x", got, want)
	}
}

// copyPage draws 64x32 texels of src starting at row y into the PSMCT32
// page at base, with UV coordinates.
func copyPage(b *packet.Builder, src gs.Surface, y int, base uint32) {
	b.ADGroup(func(b *packet.Builder) {
		b.AD(gs.RegFRAME, gs.FRAME{FBP: base / gs.WordsPerPage, FBW: 1, PSM: gs.PSMCT32}.Pack())
		b.AD(gs.RegTEX0, gs.TEX0{TBP0: src.TBP(), TBW: 1, PSM: src.PSM, TW: 6, TH: 6, TCC: 1, TFX: gs.TFXDecal}.Pack())
		b.AD(gs.RegPRIM, gs.Prim(gs.PrimSprite, gs.PrimTME|gs.PrimFST))
		b.AD(gs.RegUV, gs.UV{U: gs.TexelCenter(0), V: gs.TexelCenter(y)}.Pack())
		b.AD(gs.RegXYZ2, gs.XYZ{}.Pack())
		b.AD(gs.RegUV, gs.UV{U: gs.TexelCenter(64), V: gs.TexelCenter(y + 32)}.Pack())
		b.AD(gs.RegXYZ2, gs.XYZ{X: gs.Fixed(64), Y: gs.Fixed(32)}.Pack())
	})
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name   string
		c      int
		mode   uint8
		lo, hi uint16
		want   int
	}{
		{"repeat", 70, gs.WrapRepeat, 0, 0, 6},
		{"clamp low", -3, gs.WrapClamp, 0, 0, 0},
		{"clamp high", 90, gs.WrapClamp, 0, 0, 63},
		{"region clamp", 3, gs.WrapRegionClamp, 8, 15, 8},
		{"region repeat", 0x1F, gs.WrapRegionRepeat, 0xF7, 8, 0x1F},
		{"region repeat sets", 0x13, gs.WrapRegionRepeat, 0xF7, 8, 0x1B},
		{"region repeat clears", 0x0B, gs.WrapRegionRepeat, 0xFD, 0, 0x09},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrap(tt.c, 64, tt.mode, tt.lo, tt.hi); got != tt.want {
				t.Errorf("wrap(%d) = %d, want %d", tt.c, got, tt.want)
			}
		})
	}
}

func TestNarrowWiden(t *testing.T) {
	texa := gs.DefaultTEXA
	for _, c := range []uint16{0, 0x7FFF, 0x8000, 0xFFFF, 0x1234, 0xABCD} {
		if got := narrow(widen(c, texa)); got != c {
			t.Errorf("narrow(widen(%#04x)) = %#04x", c, got)
		}
	}
	if m := narrow(0xFFFFFF00); m != 0xFFE0 {
		t.Errorf("narrow mask = %#04x, want 0xFFE0", m)
	}
}

func TestCLUTLookup(t *testing.T) {
	s := New(nil)
	page := gs.Surface{Base: 8 * gs.WordsPerPage, Width: 1, PSM: gs.PSMCT32}
	lut := uint32(20 * gs.WordsPerPage)
	out := gs.Surface{Base: 10 * gs.WordsPerPage, Width: 2, PSM: gs.PSMCT32}

	b := packet.New(0)
	clut.Upload(b, lut)
	px := make([]byte, 128*64)
	for i := range px {
		px[i] = uint8(i * 7)
	}
	packet.Transfer(b, gs.Surface{Base: page.Base, Width: 2, PSM: gs.PSMT8}, image.Rect(0, 0, 128, 64), px)
	packet.TexFlush(b)
	b.ADGroup(func(b *packet.Builder) {
		b.AD(gs.RegFRAME, gs.FRAME{FBP: out.FBP(), FBW: 2, PSM: gs.PSMCT32}.Pack())
		b.AD(gs.RegTEX0, gs.TEX0{
			TBP0: page.TBP(), TBW: 2, PSM: gs.PSMT8, TW: 7, TH: 6, TCC: 1, TFX: gs.TFXDecal,
			CBP: lut / gs.WordsPerBlock, CPSM: gs.PSMCT32, CLD: 1,
		}.Pack())
		b.AD(gs.RegPRIM, gs.Prim(gs.PrimSprite, gs.PrimTME|gs.PrimFST))
		b.AD(gs.RegUV, gs.UV{U: gs.TexelCenter(0), V: gs.TexelCenter(0)}.Pack())
		b.AD(gs.RegXYZ2, gs.XYZ{}.Pack())
		b.AD(gs.RegUV, gs.UV{U: gs.TexelCenter(128), V: gs.TexelCenter(64)}.Pack())
		b.AD(gs.RegXYZ2, gs.XYZ{X: gs.Fixed(128), Y: gs.Fixed(64)}.Pack())
	})
	if err := s.Tx(b.Bytes(), nil); err != nil {
		t.Fatal(err)
	}

	for _, p := range []image.Point{{0, 0}, {5, 1}, {100, 33}, {127, 63}} {
		idx := px[p.Y*128+p.X]
		if got := s.Pixel(out, p.X, p.Y); got != clut.Broadcast(idx) {
			t.Errorf("%v = %#08x, want %#08x", p, got, clut.Broadcast(idx))
		}
	}
}

func TestAsync(t *testing.T) {
	s := New(&Opts{Async: true, Queue: 2})
	defer s.Close()

	fb := gs.Surface{Width: 1, PSM: gs.PSMCT32}
	for i := 0; i < 5; i++ {
		b := packet.New(0)
		flatSprite(b, gs.FRAME{FBW: 1}, image.Rect(0, 0, 8, 8), gs.RGBAQ(uint8(i), 0, 0, 0, 1))
		if err := s.Tx(b.Bytes(), nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.WaitIdle(); err != nil {
		t.Fatal(err)
	}
	if got := s.Pixel(fb, 7, 7); got != 4 {
		t.Errorf("pixel = %d, want 4", got)
	}
	if s.Packets() != 5 {
		t.Errorf("Packets() = %d, want 5", s.Packets())
	}

	b := packet.New(0)
	b.Image(make([]byte, 16))
	if err := s.Tx(b.Bytes(), nil); err != nil {
		t.Fatalf("queued Tx() = %v", err)
	}
	if err := s.WaitIdle(); !errors.Is(err, ErrMalformed) {
		t.Errorf("WaitIdle() = %v, want ErrMalformed", err)
	}
	if err := s.WaitIdle(); err != nil {
		t.Errorf("second WaitIdle() = %v, want nil", err)
	}

	s.Close()
	if err := s.Tx(b.Bytes(), nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Tx after Close = %v, want ErrClosed", err)
	}
	if s.Packets() != 6 {
		t.Errorf("Packets() after a refused Tx = %d, want 6", s.Packets())
	}
}

func TestClosedSync(t *testing.T) {
	s := New(nil)
	b := packet.New(0)
	packet.TexFlush(b)
	if err := s.Tx(b.Bytes(), nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Tx(b.Bytes(), nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Tx after Close = %v, want ErrClosed", err)
	}
	if s.Packets() != 1 {
		t.Errorf("Packets() = %d, want 1", s.Packets())
	}
}

func TestImageReadback(t *testing.T) {
	s := New(nil)
	fb := gs.Surface{Width: 1, PSM: gs.PSMCT16}
	s.SetPixel(fb, 2, 3, 0x801F)
	img, err := s.Image(fb, image.Rect(0, 0, 4, 4))
	if err != nil {
		t.Fatal(err)
	}
	if c := img.(*rgba5551.Image).Color16At(2, 3); c != 0x801F {
		t.Errorf("Color16At(2, 3) = %#04x", uint16(c))
	}
	if _, err := s.Image(gs.Surface{PSM: 0x3F}, image.Rect(0, 0, 1, 1)); err == nil {
		t.Error("unsupported format should fail")
	}
}
