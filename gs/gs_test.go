package gs

import (
	"errors"
	"testing"
)

func TestPageSize(t *testing.T) {
	tests := []struct {
		psm  PSM
		w, h int
	}{
		{PSMCT32, 64, 32},
		{PSMCT16, 64, 64},
		{PSMT8, 128, 64},
	}

	for _, tt := range tests {
		t.Run(tt.psm.String(), func(t *testing.T) {
			w, h := tt.psm.PageSize()
			if w != tt.w || h != tt.h {
				t.Errorf("PageSize() = %dx%d, want %dx%d", w, h, tt.w, tt.h)
			}
			// Every page is 8 KiB whatever the format.
			if bytes := w * h * tt.psm.BitsPerPixel() / 8; bytes != WordsPerPage*4 {
				t.Errorf("page holds %d bytes, want %d", bytes, WordsPerPage*4)
			}
		})
	}
}

func TestLog2(t *testing.T) {
	for n, want := range map[int]uint8{1: 0, 2: 1, 32: 5, 64: 6, 1024: 10} {
		if got := Log2(n); got != want {
			t.Errorf("Log2(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestTEX0Pack(t *testing.T) {
	// Values taken from the replication pass: PSMT8 view of page 150 with the
	// CLUT right behind a 640x448 PSMCT16 frame.
	r := TEX0{
		TBP0: 150 * BlocksPerPage,
		TBW:  2,
		PSM:  PSMT8,
		TW:   10,
		TH:   10,
		TCC:  1,
		TFX:  TFXDecal,
		CBP:  2240,
		CPSM: PSMCT32,
		CLD:  1,
	}
	v := r.Pack()
	if got := v & 0x3FFF; got != 4800 {
		t.Errorf("TBP0 bits = %d, want 4800", got)
	}
	if got := PSM(v>>20) & 0x3F; got != PSMT8 {
		t.Errorf("PSM bits = %s, want PSMT8", got)
	}
	if got := (v >> 61) & 7; got != 1 {
		t.Errorf("CLD bits = %d, want 1", got)
	}
	if back := UnpackTEX0(v); back != r {
		t.Errorf("UnpackTEX0(Pack()) = %+v, want %+v", back, r)
	}
}

func TestCLAMPPack(t *testing.T) {
	r := CLAMP{WMS: WrapRegionRepeat, WMT: WrapRegionRepeat, MinU: 0xF7, MaxU: 8, MinV: 0xFD, MaxV: 2}
	want := uint64(3) | 3<<2 | 0xF7<<4 | 8<<14 | 0xFD<<24 | 2<<34
	if got := r.Pack(); got != want {
		t.Errorf("Pack() = %#x, want %#x", got, want)
	}
	if back := UnpackCLAMP(want); back != r {
		t.Errorf("UnpackCLAMP() = %+v, want %+v", back, r)
	}
}

func TestFRAMEPack(t *testing.T) {
	r := FRAME{FBP: 150, FBW: 1, PSM: PSMCT32, FBMSK: 0xFF000000}
	v := r.Pack()
	if uint32(v>>32) != 0xFF000000 {
		t.Errorf("FBMSK bits = %#x, want 0xFF000000", uint32(v>>32))
	}
	if back := UnpackFRAME(v); back != r {
		t.Errorf("UnpackFRAME() = %+v, want %+v", back, r)
	}
}

func TestVertexPacking(t *testing.T) {
	if got := TexelCenter(8); got != 8<<4+8 {
		t.Errorf("TexelCenter(8) = %d, want %d", got, 8<<4+8)
	}
	if got := (UV{U: 0x3FFF, V: 1}).Pack(); got != 0x3FFF|1<<16 {
		t.Errorf("UV.Pack() = %#x", got)
	}
	if got := (XYZ{X: Fixed(64), Y: Fixed(32), Z: 1}).Pack(); got != 1024|512<<16|1<<32 {
		t.Errorf("XYZ.Pack() = %#x", got)
	}
	if got := Prim(PrimSprite, PrimTME|PrimFST); got != 6|1<<4|1<<8 {
		t.Errorf("Prim() = %#x", got)
	}
}

func TestSurfacePage(t *testing.T) {
	fb := Surface{Base: 0, Width: 10, PSM: PSMCT16}

	tests := []struct {
		name    string
		s       Surface
		x, y    int
		want    uint32
		wantErr bool
	}{
		{"origin", fb, 0, 0, 0, false},
		{"second tile", fb, 64, 0, WordsPerPage, false},
		{"second row", fb, 128, 64, 12 * WordsPerPage, false},
		{"unaligned", fb, 32, 0, 0, true},
		{"ct32 lower half", Surface{Base: 4 * WordsPerPage, Width: 1, PSM: PSMCT32}, 0, 32, 5 * WordsPerPage, false},
		{"ct32 half page", Surface{Width: 1, PSM: PSMCT32}, 0, 16, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.s.Page(tt.x, tt.y)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Page() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrUnaligned) {
					t.Errorf("Page() error = %v, want ErrUnaligned", err)
				}
				return
			}
			if p.Base != tt.want {
				t.Errorf("Page().Base = %#x, want %#x", p.Base, tt.want)
			}
		})
	}
}

func TestContextValidate(t *testing.T) {
	good := Context{
		Frame:   Surface{Base: 0, Width: 10, PSM: PSMCT16},
		Staging: Surface{Base: 70 * WordsPerPage, Width: 1, PSM: PSMCT32},
		CLUT:    72 * WordsPerPage,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	bad := good
	bad.CLUT += 3
	if err := bad.Validate(); !errors.Is(err, ErrUnaligned) {
		t.Errorf("misaligned CLUT: Validate() = %v, want ErrUnaligned", err)
	}

	bad = good
	bad.Staging.Base += WordsPerBlock
	if err := bad.Validate(); !errors.Is(err, ErrUnaligned) {
		t.Errorf("misaligned staging: Validate() = %v, want ErrUnaligned", err)
	}

	bad = good
	bad.Frame.PSM = PSMCT32
	if err := bad.Validate(); err == nil {
		t.Error("PSMCT32 frame: Validate() = nil, want error")
	}
}

func TestAllocator(t *testing.T) {
	var a Allocator

	fb, err := a.Allocate(640, 448, PSMCT16, AlignPage)
	if err != nil {
		t.Fatal(err)
	}
	if fb != 0 {
		t.Errorf("frame at %#x, want 0", fb)
	}
	if a.Used() != 70*WordsPerPage {
		t.Errorf("Used() = %d pages, want 70", a.Used()/WordsPerPage)
	}

	clut, err := a.Allocate(16, 16, PSMCT32, AlignBlock)
	if err != nil {
		t.Fatal(err)
	}
	if clut%WordsPerBlock != 0 || clut != 70*WordsPerPage {
		t.Errorf("CLUT at %#x, want %#x", clut, 70*WordsPerPage)
	}

	staging, err := a.Allocate(64, 64, PSMCT32, AlignPage)
	if err != nil {
		t.Fatal(err)
	}
	if staging != 71*WordsPerPage {
		t.Errorf("staging at %#x, want page 71", staging)
	}

	if _, err := a.Allocate(2048, 2048, PSMCT32, AlignPage); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("oversized allocation error = %v, want ErrOutOfMemory", err)
	}
	if _, err := a.Allocate(0, 16, PSMCT32, AlignPage); err == nil {
		t.Error("zero width allocation should fail")
	}
}
