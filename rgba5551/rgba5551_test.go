package rgba5551

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func TestColorChannels(t *testing.T) {
	tests := []struct {
		name    string
		c       Color
		r, g, b uint8
		a       bool
	}{
		{"zero", 0, 0, 0, 0, false},
		{"red", 0x001F, 31, 0, 0, false},
		{"green", 0x03E0, 0, 31, 0, false},
		{"blue", 0x7C00, 0, 0, 31, false},
		{"alpha", 0x8000, 0, 0, 0, true},
		{"mixed", New(1, 2, 3, true), 1, 2, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.c.R() != tt.r || tt.c.G() != tt.g || tt.c.B() != tt.b || tt.c.A() != tt.a {
				t.Errorf("%#04x = (%d, %d, %d, %v), want (%d, %d, %d, %v)",
					uint16(tt.c), tt.c.R(), tt.c.G(), tt.c.B(), tt.c.A(), tt.r, tt.g, tt.b, tt.a)
			}
		})
	}
}

func TestColorRGBA(t *testing.T) {
	r, g, b, a := New(31, 16, 0, false).RGBA()
	if r != 0xFFFF || g != 0x8484 || b != 0 || a != 0xFFFF {
		t.Errorf("RGBA() = (%x, %x, %x, %x)", r, g, b, a)
	}
}

func TestModelConvert(t *testing.T) {
	tests := []struct {
		name  string
		input color.Color
		want  Color
	}{
		{"passthrough", New(3, 4, 5, true), New(3, 4, 5, true)},
		{"black", color.Black, New(0, 0, 0, true)},
		{"white", color.White, New(31, 31, 31, true)},
		{"transparent", color.Transparent, New(0, 0, 0, false)},
		{"truncates", color.RGBA{0x0F, 0x10, 0xFF, 0xFF}, New(1, 2, 31, true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Model.Convert(tt.input).(Color); got != tt.want {
				t.Errorf("Convert(%v) = %#04x, want %#04x", tt.input, uint16(got), uint16(tt.want))
			}
		})
	}
}

func TestImageLayout(t *testing.T) {
	img := NewImage(image.Rect(0, 0, 2, 2))
	img.SetColor16(1, 0, 0xABCD)
	img.SetColor16(0, 1, 0x1234)

	want := []byte{0, 0, 0xCD, 0xAB, 0x34, 0x12, 0, 0}
	if !bytes.Equal(img.Pix, want) {
		t.Errorf("Pix = % x, want % x", img.Pix, want)
	}
	if img.Stride != 4 {
		t.Errorf("Stride = %d, want 4", img.Stride)
	}
	if got := img.Color16At(1, 0); got != 0xABCD {
		t.Errorf("Color16At(1, 0) = %#04x", uint16(got))
	}
	if got := img.Color16At(5, 5); got != 0 {
		t.Errorf("out of bounds Color16At = %#04x, want 0", uint16(got))
	}
}

func TestImageOffsetRect(t *testing.T) {
	img := NewImage(image.Rect(10, 20, 14, 22))
	img.SetColor16(13, 21, 0x7FFF)
	if got := img.Color16At(13, 21); got != 0x7FFF {
		t.Errorf("Color16At(13, 21) = %#04x", uint16(got))
	}
	if i := img.pixOffset(13, 21); i != 14 {
		t.Errorf("pixOffset(13, 21) = %d, want 14", i)
	}
}

func TestImageDraw(t *testing.T) {
	img := NewImage(image.Rect(0, 0, 8, 4))
	draw.Draw(img, image.Rect(2, 1, 6, 3), image.NewUniform(color.RGBA{0xFF, 0, 0, 0xFF}), image.Point{}, draw.Src)

	red := New(31, 0, 0, true)
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			in := image.Pt(x, y).In(image.Rect(2, 1, 6, 3))
			if got := img.Color16At(x, y); (got == red) != in {
				t.Errorf("(%d,%d) = %#04x, inside = %v", x, y, uint16(got), in)
			}
		}
	}
}

func TestRegion(t *testing.T) {
	img := NewImage(image.Rect(0, 0, 4, 4))
	img.SetColor16(1, 1, 0x1111)
	img.SetColor16(2, 2, 0x2222)

	got := img.Region(image.Rect(1, 1, 3, 3))
	want := []byte{0x11, 0x11, 0, 0, 0, 0, 0x22, 0x22}
	if !bytes.Equal(got, want) {
		t.Errorf("Region() = % x, want % x", got, want)
	}

	sub := img.SubImage(image.Rect(2, 2, 4, 4)).(*Image)
	if c := sub.Color16At(2, 2); c != 0x2222 {
		t.Errorf("SubImage Color16At(2, 2) = %#04x", uint16(c))
	}
}
