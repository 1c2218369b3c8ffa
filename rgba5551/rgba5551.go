package rgba5551

import (
	"encoding/binary"
	"image"
	"image/color"
)

// Color is a PSMCT16 pixel.
type Color uint16

// New packs 5-bit channel values and the alpha bit into a Color.
func New(r, g, b uint8, a bool) Color {
	c := Color(r&0x1F) | Color(g&0x1F)<<5 | Color(b&0x1F)<<10
	if a {
		c |= 0x8000
	}
	return c
}

// R returns the 5-bit red channel.
func (c Color) R() uint8 { return uint8(c) & 0x1F }

// G returns the 5-bit green channel.
func (c Color) G() uint8 { return uint8(c>>5) & 0x1F }

// B returns the 5-bit blue channel.
func (c Color) B() uint8 { return uint8(c>>10) & 0x1F }

// A reports whether the alpha bit is set.
func (c Color) A() bool { return c&0x8000 != 0 }

// Grey reports whether all three color channels are equal.
func (c Color) Grey() bool { return c.R() == c.G() && c.G() == c.B() }

// RGBA implements color.Color. The alpha bit is a flag stored with the pixel,
// not coverage, so every pixel is reported opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	return expand(c.R()), expand(c.G()), expand(c.B()), 0xFFFF
}

// expand scales a 5-bit value to 16 bits by bit replication.
func expand(v uint8) uint32 {
	v8 := uint32(v)<<3 | uint32(v)>>2
	return v8 * 0x101
}

// toColor converts any color.Color to Color.
func toColor(c color.Color) color.Color {
	if v, ok := c.(Color); ok {
		return v
	}
	r, g, b, a := c.RGBA()
	// Truncate like the GS does when it narrows a PSMCT32 pixel.
	return New(uint8(r>>11), uint8(g>>11), uint8(b>>11), a >= 0x8000)
}

// Model converts colors to Color.
var Model = color.ModelFunc(toColor)

// Image is an in-memory image of PSMCT16 pixels, two bytes per pixel, little
// endian.
type Image struct {
	Pix    []byte          // Pixel data
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewImage returns an Image with the given bounds.
func NewImage(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Image{Rect: r}
	}
	return &Image{
		Pix:    make([]byte, 2*w*h),
		Stride: 2 * w,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *Image) ColorModel() color.Model {
	return Model
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
func (p *Image) At(x, y int) color.Color {
	return p.Color16At(x, y)
}

// Color16At returns the Color of the pixel at (x, y).
func (p *Image) Color16At(x, y int) Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0
	}
	i := p.pixOffset(x, y)
	return Color(binary.LittleEndian.Uint16(p.Pix[i:]))
}

// Set sets the color of the pixel at (x, y).
func (p *Image) Set(x, y int, c color.Color) {
	p.SetColor16(x, y, Model.Convert(c).(Color))
}

// SetColor16 sets the Color of the pixel at (x, y) without conversion.
func (p *Image) SetColor16(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.pixOffset(x, y)
	binary.LittleEndian.PutUint16(p.Pix[i:], uint16(c))
}

// SubImage returns the part of p visible through r. The returned image
// shares pixels with p.
func (p *Image) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &Image{}
	}
	i := p.pixOffset(r.Min.X, r.Min.Y)
	return &Image{
		Pix:    p.Pix[i:],
		Stride: p.Stride,
		Rect:   r,
	}
}

// Region returns a copy of the pixels inside r, packed without padding.
func (p *Image) Region(r image.Rectangle) []byte {
	r = r.Intersect(p.Rect)
	row := 2 * r.Dx()
	out := make([]byte, 0, row*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := p.pixOffset(r.Min.X, y)
		out = append(out, p.Pix[i:i+row]...)
	}
	return out
}

// pixOffset returns the byte offset of the pixel at (x, y).
func (p *Image) pixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}
