// Package gsgrey converts the frame buffer of a PlayStation 2 Graphics
// Synthesizer to greyscale in place, using nothing but the GS itself.
//
// The frame is PSMCT16; one 5-bit channel is copied into the others, 64x64
// pixels at a time.
//
// See the examples for how to use this package.
package gsgrey

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/gsgrey/channel"
	"periph.io/x/devices/v3/gsgrey/clut"
	"periph.io/x/devices/v3/gsgrey/convert"
	"periph.io/x/devices/v3/gsgrey/gs"
	"periph.io/x/devices/v3/gsgrey/packet"
	"periph.io/x/devices/v3/gsgrey/rgba5551"
)

// ErrHalted is returned by every operation after Halt.
var ErrHalted = errors.New("gsgrey: halted")

// TileSize is the width and height of the tiles the frame is processed in.
const TileSize = convert.TileSize

// Opts is the configuration for a Dev.
type Opts struct {
	// Frame dimensions in pixels
	W int // Width (default: 640, multiple of 64, at most 2048)
	H int // Height (default: 448, multiple of 64, at most 2048)

	// Channel replication
	Source  channel.Channel // Lane copied into the others (default: Red)
	Targets channel.Mask    // Lanes written (default: RGB; add Alpha to overwrite alpha)
}

// Waiter is implemented by connections whose Tx returns before the GS has
// finished executing the packet.
type Waiter interface {
	// WaitIdle blocks until every packet sent so far has executed.
	WaitIdle() error
}

// Dev is a handle to a GS frame buffer and the scratch memory the greyscale
// pass needs.
type Dev struct {
	// Communication
	c conn.Conn // GIF path
	w Waiter    // nil when Tx is synchronous
	b *packet.Builder

	// Local memory layout
	ctx    gs.Context
	alloc  gs.Allocator
	engine channel.Engine
	rect   image.Rectangle

	// Host copy of the frame for differential uploads
	next *rgba5551.Image
	last *rgba5551.Image // nil when the frame no longer matches the host copy

	// State
	halted bool
}

// New allocates a PSMCT16 frame buffer, a staging tile and the lookup table
// in local memory, sets up the drawing environment and clears the frame.
//
// opts can be nil to use defaults (640x448, red into RGB).
func New(c conn.Conn, opts *Opts) (*Dev, error) {
	// Apply defaults and validate options
	if opts == nil {
		opts = &Opts{W: 640, H: 448}
	}
	if opts.W <= 0 || opts.W%TileSize != 0 || opts.W > 2048 {
		return nil, errors.New("gsgrey: width must be a positive multiple of 64 up to 2048")
	}
	if opts.H <= 0 || opts.H%TileSize != 0 || opts.H > 2048 {
		return nil, errors.New("gsgrey: height must be a positive multiple of 64 up to 2048")
	}
	targets := opts.Targets
	if targets == 0 {
		targets = channel.RGB
	}
	engine := channel.Engine{Source: opts.Source, Targets: targets}
	if err := engine.Validate(); err != nil {
		return nil, fmt.Errorf("gsgrey: %w", err)
	}

	d := &Dev{
		c:      c,
		b:      packet.New(1024),
		engine: engine,
		rect:   image.Rect(0, 0, opts.W, opts.H),
	}
	if w, ok := c.(Waiter); ok {
		d.w = w
	}
	propagateLogger(c, Logger())

	// Lay out local memory: frame, CLUT, staging tile
	fb, err := d.alloc.Allocate(opts.W, opts.H, gs.PSMCT16, gs.AlignPage)
	if err != nil {
		return nil, fmt.Errorf("gsgrey: frame: %w", err)
	}
	lut, err := d.alloc.Allocate(clut.Size, clut.Size, gs.PSMCT32, gs.AlignBlock)
	if err != nil {
		return nil, fmt.Errorf("gsgrey: lookup table: %w", err)
	}
	staging, err := d.alloc.Allocate(TileSize, TileSize, gs.PSMCT32, gs.AlignPage)
	if err != nil {
		return nil, fmt.Errorf("gsgrey: staging: %w", err)
	}
	d.ctx = gs.Context{
		Frame:   gs.Surface{Base: fb, Width: uint32(opts.W / 64), PSM: gs.PSMCT16},
		Bounds:  d.rect,
		Staging: gs.Surface{Base: staging, Width: 1, PSM: gs.PSMCT32},
		CLUT:    lut,
	}
	if err := d.ctx.Validate(); err != nil {
		return nil, fmt.Errorf("gsgrey: %w", err)
	}

	// Initialize the drawing environment
	if err := d.init(); err != nil {
		return nil, err
	}
	Logger().Info("gsgrey: ready",
		"conn", c.String(),
		"frame", d.ctx.Frame.String(),
		"staging", d.ctx.Staging.String(),
		"clut", fmt.Sprintf("0x%05X", d.ctx.CLUT),
		"source", engine.Source.String(),
		"targets", engine.Targets.String())
	return d, nil
}

// init sends the environment setup, the clear and the lookup table.
func (d *Dev) init() error {
	frame := d.ctx.Frame
	b := d.b
	b.Reset()
	b.ADGroup(func(b *packet.Builder) {
		b.AD(gs.RegFRAME, gs.FRAME{FBP: frame.FBP(), FBW: frame.Width, PSM: frame.PSM}.Pack())
		b.AD(gs.RegZBUF, gs.ZBUF(0, 0, true)) // No depth writes
		b.AD(gs.RegXYOFFSET, gs.XYOFFSET(0, 0))
		b.AD(gs.RegSCISSOR, gs.SCISSOR{
			X1: uint16(d.rect.Dx() - 1),
			Y1: uint16(d.rect.Dy() - 1),
		}.Pack())
		b.AD(gs.RegPRMODECONT, 1) // Attributes from PRIM
		b.AD(gs.RegDTHE, 0)       // No dithering
		b.AD(gs.RegCOLCLAMP, 1)   // Clamp colors to 0-255
		b.AD(gs.RegTEST, gs.TEST(true, gs.ZTestAlways))
		b.AD(gs.RegTEXA, gs.DefaultTEXA.Pack())
		b.AD(gs.RegTEX1, gs.TEX1Nearest)
		b.AD(gs.RegCLAMP, gs.DefaultCLAMP.Pack())
	})

	// Clear the frame
	b.ADGroup(func(b *packet.Builder) {
		b.AD(gs.RegPRIM, gs.Prim(gs.PrimSprite, 0))
		b.AD(gs.RegRGBAQ, gs.RGBAQ(0, 0, 0, 0x80, 1))
		b.AD(gs.RegXYZ2, gs.XYZ{}.Pack())
		b.AD(gs.RegXYZ2, gs.XYZ{X: gs.Fixed(d.rect.Dx()), Y: gs.Fixed(d.rect.Dy())}.Pack())
	})

	clut.Upload(b, d.ctx.CLUT)
	return d.submit("setup", b.Bytes())
}

// submit sends packet p and waits until the GS has executed it.
func (d *Dev) submit(what string, p []byte) error {
	if l, ok := d.c.(conn.Limits); ok {
		if limit := l.MaxTxSize(); limit > 0 && len(p) > limit {
			return fmt.Errorf("gsgrey: %s: %d byte packet exceeds the %d byte limit of %s", what, len(p), limit, d.c)
		}
	}
	Logger().Debug("gsgrey: submit", "step", what, "bytes", len(p))
	if err := d.c.Tx(p, nil); err != nil {
		return fmt.Errorf("gsgrey: %s: %w", what, err)
	}
	if d.w != nil {
		if err := d.w.WaitIdle(); err != nil {
			return fmt.Errorf("gsgrey: %s: %w", what, err)
		}
	}
	return nil
}

// Greyscale converts the whole frame, one tile at a time in row order.
func (d *Dev) Greyscale() error {
	if d.halted {
		return ErrHalted
	}
	for y := d.rect.Min.Y; y < d.rect.Max.Y; y += TileSize {
		for x := d.rect.Min.X; x < d.rect.Max.X; x += TileSize {
			if err := d.GreyscaleTile(image.Pt(x, y)); err != nil {
				return err
			}
		}
	}
	return nil
}

// GreyscaleTile converts the 64x64 tile whose top left pixel is p. Pixels
// outside the tile are left untouched.
//
// The tile is widened into the staging surface, replicated there and
// narrowed back; each step is submitted and waited for before the next.
func (d *Dev) GreyscaleTile(p image.Point) error {
	if d.halted {
		return ErrHalted
	}
	if r := image.Rect(p.X, p.Y, p.X+TileSize, p.Y+TileSize); !r.In(d.rect) {
		return fmt.Errorf("gsgrey: tile %v outside %v", r, d.rect)
	}
	Logger().Debug("gsgrey: tile", "x", p.X, "y", p.Y)

	// The host copy no longer matches the frame
	d.last = nil

	b := d.b
	b.Reset()
	if err := convert.Widen(b, d.ctx, p); err != nil {
		return fmt.Errorf("gsgrey: %w", err)
	}
	if err := d.submit("widen", b.Bytes()); err != nil {
		return err
	}

	b.Reset()
	if err := d.engine.AppendTile(b, d.ctx); err != nil {
		return fmt.Errorf("gsgrey: %w", err)
	}
	if err := d.submit("replicate", b.Bytes()); err != nil {
		return err
	}

	b.Reset()
	if err := convert.Narrow(b, d.ctx, p); err != nil {
		return fmt.Errorf("gsgrey: %w", err)
	}
	return d.submit("narrow", b.Bytes())
}

// Context returns the local memory layout of the device.
func (d *Dev) Context() gs.Context {
	return d.ctx
}

// ColorModel returns the color model of the frame buffer.
func (d *Dev) ColorModel() color.Model {
	return rgba5551.Model
}

// Bounds returns the frame bounds.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Write uploads raw PSMCT16 pixels covering the whole frame, row major,
// little endian.
func (d *Dev) Write(pixels []byte) (int, error) {
	if d.halted {
		return 0, ErrHalted
	}
	if len(pixels) != 2*d.rect.Dx()*d.rect.Dy() {
		return 0, errors.New("gsgrey: invalid buffer size")
	}
	if err := d.writeRect(d.rect, pixels); err != nil {
		return 0, err
	}
	if d.next == nil {
		d.next = rgba5551.NewImage(d.rect)
	}
	copy(d.next.Pix, pixels)
	d.sync()
	return len(pixels), nil
}

// writeRect uploads pixels into rectangle r of the frame.
func (d *Dev) writeRect(r image.Rectangle, pixels []byte) error {
	b := d.b
	b.Reset()
	packet.Transfer(b, d.ctx.Frame, r, pixels)
	packet.TexFlush(b)
	return d.submit("upload", b.Bytes())
}

// Draw draws an image into the frame, uploading only the bounding rectangle
// of the pixels that changed since the last upload. After a greyscale pass
// the host copy is stale, so the whole of dst is uploaded and nothing
// outside it.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return ErrHalted
	}

	// Clip to frame bounds
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}

	// Lazy-initialize the host copy
	if d.next == nil {
		d.next = rgba5551.NewImage(d.rect)
	}

	// Fast path: source already in the frame format at full size
	if img, ok := src.(*rgba5551.Image); ok && dst == d.rect && sp == d.rect.Min && img.Rect == d.rect {
		copy(d.next.Pix, img.Pix)
		if err := d.writeRect(d.rect, d.next.Pix); err != nil {
			return err
		}
		d.sync()
		return nil
	}

	// Slow path: render into the host copy and upload the difference
	draw.Draw(d.next, dst, src, sp, draw.Src)
	if d.last == nil {
		if err := d.writeRect(dst, d.next.Region(dst)); err != nil {
			return err
		}
		// The frame matches the host copy only once all of it is rewritten
		if dst == d.rect {
			d.sync()
		}
		return nil
	}
	changed := d.calculateDiff()
	if changed.Empty() {
		return nil
	}
	if err := d.writeRect(changed, d.next.Region(changed)); err != nil {
		return err
	}
	d.sync()
	return nil
}

// sync records that the frame matches the host copy.
func (d *Dev) sync() {
	if d.last == nil {
		d.last = rgba5551.NewImage(d.rect)
	}
	copy(d.last.Pix, d.next.Pix)
}

// calculateDiff returns the smallest rectangle holding every pixel that
// differs between the host copy and the last upload. Without a valid last
// upload it returns the whole frame.
func (d *Dev) calculateDiff() image.Rectangle {
	if d.last == nil {
		return d.rect
	}
	w, h := d.rect.Dx(), d.rect.Dy()
	stride := d.next.Stride
	minX, maxX, minY, maxY := w, -1, h, -1

	// Scan row by row to find differences
	for y := 0; y < h; y++ {
		row := y * stride
		a, b := d.last.Pix[row:row+stride], d.next.Pix[row:row+stride]
		if bytes.Equal(a, b) {
			continue
		}
		minY = min(minY, y)
		maxY = y

		// Scan columns within this row for precise boundaries
		for x := 0; x < w; x++ {
			if a[2*x] != b[2*x] || a[2*x+1] != b[2*x+1] {
				minX = min(minX, x)
				maxX = max(maxX, x)
			}
		}
	}
	if maxY < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1).Add(d.rect.Min)
}

// Halt leaves the GS in its default drawing state: wrapping back to REPEAT
// and every channel of the frame writable. Further operations fail with
// ErrHalted.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	b := d.b
	b.Reset()
	channel.Restore(b, d.ctx)
	if err := d.submit("halt", b.Bytes()); err != nil {
		return err
	}
	d.halted = true
	return nil
}

var _ display.Drawer = (*Dev)(nil)

// String returns a description of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("gsgrey.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
