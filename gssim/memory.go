package gssim

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"periph.io/x/devices/v3/gsgrey/gs"
	"periph.io/x/devices/v3/gsgrey/rgba5551"
)

func (s *Sim) read32(bp, bw uint32, x, y int) uint32 {
	return binary.LittleEndian.Uint32(s.mem[addr32(bp, bw, x, y):])
}

func (s *Sim) write32(bp, bw uint32, x, y int, v, mask uint32) {
	a := addr32(bp, bw, x, y)
	old := binary.LittleEndian.Uint32(s.mem[a:])
	binary.LittleEndian.PutUint32(s.mem[a:], old&mask|v&^mask)
}

func (s *Sim) read16(bp, bw uint32, x, y int) uint16 {
	return binary.LittleEndian.Uint16(s.mem[addr16(bp, bw, x, y):])
}

func (s *Sim) write16(bp, bw uint32, x, y int, v, mask uint16) {
	a := addr16(bp, bw, x, y)
	old := binary.LittleEndian.Uint16(s.mem[a:])
	binary.LittleEndian.PutUint16(s.mem[a:], old&mask|v&^mask)
}

func (s *Sim) read8(bp, bw uint32, x, y int) uint8 {
	return s.mem[addr8(bp, bw, x, y)]
}

func (s *Sim) write8(bp, bw uint32, x, y int, v uint8) {
	s.mem[addr8(bp, bw, x, y)] = v
}

// readPixel returns the raw pixel at (x, y) of a buffer in format psm.
func (s *Sim) readPixel(bp, bw uint32, psm gs.PSM, x, y int) uint32 {
	switch psm {
	case gs.PSMCT16:
		return uint32(s.read16(bp, bw, x, y))
	case gs.PSMT8:
		return uint32(s.read8(bp, bw, x, y))
	default:
		return s.read32(bp, bw, x, y)
	}
}

// writePixel stores a raw pixel, unmasked.
func (s *Sim) writePixel(bp, bw uint32, psm gs.PSM, x, y int, v uint32) {
	switch psm {
	case gs.PSMCT16:
		s.write16(bp, bw, x, y, uint16(v), 0)
	case gs.PSMT8:
		s.write8(bp, bw, x, y, uint8(v))
	default:
		s.write32(bp, bw, x, y, v, 0)
	}
}

// Pixel returns the raw pixel at (x, y) of surface sf: a PSMCT32 color, a
// PSMCT16 color in the low 16 bits or a PSMT8 index.
func (s *Sim) Pixel(sf gs.Surface, x, y int) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readPixel(sf.TBP(), sf.Width, sf.PSM, x, y)
}

// SetPixel stores a raw pixel at (x, y) of surface sf.
func (s *Sim) SetPixel(sf gs.Surface, x, y int, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writePixel(sf.TBP(), sf.Width, sf.PSM, x, y, v)
}

// Image returns a copy of rectangle r of surface sf: an *rgba5551.Image for
// PSMCT16, an *image.NRGBA for PSMCT32 and an *image.Gray for PSMT8.
func (s *Sim) Image(sf gs.Surface, r image.Rectangle) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp, bw := sf.TBP(), sf.Width
	switch sf.PSM {
	case gs.PSMCT16:
		img := rgba5551.NewImage(r)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.SetColor16(x, y, rgba5551.Color(s.read16(bp, bw, x, y)))
			}
		}
		return img, nil
	case gs.PSMCT32:
		img := image.NewNRGBA(r)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				v := s.read32(bp, bw, x, y)
				img.SetNRGBA(x, y, color.NRGBA{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16), A: uint8(v >> 24)})
			}
		}
		return img, nil
	case gs.PSMT8:
		img := image.NewGray(r)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.SetGray(x, y, color.Gray{Y: s.read8(bp, bw, x, y)})
			}
		}
		return img, nil
	default:
		return nil, fmt.Errorf("gssim: unsupported pixel format %s", sf.PSM)
	}
}

// transfer is the state of a host-local transfer in progress.
type transfer struct {
	active bool
	bp, bw uint32
	psm    gs.PSM
	x0, y0 int
	w, h   int
	x, y   int // next pixel, relative to (x0, y0)
}

// startTransfer runs TRXDIR. Host to local transfers consume the following
// IMAGE data; local to local transfers complete immediately.
func (s *Sim) startTransfer(dir uint64) {
	buf := gs.UnpackBITBLTBUF(s.reg[gs.RegBITBLTBUF])
	pos := gs.UnpackTRXPOS(s.reg[gs.RegTRXPOS])
	w, h := gs.UnpackTRXREG(s.reg[gs.RegTRXREG])
	switch dir {
	case gs.XDirHostToLocal:
		s.xfer = transfer{
			active: w > 0 && h > 0,
			bp:     buf.DBP,
			bw:     buf.DBW,
			psm:    buf.DPSM,
			x0:     int(pos.DSAX),
			y0:     int(pos.DSAY),
			w:      w,
			h:      h,
		}
	case gs.XDirLocalToLocal:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := s.readPixel(buf.SBP, buf.SBW, buf.SPSM, int(pos.SSAX)+x, int(pos.SSAY)+y)
				s.writePixel(buf.DBP, buf.DBW, buf.DPSM, int(pos.DSAX)+x, int(pos.DSAY)+y, v)
			}
		}
	case gs.XDirLocalToHost:
		s.logger().Warn("gssim: local to host transfer ignored")
	}
}

// image feeds IMAGE data to the active transfer. Data past the end of the
// transfer is padding.
func (s *Sim) image(p []byte) error {
	t := &s.xfer
	if !t.active {
		return fmt.Errorf("%w: IMAGE data without a host to local transfer", ErrMalformed)
	}
	size := t.psm.BitsPerPixel() / 8
	for len(p) >= size && t.active {
		var v uint32
		switch size {
		case 4:
			v = binary.LittleEndian.Uint32(p)
		case 2:
			v = uint32(binary.LittleEndian.Uint16(p))
		default:
			v = uint32(p[0])
		}
		p = p[size:]
		s.writePixel(t.bp, t.bw, t.psm, t.x0+t.x, t.y0+t.y, v)
		if t.x++; t.x == t.w {
			t.x = 0
			if t.y++; t.y == t.h {
				t.active = false
			}
		}
	}
	return nil
}
