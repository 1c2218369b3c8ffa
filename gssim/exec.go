package gssim

import (
	"encoding/binary"
	"fmt"
	"math"

	"periph.io/x/devices/v3/gsgrey/gs"
	"periph.io/x/devices/v3/gsgrey/packet"
)

// exec runs every group of packet p. The caller holds s.mu.
func (s *Sim) exec(p []byte) error {
	log := s.logger()
	log.Debug("gssim: packet", "qwords", len(p)/packet.QwordSize)
	for len(p) > 0 {
		tag := packet.ParseTag(qword(p))
		p = p[packet.QwordSize:]
		n := tag.Qwords()
		if n*packet.QwordSize > len(p) {
			return fmt.Errorf("%w: tag declares %d quadwords, %d left", ErrMalformed, n, len(p)/packet.QwordSize)
		}
		data := p[:n*packet.QwordSize]
		p = p[n*packet.QwordSize:]

		if tag.PRE {
			s.write(gs.RegPRIM, tag.Prim)
		}
		switch tag.Flag {
		case packet.Packed:
			for i := 0; i < n; i++ {
				lo, hi := qword(data[i*packet.QwordSize:])
				s.packed(tag.Regs[i%len(tag.Regs)], lo, hi)
			}
		case packet.RegList:
			for i := 0; i < tag.NLoop*len(tag.Regs); i++ {
				v := binary.LittleEndian.Uint64(data[i*8:])
				if d := tag.Regs[i%len(tag.Regs)]; d < packet.DescAD {
					s.write(gs.Reg(d), v)
				}
			}
		case packet.Image:
			if err := s.image(data); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown FLG %d", ErrMalformed, tag.Flag)
		}
	}
	return nil
}

func qword(p []byte) (lo, hi uint64) {
	return binary.LittleEndian.Uint64(p), binary.LittleEndian.Uint64(p[8:])
}

// packed executes one quadword of a packed group with descriptor d.
func (s *Sim) packed(d packet.Desc, lo, hi uint64) {
	switch d {
	case packet.DescRGBAQ:
		v := lo&0xFF | (lo>>32&0xFF)<<8 | (hi&0xFF)<<16 | (hi>>32&0xFF)<<24
		s.write(gs.RegRGBAQ, v|uint64(math.Float32bits(s.q))<<32)
	case packet.DescST:
		s.q = math.Float32frombits(uint32(hi))
		s.write(gs.RegST, lo)
	case packet.DescUV:
		s.write(gs.RegUV, lo&0x3FFF|(lo>>32&0x3FFF)<<16)
	case packet.DescXYZF2, packet.DescXYZ2:
		var v uint64
		if d == packet.DescXYZF2 {
			v = lo&0xFFFF | (lo>>32&0xFFFF)<<16 | (hi>>4&0xFFFFFF)<<32 | (hi>>36&0xFF)<<56
		} else {
			v = lo&0xFFFF | (lo>>32&0xFFFF)<<16 | (hi&0xFFFFFFFF)<<32
		}
		r := gs.Reg(d)
		if hi&(1<<47) != 0 {
			// ADC: register the vertex without a drawing kick.
			r = gs.RegXYZ3
			if d == packet.DescXYZF2 {
				r = gs.RegXYZF3
			}
		}
		s.write(r, v)
	case packet.DescFOG:
		s.write(gs.RegFOG, (hi>>36&0xFF)<<56)
	case packet.DescAD:
		s.write(gs.Reg(hi), lo)
	case packet.DescNOP:
	default:
		// PRIM, TEX0, CLAMP, XYZF3 and XYZ3 carry the register value as is.
		s.write(gs.Reg(d), lo)
	}
}

// write sets register r and runs its side effects.
func (s *Sim) write(r gs.Reg, v uint64) {
	s.reg[r] = v
	switch r {
	case gs.RegPRIM:
		s.verts = s.verts[:0]
	case gs.RegRGBAQ:
		s.q = math.Float32frombits(uint32(v >> 32))
	case gs.RegXYZ2, gs.RegXYZF2:
		s.vertex(v, true)
	case gs.RegXYZ3, gs.RegXYZF3:
		s.vertex(v, false)
	case gs.RegTEX0:
		s.loadCLUT(gs.UnpackTEX0(v))
	case gs.RegTRXDIR:
		s.startTransfer(v & 3)
	}
}

// loadCLUT refreshes the CLUT buffer as TEX0.CLD requests.
func (s *Sim) loadCLUT(t gs.TEX0) {
	if t.PSM != gs.PSMT8 {
		return
	}
	switch t.CLD {
	case 0:
		return
	case 1:
	case 2, 3:
		s.cbp[t.CLD-2] = t.CBP
	case 4, 5:
		if s.cbp[t.CLD-4] == t.CBP {
			return
		}
		s.cbp[t.CLD-4] = t.CBP
	default:
		return
	}
	if t.CPSM != gs.PSMCT32 {
		s.logger().Warn("gssim: unsupported CLUT format", "cpsm", t.CPSM)
		return
	}
	for i := range s.clut {
		// CSM1 stores entries 8-15 and 16-23 of every 32 swapped.
		slot := i&0xE7 | (i&0x08)<<1 | (i&0x10)>>1
		s.clut[i] = s.read32(t.CBP, 1, slot&15, slot>>4)
	}
	s.logger().Debug("gssim: CLUT load", "cbp", t.CBP)
}
