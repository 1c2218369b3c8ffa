// Package clut builds the broadcast lookup table the channel replication
// pass samples through.
//
// Entry i of the table holds the byte i in all four lanes, so a PSMT8 read
// of any byte lane yields a PSMCT32 color whose lanes all equal that byte.
// The table is stored in CSM1 order: within every group of 32 entries the
// second and third runs of 8 are swapped in memory.
package clut

import (
	"encoding/binary"
	"image"

	"periph.io/x/devices/v3/gsgrey/gs"
	"periph.io/x/devices/v3/gsgrey/packet"
)

// Size is the width and height in pixels of a 256 entry PSMCT32 CLUT.
const Size = 16

// Entries is the number of entries of an 8-bit CLUT.
const Entries = 256

// Slot returns the position in the 16x16 CLUT image of palette index i.
func Slot(i uint8) int {
	return int(i&0xE7) | int(i&0x08)<<1 | int(i&0x10)>>1
}

// Broadcast returns the PSMCT32 color with all four lanes set to v.
func Broadcast(v uint8) uint32 {
	return uint32(v) * 0x01010101
}

// Table returns the CLUT image, indexed by slot.
func Table() [Entries]uint32 {
	var t [Entries]uint32
	for i := 0; i < Entries; i++ {
		t[Slot(uint8(i))] = Broadcast(uint8(i))
	}
	return t
}

// Bytes returns Table as little endian PSMCT32 pixels, row major.
func Bytes() []byte {
	t := Table()
	p := make([]byte, 0, Entries*4)
	for _, v := range t {
		p = binary.LittleEndian.AppendUint32(p, v)
	}
	return p
}

// Upload appends the transfer of the table to base, a block aligned word
// address, followed by a texture flush.
func Upload(b *packet.Builder, base uint32) {
	dst := gs.Surface{Base: base, Width: 1, PSM: gs.PSMCT32}
	packet.Transfer(b, dst, image.Rect(0, 0, Size, Size), Bytes())
	packet.TexFlush(b)
}
