// Package packet builds GIF packets: the 128-bit quadword command stream the
// GS consumes.
//
// A packet is a sequence of groups. Each group starts with a GIF tag that
// declares how many quadwords follow and how to interpret them. The Builder
// counts what is emitted into a group and panics when a group is closed with
// a different count than its tag declared; a malformed packet is a
// programming error, never a runtime condition.
package packet

import (
	"encoding/binary"
	"fmt"
	"image"

	"periph.io/x/devices/v3/gsgrey/gs"
)

// QwordSize is the size in bytes of one GIF quadword.
const QwordSize = 16

// MaxNLoop is the largest loop count a tag can declare.
const MaxNLoop = 0x7FFF

// Flag is the data format of a group.
type Flag uint8

// Data formats.
const (
	Packed  Flag = 0 // one register descriptor per quadword
	RegList Flag = 1 // two raw register values per quadword
	Image   Flag = 2 // raw transfer data
)

// Desc is a register descriptor in a tag's REGS field.
type Desc uint8

// Register descriptors. Descriptors 0x0-0xD address the register with the
// same number.
const (
	DescPRIM  Desc = 0x0
	DescRGBAQ Desc = 0x1
	DescST    Desc = 0x2
	DescUV    Desc = 0x3
	DescXYZF2 Desc = 0x4
	DescXYZ2  Desc = 0x5
	DescTEX0  Desc = 0x6
	DescCLAMP Desc = 0x8
	DescFOG   Desc = 0xA
	DescXYZF3 Desc = 0xC
	DescXYZ3  Desc = 0xD
	DescAD    Desc = 0xE
	DescNOP   Desc = 0xF
)

// AD is the descriptor list of an A+D group.
var AD = []Desc{DescAD}

// Tag is a GIF tag.
type Tag struct {
	NLoop int
	EOP   bool
	PRE   bool   // write Prim to PRIM before the data
	Prim  uint64 // PRIM value, used when PRE is set
	Flag  Flag
	Regs  []Desc // 1 to 16 descriptors; ignored for Image
}

// NReg returns the number of quadwords per loop for packed groups and the
// number of registers per loop otherwise.
func (t Tag) NReg() int {
	if t.Flag == Image {
		return 1
	}
	return len(t.Regs)
}

// Qwords returns how many data quadwords follow the tag.
func (t Tag) Qwords() int {
	switch t.Flag {
	case Image:
		return t.NLoop
	case RegList:
		return (t.NLoop*len(t.Regs) + 1) / 2
	default:
		return t.NLoop * len(t.Regs)
	}
}

// Pack returns the two 64-bit halves of the tag.
func (t Tag) Pack() (lo, hi uint64) {
	lo = uint64(t.NLoop) & MaxNLoop
	if t.EOP {
		lo |= 1 << 15
	}
	if t.PRE {
		lo |= 1<<46 | (t.Prim&0x7FF)<<47
	}
	lo |= uint64(t.Flag&3) << 58
	nreg := len(t.Regs)
	lo |= uint64(nreg&0xF) << 60 // 0 means 16
	for i, d := range t.Regs {
		hi |= uint64(d&0xF) << (4 * i)
	}
	return lo, hi
}

// ParseTag decodes a tag from its two halves.
func ParseTag(lo, hi uint64) Tag {
	t := Tag{
		NLoop: int(lo & MaxNLoop),
		EOP:   lo&(1<<15) != 0,
		PRE:   lo&(1<<46) != 0,
		Flag:  Flag(lo>>58) & 3,
	}
	if t.PRE {
		t.Prim = (lo >> 47) & 0x7FF
	}
	nreg := int(lo>>60) & 0xF
	if nreg == 0 {
		nreg = 16
	}
	if t.Flag != Image {
		t.Regs = make([]Desc, nreg)
		for i := range t.Regs {
			t.Regs[i] = Desc(hi>>(4*i)) & 0xF
		}
	}
	return t
}

// Builder accumulates a packet.
type Builder struct {
	buf  []byte
	open bool
	tag  Tag
	got  int // data quadwords emitted into the open group
}

// New returns a Builder with room for n quadwords.
func New(n int) *Builder {
	return &Builder{buf: make([]byte, 0, n*QwordSize)}
}

// Begin writes tag t and opens a group. The group must be closed with End
// before the next Begin.
func (b *Builder) Begin(t Tag) {
	if b.open {
		panic("packet: Begin with a group still open")
	}
	if t.NLoop < 0 || t.NLoop > MaxNLoop {
		panic(fmt.Sprintf("packet: NLOOP %d out of range", t.NLoop))
	}
	if t.Flag != Image && (len(t.Regs) == 0 || len(t.Regs) > 16) {
		panic(fmt.Sprintf("packet: %d register descriptors", len(t.Regs)))
	}
	lo, hi := t.Pack()
	b.put(lo, hi)
	b.tag = t
	b.got = 0
	b.open = true
}

// End closes the open group.
func (b *Builder) End() {
	if !b.open {
		panic("packet: End without Begin")
	}
	if want := b.tag.Qwords(); b.got != want {
		panic(fmt.Sprintf("packet: group declared %d quadwords, %d emitted", want, b.got))
	}
	b.open = false
}

// slot returns the descriptor of the next quadword in the open group.
func (b *Builder) slot() Desc {
	if !b.open {
		panic("packet: emit outside a group")
	}
	if b.tag.Flag != Packed {
		panic("packet: register emit in a non-packed group")
	}
	if b.got >= b.tag.Qwords() {
		panic(fmt.Sprintf("packet: group overflow after %d quadwords", b.got))
	}
	return b.tag.Regs[b.got%len(b.tag.Regs)]
}

func (b *Builder) emit(want Desc, lo, hi uint64) {
	if d := b.slot(); d != want {
		panic(fmt.Sprintf("packet: quadword %d expects descriptor 0x%X, got 0x%X", b.got, d, want))
	}
	b.put(lo, hi)
	b.got++
}

// ADGroup opens an A+D group, runs fn and patches the tag's loop count with
// the number of registers fn wrote.
func (b *Builder) ADGroup(fn func(b *Builder)) {
	b.Begin(Tag{NLoop: MaxNLoop, EOP: true, Regs: AD})
	at := len(b.buf) - QwordSize
	fn(b)
	b.tag.NLoop = b.got
	lo, _ := b.tag.Pack()
	binary.LittleEndian.PutUint64(b.buf[at:], lo)
	b.End()
}

// AD writes value v to register r through an A+D quadword.
func (b *Builder) AD(r gs.Reg, v uint64) {
	b.emit(DescAD, v, uint64(r))
}

// Vertex writes a packed UV followed by a packed XYZ2. When kick is false
// the vertex is queued without drawing (ADC set).
func (b *Builder) Vertex(uv gs.UV, xyz gs.XYZ, kick bool) {
	b.UV(uv)
	b.XYZ(xyz, kick)
}

// UV writes a packed UV.
func (b *Builder) UV(uv gs.UV) {
	b.emit(DescUV, uint64(uv.U&0x3FFF)|uint64(uv.V&0x3FFF)<<32, 0)
}

// XYZ writes a packed XYZ2, with ADC set when kick is false.
func (b *Builder) XYZ(xyz gs.XYZ, kick bool) {
	hi := uint64(xyz.Z)
	if !kick {
		hi |= 1 << 47
	}
	b.emit(DescXYZ2, uint64(xyz.X)|uint64(xyz.Y)<<32, hi)
}

// ST writes a packed ST with its Q.
func (b *Builder) ST(s, t, q float32) {
	lo := gs.ST(s, t)
	b.emit(DescST, lo, uint64(gs.RGBAQ(0, 0, 0, 0, q)>>32))
}

// Image writes data as one or more IMAGE groups, zero padded to a
// quadword.
func (b *Builder) Image(data []byte) {
	if b.open {
		panic("packet: Image with a group still open")
	}
	n := (len(data) + QwordSize - 1) / QwordSize
	for n > 0 {
		loops := min(n, MaxNLoop)
		lo, hi := Tag{NLoop: loops, EOP: true, Flag: Image}.Pack()
		b.put(lo, hi)
		chunk := loops * QwordSize
		start := len(b.buf)
		b.buf = append(b.buf, make([]byte, chunk)...)
		copy(b.buf[start:], data[:min(chunk, len(data))])
		data = data[min(chunk, len(data)):]
		n -= loops
	}
}

func (b *Builder) put(lo, hi uint64) {
	b.buf = binary.LittleEndian.AppendUint64(b.buf, lo)
	b.buf = binary.LittleEndian.AppendUint64(b.buf, hi)
}

// Len returns the packet length in quadwords.
func (b *Builder) Len() int {
	return len(b.buf) / QwordSize
}

// Bytes returns the packet. It panics if a group is open.
func (b *Builder) Bytes() []byte {
	if b.open {
		panic("packet: Bytes with a group still open")
	}
	return b.buf
}

// Reset empties the builder, keeping its storage.
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
	b.open = false
	b.got = 0
}

// Transfer appends a host to local transfer of pixels into rectangle r of
// dst. pixels holds r.Dx()*r.Dy() pixels in dst.PSM, row major, little
// endian.
func Transfer(b *Builder, dst gs.Surface, r image.Rectangle, pixels []byte) {
	b.Begin(Tag{NLoop: 4, EOP: true, Regs: AD})
	b.AD(gs.RegBITBLTBUF, gs.BITBLTBUF{DBP: dst.TBP(), DBW: dst.Width, DPSM: dst.PSM}.Pack())
	b.AD(gs.RegTRXPOS, gs.TRXPOS{DSAX: uint16(r.Min.X), DSAY: uint16(r.Min.Y)}.Pack())
	b.AD(gs.RegTRXREG, gs.TRXREG(r.Dx(), r.Dy()))
	b.AD(gs.RegTRXDIR, gs.XDirHostToLocal)
	b.End()
	b.Image(pixels)
}

// TexFlush appends a texture cache flush, required after a transfer into
// memory that is later read as a texture.
func TexFlush(b *Builder) {
	b.Begin(Tag{NLoop: 1, EOP: true, Regs: AD})
	b.AD(gs.RegTEXFLUSH, 0)
	b.End()
}
