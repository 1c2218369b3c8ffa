package gs

import "math"

// Reg is a GS register address as written in an A+D qword.
type Reg uint8

// General purpose registers. Only drawing context 1 is used.
const (
	RegPRIM       Reg = 0x00
	RegRGBAQ      Reg = 0x01
	RegST         Reg = 0x02
	RegUV         Reg = 0x03
	RegXYZF2      Reg = 0x04
	RegXYZ2       Reg = 0x05
	RegTEX0       Reg = 0x06
	RegCLAMP      Reg = 0x08
	RegFOG        Reg = 0x0A
	RegXYZF3      Reg = 0x0C
	RegXYZ3       Reg = 0x0D
	RegTEX1       Reg = 0x14
	RegXYOFFSET   Reg = 0x18
	RegPRMODECONT Reg = 0x1A
	RegTEXA       Reg = 0x3B
	RegTEXFLUSH   Reg = 0x3F
	RegSCISSOR    Reg = 0x40
	RegDTHE       Reg = 0x45
	RegCOLCLAMP   Reg = 0x46
	RegTEST       Reg = 0x47
	RegFRAME      Reg = 0x4C
	RegZBUF       Reg = 0x4E
	RegBITBLTBUF  Reg = 0x50
	RegTRXPOS     Reg = 0x51
	RegTRXREG     Reg = 0x52
	RegTRXDIR     Reg = 0x53
	RegFINISH     Reg = 0x61
	RegNOP        Reg = 0x7F
)

// PrimType is the primitive selected by PRIM.
type PrimType uint64

// Primitive types.
const (
	PrimPoint     PrimType = 0
	PrimLine      PrimType = 1
	PrimLineStrip PrimType = 2
	PrimTriangle  PrimType = 3
	PrimTriStrip  PrimType = 4
	PrimTriFan    PrimType = 5
	PrimSprite    PrimType = 6
)

// PRIM attribute bits.
const (
	PrimIIP  uint64 = 1 << 3  // Gouraud shading
	PrimTME  uint64 = 1 << 4  // texture mapping
	PrimFGE  uint64 = 1 << 5  // fogging
	PrimABE  uint64 = 1 << 6  // alpha blending
	PrimAA1  uint64 = 1 << 7  // antialiasing
	PrimFST  uint64 = 1 << 8  // UV instead of STQ
	PrimCTXT uint64 = 1 << 9  // drawing context 2
	PrimFIX  uint64 = 1 << 10 // fixed fragment value
)

// Prim packs a PRIM value.
func Prim(t PrimType, attrs uint64) uint64 {
	return uint64(t)&0x7 | attrs&0x7F8
}

// RGBAQ packs a vertex color and the Q texture coordinate.
func RGBAQ(r, g, b, a uint8, q float32) uint64 {
	return uint64(r) | uint64(g)<<8 | uint64(b)<<16 | uint64(a)<<24 |
		uint64(math.Float32bits(q))<<32
}

// ST packs the S and T texture coordinates.
func ST(s, t float32) uint64 {
	return uint64(math.Float32bits(s)) | uint64(math.Float32bits(t))<<32
}

// UV is a texel coordinate in 10.4 fixed point.
type UV struct {
	U, V uint16
}

// Pack returns the UV register value.
func (c UV) Pack() uint64 {
	return uint64(c.U&0x3FFF) | uint64(c.V&0x3FFF)<<16
}

// TexelCenter returns the UV coordinate of the center of texel t.
func TexelCenter(t int) uint16 {
	return uint16(t<<4 + 8)
}

// XYZ is a vertex position in 12.4 fixed point primitive coordinates.
type XYZ struct {
	X, Y uint16
	Z    uint32
}

// Pack returns the XYZ2/XYZ3 register value.
func (c XYZ) Pack() uint64 {
	return uint64(c.X) | uint64(c.Y)<<16 | uint64(c.Z)<<32
}

// Fixed converts a whole pixel coordinate to 12.4 fixed point.
func Fixed(px int) uint16 {
	return uint16(px << 4)
}

// Texture function, TEX0.TFX.
const (
	TFXModulate   = 0
	TFXDecal      = 1
	TFXHighlight  = 2
	TFXHighlight2 = 3
)

// TEX0 holds texture and CLUT information.
type TEX0 struct {
	TBP0 uint32 // texture base, in blocks
	TBW  uint32 // texture buffer width, in 64 texel units
	PSM  PSM
	TW   uint8 // log2 width
	TH   uint8 // log2 height
	TCC  uint8 // 1: use texture alpha
	TFX  uint8
	CBP  uint32 // CLUT base, in blocks
	CPSM PSM
	CSM  uint8 // 0: CSM1
	CSA  uint8
	CLD  uint8 // CLUT buffer load control
}

// Pack returns the TEX0 register value.
func (r TEX0) Pack() uint64 {
	return uint64(r.TBP0&0x3FFF) |
		uint64(r.TBW&0x3F)<<14 |
		uint64(r.PSM&0x3F)<<20 |
		uint64(r.TW&0xF)<<26 |
		uint64(r.TH&0xF)<<30 |
		uint64(r.TCC&1)<<34 |
		uint64(r.TFX&3)<<35 |
		uint64(r.CBP&0x3FFF)<<37 |
		uint64(r.CPSM&0xF)<<51 |
		uint64(r.CSM&1)<<55 |
		uint64(r.CSA&0x1F)<<56 |
		uint64(r.CLD&7)<<61
}

// UnpackTEX0 decodes a TEX0 register value.
func UnpackTEX0(v uint64) TEX0 {
	return TEX0{
		TBP0: uint32(v & 0x3FFF),
		TBW:  uint32(v>>14) & 0x3F,
		PSM:  PSM(v>>20) & 0x3F,
		TW:   uint8(v>>26) & 0xF,
		TH:   uint8(v>>30) & 0xF,
		TCC:  uint8(v>>34) & 1,
		TFX:  uint8(v>>35) & 3,
		CBP:  uint32(v>>37) & 0x3FFF,
		CPSM: PSM(v>>51) & 0xF,
		CSM:  uint8(v>>55) & 1,
		CSA:  uint8(v>>56) & 0x1F,
		CLD:  uint8(v>>61) & 7,
	}
}

// Wrap modes for CLAMP.WMS and CLAMP.WMT.
const (
	WrapRepeat       = 0
	WrapClamp        = 1
	WrapRegionClamp  = 2
	WrapRegionRepeat = 3
)

// CLAMP controls texture coordinate wrapping. In region repeat mode Min is
// the coordinate mask and Max the value ORed into the masked coordinate.
type CLAMP struct {
	WMS, WMT   uint8
	MinU, MaxU uint16
	MinV, MaxV uint16
}

// DefaultCLAMP is the unclamped state left behind by every pass.
var DefaultCLAMP = CLAMP{WMS: WrapRepeat, WMT: WrapRepeat, MinU: 0xFF, MinV: 0xFF}

// Pack returns the CLAMP register value.
func (r CLAMP) Pack() uint64 {
	return uint64(r.WMS&3) |
		uint64(r.WMT&3)<<2 |
		uint64(r.MinU&0x3FF)<<4 |
		uint64(r.MaxU&0x3FF)<<14 |
		uint64(r.MinV&0x3FF)<<24 |
		uint64(r.MaxV&0x3FF)<<34
}

// UnpackCLAMP decodes a CLAMP register value.
func UnpackCLAMP(v uint64) CLAMP {
	return CLAMP{
		WMS:  uint8(v) & 3,
		WMT:  uint8(v>>2) & 3,
		MinU: uint16(v>>4) & 0x3FF,
		MaxU: uint16(v>>14) & 0x3FF,
		MinV: uint16(v>>24) & 0x3FF,
		MaxV: uint16(v>>34) & 0x3FF,
	}
}

// FRAME selects the render target. Bits set in FBMSK are not written.
type FRAME struct {
	FBP   uint32 // frame base, in pages
	FBW   uint32 // width, in 64 pixel units
	PSM   PSM
	FBMSK uint32
}

// Pack returns the FRAME register value.
func (r FRAME) Pack() uint64 {
	return uint64(r.FBP&0x1FF) |
		uint64(r.FBW&0x3F)<<16 |
		uint64(r.PSM&0x3F)<<24 |
		uint64(r.FBMSK)<<32
}

// UnpackFRAME decodes a FRAME register value.
func UnpackFRAME(v uint64) FRAME {
	return FRAME{
		FBP:   uint32(v & 0x1FF),
		FBW:   uint32(v>>16) & 0x3F,
		PSM:   PSM(v>>24) & 0x3F,
		FBMSK: uint32(v >> 32),
	}
}

// ZBUF packs the depth buffer setting. The pipeline never writes depth, so
// only the mask bit matters.
func ZBUF(zbp uint32, psm uint8, masked bool) uint64 {
	v := uint64(zbp&0x1FF) | uint64(psm&0xF)<<24
	if masked {
		v |= 1 << 32
	}
	return v
}

// XYOFFSET packs the primitive to window coordinate offset, in 12.4.
func XYOFFSET(ofx, ofy uint16) uint64 {
	return uint64(ofx) | uint64(ofy)<<32
}

// UnpackXYOFFSET decodes an XYOFFSET register value.
func UnpackXYOFFSET(v uint64) (ofx, ofy uint16) {
	return uint16(v), uint16(v >> 32)
}

// SCISSOR is the inclusive drawing rectangle in window coordinates.
type SCISSOR struct {
	X0, X1, Y0, Y1 uint16
}

// Pack returns the SCISSOR register value.
func (r SCISSOR) Pack() uint64 {
	return uint64(r.X0&0x7FF) | uint64(r.X1&0x7FF)<<16 |
		uint64(r.Y0&0x7FF)<<32 | uint64(r.Y1&0x7FF)<<48
}

// UnpackSCISSOR decodes a SCISSOR register value.
func UnpackSCISSOR(v uint64) SCISSOR {
	return SCISSOR{
		X0: uint16(v) & 0x7FF,
		X1: uint16(v>>16) & 0x7FF,
		Y0: uint16(v>>32) & 0x7FF,
		Y1: uint16(v>>48) & 0x7FF,
	}
}

// Depth test methods for TEST.ZTST.
const (
	ZTestNever   = 0
	ZTestAlways  = 1
	ZTestGEqual  = 2
	ZTestGreater = 3
)

// TEST packs the pixel test register with alpha and destination alpha tests
// off.
func TEST(zte bool, ztst uint8) uint64 {
	var v uint64
	if zte {
		v |= 1 << 16
	}
	return v | uint64(ztst&3)<<17
}

// TEXA sets the alpha expansion of 16-bit textures: TA0 for pixels with the
// alpha bit clear, TA1 for pixels with it set.
type TEXA struct {
	TA0 uint8
	AEM uint8
	TA1 uint8
}

// DefaultTEXA expands the 1-bit alpha to 0x00 and 0x80 so that the 32-bit
// to 16-bit write recovers the original bit.
var DefaultTEXA = TEXA{TA0: 0x00, TA1: 0x80}

// Pack returns the TEXA register value.
func (r TEXA) Pack() uint64 {
	return uint64(r.TA0) | uint64(r.AEM&1)<<15 | uint64(r.TA1)<<32
}

// UnpackTEXA decodes a TEXA register value.
func UnpackTEXA(v uint64) TEXA {
	return TEXA{TA0: uint8(v), AEM: uint8(v>>15) & 1, TA1: uint8(v >> 32)}
}

// TEX1Nearest selects point sampling for magnification and minification
// with mipmapping off.
const TEX1Nearest uint64 = 0

// BITBLTBUF describes the source and destination buffers of a transfer.
type BITBLTBUF struct {
	SBP  uint32
	SBW  uint32
	SPSM PSM
	DBP  uint32 // destination base, in blocks
	DBW  uint32 // destination width, in 64 pixel units
	DPSM PSM
}

// Pack returns the BITBLTBUF register value.
func (r BITBLTBUF) Pack() uint64 {
	return uint64(r.SBP&0x3FFF) | uint64(r.SBW&0x3F)<<16 | uint64(r.SPSM&0x3F)<<24 |
		uint64(r.DBP&0x3FFF)<<32 | uint64(r.DBW&0x3F)<<48 | uint64(r.DPSM&0x3F)<<56
}

// UnpackBITBLTBUF decodes a BITBLTBUF register value.
func UnpackBITBLTBUF(v uint64) BITBLTBUF {
	return BITBLTBUF{
		SBP:  uint32(v & 0x3FFF),
		SBW:  uint32(v>>16) & 0x3F,
		SPSM: PSM(v>>24) & 0x3F,
		DBP:  uint32(v>>32) & 0x3FFF,
		DBW:  uint32(v>>48) & 0x3F,
		DPSM: PSM(v>>56) & 0x3F,
	}
}

// TRXPOS holds the upper left corners of a transfer. DIR is the pixel
// transmission order; 0 is upper left to lower right.
type TRXPOS struct {
	SSAX, SSAY uint16
	DSAX, DSAY uint16
	DIR        uint8
}

// Pack returns the TRXPOS register value.
func (r TRXPOS) Pack() uint64 {
	return uint64(r.SSAX&0x7FF) | uint64(r.SSAY&0x7FF)<<16 |
		uint64(r.DSAX&0x7FF)<<32 | uint64(r.DSAY&0x7FF)<<48 | uint64(r.DIR&3)<<59
}

// UnpackTRXPOS decodes a TRXPOS register value.
func UnpackTRXPOS(v uint64) TRXPOS {
	return TRXPOS{
		SSAX: uint16(v) & 0x7FF,
		SSAY: uint16(v>>16) & 0x7FF,
		DSAX: uint16(v>>32) & 0x7FF,
		DSAY: uint16(v>>48) & 0x7FF,
		DIR:  uint8(v>>59) & 3,
	}
}

// TRXREG packs the transfer width and height in pixels.
func TRXREG(w, h int) uint64 {
	return uint64(w&0xFFF) | uint64(h&0xFFF)<<32
}

// UnpackTRXREG decodes a TRXREG register value.
func UnpackTRXREG(v uint64) (w, h int) {
	return int(v & 0xFFF), int(v>>32) & 0xFFF
}

// Transfer directions for TRXDIR.
const (
	XDirHostToLocal  = 0
	XDirLocalToHost  = 1
	XDirLocalToLocal = 2
	XDirOff          = 3
)
