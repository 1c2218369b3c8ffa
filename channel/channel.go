// Package channel copies one 8-bit lane of a PSMCT32 page into other lanes
// of the same page, using only texture sampling and masked frame writes.
//
// The page is read back as a PSMT8 texture. In that view every 32-bit pixel
// is four consecutive texels, scattered by the PSMT8 swizzle. Sampling
// through a CLUT whose entry i is i in all four lanes turns any texel into
// a pixel whose lanes all equal that byte, and FBMSK limits the write to the
// destination lanes.
//
// Which texel holds which lane of which pixel follows from the swizzle:
// bit 3 of the texel column and bit 1 of the texel row select the lane, so
// REGION_REPEAT clamping with a mask that clears those bits and a fix value
// that sets them reads the source lane whatever the quad covers. The rest
// is picking quads whose texel spans line up with pixel spans, which is
// what RowPattern describes.
package channel

import (
	"fmt"
	"strings"
)

// Channel is a byte lane of a PSMCT32 pixel.
type Channel uint8

// Channels, in lane order.
const (
	Red Channel = iota
	Green
	Blue
	Alpha
)

const channelNames = "RGBA"

// String returns the one letter name of the channel.
func (c Channel) String() string {
	if c > Alpha {
		return fmt.Sprintf("Channel(%d)", uint8(c))
	}
	return channelNames[c : c+1]
}

// Mask returns the set holding only c.
func (c Channel) Mask() Mask {
	return 1 << c
}

// Valid reports whether c names a lane.
func (c Channel) Valid() bool {
	return c <= Alpha
}

// ParseChannel parses one of R, G, B or A, case insensitive.
func ParseChannel(s string) (Channel, error) {
	if len(s) == 1 {
		if i := strings.IndexByte(channelNames, upper(s[0])); i >= 0 {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("channel: unknown channel %q", s)
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// Mask is a set of channels.
type Mask uint8

// Common masks.
const (
	RGB  Mask = 1<<Red | 1<<Green | 1<<Blue
	RGBA Mask = RGB | 1<<Alpha
)

// Has reports whether c is in m.
func (m Mask) Has(c Channel) bool {
	return m&c.Mask() != 0
}

// FrameMask returns the FBMSK value that lets writes reach only the lanes in
// m.
func (m Mask) FrameMask() uint32 {
	var fbmsk uint32
	for c := Red; c <= Alpha; c++ {
		if !m.Has(c) {
			fbmsk |= 0xFF << (8 * c)
		}
	}
	return fbmsk
}

// String lists the channels of m in lane order.
func (m Mask) String() string {
	var sb strings.Builder
	for c := Red; c <= Alpha; c++ {
		if m.Has(c) {
			sb.WriteByte(channelNames[c])
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

// ParseMask parses a list of channel letters such as "RGB".
func ParseMask(s string) (Mask, error) {
	var m Mask
	for i := 0; i < len(s); i++ {
		c, err := ParseChannel(s[i : i+1])
		if err != nil {
			return 0, err
		}
		m |= c.Mask()
	}
	if m == 0 {
		return 0, fmt.Errorf("channel: empty mask %q", s)
	}
	return m, nil
}
