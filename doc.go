// Package gsgrey turns a PSMCT16 frame buffer in Graphics Synthesizer local
// memory into greyscale by copying one color channel into the others. The
// host never reads the frame back: every step is a GIF packet that makes the
// GS render from one part of its memory into another.
//
// # Pipeline
//
// The frame is processed in 64x64 tiles. For every tile, three packets are
// sent and each is waited for before the next one:
//
//  1. Widen: the tile is drawn as a PSMCT16 texture into a PSMCT32 staging
//     surface, expanding each 5-bit channel to 8 bits.
//  2. Replicate: each page of the staging surface is read back as a PSMT8
//     texture, one byte per texel. REGION_REPEAT wrapping forces every
//     sample onto the byte of the source channel, and a lookup table that
//     maps index i to the color (i, i, i, i) broadcasts it. The frame write
//     mask limits the result to the target channels.
//  3. Narrow: the staging surface is drawn back into the tile, dropping the
//     low 3 bits of each channel.
//
// Tiles are independent; pixels outside the tile being converted are never
// written.
//
// # Basic Usage
//
//	sim := gssim.New(nil)
//	dev, err := gsgrey.New(sim, &gsgrey.Opts{W: 640, H: 448})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Halt()
//
//	// Upload a picture
//	dev.Draw(dev.Bounds(), img, image.Point{})
//
//	// Copy red into green and blue
//	if err := dev.Greyscale(); err != nil {
//		log.Fatal(err)
//	}
//
// Any conn.Conn that delivers GIF packets to a GS works in place of the
// simulator. If the connection also implements Waiter, Dev calls WaitIdle
// after every packet.
//
// # Channel Selection
//
// Opts.Source picks the channel that is copied and Opts.Targets the channels
// that receive it:
//
//	gsgrey.Opts{Source: channel.Green, Targets: channel.RGB}  // green into R, G and B
//	gsgrey.Opts{Source: channel.Blue, Targets: channel.RGBA} // alpha overwritten too
//
// The alpha bit is kept unless Targets includes channel.Alpha.
//
// # Local Memory Layout
//
// New allocates, from address 0 upwards: the frame buffer (page aligned),
// the 16x16 PSMCT32 lookup table (block aligned) and the two page staging
// surface (page aligned). Context returns the resulting addresses.
//
// # Logging
//
// Nothing is logged until SetLogger is called with a *slog.Logger. The
// logger is handed on to connections that accept one.
package gsgrey
