// Package rgba5551 provides the host side of the GS PSMCT16 pixel format.
//
// A PSMCT16 pixel is a little endian 16-bit word holding 5 bits per color
// channel and one alpha bit:
//
//	bit  15  14..10  9..5  4..0
//	     A   B       G     R
//
// The Image type stores pixels exactly as the GS expects them in a
// host-to-local transfer, so its Pix slice can be sent unchanged.
//
// Example usage:
//
//	img := rgba5551.NewImage(image.Rect(0, 0, 640, 448))
//	img.SetColor16(10, 20, rgba5551.New(31, 0, 0, true))
//	draw.Draw(img, img.Bounds(), src, image.Point{}, draw.Src)
package rgba5551
