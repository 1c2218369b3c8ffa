package gssim

// Local memory is swizzled: a page is split into blocks and a block into
// columns, and each format walks them in its own order. The tables map a
// position inside a page (block) or block (column) to its storage index.

var blockTable32 = [4][8]uint32{
	{0, 1, 4, 5, 16, 17, 20, 21},
	{2, 3, 6, 7, 18, 19, 22, 23},
	{8, 9, 12, 13, 24, 25, 28, 29},
	{10, 11, 14, 15, 26, 27, 30, 31},
}

var columnTable32 = [8][8]uint32{
	{0, 1, 4, 5, 8, 9, 12, 13},
	{2, 3, 6, 7, 10, 11, 14, 15},
	{16, 17, 20, 21, 24, 25, 28, 29},
	{18, 19, 22, 23, 26, 27, 30, 31},
	{32, 33, 36, 37, 40, 41, 44, 45},
	{34, 35, 38, 39, 42, 43, 46, 47},
	{48, 49, 52, 53, 56, 57, 60, 61},
	{50, 51, 54, 55, 58, 59, 62, 63},
}

var blockTable16 = [8][4]uint32{
	{0, 2, 8, 10},
	{1, 3, 9, 11},
	{4, 6, 12, 14},
	{5, 7, 13, 15},
	{16, 18, 24, 26},
	{17, 19, 25, 27},
	{20, 22, 28, 30},
	{21, 23, 29, 31},
}

var columnTable16 = [8][16]uint32{
	{0, 2, 8, 10, 16, 18, 24, 26, 1, 3, 9, 11, 17, 19, 25, 27},
	{4, 6, 12, 14, 20, 22, 28, 30, 5, 7, 13, 15, 21, 23, 29, 31},
	{32, 34, 40, 42, 48, 50, 56, 58, 33, 35, 41, 43, 49, 51, 57, 59},
	{36, 38, 44, 46, 52, 54, 60, 62, 37, 39, 45, 47, 53, 55, 61, 63},
	{64, 66, 72, 74, 80, 82, 88, 90, 65, 67, 73, 75, 81, 83, 89, 91},
	{68, 70, 76, 78, 84, 86, 92, 94, 69, 71, 77, 79, 85, 87, 93, 95},
	{96, 98, 104, 106, 112, 114, 120, 122, 97, 99, 105, 107, 113, 115, 121, 123},
	{100, 102, 108, 110, 116, 118, 124, 126, 101, 103, 109, 111, 117, 119, 125, 127},
}

var blockTable8 = [4][8]uint32{
	{0, 1, 4, 5, 16, 17, 20, 21},
	{2, 3, 6, 7, 18, 19, 22, 23},
	{8, 9, 12, 13, 24, 25, 28, 29},
	{10, 11, 14, 15, 26, 27, 30, 31},
}

var columnTable8 = [16][16]uint32{
	{0, 4, 16, 20, 32, 36, 48, 52, 2, 6, 18, 22, 34, 38, 50, 54},
	{8, 12, 24, 28, 40, 44, 56, 60, 10, 14, 26, 30, 42, 46, 58, 62},
	{33, 37, 1, 5, 49, 53, 17, 21, 35, 39, 3, 7, 51, 55, 19, 23},
	{41, 45, 9, 13, 57, 61, 25, 29, 43, 47, 11, 15, 59, 63, 27, 31},
	{96, 100, 112, 116, 64, 68, 80, 84, 98, 102, 114, 118, 66, 70, 82, 86},
	{104, 108, 120, 124, 72, 76, 88, 92, 106, 110, 122, 126, 74, 78, 90, 94},
	{65, 69, 81, 85, 97, 101, 113, 117, 67, 71, 83, 87, 99, 103, 115, 119},
	{73, 77, 89, 93, 105, 109, 121, 125, 75, 79, 91, 95, 107, 111, 123, 127},
	{128, 132, 144, 148, 160, 164, 176, 180, 130, 134, 146, 150, 162, 166, 178, 182},
	{136, 140, 152, 156, 168, 172, 184, 188, 138, 142, 154, 158, 170, 174, 186, 190},
	{161, 165, 129, 133, 177, 181, 145, 149, 163, 167, 131, 135, 179, 183, 147, 151},
	{169, 173, 137, 141, 185, 189, 153, 157, 171, 175, 139, 143, 187, 191, 155, 159},
	{224, 228, 240, 244, 192, 196, 208, 212, 226, 230, 242, 246, 194, 198, 210, 214},
	{232, 236, 248, 252, 200, 204, 216, 220, 234, 238, 250, 254, 202, 206, 218, 222},
	{193, 197, 209, 213, 225, 229, 241, 245, 195, 199, 211, 215, 227, 231, 243, 247},
	{201, 205, 217, 221, 233, 237, 249, 253, 203, 207, 219, 223, 235, 239, 251, 255},
}

const memMask = memorySize - 1

// addr32 returns the byte address of PSMCT32 pixel (x, y) of the buffer at
// block bp with width bw.
func addr32(bp, bw uint32, x, y int) uint32 {
	ux, uy := uint32(x), uint32(y)
	page := bp>>5 + (uy>>5)*bw + ux>>6
	block := bp&31 + blockTable32[(uy>>3)&3][(ux>>3)&7]
	word := page<<11 + block<<6 + columnTable32[uy&7][ux&7]
	return (word << 2) & memMask
}

// addr16 returns the byte address of PSMCT16 pixel (x, y).
func addr16(bp, bw uint32, x, y int) uint32 {
	ux, uy := uint32(x), uint32(y)
	page := bp>>5 + (uy>>6)*bw + ux>>6
	block := bp&31 + blockTable16[(uy>>3)&7][(ux>>4)&3]
	half := page<<12 + block<<7 + columnTable16[uy&7][ux&15]
	return (half << 1) & memMask
}

// addr8 returns the byte address of PSMT8 pixel (x, y). PSMT8 pages are
// twice as wide, so the width counts in 128 pixel units.
func addr8(bp, bw uint32, x, y int) uint32 {
	ux, uy := uint32(x), uint32(y)
	page := bp>>5 + (uy>>6)*(bw>>1) + ux>>7
	block := bp&31 + blockTable8[(uy>>4)&3][(ux>>4)&7]
	return (page<<13 + block<<8 + columnTable8[uy&15][ux&15]) & memMask
}
