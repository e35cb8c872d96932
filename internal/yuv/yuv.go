// Package yuv converts packed 32-bit pixel buffers into planar 4:2:0 YUV.
//
// Conversion uses the BT.601 studio-swing coefficients, so output matches
// what libyuv-based stacks produce for the same input. Luma is written at
// full resolution; each chroma sample averages the 2x2 block of source
// pixels it covers, edge rows and columns averaging only the pixels that
// exist. Destination planes must be pre-sized by the caller: luma to
// width x height, chroma to ceil(width/2) x ceil(height/2) each.
package yuv

// RGBAToI420 converts a packed RGBA buffer (R at byte 0) into three planar
// buffers. srcStride is in bytes; plane strides are in samples. A width or
// height of zero or less writes nothing.
func RGBAToI420(src []byte, srcStride int, dstY []byte, strideY int, dstU []byte, strideU int, dstV []byte, strideV int, width, height int) {
	packedToI420(src, srcStride, 0, 1, 2, dstY, strideY, dstU, strideU, dstV, strideV, width, height)
}

// BGRAToI420 is RGBAToI420 for buffers with B at byte 0. This is the memory
// layout little-endian 32-bit ARGB capture APIs hand out.
func BGRAToI420(src []byte, srcStride int, dstY []byte, strideY int, dstU []byte, strideU int, dstV []byte, strideV int, width, height int) {
	packedToI420(src, srcStride, 2, 1, 0, dstY, strideY, dstU, strideU, dstV, strideV, width, height)
}

func packedToI420(src []byte, srcStride, ro, gro, bo int, dstY []byte, strideY int, dstU []byte, strideU int, dstV []byte, strideV int, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	for y := 0; y < height; y++ {
		row := src[y*srcStride:]
		out := dstY[y*strideY:]
		for x := 0; x < width; x++ {
			p := row[x*4:]
			out[x] = luma(int(p[ro]), int(p[gro]), int(p[bo]))
		}
	}

	cw := (width + 1) / 2
	ch := (height + 1) / 2
	for cy := 0; cy < ch; cy++ {
		y0 := 2 * cy
		y1 := y0 + 1
		if y1 >= height {
			y1 = y0
		}
		r0 := src[y0*srcStride:]
		r1 := src[y1*srcStride:]
		uRow := dstU[cy*strideU:]
		vRow := dstV[cy*strideV:]
		for cx := 0; cx < cw; cx++ {
			x0 := 4 * 2 * cx
			x1 := x0 + 4
			if 2*cx+1 >= width {
				x1 = x0
			}
			// Clamped edges read the same pixel twice, which keeps the
			// rounded average exact for 1-wide and 1-tall blocks.
			r := (int(r0[x0+ro]) + int(r0[x1+ro]) + int(r1[x0+ro]) + int(r1[x1+ro]) + 2) >> 2
			g := (int(r0[x0+gro]) + int(r0[x1+gro]) + int(r1[x0+gro]) + int(r1[x1+gro]) + 2) >> 2
			b := (int(r0[x0+bo]) + int(r0[x1+bo]) + int(r1[x0+bo]) + int(r1[x1+bo]) + 2) >> 2
			uRow[cx] = chromaU(r, g, b)
			vRow[cx] = chromaV(r, g, b)
		}
	}
}

// Fixed-point BT.601 studio swing. The coefficients keep luma inside
// [16,235] and chroma inside [16,240] for any 8-bit input, so no clamping
// is required.

func luma(r, g, b int) uint8 {
	return uint8(((66*r+129*g+25*b+128)>>8) + 16)
}

func chromaU(r, g, b int) uint8 {
	return uint8(((-38*r-74*g+112*b+128)>>8) + 128)
}

func chromaV(r, g, b int) uint8 {
	return uint8(((112*r-94*g-18*b+128)>>8) + 128)
}
