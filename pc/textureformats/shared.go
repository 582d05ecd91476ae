package textureformats

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// Based on github.com/xdanieldzd/GXTConvert

func rgb565fromUint16(v uint16) (r, g, b uint16) {
	r = (v >> 11) & 0x1f
	g = (v >> 5) & 0x3f
	b = (v >> 0) & 0x1f

	r = (r << 3) | (r >> 2)
	g = (g << 2) | (g >> 4)
	b = (b << 3) | (b >> 2)

	return
}

// dxColorFromPosition resolves one 2 bit color code. In three color
// mode positionCode 3 is the transparent black texel, dxt1 maps it
// to alpha 0 while dxt3/dxt5 never leave four color mode.
func dxColorFromPosition(positionCode uint32, fourColorMode bool, r0, g0, b0, r1, g1, b1 uint16) (r, g, b byte, transparent bool) {
	switch positionCode {
	case 0:
		r, g, b = byte(r0), byte(g0), byte(b0)
	case 1:
		r, g, b = byte(r1), byte(g1), byte(b1)
	case 2:
		if fourColorMode {
			r, g, b = byte((2*r0+r1)/3), byte((2*g0+g1)/3), byte((2*b0+b1)/3)
		} else {
			r, g, b = byte((r0+r1)/2), byte((g0+g1)/2), byte((b0+b1)/2)
		}
	case 3:
		if fourColorMode {
			r, g, b = byte((r0+2*r1)/3), byte((g0+2*g1)/3), byte((b0+2*b1)/3)
		} else {
			r, g, b, transparent = 0, 0, 0, true
		}
	}
	return
}

// decomporessImageDX walks 4x4 blocks in plain row major order, the
// layout pc direct3d surfaces use.
func decomporessImageDX(blocks, blocksPerRow, w, h int, blockmethod func(blockIndex int, colors []color.NRGBA)) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	colors := make([]color.NRGBA, 4*4)

	for iBlock := 0; iBlock < blocks; iBlock++ {
		blockmethod(iBlock, colors)

		blockX := (iBlock % blocksPerRow) * 4
		blockY := (iBlock / blocksPerRow) * 4

		for iColor, c := range colors {
			// Set is a noop outside image bounds, partial edge
			// blocks of non multiple of 4 images decode fine
			img.SetNRGBA(blockX+iColor%4, blockY+iColor/4, c)
		}
	}

	return img
}

func checkBlockDataSize(format string, data []byte, w, h, blockSize int) (blocks, blocksPerRow int, err error) {
	blocksPerRow = (w + 3) / 4
	blocks = blocksPerRow * ((h + 3) / 4)
	if need := blocks * blockSize; len(data) < need {
		return 0, 0, errors.Errorf("Not enough data for %dx%d %s image: need 0x%x, have 0x%x",
			w, h, format, need, len(data))
	}
	return blocks, blocksPerRow, nil
}
