package textureformats

import (
	"encoding/binary"
	"image"
	"image/color"
)

// Based on github.com/xdanieldzd/GXTConvert

func decompressBlockDXT3(blockData []byte, outColors []color.NRGBA) {
	alphaData := binary.LittleEndian.Uint64(blockData[0:])

	color0 := binary.LittleEndian.Uint16(blockData[8:])
	color1 := binary.LittleEndian.Uint16(blockData[10:])

	colorCode := binary.LittleEndian.Uint32(blockData[12:])

	r0, g0, b0 := rgb565fromUint16(color0)
	r1, g1, b1 := rgb565fromUint16(color1)

	for y := uint32(0); y < 4; y++ {
		for x := uint32(0); x < 4; x++ {
			// explicit 4 bit alpha, expanded by repetition
			finalAlpha := byte((alphaData>>(4*(4*y+x)))&0xf) * 0x11

			positionCode := (colorCode >> (2 * ((4 * y) + x))) & 3

			r, g, b, _ := dxColorFromPosition(
				positionCode, true,
				r0, g0, b0, r1, g1, b1)

			outColors[x+y*4] = color.NRGBA{R: r, G: g, B: b, A: finalAlpha}
		}
	}
}

func DecompressImageDX3(data []byte, w, h int) (*image.NRGBA, error) {
	blocks, blocksPerRow, err := checkBlockDataSize("dxt3", data, w, h, 16)
	if err != nil {
		return nil, err
	}
	return decomporessImageDX(blocks, blocksPerRow, w, h,
		func(blockIndex int, outColors []color.NRGBA) {
			decompressBlockDXT3(data[blockIndex*0x10:], outColors)
		}), nil
}
