package dds

import (
	"github.com/JonYeb/sleeping_dogs_browser/utils"
)

const (
	DDSD_CAPS        = 0x1
	DDSD_HEIGHT      = 0x2
	DDSD_WIDTH       = 0x4
	DDSD_PITCH       = 0x8
	DDSD_PIXELFORMAT = 0x1000
	DDSD_MIPMAPCOUNT = 0x20000
	DDSD_LINEARSIZE  = 0x80000

	DDPF_ALPHAPIXELS = 0x1
	DDPF_FOURCC      = 0x4
	DDPF_RGB         = 0x40

	DDSCAPS_COMPLEX = 0x8
	DDSCAPS_TEXTURE = 0x1000
	DDSCAPS_MIPMAP  = 0x400000
)

// Header describes a dds surface. Empty FourCC means an uncompressed
// b8g8r8a8 surface, otherwise one of DXT1, DXT3, DXT5.
type Header struct {
	Width   int
	Height  int
	MipMaps int
	FourCC  string
}

type fileHeader struct {
	Magic             [4]byte
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PfSize            uint32
	PfFlags           uint32
	PfFourCC          [4]byte
	PfRGBBitCount     uint32
	PfRBitMask        uint32
	PfGBitMask        uint32
	PfBBitMask        uint32
	PfABitMask        uint32
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

// LevelSize returns the byte size of a single mip level.
func LevelSize(fourCC string, w, h int) int {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	switch fourCC {
	case "":
		return w * h * 4
	case "DXT1":
		return ((w + 3) / 4) * ((h + 3) / 4) * 8
	default:
		return ((w + 3) / 4) * ((h + 3) / 4) * 16
	}
}

// CountMipMaps derives how many whole mip levels fit in dataLen
// bytes. Returns 0 when even the top level does not fit.
func CountMipMaps(fourCC string, w, h, dataLen int) int {
	count := 0
	total := 0
	for {
		size := LevelSize(fourCC, w, h)
		if total+size > dataLen {
			break
		}
		total += size
		count++
		if w <= 1 && h <= 1 {
			break
		}
		w /= 2
		h /= 2
	}
	return count
}

// Marshal produces the 128 byte file header.
func (h *Header) Marshal() []byte {
	raw := fileHeader{
		Magic:       [4]byte{'D', 'D', 'S', ' '},
		Size:        0x7c,
		Flags:       DDSD_CAPS | DDSD_HEIGHT | DDSD_WIDTH | DDSD_PIXELFORMAT,
		Height:      uint32(h.Height),
		Width:       uint32(h.Width),
		MipMapCount: uint32(h.MipMaps),
		PfSize:      0x20,
		Caps:        DDSCAPS_TEXTURE,
	}

	if h.MipMaps > 1 {
		raw.Flags |= DDSD_MIPMAPCOUNT
		raw.Caps |= DDSCAPS_COMPLEX | DDSCAPS_MIPMAP
	}

	if h.FourCC == "" {
		raw.Flags |= DDSD_PITCH
		raw.PitchOrLinearSize = uint32(h.Width * 4)
		raw.PfFlags = DDPF_RGB | DDPF_ALPHAPIXELS
		raw.PfRGBBitCount = 32
		raw.PfRBitMask = 0x00ff0000
		raw.PfGBitMask = 0x0000ff00
		raw.PfBBitMask = 0x000000ff
		raw.PfABitMask = 0xff000000
	} else {
		raw.Flags |= DDSD_LINEARSIZE
		raw.PitchOrLinearSize = uint32(LevelSize(h.FourCC, h.Width, h.Height))
		raw.PfFlags = DDPF_ALPHAPIXELS | DDPF_FOURCC
		copy(raw.PfFourCC[:], h.FourCC)
	}

	return utils.AsBytes(&raw)
}
