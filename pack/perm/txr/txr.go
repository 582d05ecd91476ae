package txr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/JonYeb/sleeping_dogs_browser/config"
	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/pc/dds"
	"github.com/JonYeb/sleeping_dogs_browser/pc/textureformats"
)

const TEXTURE_HEADER_WORDS = 55

// format tags in texture headers
const (
	FORMAT_BGRA = 0
	FORMAT_DXT1 = 1
	FORMAT_DXT3 = 2
	FORMAT_DXT5 = 3
)

// dimension codes, square sizes from 64 up to 2048
const (
	DIMENSION_CODE_FIRST = 0x10005
	DIMENSION_CODE_LAST  = 0x1000a
	DIMENSION_FIRST_SIZE = 64
)

type UnsupportedFormatError struct {
	Tag uint32
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported texture format tag 0x%x", e.Tag)
}

// Texture is a texture chunk. The chunk itself holds only the header,
// pixel data lives in the companion temp file at TempOffset.
type Texture struct {
	UID        uint32
	Format     uint32
	Width      int
	Height     int
	MipMaps    int
	TempOffset uint32
	TempLength uint32
	Header     [TEXTURE_HEADER_WORDS]uint32

	data []byte
}

func NewFromData(crsrc *perm.PermChunkRsrc) (*Texture, error) {
	c := crsrc.Cursor()

	t := &Texture{UID: crsrc.Chunk.UID}
	copy(t.Header[:], c.ReadLU32Table(TEXTURE_HEADER_WORDS))
	if err := c.Err(); err != nil {
		return nil, errors.Wrapf(err, "Failed to read texture header")
	}

	t.Format = t.Header[1]
	switch t.Format {
	case FORMAT_BGRA, FORMAT_DXT1, FORMAT_DXT3, FORMAT_DXT5:
	default:
		return nil, &UnsupportedFormatError{Tag: t.Format}
	}

	code := t.Header[4]
	if code < DIMENSION_CODE_FIRST || code > DIMENSION_CODE_LAST {
		return nil, errors.Errorf("Unsupported texture dimension code 0x%x", code)
	}
	size := DIMENSION_FIRST_SIZE << (code - DIMENSION_CODE_FIRST)
	t.Width, t.Height = size, size

	t.TempOffset = t.Header[12]
	t.TempLength = t.Header[13]

	tempData := crsrc.Perm.TempData
	if tempData == nil {
		return nil, errors.Errorf("No temp file data loaded for texture '%s'", crsrc.Name())
	}
	end := int64(t.TempOffset) + int64(t.TempLength)
	if end > int64(len(tempData)) {
		return nil, errors.Errorf("Texture payload [0x%x:0x%x] outside temp data of size 0x%x",
			t.TempOffset, end, len(tempData))
	}
	t.data = tempData[t.TempOffset:end]

	t.MipMaps = dds.CountMipMaps(t.FourCC(), t.Width, t.Height, len(t.data))
	if t.MipMaps == 0 {
		return nil, errors.Errorf("Texture payload of 0x%x bytes too small for %dx%d top level",
			len(t.data), t.Width, t.Height)
	}

	return t, nil
}

func (t *Texture) FourCC() string {
	switch t.Format {
	case FORMAT_DXT1:
		return "DXT1"
	case FORMAT_DXT3:
		return "DXT3"
	case FORMAT_DXT5:
		return "DXT5"
	}
	return ""
}

// DDS wraps the raw payload into a standalone dds file.
func (t *Texture) DDS() []byte {
	hdr := dds.Header{Width: t.Width, Height: t.Height, MipMaps: t.MipMaps, FourCC: t.FourCC()}
	return append(hdr.Marshal(), t.data...)
}

// Image decodes one mip level.
func (t *Texture) Image(level int) (*image.NRGBA, error) {
	if level < 0 || level >= t.MipMaps {
		return nil, errors.Errorf("Mip level %d out of range, texture has %d levels", level, t.MipMaps)
	}

	offset := 0
	w, h := t.Width, t.Height
	for i := 0; i < level; i++ {
		offset += dds.LevelSize(t.FourCC(), w, h)
		w /= 2
		h /= 2
	}

	data := t.data[offset:]
	switch t.Format {
	case FORMAT_DXT1:
		return textureformats.DecompressImageDX1(data, w, h)
	case FORMAT_DXT3:
		return textureformats.DecompressImageDX3(data, w, h)
	case FORMAT_DXT5:
		return textureformats.DecompressImageDX5(data, w, h)
	default:
		return textureformats.ImageFromBGRA(data, w, h)
	}
}

func downscalePreview(img *image.NRGBA, limit int) image.Image {
	b := img.Bounds()
	if limit <= 0 || (b.Dx() <= limit && b.Dy() <= limit) {
		return img
	}

	maxDim := b.Dx()
	if b.Dy() > maxDim {
		maxDim = b.Dy()
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*limit/maxDim, b.Dy()*limit/maxDim))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

type AjaxImage struct {
	MipLevel int
	Width    int
	Height   int
	Image    []byte
}

type Ajax struct {
	Data   *Texture
	Images []AjaxImage
}

func (t *Texture) Marshal(crsrc *perm.PermChunkRsrc) (interface{}, error) {
	res := &Ajax{Data: t}

	for level := 0; level < t.MipMaps; level++ {
		img, err := t.Image(level)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to decode mip %d of '%s'", level, crsrc.Name())
		}

		preview := downscalePreview(img, config.GetSettings().PreviewSizeLimit)

		var buf bytes.Buffer
		if err := png.Encode(&buf, preview); err != nil {
			return nil, errors.Wrapf(err, "Failed to encode mip %d of '%s'", level, crsrc.Name())
		}

		res.Images = append(res.Images, AjaxImage{
			MipLevel: level,
			Width:    img.Bounds().Dx(),
			Height:   img.Bounds().Dy(),
			Image:    buf.Bytes(),
		})
	}

	return res, nil
}

func init() {
	perm.SetServer(perm.TYPE_TEXTURE, func(crsrc *perm.PermChunkRsrc) (perm.File, error) {
		return NewFromData(crsrc)
	})
}
