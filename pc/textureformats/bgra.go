package textureformats

import (
	"image"

	"github.com/pkg/errors"
)

// ImageFromBGRA converts a raw 32 bit b8g8r8a8 surface, the layout
// uncompressed pc textures are stored in.
func ImageFromBGRA(data []byte, w, h int) (*image.NRGBA, error) {
	if need := w * h * 4; len(data) < need {
		return nil, errors.Errorf("Not enough data for %dx%d bgra image: need 0x%x, have 0x%x",
			w, h, need, len(data))
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Pix[i*4+0] = data[i*4+2]
		img.Pix[i*4+1] = data[i*4+1]
		img.Pix[i*4+2] = data[i*4+0]
		img.Pix[i*4+3] = data[i*4+3]
	}
	return img, nil
}
