package txr

import (
	"bytes"
	"image/png"
	"io"
	"net/http"
	"strconv"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/webutils"
)

// Encode writes the texture in the named container format.
// dds keeps the compressed payload as is, the other formats
// decode the requested mip level first.
func (t *Texture) Encode(out io.Writer, format string, mipLevel int) error {
	if format == "dds" {
		_, err := out.Write(t.DDS())
		return err
	}

	img, err := t.Image(mipLevel)
	if err != nil {
		return err
	}

	switch format {
	case "png":
		return png.Encode(out, img)
	case "webp":
		return nativewebp.Encode(out, img, nil)
	case "tga":
		return tga.Encode(out, img)
	}
	return errors.Errorf("Unknown texture format '%s'", format)
}

func (t *Texture) HttpAction(crsrc *perm.PermChunkRsrc, w http.ResponseWriter, r *http.Request, action string) {
	mipLevel := 0
	if s := r.FormValue("mip"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			mipLevel = parsed
		}
	}

	switch action {
	case "dds", "png", "webp", "tga":
		var buf bytes.Buffer
		if err := t.Encode(&buf, action, mipLevel); err != nil {
			webutils.WriteError(w, errors.Wrapf(err, "Failed to encode '%s' as %s", crsrc.Name(), action))
			return
		}
		webutils.WriteFile(w, &buf, crsrc.Name()+"."+action)
	default:
		webutils.WriteError(w, errors.Errorf("Unknown action '%s'", action))
	}
}
