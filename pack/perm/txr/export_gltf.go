package txr

import (
	"bytes"
	"image/png"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/utils/gltfutils"
)

type GLTFTextureExported struct {
	TextureIndex uint32
	ImageIndex   uint32
	SamplerIndex uint32
}

func (t *Texture) ExportGLTF(crsrc *perm.PermChunkRsrc, gltfCacher *gltfutils.GLTFCacher) (*GLTFTextureExported, error) {
	gte := &GLTFTextureExported{}
	defer gltfCacher.AddCache(t.UID, gte)

	doc := gltfCacher.Doc

	// sampler bits of the header are not reversed yet
	gte.SamplerIndex = uint32(len(doc.Samplers))
	doc.Samplers = append(doc.Samplers, &gltf.Sampler{
		Name:      crsrc.Name() + "_sampler",
		MinFilter: gltf.MinLinear,
		MagFilter: gltf.MagLinear,
		WrapS:     gltf.WrapRepeat,
		WrapT:     gltf.WrapRepeat,
	})

	img, err := t.Image(0)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to decode image %q", crsrc.Name())
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrapf(err, "Unable to encode image %q", crsrc.Name())
	}

	gte.ImageIndex, err = modeler.WriteImage(doc, crsrc.Name()+"_image", "image/png", bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to write gltf image")
	}

	gte.TextureIndex = uint32(len(doc.Textures))
	doc.Textures = append(doc.Textures, &gltf.Texture{
		Name:    crsrc.Name(),
		Sampler: gltf.Index(gte.SamplerIndex),
		Source:  gltf.Index(gte.ImageIndex),
	})

	return gte, nil
}
