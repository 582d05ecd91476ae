package mat

import (
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/pack/perm/txr"
	"github.com/JonYeb/sleeping_dogs_browser/utils/gltfutils"
)

type GLTFMaterialExported struct {
	MaterialId uint32
}

func (m *Material) ExportGLTF(crsrc *perm.PermChunkRsrc, gltfCacher *gltfutils.GLTFCacher) (*GLTFMaterialExported, error) {
	glme := &GLTFMaterialExported{}
	defer gltfCacher.AddCache(m.UID, glme)

	gltfMaterial := &gltf.Material{
		Name:                 crsrc.Name(),
		DoubleSided:          true,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{},
	}

	texture, err := m.Texture(crsrc.Perm, m.DiffuseTextureUID)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to resolve diffuse texture of %q", crsrc.Name())
	}
	if texture != nil {
		var gte *txr.GLTFTextureExported
		if cached := gltfCacher.GetCached(texture.UID); cached != nil {
			gte = cached.(*txr.GLTFTextureExported)
		} else {
			chunk := crsrc.Perm.GetChunkByUID(m.DiffuseTextureUID)
			gte, err = texture.ExportGLTF(crsrc.Perm.GetChunkResource(chunk.Id), gltfCacher)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to export diffuse texture of %q", crsrc.Name())
			}
		}

		gltfMaterial.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{
			Index: gte.TextureIndex,
		}
	}

	glme.MaterialId = uint32(len(gltfCacher.Doc.Materials))
	gltfCacher.Doc.Materials = append(gltfCacher.Doc.Materials, gltfMaterial)

	return glme, nil
}
