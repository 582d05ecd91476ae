package mat

import (
	"fmt"

	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/pack/perm/txr"
	"github.com/JonYeb/sleeping_dogs_browser/utils/fbxbuilder"
)

type FbxExporter struct {
	MaterialId int64
}

func (m *Material) ExportFbx(crsrc *perm.PermChunkRsrc, f *fbxbuilder.FBXBuilder) (*FbxExporter, error) {
	fe := &FbxExporter{}
	defer f.AddCache(m.UID, fe)

	fe.MaterialId = f.GenerateId()

	material := bfbx73.Material(fe.MaterialId,
		fmt.Sprintf("0x%.8x_%s\x00\x01Material", m.UID, crsrc.Name()), "").AddNodes(
		bfbx73.Version(102),
		bfbx73.ShadingModel("lambert"),
		bfbx73.MultiLayer(0),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("AmbientColor", "Color", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("DiffuseColor", "Color", "", "A", float64(1), float64(1), float64(1)),
			bfbx73.P("Emissive", "Vector3D", "Vector", "", float64(0), float64(0), float64(0)),
			bfbx73.P("Ambient", "Vector3D", "Vector", "", float64(0), float64(0), float64(0)),
			bfbx73.P("Diffuse", "Vector3D", "Vector", "", float64(1), float64(1), float64(1)),
			bfbx73.P("Opacity", "double", "Number", "", float64(1)),
		),
	)

	if err := m.connectTexture(crsrc, f, m.DiffuseTextureUID, "DiffuseColor", fe.MaterialId); err != nil {
		return nil, err
	}
	if err := m.connectTexture(crsrc, f, m.SpecularTextureUID, "SpecularColor", fe.MaterialId); err != nil {
		return nil, err
	}

	f.AddObjects(material)

	return fe, nil
}

func (m *Material) connectTexture(crsrc *perm.PermChunkRsrc, f *fbxbuilder.FBXBuilder,
	uid uint32, property string, materialId int64) error {
	texture, err := m.Texture(crsrc.Perm, uid)
	if err != nil {
		return errors.Wrapf(err, "Failed to resolve %s texture of %q", property, crsrc.Name())
	}
	if texture == nil {
		return nil
	}

	var textureFe *txr.FbxExporter
	if cached := f.GetCached(texture.UID); cached == nil {
		chunk := crsrc.Perm.GetChunkByUID(uid)
		textureFe, err = texture.ExportFbx(crsrc.Perm.GetChunkResource(chunk.Id), f)
		if err != nil {
			return errors.Wrapf(err, "Failed to export %s texture of %q", property, crsrc.Name())
		}
	} else {
		textureFe = cached.(*txr.FbxExporter)
	}

	f.AddConnections(bfbx73.C("OP", textureFe.TextureId, materialId, property))
	return nil
}
