package txr

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/utils/fbxbuilder"
)

type FbxExporter struct {
	TextureId int64
	VideoId   int64
}

func (t *Texture) ExportFbx(crsrc *perm.PermChunkRsrc, f *fbxbuilder.FBXBuilder) (*FbxExporter, error) {
	fe := &FbxExporter{
		TextureId: f.GenerateId(),
		VideoId:   f.GenerateId(),
	}
	defer f.AddCache(t.UID, fe)

	img, err := t.Image(0)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to decode image %q", crsrc.Name())
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrapf(err, "Unable to encode image %q", crsrc.Name())
	}

	fileName := fmt.Sprintf("%s_0x%.8x.png", crsrc.Name(), t.UID)
	f.AddExportFile(fileName, buf.Bytes())

	video := fbxbuilder.Video(fe.VideoId, crsrc.Name()+"\x00\x01Video", "Clip").AddNodes(
		bfbx73.Type("Clip"),
		fbxbuilder.UseMipMap(0),
		fbxbuilder.Filename(fileName),
		fbxbuilder.RelativeFilename(fileName),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Path", "KString", "XRefUrl", "", fileName),
		),
	)

	texture := fbxbuilder.Texture(fe.TextureId, crsrc.Name()+"\x00\x01Texture", "").AddNodes(
		bfbx73.Type("TextureVideoClip"),
		bfbx73.Version(202),
		fbxbuilder.TextureName(crsrc.Name()+"\x00\x01Texture"),
		fbxbuilder.Media(crsrc.Name()+"\x00\x01Video"),
		fbxbuilder.FileName(fileName),
		fbxbuilder.RelativeFilename(fileName),
		fbxbuilder.ModelUVTranslation(0, 0),
		fbxbuilder.ModelUVScaling(1, 1),
		fbxbuilder.TextureAlphaSource("None"),
		fbxbuilder.Cropping(0, 0, 0, 0),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("UseMaterial", "bool", "", "", int32(1)),
			bfbx73.P("CurrentTextureBlendMode", "enum", "", "", int32(0)),
		),
	)

	f.AddObjects(texture, video)
	f.AddConnections(bfbx73.C("OO", fe.VideoId, fe.TextureId))

	return fe, nil
}
