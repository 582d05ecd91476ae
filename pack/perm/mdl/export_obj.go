package mdl

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
)

// ExportObj writes the model as a wavefront obj plus a material library.
// The returned map holds png encoded textures referenced from the matlib,
// keyed by file name without extension.
func (m *Model) ExportObj(crsrc *perm.PermChunkRsrc, matlibRelativePath string, w io.Writer, wMatlib io.Writer) (map[string][]byte, error) {
	wr := func(format string, args ...interface{}) {
		fmt.Fprintf(w, format+"\n", args...)
	}

	wr("mtllib %s", filepath.Base(matlibRelativePath))

	textures := make(map[string][]byte)
	materialNames := make(map[uint32]string)
	for _, uid := range m.MaterialUIDs() {
		material, err := m.Material(crsrc.Perm, uid)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to load material 0x%.8x", uid)
		}
		if material == nil {
			continue
		}

		chunk := crsrc.Perm.GetChunkByUID(uid)
		name := fmt.Sprintf("0x%.8x_%s", uid, chunk.Name)
		materialNames[uid] = name

		fmt.Fprintf(wMatlib, "newmtl %s\nKd 1.0 1.0 1.0\n", name)

		texture, err := material.Texture(crsrc.Perm, material.DiffuseTextureUID)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to load diffuse texture of material 0x%.8x", uid)
		}
		if texture != nil {
			img, err := texture.Image(0)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to decode texture 0x%.8x", texture.UID)
			}
			var imgBuf bytes.Buffer
			if err := png.Encode(&imgBuf, img); err != nil {
				return nil, errors.Wrapf(err, "Failed to encode texture 0x%.8x", texture.UID)
			}

			texChunk := crsrc.Perm.GetChunkByUID(texture.UID)
			imgName := fmt.Sprintf("%s_0x%.8x", texChunk.Name, texture.UID)
			fmt.Fprintf(wMatlib, "map_Ka %s.png\nmap_Kd %s.png\n", imgName, imgName)
			textures[imgName] = imgBuf.Bytes()
		}
		fmt.Fprintf(wMatlib, "\n")
	}

	iV := 1
	iT := 1
	iN := 1
	for _, mesh := range m.Meshes {
		for _, v := range mesh.Vertices {
			wr("v %f %f %f", v[0], v[1], v[2])
		}
		for _, uv := range mesh.UVs {
			wr("vt %f %f", uv[0], uv[1])
		}
		for _, n := range mesh.Normals {
			wr("vn %f %f %f", n[0], n[1], n[2])
		}

		haveUV := mesh.UVs != nil
		haveNorm := mesh.Normals != nil

		for iGroup, group := range mesh.FaceGroups {
			wr("o %s_fg%.2d", mesh.Name, iGroup)
			if name, ok := materialNames[group.MaterialUID]; ok {
				wr("usemtl %s", name)
			}

			for i := group.FirstIndex; i < group.FirstIndex+group.IndexCount; i += 3 {
				a := int(mesh.Indices[i])
				b := int(mesh.Indices[i+1])
				c := int(mesh.Indices[i+2])
				if haveNorm {
					if haveUV {
						wr("f %v/%v/%v %v/%v/%v %v/%v/%v",
							iV+a, iT+a, iN+a,
							iV+b, iT+b, iN+b,
							iV+c, iT+c, iN+c)
					} else {
						wr("f %v//%v %v//%v %v//%v",
							iV+a, iN+a,
							iV+b, iN+b,
							iV+c, iN+c)
					}
				} else {
					if haveUV {
						wr("f %v/%v %v/%v %v/%v",
							iV+a, iT+a,
							iV+b, iT+b,
							iV+c, iT+c)
					} else {
						wr("f %v %v %v", iV+a, iV+b, iV+c)
					}
				}
			}
		}

		iV += len(mesh.Vertices)
		iT += len(mesh.UVs)
		iN += len(mesh.Normals)
	}

	return textures, nil
}
