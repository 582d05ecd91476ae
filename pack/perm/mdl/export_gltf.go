package mdl

import (
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/pack/perm/mat"
	"github.com/JonYeb/sleeping_dogs_browser/utils/gltfutils"
)

type GLTFMeshExported struct {
	GLTFMesh      *gltf.Mesh
	GLTFMeshIndex uint32
}

type GLTFModelExported struct {
	Meshes []*GLTFMeshExported
}

func (m *Model) ExportGLTF(crsrc *perm.PermChunkRsrc, gltfCacher *gltfutils.GLTFCacher) (*GLTFModelExported, error) {
	doc := gltfCacher.Doc
	gme := &GLTFModelExported{}
	defer gltfCacher.AddCache(m.UID, gme)

	// materials first so primitives can point at them
	materialIndex := make(map[uint32]uint32)
	for _, uid := range m.MaterialUIDs() {
		material, err := m.Material(crsrc.Perm, uid)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to load material 0x%.8x", uid)
		}
		if material == nil {
			continue
		}

		var gmate *mat.GLTFMaterialExported
		if cached := gltfCacher.GetCached(uid); cached != nil {
			gmate = cached.(*mat.GLTFMaterialExported)
		} else {
			chunk := crsrc.Perm.GetChunkByUID(uid)
			gmate, err = material.ExportGLTF(crsrc.Perm.GetChunkResource(chunk.Id), gltfCacher)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to export material 0x%.8x", uid)
			}
		}
		materialIndex[uid] = gmate.MaterialId
	}

	for _, mesh := range m.Meshes {
		verticesCount := len(mesh.Vertices)

		positions := make([][3]float32, verticesCount)
		for i, v := range mesh.Vertices {
			positions[i] = [3]float32(v)
		}
		attributes := map[string]uint32{
			"POSITION": modeler.WritePosition(doc, positions),
		}

		if mesh.UVs != nil {
			uvs := make([][2]float32, verticesCount)
			for i, uv := range mesh.UVs {
				uvs[i] = [2]float32(uv)
			}
			attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, uvs)
		}

		if mesh.Normals != nil {
			normals := make([][3]float32, verticesCount)
			for i, n := range mesh.Normals {
				if n.Len() > 0.5 {
					n = n.Normalize()
				}
				normals[i] = [3]float32(n)
			}
			attributes["NORMAL"] = modeler.WriteNormal(doc, normals)
		}

		if mesh.Skin != nil {
			joints := make([][4]uint16, verticesCount)
			weights := make([][4]float32, verticesCount)
			for i, sv := range mesh.Skin {
				weights[i] = sv.Weights
				for j := range sv.Joints {
					// zero weight slots keep joint 0 so unused
					// indices never leak into viewers
					if sv.Weights[j] > 0 {
						joints[i][j] = uint16(sv.Joints[j])
					}
				}
			}
			attributes["JOINTS_0"] = modeler.WriteJoints(doc, joints)
			attributes["WEIGHTS_0"] = modeler.WriteWeights(doc, weights)
		}

		primitives := make([]*gltf.Primitive, 0, len(mesh.FaceGroups))
		for _, group := range mesh.FaceGroups {
			indices := make([]uint32, group.IndexCount)
			for i := range indices {
				indices[i] = uint32(mesh.Indices[group.FirstIndex+i])
			}
			indicesAccessor := modeler.WriteIndices(doc, indices)

			primitive := &gltf.Primitive{
				Indices:    &indicesAccessor,
				Attributes: attributes,
			}
			if materialId, ok := materialIndex[group.MaterialUID]; ok {
				primitive.Material = gltf.Index(materialId)
			}
			primitives = append(primitives, primitive)
		}

		gltfMesh := &gltf.Mesh{
			Name:       mesh.Name,
			Primitives: primitives,
		}

		gme.Meshes = append(gme.Meshes, &GLTFMeshExported{
			GLTFMesh:      gltfMesh,
			GLTFMeshIndex: uint32(len(doc.Meshes)),
		})
		doc.Meshes = append(doc.Meshes, gltfMesh)
	}

	return gme, nil
}

func (m *Model) ExportGLTFDefault(crsrc *perm.PermChunkRsrc) (*gltf.Document, error) {
	gltfCacher := gltfutils.NewCacher()
	doc := gltfCacher.Doc

	gme, err := m.ExportGLTF(crsrc, gltfCacher)
	if err != nil {
		return nil, err
	}

	for _, mesh := range gme.Meshes {
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: mesh.GLTFMesh.Name,
			Mesh: gltf.Index(mesh.GLTFMeshIndex),
		})
	}

	return doc, nil
}
