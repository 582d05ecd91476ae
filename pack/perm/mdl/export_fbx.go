package mdl

import (
	"path/filepath"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/pack/perm/mat"
	"github.com/JonYeb/sleeping_dogs_browser/utils/fbxbuilder"
)

type FbxExportMesh struct {
	FbxGeometryId int64
	FbxGeometry   *fbx.Node
	FbxModelId    int64
	FbxModel      *fbx.Node

	Mesh *Mesh
}

type FbxExporter struct {
	Meshes []*FbxExportMesh
}

func (fe *FbxExporter) exportMesh(f *fbxbuilder.FBXBuilder, mesh *Mesh, materials map[uint32]*mat.FbxExporter) {
	fem := &FbxExportMesh{Mesh: mesh}

	vertices := make([]float64, 0, len(mesh.Vertices)*3)
	for _, v := range mesh.Vertices {
		vertices = append(vertices, float64(v[0]), float64(v[1]), float64(v[2]))
	}

	triangles := 0
	for _, group := range mesh.FaceGroups {
		triangles += group.IndexCount / 3
	}

	indexes := make([]int32, 0, triangles*3)
	uvindexes := make([]int32, 0, triangles*3)
	polygonMaterials := make([]int32, 0, triangles)

	// connection order on the model node defines the material slots
	materialSlots := make([]*mat.FbxExporter, 0)
	slotByUID := make(map[uint32]int32)

	for _, group := range mesh.FaceGroups {
		slot := int32(0)
		if materialFe, ok := materials[group.MaterialUID]; ok {
			if s, alreadySlotted := slotByUID[group.MaterialUID]; alreadySlotted {
				slot = s
			} else {
				slot = int32(len(materialSlots))
				slotByUID[group.MaterialUID] = slot
				materialSlots = append(materialSlots, materialFe)
			}
		}
		for i := group.FirstIndex; i < group.FirstIndex+group.IndexCount; i += 3 {
			a := int32(mesh.Indices[i])
			b := int32(mesh.Indices[i+1])
			c := int32(mesh.Indices[i+2])
			indexes = append(indexes, a, b, -(c)-1)
			uvindexes = append(uvindexes, a, b, c)
			polygonMaterials = append(polygonMaterials, slot)
		}
	}

	fem.FbxGeometryId = f.GenerateId()

	geometryLayer := bfbx73.Layer(0).AddNodes(
		bfbx73.Version(100),
	)

	geometry := bfbx73.Geometry(fem.FbxGeometryId, "\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
		geometryLayer,
	)

	if mesh.Normals != nil {
		normals := make([]float64, 0, len(mesh.Normals)*3)
		for _, n := range mesh.Normals {
			normals = append(normals, float64(n[0]), float64(n[1]), float64(n[2]))
		}
		geometry.AddNode(
			bfbx73.LayerElementNormal(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByVertice"),
				bfbx73.ReferenceInformationType("Direct"),
				bfbx73.Normals(normals),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementNormal"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	if mesh.UVs != nil {
		uv := make([]float64, 0, len(mesh.UVs)*2)
		for _, v := range mesh.UVs {
			uv = append(uv, float64(v[0]), float64(v[1]))
		}
		geometry.AddNode(
			bfbx73.LayerElementUV(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("IndexToDirect"),
				bfbx73.UV(uv),
				bfbx73.UVIndex(uvindexes),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementUV"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	var materialLayer *fbx.Node
	if len(materialSlots) > 1 {
		materialLayer = bfbx73.LayerElementMaterial(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("ByPolygon"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.Materials(polygonMaterials),
		)
	} else {
		materialLayer = bfbx73.LayerElementMaterial(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("AllSame"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.Materials([]int32{0}),
		)
	}
	geometry.AddNode(materialLayer)
	geometryLayer.AddNode(
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type("LayerElementMaterial"),
			bfbx73.TypedIndex(0),
		),
	)

	fem.FbxGeometry = geometry
	fem.FbxModelId = f.GenerateId()
	fem.FbxModel = bfbx73.Model(fem.FbxModelId, mesh.Name+"\x00\x01Model", "Mesh").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)

	f.AddObjects(fem.FbxModel, geometry)
	f.AddConnections(bfbx73.C("OO", fem.FbxGeometryId, fem.FbxModelId))
	for _, materialFe := range materialSlots {
		f.AddConnections(bfbx73.C("OO", materialFe.MaterialId, fem.FbxModelId))
	}

	fe.Meshes = append(fe.Meshes, fem)
}

func (m *Model) ExportFbx(crsrc *perm.PermChunkRsrc, f *fbxbuilder.FBXBuilder) (*FbxExporter, error) {
	fe := &FbxExporter{
		Meshes: make([]*FbxExportMesh, 0, len(m.Meshes)),
	}
	defer f.AddCache(m.UID, fe)

	materials := make(map[uint32]*mat.FbxExporter)
	for _, uid := range m.MaterialUIDs() {
		material, err := m.Material(crsrc.Perm, uid)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to load material 0x%.8x", uid)
		}
		if material == nil {
			continue
		}

		var materialFe *mat.FbxExporter
		if cached := f.GetCached(uid); cached != nil {
			materialFe = cached.(*mat.FbxExporter)
		} else {
			chunk := crsrc.Perm.GetChunkByUID(uid)
			materialFe, err = material.ExportFbx(crsrc.Perm.GetChunkResource(chunk.Id), f)
			if err != nil {
				return nil, errors.Wrapf(err, "Failed to export material 0x%.8x", uid)
			}
		}
		materials[uid] = materialFe
	}

	for _, mesh := range m.Meshes {
		fe.exportMesh(f, mesh, materials)
	}

	return fe, nil
}

func (m *Model) ExportFbxDefault(crsrc *perm.PermChunkRsrc) (*fbxbuilder.FBXBuilder, error) {
	f := fbxbuilder.NewFBXBuilder(filepath.Join(crsrc.Perm.Name(), crsrc.Name()))

	fe, err := m.ExportFbx(crsrc, f)
	if err != nil {
		return nil, err
	}

	for _, fem := range fe.Meshes {
		f.AddConnections(bfbx73.C("OO", fem.FbxModelId, 0))
	}

	return f, nil
}
