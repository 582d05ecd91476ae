package mdl

import (
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/pack/perm/mat"
	"github.com/JonYeb/sleeping_dogs_browser/pack/perm/skel"
	"github.com/JonYeb/sleeping_dogs_browser/pack/perm/strm"
)

type MissingReferenceError struct {
	Kind string
	UID  uint32
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("no %s chunk with uid 0x%.8x in container", e.Kind, e.UID)
}

// game space is y up, assembled models are z up like the game's art
// pipeline tools expect
var gameToExportSpace = mgl32.Mat3FromRows(
	mgl32.Vec3{1, 0, 0},
	mgl32.Vec3{0, 0, 1},
	mgl32.Vec3{0, 1, 0},
)

// FaceGroup selects a run of Mesh.Indices rendered with one material.
type FaceGroup struct {
	MaterialUID uint32
	FirstIndex  int
	IndexCount  int
}

// Mesh combines the streams one position stream is referenced by.
// Several descriptors can share the position stream, each contributes
// a face group.
type Mesh struct {
	Name              string
	PositionStreamUID uint32
	Vertices          []mgl32.Vec3
	UVs               []mgl32.Vec2
	Normals           []mgl32.Vec3
	Skin              []strm.SkinVertex
	Indices           []uint16
	FaceGroups        []FaceGroup
}

// Model is the assembled form of a mesh info chunk. Descriptors that
// reference broken or absent streams are skipped and recorded in
// Issues instead of failing the whole model.
type Model struct {
	UID       uint32
	Info      *MeshInfo
	BoneNames []string
	Meshes    []*Mesh
	Issues    []string
}

func (m *Model) issuef(format string, args ...interface{}) {
	m.Issues = append(m.Issues, fmt.Sprintf(format, args...))
}

func resolveStream(p *perm.Perm, kind string, uid uint32) (*strm.Stream, error) {
	chunk := p.GetChunkByUID(uid)
	if chunk == nil {
		return nil, &MissingReferenceError{Kind: kind + " stream", UID: uid}
	}

	instance, err := p.GetInstanceFromChunk(chunk.Id)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load %s stream 0x%.8x", kind, uid)
	}

	stream, ok := instance.(*strm.Stream)
	if !ok {
		return nil, errors.Errorf("Chunk 0x%.8x referenced as %s stream is %s",
			uid, kind, perm.TypeTagName(chunk.Header.TypeTag))
	}
	return stream, nil
}

func NewFromData(crsrc *perm.PermChunkRsrc) (*Model, error) {
	info, err := NewMeshInfoFromData(crsrc)
	if err != nil {
		return nil, err
	}

	m := &Model{UID: crsrc.Chunk.UID, Info: info}
	p := crsrc.Perm

	if boneTables := p.GetChunksByTypeTag(perm.TYPE_BONE_TABLE); len(boneTables) != 0 {
		if instance, err := p.GetInstanceFromChunk(boneTables[0].Id); err == nil {
			m.BoneNames = instance.(*skel.BoneTable).BoneNames()
		} else {
			m.issuef("Failed to load bone table '%s': %v", boneTables[0].Name, err)
		}
	}

	meshByStream := make(map[uint32]*Mesh)
	for i := range info.Descs {
		desc := &info.Descs[i]

		indexStream, err := resolveStream(p, "index", desc.IndexStreamUID())
		if err != nil {
			m.issuef("Descriptor %d: %v", i, err)
			continue
		}

		mesh, ok := meshByStream[desc.PositionStreamUID()]
		if !ok {
			mesh, err = newMesh(p, desc)
			if err != nil {
				m.issuef("Descriptor %d: %v", i, err)
				continue
			}
			meshByStream[desc.PositionStreamUID()] = mesh
			m.Meshes = append(m.Meshes, mesh)
		}
		m.attachAttributes(p, i, mesh, desc)

		indices, err := indexStream.Indices()
		if err != nil {
			m.issuef("Descriptor %d: %v", i, err)
			continue
		}
		first := int(desc.FirstIndex())
		count := int(desc.TriangleCount()) * 3
		if first+count > len(indices) {
			m.issuef("Descriptor %d selects indices [%d:%d] from stream 0x%.8x holding %d",
				i, first, first+count, desc.IndexStreamUID(), len(indices))
			continue
		}

		mesh.FaceGroups = append(mesh.FaceGroups, FaceGroup{
			MaterialUID: desc.MaterialUID(),
			FirstIndex:  len(mesh.Indices),
			IndexCount:  count,
		})
		mesh.Indices = append(mesh.Indices, indices[first:first+count]...)
	}

	if len(m.Issues) != 0 {
		log.Printf("[mdl] Model '%s' assembled with %d issues", crsrc.Name(), len(m.Issues))
	}
	return m, nil
}

func newMesh(p *perm.Perm, desc *MeshDesc) (*Mesh, error) {
	stream, err := resolveStream(p, "position", desc.PositionStreamUID())
	if err != nil {
		return nil, err
	}

	positions, err := stream.Positions()
	if err != nil {
		return nil, err
	}
	for i := range positions {
		positions[i] = gameToExportSpace.Mul3x1(positions[i])
	}

	return &Mesh{
		Name:              p.GetChunkByUID(desc.PositionStreamUID()).Name,
		PositionStreamUID: desc.PositionStreamUID(),
		Vertices:          positions,
	}, nil
}

// attachAttributes adds uv, skin and normal data to the mesh from the
// streams the descriptor names. The first descriptor that carries a
// working stream of a kind wins.
func (m *Model) attachAttributes(p *perm.Perm, iDesc int, mesh *Mesh, desc *MeshDesc) {
	if mesh.UVs == nil && desc.UVStreamUID() != 0 {
		if stream, err := resolveStream(p, "uv", desc.UVStreamUID()); err != nil {
			m.issuef("Descriptor %d: %v", iDesc, err)
		} else if uvs, err := stream.UVs(); err != nil {
			m.issuef("Descriptor %d: %v", iDesc, err)
		} else if len(uvs) != len(mesh.Vertices) {
			m.issuef("Descriptor %d: uv stream 0x%.8x has %d elements for %d vertices",
				iDesc, desc.UVStreamUID(), len(uvs), len(mesh.Vertices))
		} else {
			// texture space starts at the bottom left in game data
			for i := range uvs {
				uvs[i][1] = 1 - uvs[i][1]
			}
			mesh.UVs = uvs
		}
	}

	if mesh.Skin == nil && desc.SkinStreamUID() != 0 {
		if stream, err := resolveStream(p, "skin", desc.SkinStreamUID()); err != nil {
			m.issuef("Descriptor %d: %v", iDesc, err)
		} else if skin, err := stream.Skin(); err != nil {
			m.issuef("Descriptor %d: %v", iDesc, err)
		} else if len(skin) != len(mesh.Vertices) {
			m.issuef("Descriptor %d: skin stream 0x%.8x has %d elements for %d vertices",
				iDesc, desc.SkinStreamUID(), len(skin), len(mesh.Vertices))
		} else {
			mesh.Skin = skin
		}
	}

	if mesh.Normals == nil && desc.NormalStreamUID() != 0 {
		if stream, err := resolveStream(p, "normal", desc.NormalStreamUID()); err != nil {
			m.issuef("Descriptor %d: %v", iDesc, err)
		} else if normals, err := stream.Normals(); err != nil {
			m.issuef("Descriptor %d: %v", iDesc, err)
		} else if len(normals) != len(mesh.Vertices) {
			m.issuef("Descriptor %d: normal stream 0x%.8x has %d elements for %d vertices",
				iDesc, desc.NormalStreamUID(), len(normals), len(mesh.Vertices))
		} else {
			for i := range normals {
				normals[i] = gameToExportSpace.Mul3x1(normals[i])
			}
			mesh.Normals = normals
		}
	}
}

// Material resolves a face group material inside the same container,
// nil when the container does not carry it.
func (m *Model) Material(p *perm.Perm, uid uint32) (*mat.Material, error) {
	chunk := p.GetChunkByUID(uid)
	if chunk == nil {
		return nil, nil
	}

	instance, err := p.GetInstanceFromChunk(chunk.Id)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load material 0x%.8x", uid)
	}

	material, ok := instance.(*mat.Material)
	if !ok {
		return nil, errors.Errorf("Chunk 0x%.8x referenced as material is %s",
			uid, perm.TypeTagName(chunk.Header.TypeTag))
	}
	return material, nil
}

// MaterialUIDs lists referenced materials in face group order without
// duplicates.
func (m *Model) MaterialUIDs() []uint32 {
	uids := make([]uint32, 0)
	seen := make(map[uint32]struct{})
	for _, mesh := range m.Meshes {
		for _, group := range mesh.FaceGroups {
			if _, ok := seen[group.MaterialUID]; !ok {
				seen[group.MaterialUID] = struct{}{}
				uids = append(uids, group.MaterialUID)
			}
		}
	}
	return uids
}

type Ajax struct {
	Data      *Model
	Materials map[uint32]interface{}
}

func (m *Model) Marshal(crsrc *perm.PermChunkRsrc) (interface{}, error) {
	res := &Ajax{Data: m, Materials: make(map[uint32]interface{})}

	for _, uid := range m.MaterialUIDs() {
		material, err := m.Material(crsrc.Perm, uid)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to load material 0x%.8x of '%s'", uid, crsrc.Name())
		}
		if material == nil {
			continue
		}

		chunk := crsrc.Perm.GetChunkByUID(uid)
		marshaled, err := material.Marshal(crsrc.Perm.GetChunkResource(chunk.Id))
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to marshal material '%s'", chunk.Name)
		}
		res.Materials[uid] = marshaled
	}

	return res, nil
}

func init() {
	perm.SetServer(perm.TYPE_MESH_INFO, func(crsrc *perm.PermChunkRsrc) (perm.File, error) {
		return NewFromData(crsrc)
	})
}
