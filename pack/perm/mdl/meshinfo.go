package mdl

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
)

const (
	MESH_INFO_PREFIX_WORDS = 15
	MESH_INFO_HEADER_WORDS = 17
	MESH_DESC_WORDS        = 36
)

// MeshDesc is one drawable part. It references streams and a material
// by uid and selects a slice of the index stream.
type MeshDesc struct {
	Raw [MESH_DESC_WORDS]uint32
}

func (d *MeshDesc) MaterialUID() uint32       { return d.Raw[3] }
func (d *MeshDesc) IndexStreamUID() uint32    { return d.Raw[11] }
func (d *MeshDesc) PositionStreamUID() uint32 { return d.Raw[15] }
func (d *MeshDesc) SkinStreamUID() uint32     { return d.Raw[19] }
func (d *MeshDesc) UVStreamUID() uint32       { return d.Raw[23] }
func (d *MeshDesc) NormalStreamUID() uint32   { return d.Raw[27] }

// FirstIndex is in index units, not triangles
func (d *MeshDesc) FirstIndex() uint32    { return d.Raw[29] }
func (d *MeshDesc) TriangleCount() uint32 { return d.Raw[30] }

type MeshInfo struct {
	UID     uint32
	Header  [MESH_INFO_HEADER_WORDS]uint32
	Offsets []uint32
	Descs   []MeshDesc
}

func NewMeshInfoFromData(crsrc *perm.PermChunkRsrc) (*MeshInfo, error) {
	c := crsrc.Cursor()

	info := &MeshInfo{UID: crsrc.Chunk.UID}
	c.Skip(MESH_INFO_PREFIX_WORDS * 4)
	copy(info.Header[:], c.ReadLU32Table(MESH_INFO_HEADER_WORDS))
	if err := c.Err(); err != nil {
		return nil, errors.Wrapf(err, "Failed to read mesh info header")
	}

	count := int(info.Header[1])
	tableStart := c.Pos()
	info.Offsets = c.ReadLU32Table(count)
	if err := c.Err(); err != nil {
		return nil, errors.Wrapf(err, "Failed to read %d descriptor offsets", count)
	}

	info.Descs = make([]MeshDesc, count)
	for m := range info.Descs {
		// each offset is relative to its own slot in the offset table
		descPos := tableStart + m*4 + int(info.Offsets[m])

		dc := c.SubCursor(fmt.Sprintf("descriptor %d", m), descPos, MESH_DESC_WORDS*4)
		copy(info.Descs[m].Raw[:], dc.ReadLU32Table(MESH_DESC_WORDS))
		if err := dc.Err(); err != nil {
			return nil, errors.Wrapf(err, "Failed to read mesh descriptor %d of %d", m, count)
		}
	}

	return info, nil
}
