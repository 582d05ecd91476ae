package skel

import (
	"github.com/pkg/errors"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
)

const (
	BONE_TABLE_HEADER_WORDS = 8
	BONE_TABLE_PAD          = 0xa0
	BONE_NAME_SIZE          = 64
)

type Bone struct {
	Name string
	// four packed values per bone, purpose not reversed yet
	Params [4]float32
}

// BoneTable names the joints skin streams index into. Bind pose
// matrices live elsewhere, the table only carries names and a few
// packed values per bone.
type BoneTable struct {
	UID    uint32
	Header [BONE_TABLE_HEADER_WORDS]uint32
	Bones  []Bone
}

func NewFromData(crsrc *perm.PermChunkRsrc) (*BoneTable, error) {
	c := crsrc.Cursor()

	s := &BoneTable{UID: crsrc.Chunk.UID}
	copy(s.Header[:], c.ReadLU32Table(BONE_TABLE_HEADER_WORDS))
	c.Skip(BONE_TABLE_PAD)
	if err := c.Err(); err != nil {
		return nil, errors.Wrapf(err, "Failed to read bone table header")
	}

	count := int(s.Header[1])
	s.Bones = make([]Bone, count)
	for i := range s.Bones {
		s.Bones[i].Name = c.ReadStringFixed(BONE_NAME_SIZE)
	}
	if err := c.Err(); err != nil {
		return nil, errors.Wrapf(err, "Failed to read %d bone names", count)
	}

	for i := range s.Bones {
		for j := range s.Bones[i].Params {
			s.Bones[i].Params[j] = c.ReadUFixp14()
		}
	}
	if err := c.Err(); err != nil {
		return nil, errors.Wrapf(err, "Failed to read bone parameters")
	}

	return s, nil
}

// BoneNames returns the names in table order, skin joint indices are
// offsets into this slice.
func (s *BoneTable) BoneNames() []string {
	names := make([]string, len(s.Bones))
	for i := range s.Bones {
		names[i] = s.Bones[i].Name
	}
	return names
}

func (s *BoneTable) Marshal(crsrc *perm.PermChunkRsrc) (interface{}, error) {
	return s, nil
}

func init() {
	perm.SetServer(perm.TYPE_BONE_TABLE, func(crsrc *perm.PermChunkRsrc) (perm.File, error) {
		return NewFromData(crsrc)
	})
}
