package mat

import (
	"github.com/pkg/errors"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/pack/perm/txr"
)

const (
	MAT_HEADER_WORDS = 8
	MAT_PARAM_WORDS  = 8
)

// known parameter tags, the texture uid sits in word 6 of the parameter
const (
	PARAM_DIFFUSE_TEXTURE  = 0xdce06689
	PARAM_SPECULAR_TEXTURE = 0xacbc7a85
)

// Material carries shading parameters for mesh parts. Only the texture
// references are understood, everything else is kept raw.
type Material struct {
	UID    uint32
	Header [MAT_HEADER_WORDS]uint32
	Params [][MAT_PARAM_WORDS]uint32

	DiffuseTextureUID  uint32
	SpecularTextureUID uint32
}

func NewFromData(crsrc *perm.PermChunkRsrc) (*Material, error) {
	c := crsrc.Cursor()

	m := &Material{UID: crsrc.Chunk.UID}
	copy(m.Header[:], c.ReadLU32Table(MAT_HEADER_WORDS))
	if err := c.Err(); err != nil {
		return nil, errors.Wrapf(err, "Failed to read material header")
	}

	count := int(m.Header[4])
	m.Params = make([][MAT_PARAM_WORDS]uint32, 0, count)
	for i := 0; i < count; i++ {
		var p [MAT_PARAM_WORDS]uint32
		copy(p[:], c.ReadLU32Table(MAT_PARAM_WORDS))
		if err := c.Err(); err != nil {
			return nil, errors.Wrapf(err, "Failed to read material parameter %d of %d", i, count)
		}
		m.Params = append(m.Params, p)

		// later parameters override earlier ones
		switch p[0] {
		case PARAM_DIFFUSE_TEXTURE:
			m.DiffuseTextureUID = p[6]
		case PARAM_SPECULAR_TEXTURE:
			m.SpecularTextureUID = p[6]
		}
	}

	return m, nil
}

// Texture resolves a referenced texture inside the same container.
// Returns nil without error when the uid is zero or not present, the
// game streams some textures from other containers.
func (m *Material) Texture(p *perm.Perm, uid uint32) (*txr.Texture, error) {
	if uid == 0 {
		return nil, nil
	}
	chunk := p.GetChunkByUID(uid)
	if chunk == nil {
		return nil, nil
	}

	instance, err := p.GetInstanceFromChunk(chunk.Id)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to get texture instance 0x%.8x", uid)
	}

	texture, ok := instance.(*txr.Texture)
	if !ok {
		return nil, errors.Errorf("Chunk 0x%.8x referenced as texture is %s",
			uid, perm.TypeTagName(chunk.Header.TypeTag))
	}
	return texture, nil
}

type Ajax struct {
	Data            *Material
	DiffuseTexture  interface{}
	SpecularTexture interface{}
}

func (m *Material) Marshal(crsrc *perm.PermChunkRsrc) (interface{}, error) {
	res := &Ajax{Data: m}

	var err error
	if res.DiffuseTexture, err = m.marshalTexture(crsrc.Perm, m.DiffuseTextureUID); err != nil {
		return nil, errors.Wrapf(err, "Failed to marshal diffuse texture of '%s'", crsrc.Name())
	}
	if res.SpecularTexture, err = m.marshalTexture(crsrc.Perm, m.SpecularTextureUID); err != nil {
		return nil, errors.Wrapf(err, "Failed to marshal specular texture of '%s'", crsrc.Name())
	}

	return res, nil
}

func (m *Material) marshalTexture(p *perm.Perm, uid uint32) (interface{}, error) {
	texture, err := m.Texture(p, uid)
	if err != nil || texture == nil {
		return nil, err
	}

	chunk := p.GetChunkByUID(uid)
	return texture.Marshal(p.GetChunkResource(chunk.Id))
}

func init() {
	perm.SetServer(perm.TYPE_MATERIAL, func(crsrc *perm.PermChunkRsrc) (perm.File, error) {
		return NewFromData(crsrc)
	})
}
