package mat

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/pack/perm/txr"
	"github.com/JonYeb/sleeping_dogs_browser/utils"
)

func containerChunk(typeTag, uid uint32, name string, payload []byte) []byte {
	dataSize := perm.CHUNK_DESCRIPTION_SIZE + perm.CHUNK_NAME_SIZE + len(payload)

	b := make([]byte, 0, perm.CHUNK_HEADER_SIZE+dataSize)

	var hdr [perm.CHUNK_HEADER_SIZE]byte
	binary.LittleEndian.PutUint32(hdr[0:], typeTag)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(dataSize))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(dataSize+0x40))
	b = append(b, hdr[:]...)

	var desc [7]uint32
	desc[3] = uid
	b = append(b, utils.AsBytes(&desc)...)
	b = append(b, utils.StringToBytesBuffer(name, perm.CHUNK_NAME_SIZE, false)...)
	b = append(b, payload...)

	return b
}

func materialPayload(params ...[MAT_PARAM_WORDS]uint32) []byte {
	var hdr [MAT_HEADER_WORDS]uint32
	hdr[4] = uint32(len(params))

	data := utils.AsBytes(&hdr)
	for i := range params {
		data = append(data, utils.AsBytes(&params[i])...)
	}
	return data
}

func materialRsrc(payload []byte) *perm.PermChunkRsrc {
	return &perm.PermChunkRsrc{Chunk: &perm.Chunk{
		Name:   "mat_body",
		UID:    0x20,
		Header: perm.ChunkHeader{TypeTag: perm.TYPE_MATERIAL},
		Data:   payload,
	}}
}

func TestMaterialParse(t *testing.T) {
	payload := materialPayload(
		[MAT_PARAM_WORDS]uint32{PARAM_DIFFUSE_TEXTURE, 0, 0, 0, 0, 0, 10, 0},
		[MAT_PARAM_WORDS]uint32{0x11223344, 0, 0, 0, 0, 0, 99, 0},
		[MAT_PARAM_WORDS]uint32{PARAM_SPECULAR_TEXTURE, 0, 0, 0, 0, 0, 11, 0},
	)

	m, err := NewFromData(materialRsrc(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(m.Params) != 3 {
		t.Errorf("parsed %d params, expected 3", len(m.Params))
	}
	if m.DiffuseTextureUID != 10 {
		t.Errorf("diffuse uid %d, expected 10", m.DiffuseTextureUID)
	}
	if m.SpecularTextureUID != 11 {
		t.Errorf("specular uid %d, expected 11", m.SpecularTextureUID)
	}
}

func TestMaterialLastParamWins(t *testing.T) {
	payload := materialPayload(
		[MAT_PARAM_WORDS]uint32{PARAM_DIFFUSE_TEXTURE, 0, 0, 0, 0, 0, 10, 0},
		[MAT_PARAM_WORDS]uint32{PARAM_DIFFUSE_TEXTURE, 0, 0, 0, 0, 0, 33, 0},
	)

	m, err := NewFromData(materialRsrc(payload))
	if err != nil {
		t.Fatal(err)
	}
	if m.DiffuseTextureUID != 33 {
		t.Errorf("diffuse uid %d, expected later param to win", m.DiffuseTextureUID)
	}
}

func TestMaterialTruncatedParams(t *testing.T) {
	var hdr [MAT_HEADER_WORDS]uint32
	hdr[4] = 4
	payload := append(utils.AsBytes(&hdr), make([]byte, MAT_PARAM_WORDS*4)...)

	_, err := NewFromData(materialRsrc(payload))
	if err == nil || !strings.Contains(err.Error(), "parameter") {
		t.Errorf("expected truncated parameter error, got %v", err)
	}
}

func TestMaterialTextureResolution(t *testing.T) {
	var texHdr [txr.TEXTURE_HEADER_WORDS]uint32
	texHdr[1] = txr.FORMAT_DXT1
	texHdr[4] = 0x10005
	texHdr[13] = 2048

	buf := containerChunk(perm.TYPE_TEXTURE, 10, "tex_body_diff", utils.AsBytes(&texHdr))
	buf = append(buf, containerChunk(perm.TYPE_MATERIAL, 20, "mat_body", materialPayload(
		[MAT_PARAM_WORDS]uint32{PARAM_DIFFUSE_TEXTURE, 0, 0, 0, 0, 0, 10, 0},
		[MAT_PARAM_WORDS]uint32{PARAM_SPECULAR_TEXTURE, 0, 0, 0, 0, 0, 44, 0},
	))...)
	buf = append(buf, containerChunk(perm.TYPE_MATERIAL, 21, "mat_other", materialPayload(
		[MAT_PARAM_WORDS]uint32{PARAM_DIFFUSE_TEXTURE, 0, 0, 0, 0, 0, 21, 0},
	))...)

	p, err := perm.NewPermFromData(nil, buf, make([]byte, 2048))
	if err != nil {
		t.Fatal(err)
	}

	chunk := p.GetChunkByUID(20)
	if chunk == nil {
		t.Fatal("material chunk not found by uid")
	}
	instance, err := p.GetInstanceFromChunk(chunk.Id)
	if err != nil {
		t.Fatal(err)
	}
	m := instance.(*Material)

	texture, err := m.Texture(p, m.DiffuseTextureUID)
	if err != nil {
		t.Fatal(err)
	}
	if texture == nil {
		t.Fatal("diffuse texture not resolved")
	}
	if texture.Width != 64 {
		t.Errorf("texture width %d", texture.Width)
	}

	// specular points to a uid that is not in the container
	if texture, err := m.Texture(p, m.SpecularTextureUID); err != nil || texture != nil {
		t.Errorf("expected nil for absent uid, got %v %v", texture, err)
	}

	// mat_other references itself as a texture
	other := p.GetChunkByUID(21)
	otherInstance, err := p.GetInstanceFromChunk(other.Id)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := otherInstance.(*Material).Texture(p, 21); err == nil ||
		!strings.Contains(err.Error(), "referenced as texture") {
		t.Errorf("expected type mismatch error, got %v", err)
	}

	marshaled, err := m.Marshal(p.GetChunkResource(chunk.Id))
	if err != nil {
		t.Fatal(err)
	}
	ajax := marshaled.(*Ajax)
	if ajax.DiffuseTexture == nil {
		t.Error("marshaled material misses diffuse texture")
	}
	if ajax.SpecularTexture != nil {
		t.Error("marshaled material resolved a texture for absent uid")
	}
}
