package skel

import (
	"encoding/binary"
	"testing"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/utils"
)

func boneTablePayload(names []string, params [][4]uint16) []byte {
	var hdr [BONE_TABLE_HEADER_WORDS]uint32
	hdr[1] = uint32(len(names))

	data := utils.AsBytes(&hdr)
	data = append(data, make([]byte, BONE_TABLE_PAD)...)
	for _, name := range names {
		data = append(data, utils.StringToBytesBuffer(name, BONE_NAME_SIZE, false)...)
	}
	for _, p := range params {
		var raw [8]byte
		for i, v := range p {
			binary.LittleEndian.PutUint16(raw[i*2:], v)
		}
		data = append(data, raw[:]...)
	}
	return data
}

func boneTableRsrc(payload []byte) *perm.PermChunkRsrc {
	return &perm.PermChunkRsrc{Chunk: &perm.Chunk{
		Name:   "skeleton",
		UID:    0x30,
		Header: perm.ChunkHeader{TypeTag: perm.TYPE_BONE_TABLE},
		Data:   payload,
	}}
}

func TestBoneTableParse(t *testing.T) {
	payload := boneTablePayload(
		[]string{"root", "spine_01", "head"},
		[][4]uint16{
			{0x4000, 0, 0, 0},
			{0, 0x2000, 0, 0},
			{0, 0, 0xc000, 0x0001},
		})

	s, err := NewFromData(boneTableRsrc(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(s.Bones) != 3 {
		t.Fatalf("parsed %d bones, expected 3", len(s.Bones))
	}

	names := s.BoneNames()
	expected := []string{"root", "spine_01", "head"}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("bone %d name %q, expected %q", i, names[i], expected[i])
		}
	}

	if v := s.Bones[0].Params[0]; v != 1.0 {
		t.Errorf("bone 0 param 0 = %v, expected 1.0", v)
	}
	if v := s.Bones[1].Params[1]; v != 0.5 {
		t.Errorf("bone 1 param 1 = %v, expected 0.5", v)
	}
	// bone parameters are unsigned, 0xc000 is 3.0 and not -1.0
	if v := s.Bones[2].Params[2]; v != 3.0 {
		t.Errorf("bone 2 param 2 = %v, expected 3.0", v)
	}
	if v := s.Bones[2].Params[3]; v != 1.0/16384 {
		t.Errorf("bone 2 param 3 = %v", v)
	}
}

func TestBoneTableEmpty(t *testing.T) {
	s, err := NewFromData(boneTableRsrc(boneTablePayload(nil, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Bones) != 0 {
		t.Errorf("expected no bones, got %d", len(s.Bones))
	}
}

func TestBoneTableTruncated(t *testing.T) {
	payload := boneTablePayload([]string{"root", "spine_01"}, [][4]uint16{{}, {}})

	// cut into the middle of the second name
	if _, err := NewFromData(boneTableRsrc(payload[:len(payload)-16-BONE_NAME_SIZE/2])); err == nil {
		t.Error("expected error for truncated bone names")
	}

	// cut all parameters
	if _, err := NewFromData(boneTableRsrc(payload[:len(payload)-16])); err == nil {
		t.Error("expected error for missing bone parameters")
	}

	if _, err := NewFromData(boneTableRsrc(make([]byte, 0x20))); err == nil {
		t.Error("expected error for truncated header")
	}
}
