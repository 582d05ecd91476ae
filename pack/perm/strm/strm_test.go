package strm

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/utils"
)

func streamFromParts(t *testing.T, stride, count uint32, payload []byte) *Stream {
	var hdr [32]uint32
	hdr[3] = stride
	hdr[4] = count

	data := append(utils.AsBytes(&hdr), payload...)
	crsrc := &perm.PermChunkRsrc{Chunk: &perm.Chunk{
		Name:   "teststream",
		UID:    0x55,
		Header: perm.ChunkHeader{TypeTag: perm.TYPE_RENDER_STREAM},
		Data:   data,
	}}

	s, err := NewFromData(crsrc)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func u16bytes(values ...uint16) []byte {
	b := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(b[i*2:], v)
	}
	return b
}

func TestStreamHeader(t *testing.T) {
	s := streamFromParts(t, 16, 42, make([]byte, 16*42))
	if s.Stride != 16 || s.Count != 42 || s.UID != 0x55 {
		t.Errorf("header parsed wrong: %+v", s)
	}
	if len(s.Data) != 16*42 {
		t.Errorf("payload len = %d", len(s.Data))
	}
}

func TestStreamHeaderTruncated(t *testing.T) {
	crsrc := &perm.PermChunkRsrc{Chunk: &perm.Chunk{Name: "short", Data: make([]byte, 0x30)}}
	if _, err := NewFromData(crsrc); err == nil {
		t.Fatal("expected error for chunk smaller than stream header")
	}
}

func TestPositionsPacked(t *testing.T) {
	payload := make([]byte, 32)
	copy(payload, u16bytes(0x4000, 0xc000, 0x2000))
	copy(payload[16:], u16bytes(0, 0x0001, 0))

	s := streamFromParts(t, 16, 2, payload)
	positions, err := s.Positions()
	if err != nil {
		t.Fatal(err)
	}

	if positions[0] != (mgl32.Vec3{1, -1, 0.5}) {
		t.Errorf("element 0 = %v", positions[0])
	}
	if positions[1] != (mgl32.Vec3{0, 1.0 / 16384.0, 0}) {
		t.Errorf("element 1 = %v", positions[1])
	}
}

func TestPositionsFloat(t *testing.T) {
	payload := make([]byte, 12)
	binary.LittleEndian.PutUint32(payload[0:], math.Float32bits(1.5))
	binary.LittleEndian.PutUint32(payload[4:], math.Float32bits(-2))
	binary.LittleEndian.PutUint32(payload[8:], math.Float32bits(3.25))

	s := streamFromParts(t, 12, 1, payload)
	positions, err := s.Positions()
	if err != nil {
		t.Fatal(err)
	}
	if positions[0] != (mgl32.Vec3{1.5, -2, 3.25}) {
		t.Errorf("element 0 = %v", positions[0])
	}
}

func TestPositionsUnsupportedStride(t *testing.T) {
	s := streamFromParts(t, 20, 1, make([]byte, 20))
	if _, err := s.Positions(); err == nil {
		t.Fatal("expected unsupported stride error")
	} else if !strings.Contains(err.Error(), "stride 20") {
		t.Errorf("error does not name the stride: %v", err)
	}
}

func TestPositionsTruncated(t *testing.T) {
	s := streamFromParts(t, 16, 2, make([]byte, 20))
	_, err := s.Positions()
	var malformed *MalformedStreamError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedStreamError, got %v", err)
	}
	if malformed.UID != 0x55 || malformed.ExpectedCount != 2 || malformed.BytesRemaining != 20 {
		t.Errorf("unexpected error fields %+v", malformed)
	}
}

func TestUVsStrided(t *testing.T) {
	// stride 8, second element starts at byte 8
	payload := make([]byte, 16)
	copy(payload[0:], u16bytes(0x4000, 0))
	copy(payload[8:], u16bytes(0, 0xffff))

	s := streamFromParts(t, 8, 2, payload)
	uvs, err := s.UVs()
	if err != nil {
		t.Fatal(err)
	}

	if uvs[0] != (mgl32.Vec2{1, 0}) {
		t.Errorf("element 0 = %v", uvs[0])
	}
	if expected := (mgl32.Vec2{0, float32(0xffff) / 16384.0}); uvs[1] != expected {
		t.Errorf("element 1 = %v; expected %v", uvs[1], expected)
	}
}

func TestSkin(t *testing.T) {
	payload := []byte{
		1, 2, 3, 4, 255, 0, 51, 204,
		9, 0, 0, 0, 128, 127, 0, 0,
	}

	s := streamFromParts(t, 8, 2, payload)
	skin, err := s.Skin()
	if err != nil {
		t.Fatal(err)
	}

	if skin[0].Joints != [4]uint8{1, 2, 3, 4} {
		t.Errorf("element 0 joints = %v", skin[0].Joints)
	}
	if skin[0].Weights != [4]float32{1, 0, 51.0 / 255.0, 204.0 / 255.0} {
		t.Errorf("element 0 weights = %v", skin[0].Weights)
	}
	if skin[1].Joints[0] != 9 || skin[1].Weights[0] != 128.0/255.0 {
		t.Errorf("element 1 = %+v", skin[1])
	}
}

func TestIndices(t *testing.T) {
	s := streamFromParts(t, 2, 6, u16bytes(0, 1, 2, 2, 1, 3))
	indices, err := s.Indices()
	if err != nil {
		t.Fatal(err)
	}
	expected := []uint16{0, 1, 2, 2, 1, 3}
	for i := range expected {
		if indices[i] != expected[i] {
			t.Fatalf("indices = %v; expected %v", indices, expected)
		}
	}

	short := streamFromParts(t, 2, 6, u16bytes(0, 1))
	if _, err := short.Indices(); err == nil {
		t.Fatal("expected error for truncated index stream")
	}
}

func TestNormals(t *testing.T) {
	payload := []byte{
		127, 0x81, 0, 0, 0, 0, 0, 0,
	}

	s := streamFromParts(t, 8, 1, payload)
	normals, err := s.Normals()
	if err != nil {
		t.Fatal(err)
	}
	if normals[0] != (mgl32.Vec3{1, -1, 0}) {
		t.Errorf("element 0 = %v", normals[0])
	}
}
