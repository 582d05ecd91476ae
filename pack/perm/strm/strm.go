package strm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/utils"
)

const STREAM_HEADER_SIZE = 0x80

type MalformedStreamError struct {
	UID            uint32
	Stride         uint32
	ExpectedCount  uint32
	BytesRemaining int
}

func (e *MalformedStreamError) Error() string {
	return fmt.Sprintf("render stream 0x%.8x malformed: %d elements of stride 0x%x declared, 0x%x bytes remain",
		e.UID, e.ExpectedCount, e.Stride, e.BytesRemaining)
}

// Stream is one render stream chunk. The same chunk layout carries
// vertex positions, uv sets, skinning data and triangle indices, the
// mesh descriptors referencing the stream decide the semantic.
type Stream struct {
	UID    uint32
	Stride uint32
	Count  uint32
	Header [32]uint32
	Data   []byte `json:"-"`
}

func NewFromData(crsrc *perm.PermChunkRsrc) (*Stream, error) {
	c := crsrc.Cursor()

	s := &Stream{UID: crsrc.Chunk.UID}
	copy(s.Header[:], c.ReadLU32Table(len(s.Header)))
	if err := c.Err(); err != nil {
		return nil, errors.Wrapf(err, "Failed to read stream header")
	}

	s.Stride = s.Header[3]
	s.Count = s.Header[4]
	s.Data = c.ReadBytes(c.Remaining())

	return s, nil
}

// checkElements verifies that Count elements stepping by Stride fit
// the payload. Only prefix bytes of the last element must be present,
// decoders never look past the fields they use.
func (s *Stream) checkElements(prefix int) error {
	if s.Count == 0 {
		return nil
	}
	need := (int(s.Count)-1)*int(s.Stride) + prefix
	if need > len(s.Data) {
		return &MalformedStreamError{UID: s.UID, Stride: s.Stride, ExpectedCount: s.Count, BytesRemaining: len(s.Data)}
	}
	return nil
}

// Positions decodes the vertex position layouts. 16 byte elements
// pack three signed 2.14 fixed point values, 12 byte elements hold
// three floats.
func (s *Stream) Positions() ([]mgl32.Vec3, error) {
	switch s.Stride {
	case 16:
		if err := s.checkElements(6); err != nil {
			return nil, err
		}
		out := make([]mgl32.Vec3, s.Count)
		for i := range out {
			el := s.Data[i*16:]
			out[i] = mgl32.Vec3{
				float32(int16(binary.LittleEndian.Uint16(el[0:]))) * utils.Fixp14Divisor,
				float32(int16(binary.LittleEndian.Uint16(el[2:]))) * utils.Fixp14Divisor,
				float32(int16(binary.LittleEndian.Uint16(el[4:]))) * utils.Fixp14Divisor,
			}
		}
		return out, nil
	case 12:
		if err := s.checkElements(12); err != nil {
			return nil, err
		}
		out := make([]mgl32.Vec3, s.Count)
		for i := range out {
			el := s.Data[i*12:]
			out[i] = mgl32.Vec3{
				math.Float32frombits(binary.LittleEndian.Uint32(el[0:])),
				math.Float32frombits(binary.LittleEndian.Uint32(el[4:])),
				math.Float32frombits(binary.LittleEndian.Uint32(el[8:])),
			}
		}
		return out, nil
	}
	return nil, errors.Errorf("Unsupported position stride %d in stream 0x%.8x", s.Stride, s.UID)
}

// UVs decodes a texture coordinate set of two unsigned 2.14 values
// per element.
func (s *Stream) UVs() ([]mgl32.Vec2, error) {
	if s.Stride < 4 {
		return nil, errors.Errorf("Unsupported uv stride %d in stream 0x%.8x", s.Stride, s.UID)
	}
	if err := s.checkElements(4); err != nil {
		return nil, err
	}
	out := make([]mgl32.Vec2, s.Count)
	for i := range out {
		el := s.Data[i*int(s.Stride):]
		out[i] = mgl32.Vec2{
			float32(binary.LittleEndian.Uint16(el[0:])) * utils.Fixp14Divisor,
			float32(binary.LittleEndian.Uint16(el[2:])) * utils.Fixp14Divisor,
		}
	}
	return out, nil
}

type SkinVertex struct {
	Joints  [4]uint8
	Weights [4]float32
}

// Skin decodes bone influences, four bone indices followed by four
// byte weights normalized to sum close to one.
func (s *Stream) Skin() ([]SkinVertex, error) {
	if s.Stride < 8 {
		return nil, errors.Errorf("Unsupported skin stride %d in stream 0x%.8x", s.Stride, s.UID)
	}
	if err := s.checkElements(8); err != nil {
		return nil, err
	}
	out := make([]SkinVertex, s.Count)
	for i := range out {
		el := s.Data[i*int(s.Stride):]
		copy(out[i].Joints[:], el[0:4])
		for j := 0; j < 4; j++ {
			out[i].Weights[j] = float32(el[4+j]) / 255.0
		}
	}
	return out, nil
}

// Indices decodes a triangle index stream. Elements are tightly
// packed uint16, same as the game submits them to the gpu.
func (s *Stream) Indices() ([]uint16, error) {
	if need := int(s.Count) * 2; need > len(s.Data) {
		return nil, &MalformedStreamError{UID: s.UID, Stride: 2, ExpectedCount: s.Count, BytesRemaining: len(s.Data)}
	}
	out := make([]uint16, s.Count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(s.Data[i*2:])
	}
	return out, nil
}

// Normals decodes the auxiliary per vertex stream of four signed
// bytes scaled by 127, the fourth component is padding.
func (s *Stream) Normals() ([]mgl32.Vec3, error) {
	if s.Stride < 4 {
		return nil, errors.Errorf("Unsupported normal stride %d in stream 0x%.8x", s.Stride, s.UID)
	}
	if err := s.checkElements(4); err != nil {
		return nil, err
	}
	out := make([]mgl32.Vec3, s.Count)
	for i := range out {
		el := s.Data[i*int(s.Stride):]
		out[i] = mgl32.Vec3{
			float32(int8(el[0])) / 127.0,
			float32(int8(el[1])) / 127.0,
			float32(int8(el[2])) / 127.0,
		}
	}
	return out, nil
}

type Ajax struct {
	Stream  *Stream
	DataLen int
	Preview string
}

func (s *Stream) Marshal(crsrc *perm.PermChunkRsrc) (interface{}, error) {
	preview := s.Data
	if len(preview) > 0x40 {
		preview = preview[:0x40]
	}
	return &Ajax{
		Stream:  s,
		DataLen: len(s.Data),
		Preview: utils.DumpToOneLineString(preview),
	}, nil
}

func init() {
	perm.SetServer(perm.TYPE_RENDER_STREAM, func(crsrc *perm.PermChunkRsrc) (perm.File, error) {
		return NewFromData(crsrc)
	})
}
