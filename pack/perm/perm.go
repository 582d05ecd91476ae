package perm

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/pkg/errors"

	"github.com/JonYeb/sleeping_dogs_browser/pack"
	"github.com/JonYeb/sleeping_dogs_browser/status"
	"github.com/JonYeb/sleeping_dogs_browser/utils"
	"github.com/JonYeb/sleeping_dogs_browser/vfs"
)

const (
	CHUNK_HEADER_SIZE      = 0x10
	CHUNK_DESCRIPTION_SIZE = 0x1c
	CHUNK_NAME_SIZE        = 0x24
)

// chunk type tags found in pc perm files
const (
	TYPE_BONE_TABLE    = 0x982456db
	TYPE_TEXTURE       = 0xcdbfa090
	TYPE_MESH_INFO     = 0x6df963b3
	TYPE_MATERIAL      = 0xf5f8516f
	TYPE_RENDER_STREAM = 0x7a971479
)

var gTypeTagNames = map[uint32]string{
	TYPE_BONE_TABLE:    "BoneTable",
	TYPE_TEXTURE:       "Texture",
	TYPE_MESH_INFO:     "MeshInfo",
	TYPE_MATERIAL:      "Material",
	TYPE_RENDER_STREAM: "RenderStream",
}

func TypeTagName(typeTag uint32) string {
	if name, ok := gTypeTagNames[typeTag]; ok {
		return name
	}
	return fmt.Sprintf("0x%.8x", typeTag)
}

type File interface {
	Marshal(rsrc *PermChunkRsrc) (interface{}, error)
}

type ServerLoader func(rsrc *PermChunkRsrc) (File, error)

var gServers map[uint32]ServerLoader = make(map[uint32]ServerLoader, 0)

func SetServer(typeTag uint32, ldr ServerLoader) {
	gServers[typeTag] = ldr
}

type ChunkId int

type MalformedChunkError struct {
	Offset     int
	Length     int
	BufferSize int
}

func (e *MalformedChunkError) Error() string {
	return fmt.Sprintf("malformed chunk at 0x%x: length 0x%x overruns buffer size 0x%x",
		e.Offset, e.Length, e.BufferSize)
}

type ChunkHeader struct {
	TypeTag    uint32
	DataSize   uint32
	AllocSize  uint32
	HeaderSize uint32
}

type Chunk struct {
	Id          ChunkId
	Header      ChunkHeader
	Offset      uint32
	DataOffset  uint32
	Description [7]uint32
	UID         uint32
	Name        string
	Data        []byte `json:"-"`
	Raw         []byte `json:"-"`
	ParseError  error  `json:"-"`
	Cache       File   `json:"-"`
}

// Perm is one parsed .perm.bin file. TempData holds the contents of
// the companion .temp.bin when it was found next to the perm file,
// texture payloads live there.
type Perm struct {
	Source   utils.ResourceSource `json:"-"`
	Chunks   []*Chunk
	TempData []byte `json:"-"`
	Issues   []string

	uidIndex map[uint32]ChunkId
	rng      utils.RandomNameGenerator
}

func (p *Perm) Name() string {
	if p.Source == nil {
		return ""
	}
	return p.Source.Name()
}

func (p *Perm) GetChunkById(id ChunkId) *Chunk {
	return p.Chunks[id]
}

func (p *Perm) GetChunksByTypeTag(typeTag uint32) []*Chunk {
	result := make([]*Chunk, 0)
	for _, c := range p.Chunks {
		if c.Header.TypeTag == typeTag {
			result = append(result, c)
		}
	}
	return result
}

// GetChunkByUID resolves a cross reference. When several chunks carry
// the same uid the last one wins, same as the game loader.
func (p *Perm) GetChunkByUID(uid uint32) *Chunk {
	if id, ok := p.uidIndex[uid]; ok {
		return p.Chunks[id]
	}
	return nil
}

func (p *Perm) GetChunkResource(id ChunkId) *PermChunkRsrc {
	return &PermChunkRsrc{Perm: p, Chunk: p.GetChunkById(id)}
}

func (p *Perm) CallServer(id ChunkId) (File, error) {
	c := p.GetChunkById(id)
	if c.ParseError != nil {
		return nil, c.ParseError
	}

	h, ex := gServers[c.Header.TypeTag]
	if !ex {
		return nil, fmt.Errorf("Cannot find server for chunk type %s", TypeTagName(c.Header.TypeTag))
	}

	instance, err := h(p.GetChunkResource(id))
	if err != nil {
		return nil, fmt.Errorf("Server return error: %v", err)
	}
	c.Cache = instance
	return instance, nil
}

func (p *Perm) GetInstanceFromChunk(id ChunkId) (File, error) {
	c := p.GetChunkById(id)
	if c.Cache != nil {
		return c.Cache, nil
	}
	return p.CallServer(id)
}

func (p *Perm) parseChunkContent(chunk *Chunk, b []byte, off, chunkEnd int) {
	contentStart := off + CHUNK_HEADER_SIZE + int(chunk.Header.HeaderSize)
	payloadStart := contentStart + CHUNK_DESCRIPTION_SIZE + CHUNK_NAME_SIZE
	if payloadStart > chunkEnd {
		chunk.ParseError = errors.Errorf("Chunk description overruns data: header size 0x%x, data size 0x%x",
			chunk.Header.HeaderSize, chunk.Header.DataSize)
		chunk.Name = p.rng.RandomName()
		return
	}

	c := utils.NewCursorAt(fmt.Sprintf("%s chunk at 0x%x", TypeTagName(chunk.Header.TypeTag), off),
		b[contentStart:payloadStart], contentStart)
	copy(chunk.Description[:], c.ReadLU32Table(7))
	chunk.UID = chunk.Description[3]
	chunk.Name = c.ReadStringFixed(CHUNK_NAME_SIZE)
	if chunk.Name == "" {
		chunk.Name = p.rng.RandomName()
	}

	chunk.DataOffset = uint32(payloadStart)
	chunk.Data = b[payloadStart:chunkEnd]
}

// loadChunks walks the linear run of chunks. Chunks with broken
// contents are kept with their error attached, the walk itself stops
// only when a boundary leaves the buffer.
func (p *Perm) loadChunks(b []byte) error {
	for off := 0; off < len(b); {
		if off+CHUNK_HEADER_SIZE > len(b) {
			return &MalformedChunkError{Offset: off, Length: CHUNK_HEADER_SIZE, BufferSize: len(b)}
		}

		hdr := ChunkHeader{
			TypeTag:    binary.LittleEndian.Uint32(b[off:]),
			DataSize:   binary.LittleEndian.Uint32(b[off+4:]),
			AllocSize:  binary.LittleEndian.Uint32(b[off+8:]),
			HeaderSize: binary.LittleEndian.Uint32(b[off+12:]),
		}

		chunkEnd := off + CHUNK_HEADER_SIZE + int(hdr.DataSize)
		if chunkEnd > len(b) {
			return &MalformedChunkError{Offset: off, Length: CHUNK_HEADER_SIZE + int(hdr.DataSize), BufferSize: len(b)}
		}

		chunk := &Chunk{
			Id:     ChunkId(len(p.Chunks)),
			Header: hdr,
			Offset: uint32(off),
			Raw:    b[off:chunkEnd],
		}
		p.parseChunkContent(chunk, b, off, chunkEnd)

		p.Chunks = append(p.Chunks, chunk)
		if chunk.ParseError == nil {
			p.uidIndex[chunk.UID] = chunk.Id
		} else {
			log.Printf("[perm] Chunk %d of '%s' broken: %v", chunk.Id, p.Name(), chunk.ParseError)
		}

		off = chunkEnd
	}
	return nil
}

// NewPermFromData parses a perm file held in memory. A truncated tail
// is reported in Issues, the error return fires only when not a
// single chunk could be recovered.
func NewPermFromData(rsrc utils.ResourceSource, b []byte, tempData []byte) (*Perm, error) {
	p := &Perm{
		Source:   rsrc,
		Chunks:   make([]*Chunk, 0),
		TempData: tempData,
		uidIndex: make(map[uint32]ChunkId),
	}

	if err := p.loadChunks(b); err != nil {
		if len(p.Chunks) == 0 {
			return nil, errors.Wrapf(err, "Error when loading chunks of '%s'", p.Name())
		}
		log.Printf("[perm] File '%s' truncated: %v", p.Name(), err)
		p.Issues = append(p.Issues, err.Error())
	}

	return p, nil
}

type PermChunkRsrc struct {
	Perm  *Perm
	Chunk *Chunk
}

func (r *PermChunkRsrc) Name() string {
	return r.Chunk.Name
}

func (r *PermChunkRsrc) Size() int64 {
	return int64(len(r.Chunk.Data))
}

// Cursor opens the chunk payload for parsing, positions in errors are
// absolute file offsets.
func (r *PermChunkRsrc) Cursor() *utils.Cursor {
	return utils.NewCursorAt(
		fmt.Sprintf("%s '%s'", TypeTagName(r.Chunk.Header.TypeTag), r.Chunk.Name),
		r.Chunk.Data, int(r.Chunk.DataOffset))
}

// TempFileName derives the companion file name, empty when the name
// does not follow the .perm. naming scheme. Case of the original name
// is preserved so lookups work on case sensitive file systems.
func TempFileName(permName string) string {
	idx := strings.Index(strings.ToLower(permName), ".perm.")
	if idx < 0 {
		return ""
	}
	rep := ".temp."
	if seg := permName[idx : idx+len(rep)]; seg == strings.ToUpper(seg) {
		rep = ".TEMP."
	}
	return permName[:idx] + rep + permName[idx+len(rep):]
}

func init() {
	pack.SetHandler(".perm.bin", func(d vfs.Directory, src utils.ResourceSource, r *io.SectionReader) (interface{}, error) {
		data := make([]byte, r.Size())
		if _, err := r.ReadAt(data, 0); err != nil {
			return nil, errors.Wrapf(err, "Failed to read '%s'", src.Name())
		}

		var tempData []byte
		if tempName := TempFileName(src.Name()); tempName != "" && d != nil {
			if f, err := vfs.DirectoryGetFile(d, tempName); err != nil {
				log.Printf("[perm] No companion temp file for '%s'", src.Name())
			} else if contents, err := vfs.OpenFileAndGetContents(f); err != nil {
				log.Printf("[perm] Cannot read companion '%s': %v", tempName, err)
			} else {
				tempData = contents
			}
		}

		p, err := NewPermFromData(src, data, tempData)
		if err != nil {
			status.Error("Failed to load '%s': %v", src.Name(), err)
			return nil, err
		}
		status.Info("Loaded '%s': %d chunks", src.Name(), len(p.Chunks))
		return p, nil
	})
}
