package perm

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/JonYeb/sleeping_dogs_browser/utils"
)

func buildChunk(typeTag, uid uint32, name string, headerPad int, payload []byte) []byte {
	dataSize := headerPad + CHUNK_DESCRIPTION_SIZE + CHUNK_NAME_SIZE + len(payload)

	b := make([]byte, 0, CHUNK_HEADER_SIZE+dataSize)

	var hdr [CHUNK_HEADER_SIZE]byte
	binary.LittleEndian.PutUint32(hdr[0:], typeTag)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(dataSize))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(dataSize+0x40))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(headerPad))
	b = append(b, hdr[:]...)

	b = append(b, make([]byte, headerPad)...)

	var desc [7]uint32
	desc[3] = uid
	b = append(b, utils.AsBytes(&desc)...)
	b = append(b, utils.StringToBytesBuffer(name, CHUNK_NAME_SIZE, false)...)
	b = append(b, payload...)

	return b
}

func TestPermParse(t *testing.T) {
	buf := buildChunk(TYPE_RENDER_STREAM, 10, "positions", 0, []byte{1, 2, 3, 4})
	buf = append(buf, buildChunk(0xdead55aa, 0, "", 8, nil)...)
	buf = append(buf, buildChunk(TYPE_MATERIAL, 20, "mat_body", 0, []byte{5})...)

	p, err := NewPermFromData(nil, buf, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(p.Chunks) != 3 {
		t.Fatalf("parsed %d chunks; expected 3", len(p.Chunks))
	}
	if len(p.Issues) != 0 {
		t.Fatalf("unexpected issues %v", p.Issues)
	}

	first := p.Chunks[0]
	if first.Header.TypeTag != TYPE_RENDER_STREAM || first.UID != 10 || first.Name != "positions" {
		t.Errorf("first chunk parsed wrong: %+v", first)
	}
	if first.Offset != 0 || int(first.DataOffset) != CHUNK_HEADER_SIZE+CHUNK_DESCRIPTION_SIZE+CHUNK_NAME_SIZE {
		t.Errorf("first chunk offsets wrong: %+v", first)
	}
	if string(first.Data) != "\x01\x02\x03\x04" {
		t.Errorf("first chunk payload = % x", first.Data)
	}

	// HeaderSize pad shifts the description
	second := p.Chunks[1]
	if second.Header.HeaderSize != 8 || second.UID != 0 {
		t.Errorf("second chunk parsed wrong: %+v", second)
	}
	if second.Name == "" {
		t.Errorf("unnamed chunk did not get a placeholder name")
	}
	if len(second.Data) != 0 {
		t.Errorf("second chunk payload = % x; expected empty", second.Data)
	}

	if c := p.GetChunkByUID(20); c == nil || c.Name != "mat_body" {
		t.Errorf("uid lookup failed: %+v", c)
	}

	if _, err := p.GetInstanceFromChunk(1); err == nil {
		t.Errorf("expected no server error for unknown chunk type")
	} else if !strings.Contains(err.Error(), "Cannot find server") {
		t.Errorf("unexpected server error: %v", err)
	}
}

func TestPermTruncatedTail(t *testing.T) {
	buf := buildChunk(TYPE_RENDER_STREAM, 1, "ok", 0, nil)

	var badHdr [CHUNK_HEADER_SIZE]byte
	binary.LittleEndian.PutUint32(badHdr[0:], TYPE_TEXTURE)
	binary.LittleEndian.PutUint32(badHdr[4:], 0x10000) // runs past the buffer
	buf = append(buf, badHdr[:]...)

	p, err := NewPermFromData(nil, buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Chunks) != 1 || p.Chunks[0].Name != "ok" {
		t.Fatalf("expected the leading chunk to survive, got %d chunks", len(p.Chunks))
	}
	if len(p.Issues) != 1 {
		t.Fatalf("expected one recorded issue, got %v", p.Issues)
	}
}

func TestPermGarbageBuffer(t *testing.T) {
	_, err := NewPermFromData(nil, make([]byte, 8), nil)
	if err == nil {
		t.Fatal("expected error for buffer shorter than a chunk header")
	}
	var malformed *MalformedChunkError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedChunkError, got %v", err)
	}
	if malformed.Offset != 0 || malformed.Length != CHUNK_HEADER_SIZE || malformed.BufferSize != 8 {
		t.Errorf("unexpected error fields %+v", malformed)
	}
}

func TestPermBrokenChunkContents(t *testing.T) {
	// valid boundary but data area too small for description and name
	var small [CHUNK_HEADER_SIZE + 4]byte
	binary.LittleEndian.PutUint32(small[0:], TYPE_MATERIAL)
	binary.LittleEndian.PutUint32(small[4:], 4)

	buf := append(small[:], buildChunk(TYPE_RENDER_STREAM, 7, "after", 0, nil)...)

	p, err := NewPermFromData(nil, buf, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(p.Chunks) != 2 {
		t.Fatalf("parsed %d chunks; expected walk to continue past broken chunk", len(p.Chunks))
	}
	if p.Chunks[0].ParseError == nil {
		t.Errorf("broken chunk has no parse error")
	}
	if _, err := p.GetInstanceFromChunk(0); err == nil {
		t.Errorf("instancing a broken chunk did not fail")
	}
	if c := p.GetChunkByUID(7); c == nil || c.Name != "after" {
		t.Errorf("chunk after broken one not reachable: %+v", c)
	}
}

func TestPermParseIdempotent(t *testing.T) {
	buf := buildChunk(TYPE_RENDER_STREAM, 3, "", 0, []byte{9})
	buf = append(buf, buildChunk(TYPE_BONE_TABLE, 4, "", 0, nil)...)

	p1, err := NewPermFromData(nil, buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := NewPermFromData(nil, buf, nil)
	if err != nil {
		t.Fatal(err)
	}

	j1, err := json.Marshal(p1.Chunks)
	if err != nil {
		t.Fatal(err)
	}
	j2, err := json.Marshal(p2.Chunks)
	if err != nil {
		t.Fatal(err)
	}
	if string(j1) != string(j2) {
		t.Errorf("same buffer parsed differently:\n%s\n%s", j1, j2)
	}
}

var tempFileNameTests = []struct {
	in  string
	out string
}{
	{"ch_jacket.perm.bin", "ch_jacket.temp.bin"},
	{"CH_JACKET.PERM.BIN", "CH_JACKET.TEMP.BIN"},
	{"district.Perm.bin", "district.temp.bin"},
	{"standalone.bin", ""},
}

func TestTempFileName(t *testing.T) {
	for _, test := range tempFileNameTests {
		if result := TempFileName(test.in); result != test.out {
			t.Errorf("TempFileName(%q)=%q; expected %q", test.in, result, test.out)
		}
	}
}

func TestTypeTagName(t *testing.T) {
	if name := TypeTagName(TYPE_TEXTURE); name != "Texture" {
		t.Errorf("TypeTagName(TYPE_TEXTURE)=%q", name)
	}
	if name := TypeTagName(0x12345678); name != "0x12345678" {
		t.Errorf("TypeTagName(unknown)=%q", name)
	}
}
