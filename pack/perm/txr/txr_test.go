package txr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/utils"
)

func textureRsrc(format, dimCode, tempOffset, tempLength uint32, tempData []byte) *perm.PermChunkRsrc {
	var hdr [TEXTURE_HEADER_WORDS]uint32
	hdr[1] = format
	hdr[4] = dimCode
	hdr[12] = tempOffset
	hdr[13] = tempLength

	return &perm.PermChunkRsrc{
		Perm: &perm.Perm{TempData: tempData},
		Chunk: &perm.Chunk{
			Name:   "testtexture",
			UID:    0x77,
			Header: perm.ChunkHeader{TypeTag: perm.TYPE_TEXTURE},
			Data:   utils.AsBytes(&hdr),
		},
	}
}

func TestTextureParseDXT1(t *testing.T) {
	// 64x64 top level plus full 32x32 level, third level must not fit
	tempData := make([]byte, 32+2048+512)

	texture, err := NewFromData(textureRsrc(FORMAT_DXT1, 0x10005, 32, 2048+512, tempData))
	if err != nil {
		t.Fatal(err)
	}

	if texture.Width != 64 || texture.Height != 64 {
		t.Errorf("dimensions %dx%d, expected 64x64", texture.Width, texture.Height)
	}
	if texture.FourCC() != "DXT1" {
		t.Errorf("fourcc %q", texture.FourCC())
	}
	if texture.MipMaps != 2 {
		t.Errorf("mipmaps %d, expected 2", texture.MipMaps)
	}

	file := texture.DDS()
	if len(file) != 128+2048+512 {
		t.Fatalf("dds file size 0x%x", len(file))
	}
	if string(file[:4]) != "DDS " {
		t.Errorf("dds magic %q", file[:4])
	}
	if h := binary.LittleEndian.Uint32(file[0xc:]); h != 64 {
		t.Errorf("dds height %d", h)
	}
	if w := binary.LittleEndian.Uint32(file[0x10:]); w != 64 {
		t.Errorf("dds width %d", w)
	}
	if m := binary.LittleEndian.Uint32(file[0x1c:]); m != 2 {
		t.Errorf("dds mipmap count %d", m)
	}
	if fourCC := string(file[0x54:0x58]); fourCC != "DXT1" {
		t.Errorf("dds fourcc %q", fourCC)
	}
}

func TestTextureImageMips(t *testing.T) {
	tempData := make([]byte, 2048+512)

	texture, err := NewFromData(textureRsrc(FORMAT_DXT1, 0x10005, 0, 2048+512, tempData))
	if err != nil {
		t.Fatal(err)
	}

	top, err := texture.Image(0)
	if err != nil {
		t.Fatal(err)
	}
	if top.Bounds().Dx() != 64 || top.Bounds().Dy() != 64 {
		t.Errorf("mip 0 bounds %v", top.Bounds())
	}
	// zeroed dxt1 block decodes to opaque black
	if px := top.NRGBAAt(0, 0); px.R != 0 || px.G != 0 || px.B != 0 || px.A != 255 {
		t.Errorf("mip 0 pixel %+v", px)
	}

	second, err := texture.Image(1)
	if err != nil {
		t.Fatal(err)
	}
	if second.Bounds().Dx() != 32 || second.Bounds().Dy() != 32 {
		t.Errorf("mip 1 bounds %v", second.Bounds())
	}

	if _, err := texture.Image(2); err == nil {
		t.Error("expected error for mip level past the chain")
	}
}

func TestTextureBGRA(t *testing.T) {
	tempData := make([]byte, 64*64*4)
	tempData[0] = 10
	tempData[1] = 20
	tempData[2] = 30
	tempData[3] = 40

	texture, err := NewFromData(textureRsrc(FORMAT_BGRA, 0x10005, 0, uint32(len(tempData)), tempData))
	if err != nil {
		t.Fatal(err)
	}

	if texture.FourCC() != "" {
		t.Errorf("fourcc %q for uncompressed texture", texture.FourCC())
	}
	if texture.MipMaps != 1 {
		t.Errorf("mipmaps %d, expected 1", texture.MipMaps)
	}

	img, err := texture.Image(0)
	if err != nil {
		t.Fatal(err)
	}
	if px := img.NRGBAAt(0, 0); px.R != 30 || px.G != 20 || px.B != 10 || px.A != 40 {
		t.Errorf("pixel %+v, expected channel swap from bgra", px)
	}
}

func TestTextureParseErrors(t *testing.T) {
	tempData := make([]byte, 2048)

	if _, err := NewFromData(&perm.PermChunkRsrc{
		Perm:  &perm.Perm{TempData: tempData},
		Chunk: &perm.Chunk{Name: "short", Data: make([]byte, 20)},
	}); err == nil {
		t.Error("expected error for truncated header")
	}

	_, err := NewFromData(textureRsrc(7, 0x10005, 0, 2048, tempData))
	var formatErr *UnsupportedFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
	if formatErr.Tag != 7 {
		t.Errorf("format tag %d", formatErr.Tag)
	}

	if _, err := NewFromData(textureRsrc(FORMAT_DXT1, 0x10004, 0, 2048, tempData)); err == nil ||
		!strings.Contains(err.Error(), "dimension") {
		t.Errorf("expected dimension code error, got %v", err)
	}

	if _, err := NewFromData(textureRsrc(FORMAT_DXT1, 0x10005, 1024, 2048, tempData)); err == nil ||
		!strings.Contains(err.Error(), "outside temp data") {
		t.Errorf("expected payload bounds error, got %v", err)
	}

	if _, err := NewFromData(textureRsrc(FORMAT_DXT1, 0x10005, 0, 100, tempData)); err == nil ||
		!strings.Contains(err.Error(), "too small") {
		t.Errorf("expected undersized payload error, got %v", err)
	}

	if _, err := NewFromData(textureRsrc(FORMAT_DXT1, 0x10005, 0, 2048, nil)); err == nil ||
		!strings.Contains(err.Error(), "temp file") {
		t.Errorf("expected missing temp data error, got %v", err)
	}
}

func TestTextureEncode(t *testing.T) {
	tempData := make([]byte, 2048)

	texture, err := NewFromData(textureRsrc(FORMAT_DXT1, 0x10005, 0, 2048, tempData))
	if err != nil {
		t.Fatal(err)
	}

	var asDDS bytes.Buffer
	if err := texture.Encode(&asDDS, "dds", 0); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(asDDS.Bytes(), texture.DDS()) {
		t.Error("dds encode differs from DDS()")
	}

	var asPNG bytes.Buffer
	if err := texture.Encode(&asPNG, "png", 0); err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(&asPNG)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds().Dx() != 64 || decoded.Bounds().Dy() != 64 {
		t.Errorf("png bounds %v", decoded.Bounds())
	}

	if err := texture.Encode(&bytes.Buffer{}, "bmp", 0); err == nil {
		t.Error("expected error for unknown format")
	}
}
