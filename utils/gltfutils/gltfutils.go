package gltfutils

import (
	"io"

	"github.com/qmuntal/gltf"
)

// GLTFCacher accumulates one document across resources that export
// each other. Entries are keyed by chunk uid so a texture shared by
// several materials is written once.
type GLTFCacher struct {
	Doc   *gltf.Document
	cache map[uint32]interface{}
}

func NewCacher() *GLTFCacher {
	return &GLTFCacher{
		Doc:   gltf.NewDocument(),
		cache: make(map[uint32]interface{}),
	}
}

func (gc *GLTFCacher) AddCache(uid uint32, data interface{}) {
	gc.cache[uid] = data
}

func (gc *GLTFCacher) GetCached(uid uint32) interface{} {
	return gc.cache[uid]
}

// GetCachedOr returns the cached export for the uid or runs build.
// The build func is expected to cache its own result.
func (gc *GLTFCacher) GetCachedOr(uid uint32, build func() interface{}) interface{} {
	if v, ok := gc.cache[uid]; ok {
		return v
	}
	return build()
}

func ExportBinary(w io.Writer, doc *gltf.Document) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}
