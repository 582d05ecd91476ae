package fbxbuilder

import "github.com/mogaika/fbx"

// node builders for texture and video objects that bfbx73 does not
// cover, same shape as the generated ones

func node(name string, properties ...interface{}) *fbx.Node {
	return &fbx.Node{Name: name, Properties: properties}
}

func Texture(id int64, name string, class string) *fbx.Node {
	return node("Texture", id, name, class)
}

func Video(id int64, name string, class string) *fbx.Node {
	return node("Video", id, name, class)
}

func TextureName(name string) *fbx.Node { return node("TextureName", name) }

func Media(name string) *fbx.Node { return node("Media", name) }

// texture nodes spell it FileName, video nodes Filename
func FileName(name string) *fbx.Node { return node("FileName", name) }

func Filename(name string) *fbx.Node { return node("Filename", name) }

func RelativeFilename(name string) *fbx.Node { return node("RelativeFilename", name) }

func UseMipMap(v int32) *fbx.Node { return node("UseMipMap", v) }

func TextureAlphaSource(v string) *fbx.Node { return node("Texture_Alpha_Source", v) }

func ModelUVTranslation(u, v int32) *fbx.Node { return node("ModelUVTranslation", u, v) }

func ModelUVScaling(u, v int32) *fbx.Node { return node("ModelUVScaling", u, v) }

func Cropping(left, right, top, bottom int32) *fbx.Node {
	return node("Cropping", left, right, top, bottom)
}
