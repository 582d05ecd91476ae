package mdl

import (
	"archive/zip"
	"bytes"
	"log"
	"net/http"

	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/utils/gltfutils"
	"github.com/JonYeb/sleeping_dogs_browser/webutils"
)

func (m *Model) HttpAction(crsrc *perm.PermChunkRsrc, w http.ResponseWriter, r *http.Request, action string) {
	switch action {
	case "gltf":
		doc, err := m.ExportGLTFDefault(crsrc)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		webutils.WriteFileHeaders(w, crsrc.Name()+".glb")
		if err := gltfutils.ExportBinary(w, doc); err != nil {
			log.Printf("[mdl] Failed to encode gltf: %v", err)
		}
	case "fbx":
		f, err := m.ExportFbxDefault(crsrc)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		webutils.WriteFileHeaders(w, crsrc.Name()+".fbx")
		if err := f.Write(w); err != nil {
			log.Printf("[mdl] Failed to encode fbx: %v", err)
		}
	case "fbx_zip":
		f, err := m.ExportFbxDefault(crsrc)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		var buf bytes.Buffer
		if err := f.WriteZip(&buf, crsrc.Name()+".fbx"); err != nil {
			webutils.WriteError(w, err)
			return
		}
		webutils.WriteFile(w, bytes.NewReader(buf.Bytes()), crsrc.Name()+".zip")
	case "zip":
		var objBuf, mtlBuf bytes.Buffer
		textures, err := m.ExportObj(crsrc, crsrc.Name()+".mtl", &objBuf, &mtlBuf)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}

		var buf bytes.Buffer
		z := zip.NewWriter(&buf)

		writeEntry := func(name string, data []byte) {
			entry, err := z.Create(name)
			if err != nil {
				log.Printf("[mdl] Failed to create zip entry %q: %v", name, err)
				return
			}
			entry.Write(data)
		}

		writeEntry(crsrc.Name()+".obj", objBuf.Bytes())
		writeEntry(crsrc.Name()+".mtl", mtlBuf.Bytes())
		for name, data := range textures {
			writeEntry(name+".png", data)
		}

		if err := z.Close(); err != nil {
			log.Printf("[mdl] Failed to close zip: %v", err)
		}

		webutils.WriteFile(w, bytes.NewReader(buf.Bytes()), crsrc.Name()+".zip")
	}
}
