package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JonYeb/sleeping_dogs_browser/pack"
	"github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/pack/perm/mdl"
	"github.com/JonYeb/sleeping_dogs_browser/pack/perm/txr"
	"github.com/JonYeb/sleeping_dogs_browser/status"
	"github.com/JonYeb/sleeping_dogs_browser/utils/gltfutils"
	"github.com/JonYeb/sleeping_dogs_browser/vfs"

	_ "github.com/JonYeb/sleeping_dogs_browser/pack/perm/mat"
	_ "github.com/JonYeb/sleeping_dogs_browser/pack/perm/skel"
	_ "github.com/JonYeb/sleeping_dogs_browser/pack/perm/strm"
)

type exportConfig struct {
	dir       vfs.Directory
	outDir    string
	format    string
	texFormat string
	chunkList bool
}

type result struct {
	File     string
	Models   int
	Textures int
	Issues   int
	Err      error
}

func main() {
	var dir, out, format, texFormat string
	var workers int
	var chunkList bool
	flag.StringVar(&dir, "dir", "", "Path to folder with extracted perm.bin+temp.bin pairs")
	flag.StringVar(&out, "out", "exported", "Output directory")
	flag.StringVar(&format, "format", "gltf", "Model format: gltf, fbx, obj or none")
	flag.StringVar(&texFormat, "textures", "png", "Texture format: dds, png, webp, tga or none")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "How many containers to process in parallel")
	flag.BoolVar(&chunkList, "chunklist", false, "Write a json chunk listing per container")
	flag.Parse()

	if dir == "" {
		flag.PrintDefaults()
		return
	}
	switch format {
	case "gltf", "fbx", "obj", "none":
	default:
		log.Fatalf("Unknown model format %q", format)
	}
	switch texFormat {
	case "dds", "png", "webp", "tga", "none":
	default:
		log.Fatalf("Unknown texture format %q", texFormat)
	}

	d := vfs.NewDirectoryDriver(dir)
	files, err := d.List()
	if err != nil {
		log.Fatal(err)
	}

	permNames := make([]string, 0, len(files))
	for _, name := range files {
		if strings.HasSuffix(strings.ToUpper(name), ".PERM.BIN") {
			permNames = append(permNames, name)
		}
	}
	if len(permNames) == 0 {
		log.Fatalf("No perm.bin files under %q", dir)
	}

	cfg := &exportConfig{
		dir:       d,
		outDir:    out,
		format:    format,
		texFormat: texFormat,
		chunkList: chunkList,
	}

	start := time.Now()
	results := run(cfg, permNames, workers)

	var models, textures, issues int
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			log.Printf("[sdexport] %s: %v", r.File, r.Err)
			issues++
			continue
		}
		models += r.Models
		textures += r.Textures
		issues += r.Issues
	}

	log.Printf("[sdexport] Exported %d models and %d textures from %d containers in %v",
		models, textures, len(permNames), time.Since(start).Round(time.Millisecond))
	if issues != 0 {
		log.Printf("[sdexport] Finished with %d issues, see log above", issues)
		os.Exit(1)
	}
}

// run fans the containers out over a worker pool. Containers are
// independent so this scales until disk reads saturate.
func run(cfg *exportConfig, names []string, workers int) []result {
	results := make([]result, len(names))
	var processed atomic.Int64

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				n := processed.Load()
				log.Printf("[sdexport] [%d/%d] containers", n, len(names))
				status.Progress(float32(n)/float32(len(names)), "[%d/%d] containers", n, len(names))
			}
		}
	}()

	nameChan := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range nameChan {
				results[idx] = processContainer(cfg, names[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range names {
		nameChan <- i
	}
	close(nameChan)

	wg.Wait()
	close(done)

	return results
}

func processContainer(cfg *exportConfig, name string) result {
	res := result{File: name}

	instance, err := pack.GetInstanceHandler(cfg.dir, name)
	// parsed containers easily outgrow memory on a full game dump
	defer pack.FlushCachedInstance(name)
	if err != nil {
		res.Err = err
		return res
	}
	p, ok := instance.(*perm.Perm)
	if !ok {
		res.Err = fmt.Errorf("not a perm container")
		return res
	}

	base := name
	if idx := strings.Index(strings.ToLower(base), ".perm.bin"); idx > 0 {
		base = base[:idx]
	}
	outBase := filepath.Join(cfg.outDir, base)
	if err := os.MkdirAll(outBase, 0755); err != nil {
		res.Err = err
		return res
	}

	if cfg.chunkList {
		if data, err := json.MarshalIndent(p.Chunks, "", "  "); err == nil {
			if err := os.WriteFile(filepath.Join(outBase, "chunks.json"), data, 0644); err != nil {
				log.Printf("[sdexport] %s: chunk listing: %v", name, err)
				res.Issues++
			}
		}
	}

	for _, chunk := range p.Chunks {
		if chunk.ParseError != nil {
			res.Issues++
			continue
		}

		switch chunk.Header.TypeTag {
		case perm.TYPE_TEXTURE:
			if cfg.texFormat == "none" {
				continue
			}
			if err := exportTexture(cfg, p, chunk, outBase); err != nil {
				log.Printf("[sdexport] %s: texture '%s': %v", name, chunk.Name, err)
				res.Issues++
			} else {
				res.Textures++
			}
		case perm.TYPE_MESH_INFO:
			if cfg.format == "none" {
				continue
			}
			if err := exportModel(cfg, p, chunk, outBase); err != nil {
				log.Printf("[sdexport] %s: model '%s': %v", name, chunk.Name, err)
				res.Issues++
			} else {
				res.Models++
			}
		}
	}

	return res
}

func exportTexture(cfg *exportConfig, p *perm.Perm, chunk *perm.Chunk, outBase string) error {
	instance, err := p.GetInstanceFromChunk(chunk.Id)
	if err != nil {
		return err
	}
	texture := instance.(*txr.Texture)

	fileName := fmt.Sprintf("%s_0x%.8x.%s", chunk.Name, chunk.UID, cfg.texFormat)
	f, err := os.Create(filepath.Join(outBase, fileName))
	if err != nil {
		return err
	}
	defer f.Close()

	return texture.Encode(f, cfg.texFormat, 0)
}

func exportModel(cfg *exportConfig, p *perm.Perm, chunk *perm.Chunk, outBase string) error {
	instance, err := p.GetInstanceFromChunk(chunk.Id)
	if err != nil {
		return err
	}
	model := instance.(*mdl.Model)
	crsrc := p.GetChunkResource(chunk.Id)
	base := filepath.Join(outBase, fmt.Sprintf("%s_0x%.8x", chunk.Name, chunk.UID))

	switch cfg.format {
	case "gltf":
		doc, err := model.ExportGLTFDefault(crsrc)
		if err != nil {
			return err
		}
		f, err := os.Create(base + ".glb")
		if err != nil {
			return err
		}
		defer f.Close()
		return gltfutils.ExportBinary(f, doc)
	case "fbx":
		builder, err := model.ExportFbxDefault(crsrc)
		if err != nil {
			return err
		}
		f, err := os.Create(base + ".fbx")
		if err != nil {
			return err
		}
		defer f.Close()
		// texture files land next to the scene from the texture pass
		return builder.Write(f)
	case "obj":
		objF, err := os.Create(base + ".obj")
		if err != nil {
			return err
		}
		defer objF.Close()
		mtlF, err := os.Create(base + ".mtl")
		if err != nil {
			return err
		}
		defer mtlF.Close()

		textures, err := model.ExportObj(crsrc, filepath.Base(base)+".mtl", objF, mtlF)
		if err != nil {
			return err
		}
		for texName, data := range textures {
			if err := os.WriteFile(filepath.Join(outBase, texName+".png"), data, 0644); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}
