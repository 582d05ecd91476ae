package pack

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/JonYeb/sleeping_dogs_browser/utils"
	"github.com/JonYeb/sleeping_dogs_browser/vfs"
)

// FileLoader gets the directory its file lives in, game files come in
// pairs and the loader may need to open a companion file.
type FileLoader func(d vfs.Directory, src utils.ResourceSource, r *io.SectionReader) (interface{}, error)

var gHandlers map[string]FileLoader = make(map[string]FileLoader, 0)

// SetHandler registers a loader for a file name suffix. Suffix
// matching is used because game files carry two dot extensions
// like '.perm.bin'.
func SetHandler(suffix string, ldr FileLoader) {
	gHandlers[strings.ToUpper(suffix)] = ldr
}

func CallHandler(d vfs.Directory, s utils.ResourceSource, r *io.SectionReader) (interface{}, error) {
	name := strings.ToUpper(s.Name())

	for suffix, h := range gHandlers {
		if strings.HasSuffix(name, suffix) {
			return h(d, s, r)
		}
	}
	return nil, fmt.Errorf("[pack] Cannot find handler for '%s'", s.Name())
}

type PackResSrc struct {
	pf vfs.File
}

func (s *PackResSrc) Name() string {
	return s.pf.Name()
}

func (s *PackResSrc) Size() int64 {
	return s.pf.Size()
}

var (
	gInstanceCacheMu sync.Mutex
	gInstanceCache   = make(map[string]interface{})
)

// FlushCachedInstance drops the parsed representation of a file,
// upload handlers call this after replacing file contents.
func FlushCachedInstance(fileName string) {
	gInstanceCacheMu.Lock()
	defer gInstanceCacheMu.Unlock()
	delete(gInstanceCache, fileName)
}

func GetInstanceHandler(d vfs.Directory, fileName string) (interface{}, error) {
	gInstanceCacheMu.Lock()
	cached, ok := gInstanceCache[fileName]
	gInstanceCacheMu.Unlock()
	if ok {
		return cached, nil
	}

	f, err := vfs.DirectoryGetFile(d, fileName)
	if err != nil {
		return nil, fmt.Errorf("[pack] Cannot get file '%s': %v", fileName, err)
	}

	r, err := vfs.OpenFileAndGetReader(f, true)
	if err != nil {
		return nil, fmt.Errorf("[pack] Cannot get instance of '%s': %v", fileName, err)
	}
	defer f.Close()

	inst, err := CallHandler(d, &PackResSrc{pf: f}, r)
	if err != nil {
		return nil, fmt.Errorf("[pack] Handler error: %v", err)
	}

	gInstanceCacheMu.Lock()
	gInstanceCache[fileName] = inst
	gInstanceCacheMu.Unlock()

	return inst, nil
}
