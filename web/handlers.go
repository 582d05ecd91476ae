package web

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/JonYeb/sleeping_dogs_browser/pack"
	file_perm "github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/vfs"
	"github.com/JonYeb/sleeping_dogs_browser/webutils"
)

func HandlerAjaxPack(w http.ResponseWriter, r *http.Request) {
	if files, err := ServerDirectory.List(); err != nil {
		webutils.WriteError(w, err)
	} else {
		sort.Strings(files)
		webutils.WriteJson(w, files)
	}
}

func HandlerAjaxPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	data, err := pack.GetInstanceHandler(ServerDirectory, file)
	if err != nil {
		log.Printf("Error getting file from pack: %v", err)
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, data)
	}
}

// chunkIdFromRequest parses the {param} route part, perm containers
// address their resources by chunk id.
func chunkIdFromRequest(param string) (file_perm.ChunkId, error) {
	id, err := strconv.Atoi(param)
	if err != nil {
		return 0, fmt.Errorf("param '%s' is not integer", param)
	}
	return file_perm.ChunkId(id), nil
}

func HandlerAjaxPackFileParam(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	param := mux.Vars(r)["param"]
	data, err := pack.GetInstanceHandler(ServerDirectory, file)
	if err != nil {
		log.Printf("Error getting file from pack: %v", err)
		webutils.WriteError(w, err)
		return
	}

	switch p := data.(type) {
	case *file_perm.Perm:
		id, err := chunkIdFromRequest(param)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		if err := p.WebHandlerForChunkById(w, id); err != nil {
			webutils.WriteError(w, fmt.Errorf("perm web handler return error: %v", err))
		}
	default:
		webutils.WriteError(w, fmt.Errorf("File %s not contain subdata", file))
	}
}

func HandlerDumpPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	f, err := vfs.DirectoryGetFile(ServerDirectory, file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	if reader, err := vfs.OpenFileAndGetReader(f, true); err == nil {
		defer f.Close()
		webutils.WriteFile(w, reader, file)
	} else {
		fmt.Fprintf(w, "Error getting file reader: %v", err)
	}
}

func HandlerDumpPackParamFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	param := mux.Vars(r)["param"]
	data, err := pack.GetInstanceHandler(ServerDirectory, file)
	if err != nil {
		log.Printf("Error getting file from pack: %v", err)
		webutils.WriteError(w, err)
		return
	}

	switch p := data.(type) {
	case *file_perm.Perm:
		id, err := chunkIdFromRequest(param)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		p.WebHandlerDumpChunkData(w, id)
	default:
		webutils.WriteError(w, fmt.Errorf("File %s not contain subdata", file))
	}
}

func HandlerActionPackFileParam(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	param := mux.Vars(r)["param"]
	action := mux.Vars(r)["action"]
	data, err := pack.GetInstanceHandler(ServerDirectory, file)
	if err != nil {
		log.Printf("Error getting file from pack: %v", err)
		webutils.WriteError(w, err)
		return
	}

	switch p := data.(type) {
	case *file_perm.Perm:
		id, err := chunkIdFromRequest(param)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		if err := p.WebHandlerCallChunkHttpAction(w, r, id, action); err != nil {
			webutils.WriteError(w, fmt.Errorf("Perm handler error on %s-%d instance: %v", file, id, err))
		}
	default:
		webutils.WriteError(w, fmt.Errorf("File %s not contain subdata", file))
	}
}

func HandlerUploadPackFile(w http.ResponseWriter, r *http.Request) {
	targetFile := mux.Vars(r)["file"]
	fileStream, _, err := r.FormFile("data")
	if err != nil {
		webutils.WriteError(w, fmt.Errorf("File stream getting error: %v", err))
		return
	}
	defer fileStream.Close()

	fileSize, err := fileStream.Seek(0, io.SeekEnd)
	if err != nil {
		webutils.WriteError(w, fmt.Errorf("Cannot seek file: %v", err))
		return
	}
	fileStream.Seek(0, io.SeekStart)

	f, err := vfs.DirectoryGetFile(ServerDirectory, targetFile)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	defer f.Close()

	if err := vfs.OpenFileAndCopy(f, io.NewSectionReader(fileStream, 0, fileSize)); err != nil {
		webutils.WriteError(w, fmt.Errorf("Error when updating pack file: %v", err))
		return
	}

	// parsed form is stale now
	pack.FlushCachedInstance(targetFile)
	webutils.WriteJson(w, struct{ Ok bool }{true})
}
