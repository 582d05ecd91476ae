package perm

import (
	"bytes"
	"fmt"
	"net/http"
	"reflect"

	"github.com/JonYeb/sleeping_dogs_browser/webutils"
)

func (p *Perm) WebHandlerForChunkById(w http.ResponseWriter, id ChunkId) error {
	chunk := p.GetChunkById(id)
	data, err := p.GetInstanceFromChunk(id)
	if err == nil {
		type Result struct {
			Chunk *Chunk
			Type  string
			Data  interface{}
		}
		val, err := data.Marshal(p.GetChunkResource(id))
		if err != nil {
			return fmt.Errorf("Error marshaling chunk %d from %s: %v", id, p.Name(), err)
		}
		webutils.WriteJson(w, &Result{Chunk: chunk, Type: TypeTagName(chunk.Header.TypeTag), Data: val})
	} else {
		return fmt.Errorf("File %s-%d[%s] parsing error: %v", p.Name(), id, chunk.Name, err)
	}
	return nil
}

func (p *Perm) WebHandlerDumpChunkData(w http.ResponseWriter, id ChunkId) {
	chunk := p.GetChunkById(id)
	webutils.WriteFile(w, bytes.NewBuffer(chunk.Raw), chunk.Name)
}

func (p *Perm) WebHandlerCallChunkHttpAction(w http.ResponseWriter, r *http.Request, id ChunkId, action string) error {
	if inst, err := p.GetInstanceFromChunk(id); err == nil {
		rt := reflect.TypeOf(inst)
		method, has := rt.MethodByName("HttpAction")
		if !has {
			return fmt.Errorf("Error: %s has not func HttpAction", rt.Name())
		}
		method.Func.Call([]reflect.Value{
			reflect.ValueOf(inst),
			reflect.ValueOf(p.GetChunkResource(id)),
			reflect.ValueOf(w),
			reflect.ValueOf(r),
			reflect.ValueOf(action),
		})
		return nil
	} else {
		return fmt.Errorf("Chunk %d instance getting error: %v", id, err)
	}
}
