package vfs

import (
	"io"
)

// Element is any entry of a mounted game directory. Implementations
// stay cheap until Open is called, holding only the name.
type Element interface {
	Init(parent Directory)
	Name() string
	IsDirectory() bool
}

// File is opened for reading chunks and replaced as a whole on upload.
type File interface {
	Element
	Size() int64
	Open(readonly bool) error
	Close() error
	Reader() (*io.SectionReader, error)
	ReadAt(b []byte, off int64) (n int, err error)
	Copy(src io.Reader) error
}

type Directory interface {
	Element
	List() ([]string, error)
	GetElement(name string) (Element, error)
}
