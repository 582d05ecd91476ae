package vfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DirectoryDriver mounts a plain os directory. The game ships its
// assets as loose perm.bin+temp.bin pairs, so this is the only driver.
type DirectoryDriver struct {
	path string
}

func NewDirectoryDriver(path string) *DirectoryDriver {
	return &DirectoryDriver{path: path}
}

func (dd *DirectoryDriver) Init(parent Directory) {}

func (dd *DirectoryDriver) Name() string {
	return filepath.Base(dd.path)
}

func (dd *DirectoryDriver) Path() string {
	return dd.path
}

func (dd *DirectoryDriver) IsDirectory() bool {
	return true
}

func (dd *DirectoryDriver) List() ([]string, error) {
	entries, err := os.ReadDir(dd.path)
	if err != nil {
		return nil, fmt.Errorf("Failed to list directory '%s': %v", dd.path, err)
	}

	result := make([]string, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.Name())
	}
	return result, nil
}

func (dd *DirectoryDriver) GetElement(name string) (Element, error) {
	elementPath := filepath.Join(dd.path, name)
	s, err := os.Stat(elementPath)
	if err != nil {
		return nil, fmt.Errorf("Failed to stat '%s': %v", elementPath, err)
	}

	var e Element
	if s.IsDir() {
		e = NewDirectoryDriver(elementPath)
	} else {
		e = &osFile{path: elementPath}
	}
	e.Init(dd)
	return e, nil
}

// osFile defers the os.Open to the first Open call, listings stat
// thousands of files without holding descriptors.
type osFile struct {
	path string
	f    *os.File
}

func (of *osFile) Init(parent Directory) {}

func (of *osFile) Name() string {
	return filepath.Base(of.path)
}

func (of *osFile) IsDirectory() bool {
	return false
}

func (of *osFile) Size() int64 {
	stat, err := os.Stat(of.path)
	if err != nil {
		return 0
	}
	return stat.Size()
}

func (of *osFile) Open(readonly bool) error {
	if of.f != nil {
		return fmt.Errorf("File '%s' is already opened", of.path)
	}

	flags := os.O_RDWR
	if readonly {
		flags = os.O_RDONLY
	}
	f, err := os.OpenFile(of.path, flags, 0)
	if err != nil {
		return fmt.Errorf("Failed to open '%s': %v", of.path, err)
	}
	of.f = f
	return nil
}

func (of *osFile) Close() error {
	if of.f == nil {
		return nil
	}
	err := of.f.Close()
	of.f = nil
	return err
}

func (of *osFile) Reader() (*io.SectionReader, error) {
	if of.f == nil {
		return nil, fmt.Errorf("File '%s' is not opened", of.path)
	}
	return io.NewSectionReader(of.f, 0, of.Size()), nil
}

func (of *osFile) ReadAt(b []byte, off int64) (n int, err error) {
	if of.f == nil {
		return 0, fmt.Errorf("File '%s' is not opened", of.path)
	}
	return of.f.ReadAt(b, off)
}

// Copy replaces the file contents. Truncation through os.Create keeps
// the result consistent even when the source is shorter than the old
// contents.
func (of *osFile) Copy(src io.Reader) error {
	of.Close()

	f, err := os.Create(of.path)
	if err != nil {
		return fmt.Errorf("Failed to recreate '%s': %v", of.path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		return fmt.Errorf("Failed to write '%s': %v", of.path, err)
	}
	return nil
}
