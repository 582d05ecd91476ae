package vfs

import (
	"fmt"
	"io"
)

func DirectoryGetFile(d Directory, name string) (File, error) {
	e, err := d.GetElement(name)
	if err != nil {
		return nil, fmt.Errorf("Failed to get file '%s': %v", name, err)
	}
	if e.IsDirectory() {
		return nil, fmt.Errorf("'%s' is a directory, not a file", name)
	}
	return e.(File), nil
}

func OpenFileAndGetReader(f File, readonly bool) (*io.SectionReader, error) {
	if err := f.Open(readonly); err != nil {
		return nil, fmt.Errorf("Failed to open file '%s': %v", f.Name(), err)
	}

	r, err := f.Reader()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("Failed to get reader of '%s': %v", f.Name(), err)
	}
	return r, nil
}

func OpenFileAndCopy(f File, src io.Reader) error {
	if err := f.Open(false); err != nil {
		return fmt.Errorf("Failed to open file '%s': %v", f.Name(), err)
	}
	defer f.Close()

	if err := f.Copy(src); err != nil {
		return fmt.Errorf("Failed to replace contents of '%s': %v", f.Name(), err)
	}
	return nil
}

// OpenFileAndGetContents reads the whole file into memory. Parsers
// that need random access over small game files use this.
func OpenFileAndGetContents(f File) ([]byte, error) {
	r, err := OpenFileAndGetReader(f, true)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, r.Size())
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("Failed to read file '%s': %v", f.Name(), err)
	}
	return buf, nil
}
