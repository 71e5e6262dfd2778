package loaders

import (
	"io"
	"os"
	"path/filepath"
)

// Resource is the raw payload of a loaded asset file.
type Resource struct {
	Name     string
	FullPath string
	DataSize uint64
	Data     []byte
}

type Loader interface {
	Load(path string) (*Resource, error)
	Unload(*Resource) error
}

type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string) (*Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return &Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(buf)),
		Data:     buf,
	}, nil
}

func (bl *BinaryLoader) Unload(*Resource) error {
	return nil
}
