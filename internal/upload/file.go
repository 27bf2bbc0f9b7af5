package upload

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/dentalscan/scanctl/internal/errors"
)

// File is an upload candidate. Open is only called once validation has passed.
type File struct {
	Name string
	Size int64 // < 0 when unknown
	Open func() (io.ReadCloser, error)
}

// FromPath describes a file on the local disk
func FromPath(path string) (File, error) {
	return FromFS(afero.NewOsFs(), path)
}

// FromFS describes a file on fsys
func FromFS(fsys afero.Fs, path string) (File, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return File{}, errors.New(err).
			Category(errors.CategoryFileIO).
			Context(errors.ContextOperation, "stat_upload_file").
			Build()
	}
	if info.IsDir() {
		return File{}, errors.ValidationError(path + " is a directory")
	}

	return File{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			f, err := fsys.OpenFile(path, os.O_RDONLY, 0)
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}, nil
}
