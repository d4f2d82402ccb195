package storage

import (
	"errors"
	"io"
)

var ErrInvalidPath = errors.New("invalid path")

type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Storage keeps generated images. SaveFile returns the stored name, which is
// the only form OpenFile and DeleteFile accept.
type Storage interface {
	SaveFile(r io.Reader, info FileInfo) (string, error)
	OpenFile(name string) (io.ReadSeekCloser, error)
	DeleteFile(name string) error
}
