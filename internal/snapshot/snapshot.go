// Package snapshot provides the default database snapshot used to restore
// the relational backend: a local file or an object in S3-compatible
// storage.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/movieweb/internal/common"
)

// Source yields the bytes of a default snapshot. Callers close the reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileSource reads the snapshot from a local file.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: default snapshot %s", common.ErrNotFound, f.Path)
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	return file, nil
}

func (f *FileSource) String() string {
	return "file://" + f.Path
}
