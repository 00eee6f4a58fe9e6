package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

type DiskStorage struct {
	// BasePath is a directory (usually mount point of a disk) that is writable by the current process
	BasePath  string
	dirOK     bool
	dirsMutex sync.Mutex
}

func NewDiskStorage(basePath string) *DiskStorage {
	return &DiskStorage{BasePath: basePath}
}

func (s *DiskStorage) createDir() error {
	s.dirsMutex.Lock()
	defer s.dirsMutex.Unlock()

	if s.dirOK {
		return nil
	}
	if err := os.MkdirAll(s.BasePath, 0750); err != nil {
		return err
	}
	s.dirOK = true
	return nil
}

func (s *DiskStorage) getFullPath(name string) string {
	return filepath.Join(s.BasePath, name)
}

func (s *DiskStorage) Location() string {
	return s.BasePath
}

// GetFreeSpace reports the bytes available to the current user.
func (s *DiskStorage) GetFreeSpace() uint64 {
	return freeSpace(s.BasePath)
}

// Save writes a ".partial" file first and hard-links it to its final name,
// so a reader never sees a half written artifact and an existing one is
// never replaced.
func (s *DiskStorage) Save(ctx context.Context, name string, reader io.Reader, size int64) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, name)
	}
	if err := s.createDir(); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	fileName := s.getFullPath(name)
	if _, err := os.Stat(fileName); err == nil {
		return "", fmt.Errorf("%w: %s", ErrExists, fileName)
	}
	if free := s.GetFreeSpace(); size > 0 && uint64(size) > free {
		return "", fmt.Errorf("%w: need %d bytes, %d available", ErrNoSpace, size, free)
	}

	partial := fileName + ".partial"
	file, err := os.OpenFile(partial, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640)
	if err != nil {
		return "", err
	}
	defer os.Remove(partial)

	_, err = io.Copy(file, readerWithContext(ctx, reader))
	if err == nil {
		err = file.Sync()
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", partial, err)
	}

	if err = os.Link(partial, fileName); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, fileName)
		}
		return "", fmt.Errorf("publish %s: %w", fileName, err)
	}
	return fileName, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
