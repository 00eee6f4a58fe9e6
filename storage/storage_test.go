package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskSave(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "backups")
	s := NewDiskStorage(dir)

	path, err := s.Save(ctx, "a.sqlite", strings.NewReader("first"), 5)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.sqlite"), path)

	_, err = s.Save(ctx, "a.sqlite", strings.NewReader("second"), 6)
	assert.ErrorIs(t, err, ErrExists)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no partial files are left behind")
}

func TestDiskSaveRejects(t *testing.T) {
	ctx := context.Background()
	s := NewDiskStorage(t.TempDir())

	for _, name := range []string{"", "..", "../escape", "a/b"} {
		_, err := s.Save(ctx, name, strings.NewReader("x"), 1)
		assert.ErrorIs(t, err, ErrInvalidKey, name)
	}

	_, err := s.Save(ctx, "huge", strings.NewReader("x"), 1<<62)
	assert.ErrorIs(t, err, ErrNoSpace)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Save(canceled, "canceled", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(filepath.Join(s.BasePath, "canceled"))
	assert.True(t, os.IsNotExist(statErr))
}

// fakeS3 is just enough of the S3 REST API for HeadObject and PutObject.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodHead:
		if _, ok := f.objects[r.URL.Path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3Save(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s, err := NewS3Storage(Bucket{
		Name:        "backups",
		Path:        "biometria/",
		Region:      "us-east-1",
		Endpoint:    srv.URL,
		AuthDetails: "key:secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "s3://backups/biometria/", s.Location())

	ctx := context.Background()
	loc, err := s.Save(ctx, "a.sqlite", bytes.NewReader([]byte("payload")), 7)
	require.NoError(t, err)
	assert.Equal(t, "s3://backups/biometria/a.sqlite", loc)
	assert.Equal(t, []byte("payload"), fake.objects["/backups/biometria/a.sqlite"])

	_, err = s.Save(ctx, "a.sqlite", bytes.NewReader([]byte("other")), 5)
	assert.ErrorIs(t, err, ErrExists)
	assert.Equal(t, []byte("payload"), fake.objects["/backups/biometria/a.sqlite"])
}

func TestBucketRemotePath(t *testing.T) {
	assert.Equal(t, "x", (&Bucket{}).GetRemotePath("x"))
	assert.Equal(t, "p/x", (&Bucket{Path: "p"}).GetRemotePath("x"))
	assert.Equal(t, "p/x", (&Bucket{Path: "p/"}).GetRemotePath("x"))
}

func TestNewS3StorageRequiresBucket(t *testing.T) {
	_, err := NewS3Storage(Bucket{})
	assert.Error(t, err)
}
