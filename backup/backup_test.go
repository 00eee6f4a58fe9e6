package backup

import (
	"biometria/db"
	"biometria/models"
	"biometria/storage"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords(n int) []models.Enrollment {
	records := make([]models.Enrollment, n)
	for i := range records {
		records[i] = models.NewEnrollment(fmt.Sprintf("%011d", i), "", "photo", []float32{float32(i), 0.5})
	}
	return records
}

func readArtifact(t *testing.T, path string) []models.Enrollment {
	gdb, err := db.OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close(gdb)
	var got []models.Enrollment
	require.NoError(t, gdb.Order("identity_id").Find(&got).Error)
	return got
}

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	dest := storage.NewDiskStorage(filepath.Join(dir, "backups"))
	a := NewArchiver(dest, t.TempDir(), false, nil)

	records := sampleRecords(250)
	art, err := a.Archive(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 250, art.Records)
	assert.Regexp(t, regexp.MustCompile(`^backup_biometria_\d+_[0-9a-f]{8}\.sqlite$`), art.Name)
	assert.Equal(t, filepath.Join(dir, "backups", art.Name), art.Location)

	got := readArtifact(t, art.Location)
	require.Len(t, got, 250)
	assert.Equal(t, records[42].IdentityID, got[42].IdentityID)
	emb, err := got[42].Embedding()
	require.NoError(t, err)
	assert.Equal(t, []float32{42, 0.5}, emb)
}

func TestArchiveEmpty(t *testing.T) {
	dest := storage.NewDiskStorage(t.TempDir())
	art, err := NewArchiver(dest, t.TempDir(), false, nil).Archive(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, art.Records)
	assert.Empty(t, readArtifact(t, art.Location))
}

func TestArchiveCompressed(t *testing.T) {
	dest := storage.NewDiskStorage(t.TempDir())
	a := NewArchiver(dest, t.TempDir(), true, nil)
	art, err := a.Archive(context.Background(), sampleRecords(3))
	require.NoError(t, err)
	assert.Regexp(t, `\.sqlite\.zst$`, art.Name)

	compressed, err := os.ReadFile(art.Location)
	require.NoError(t, err)
	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	raw, err := dec.DecodeAll(compressed, nil)
	require.NoError(t, err)

	plain := filepath.Join(t.TempDir(), "plain.sqlite")
	require.NoError(t, os.WriteFile(plain, raw, 0600))
	assert.Len(t, readArtifact(t, plain), 3)
}

func TestArtifactNamesAreUnique(t *testing.T) {
	a := NewArchiver(nil, "", false, nil)
	fixed := time.UnixMilli(1700000000000)
	a.now = func() time.Time { return fixed }

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		name := a.ArtifactName()
		assert.False(t, seen[name], name)
		seen[name] = true
	}
}

func TestArchiveNeverOverwrites(t *testing.T) {
	dest := storage.NewDiskStorage(t.TempDir())
	a := NewArchiver(dest, t.TempDir(), false, nil)
	first, err := a.Archive(context.Background(), sampleRecords(1))
	require.NoError(t, err)
	second, err := a.Archive(context.Background(), sampleRecords(2))
	require.NoError(t, err)
	assert.NotEqual(t, first.Name, second.Name)
	assert.Len(t, readArtifact(t, first.Location), 1)
}
