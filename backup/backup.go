// Package backup writes enrollment snapshots as standalone SQLite files.
package backup

import (
	"biometria/db"
	"biometria/models"
	"biometria/storage"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

const batchSize = 100

type Artifact struct {
	Name     string
	Location string
	Records  int
	Size     int64
}

type Archiver struct {
	dest     storage.Destination
	tmpDir   string
	compress bool
	logger   *slog.Logger
	now      func() time.Time
}

func NewArchiver(dest storage.Destination, tmpDir string, compress bool, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{dest: dest, tmpDir: tmpDir, compress: compress, logger: logger, now: time.Now}
}

// ArtifactName is unique per call even within the same millisecond.
func (a *Archiver) ArtifactName() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := fmt.Sprintf("backup_biometria_%d_%s.sqlite", a.now().UnixMilli(), suffix)
	if a.compress {
		name += ".zst"
	}
	return name
}

// Archive writes records to a new artifact and stores it at the destination.
func (a *Archiver) Archive(ctx context.Context, records []models.Enrollment) (*Artifact, error) {
	work, err := os.MkdirTemp(a.tmpDir, "biometria-backup-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(work)

	name := a.ArtifactName()
	path := filepath.Join(work, "snapshot.sqlite")
	if err = writeSQLite(ctx, path, records); err != nil {
		return nil, err
	}
	if a.compress {
		if path, err = compressFile(path); err != nil {
			return nil, err
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	location, err := a.dest.Save(ctx, name, file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", name, err)
	}
	a.logger.Info("backup written", "artifact", name, "location", location, "records", len(records), "bytes", info.Size())
	return &Artifact{Name: name, Location: location, Records: len(records), Size: info.Size()}, nil
}

func writeSQLite(ctx context.Context, path string, records []models.Enrollment) error {
	gdb, err := db.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	if err = models.Init(gdb); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	if err = gdb.WithContext(ctx).CreateInBatches(&records, batchSize).Error; err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func compressFile(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	outPath := path + ".zst"
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(enc, in); err != nil {
		enc.Close()
		return "", fmt.Errorf("compress: %w", err)
	}
	if err = enc.Close(); err != nil {
		return "", fmt.Errorf("compress: %w", err)
	}
	return outPath, out.Sync()
}
