package scriptio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"roster-manager/core/apperr"
	"roster-manager/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// stampLayout names backups sortably: select.def.20060102-150405.bak
const stampLayout = "20060102-150405"

// Backup copies path to a timestamped sibling and returns the backup path.
// A missing source is not an error (first write of a fresh install); the
// returned path is empty in that case.
func Backup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", apperr.IO(path, "could not read roster script for backup", err)
	}

	backup := fmt.Sprintf("%s.%s.bak", path, time.Now().Format(stampLayout))
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return "", apperr.IO(backup, "could not write roster script backup", err)
	}
	return backup, nil
}

// WriteAtomic replaces path with data via write-to-temp + rename so an
// interrupted process never leaves a truncated file behind.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return apperr.IO(path, "could not create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperr.IO(tmpName, "could not write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperr.IO(tmpName, "could not sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperr.IO(tmpName, "could not close temp file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return apperr.IO(path, "could not replace file", err)
	}
	return nil
}

// Prune deletes all but the newest keep backups of path. The timestamp in
// the name sorts lexically, so name order is age order.
func Prune(path string, keep int) error {
	if keep <= 0 {
		return nil
	}
	matches, err := filepath.Glob(path + ".*.bak")
	if err != nil {
		return apperr.IO(path, "could not list backups", err)
	}
	if len(matches) <= keep {
		return nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	for _, old := range matches[keep:] {
		if err := os.Remove(old); err != nil {
			return apperr.IO(old, "could not prune backup", err)
		}
	}
	return nil
}

// Saver owns all roster script writes: every save takes a timestamped
// backup, writes atomically, prunes old backups, and mirrors the backup
// to object storage when a mirror is configured.
type Saver struct {
	keep   int
	logger *zap.Logger
	mirror storage.Client
	bucket string
}

// NewSaver creates a Saver. mirror may be nil to keep backups local only.
func NewSaver(keep int, logger *zap.Logger, mirror storage.Client, bucket string) *Saver {
	return &Saver{keep: keep, logger: logger, mirror: mirror, bucket: bucket}
}

// Save backs up and atomically replaces path with data.
func (s *Saver) Save(ctx context.Context, path string, data []byte) error {
	backup, err := Backup(path)
	if err != nil {
		return err
	}
	if err := WriteAtomic(path, data); err != nil {
		return err
	}
	if err := Prune(path, s.keep); err != nil {
		s.logger.Warn("Backup prune failed", zap.Error(err))
	}
	if backup != "" && s.mirror != nil {
		// Mirror upload is best effort and must not block the mutation.
		go s.uploadBackup(context.WithoutCancel(ctx), backup, filepath.Base(path)+".")
	}
	return nil
}

func (s *Saver) uploadBackup(ctx context.Context, backup, prefix string) {
	data, err := os.ReadFile(backup)
	if err != nil {
		s.logger.Warn("Backup mirror read failed", zap.String("backup", backup), zap.Error(err))
		return
	}

	exists, err := s.mirror.BucketExists(ctx, s.bucket)
	if err != nil {
		s.logger.Warn("Backup mirror bucket check failed", zap.Error(err))
		return
	}
	if !exists {
		if err := s.mirror.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			// Races with another uploader creating the bucket are fine.
			if !strings.Contains(err.Error(), "already") {
				s.logger.Warn("Backup mirror bucket create failed", zap.Error(err))
				return
			}
		}
	}

	object := filepath.Base(backup)
	_, err = s.mirror.PutObject(ctx, s.bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		s.logger.Warn("Backup mirror upload failed", zap.String("object", object), zap.Error(err))
		return
	}
	s.logger.Info("Backup mirrored", zap.String("object", object))

	s.pruneMirror(ctx, prefix)
}

// pruneMirror applies the same retention count to the mirrored backups:
// the timestamped names sort lexically, so name order is age order.
func (s *Saver) pruneMirror(ctx context.Context, prefix string) {
	if s.keep <= 0 {
		return
	}

	var names []string
	for obj := range s.mirror.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			s.logger.Warn("Backup mirror list failed", zap.Error(obj.Err))
			return
		}
		if strings.HasSuffix(obj.Key, ".bak") {
			names = append(names, obj.Key)
		}
	}
	if len(names) <= s.keep {
		return
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	for _, old := range names[s.keep:] {
		if err := s.mirror.RemoveObject(ctx, s.bucket, old, minio.RemoveObjectOptions{}); err != nil {
			s.logger.Warn("Backup mirror prune failed", zap.String("object", old), zap.Error(err))
		}
	}
}
