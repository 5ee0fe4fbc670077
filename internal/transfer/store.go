package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrTransfer       = errors.New("transfer failed")
)

// Store moves media in and out of object storage. Downloads and uploads
// are streamed; nothing buffers a whole object in memory.
type Store struct {
	client *minio.Client
	logger zerolog.Logger
}

func NewStore(client *minio.Client, logger zerolog.Logger) *Store {
	return &Store{
		client: client,
		logger: logger.With().Str("component", "transfer").Logger(),
	}
}

// Download streams the object at bucket/key to localPath.
func (s *Store) Download(ctx context.Context, bucket, key, localPath string) error {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("%w: get %s/%s: %v", ErrTransfer, bucket, key, err)
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
		}
		return fmt.Errorf("%w: stat %s/%s: %v", ErrTransfer, bucket, key, err)
	}
	if stat.Size == 0 {
		return fmt.Errorf("%w: %s/%s is empty", ErrObjectNotFound, bucket, key)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrTransfer, localPath, err)
	}
	defer f.Close()

	n, err := io.Copy(f, obj)
	if err != nil {
		return fmt.Errorf("%w: stream %s/%s: %v", ErrTransfer, bucket, key, err)
	}

	s.logger.Info().
		Str("bucket", bucket).
		Str("key", key).
		Int64("bytes", n).
		Msg("source downloaded")
	return nil
}

// UploadDirectory walks localDir and uploads every file under
// keyPrefix, preserving the relative layout with forward-slash keys.
// Uploads are sequential and not atomic; a reader could observe a
// partial tree mid-transfer, which is fine because consumers wait for
// the content record to report ready before touching the manifest.
func (s *Store) UploadDirectory(ctx context.Context, localDir, bucket, keyPrefix string) error {
	var uploaded int

	err := filepath.WalkDir(localDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		key := DestinationKey(keyPrefix, rel)

		if _, err := s.client.FPutObject(ctx, bucket, key, path, minio.PutObjectOptions{
			ContentType: ContentTypeFor(path),
		}); err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
		uploaded++
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: upload dir %s: %v", ErrTransfer, localDir, err)
	}

	s.logger.Info().
		Str("bucket", bucket).
		Str("prefix", keyPrefix).
		Int("files", uploaded).
		Msg("output tree uploaded")
	return nil
}

// DeleteObject removes the object at bucket/key. Source cleanup is an
// optimization: callers log failures and move on.
func (s *Store) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s/%s: %w", bucket, key, err)
	}
	return nil
}

// DestinationKey joins a key prefix with a host-relative file path,
// normalizing separators to forward slashes and stripping any leading
// slash.
func DestinationKey(prefix, rel string) string {
	rel = strings.ReplaceAll(filepath.ToSlash(rel), `\`, "/")
	key := strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(rel, "/")
	return strings.TrimLeft(key, "/")
}

// ContentTypeFor maps output file extensions to the media types HLS
// players expect.
func ContentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}
