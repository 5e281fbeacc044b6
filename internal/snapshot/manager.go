// Package snapshot uploads database snapshots to an S3-compatible object
// store and prunes old ones.
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/trfife/BarnabeeNet-sub002/internal/config"
	"github.com/trfife/BarnabeeNet-sub002/internal/logger"
	"github.com/trfife/BarnabeeNet-sub002/internal/store"
)

const objectPrefix = "memory-"

// Manager snapshots the database and keeps the copies in one bucket.
type Manager struct {
	mc     *minio.Client
	bucket string
	store  *store.Store
}

// NewManager builds the object-store client. The connection is lazy; Init
// does the first round trip.
func NewManager(cfg config.SnapshotConfig, st *store.Store) (*Manager, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("snapshot endpoint not configured")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Manager{mc: mc, bucket: cfg.Bucket, store: st}, nil
}

// Init creates the snapshot bucket if it does not exist.
func (m *Manager) Init(ctx context.Context) error {
	exists, err := m.mc.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if !exists {
		if err := m.mc.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", m.bucket, err)
		}
		logger.Info("bucket created", "bucket", m.bucket)
	}
	return nil
}

// Upload writes a consistent copy of the database with VACUUM INTO and
// uploads it as a timestamped object. Returns the object name.
func (m *Manager) Upload(ctx context.Context) (string, error) {
	tmp, err := os.CreateTemp("", "barnabee-snapshot-*.db")
	if err != nil {
		return "", fmt.Errorf("snapshot temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	// VACUUM INTO refuses to write over an existing file
	os.Remove(tmpPath)
	defer os.Remove(tmpPath)

	if err := m.store.SnapshotInto(ctx, tmpPath); err != nil {
		return "", fmt.Errorf("vacuum into: %w", err)
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("read snapshot: %w", err)
	}

	name := objectName(time.Now())
	_, err = m.mc.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/vnd.sqlite3",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", m.bucket, name, err)
	}

	logger.Info("snapshot uploaded", "object", name, "size", len(data))
	return name, nil
}

func objectName(t time.Time) string {
	return objectPrefix + t.UTC().Format("20060102-150405") + ".db"
}

// Info describes one stored snapshot.
type Info struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// List returns stored snapshots. Object names carry the snapshot time, so
// the lexical listing order is chronological.
func (m *Manager) List(ctx context.Context) ([]Info, error) {
	var out []Info
	opts := minio.ListObjectsOptions{Prefix: objectPrefix, Recursive: false}
	for obj := range m.mc.ListObjects(ctx, m.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", m.bucket, obj.Err)
		}
		out = append(out, Info{Name: obj.Key, Size: obj.Size, ModTime: obj.LastModified})
	}
	return out, nil
}

// Download fetches one stored snapshot by object name.
func (m *Manager) Download(ctx context.Context, name string) ([]byte, error) {
	obj, err := m.mc.GetObject(ctx, m.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", m.bucket, name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", m.bucket, name, err)
	}
	return data, nil
}

// Prune removes the oldest snapshots so that at most keep remain.
func (m *Manager) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1, got %d", keep)
	}
	snaps, err := m.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(snaps) <= keep {
		return 0, nil
	}

	removed := 0
	for _, s := range snaps[:len(snaps)-keep] {
		if err := m.mc.RemoveObject(ctx, m.bucket, s.Name, minio.RemoveObjectOptions{}); err != nil {
			return removed, fmt.Errorf("delete %s/%s: %w", m.bucket, s.Name, err)
		}
		removed++
	}
	logger.Info("snapshots pruned", "removed", removed, "kept", keep)
	return removed, nil
}

// Healthy reports whether the object store answers.
func (m *Manager) Healthy(ctx context.Context) bool {
	_, err := m.mc.BucketExists(ctx, m.bucket)
	return err == nil
}
