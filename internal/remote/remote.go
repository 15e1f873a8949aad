package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/julien-sobczak/the-lessonwriter/internal/config"
)

var (
	ErrObjectNotExist = errors.New("object does not exist")
)

// Remote provides an abstraction in front of the places where lesson
// content can be stored (drafts, generated outputs, templates).
type Remote interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, content []byte) error
	DeleteObject(ctx context.Context, key string) error
}

// NewFromConfig creates the remote declared in the configuration.
func NewFromConfig(cfg *config.Config) (Remote, error) {
	settings := cfg.ConfigFile.Remote
	switch settings.Type {
	case "fs":
		dir := settings.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.RootDirectory, dir)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		return NewFSRemote(dir)
	case "s3":
		return NewS3RemoteWithCredentials(settings.Endpoint, settings.BucketName, settings.AccessKey, settings.SecretKey, settings.Secure)
	}
	return nil, fmt.Errorf("unsupported remote type %q", settings.Type)
}

/* FS */

type FSRemote struct {
	path string
}

func NewFSRemote(dirpath string) (*FSRemote, error) {
	stat, err := os.Stat(dirpath)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dirpath)
	}

	return &FSRemote{
		path: dirpath,
	}, nil
}

func (r *FSRemote) GetObject(ctx context.Context, key string) ([]byte, error) {
	path := filepath.Join(r.path, key)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrObjectNotExist
	}
	return data, err
}

func (r *FSRemote) PutObject(ctx context.Context, key string, data []byte) error {
	dirPath := filepath.Join(r.path, filepath.Dir(key))
	err := os.MkdirAll(dirPath, 0755)
	if err != nil {
		return err
	}
	filePath := filepath.Join(r.path, key)
	return os.WriteFile(filePath, data, 0644)
}

func (r *FSRemote) DeleteObject(ctx context.Context, key string) error {
	path := filepath.Join(r.path, key)
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrObjectNotExist
	}
	return os.Remove(path)
}

/* S3 */

type S3Remote struct {
	bucketName  string
	minioClient *minio.Client
}

func NewS3RemoteWithCredentials(endpoint string, bucketName string, accessKey, secretKey string, secure bool) (*S3Remote, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}
	return NewS3RemoteFromClient(bucketName, minioClient), nil
}

func NewS3RemoteFromClient(bucketName string, minioClient *minio.Client) *S3Remote {
	return &S3Remote{
		bucketName:  bucketName,
		minioClient: minioClient,
	}
}

func (r *S3Remote) GetObject(ctx context.Context, key string) ([]byte, error) {
	object, err := r.minioClient.GetObject(ctx, r.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()
	stat, err := object.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotExist
		}
		return nil, err
	}
	if stat.Size == 0 {
		return nil, ErrObjectNotExist
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(object); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *S3Remote) PutObject(ctx context.Context, key string, data []byte) error {
	_, err := r.minioClient.PutObject(ctx, r.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(key),
	})
	return err
}

func (r *S3Remote) DeleteObject(ctx context.Context, key string) error {
	_, err := r.GetObject(ctx, key)
	if err != nil {
		return err
	}
	return r.minioClient.RemoveObject(ctx, r.bucketName, key, minio.RemoveObjectOptions{})
}

func contentType(key string) string {
	switch filepath.Ext(key) {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".html":
		return "text/html; charset=utf-8"
	case ".yaml", ".yml":
		return "application/yaml"
	}
	return "text/plain; charset=utf-8"
}
