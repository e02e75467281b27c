package csvsource

import (
	"Pulseboard/internal/model"
	pminio "Pulseboard/internal/pkg/minio"
	"context"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Source CSV 数据来源
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

type fileSource struct {
	path string
}

func (s fileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(s.path)
}

func (s fileSource) String() string { return s.path }

type objectSource struct {
	client *minio.Client
	bucket string
	object string
}

func (s objectSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return pminio.OpenObject(ctx, s.client, s.bucket, s.object)
}

func (s objectSource) String() string { return pminio.Scheme + s.bucket + "/" + s.object }

// New 根据地址选择来源：minio://bucket/object 走对象存储，其余按本地路径处理
func New(uri string, client *minio.Client) (Source, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("empty csv source")
	}
	if strings.HasPrefix(uri, pminio.Scheme) {
		if client == nil {
			return nil, fmt.Errorf("csv source %q needs minio, but minio is disabled", uri)
		}
		bucket, object, err := pminio.ParseURI(uri)
		if err != nil {
			return nil, err
		}
		return objectSource{client: client, bucket: bucket, object: object}, nil
	}
	return fileSource{path: uri}, nil
}

// Load 打开来源并解析全部记录
func Load(ctx context.Context, src Source) ([]model.RawPost, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open csv source %s: %w", src, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	records, err := Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parse csv source %s: %w", src, err)
	}
	log.InfoContext(ctx, "CSV source loaded", "source", src.String(), "rows", len(records))
	return records, nil
}
