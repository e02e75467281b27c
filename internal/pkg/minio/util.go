package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Scheme CSV 源使用的对象地址前缀
const Scheme = "minio://"

// ParseURI 解析 minio://bucket/path/to/object
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, Scheme) {
		return "", "", fmt.Errorf("not a minio uri: %q", uri)
	}
	bucket, object, ok := strings.Cut(strings.TrimPrefix(uri, Scheme), "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("minio uri must be minio://bucket/object, got %q", uri)
	}
	return bucket, object, nil
}

// OpenObject 打开对象用于流式读取，对象不存在时立即返回错误
func OpenObject(ctx context.Context, client *minio.Client, bucket, object string) (io.ReadCloser, error) {
	if client == nil {
		return nil, fmt.Errorf("minio client is not initialized")
	}
	if _, err := client.StatObject(ctx, bucket, object, minio.StatObjectOptions{}); err != nil {
		return nil, fmt.Errorf("failed to stat object %s/%s: %w", bucket, object, err)
	}
	obj, err := client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, object, err)
	}
	return obj, nil
}

// UploadFile 上传文件到 MinIO，桶不存在时自动创建
func UploadFile(ctx context.Context, client *minio.Client, bucket, object string, reader io.Reader, size int64, contentType string) (string, error) {
	if client == nil {
		return "", fmt.Errorf("minio client is not initialized")
	}
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return "", fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	uploadInfo, err := client.PutObject(ctx, bucket, object, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return uploadInfo.Key, nil
}
