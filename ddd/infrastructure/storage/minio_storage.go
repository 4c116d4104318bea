package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"

	"vod-packager/ddd/domain/gateway"
	"vod-packager/internal/resource"
	"vod-packager/pkg/logger"
)

// MinioStorage MinIO存储实现
type MinioStorage struct {
	minioResource *resource.MinioResource
}

// NewMinioStorage 创建MinIO存储实例
func NewMinioStorage(minioResource *resource.MinioResource) gateway.StorageGateway {
	return &MinioStorage{
		minioResource: minioResource,
	}
}

// DownloadFile 从MinIO下载对象到本地路径
func (s *MinioStorage) DownloadFile(ctx context.Context, objectKey, localPath string) error {
	client := s.minioResource.GetClient()
	bucketName := s.minioResource.GetBucketName()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create local directory failed: %w", err)
	}

	object, err := client.GetObject(ctx, bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("get object from minio failed: %w", err)
	}
	defer object.Close()

	localFile, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create local file failed: %w", err)
	}
	defer localFile.Close()

	// GetObject是惰性的，首次读取才会暴露NoSuchKey之类的错误
	if _, err := localFile.ReadFrom(object); err != nil {
		return fmt.Errorf("download object %s failed: %w", objectKey, err)
	}

	logger.Info("object downloaded", map[string]interface{}{
		"object_key": objectKey,
		"local_path": localPath,
	})
	return nil
}

// UploadFile 上传单个文件，返回对象键
func (s *MinioStorage) UploadFile(ctx context.Context, localPath, objectKey, contentType string) (string, error) {
	client := s.minioResource.GetClient()
	bucketName := s.minioResource.GetBucketName()

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open local file failed: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("get file info failed: %w", err)
	}

	_, err = client.PutObject(ctx, bucketName, objectKey, file, fileInfo.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload object to minio failed: %w", err)
	}

	logger.Info("object uploaded", map[string]interface{}{
		"object_key": objectKey,
		"size":       fileInfo.Size(),
	})
	return objectKey, nil
}

// UploadObjects 批量上传对象，任一失败立即返回。
func (s *MinioStorage) UploadObjects(ctx context.Context, objects []gateway.UploadObject) error {
	for _, obj := range objects {
		if _, err := s.UploadFile(ctx, obj.LocalPath, obj.ObjectKey, obj.ContentType); err != nil {
			return fmt.Errorf("upload %s: %w", obj.ObjectKey, err)
		}
	}
	return nil
}

// Exists 检查对象是否存在
func (s *MinioStorage) Exists(ctx context.Context, objectKey string) (bool, error) {
	client := s.minioResource.GetClient()
	bucketName := s.minioResource.GetBucketName()

	_, err := client.StatObject(ctx, bucketName, objectKey, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return false, nil
		}
		return false, fmt.Errorf("stat object failed: %w", err)
	}
	return true, nil
}
