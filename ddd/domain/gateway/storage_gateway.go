package gateway

import "context"

// UploadObject 批量上传的单个对象
type UploadObject struct {
	LocalPath   string
	ObjectKey   string
	ContentType string
}

// StorageGateway 对象存储网关
type StorageGateway interface {
	// DownloadFile 将对象下载到本地路径
	DownloadFile(ctx context.Context, objectKey, localPath string) error
	// UploadFile 上传单个文件，返回对象键
	UploadFile(ctx context.Context, localPath, objectKey, contentType string) (string, error)
	// UploadObjects 批量上传，任一对象失败即返回错误（已上传的不回滚）
	UploadObjects(ctx context.Context, objects []UploadObject) error
	// Exists 检查对象是否存在
	Exists(ctx context.Context, objectKey string) (bool, error)
}
