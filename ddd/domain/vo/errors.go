package vo

import (
	"errors"
	"fmt"
)

// 入场与查询错误
var (
	// ErrAlreadyInProgress 同一资源已有处理中的任务
	ErrAlreadyInProgress = errors.New("packaging already in progress for resource")
	// ErrJobNotFound 任务不存在或已被清理
	ErrJobNotFound = errors.New("packaging job not found")
)

// FetchError 源文件下载失败
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch source: %v", e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// EncodeError 某个档位编码失败，携带外部编码器的诊断输出。
type EncodeError struct {
	Rendition string
	Err       error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode rendition %s: %v", e.Rendition, e.Err)
}
func (e *EncodeError) Unwrap() error { return e.Err }

// PublishError 切片/播放列表上传失败（可能部分文件已上传成功）。
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string { return fmt.Sprintf("publish renditions: %v", e.Err) }
func (e *PublishError) Unwrap() error { return e.Err }

// ManifestError master playlist生成或上传失败
type ManifestError struct {
	Err error
}

func (e *ManifestError) Error() string { return fmt.Sprintf("publish manifest: %v", e.Err) }
func (e *ManifestError) Unwrap() error { return e.Err }
