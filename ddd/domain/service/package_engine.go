package service

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"vod-packager/ddd/domain/gateway"
	"vod-packager/ddd/domain/port"
	"vod-packager/ddd/domain/vo"
	"vod-packager/pkg/logger"
)

const (
	// ManifestFileName master playlist固定文件名
	ManifestFileName = "master.m3u8"
	// PlaylistFileName 各档位playlist固定文件名
	PlaylistFileName = "playlist.m3u8"
)

// PackageEngine 承担一次打包的全部I/O和外部进程工作：下载源文件、
// 逐档位调用编码器、上传切片产物、生成并上传master playlist、
// 以及无论成败都清理本地临时状态。调用之间不保留任何引擎状态。
type PackageEngine struct {
	storage gateway.StorageGateway
	encoder port.SegmentEncoder
	tempDir string
}

// NewPackageEngine 创建打包引擎
func NewPackageEngine(storage gateway.StorageGateway, encoder port.SegmentEncoder, tempDir string) *PackageEngine {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &PackageEngine{storage: storage, encoder: encoder, tempDir: tempDir}
}

// FetchSource 把源对象下载到唯一命名的本地文件。文件名带随机成分，
// 并发任务不会互相覆盖。
func (e *PackageEngine) FetchSource(ctx context.Context, resourceID, sourceKey string) (string, error) {
	name := fmt.Sprintf("input_%s_%s%s", sanitizePathComponent(resourceID), uuid.NewString(), path.Ext(sourceKey))
	localPath := filepath.Join(e.tempDir, "inputs", name)
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", &vo.FetchError{Err: fmt.Errorf("create input dir: %w", err)}
	}
	if err := e.storage.DownloadFile(ctx, sourceKey, localPath); err != nil {
		_ = os.Remove(localPath)
		return "", &vo.FetchError{Err: err}
	}
	return localPath, nil
}

// PrepareWorkspace 为一次打包尝试创建隔离的工作目录。目录名带随机
// 成分，同一资源的两次尝试也不会复用目录。
func (e *PackageEngine) PrepareWorkspace(resourceID string) (string, error) {
	workDir := filepath.Join(e.tempDir, "work",
		fmt.Sprintf("%s_%s", sanitizePathComponent(resourceID), uuid.NewString()))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("prepare workspace: %w", err)
	}
	return workDir, nil
}

// EncodeRendition 对单个档位调用外部编码器，产物写入workDir下以档位
// 命名的子目录。
func (e *PackageEngine) EncodeRendition(ctx context.Context, inputPath, workDir string, spec vo.RenditionSpec) error {
	if err := os.MkdirAll(filepath.Join(workDir, spec.Name), 0o755); err != nil {
		return &vo.EncodeError{Rendition: spec.Name, Err: err}
	}
	if err := e.encoder.EncodeRendition(ctx, inputPath, workDir, spec); err != nil {
		return &vo.EncodeError{Rendition: spec.Name, Err: err}
	}
	return nil
}

// PublishRenditions 递归上传workDir下所有切片和playlist，保留相对
// 子目录结构，按扩展名选择content type。部分上传失败直接报错，
// 是否重试由调用方决定。
func (e *PackageEngine) PublishRenditions(ctx context.Context, workDir, destPrefix string) error {
	var objects []gateway.UploadObject
	err := filepath.WalkDir(workDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(workDir, p)
		if err != nil {
			return err
		}
		objects = append(objects, gateway.UploadObject{
			LocalPath:   p,
			ObjectKey:   path.Join(destPrefix, filepath.ToSlash(rel)),
			ContentType: contentTypeForFile(p),
		})
		return nil
	})
	if err != nil {
		return &vo.PublishError{Err: err}
	}
	if err := e.storage.UploadObjects(ctx, objects); err != nil {
		return &vo.PublishError{Err: err}
	}
	return nil
}

// PublishManifest 生成master playlist并上传，返回其对象键。档位按
// 给定顺序列出，引用各自playlist的相对路径，不含绝对URL，
// 清单内容对相同输入完全确定。
func (e *PackageEngine) PublishManifest(ctx context.Context, workDir, destPrefix string, specs []vo.RenditionSpec) (string, error) {
	content := BuildMasterManifest(specs)
	localPath := filepath.Join(workDir, ManifestFileName)
	if err := os.WriteFile(localPath, []byte(content), 0o644); err != nil {
		return "", &vo.ManifestError{Err: err}
	}
	manifestKey := path.Join(destPrefix, ManifestFileName)
	if _, err := e.storage.UploadFile(ctx, localPath, manifestKey, "application/vnd.apple.mpegurl"); err != nil {
		return "", &vo.ManifestError{Err: err}
	}
	return manifestKey, nil
}

// Cleanup 删除下载的源文件和整个工作目录。清理是尽力而为：删除
// 失败只记日志，绝不掩盖流水线本身的结果。
func (e *PackageEngine) Cleanup(localPath, workDir string) {
	if localPath != "" {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			logger.Warnf("cleanup source file failed path=%s error=%v", localPath, err)
		}
	}
	if workDir != "" {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warnf("cleanup workspace failed path=%s error=%v", workDir, err)
		}
	}
}

// BuildMasterManifest 按档位顺序生成master playlist文本。每个档位两行：
// 标称带宽+分辨率，以及该档位playlist的相对路径。
func BuildMasterManifest(specs []vo.RenditionSpec) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n\n")
	for _, spec := range specs {
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d\n%s/%s\n",
			spec.BitrateBps(), spec.Width(), spec.Height(), spec.Name, PlaylistFileName)
	}
	return b.String()
}

// RenditionPlaylistKey 某档位playlist在目标前缀下的对象键
func RenditionPlaylistKey(destPrefix, renditionName string) string {
	return path.Join(destPrefix, renditionName, PlaylistFileName)
}

func contentTypeForFile(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}

// sanitizePathComponent 资源ID可能含路径分隔符，落盘前替换掉。
func sanitizePathComponent(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", " ", "_")
	return replacer.Replace(s)
}
