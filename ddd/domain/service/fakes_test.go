package service

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"vod-packager/ddd/domain/gateway"
	"vod-packager/ddd/domain/vo"
)

// fakeStorage 内存对象存储，记录上传内容与content type。
type fakeStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	types       map[string]string
	sourceData  []byte
	downloadErr error
	uploadErr   error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects:    make(map[string][]byte),
		types:      make(map[string]string),
		sourceData: []byte("fake-source-bytes"),
	}
}

func (f *fakeStorage) DownloadFile(_ context.Context, objectKey, localPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.downloadErr != nil {
		return f.downloadErr
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(localPath, f.sourceData, 0o644)
}

func (f *fakeStorage) UploadFile(_ context.Context, localPath, objectKey, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	f.objects[objectKey] = data
	f.types[objectKey] = contentType
	return objectKey, nil
}

func (f *fakeStorage) UploadObjects(ctx context.Context, objects []gateway.UploadObject) error {
	for _, obj := range objects {
		if _, err := f.UploadFile(ctx, obj.LocalPath, obj.ObjectKey, obj.ContentType); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStorage) Exists(_ context.Context, objectKey string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[objectKey]
	return ok, nil
}

func (f *fakeStorage) uploadedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys
}

// fakeEncoder 不调用ffmpeg，直接在档位子目录写出playlist和切片。
type fakeEncoder struct {
	mu      sync.Mutex
	calls   []string
	err     error
	release chan struct{} // 非nil时阻塞编码，用于让任务保持processing
}

func (f *fakeEncoder) EncodeRendition(ctx context.Context, inputPath, workDir string, spec vo.RenditionSpec) error {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, spec.Name)
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return err
	}

	outDir := filepath.Join(workDir, spec.Name)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	playlist := "#EXTM3U\n#EXTINF:6.0,\nsegment_00000.ts\n#EXT-X-ENDLIST\n"
	if err := os.WriteFile(filepath.Join(outDir, "playlist.m3u8"), []byte(playlist), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, "segment_00000.ts"), []byte(spec.Name+"-segment"), 0o644)
}

// capturedAppend 一次追加调用及其携带的游标
type capturedAppend struct {
	stream string
	cursor string
	event  gateway.LogEvent
}

// fakeLogGateway 内存日志流服务，校验游标并记录所有追加。
type fakeLogGateway struct {
	mu          sync.Mutex
	groups      map[string]bool
	streams     map[string]bool
	appended    map[string][]capturedAppend // stream -> appends
	appendErr   error
	conflictSeq int // 前n次追加返回序列冲突
}

func newFakeLogGateway() *fakeLogGateway {
	return &fakeLogGateway{
		groups:   make(map[string]bool),
		streams:  make(map[string]bool),
		appended: make(map[string][]capturedAppend),
	}
}

func (f *fakeLogGateway) CreateLogGroupIfAbsent(_ context.Context, group string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[group] = true
	return nil
}

func (f *fakeLogGateway) CreateLogStreamIfAbsent(_ context.Context, group, stream string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streams[group+"/"+stream] = true
	return nil
}

func (f *fakeLogGateway) DescribeStream(_ context.Context, _, stream string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.appended[stream])
	if n == 0 {
		return "", nil
	}
	return strconv.Itoa(n), nil
}

func (f *fakeLogGateway) AppendEvents(_ context.Context, _, stream string, events []gateway.LogEvent, cursor string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return "", f.appendErr
	}
	if f.conflictSeq > 0 {
		f.conflictSeq--
		return "", gateway.ErrSequenceConflict
	}

	expected := ""
	if n := len(f.appended[stream]); n > 0 {
		expected = strconv.Itoa(n)
	}
	if cursor != expected {
		return "", gateway.ErrSequenceConflict
	}

	for _, ev := range events {
		f.appended[stream] = append(f.appended[stream], capturedAppend{stream: stream, cursor: cursor, event: ev})
	}
	return strconv.Itoa(len(f.appended[stream])), nil
}

func (f *fakeLogGateway) appendsFor(stream string) []capturedAppend {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]capturedAppend, len(f.appended[stream]))
	copy(out, f.appended[stream])
	return out
}
