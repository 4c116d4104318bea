package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vod-packager/ddd/domain/gateway"
	"vod-packager/pkg/logger"
)

// ProgressLog 把进度叙述按序追加到远端日志流。每个资源一条流，
// 流的写游标由本组件独占持有（单写者）。日志失败只记录本地日志，
// 绝不向上传播——进度叙述是可观测性，不是正确性状态。
type ProgressLog struct {
	gw      gateway.LogStreamGateway
	group   string
	streams sync.Map // resourceID -> *logStream
}

type logStream struct {
	mu      sync.Mutex
	ensured bool
	cursor  string
}

// NewProgressLog 创建进度日志组件
func NewProgressLog(gw gateway.LogStreamGateway, group string) *ProgressLog {
	return &ProgressLog{gw: gw, group: group}
}

// StreamName 流名由资源ID确定性派生，重复调用寻址同一条流。
func (p *ProgressLog) StreamName(resourceID string) string {
	return fmt.Sprintf("resource-%s", resourceID)
}

func (p *ProgressLog) stream(resourceID string) *logStream {
	if v, ok := p.streams.Load(resourceID); ok {
		return v.(*logStream)
	}
	actual, _ := p.streams.LoadOrStore(resourceID, &logStream{})
	return actual.(*logStream)
}

// EnsureStream 幂等地确保日志组和按资源划分的流存在；流已有记录时
// 取回其当前写游标，保证后续追加正确衔接。
func (p *ProgressLog) EnsureStream(ctx context.Context, resourceID string) error {
	if p == nil || p.gw == nil {
		return nil
	}
	s := p.stream(resourceID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return p.ensureLocked(ctx, resourceID, s)
}

// ensureLocked 调用方须持有s.mu。
func (p *ProgressLog) ensureLocked(ctx context.Context, resourceID string, s *logStream) error {
	if s.ensured {
		return nil
	}
	stream := p.StreamName(resourceID)
	if err := p.gw.CreateLogGroupIfAbsent(ctx, p.group); err != nil {
		return fmt.Errorf("ensure log group: %w", err)
	}
	if err := p.gw.CreateLogStreamIfAbsent(ctx, p.group, stream); err != nil {
		return fmt.Errorf("ensure log stream: %w", err)
	}
	cursor, err := p.gw.DescribeStream(ctx, p.group, stream)
	if err != nil {
		return fmt.Errorf("describe log stream: %w", err)
	}
	s.cursor = cursor
	s.ensured = true
	return nil
}

// Append 追加一条进度事件。progress<0表示本条不携带进度值。
// 同一资源的并发Append由流级互斥串行化，防止复用过期游标。
func (p *ProgressLog) Append(ctx context.Context, resourceID, message string, progress int) {
	if p == nil || p.gw == nil {
		return
	}
	s := p.stream(resourceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := p.ensureLocked(ctx, resourceID, s); err != nil {
		logger.Warnf("progress log ensure failed resource_id=%s error=%v", resourceID, err)
		return
	}

	event := gateway.LogEvent{Message: message, EmittedAt: time.Now()}
	if progress >= 0 {
		v := progress
		event.Progress = &v
	}

	stream := p.StreamName(resourceID)
	next, err := p.gw.AppendEvents(ctx, p.group, stream, []gateway.LogEvent{event}, s.cursor)
	if errors.Is(err, gateway.ErrSequenceConflict) {
		// 游标失步（例如外部写入了同一条流），重新对齐后重试一次。
		cursor, derr := p.gw.DescribeStream(ctx, p.group, stream)
		if derr != nil {
			logger.Warnf("progress log resync failed resource_id=%s error=%v", resourceID, derr)
			return
		}
		s.cursor = cursor
		next, err = p.gw.AppendEvents(ctx, p.group, stream, []gateway.LogEvent{event}, s.cursor)
	}
	if err != nil {
		logger.Warnf("progress log append failed resource_id=%s message=%q error=%v", resourceID, message, err)
		return
	}
	s.cursor = next
}
