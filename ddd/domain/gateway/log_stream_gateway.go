package gateway

import (
	"context"
	"errors"
	"time"
)

// ErrSequenceConflict 追加时携带的写游标已过期，需要重新Describe后重试。
var ErrSequenceConflict = errors.New("log stream sequence token conflict")

// LogEvent 一条进度叙述事件
type LogEvent struct {
	Message   string    `json:"message"`
	Progress  *int      `json:"progress,omitempty"`
	EmittedAt time.Time `json:"emitted_at"`
}

// LogStreamGateway 远端日志流服务：按流有序追加，写入需携带上一次
// 返回的游标，乱序写入被服务端拒绝。
type LogStreamGateway interface {
	CreateLogGroupIfAbsent(ctx context.Context, group string) error
	CreateLogStreamIfAbsent(ctx context.Context, group, stream string) error
	// DescribeStream 返回流当前的写游标；流为空时游标为空串。
	DescribeStream(ctx context.Context, group, stream string) (string, error)
	// AppendEvents 以cursor为序写入事件，成功返回下一个游标；
	// 游标过期返回ErrSequenceConflict。
	AppendEvents(ctx context.Context, group, stream string, events []LogEvent, cursor string) (string, error)
}
