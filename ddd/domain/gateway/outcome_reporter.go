package gateway

import (
	"context"

	"vod-packager/ddd/domain/entity"
)

// OutcomeReporter 在任务到达终态后把结果通知给外围系统
// （元数据存储、事件总线）。上报失败不影响任务本身的终态。
type OutcomeReporter interface {
	ReportOutcome(ctx context.Context, job entity.Job) error
}
