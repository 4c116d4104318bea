package notify

import (
	"context"
	"errors"

	"vod-packager/ddd/domain/entity"
	"vod-packager/ddd/domain/gateway"
)

// CompositeReporter 把终态同时上报给多个下游（事件总线、元数据库）。
// 所有上报都会执行，错误合并返回。
type CompositeReporter struct {
	reporters []gateway.OutcomeReporter
}

// NewCompositeReporter 创建复合上报器，nil成员被忽略。
func NewCompositeReporter(reporters ...gateway.OutcomeReporter) gateway.OutcomeReporter {
	kept := make([]gateway.OutcomeReporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return &CompositeReporter{reporters: kept}
}

func (c *CompositeReporter) ReportOutcome(ctx context.Context, job entity.Job) error {
	var errs []error
	for _, r := range c.reporters {
		if err := r.ReportOutcome(ctx, job); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
