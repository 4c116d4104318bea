package worker

import (
	"context"
	"sync"
	"time"

	"vod-packager/ddd/domain/service"
	"vod-packager/pkg/logger"
	"vod-packager/pkg/task"
)

// Reaper 定期清理超过保留窗口的终态任务记录，防止内存随历史增长。
type Reaper struct {
	tracker   *service.JobTracker
	retention time.Duration
	interval  time.Duration
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// NewReaper 创建清理任务
func NewReaper(tracker *service.JobTracker, retention, interval time.Duration) *Reaper {
	return &Reaper{
		tracker:   tracker,
		retention: retention,
		interval:  interval,
	}
}

func (r *Reaper) Name() string {
	return "job-reaper"
}

func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if removed := r.tracker.Reap(r.retention); removed > 0 {
					logger.Infof("reaped terminal jobs count=%d retention=%s", removed, r.retention)
				}
			}
		}
	}()
	return nil
}

func (r *Reaper) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return nil
	}
	r.cancel()
	r.wg.Wait()
	r.running = false
	return nil
}

var _ task.BackgroundTask = (*Reaper)(nil)
