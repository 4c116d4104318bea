package task

import (
	"context"
	"sync"

	"vod-packager/pkg/logger"
)

// BackgroundTask 常驻后台任务（清扫器、消费者等），随服务启停。
type BackgroundTask interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}

type manager struct {
	tasks  []BackgroundTask
	mu     sync.Mutex
	cancel context.CancelFunc
}

var defaultManager = &manager{}

// Register 注册后台任务，须在StartAll之前调用。
func Register(task BackgroundTask) {
	if task == nil {
		return
	}
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.tasks = append(defaultManager.tasks, task)
}

// StartAll 启动全部已注册任务，重复调用是空操作。
func StartAll(ctx context.Context) error {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	if defaultManager.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	defaultManager.cancel = cancel
	for _, t := range defaultManager.tasks {
		if err := t.Start(runCtx); err != nil {
			cancel()
			defaultManager.cancel = nil
			return err
		}
		logger.Infof("background task started name=%s", t.Name())
	}
	return nil
}

// StopAll 按注册的逆序停止全部任务。
func StopAll() {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	if defaultManager.cancel != nil {
		defaultManager.cancel()
		defaultManager.cancel = nil
	}
	for i := len(defaultManager.tasks) - 1; i >= 0; i-- {
		t := defaultManager.tasks[i]
		if err := t.Stop(); err != nil {
			logger.Warnf("background task stop failed name=%s error=%v", t.Name(), err)
		}
	}
}
