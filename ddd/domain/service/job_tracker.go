package service

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"vod-packager/ddd/domain/entity"
	"vod-packager/ddd/domain/gateway"
	"vod-packager/ddd/domain/vo"
	"vod-packager/pkg/logger"
)

// JobTracker 打包任务编排：入场控制（同一资源最多一个处理中的任务）、
// 驱动分阶段流水线、维护内存任务记录并暴露状态查询。
type JobTracker struct {
	engine     *PackageEngine
	progress   *ProgressLog
	reporter   gateway.OutcomeReporter // 可为nil
	destPrefix string
	defaults   []vo.RenditionSpec
	jobs       sync.Map // resourceID -> *jobEntry
}

// jobEntry 注册表条目。按条目加锁，不同资源互不争用。
type jobEntry struct {
	mu      sync.Mutex
	job     entity.Job
	evicted bool
}

// NewJobTracker 创建任务跟踪器
func NewJobTracker(engine *PackageEngine, progress *ProgressLog, reporter gateway.OutcomeReporter, destPrefix string, defaults []vo.RenditionSpec) *JobTracker {
	return &JobTracker{
		engine:     engine,
		progress:   progress,
		reporter:   reporter,
		destPrefix: destPrefix,
		defaults:   defaults,
	}
}

// Submit 受理一次打包请求并异步启动流水线，立即返回。
// 同一资源已有处理中的任务时返回vo.ErrAlreadyInProgress，不产生新记录。
func (t *JobTracker) Submit(resourceID, sourceKey string, renditions []vo.RenditionSpec) error {
	if resourceID == "" {
		return fmt.Errorf("resource id is required")
	}
	if sourceKey == "" {
		return fmt.Errorf("source key is required")
	}
	if len(renditions) == 0 {
		renditions = t.defaults
	}
	if len(renditions) == 0 {
		return fmt.Errorf("no renditions configured")
	}
	for _, spec := range renditions {
		if err := spec.Validate(); err != nil {
			return err
		}
	}

	var entry *jobEntry
	for {
		v, _ := t.jobs.LoadOrStore(resourceID, &jobEntry{})
		e := v.(*jobEntry)
		e.mu.Lock()
		if e.evicted {
			// Reap刚摘掉了这个条目，换新条目重试。
			e.mu.Unlock()
			t.jobs.Delete(resourceID)
			continue
		}
		if e.job.State == vo.JobStateProcessing {
			e.mu.Unlock()
			return vo.ErrAlreadyInProgress
		}
		e.job = entity.NewJob(resourceID, sourceKey, renditions)
		e.mu.Unlock()
		entry = e
		break
	}

	snap := t.snapshot(entry)
	go t.run(entry, snap.ResourceID, snap.SourceKey, snap.Renditions)
	return nil
}

// Status 返回任务记录的只读快照；不存在或已清理时返回vo.ErrJobNotFound。
func (t *JobTracker) Status(resourceID string) (entity.Job, error) {
	v, ok := t.jobs.Load(resourceID)
	if !ok {
		return entity.Job{}, vo.ErrJobNotFound
	}
	e := v.(*jobEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted || !e.job.State.IsValid() {
		return entity.Job{}, vo.ErrJobNotFound
	}
	return e.job.Snapshot(), nil
}

// ListActive 所有处理中任务的快照
func (t *JobTracker) ListActive() []entity.Job {
	var out []entity.Job
	t.jobs.Range(func(_, v interface{}) bool {
		e := v.(*jobEntry)
		e.mu.Lock()
		if !e.evicted && e.job.State == vo.JobStateProcessing {
			out = append(out, e.job.Snapshot())
		}
		e.mu.Unlock()
		return true
	})
	return out
}

// Reap 清理结束时间早于retention窗口的终态记录。需由外部定时调用，
// 否则记录随任务历史无限增长。
func (t *JobTracker) Reap(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)
	removed := 0
	t.jobs.Range(func(k, v interface{}) bool {
		e := v.(*jobEntry)
		e.mu.Lock()
		if e.job.IsTerminal() && e.job.EndedAt.Before(cutoff) {
			e.evicted = true
			t.jobs.Delete(k)
			removed++
		}
		e.mu.Unlock()
		return true
	})
	return removed
}

// run 驱动一次流水线：Download → 逐档位Convert → Publish → Manifest。
// 任一阶段失败立即转失败态、记录原因并清理临时状态，不自动重试。
func (t *JobTracker) run(e *jobEntry, resourceID, sourceKey string, specs []vo.RenditionSpec) {
	ctx := context.Background()
	destPrefix := path.Join(t.destPrefix, resourceID)

	t.append(ctx, resourceID, vo.StageMessage(vo.StageDownload, "started"), vo.ProgressDownloadStart)
	localPath, err := t.engine.FetchSource(ctx, resourceID, sourceKey)
	if err != nil {
		t.fail(ctx, e, err, localPath, "")
		return
	}
	t.setProgress(e, vo.ProgressDownloadDone)
	t.append(ctx, resourceID, vo.StageMessage(vo.StageDownload, "complete"), vo.ProgressDownloadDone)

	workDir, err := t.engine.PrepareWorkspace(resourceID)
	if err != nil {
		t.fail(ctx, e, err, localPath, workDir)
		return
	}

	total := len(specs)
	for i, spec := range specs {
		floor := vo.RenditionProgressFloor(i, total)
		t.setProgress(e, floor)
		t.append(ctx, resourceID, vo.StageMessage(vo.StageConvert, spec.Name+" started"), floor)

		if err := t.engine.EncodeRendition(ctx, localPath, workDir, spec); err != nil {
			t.fail(ctx, e, err, localPath, workDir)
			return
		}

		ceil := vo.RenditionProgressCeil(i, total)
		t.setProgress(e, ceil)
		t.append(ctx, resourceID, vo.StageMessage(vo.StageConvert, spec.Name+" complete"), ceil)
	}

	t.append(ctx, resourceID, vo.StageMessage(vo.StagePublish, "started"), vo.ProgressConvertDone)
	if err := t.engine.PublishRenditions(ctx, workDir, destPrefix); err != nil {
		t.fail(ctx, e, err, localPath, workDir)
		return
	}
	t.setProgress(e, vo.ProgressPublishDone)
	t.append(ctx, resourceID, vo.StageMessage(vo.StagePublish, "complete"), vo.ProgressPublishDone)

	t.append(ctx, resourceID, vo.StageMessage(vo.StageManifest, "started"), vo.ProgressPublishDone)
	manifestKey, err := t.engine.PublishManifest(ctx, workDir, destPrefix, specs)
	if err != nil {
		t.fail(ctx, e, err, localPath, workDir)
		return
	}

	result := entity.JobResult{
		Manifest:  manifestKey,
		Qualities: make(map[string]string, total),
	}
	for _, spec := range specs {
		result.Qualities[spec.Name] = RenditionPlaylistKey(destPrefix, spec.Name)
	}

	e.mu.Lock()
	e.job.Complete(result)
	snap := e.job.Snapshot()
	e.mu.Unlock()

	t.append(ctx, resourceID, vo.StageMessage(vo.StageManifest, "complete"), vo.ProgressManifestDone)
	t.engine.Cleanup(localPath, workDir)
	t.reportOutcome(ctx, snap)
	logger.Infof("packaging completed resource_id=%s manifest=%s renditions=%d", resourceID, manifestKey, total)
}

// fail 终结失败任务：记录原因、发失败事件、清理临时状态、上报结果。
func (t *JobTracker) fail(ctx context.Context, e *jobEntry, cause error, localPath, workDir string) {
	e.mu.Lock()
	e.job.Fail(cause.Error())
	snap := e.job.Snapshot()
	e.mu.Unlock()

	t.append(ctx, snap.ResourceID, fmt.Sprintf("packaging failed: %v", cause), -1)
	t.engine.Cleanup(localPath, workDir)
	t.reportOutcome(ctx, snap)
	logger.Errorf("packaging failed resource_id=%s error=%v", snap.ResourceID, cause)
}

func (t *JobTracker) setProgress(e *jobEntry, progress int) {
	e.mu.Lock()
	e.job.SetProgress(progress)
	e.mu.Unlock()
}

func (t *JobTracker) snapshot(e *jobEntry) entity.Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job.Snapshot()
}

func (t *JobTracker) append(ctx context.Context, resourceID, message string, progress int) {
	if t.progress == nil {
		return
	}
	t.progress.Append(ctx, resourceID, message, progress)
}

func (t *JobTracker) reportOutcome(ctx context.Context, job entity.Job) {
	if t.reporter == nil {
		return
	}
	if err := t.reporter.ReportOutcome(ctx, job); err != nil {
		logger.Warnf("report outcome failed resource_id=%s state=%s error=%v", job.ResourceID, job.State, err)
	}
}
