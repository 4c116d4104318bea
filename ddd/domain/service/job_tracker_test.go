package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vod-packager/ddd/domain/entity"
	"vod-packager/ddd/domain/vo"
)

type trackerFixture struct {
	tracker  *JobTracker
	storage  *fakeStorage
	encoder  *fakeEncoder
	logGw    *fakeLogGateway
	progress *ProgressLog
	tempDir  string
}

func newTrackerFixture(t *testing.T) *trackerFixture {
	t.Helper()
	storage := newFakeStorage()
	encoder := &fakeEncoder{}
	logGw := newFakeLogGateway()
	progress := NewProgressLog(logGw, "vod-packager")
	tempDir := t.TempDir()
	engine := NewPackageEngine(storage, encoder, tempDir)
	tracker := NewJobTracker(engine, progress, nil, "hls", nil)
	return &trackerFixture{
		tracker:  tracker,
		storage:  storage,
		encoder:  encoder,
		logGw:    logGw,
		progress: progress,
		tempDir:  tempDir,
	}
}

// waitTerminal 轮询Status直到任务进入终态
func waitTerminal(t *testing.T, tracker *JobTracker, resourceID string) entity.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := tracker.Status(resourceID)
		if err == nil && job.IsTerminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach a terminal state", resourceID)
	return entity.Job{}
}

func TestSubmitRunsFullPipeline(t *testing.T) {
	f := newTrackerFixture(t)
	specs := testSpecs(t)

	require.NoError(t, f.tracker.Submit("r1", "sources/r1.mp4", specs))
	job := waitTerminal(t, f.tracker, "r1")

	assert.Equal(t, vo.JobStateCompleted, job.State)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.Result)
	assert.Equal(t, "hls/r1/master.m3u8", job.Result.Manifest)
	assert.Equal(t, map[string]string{
		"360p": "hls/r1/360p/playlist.m3u8",
		"720p": "hls/r1/720p/playlist.m3u8",
	}, job.Result.Qualities)

	// 产物确实上传到了目标前缀下
	keys := f.storage.uploadedKeys()
	assert.Contains(t, keys, "hls/r1/master.m3u8")
	assert.Contains(t, keys, "hls/r1/360p/playlist.m3u8")
	assert.Contains(t, keys, "hls/r1/360p/segment_00000.ts")
	assert.Contains(t, keys, "hls/r1/720p/playlist.m3u8")

	// 档位按提交顺序编码
	assert.Equal(t, []string{"360p", "720p"}, f.encoder.calls)
}

func TestSubmitDuplicateWhileProcessing(t *testing.T) {
	f := newTrackerFixture(t)
	f.encoder.release = make(chan struct{})
	specs := testSpecs(t)

	require.NoError(t, f.tracker.Submit("r1", "sources/r1.mp4", specs))

	// 等流水线真正进入转码阶段
	deadline := time.Now().Add(5 * time.Second)
	for {
		job, err := f.tracker.Status("r1")
		if err == nil && job.Progress >= vo.ProgressDownloadDone {
			break
		}
		require.True(t, time.Now().Before(deadline), "pipeline never reached convert stage")
		time.Sleep(5 * time.Millisecond)
	}

	err := f.tracker.Submit("r1", "sources/r1.mp4", specs)
	assert.ErrorIs(t, err, vo.ErrAlreadyInProgress)

	// 同一资源仍然只有一条记录在跑
	assert.Len(t, f.tracker.ListActive(), 1)

	close(f.encoder.release)
	job := waitTerminal(t, f.tracker, "r1")
	assert.Equal(t, vo.JobStateCompleted, job.State)
}

func TestResubmitAfterTerminal(t *testing.T) {
	f := newTrackerFixture(t)
	specs := testSpecs(t)

	require.NoError(t, f.tracker.Submit("r1", "sources/r1.mp4", specs))
	waitTerminal(t, f.tracker, "r1")

	// 终态记录不阻止重新受理
	require.NoError(t, f.tracker.Submit("r1", "sources/r1.mp4", specs))
	job := waitTerminal(t, f.tracker, "r1")
	assert.Equal(t, vo.JobStateCompleted, job.State)
}

func TestSubmitValidation(t *testing.T) {
	f := newTrackerFixture(t)
	specs := testSpecs(t)

	assert.Error(t, f.tracker.Submit("", "sources/r1.mp4", specs))
	assert.Error(t, f.tracker.Submit("r1", "", specs))
	// 没有默认档位梯度时空档位列表被拒绝
	assert.Error(t, f.tracker.Submit("r1", "sources/r1.mp4", nil))

	bad := []vo.RenditionSpec{{Name: "720p", Resolution: "abc", Bitrate: "2000k"}}
	assert.Error(t, f.tracker.Submit("r1", "sources/r1.mp4", bad))

	_, err := f.tracker.Status("r1")
	assert.ErrorIs(t, err, vo.ErrJobNotFound)
}

func TestSubmitFallsBackToDefaults(t *testing.T) {
	f := newTrackerFixture(t)
	engine := NewPackageEngine(f.storage, f.encoder, f.tempDir)
	tracker := NewJobTracker(engine, f.progress, nil, "hls", testSpecs(t))

	require.NoError(t, tracker.Submit("r1", "sources/r1.mp4", nil))
	job := waitTerminal(t, tracker, "r1")

	assert.Equal(t, vo.JobStateCompleted, job.State)
	assert.Len(t, job.Result.Qualities, 2)
}

func TestFetchFailureMarksJobFailed(t *testing.T) {
	f := newTrackerFixture(t)
	f.storage.downloadErr = errors.New("NoSuchKey: sources/r1.mp4")

	require.NoError(t, f.tracker.Submit("r1", "sources/r1.mp4", testSpecs(t)))
	job := waitTerminal(t, f.tracker, "r1")

	assert.Equal(t, vo.JobStateFailed, job.State)
	assert.Contains(t, job.FailureReason, "NoSuchKey")
	assert.LessOrEqual(t, job.Progress, vo.ProgressDownloadDone)
	assert.Nil(t, job.Result)
}

func TestEncodeFailureRecordsRendition(t *testing.T) {
	f := newTrackerFixture(t)
	f.encoder.err = errors.New("exit status 1")

	require.NoError(t, f.tracker.Submit("r1", "sources/r1.mp4", testSpecs(t)))
	job := waitTerminal(t, f.tracker, "r1")

	assert.Equal(t, vo.JobStateFailed, job.State)
	assert.Contains(t, job.FailureReason, "360p")
	assert.Contains(t, job.FailureReason, "exit status 1")
}

func TestPipelineCleansUpTempState(t *testing.T) {
	f := newTrackerFixture(t)

	require.NoError(t, f.tracker.Submit("r1", "sources/r1.mp4", testSpecs(t)))
	waitTerminal(t, f.tracker, "r1")
	waitDirEmpty(t, filepath.Join(f.tempDir, "inputs"))
	waitDirEmpty(t, filepath.Join(f.tempDir, "work"))

	// 失败路径同样清理
	f.storage.downloadErr = errors.New("boom")
	require.NoError(t, f.tracker.Submit("r2", "sources/r2.mp4", testSpecs(t)))
	waitTerminal(t, f.tracker, "r2")
	waitDirEmpty(t, filepath.Join(f.tempDir, "inputs"))
	waitDirEmpty(t, filepath.Join(f.tempDir, "work"))
}

// waitDirEmpty 清理发生在任务转终态之后，轮询等它完成。
func waitDirEmpty(t *testing.T, dir string) {
	t.Helper()
	require.Eventually(t, func() bool {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			return true
		}
		return err == nil && len(entries) == 0
	}, 5*time.Second, 5*time.Millisecond, "directory %s not cleaned up", dir)
}

func TestProgressMonotonicAndMilestones(t *testing.T) {
	f := newTrackerFixture(t)

	require.NoError(t, f.tracker.Submit("r1", "sources/r1.mp4", testSpecs(t)))
	waitTerminal(t, f.tracker, "r1")

	// 终态之后还有最后一条manifest complete事件在写，等它落地
	stream := f.progress.StreamName("r1")
	require.Eventually(t, func() bool {
		appends := f.logGw.appendsFor(stream)
		if len(appends) == 0 {
			return false
		}
		p := appends[len(appends)-1].event.Progress
		return p != nil && *p == vo.ProgressManifestDone
	}, 5*time.Second, 5*time.Millisecond)

	appends := f.logGw.appendsFor(stream)

	last := -1
	var values []int
	for _, a := range appends {
		if a.event.Progress == nil {
			continue
		}
		v := *a.event.Progress
		assert.GreaterOrEqual(t, v, last, "progress went backwards in event %q", a.event.Message)
		last = v
		values = append(values, v)
	}

	// 两个档位时的固定里程碑序列
	assert.Equal(t, []int{0, 10, 10, 45, 45, 80, 80, 90, 90, 100}, values)
}

func TestFailureEventCarriesNoProgress(t *testing.T) {
	f := newTrackerFixture(t)
	f.storage.downloadErr = errors.New("boom")

	require.NoError(t, f.tracker.Submit("r1", "sources/r1.mp4", testSpecs(t)))
	waitTerminal(t, f.tracker, "r1")

	stream := f.progress.StreamName("r1")
	var final capturedAppend
	require.Eventually(t, func() bool {
		appends := f.logGw.appendsFor(stream)
		if len(appends) == 0 {
			return false
		}
		final = appends[len(appends)-1]
		return final.event.Progress == nil
	}, 5*time.Second, 5*time.Millisecond)
	assert.Contains(t, final.event.Message, "packaging failed")
}

func TestReapEvictsOldTerminalJobs(t *testing.T) {
	f := newTrackerFixture(t)

	require.NoError(t, f.tracker.Submit("r1", "sources/r1.mp4", testSpecs(t)))
	waitTerminal(t, f.tracker, "r1")

	// retention为0时刚结束的任务已在窗口之外
	removed := f.tracker.Reap(0)
	assert.Equal(t, 1, removed)

	_, err := f.tracker.Status("r1")
	assert.ErrorIs(t, err, vo.ErrJobNotFound)

	// 再清一次没有可清的
	assert.Equal(t, 0, f.tracker.Reap(0))
}

func TestReapKeepsRecentAndActiveJobs(t *testing.T) {
	f := newTrackerFixture(t)
	f.encoder.release = make(chan struct{})

	require.NoError(t, f.tracker.Submit("r1", "sources/r1.mp4", testSpecs(t)))

	assert.Equal(t, 0, f.tracker.Reap(0), "processing job must not be reaped")

	close(f.encoder.release)
	waitTerminal(t, f.tracker, "r1")

	assert.Equal(t, 0, f.tracker.Reap(time.Hour), "job inside retention window must survive")
	_, err := f.tracker.Status("r1")
	assert.NoError(t, err)
}

type countingReporter struct {
	mu   sync.Mutex
	jobs []entity.Job
}

func (c *countingReporter) ReportOutcome(_ context.Context, job entity.Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, job)
	return nil
}

func (c *countingReporter) reported() []entity.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entity.Job, len(c.jobs))
	copy(out, c.jobs)
	return out
}

func TestOutcomeReportedOnTerminal(t *testing.T) {
	f := newTrackerFixture(t)
	reporter := &countingReporter{}
	engine := NewPackageEngine(f.storage, f.encoder, f.tempDir)
	tracker := NewJobTracker(engine, f.progress, reporter, "hls", nil)

	require.NoError(t, tracker.Submit("r1", "sources/r1.mp4", testSpecs(t)))
	waitTerminal(t, tracker, "r1")

	require.Eventually(t, func() bool {
		return len(reporter.reported()) == 1
	}, 5*time.Second, 5*time.Millisecond)

	jobs := reporter.reported()
	assert.Equal(t, vo.JobStateCompleted, jobs[0].State)
	assert.Equal(t, "r1", jobs[0].ResourceID)
}
