package entity

import (
	"time"

	"vod-packager/ddd/domain/vo"
)

// JobResult 打包成功后的产物位置
type JobResult struct {
	Manifest  string            `json:"manifest"`  // master playlist对象键
	Qualities map[string]string `json:"qualities"` // 档位名 -> 该档位playlist对象键
}

// Job 一次打包尝试的内存记录。单写者：仅驱动它的流水线修改字段。
type Job struct {
	ResourceID    string             `json:"resource_id"`
	SourceKey     string             `json:"source_key"`
	State         vo.JobState        `json:"state"`
	Progress      int                `json:"progress"`
	StartedAt     time.Time          `json:"started_at"`
	EndedAt       time.Time          `json:"ended_at,omitempty"`
	Result        *JobResult         `json:"result,omitempty"`
	FailureReason string             `json:"failure_reason,omitempty"`
	Renditions    []vo.RenditionSpec `json:"renditions"`
}

// NewJob 创建处理中的任务记录
func NewJob(resourceID, sourceKey string, renditions []vo.RenditionSpec) Job {
	specs := make([]vo.RenditionSpec, len(renditions))
	copy(specs, renditions)
	return Job{
		ResourceID: resourceID,
		SourceKey:  sourceKey,
		State:      vo.JobStateProcessing,
		Progress:   vo.ProgressDownloadStart,
		StartedAt:  time.Now(),
		Renditions: specs,
	}
}

// SetProgress 进度只增不减，并截断到0-100。
func (j *Job) SetProgress(progress int) {
	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}
	if progress > j.Progress {
		j.Progress = progress
	}
}

// Complete 置为完成态
func (j *Job) Complete(result JobResult) {
	j.State = vo.JobStateCompleted
	j.Progress = vo.ProgressManifestDone
	j.Result = &result
	j.EndedAt = time.Now()
}

// Fail 置为失败态并记录原因
func (j *Job) Fail(reason string) {
	j.State = vo.JobStateFailed
	j.FailureReason = reason
	j.EndedAt = time.Now()
}

// IsTerminal 是否已到终态
func (j *Job) IsTerminal() bool {
	return j.State.IsTerminal()
}

// Snapshot 深拷贝，供轮询方读取，避免与流水线写入共享可变状态。
func (j *Job) Snapshot() Job {
	out := *j
	out.Renditions = make([]vo.RenditionSpec, len(j.Renditions))
	copy(out.Renditions, j.Renditions)
	if j.Result != nil {
		res := JobResult{Manifest: j.Result.Manifest, Qualities: make(map[string]string, len(j.Result.Qualities))}
		for k, v := range j.Result.Qualities {
			res.Qualities[k] = v
		}
		out.Result = &res
	}
	return out
}
