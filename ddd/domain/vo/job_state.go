package vo

// JobState 打包任务状态
type JobState string

const (
	JobStateProcessing JobState = "processing" // 处理中
	JobStateCompleted  JobState = "completed"  // 已完成
	JobStateFailed     JobState = "failed"     // 失败
)

// String 返回状态字符串
func (s JobState) String() string {
	return string(s)
}

// IsValid 检查状态是否有效
func (s JobState) IsValid() bool {
	switch s {
	case JobStateProcessing, JobStateCompleted, JobStateFailed:
		return true
	default:
		return false
	}
}

// IsTerminal 完成和失败都是终态
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}
