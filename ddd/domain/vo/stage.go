package vo

import "fmt"

// Stage 流水线阶段
type Stage string

const (
	StageDownload Stage = "download"
	StageConvert  Stage = "convert"
	StagePublish  Stage = "publish"
	StageManifest Stage = "manifest"
)

// 各阶段固定的进度里程碑：下载占0-10，转码按档位均分10-80，
// 发布占80-90，清单占90-100。进度是粗粒度的阶段指示，不是精确ETA。
const (
	ProgressDownloadStart = 0
	ProgressDownloadDone  = 10
	ProgressConvertDone   = 80
	ProgressPublishDone   = 90
	ProgressManifestDone  = 100
)

// RenditionProgressCeil 第index个档位（0起）完成后的进度值，总档位数total。
func RenditionProgressCeil(index, total int) int {
	if total <= 0 {
		return ProgressConvertDone
	}
	span := ProgressConvertDone - ProgressDownloadDone
	return ProgressDownloadDone + span*(index+1)/total
}

// RenditionProgressFloor 第index个档位开始前的进度值。
func RenditionProgressFloor(index, total int) int {
	if index <= 0 {
		return ProgressDownloadDone
	}
	return RenditionProgressCeil(index-1, total)
}

// StageMessage 阶段进入/完成时写入进度日志的叙述文本。
func StageMessage(stage Stage, detail string) string {
	if detail == "" {
		return fmt.Sprintf("stage %s", stage)
	}
	return fmt.Sprintf("stage %s: %s", stage, detail)
}
