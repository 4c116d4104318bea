package vo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenditionProgressAllocation(t *testing.T) {
	// 单档位独占整个转码区间
	assert.Equal(t, ProgressDownloadDone, RenditionProgressFloor(0, 1))
	assert.Equal(t, ProgressConvertDone, RenditionProgressCeil(0, 1))

	// 两档位均分
	assert.Equal(t, 45, RenditionProgressCeil(0, 2))
	assert.Equal(t, 45, RenditionProgressFloor(1, 2))
	assert.Equal(t, 80, RenditionProgressCeil(1, 2))

	// 最后一个档位始终收在转码区间上界
	for total := 1; total <= 7; total++ {
		assert.Equal(t, ProgressConvertDone, RenditionProgressCeil(total-1, total), "total=%d", total)
	}

	// 区间单调不减
	for total := 1; total <= 7; total++ {
		prev := ProgressDownloadDone
		for i := 0; i < total; i++ {
			floor := RenditionProgressFloor(i, total)
			ceil := RenditionProgressCeil(i, total)
			assert.GreaterOrEqual(t, floor, prev)
			assert.GreaterOrEqual(t, ceil, floor)
			prev = ceil
		}
	}
}

func TestStageMessage(t *testing.T) {
	assert.Equal(t, "stage download: started", StageMessage(StageDownload, "started"))
	assert.Equal(t, "stage convert: 720p complete", StageMessage(StageConvert, "720p complete"))
	assert.Equal(t, "stage publish", StageMessage(StagePublish, ""))
}
