package http

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"vod-packager/ddd/domain/entity"
	"vod-packager/ddd/domain/service"
	"vod-packager/ddd/domain/vo"
	"vod-packager/ddd/infrastructure/database"
	"vod-packager/pkg/errno"
	"vod-packager/pkg/restapi"
)

// ConvertController 打包任务HTTP控制器
type ConvertController struct {
	tracker    *service.JobTracker
	outcomes   *database.OutcomeRepo // 可为nil（数据库未配置时）
	publicBase string                // 对象存储对外访问基址，可为空
}

// NewConvertController 创建控制器
func NewConvertController(tracker *service.JobTracker, outcomes *database.OutcomeRepo, publicBase string) *ConvertController {
	return &ConvertController{tracker: tracker, outcomes: outcomes, publicBase: publicBase}
}

// renditionReq 请求中的档位覆盖项
type renditionReq struct {
	Name       string `json:"name" binding:"required"`
	Resolution string `json:"resolution" binding:"required"`
	Bitrate    string `json:"bitrate" binding:"required"`
}

// submitReq 提交打包请求体
type submitReq struct {
	SourceKey  string         `json:"source_key" binding:"required"`
	Renditions []renditionReq `json:"renditions"`
}

// Submit 受理打包请求，立即返回202；同资源已在处理中时返回409。
func (ctl *ConvertController) Submit(c *gin.Context) {
	resourceID := c.Param("resource_id")
	if resourceID == "" {
		restapi.Failed(c, errno.ErrResourceIDRequired)
		return
	}

	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		restapi.Failed(c, errno.ErrInvalidParam)
		return
	}

	specs := make([]vo.RenditionSpec, 0, len(req.Renditions))
	for _, r := range req.Renditions {
		spec, err := vo.NewRenditionSpec(r.Name, r.Resolution, r.Bitrate)
		if err != nil {
			restapi.Failed(c, errno.ErrInvalidRendition)
			return
		}
		specs = append(specs, spec)
	}

	if err := ctl.tracker.Submit(resourceID, req.SourceKey, specs); err != nil {
		if errors.Is(err, vo.ErrAlreadyInProgress) {
			restapi.Failed(c, errno.ErrJobAlreadyRunning)
			return
		}
		restapi.Failed(c, errno.ErrInvalidParam)
		return
	}

	restapi.Accepted(c, gin.H{
		"resource_id": resourceID,
		"state":       vo.JobStateProcessing,
	})
}

// statusResp 任务快照，完成时附带可播放的manifest地址。
type statusResp struct {
	entity.Job
	ManifestURL string `json:"manifest_url,omitempty"`
}

// Status 查询任务当前快照
func (ctl *ConvertController) Status(c *gin.Context) {
	resourceID := c.Param("resource_id")
	job, err := ctl.tracker.Status(resourceID)
	if err != nil {
		restapi.Failed(c, errno.ErrJobNotFound)
		return
	}

	resp := statusResp{Job: job}
	if ctl.publicBase != "" && job.Result != nil {
		resp.ManifestURL = strings.TrimRight(ctl.publicBase, "/") + "/" + job.Result.Manifest
	}
	restapi.Success(c, resp)
}

// ListActive 列出所有处理中的任务
func (ctl *ConvertController) ListActive(c *gin.Context) {
	restapi.Success(c, ctl.tracker.ListActive())
}

// History 查询资源的历史打包结果（持久化记录）
func (ctl *ConvertController) History(c *gin.Context) {
	if ctl.outcomes == nil {
		restapi.Success(c, []struct{}{})
		return
	}
	records, err := ctl.outcomes.ListByResource(c.Request.Context(), c.Param("resource_id"), 20)
	if err != nil {
		restapi.Failed(c, errno.ErrDatabase)
		return
	}
	restapi.Success(c, records)
}
