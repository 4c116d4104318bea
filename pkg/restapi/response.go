package restapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vod-packager/pkg/errno"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 返回成功响应
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// Accepted 返回已受理响应，用于异步任务提交
func Accepted(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusAccepted, Response{
		Code:    errno.OK.Code,
		Message: "Accepted",
		Data:    data,
	})
}

// Failed 根据错误类型返回失败响应
func Failed(ctx *gin.Context, err error) {
	var e *errno.Errno
	if !errors.As(err, &e) {
		e = &errno.Errno{Code: errno.ErrUnknown.Code, Message: err.Error()}
	}
	ctx.JSON(httpStatus(e.Code), Response{
		Code:    e.Code,
		Message: e.Message,
	})
}

func httpStatus(code int) int {
	switch {
	case code >= 400 && code < 600:
		return code
	case code == errno.ErrJobNotFound.Code:
		return http.StatusNotFound
	case code == errno.ErrJobAlreadyRunning.Code:
		return http.StatusConflict
	case code >= 20000 && code < 21000:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
