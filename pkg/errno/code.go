package errno

// code=0 请求成功
// code=4xx 客户端请求错误
// code=5xx 服务器端错误
// code=2xxxx 业务处理错误码

type Errno struct {
	Code    int
	Message string
}

// Error 实现error接口
func (e *Errno) Error() string {
	return e.Message
}

var (
	OK = &Errno{Code: 200, Message: "Success"}

	ErrInvalidParam = &Errno{Code: 400, Message: "Invalid parameter"}
	ErrUnauthorized = &Errno{Code: 401, Message: "Unauthorized"}
	ErrNotFound     = &Errno{Code: 404, Message: "Not found"}

	ErrInternalServer = &Errno{Code: 500, Message: "Internal server error"}
	ErrDatabase       = &Errno{Code: 501, Message: "Database error"}
	ErrUnknown        = &Errno{Code: 510, Message: "Unknown error"}

	// 业务错误码
	ErrMissingParam       = &Errno{Code: 20001, Message: "Missing required parameter"}
	ErrResourceIDRequired = &Errno{Code: 20002, Message: "Resource ID is required"}
	ErrSourceKeyRequired  = &Errno{Code: 20003, Message: "Source key is required"}
	ErrJobNotFound        = &Errno{Code: 20004, Message: "Packaging job not found"}
	ErrJobAlreadyRunning  = &Errno{Code: 20005, Message: "Packaging job already in progress"}
	ErrInvalidRendition   = &Errno{Code: 20006, Message: "Invalid rendition configuration"}
	ErrPackagingFailed    = &Errno{Code: 20007, Message: "Packaging pipeline failed"}
)
