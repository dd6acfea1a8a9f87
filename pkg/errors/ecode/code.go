package ecode

// 业务错误码。0 表示成功，非 0 表示各类失败。
const (
	Success = 0

	InternalErr     = 10001 // 服务内部错误
	InvalidParamErr = 10002 // 参数错误
	NotFoundErr     = 10003 // 资源不存在
	RequireAuthErr  = 10004 // 鉴权失败
)

// 错误码对应的默认提示
var messages = map[int]string{
	Success:         "OK",
	InternalErr:     "internal server error",
	InvalidParamErr: "invalid request parameter",
	NotFoundErr:     "resource not found",
	RequireAuthErr:  "authentication required",
}

func Message(code int) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[InternalErr]
}
