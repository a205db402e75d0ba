package okx

import "context"

// CodeSuccess 成功业务码
const CodeSuccess = 200

// Response 统一成功响应体
type Response struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// OkHandler go-zero 全局成功响应包装
func OkHandler(_ context.Context, v any) any {
	return Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    v,
	}
}
