package errorx

import (
	"net/http"

	"github.com/yanshicheng/kube-nova-board/common/handler/errorx/types"
)

// ErrHandler go-zero 全局错误处理，HTTP 状态码固定为 200，业务码放在响应体中
func ErrHandler(err error) (int, any) {
	code := CodeFromError(err)
	return http.StatusOK, types.Status{
		Code:    int32(code.Code()),
		Message: code.Message(),
	}
}
