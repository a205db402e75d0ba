package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/yanshicheng/kube-nova-board/common/handler/errorx"
	"github.com/zeromicro/go-zero/core/logx"
)

type Response struct {
	Code    int64  `json:"code"`    // 应用自定义状态码
	Data    any    `json:"data"`    // 响应数据
	Message string `json:"message"` // 消息描述
}

// writeJSONResponse 统一封装JSON响应，不包含HTTP状态码
func writeJSONResponse(w http.ResponseWriter, code int64, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// PanicRecoveryMiddleware 捕获处理链中的 panic，记录堆栈并返回统一错误响应
func PanicRecoveryMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logx.WithContext(r.Context()).Errorf("请求处理 panic: method=%s, path=%s, panic=%v\n%s",
					r.Method, r.URL.Path, rec, debug.Stack())
				w.WriteHeader(http.StatusOK)
				writeJSONResponse(w, errorx.CodeServerError, fmt.Sprintf("服务内部错误: %v", rec), nil)
			}
		}()
		next(w, r)
	}
}
