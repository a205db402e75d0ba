package queue

import (
	"io"
	"net/http"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/logic/queue"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/common/handler/errorx"
	"github.com/zeromicro/go-zero/rest/httpx"
)

const maxQueueQueryBody = 64 << 10

// 内联队列查询不走 httpx.Parse，未知字段需要被拒绝
func ExecuteQueueHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxQueueQueryBody))
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.New(errorx.CodeInvalidQueueQuery, "读取请求体失败: "+err.Error()))
			return
		}
		l := queue.NewExecuteQueueLogic(r.Context(), svcCtx)
		resp, err := l.ExecuteQueue(body)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
