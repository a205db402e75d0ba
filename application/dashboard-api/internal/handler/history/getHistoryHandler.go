package history

import (
	"net/http"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/logic/history"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// 获取配置历史
func GetHistoryHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := history.NewGetHistoryLogic(r.Context(), svcCtx)
		resp, err := l.GetHistory()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
