package dashboard

import (
	"net/http"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/logic/dashboard"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// 获取仪表盘配置
func GetConfigHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := dashboard.NewGetConfigLogic(r.Context(), svcCtx)
		resp, err := l.GetConfig()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
