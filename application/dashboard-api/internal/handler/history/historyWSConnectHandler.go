package history

import (
	"net/http"
	"time"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/logic/common/wsutil"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/logic/history"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/yanshicheng/kube-nova-board/common/handler/errorx"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// 订阅配置历史变更 WebSocket
func HistoryWSConnectHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.HistoryWSConnectRequest
		if err := httpx.Parse(r, &req); err != nil {
			logx.Errorf("解析请求失败: %v", err)
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		ws, err := wsutil.UpgradeWebSocket(w, r)
		if err != nil {
			// Upgrade 失败时已写回 HTTP 错误
			logx.Errorf("WebSocket 升级失败: %v", err)
			return
		}
		defer ws.Close()

		ws.StartPingPong(30 * time.Second)

		l := history.NewHistoryWSConnectLogic(r.Context(), svcCtx, ws)
		if err := l.HistoryWSConnect(&req); err != nil {
			if !ws.IsClosed() && !ws.IsClientClosed() {
				logx.Errorf("WebSocket 处理错误: %v", err)
				ws.SendError(errorx.CodeServerError, err)
			}
		}
	}
}
