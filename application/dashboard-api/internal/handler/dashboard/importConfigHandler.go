package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/logic/dashboard"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/yanshicheng/kube-nova-board/common/handler/errorx"
	"github.com/zeromicro/go-zero/rest/httpx"
)

const maxImportBody = 8 << 20

// 导入的配置可能省略任意字段，直接按 JSON 解码
func ImportConfigHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ImportConfigRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBody)).Decode(&req); err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.New(errorx.CodeInvalidConfig, "配置解析失败: "+err.Error()))
			return
		}
		l := dashboard.NewImportConfigLogic(r.Context(), svcCtx)
		resp, err := l.ImportConfig(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
