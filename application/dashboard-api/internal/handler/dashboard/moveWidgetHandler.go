package dashboard

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mcuadros/go-defaults"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/logic/dashboard"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/yanshicheng/kube-nova-board/common/handler/errorx"
	"github.com/yanshicheng/kube-nova-board/common/verify"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// 移动组件
func MoveWidgetHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.MoveWidgetRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		// 设置默认值
		defaults.SetDefaults(&req)
		// validator验证
		if err := svcCtx.Validator.Validate.StructCtx(r.Context(), &req); err != nil {
			strErr := verify.RemoveTopSaStr(err.(validator.ValidationErrors), svcCtx.Validator.Translator)
			httpx.ErrorCtx(r.Context(), w, errorx.New(errorx.CodeRequestValidation, strErr))
			return
		}
		l := dashboard.NewMoveWidgetLogic(r.Context(), svcCtx)
		resp, err := l.MoveWidget(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
