package dashboard

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type UpsertWidgetLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 新增或更新组件，组件只保存查询引用
func NewUpsertWidgetLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UpsertWidgetLogic {
	return &UpsertWidgetLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *UpsertWidgetLogic) UpsertWidget(req *types.UpsertWidgetRequest) (resp *types.DashboardConfigResponse, err error) {
	cfg, err := l.svcCtx.ConfigManager.UpsertWidget(l.ctx, req.PageId, toWidget(req.Widget))
	if err != nil {
		l.Errorf("保存组件失败: pageId=%s, widgetId=%s, error=%v", req.PageId, req.Widget.Id, err)
		return nil, err
	}
	return &cfg, nil
}
