package dashboard

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type RemoveWidgetLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRemoveWidgetLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RemoveWidgetLogic {
	return &RemoveWidgetLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *RemoveWidgetLogic) RemoveWidget(req *types.RemoveWidgetRequest) (resp *types.DashboardConfigResponse, err error) {
	cfg, err := l.svcCtx.ConfigManager.RemoveWidget(l.ctx, req.PageId, req.WidgetId)
	if err != nil {
		l.Errorf("删除组件失败: pageId=%s, widgetId=%s, error=%v", req.PageId, req.WidgetId, err)
		return nil, err
	}
	return &cfg, nil
}
