package dashboard

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type MoveWidgetLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewMoveWidgetLogic(ctx context.Context, svcCtx *svc.ServiceContext) *MoveWidgetLogic {
	return &MoveWidgetLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *MoveWidgetLogic) MoveWidget(req *types.MoveWidgetRequest) (resp *types.DashboardConfigResponse, err error) {
	cfg, err := l.svcCtx.ConfigManager.MoveWidget(l.ctx, req.PageId, req.WidgetId, toLayout(req.Layout), req.TargetPageId)
	if err != nil {
		l.Errorf("移动组件失败: pageId=%s, widgetId=%s, target=%s, error=%v",
			req.PageId, req.WidgetId, req.TargetPageId, err)
		return nil, err
	}
	return &cfg, nil
}
