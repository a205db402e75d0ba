package dashboard

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type RemovePageLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRemovePageLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RemovePageLogic {
	return &RemovePageLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *RemovePageLogic) RemovePage(req *types.RemovePageRequest) (resp *types.DashboardConfigResponse, err error) {
	cfg, err := l.svcCtx.ConfigManager.RemovePage(l.ctx, req.PageId)
	if err != nil {
		l.Errorf("删除页面失败: pageId=%s, error=%v", req.PageId, err)
		return nil, err
	}
	l.Infof("页面已删除: pageId=%s", req.PageId)
	return &cfg, nil
}
