package dashboard

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	cfgtypes "github.com/yanshicheng/kube-nova-board/common/configmanager/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type AddPageLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAddPageLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AddPageLogic {
	return &AddPageLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *AddPageLogic) AddPage(req *types.AddPageRequest) (resp *types.DashboardConfigResponse, err error) {
	cfg, err := l.svcCtx.ConfigManager.AddPage(l.ctx, cfgtypes.Page{ID: req.Id, Title: req.Title})
	if err != nil {
		l.Errorf("添加页面失败: title=%s, error=%v", req.Title, err)
		return nil, err
	}
	l.Infof("页面已添加: title=%s, pages=%d", req.Title, len(cfg.Pages))
	return &cfg, nil
}
