package dashboard

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type ImportConfigLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 整体替换当前配置并记录 import 快照
func NewImportConfigLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ImportConfigLogic {
	return &ImportConfigLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ImportConfigLogic) ImportConfig(req *types.ImportConfigRequest) (resp *types.DashboardConfigResponse, err error) {
	cfg, err := l.svcCtx.ConfigManager.Import(l.ctx, req.Config, req.Label)
	if err != nil {
		l.Errorf("导入配置失败: label=%s, error=%v", req.Label, err)
		return nil, err
	}
	l.Infof("配置已导入: pages=%d, queries=%d", len(cfg.Pages), cfg.Queries.Len())
	return &cfg, nil
}
