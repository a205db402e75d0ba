package queue

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type ListQueueProvidersLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewListQueueProvidersLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListQueueProvidersLogic {
	return &ListQueueProvidersLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ListQueueProvidersLogic) ListQueueProviders() (resp *types.QueueProvidersResponse, err error) {
	items := l.svcCtx.QueueRegistry.Providers(l.ctx)
	resp = &types.QueueProvidersResponse{Items: items, Total: len(items)}
	if l.svcCtx.HealthMonitor != nil {
		resp.Health = l.svcCtx.HealthMonitor.Status()
	}
	return resp, nil
}
