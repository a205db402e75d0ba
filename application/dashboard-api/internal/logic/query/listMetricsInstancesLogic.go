package query

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type ListMetricsInstancesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewListMetricsInstancesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListMetricsInstancesLogic {
	return &ListMetricsInstancesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ListMetricsInstancesLogic) ListMetricsInstances() (resp *types.MetricsInstancesResponse, err error) {
	return &types.MetricsInstancesResponse{Items: l.svcCtx.PrometheusManager.Names()}, nil
}
