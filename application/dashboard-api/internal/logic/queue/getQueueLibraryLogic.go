package queue

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type GetQueueLibraryLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 合并后的队列查询表
func NewGetQueueLibraryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetQueueLibraryLogic {
	return &GetQueueLibraryLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetQueueLibraryLogic) GetQueueLibrary() (resp *types.QueueLibraryResponse, err error) {
	table := l.svcCtx.QueueQueries()
	total := 0
	for _, queries := range table {
		total += len(queries)
	}
	return &types.QueueLibraryResponse{Items: table, Total: total}, nil
}
