package query

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/yanshicheng/kube-nova-board/common/querymanager"
	"github.com/zeromicro/go-zero/core/logx"
)

type ResolveQueryBatchLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 批量解析指标查询引用
func NewResolveQueryBatchLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ResolveQueryBatchLogic {
	return &ResolveQueryBatchLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ResolveQueryBatchLogic) ResolveQueryBatch(req *types.ResolveQueryBatchRequest) (resp *types.ResolveQueryBatchResponse, err error) {
	refs := querymanager.CleanReferences(req.References)
	items, err := querymanager.ResolveQueries(refs, l.svcCtx.QueryLibrary(), req.Variables)
	if err != nil {
		l.Errorf("批量解析查询引用失败: count=%d, error=%v", len(refs), err)
		return nil, err
	}
	return &types.ResolveQueryBatchResponse{Items: items, Total: len(items)}, nil
}
