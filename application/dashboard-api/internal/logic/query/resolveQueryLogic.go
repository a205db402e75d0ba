package query

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/yanshicheng/kube-nova-board/common/querymanager"
	"github.com/zeromicro/go-zero/core/logx"
)

type ResolveQueryLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 解析指标查询引用
func NewResolveQueryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ResolveQueryLogic {
	return &ResolveQueryLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ResolveQueryLogic) ResolveQuery(req *types.ResolveQueryRequest) (resp *querymanager.ResolvedQuery, err error) {
	resolved, err := querymanager.ResolveQuery(req.Reference, l.svcCtx.QueryLibrary(), req.Variables)
	if err != nil {
		l.Errorf("解析查询引用失败: reference=%s, error=%v", req.Reference, err)
		return nil, err
	}
	return resolved, nil
}
